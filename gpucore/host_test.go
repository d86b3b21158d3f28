// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestViewAs(t *testing.T) {
	src := []complex64{complex(1, 2), complex(3, 4)}
	b := BytesOf(src)
	if len(b) != 16 {
		t.Fatalf("len(BytesOf) = %d, want 16", len(b))
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(b[8:])); got != 3 {
		t.Errorf("byte view of element 1 real = %v, want 3", got)
	}

	v := ViewAs[complex64](b)
	if len(v) != 2 || v[1] != complex(3, 4) {
		t.Errorf("ViewAs = %v, want %v", v, src)
	}
	// Views alias the underlying memory.
	v[0] = complex(9, 9)
	if src[0] != complex(9, 9) {
		t.Error("ViewAs did not alias the source memory")
	}
}

func TestViewAsShort(t *testing.T) {
	if v := ViewAs[complex64](make([]byte, 7)); v != nil {
		t.Errorf("ViewAs(7 bytes) = %v, want nil", v)
	}
	if v := ViewAs[complex64](make([]byte, 12)); len(v) != 1 {
		t.Errorf("len(ViewAs(12 bytes)) = %d, want 1", len(v))
	}
}

func TestHostBindings(t *testing.T) {
	imm := make([]byte, 8)
	binary.LittleEndian.PutUint32(imm[0:], 42)
	binary.LittleEndian.PutUint32(imm[4:], math.Float32bits(1.5))
	hb := &HostBindings{
		Groups:     [][][]byte{{[]byte{1}, []byte{2, 3}}},
		Immediates: imm,
	}
	if got := hb.Uint32(0); got != 42 {
		t.Errorf("Uint32(0) = %d, want 42", got)
	}
	if got := hb.Float32(4); got != 1.5 {
		t.Errorf("Float32(4) = %v, want 1.5", got)
	}
	if got := hb.Buffer(0, 1); len(got) != 2 {
		t.Errorf("Buffer(0, 1) = %v", got)
	}
	if got := hb.Buffer(1, 0); got != nil {
		t.Errorf("Buffer(1, 0) = %v, want nil", got)
	}
}
