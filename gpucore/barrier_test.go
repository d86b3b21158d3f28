// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import (
	"errors"
	"testing"
)

func TestHazardTracker(t *testing.T) {
	const a, b BufferID = 1, 2
	read := func(buf BufferID) BufferAccess { return BufferAccess{Buffer: buf, Access: AccessShaderRead} }
	write := func(buf BufferID) BufferAccess { return BufferAccess{Buffer: buf, Access: AccessShaderReadWrite} }

	tests := []struct {
		name    string
		first   []BufferAccess
		barrier *BufferBarrier
		second  []BufferAccess
		hazard  bool
	}{
		{"read after read", []BufferAccess{read(a)}, nil, []BufferAccess{read(a)}, false},
		{"read after write", []BufferAccess{write(a)}, nil, []BufferAccess{read(a)}, true},
		{"write after read", []BufferAccess{read(a)}, nil, []BufferAccess{write(a)}, true},
		{"write after write", []BufferAccess{write(a)}, nil, []BufferAccess{write(a)}, true},
		{"disjoint buffers", []BufferAccess{write(a)}, nil, []BufferAccess{write(b)}, false},
		{"barrier covers write", []BufferAccess{write(a)}, &BufferBarrier{Buffer: a, Src: AccessShaderReadWrite, Dst: AccessShaderRead}, []BufferAccess{read(a)}, false},
		{"barrier on other buffer", []BufferAccess{write(a)}, &BufferBarrier{Buffer: b, Src: AccessShaderReadWrite, Dst: AccessShaderRead}, []BufferAccess{read(a)}, true},
		{"barrier covers read only", []BufferAccess{write(a)}, &BufferBarrier{Buffer: a, Src: AccessShaderRead, Dst: AccessShaderWrite}, []BufferAccess{read(a)}, true},
		{"same dispatch read and write", nil, nil, []BufferAccess{read(a), write(a)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h HazardTracker
			if err := h.Dispatch("first", tt.first); err != nil {
				t.Fatalf("first Dispatch() = %v", err)
			}
			if tt.barrier != nil {
				h.Barrier(*tt.barrier)
			}
			err := h.Dispatch("second", tt.second)
			if got := errors.Is(err, ErrHazard); got != tt.hazard {
				t.Errorf("second Dispatch() = %v, hazard want %v", err, tt.hazard)
			}
		})
	}
}

func TestHazardTrackerFailedDispatchRecordsNothing(t *testing.T) {
	var h HazardTracker
	_ = h.Dispatch("w", []BufferAccess{{Buffer: 1, Access: AccessShaderReadWrite}})
	err := h.Dispatch("bad", []BufferAccess{
		{Buffer: 2, Access: AccessShaderReadWrite},
		{Buffer: 1, Access: AccessShaderRead},
	})
	if !errors.Is(err, ErrHazard) {
		t.Fatalf("Dispatch() = %v, want ErrHazard", err)
	}
	if p := h.Pending(2); p != 0 {
		t.Errorf("Pending(2) = %v after rejected dispatch, want none", p)
	}
}

func TestHazardTrackerReset(t *testing.T) {
	var h HazardTracker
	_ = h.Dispatch("w", []BufferAccess{{Buffer: 1, Access: AccessShaderReadWrite}})
	h.Reset()
	if err := h.Dispatch("r", []BufferAccess{{Buffer: 1, Access: AccessShaderRead}}); err != nil {
		t.Errorf("Dispatch() after Reset = %v", err)
	}
}

func TestAccessString(t *testing.T) {
	tests := []struct {
		a    Access
		want string
	}{
		{0, "none"},
		{AccessShaderRead, "shader-read"},
		{AccessShaderReadWrite, "shader-read|shader-write"},
		{AccessVertexRead | AccessHostRead, "vertex-read|host-read"},
	}
	for _, tt := range tests {
		if got := tt.a.String(); got != tt.want {
			t.Errorf("Access(%d).String() = %q, want %q", tt.a, got, tt.want)
		}
	}
}
