// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// HostKernel is the CPU implementation of one compute entry point.
//
// Prepare runs once per dispatch with the resolved bindings and returns the
// function invoked for every global invocation ID, in the same way WGSL
// invokes main with @builtin(global_invocation_id). Invocations may run
// concurrently and must only write disjoint memory, exactly as on a GPU.
type HostKernel struct {
	WorkgroupSize [3]uint32
	Prepare       func(b *HostBindings) func(id [3]uint32)
}

// HostBindings exposes the buffers bound for one dispatch.
type HostBindings struct {
	// Groups[g][b] is the byte range bound at @group(g) @binding(b).
	Groups [][][]byte

	// Immediates is the data block set with SetImmediates.
	Immediates []byte
}

// Buffer returns the bytes bound at group g, binding b, or nil.
func (h *HostBindings) Buffer(g, b int) []byte {
	if g < 0 || g >= len(h.Groups) || b < 0 || b >= len(h.Groups[g]) {
		return nil
	}
	return h.Groups[g][b]
}

// Uint32 reads the little-endian u32 at byte offset off of the immediates.
func (h *HostBindings) Uint32(off int) uint32 {
	return binary.LittleEndian.Uint32(h.Immediates[off:])
}

// Float32 reads the little-endian f32 at byte offset off of the immediates.
func (h *HostBindings) Float32(off int) float32 {
	return math.Float32frombits(h.Uint32(off))
}

// ViewAs reinterprets b as a slice of T. Trailing bytes that do not fill a
// whole T are ignored. T must be a fixed-size type without pointers whose
// layout matches the WGSL struct it mirrors.
func ViewAs[T any](b []byte) []T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if len(b) < size || size == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), len(b)/size)
}

// BytesOf reinterprets s as raw bytes.
func BytesOf[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(s)*int(unsafe.Sizeof(zero)))
}
