// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import (
	"fmt"
	"strings"
)

// Access is a bitmask of the ways work may touch a buffer.
type Access uint32

// Access flags.
const (
	AccessShaderRead Access = 1 << iota
	AccessShaderWrite
	AccessTransferRead
	AccessTransferWrite
	AccessVertexRead
	AccessHostRead

	// AccessShaderReadWrite covers read-write storage bindings.
	AccessShaderReadWrite = AccessShaderRead | AccessShaderWrite
)

func (a Access) String() string {
	if a == 0 {
		return "none"
	}
	names := []string{"shader-read", "shader-write", "transfer-read", "transfer-write", "vertex-read", "host-read"}
	var parts []string
	for i, name := range names {
		if a&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}

// BufferBarrier makes Src accesses to Buffer recorded before the barrier
// visible to Dst accesses recorded after it.
type BufferBarrier struct {
	Buffer BufferID
	Src    Access
	Dst    Access
}

// HazardTracker detects unsynchronized buffer accesses within one command
// buffer. Each dispatch reports its bindings through Dispatch; barriers
// clear the pending accesses they cover.
//
// A read of a buffer with a pending write is a read-after-write hazard.
// A write to a buffer with any pending access is a write-after-write or
// write-after-read hazard. Read-after-read never conflicts.
//
// The zero value is ready to use. HazardTracker is not safe for concurrent use.
type HazardTracker struct {
	pending map[BufferID]Access
}

// BufferAccess is one buffer touched by a dispatch.
type BufferAccess struct {
	Buffer BufferID
	Access Access
}

// Dispatch checks the accesses of one dispatch against pending state and,
// when they are safe, records them as pending. All accesses of a dispatch
// are checked before any are recorded.
func (h *HazardTracker) Dispatch(label string, accesses []BufferAccess) error {
	if h.pending == nil {
		h.pending = make(map[BufferID]Access)
	}
	merged := make(map[BufferID]Access, len(accesses))
	for _, a := range accesses {
		merged[a.Buffer] |= a.Access
	}
	for buf, acc := range merged {
		prev := h.pending[buf]
		if acc&AccessShaderRead != 0 && prev&AccessShaderWrite != 0 {
			return fmt.Errorf("%w: %s reads buffer %d after an unsynchronized write", ErrHazard, label, buf)
		}
		if acc&AccessShaderWrite != 0 && prev != 0 {
			return fmt.Errorf("%w: %s writes buffer %d with pending %s", ErrHazard, label, buf, prev)
		}
	}
	for buf, acc := range merged {
		h.pending[buf] |= acc
	}
	return nil
}

// Barrier clears the pending accesses covered by b.Src.
func (h *HazardTracker) Barrier(b BufferBarrier) {
	if h.pending == nil {
		return
	}
	left := h.pending[b.Buffer] &^ b.Src
	if left == 0 {
		delete(h.pending, b.Buffer)
		return
	}
	h.pending[b.Buffer] = left
}

// Pending returns the accesses to buf not yet covered by a barrier.
func (h *HazardTracker) Pending(buf BufferID) Access {
	return h.pending[buf]
}

// Reset forgets all pending accesses.
func (h *HazardTracker) Reset() {
	clear(h.pending)
}
