// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import "errors"

var (
	// ErrUnknownResource is returned when an ID does not name a live resource.
	ErrUnknownResource = errors.New("gpucore: unknown resource")

	// ErrHazard is returned by CommandEncoder.Finish when a recorded dispatch
	// accesses a buffer that an earlier dispatch in the same command buffer
	// touched without an intervening barrier.
	ErrHazard = errors.New("gpucore: unsynchronized buffer access")

	// ErrHostKernelMissing is returned when an adapter that executes on the
	// CPU is given a shader module with no host entry point.
	ErrHostKernelMissing = errors.New("gpucore: host entry point missing")

	// ErrWGSLMissing is returned when a device adapter is given a shader
	// module with no WGSL source.
	ErrWGSLMissing = errors.New("gpucore: WGSL source missing")

	// ErrEncoderFinished is returned when a command encoder is used after
	// Finish or Discard.
	ErrEncoderFinished = errors.New("gpucore: command encoder already finished")

	// ErrPassOpen is returned when a barrier or Finish is recorded while a
	// compute pass is still open.
	ErrPassOpen = errors.New("gpucore: compute pass still open")
)
