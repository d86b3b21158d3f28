// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ocean

import "github.com/gogpu/ocean/gpucore"

// InverseFFT is a batched, in-place, unnormalized inverse 2-D FFT recorded
// into a command encoder.
//
// For each of batch channels of n×n complex64 values stored back to back in
// field, Record transforms
//
//	x[r, c] = Σ_{m,n} X[m, n] · e^{+2πi(m·r + n·c)/N}
//
// without the 1/N² factor. Implementations insert their own barriers between
// internal passes; the caller orders the transform against other stages.
// Packages fft/stockham and fft/hostfft provide implementations.
type InverseFFT interface {
	// Setup allocates pipelines and scratch resources for field.
	// It is called once by Tile.Initialize; an error aborts initialization.
	Setup(adapter gpucore.GPUAdapter, field gpucore.BufferID, n, batch int) error

	// Record appends the transform to enc. It never blocks.
	Record(enc gpucore.CommandEncoder)

	// Destroy releases everything Setup allocated. Safe to call more than once.
	Destroy()
}
