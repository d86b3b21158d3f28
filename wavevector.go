// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ocean

import (
	"fmt"
	"math"
)

// unitEpsilon is the |k| below which the unit direction is defined as zero.
const unitEpsilon = 1e-6

// WaveVector is one entry of the wave-vector table.
// Must match struct WaveVector in the WGSL kernels (16 bytes).
type WaveVector struct {
	// K is the angular wave vector (kx, kz).
	K Vec2

	// Unit is K/|K|, or the zero vector when |K| is below unitEpsilon.
	Unit Vec2
}

// NewWaveVectorTable returns the N² wave vectors of a tile of side length.
//
// Entry i = m·N + n holds k = π·(2n − N, 2m − N)/length, so the lattice is
// centered on k = 0 at (N/2, N/2) and spaced 2π/length apart. The result
// is a pure function of its arguments.
func NewWaveVectorTable(n int, length float64) ([]WaveVector, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTileSize, n)
	}
	if !(length > 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTileLength, length)
	}

	table := make([]WaveVector, n*n)
	scale := math.Pi / length
	for m := range n {
		kz := scale * float64(2*m-n)
		for col := range n {
			kx := scale * float64(2*col-n)
			wv := WaveVector{K: Vec2{X: float32(kx), Y: float32(kz)}}
			if l := math.Hypot(kx, kz); l > unitEpsilon {
				wv.Unit = Vec2{X: float32(kx / l), Y: float32(kz / l)}
			}
			table[m*n+col] = wv
		}
	}
	return table, nil
}

// mirrorIndex returns the index of the cell holding -k for cell (m, n):
// ((N−m) mod N, (N−n) mod N).
func mirrorIndex(n, m, col int) int {
	return ((n-m)%n)*n + (n-col)%n
}
