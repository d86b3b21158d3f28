// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ocean

import "errors"

var (
	// ErrInvalidTileSize is returned when the tile size is not a positive power of two.
	ErrInvalidTileSize = errors.New("ocean: tile size must be a positive power of two")

	// ErrInvalidTileLength is returned when the tile length is not positive.
	ErrInvalidTileLength = errors.New("ocean: tile length must be positive")

	// ErrInvalidConfig is returned for other out-of-range configuration values.
	ErrInvalidConfig = errors.New("ocean: invalid configuration")

	// ErrNotInitialized is the panic value of RecordComputeWaves when
	// Initialize has not completed.
	ErrNotInitialized = errors.New("ocean: tile not initialized")

	// ErrNilAdapter is returned when NewTile is given a nil adapter.
	ErrNilAdapter = errors.New("ocean: adapter must not be nil")

	// ErrNilFFT is returned when NewTile is given a nil FFT backend.
	ErrNilFFT = errors.New("ocean: FFT backend must not be nil")

	// ErrDestroyed is returned by operations on a destroyed tile.
	ErrDestroyed = errors.New("ocean: tile destroyed")
)
