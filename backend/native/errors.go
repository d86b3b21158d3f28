// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import "errors"

// Package errors for the HAL adapter.
var (
	// ErrNoGPU is returned when no GPU adapter is available.
	ErrNoGPU = errors.New("native: no GPU adapter available")

	// ErrDestroyed is returned by operations on a destroyed adapter.
	ErrDestroyed = errors.New("native: adapter destroyed")

	// ErrDeviceLost is returned when a fence wait fails.
	ErrDeviceLost = errors.New("native: GPU device lost")

	// ErrUnaligned is returned when a copy range is not a multiple of 4 bytes.
	ErrUnaligned = errors.New("native: copy range not 4-byte aligned")

	// ErrNoHALProvider is returned when a device provider does not expose
	// HAL device and queue objects.
	ErrNoHALProvider = errors.New("native: provider does not expose HAL types")
)
