// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package software implements [gpucore.GPUAdapter] on the CPU.
//
// Shader modules run through their host entry points
// ([gpucore.HostKernel]); WGSL sources are ignored. A single queue goroutine
// executes writes, submissions and readbacks in submission order, and each
// dispatch spreads its workgroups across a worker pool.
//
// By default every command encoder validates barriers with
// [gpucore.HazardTracker], so Finish fails with [gpucore.ErrHazard] when a
// dispatch depends on an earlier one without a barrier between them.
//
// Example:
//
//	adapter := software.New()
//	defer adapter.Destroy()
//	tile, err := ocean.NewTile(adapter, stockham.New(), ocean.DefaultConfig())
package software
