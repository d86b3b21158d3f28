// Package ocean synthesizes a periodic, animated ocean surface with the
// FFT-ocean technique.
//
// # Overview
//
// A [Tile] owns the GPU buffers and compute stages for one square patch of
// water. The spectrum of the surface is generated once; every update then
// evolves it to a time t, runs a batched inverse 2-D FFT over seven
// frequency-domain channels, and reconstructs a displacement and a normal
// per grid cell.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/ocean"
//	    "github.com/gogpu/ocean/fft/stockham"
//	    "github.com/gogpu/ocean/gpucore/software"
//	)
//
//	adapter := software.New()
//	defer adapter.Destroy()
//
//	tile, err := ocean.NewTile(adapter, stockham.New(), ocean.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tile.Destroy()
//	if err := tile.Initialize(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	enc, _ := adapter.CreateCommandEncoder("frame")
//	tile.RecordComputeWaves(enc, seconds)
//	cb, _ := enc.Finish()
//	adapter.Submit(cb)
//
// # Pipeline
//
// Initialize builds the wave-vector table on the host, dispatches the
// spectrum stage and waits for it on a fence. RecordComputeWaves only
// records: evolve, barrier, FFT, barrier, reconstruct, barrier. It never
// blocks, and the host decides when to submit.
//
// # Adapters
//
// Stages are recorded against [gpucore.GPUAdapter]:
//   - backend/native runs the WGSL kernels on a gogpu/wgpu HAL device
//   - gpucore/software runs the host kernels on the CPU and validates barriers
//
// # Coordinate System
//
// The tile lies in the XZ plane with Y up. Cell (x, y) of the output sits at
// world position (x·L/N, 0, y·L/N) before displacement.
package ocean

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
