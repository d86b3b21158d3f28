// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package backend selects the gpucore.GPUAdapter an ocean tile runs on.
//
// Adapters are registered via init() functions and selected at runtime.
// The software adapter is always registered; importing backend/native adds
// the HAL device adapter:
//
//	import _ "github.com/gogpu/ocean/backend/native"
//
// # Backend Selection
//
// Use OpenDefault to get the best available adapter, or Open to request one
// by name:
//
//	a, err := backend.OpenDefault()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer a.Destroy()
//
//	a, err = backend.Open(backend.Software)
//
// # Available Backends
//
//   - "native": GPU compute via gogpu/wgpu HAL (Vulkan)
//   - "software": host kernels on a worker pool (always available)
package backend
