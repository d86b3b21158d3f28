// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpucore provides the GPU abstractions the ocean pipeline records against.
//
// This package defines the [GPUAdapter] interface and the command recording
// interfaces [CommandEncoder] and [ComputePassEncoder]. The same stages run on:
//   - backend/native (gogpu/wgpu HAL devices, WGSL compiled by naga)
//   - gpucore/software (CPU execution of host kernels)
//
// # Resource Management
//
// GPU resources are managed via opaque IDs ([BufferID], [ComputePipelineID], etc.).
// Adapters are responsible for tracking the mapping between IDs and actual
// GPU resources.
//
// # Synchronization
//
// Dispatches within one command buffer are unordered with respect to buffer
// memory unless separated by a [BufferBarrier]. [HazardTracker] implements the
// validation rule the software adapter applies at Finish, so a missing barrier
// fails tests instead of producing a torn frame on a real GPU.
//
// # Host Kernels
//
// A [ShaderModuleDesc] may carry [HostKernel] implementations of its entry
// points next to the WGSL source. Host kernels receive the bound buffers as
// bytes; [ViewAs] reinterprets them as typed slices matching the WGSL structs.
package gpucore
