// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import "context"

// GPUAdapter abstracts over GPU backend implementations.
//
// The ocean pipeline records all of its work through this interface, so the
// same stages run on a HAL device (backend/native) or on the CPU
// (gpucore/software). Implementations must be safe for concurrent use.
//
// Resource lifecycle:
//   - Resources are created via Create* methods
//   - Resources must be explicitly destroyed via Destroy* methods
//   - Destroying a resource while in use by a pending submission is undefined behavior
//   - IDs become invalid after destruction and are never reused
type GPUAdapter interface {
	// === Capabilities ===

	// Name returns a short description of the adapter for logs.
	Name() string

	// SupportsCompute returns whether compute shaders are supported.
	SupportsCompute() bool

	// MaxWorkgroupSize returns the maximum workgroup size in each dimension.
	MaxWorkgroupSize() [3]uint32

	// MaxBufferSize returns the maximum buffer size in bytes.
	MaxBufferSize() uint64

	// === Shader Compilation ===

	// CreateShaderModule creates a shader module. Device adapters compile
	// desc.WGSL; CPU adapters use desc.Host.
	CreateShaderModule(desc *ShaderModuleDesc) (ShaderModuleID, error)

	// DestroyShaderModule releases a shader module.
	DestroyShaderModule(id ShaderModuleID)

	// === Buffer Management ===

	// CreateBuffer creates a zero-initialized buffer of size bytes.
	CreateBuffer(label string, size uint64, usage BufferUsage) (BufferID, error)

	// DestroyBuffer releases a buffer.
	DestroyBuffer(id BufferID)

	// WriteBuffer schedules a write of data at offset. The write is ordered
	// before any command buffer submitted after this call.
	WriteBuffer(id BufferID, offset uint64, data []byte) error

	// ReadBuffer reads size bytes at offset after all previously submitted
	// work has completed. This stalls the caller.
	ReadBuffer(ctx context.Context, id BufferID, offset, size uint64) ([]byte, error)

	// === Pipeline Management ===

	// CreateBindGroupLayout creates a bind group layout.
	CreateBindGroupLayout(desc *BindGroupLayoutDesc) (BindGroupLayoutID, error)

	// DestroyBindGroupLayout releases a bind group layout.
	DestroyBindGroupLayout(id BindGroupLayoutID)

	// CreatePipelineLayout creates a pipeline layout.
	CreatePipelineLayout(desc *PipelineLayoutDesc) (PipelineLayoutID, error)

	// DestroyPipelineLayout releases a pipeline layout.
	DestroyPipelineLayout(id PipelineLayoutID)

	// CreateComputePipeline creates a compute pipeline.
	CreateComputePipeline(desc *ComputePipelineDesc) (ComputePipelineID, error)

	// DestroyComputePipeline releases a compute pipeline.
	DestroyComputePipeline(id ComputePipelineID)

	// CreateBindGroup creates a bind group.
	CreateBindGroup(desc *BindGroupDesc) (BindGroupID, error)

	// DestroyBindGroup releases a bind group.
	DestroyBindGroup(id BindGroupID)

	// === Command Recording and Execution ===

	// CreateCommandEncoder returns a fresh encoder for recording work.
	CreateCommandEncoder(label string) (CommandEncoder, error)

	// Submit queues command buffers for execution in order and returns
	// immediately. The returned index can be waited on.
	Submit(cmds ...CommandBuffer) (SubmissionIndex, error)

	// Wait blocks until the submission has completed, the context is done,
	// or execution failed.
	Wait(ctx context.Context, idx SubmissionIndex) error

	// Destroy releases the adapter and any resources it still owns.
	Destroy()
}

// CommandEncoder records compute passes and barriers into a command buffer.
//
// Recording never fails immediately; errors such as unknown IDs accumulate
// and are reported by Finish. The encoder is single-use.
type CommandEncoder interface {
	// BeginComputePass opens a compute pass. It must be ended before the
	// next pass, barrier, or Finish.
	BeginComputePass(label string) ComputePassEncoder

	// Barrier orders the listed buffer accesses: work recorded after the
	// barrier observes writes recorded before it.
	Barrier(barriers ...BufferBarrier)

	// Finish ends recording and returns the command buffer.
	Finish() (CommandBuffer, error)

	// Discard abandons recording and releases encoder resources.
	Discard()
}

// ComputePassEncoder records compute commands.
//
// Usage:
//  1. Obtain encoder from CommandEncoder.BeginComputePass()
//  2. Set pipeline, bind groups and immediates
//  3. Dispatch compute workgroups
//  4. Call End() to finish recording
type ComputePassEncoder interface {
	// SetPipeline sets the active compute pipeline.
	SetPipeline(pipeline ComputePipelineID)

	// SetBindGroup sets a bind group at the specified index.
	SetBindGroup(index uint32, group BindGroupID)

	// SetImmediates sets the per-dispatch data block declared by the
	// pipeline layout. The bytes are copied.
	SetImmediates(data []byte)

	// Dispatch dispatches compute workgroups.
	// x, y, z are the number of workgroups in each dimension.
	Dispatch(x, y, z uint32)

	// End finishes the compute pass.
	End()
}

// CommandBuffer is a finished recording ready for GPUAdapter.Submit.
type CommandBuffer interface {
	// Label returns the debug label given to the encoder.
	Label() string
}
