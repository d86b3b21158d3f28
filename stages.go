// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ocean

import (
	"fmt"

	"github.com/gogpu/ocean/gpucore"
	"github.com/gogpu/ocean/internal/logx"
)

// stageBinding is one buffer binding of a stage's bind group 0.
type stageBinding struct {
	typ    gpucore.BindingType
	buffer gpucore.BufferID
}

// stageDesc describes one compute stage of the tile.
type stageDesc struct {
	name          string
	wgsl          string
	kernel        gpucore.HostKernel
	bindings      []stageBinding
	immediateSize uint32
}

// computeStage owns the GPU objects of one dispatch.
type computeStage struct {
	name           string
	module         gpucore.ShaderModuleID
	groupLayout    gpucore.BindGroupLayoutID
	pipelineLayout gpucore.PipelineLayoutID
	pipeline       gpucore.ComputePipelineID
	bindGroup      gpucore.BindGroupID
}

// newComputeStage creates the module, layouts, pipeline and bind group of a
// stage. On failure everything created so far is released.
func newComputeStage(a gpucore.GPUAdapter, desc *stageDesc) (s *computeStage, err error) {
	s = &computeStage{name: desc.name}
	defer func() {
		if err != nil {
			s.destroy(a)
			s = nil
		}
	}()

	s.module, err = a.CreateShaderModule(&gpucore.ShaderModuleDesc{
		Label: desc.name,
		WGSL:  desc.wgsl,
		Host:  map[string]gpucore.HostKernel{"main": desc.kernel},
	})
	if err != nil {
		return s, fmt.Errorf("create %s shader module: %w", desc.name, err)
	}

	layoutEntries := make([]gpucore.BindGroupLayoutEntry, len(desc.bindings))
	groupEntries := make([]gpucore.BindGroupEntry, len(desc.bindings))
	for i, b := range desc.bindings {
		layoutEntries[i] = gpucore.BindGroupLayoutEntry{Binding: uint32(i), Type: b.typ}
		groupEntries[i] = gpucore.BindGroupEntry{Binding: uint32(i), Buffer: b.buffer}
	}

	s.groupLayout, err = a.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{
		Label:   desc.name + "_bind_layout",
		Entries: layoutEntries,
	})
	if err != nil {
		return s, fmt.Errorf("create %s bind group layout: %w", desc.name, err)
	}

	s.pipelineLayout, err = a.CreatePipelineLayout(&gpucore.PipelineLayoutDesc{
		Label:            desc.name + "_pipe_layout",
		BindGroupLayouts: []gpucore.BindGroupLayoutID{s.groupLayout},
		ImmediateSize:    desc.immediateSize,
	})
	if err != nil {
		return s, fmt.Errorf("create %s pipeline layout: %w", desc.name, err)
	}

	s.pipeline, err = a.CreateComputePipeline(&gpucore.ComputePipelineDesc{
		Label:        desc.name,
		Layout:       s.pipelineLayout,
		ShaderModule: s.module,
		EntryPoint:   "main",
	})
	if err != nil {
		return s, fmt.Errorf("create %s pipeline: %w", desc.name, err)
	}

	s.bindGroup, err = a.CreateBindGroup(&gpucore.BindGroupDesc{
		Label:   desc.name + "_bind_group",
		Layout:  s.groupLayout,
		Entries: groupEntries,
	})
	if err != nil {
		return s, fmt.Errorf("create %s bind group: %w", desc.name, err)
	}

	logx.Logger().Debug("ocean: stage created", "stage", desc.name, "bindings", len(desc.bindings))
	return s, nil
}

// record appends one dispatch of the stage over an n×n grid.
func (s *computeStage) record(enc gpucore.CommandEncoder, n int, immediates []byte) {
	pass := enc.BeginComputePass(s.name)
	pass.SetPipeline(s.pipeline)
	pass.SetBindGroup(0, s.bindGroup)
	if immediates != nil {
		pass.SetImmediates(immediates)
	}
	pass.Dispatch(workgroupCount(n, kernelWorkgroup[0]), workgroupCount(n, kernelWorkgroup[1]), 1)
	pass.End()
}

// destroy releases the stage objects in reverse creation order.
func (s *computeStage) destroy(a gpucore.GPUAdapter) {
	if s.bindGroup != gpucore.InvalidID {
		a.DestroyBindGroup(s.bindGroup)
		s.bindGroup = gpucore.InvalidID
	}
	if s.pipeline != gpucore.InvalidID {
		a.DestroyComputePipeline(s.pipeline)
		s.pipeline = gpucore.InvalidID
	}
	if s.pipelineLayout != gpucore.InvalidID {
		a.DestroyPipelineLayout(s.pipelineLayout)
		s.pipelineLayout = gpucore.InvalidID
	}
	if s.groupLayout != gpucore.InvalidID {
		a.DestroyBindGroupLayout(s.groupLayout)
		s.groupLayout = gpucore.InvalidID
	}
	if s.module != gpucore.InvalidID {
		a.DestroyShaderModule(s.module)
		s.module = gpucore.InvalidID
	}
}

func workgroupCount(n int, size uint32) uint32 {
	return (uint32(n) + size - 1) / size
}

// The three stages of a tile.

func spectrumStageDesc(params, waves, spectrum gpucore.BufferID) *stageDesc {
	return &stageDesc{
		name:   "ocean_spectrum",
		wgsl:   shaderSpectrum,
		kernel: spectrumKernel,
		bindings: []stageBinding{
			{gpucore.BindingTypeUniformBuffer, params},
			{gpucore.BindingTypeReadOnlyStorageBuffer, waves},
			{gpucore.BindingTypeStorageBuffer, spectrum},
		},
	}
}

func evolveStageDesc(spectrum, waves, field gpucore.BufferID) *stageDesc {
	return &stageDesc{
		name:   "ocean_evolve",
		wgsl:   shaderEvolve,
		kernel: evolveKernel,
		bindings: []stageBinding{
			{gpucore.BindingTypeReadOnlyStorageBuffer, spectrum},
			{gpucore.BindingTypeReadOnlyStorageBuffer, waves},
			{gpucore.BindingTypeStorageBuffer, field},
		},
		immediateSize: waveParamsSize,
	}
}

func reconstructStageDesc(field, output gpucore.BufferID) *stageDesc {
	return &stageDesc{
		name:   "ocean_reconstruct",
		wgsl:   shaderReconstruct,
		kernel: reconstructKernel,
		bindings: []stageBinding{
			{gpucore.BindingTypeReadOnlyStorageBuffer, field},
			{gpucore.BindingTypeStorageBuffer, output},
		},
		immediateSize: waveParamsSize,
	}
}
