// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package stockham implements a batched inverse 2-D FFT as a sequence of
// radix-2 Stockham compute passes.
//
// A transform of N×N takes 2·log2(N) passes: log2(N) along rows, then
// log2(N) along columns. Passes ping-pong between the caller's buffer and a
// scratch buffer of the same size, with a barrier after each pass. The pass
// count is even, so the result always lands back in the caller's buffer.
//
// The package ships both a WGSL kernel and an equivalent host kernel, so it
// runs on device adapters and on the software adapter alike.
package stockham

import (
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"

	"github.com/gogpu/ocean/gpucore"
	"github.com/gogpu/ocean/internal/logx"
)

//go:embed stockham.wgsl
var shaderSource string

// Shader returns the WGSL source of the pass kernel.
func Shader() string { return shaderSource }

// workgroupSize must match @workgroup_size in stockham.wgsl.
var workgroupSize = [3]uint32{64, 1, 1}

// paramsSize is the byte size of FFTParams in stockham.wgsl.
const paramsSize = 16

const complexSize = 8

// Axis values of FFTParams.axis.
const (
	axisRows    = 0
	axisColumns = 1
)

// ErrInvalidSize is returned by Setup when n is not a positive power of two
// or batch is not positive.
var ErrInvalidSize = errors.New("stockham: size must be a positive power of two")

// pass is one recorded dispatch.
type pass struct {
	ns   uint32
	axis uint32
	// toScratch selects the field→scratch bind group; otherwise scratch→field.
	toScratch bool
}

// FFT is a batched in-place inverse 2-D FFT over complex64 channels.
//
// The zero value is not usable; create one with New. An FFT is set up for
// exactly one buffer; Setup after Destroy sets it up again.
type FFT struct {
	adapter gpucore.GPUAdapter
	n       int
	batch   int

	field   gpucore.BufferID
	scratch gpucore.BufferID

	module         gpucore.ShaderModuleID
	groupLayout    gpucore.BindGroupLayoutID
	pipelineLayout gpucore.PipelineLayoutID
	pipeline       gpucore.ComputePipelineID
	toScratch      gpucore.BindGroupID
	toField        gpucore.BindGroupID

	passes []pass
}

// New returns an FFT ready for Setup.
func New() *FFT {
	return &FFT{}
}

// Passes returns the number of dispatches Record appends.
func (f *FFT) Passes() int { return len(f.passes) }

// Setup creates the scratch buffer, pipeline and bind groups for transforming
// batch channels of n×n complex64 values stored back to back in field.
// On failure everything created so far is released.
func (f *FFT) Setup(adapter gpucore.GPUAdapter, field gpucore.BufferID, n, batch int) (err error) {
	if n <= 0 || n&(n-1) != 0 || batch <= 0 {
		return fmt.Errorf("%w: n=%d batch=%d", ErrInvalidSize, n, batch)
	}
	if f.adapter != nil {
		return errors.New("stockham: already set up")
	}
	f.adapter = adapter
	f.n, f.batch, f.field = n, batch, field
	defer func() {
		if err != nil {
			f.Destroy()
		}
	}()

	size := uint64(n) * uint64(n) * uint64(batch) * complexSize
	if f.scratch, err = adapter.CreateBuffer("stockham_scratch", size, gpucore.BufferUsageStorage); err != nil {
		return fmt.Errorf("stockham: create scratch buffer: %w", err)
	}

	if f.module, err = adapter.CreateShaderModule(&gpucore.ShaderModuleDesc{
		Label: "stockham",
		WGSL:  shaderSource,
		Host:  map[string]gpucore.HostKernel{"main": passKernel},
	}); err != nil {
		return fmt.Errorf("stockham: create shader module: %w", err)
	}

	if f.groupLayout, err = adapter.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{
		Label: "stockham_bind_layout",
		Entries: []gpucore.BindGroupLayoutEntry{
			{Binding: 0, Type: gpucore.BindingTypeReadOnlyStorageBuffer},
			{Binding: 1, Type: gpucore.BindingTypeStorageBuffer},
		},
	}); err != nil {
		return fmt.Errorf("stockham: create bind group layout: %w", err)
	}

	if f.pipelineLayout, err = adapter.CreatePipelineLayout(&gpucore.PipelineLayoutDesc{
		Label:            "stockham_pipe_layout",
		BindGroupLayouts: []gpucore.BindGroupLayoutID{f.groupLayout},
		ImmediateSize:    paramsSize,
	}); err != nil {
		return fmt.Errorf("stockham: create pipeline layout: %w", err)
	}

	if f.pipeline, err = adapter.CreateComputePipeline(&gpucore.ComputePipelineDesc{
		Label:        "stockham",
		Layout:       f.pipelineLayout,
		ShaderModule: f.module,
		EntryPoint:   "main",
	}); err != nil {
		return fmt.Errorf("stockham: create pipeline: %w", err)
	}

	bind := func(label string, src, dst gpucore.BufferID) (gpucore.BindGroupID, error) {
		return adapter.CreateBindGroup(&gpucore.BindGroupDesc{
			Label:  label,
			Layout: f.groupLayout,
			Entries: []gpucore.BindGroupEntry{
				{Binding: 0, Buffer: src},
				{Binding: 1, Buffer: dst},
			},
		})
	}
	if f.toScratch, err = bind("stockham_to_scratch", field, f.scratch); err != nil {
		return fmt.Errorf("stockham: create bind group: %w", err)
	}
	if f.toField, err = bind("stockham_to_field", f.scratch, field); err != nil {
		return fmt.Errorf("stockham: create bind group: %w", err)
	}

	f.passes = planPasses(n)
	logx.Logger().Debug("stockham: set up",
		"n", n,
		"batch", batch,
		"passes", len(f.passes),
		"scratch_bytes", size)
	return nil
}

// planPasses lists the row passes followed by the column passes.
func planPasses(n int) []pass {
	stages := bits.TrailingZeros(uint(n))
	out := make([]pass, 0, 2*stages)
	for _, axis := range []uint32{axisRows, axisColumns} {
		for s := range stages {
			out = append(out, pass{
				ns:        1 << s,
				axis:      axis,
				toScratch: len(out)%2 == 0,
			})
		}
	}
	return out
}

// Record appends all passes to enc, each followed by a barrier that hands
// the written buffer to the next pass and frees the read buffer for writing.
func (f *FFT) Record(enc gpucore.CommandEncoder) {
	half := uint32(f.n / 2)
	groupsX := (half + workgroupSize[0] - 1) / workgroupSize[0]
	for i, p := range f.passes {
		group, src, dst := f.toField, f.scratch, f.field
		if p.toScratch {
			group, src, dst = f.toScratch, f.field, f.scratch
		}

		cp := enc.BeginComputePass(fmt.Sprintf("stockham_%d", i))
		cp.SetPipeline(f.pipeline)
		cp.SetBindGroup(0, group)
		cp.SetImmediates(f.params(p))
		cp.Dispatch(groupsX, uint32(f.n), uint32(f.batch))
		cp.End()

		enc.Barrier(
			gpucore.BufferBarrier{Buffer: dst, Src: gpucore.AccessShaderReadWrite, Dst: gpucore.AccessShaderRead},
			gpucore.BufferBarrier{Buffer: src, Src: gpucore.AccessShaderRead, Dst: gpucore.AccessShaderWrite},
		)
	}
}

func (f *FFT) params(p pass) []byte {
	buf := make([]byte, paramsSize)
	le := binary.LittleEndian
	le.PutUint32(buf[0:], uint32(f.n))
	le.PutUint32(buf[4:], p.ns)
	le.PutUint32(buf[8:], p.axis)
	le.PutUint32(buf[12:], uint32(f.batch))
	return buf
}

// Destroy releases the scratch buffer and pipeline objects.
// Safe to call more than once.
func (f *FFT) Destroy() {
	a := f.adapter
	if a == nil {
		return
	}
	if f.toField != gpucore.InvalidID {
		a.DestroyBindGroup(f.toField)
	}
	if f.toScratch != gpucore.InvalidID {
		a.DestroyBindGroup(f.toScratch)
	}
	if f.pipeline != gpucore.InvalidID {
		a.DestroyComputePipeline(f.pipeline)
	}
	if f.pipelineLayout != gpucore.InvalidID {
		a.DestroyPipelineLayout(f.pipelineLayout)
	}
	if f.groupLayout != gpucore.InvalidID {
		a.DestroyBindGroupLayout(f.groupLayout)
	}
	if f.module != gpucore.InvalidID {
		a.DestroyShaderModule(f.module)
	}
	if f.scratch != gpucore.InvalidID {
		a.DestroyBuffer(f.scratch)
	}
	*f = FFT{}
}
