// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package hostfft implements the batched inverse 2-D FFT with gonum's
// dsp/fourier on the CPU.
//
// The transform is recorded as a single dispatch with one invocation per
// channel, so it only runs on adapters that execute host kernels (the
// software adapter). Device adapters reject its shader module in Setup
// because it carries no WGSL.
package hostfft

import (
	"errors"
	"fmt"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/gogpu/ocean/gpucore"
	"github.com/gogpu/ocean/internal/logx"
)

// ErrInvalidSize is returned by Setup when n or batch is not positive.
var ErrInvalidSize = errors.New("hostfft: size and batch must be positive")

// FFT is a batched in-place inverse 2-D FFT backed by gonum.
type FFT struct {
	adapter gpucore.GPUAdapter
	n       int
	batch   int

	module         gpucore.ShaderModuleID
	groupLayout    gpucore.BindGroupLayoutID
	pipelineLayout gpucore.PipelineLayoutID
	pipeline       gpucore.ComputePipelineID
	bindGroup      gpucore.BindGroupID

	// plans holds per-invocation scratch; fourier.CmplxFFT is not safe for
	// concurrent use.
	plans sync.Pool
}

// New returns an FFT ready for Setup.
func New() *FFT {
	return &FFT{}
}

// Setup creates the host pipeline for batch channels of n×n complex64 values
// in field. Unlike a radix-2 kernel, any positive n is accepted.
func (f *FFT) Setup(adapter gpucore.GPUAdapter, field gpucore.BufferID, n, batch int) (err error) {
	if n <= 0 || batch <= 0 {
		return fmt.Errorf("%w: n=%d batch=%d", ErrInvalidSize, n, batch)
	}
	if f.adapter != nil {
		return errors.New("hostfft: already set up")
	}
	f.adapter, f.n, f.batch = adapter, n, batch
	f.plans.New = func() any { return newWorkspace(n) }
	defer func() {
		if err != nil {
			f.Destroy()
		}
	}()

	if f.module, err = adapter.CreateShaderModule(&gpucore.ShaderModuleDesc{
		Label: "hostfft",
		Host:  map[string]gpucore.HostKernel{"main": f.kernel()},
	}); err != nil {
		return fmt.Errorf("hostfft: create shader module: %w", err)
	}
	if f.groupLayout, err = adapter.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{
		Label:   "hostfft_bind_layout",
		Entries: []gpucore.BindGroupLayoutEntry{{Binding: 0, Type: gpucore.BindingTypeStorageBuffer}},
	}); err != nil {
		return fmt.Errorf("hostfft: create bind group layout: %w", err)
	}
	if f.pipelineLayout, err = adapter.CreatePipelineLayout(&gpucore.PipelineLayoutDesc{
		Label:            "hostfft_pipe_layout",
		BindGroupLayouts: []gpucore.BindGroupLayoutID{f.groupLayout},
	}); err != nil {
		return fmt.Errorf("hostfft: create pipeline layout: %w", err)
	}
	if f.pipeline, err = adapter.CreateComputePipeline(&gpucore.ComputePipelineDesc{
		Label:        "hostfft",
		Layout:       f.pipelineLayout,
		ShaderModule: f.module,
		EntryPoint:   "main",
	}); err != nil {
		return fmt.Errorf("hostfft: create pipeline: %w", err)
	}
	if f.bindGroup, err = adapter.CreateBindGroup(&gpucore.BindGroupDesc{
		Label:   "hostfft_bind_group",
		Layout:  f.groupLayout,
		Entries: []gpucore.BindGroupEntry{{Binding: 0, Buffer: field}},
	}); err != nil {
		return fmt.Errorf("hostfft: create bind group: %w", err)
	}

	logx.Logger().Debug("hostfft: set up", "n", n, "batch", batch)
	return nil
}

// Record appends one dispatch transforming every channel.
func (f *FFT) Record(enc gpucore.CommandEncoder) {
	pass := enc.BeginComputePass("hostfft")
	pass.SetPipeline(f.pipeline)
	pass.SetBindGroup(0, f.bindGroup)
	pass.Dispatch(uint32(f.batch), 1, 1)
	pass.End()
}

// Destroy releases the pipeline objects. Safe to call more than once.
func (f *FFT) Destroy() {
	a := f.adapter
	if a == nil {
		return
	}
	if f.bindGroup != gpucore.InvalidID {
		a.DestroyBindGroup(f.bindGroup)
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
	f.adapter = nil
	f.module, f.groupLayout, f.pipelineLayout, f.pipeline, f.bindGroup = 0, 0, 0, 0, 0
}

// workspace is the scratch of one channel transform.
type workspace struct {
	plan *fourier.CmplxFFT
	line []complex128
}

func newWorkspace(n int) *workspace {
	return &workspace{plan: fourier.NewCmplxFFT(n), line: make([]complex128, n)}
}

func (f *FFT) kernel() gpucore.HostKernel {
	return gpucore.HostKernel{
		WorkgroupSize: [3]uint32{1, 1, 1},
		Prepare: func(b *gpucore.HostBindings) func([3]uint32) {
			data := gpucore.ViewAs[complex64](b.Buffer(0, 0))
			n, batch := f.n, f.batch
			return func(id [3]uint32) {
				ch := int(id[0])
				if ch >= batch {
					return
				}
				ws := f.plans.Get().(*workspace)
				defer f.plans.Put(ws)
				inverse2D(ws, data[ch*n*n:(ch+1)*n*n], n)
			}
		},
	}
}

// inverse2D transforms one channel in place: every row, then every column.
// CmplxFFT.Sequence computes the unnormalized inverse.
func inverse2D(ws *workspace, ch []complex64, n int) {
	line := ws.line
	for r := range n {
		row := ch[r*n : (r+1)*n]
		for c, v := range row {
			line[c] = complex128(v)
		}
		ws.plan.Sequence(line, line)
		for c, v := range line {
			row[c] = complex64(v)
		}
	}
	for c := range n {
		for r := range n {
			line[r] = complex128(ch[r*n+c])
		}
		ws.plan.Sequence(line, line)
		for r, v := range line {
			ch[r*n+c] = complex64(v)
		}
	}
}
