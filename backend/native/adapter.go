// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package native implements gpucore.GPUAdapter on a gogpu/wgpu HAL device.
//
// WGSL is compiled to SPIR-V with naga. Immediates are delivered through a
// transient uniform buffer bound at group len(BindGroupLayouts), which is
// where the ocean shaders declare them. Submissions signal one timeline
// fence whose value is the submission index.
package native

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/ocean/gpucore"
	"github.com/gogpu/ocean/internal/logx"
)

// pollInterval bounds each fence wait so Wait can observe its context.
const pollInterval = 10 * time.Millisecond

type buffer struct {
	label string
	buf   hal.Buffer
	size  uint64
}

type bindGroupLayout struct {
	layout  hal.BindGroupLayout
	entries map[uint32]gpucore.BindGroupLayoutEntry
}

type pipelineLayout struct {
	layout        hal.PipelineLayout
	groups        []*bindGroupLayout
	immediateSize uint32
	// immediates is the layout of the extra group carrying immediates.
	immediates hal.BindGroupLayout
}

type computePipeline struct {
	label    string
	pipeline hal.ComputePipeline
	layout   *pipelineLayout
}

type bindGroup struct {
	group    hal.BindGroup
	layout   *bindGroupLayout
	accesses []gpucore.BufferAccess
}

// HALAdapter implements gpucore.GPUAdapter using gogpu/wgpu/hal directly.
//
// Thread Safety: HALAdapter is safe for concurrent use from multiple goroutines.
// Resource maps are guarded by mu; submission state by subMu.
type HALAdapter struct {
	mu     sync.RWMutex
	device hal.Device
	queue  hal.Queue
	opts   options

	// Set when the adapter opened the device itself.
	instance hal.Instance
	owned    bool
	name     string

	maxBufferSz  uint64
	maxWorkgroup [3]uint32

	nextID atomic.Uint64

	buffers          map[gpucore.BufferID]*buffer
	shaderModules    map[gpucore.ShaderModuleID]hal.ShaderModule
	bindGroupLayouts map[gpucore.BindGroupLayoutID]*bindGroupLayout
	pipelineLayouts  map[gpucore.PipelineLayoutID]*pipelineLayout
	computePipelines map[gpucore.ComputePipelineID]*computePipeline
	bindGroups       map[gpucore.BindGroupID]*bindGroup

	subMu     sync.Mutex
	fence     hal.Fence
	submitted gpucore.SubmissionIndex
	completed gpucore.SubmissionIndex
	inFlight  []*commandBuffer
	destroyed atomic.Bool
}

// NewHALAdapter wraps an open device and queue. The caller keeps ownership
// of both; Destroy releases only what the adapter created.
// If limits is nil, gputypes.DefaultLimits is assumed.
func NewHALAdapter(device hal.Device, queue hal.Queue, limits *gputypes.Limits, opts ...Option) (*HALAdapter, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("native: nil device or queue")
	}
	lim := gputypes.DefaultLimits()
	if limits != nil {
		lim = *limits
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	fence, err := device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("native: create fence: %w", err)
	}

	a := &HALAdapter{
		device:           device,
		queue:            queue,
		opts:             o,
		name:             "hal",
		maxBufferSz:      lim.MaxBufferSize,
		maxWorkgroup:     [3]uint32{lim.MaxComputeWorkgroupSizeX, lim.MaxComputeWorkgroupSizeY, lim.MaxComputeWorkgroupSizeZ},
		buffers:          make(map[gpucore.BufferID]*buffer),
		shaderModules:    make(map[gpucore.ShaderModuleID]hal.ShaderModule),
		bindGroupLayouts: make(map[gpucore.BindGroupLayoutID]*bindGroupLayout),
		pipelineLayouts:  make(map[gpucore.PipelineLayoutID]*pipelineLayout),
		computePipelines: make(map[gpucore.ComputePipelineID]*computePipeline),
		bindGroups:       make(map[gpucore.BindGroupID]*bindGroup),
		fence:            fence,
	}
	// Start ID generation at 1 (0 is invalid)
	a.nextID.Store(1)
	return a, nil
}

// newID generates a unique resource ID.
func (a *HALAdapter) newID() uint64 {
	return a.nextID.Add(1) - 1
}

// === Capabilities ===

// Name returns the name of the underlying GPU.
func (a *HALAdapter) Name() string { return a.name }

// SupportsCompute returns whether compute shaders are supported.
func (a *HALAdapter) SupportsCompute() bool { return true }

// MaxWorkgroupSize returns the maximum workgroup size in each dimension.
func (a *HALAdapter) MaxWorkgroupSize() [3]uint32 { return a.maxWorkgroup }

// MaxBufferSize returns the maximum buffer size in bytes.
func (a *HALAdapter) MaxBufferSize() uint64 { return a.maxBufferSz }

// === Shader Compilation ===

// CreateShaderModule compiles desc.WGSL and creates a shader module.
// Host kernels are ignored.
func (a *HALAdapter) CreateShaderModule(desc *gpucore.ShaderModuleDesc) (gpucore.ShaderModuleID, error) {
	if desc.WGSL == "" {
		return gpucore.InvalidID, fmt.Errorf("native: shader module %q: %w", desc.Label, gpucore.ErrWGSLMissing)
	}
	spirv, err := CompileWGSL(desc.WGSL)
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: shader module %q: %w", desc.Label, err)
	}
	module, err := a.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create shader module %q: %w", desc.Label, err)
	}

	id := gpucore.ShaderModuleID(a.newID())
	a.mu.Lock()
	a.shaderModules[id] = module
	a.mu.Unlock()
	return id, nil
}

// DestroyShaderModule releases a shader module.
func (a *HALAdapter) DestroyShaderModule(id gpucore.ShaderModuleID) {
	a.mu.Lock()
	module, ok := a.shaderModules[id]
	delete(a.shaderModules, id)
	a.mu.Unlock()

	if ok {
		a.device.DestroyShaderModule(module)
	}
}

// === Buffer Management ===

// CreateBuffer creates a GPU buffer.
func (a *HALAdapter) CreateBuffer(label string, size uint64, usage gpucore.BufferUsage) (gpucore.BufferID, error) {
	if size == 0 || size > a.maxBufferSz {
		return gpucore.InvalidID, fmt.Errorf("native: buffer %q: size %d outside (0, %d]", label, size, a.maxBufferSz)
	}
	buf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: convertBufferUsage(usage),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create buffer %q: %w", label, err)
	}

	id := gpucore.BufferID(a.newID())
	a.mu.Lock()
	a.buffers[id] = &buffer{label: label, buf: buf, size: size}
	a.mu.Unlock()
	return id, nil
}

// DestroyBuffer releases a GPU buffer.
func (a *HALAdapter) DestroyBuffer(id gpucore.BufferID) {
	a.mu.Lock()
	b, ok := a.buffers[id]
	delete(a.buffers, id)
	a.mu.Unlock()

	if ok {
		a.device.DestroyBuffer(b.buf)
	}
}

func (a *HALAdapter) lookupBuffer(id gpucore.BufferID) (*buffer, error) {
	a.mu.RLock()
	b, ok := a.buffers[id]
	a.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("native: buffer %d: %w", id, gpucore.ErrUnknownResource)
	}
	return b, nil
}

// WriteBuffer writes data through the queue.
func (a *HALAdapter) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	b, err := a.lookupBuffer(id)
	if err != nil {
		return err
	}
	if offset+uint64(len(data)) > b.size {
		return fmt.Errorf("native: write [%d,+%d) past end of buffer %q (%d bytes)", offset, len(data), b.label, b.size)
	}
	if offset%4 != 0 || len(data)%4 != 0 {
		return fmt.Errorf("native: write to buffer %q: %w", b.label, ErrUnaligned)
	}
	if len(data) > 0 {
		a.queue.WriteBuffer(b.buf, offset, data)
	}
	return nil
}

// ReadBuffer copies a range into a staging buffer after all submitted work,
// waits for the copy and returns the bytes.
func (a *HALAdapter) ReadBuffer(ctx context.Context, id gpucore.BufferID, offset, size uint64) ([]byte, error) {
	b, err := a.lookupBuffer(id)
	if err != nil {
		return nil, err
	}
	if offset+size > b.size {
		return nil, fmt.Errorf("native: read [%d,+%d) past end of buffer %q (%d bytes)", offset, size, b.label, b.size)
	}
	if offset%4 != 0 || size%4 != 0 {
		return nil, fmt.Errorf("native: read from buffer %q: %w", b.label, ErrUnaligned)
	}
	if size == 0 {
		return []byte{}, nil
	}

	staging, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "ocean_readback",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create staging buffer: %w", err)
	}
	defer a.device.DestroyBuffer(staging)

	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "ocean_readback"})
	if err != nil {
		return nil, fmt.Errorf("native: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("ocean_readback"); err != nil {
		return nil, fmt.Errorf("native: begin encoding: %w", err)
	}
	encoder.CopyBufferToBuffer(b.buf, staging, []hal.BufferCopy{
		{SrcOffset: offset, DstOffset: 0, Size: size},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("native: end encoding: %w", err)
	}

	idx, err := a.submit(&commandBuffer{adapter: a, label: "ocean_readback", cmd: cmdBuf})
	if err != nil {
		return nil, err
	}
	if err := a.Wait(ctx, idx); err != nil {
		return nil, err
	}

	out := make([]byte, size)
	if err := a.queue.ReadBuffer(staging, 0, out); err != nil {
		return nil, fmt.Errorf("native: read staging buffer: %w", err)
	}
	return out, nil
}

// === Pipeline Management ===

// CreateBindGroupLayout creates a bind group layout visible to compute.
func (a *HALAdapter) CreateBindGroupLayout(desc *gpucore.BindGroupLayoutDesc) (gpucore.BindGroupLayoutID, error) {
	entries := make(map[uint32]gpucore.BindGroupLayoutEntry, len(desc.Entries))
	halEntries := make([]gputypes.BindGroupLayoutEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		if _, dup := entries[e.Binding]; dup {
			return gpucore.InvalidID, fmt.Errorf("native: bind group layout %q: duplicate binding %d", desc.Label, e.Binding)
		}
		halEntry, err := convertBindGroupLayoutEntry(e)
		if err != nil {
			return gpucore.InvalidID, fmt.Errorf("native: bind group layout %q: %w", desc.Label, err)
		}
		entries[e.Binding] = e
		halEntries[i] = halEntry
	}

	layout, err := a.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: halEntries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create bind group layout %q: %w", desc.Label, err)
	}

	id := gpucore.BindGroupLayoutID(a.newID())
	a.mu.Lock()
	a.bindGroupLayouts[id] = &bindGroupLayout{layout: layout, entries: entries}
	a.mu.Unlock()
	return id, nil
}

// DestroyBindGroupLayout releases a bind group layout.
func (a *HALAdapter) DestroyBindGroupLayout(id gpucore.BindGroupLayoutID) {
	a.mu.Lock()
	l, ok := a.bindGroupLayouts[id]
	delete(a.bindGroupLayouts, id)
	a.mu.Unlock()

	if ok {
		a.device.DestroyBindGroupLayout(l.layout)
	}
}

// CreatePipelineLayout creates a pipeline layout. A non-zero ImmediateSize
// appends one group holding a uniform buffer at binding 0.
func (a *HALAdapter) CreatePipelineLayout(desc *gpucore.PipelineLayoutDesc) (gpucore.PipelineLayoutID, error) {
	if desc.ImmediateSize > gpucore.MaxImmediateSize {
		return gpucore.InvalidID, fmt.Errorf("native: pipeline layout %q: immediate size %d exceeds %d",
			desc.Label, desc.ImmediateSize, gpucore.MaxImmediateSize)
	}

	a.mu.RLock()
	groups := make([]*bindGroupLayout, len(desc.BindGroupLayouts))
	halLayouts := make([]hal.BindGroupLayout, 0, len(desc.BindGroupLayouts)+1)
	for i, id := range desc.BindGroupLayouts {
		l, ok := a.bindGroupLayouts[id]
		if !ok {
			a.mu.RUnlock()
			return gpucore.InvalidID, fmt.Errorf("native: pipeline layout %q: bind group layout %d: %w", desc.Label, id, gpucore.ErrUnknownResource)
		}
		groups[i] = l
		halLayouts = append(halLayouts, l.layout)
	}
	a.mu.RUnlock()

	pl := &pipelineLayout{groups: groups, immediateSize: desc.ImmediateSize}
	if desc.ImmediateSize > 0 {
		imm, err := a.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label: desc.Label + "_immediates",
			Entries: []gputypes.BindGroupLayoutEntry{{
				Binding:    0,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			}},
		})
		if err != nil {
			return gpucore.InvalidID, fmt.Errorf("native: create immediates layout for %q: %w", desc.Label, err)
		}
		pl.immediates = imm
		halLayouts = append(halLayouts, imm)
	}

	layout, err := a.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: halLayouts,
	})
	if err != nil {
		if pl.immediates != nil {
			a.device.DestroyBindGroupLayout(pl.immediates)
		}
		return gpucore.InvalidID, fmt.Errorf("native: create pipeline layout %q: %w", desc.Label, err)
	}
	pl.layout = layout

	id := gpucore.PipelineLayoutID(a.newID())
	a.mu.Lock()
	a.pipelineLayouts[id] = pl
	a.mu.Unlock()
	return id, nil
}

// DestroyPipelineLayout releases a pipeline layout.
func (a *HALAdapter) DestroyPipelineLayout(id gpucore.PipelineLayoutID) {
	a.mu.Lock()
	pl, ok := a.pipelineLayouts[id]
	delete(a.pipelineLayouts, id)
	a.mu.Unlock()

	if ok {
		a.device.DestroyPipelineLayout(pl.layout)
		if pl.immediates != nil {
			a.device.DestroyBindGroupLayout(pl.immediates)
		}
	}
}

// CreateComputePipeline creates a compute pipeline.
func (a *HALAdapter) CreateComputePipeline(desc *gpucore.ComputePipelineDesc) (gpucore.ComputePipelineID, error) {
	a.mu.RLock()
	layout, layoutOK := a.pipelineLayouts[desc.Layout]
	module, moduleOK := a.shaderModules[desc.ShaderModule]
	a.mu.RUnlock()

	if !layoutOK {
		return gpucore.InvalidID, fmt.Errorf("native: pipeline %q: layout %d: %w", desc.Label, desc.Layout, gpucore.ErrUnknownResource)
	}
	if !moduleOK {
		return gpucore.InvalidID, fmt.Errorf("native: pipeline %q: shader module %d: %w", desc.Label, desc.ShaderModule, gpucore.ErrUnknownResource)
	}

	pipeline, err := a.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  desc.Label,
		Layout: layout.layout,
		Compute: hal.ComputeState{
			Module:     module,
			EntryPoint: desc.EntryPoint,
		},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create compute pipeline %q: %w", desc.Label, err)
	}

	id := gpucore.ComputePipelineID(a.newID())
	a.mu.Lock()
	a.computePipelines[id] = &computePipeline{label: desc.Label, pipeline: pipeline, layout: layout}
	a.mu.Unlock()
	return id, nil
}

// DestroyComputePipeline releases a compute pipeline.
func (a *HALAdapter) DestroyComputePipeline(id gpucore.ComputePipelineID) {
	a.mu.Lock()
	p, ok := a.computePipelines[id]
	delete(a.computePipelines, id)
	a.mu.Unlock()

	if ok {
		a.device.DestroyComputePipeline(p.pipeline)
	}
}

// CreateBindGroup creates a bind group.
func (a *HALAdapter) CreateBindGroup(desc *gpucore.BindGroupDesc) (gpucore.BindGroupID, error) {
	a.mu.RLock()
	layout, ok := a.bindGroupLayouts[desc.Layout]
	if !ok {
		a.mu.RUnlock()
		return gpucore.InvalidID, fmt.Errorf("native: bind group %q: layout %d: %w", desc.Label, desc.Layout, gpucore.ErrUnknownResource)
	}
	halEntries := make([]gputypes.BindGroupEntry, 0, len(desc.Entries))
	accesses := make([]gpucore.BufferAccess, 0, len(desc.Entries))
	for _, e := range desc.Entries {
		le, ok := layout.entries[e.Binding]
		if !ok {
			a.mu.RUnlock()
			return gpucore.InvalidID, fmt.Errorf("native: bind group %q: binding %d not in layout", desc.Label, e.Binding)
		}
		b, ok := a.buffers[e.Buffer]
		if !ok {
			a.mu.RUnlock()
			return gpucore.InvalidID, fmt.Errorf("native: bind group %q: binding %d: buffer %d: %w", desc.Label, e.Binding, e.Buffer, gpucore.ErrUnknownResource)
		}
		size := e.Size
		if size == 0 && e.Offset < b.size {
			size = b.size - e.Offset
		}
		if size == 0 || e.Offset+size > b.size {
			a.mu.RUnlock()
			return gpucore.InvalidID, fmt.Errorf("native: bind group %q: binding %d: range [%d,+%d) invalid for buffer %q (%d bytes)",
				desc.Label, e.Binding, e.Offset, size, b.label, b.size)
		}
		halEntries = append(halEntries, gputypes.BindGroupEntry{
			Binding:  e.Binding,
			Resource: gputypes.BufferBinding{Buffer: b.buf.NativeHandle(), Offset: e.Offset, Size: size},
		})
		access := gpucore.AccessShaderRead
		if le.Type.Writes() {
			access = gpucore.AccessShaderReadWrite
		}
		accesses = append(accesses, gpucore.BufferAccess{Buffer: e.Buffer, Access: access})
	}
	a.mu.RUnlock()

	if len(halEntries) != len(layout.entries) {
		return gpucore.InvalidID, fmt.Errorf("native: bind group %q: %d of %d bindings set", desc.Label, len(halEntries), len(layout.entries))
	}

	group, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  layout.layout,
		Entries: halEntries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create bind group %q: %w", desc.Label, err)
	}

	id := gpucore.BindGroupID(a.newID())
	a.mu.Lock()
	a.bindGroups[id] = &bindGroup{group: group, layout: layout, accesses: accesses}
	a.mu.Unlock()
	return id, nil
}

// DestroyBindGroup releases a bind group.
func (a *HALAdapter) DestroyBindGroup(id gpucore.BindGroupID) {
	a.mu.Lock()
	g, ok := a.bindGroups[id]
	delete(a.bindGroups, id)
	a.mu.Unlock()

	if ok {
		a.device.DestroyBindGroup(g.group)
	}
}

// === Command Recording and Execution ===

// CreateCommandEncoder begins a HAL command encoder.
func (a *HALAdapter) CreateCommandEncoder(label string) (gpucore.CommandEncoder, error) {
	if a.destroyed.Load() {
		return nil, ErrDestroyed
	}
	enc, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("native: create command encoder %q: %w", label, err)
	}
	if err := enc.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("native: begin encoding %q: %w", label, err)
	}
	e := &commandEncoder{adapter: a, label: label, enc: enc}
	if a.opts.validate {
		e.hazards = &gpucore.HazardTracker{}
	}
	return e, nil
}

// Submit submits command buffers in order, signalling the adapter fence
// with the new submission index.
func (a *HALAdapter) Submit(cmds ...gpucore.CommandBuffer) (gpucore.SubmissionIndex, error) {
	bufs := make([]*commandBuffer, 0, len(cmds))
	for _, c := range cmds {
		cb, ok := c.(*commandBuffer)
		if !ok || cb.adapter != a {
			return 0, fmt.Errorf("native: submit: command buffer %T not created by this adapter", c)
		}
		if !cb.submitted.CompareAndSwap(false, true) {
			return 0, fmt.Errorf("native: submit: command buffer %q already submitted", cb.label)
		}
		bufs = append(bufs, cb)
	}
	return a.submit(bufs...)
}

func (a *HALAdapter) submit(bufs ...*commandBuffer) (gpucore.SubmissionIndex, error) {
	if a.destroyed.Load() {
		for _, cb := range bufs {
			cb.release()
		}
		return 0, ErrDestroyed
	}
	halBufs := make([]hal.CommandBuffer, len(bufs))
	for i, cb := range bufs {
		halBufs[i] = cb.cmd
	}

	a.subMu.Lock()
	defer a.subMu.Unlock()

	idx := a.submitted + 1
	if err := a.queue.Submit(halBufs, a.fence, uint64(idx)); err != nil {
		for _, cb := range bufs {
			cb.release()
		}
		return 0, fmt.Errorf("native: submit: %w", err)
	}
	a.submitted = idx
	for _, cb := range bufs {
		cb.index = idx
		a.inFlight = append(a.inFlight, cb)
	}
	a.retireLocked(0)
	return idx, nil
}

// retireLocked frees command buffers whose submission has completed.
// A zero timeout only polls the fence.
func (a *HALAdapter) retireLocked(timeout time.Duration) {
	if len(a.inFlight) == 0 {
		return
	}
	target := a.inFlight[len(a.inFlight)-1].index
	for a.completed < target {
		next := a.completed + 1
		ok, err := a.device.Wait(a.fence, uint64(next), timeout)
		if err != nil || !ok {
			break
		}
		a.completed = next
	}
	keep := a.inFlight[:0]
	for _, cb := range a.inFlight {
		if cb.index <= a.completed {
			cb.release()
			continue
		}
		keep = append(keep, cb)
	}
	clear(a.inFlight[len(keep):])
	a.inFlight = keep
}

// Wait blocks until submission idx has completed on the device.
func (a *HALAdapter) Wait(ctx context.Context, idx gpucore.SubmissionIndex) error {
	for {
		a.subMu.Lock()
		if idx > a.submitted {
			a.subMu.Unlock()
			return fmt.Errorf("native: wait: submission %d was never submitted", idx)
		}
		if a.completed >= idx {
			a.retireLocked(0)
			a.subMu.Unlock()
			return nil
		}
		fence := a.fence
		a.subMu.Unlock()

		if err := ctx.Err(); err != nil {
			return fmt.Errorf("native: wait for submission %d: %w", idx, err)
		}
		if fence == nil {
			return ErrDestroyed
		}
		ok, err := a.device.Wait(fence, uint64(idx), pollInterval)
		if err != nil {
			return fmt.Errorf("native: wait for submission %d: %w: %w", idx, ErrDeviceLost, err)
		}
		if ok {
			a.subMu.Lock()
			a.completed = max(a.completed, idx)
			a.subMu.Unlock()
		}
	}
}

// Destroy waits for outstanding work and releases everything the adapter
// created. A device opened by OpenDevice is destroyed too.
// Destroy is safe to call multiple times.
func (a *HALAdapter) Destroy() {
	if !a.destroyed.CompareAndSwap(false, true) {
		return
	}

	a.subMu.Lock()
	if a.submitted > a.completed {
		if ok, err := a.device.Wait(a.fence, uint64(a.submitted), 5*time.Second); err != nil || !ok {
			logx.Logger().Warn("native: destroy with work in flight", "submitted", a.submitted, "err", err)
		}
		a.completed = a.submitted
	}
	a.retireLocked(0)
	a.device.DestroyFence(a.fence)
	a.fence = nil
	a.subMu.Unlock()

	a.mu.Lock()
	for _, g := range a.bindGroups {
		a.device.DestroyBindGroup(g.group)
	}
	for _, p := range a.computePipelines {
		a.device.DestroyComputePipeline(p.pipeline)
	}
	for _, pl := range a.pipelineLayouts {
		a.device.DestroyPipelineLayout(pl.layout)
		if pl.immediates != nil {
			a.device.DestroyBindGroupLayout(pl.immediates)
		}
	}
	for _, l := range a.bindGroupLayouts {
		a.device.DestroyBindGroupLayout(l.layout)
	}
	for _, m := range a.shaderModules {
		a.device.DestroyShaderModule(m)
	}
	for _, b := range a.buffers {
		a.device.DestroyBuffer(b.buf)
	}
	clear(a.bindGroups)
	clear(a.computePipelines)
	clear(a.pipelineLayouts)
	clear(a.bindGroupLayouts)
	clear(a.shaderModules)
	clear(a.buffers)
	a.mu.Unlock()

	if a.owned {
		a.device.Destroy()
		if a.instance != nil {
			a.instance.Destroy()
		}
	}
	a.device, a.queue, a.instance = nil, nil, nil
	logx.Logger().Debug("native: adapter destroyed", "name", a.name)
}

var _ gpucore.GPUAdapter = (*HALAdapter)(nil)

// === Type Conversion Helpers ===

// convertBufferUsage converts gpucore.BufferUsage to gputypes.BufferUsage.
func convertBufferUsage(usage gpucore.BufferUsage) gputypes.BufferUsage {
	var result gputypes.BufferUsage
	if usage&gpucore.BufferUsageMapRead != 0 {
		result |= gputypes.BufferUsageMapRead
	}
	if usage&gpucore.BufferUsageMapWrite != 0 {
		result |= gputypes.BufferUsageMapWrite
	}
	if usage&gpucore.BufferUsageCopySrc != 0 {
		result |= gputypes.BufferUsageCopySrc
	}
	if usage&gpucore.BufferUsageCopyDst != 0 {
		result |= gputypes.BufferUsageCopyDst
	}
	if usage&gpucore.BufferUsageVertex != 0 {
		result |= gputypes.BufferUsageVertex
	}
	if usage&gpucore.BufferUsageUniform != 0 {
		result |= gputypes.BufferUsageUniform
	}
	if usage&gpucore.BufferUsageStorage != 0 {
		result |= gputypes.BufferUsageStorage
	}
	return result
}

// convertAccess maps barrier access flags to the buffer usages HAL
// transitions between.
func convertAccess(access gpucore.Access) gputypes.BufferUsage {
	var result gputypes.BufferUsage
	if access&gpucore.AccessShaderReadWrite != 0 {
		result |= gputypes.BufferUsageStorage
	}
	if access&gpucore.AccessTransferRead != 0 {
		result |= gputypes.BufferUsageCopySrc
	}
	if access&gpucore.AccessTransferWrite != 0 {
		result |= gputypes.BufferUsageCopyDst
	}
	if access&gpucore.AccessVertexRead != 0 {
		result |= gputypes.BufferUsageVertex
	}
	if access&gpucore.AccessHostRead != 0 {
		result |= gputypes.BufferUsageMapRead
	}
	return result
}

// convertBindGroupLayoutEntry converts a gpucore layout entry to a compute-visible
// gputypes entry.
func convertBindGroupLayoutEntry(entry gpucore.BindGroupLayoutEntry) (gputypes.BindGroupLayoutEntry, error) {
	var t gputypes.BufferBindingType
	switch entry.Type {
	case gpucore.BindingTypeUniformBuffer:
		t = gputypes.BufferBindingTypeUniform
	case gpucore.BindingTypeStorageBuffer:
		t = gputypes.BufferBindingTypeStorage
	case gpucore.BindingTypeReadOnlyStorageBuffer:
		t = gputypes.BufferBindingTypeReadOnlyStorage
	default:
		return gputypes.BindGroupLayoutEntry{}, fmt.Errorf("binding %d: unsupported type %v", entry.Binding, entry.Type)
	}
	return gputypes.BindGroupLayoutEntry{
		Binding:    entry.Binding,
		Visibility: gputypes.ShaderStageCompute,
		Buffer: &gputypes.BufferBindingLayout{
			Type:           t,
			MinBindingSize: entry.MinBindingSize,
		},
	}, nil
}
