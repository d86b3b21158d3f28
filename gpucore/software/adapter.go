// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/ocean/gpucore"
	"github.com/gogpu/ocean/internal/logx"
	"github.com/gogpu/ocean/internal/parallel"
)

// ErrDestroyed is returned by operations on a destroyed adapter.
var ErrDestroyed = errors.New("software: adapter destroyed")

type buffer struct {
	label string
	usage gpucore.BufferUsage
	data  []byte
}

type shaderModule struct {
	label string
	host  map[string]gpucore.HostKernel
}

type bindGroupLayout struct {
	label   string
	entries map[uint32]gpucore.BindGroupLayoutEntry
	maxSlot uint32
}

type pipelineLayout struct {
	groups        []*bindGroupLayout
	immediateSize uint32
}

type computePipeline struct {
	label  string
	layout *pipelineLayout
	kernel gpucore.HostKernel
}

type boundBuffer struct {
	buffer gpucore.BufferID
	offset uint64
	size   uint64
	access gpucore.Access
}

type bindGroup struct {
	label   string
	layout  *bindGroupLayout
	entries []boundBuffer // indexed by binding slot
}

// Adapter is a CPU implementation of gpucore.GPUAdapter.
//
// Thread safety: Adapter is safe for concurrent use.
type Adapter struct {
	mu sync.RWMutex

	opts   options
	nextID atomic.Uint64

	buffers          map[gpucore.BufferID]*buffer
	shaderModules    map[gpucore.ShaderModuleID]*shaderModule
	bindGroupLayouts map[gpucore.BindGroupLayoutID]*bindGroupLayout
	pipelineLayouts  map[gpucore.PipelineLayoutID]*pipelineLayout
	pipelines        map[gpucore.ComputePipelineID]*computePipeline
	bindGroups       map[gpucore.BindGroupID]*bindGroup

	pool *parallel.WorkerPool

	qmu       sync.RWMutex // guards sends on queue against Destroy closing it
	queue     chan func()
	queueDone chan struct{}
	destroyed atomic.Bool

	// Submission tracking, guarded by subMu.
	subMu     sync.Mutex
	submitted gpucore.SubmissionIndex
	completed gpucore.SubmissionIndex
	failures  map[gpucore.SubmissionIndex]error
	progress  chan struct{} // closed and replaced on each completion
}

// New creates a software adapter and starts its queue goroutine.
func New(opts ...Option) *Adapter {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	a := &Adapter{
		opts:             o,
		buffers:          make(map[gpucore.BufferID]*buffer),
		shaderModules:    make(map[gpucore.ShaderModuleID]*shaderModule),
		bindGroupLayouts: make(map[gpucore.BindGroupLayoutID]*bindGroupLayout),
		pipelineLayouts:  make(map[gpucore.PipelineLayoutID]*pipelineLayout),
		pipelines:        make(map[gpucore.ComputePipelineID]*computePipeline),
		bindGroups:       make(map[gpucore.BindGroupID]*bindGroup),
		pool:             parallel.NewWorkerPool(o.workers),
		queue:            make(chan func(), o.queueDepth),
		queueDone:        make(chan struct{}),
		failures:         make(map[gpucore.SubmissionIndex]error),
		progress:         make(chan struct{}),
	}
	go a.run()

	logx.Logger().Debug("software: adapter created",
		"workers", a.pool.Workers(),
		"validate", o.validate)
	return a
}

// run executes queued operations in order until the queue is closed.
func (a *Adapter) run() {
	defer close(a.queueDone)
	for op := range a.queue {
		op()
	}
}

func (a *Adapter) enqueue(op func()) error {
	a.qmu.RLock()
	defer a.qmu.RUnlock()
	if a.destroyed.Load() {
		return ErrDestroyed
	}
	a.queue <- op
	return nil
}

func (a *Adapter) newID() uint64 {
	return a.nextID.Add(1)
}

// Name returns a short description of the adapter.
func (a *Adapter) Name() string {
	return fmt.Sprintf("software (%d workers)", a.pool.Workers())
}

// SupportsCompute reports true: host kernels cover every compute stage.
func (a *Adapter) SupportsCompute() bool { return true }

// MaxWorkgroupSize returns the WebGPU default limits.
func (a *Adapter) MaxWorkgroupSize() [3]uint32 { return [3]uint32{256, 256, 64} }

// MaxBufferSize returns the configured buffer size limit.
func (a *Adapter) MaxBufferSize() uint64 { return a.opts.maxBufferSize }

// CreateShaderModule registers the host entry points of desc.
func (a *Adapter) CreateShaderModule(desc *gpucore.ShaderModuleDesc) (gpucore.ShaderModuleID, error) {
	if len(desc.Host) == 0 {
		return gpucore.InvalidID, fmt.Errorf("software: shader module %q: %w", desc.Label, gpucore.ErrHostKernelMissing)
	}
	host := make(map[string]gpucore.HostKernel, len(desc.Host))
	for name, k := range desc.Host {
		if k.Prepare == nil {
			return gpucore.InvalidID, fmt.Errorf("software: shader module %q entry %q: %w", desc.Label, name, gpucore.ErrHostKernelMissing)
		}
		if err := a.checkWorkgroupSize(k.WorkgroupSize); err != nil {
			return gpucore.InvalidID, fmt.Errorf("software: shader module %q entry %q: %w", desc.Label, name, err)
		}
		host[name] = k
	}

	id := gpucore.ShaderModuleID(a.newID())
	a.mu.Lock()
	a.shaderModules[id] = &shaderModule{label: desc.Label, host: host}
	a.mu.Unlock()
	return id, nil
}

func (a *Adapter) checkWorkgroupSize(size [3]uint32) error {
	limit := a.MaxWorkgroupSize()
	for i := range size {
		if size[i] == 0 || size[i] > limit[i] {
			return fmt.Errorf("workgroup size %v exceeds limits %v", size, limit)
		}
	}
	return nil
}

// DestroyShaderModule releases a shader module.
func (a *Adapter) DestroyShaderModule(id gpucore.ShaderModuleID) {
	a.mu.Lock()
	delete(a.shaderModules, id)
	a.mu.Unlock()
}

// CreateBuffer allocates a zeroed buffer. Size must be a multiple of 4.
func (a *Adapter) CreateBuffer(label string, size uint64, usage gpucore.BufferUsage) (gpucore.BufferID, error) {
	if size == 0 || size%4 != 0 {
		return gpucore.InvalidID, fmt.Errorf("software: buffer %q: size %d must be a positive multiple of 4", label, size)
	}
	if size > a.opts.maxBufferSize {
		return gpucore.InvalidID, fmt.Errorf("software: buffer %q: size %d exceeds limit %d", label, size, a.opts.maxBufferSize)
	}
	id := gpucore.BufferID(a.newID())
	a.mu.Lock()
	a.buffers[id] = &buffer{label: label, usage: usage, data: make([]byte, size)}
	a.mu.Unlock()

	logx.Logger().Debug("software: buffer created", "label", label, "size", size)
	return id, nil
}

// DestroyBuffer releases a buffer. Queued work that still references it
// fails with gpucore.ErrUnknownResource.
func (a *Adapter) DestroyBuffer(id gpucore.BufferID) {
	a.mu.Lock()
	delete(a.buffers, id)
	a.mu.Unlock()
}

func (a *Adapter) lookupBuffer(id gpucore.BufferID) (*buffer, error) {
	a.mu.RLock()
	b, ok := a.buffers[id]
	a.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("software: buffer %d: %w", id, gpucore.ErrUnknownResource)
	}
	return b, nil
}

// WriteBuffer copies data and queues the write behind earlier submissions.
func (a *Adapter) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	b, err := a.lookupBuffer(id)
	if err != nil {
		return err
	}
	if offset+uint64(len(data)) > uint64(len(b.data)) {
		return fmt.Errorf("software: write of %d bytes at %d overflows buffer %q (%d bytes)", len(data), offset, b.label, len(b.data))
	}
	staged := append([]byte(nil), data...)
	return a.enqueue(func() {
		copy(b.data[offset:], staged)
	})
}

// ReadBuffer waits for prior queue work and returns a copy of the range.
func (a *Adapter) ReadBuffer(ctx context.Context, id gpucore.BufferID, offset, size uint64) ([]byte, error) {
	b, err := a.lookupBuffer(id)
	if err != nil {
		return nil, err
	}
	if offset+size > uint64(len(b.data)) {
		return nil, fmt.Errorf("software: read of %d bytes at %d overflows buffer %q (%d bytes)", size, offset, b.label, len(b.data))
	}
	out := make([]byte, size)
	ready := make(chan struct{})
	if err := a.enqueue(func() {
		copy(out, b.data[offset:offset+size])
		close(ready)
	}); err != nil {
		return nil, err
	}
	select {
	case <-ready:
		return out, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("software: read buffer %q: %w", b.label, ctx.Err())
	}
}

// CreateBindGroupLayout creates a bind group layout.
func (a *Adapter) CreateBindGroupLayout(desc *gpucore.BindGroupLayoutDesc) (gpucore.BindGroupLayoutID, error) {
	l := &bindGroupLayout{label: desc.Label, entries: make(map[uint32]gpucore.BindGroupLayoutEntry, len(desc.Entries))}
	for _, e := range desc.Entries {
		if _, dup := l.entries[e.Binding]; dup {
			return gpucore.InvalidID, fmt.Errorf("software: bind group layout %q: duplicate binding %d", desc.Label, e.Binding)
		}
		switch e.Type {
		case gpucore.BindingTypeUniformBuffer, gpucore.BindingTypeStorageBuffer, gpucore.BindingTypeReadOnlyStorageBuffer:
		default:
			return gpucore.InvalidID, fmt.Errorf("software: bind group layout %q: binding %d: unsupported type %d", desc.Label, e.Binding, e.Type)
		}
		l.entries[e.Binding] = e
		l.maxSlot = max(l.maxSlot, e.Binding+1)
	}
	id := gpucore.BindGroupLayoutID(a.newID())
	a.mu.Lock()
	a.bindGroupLayouts[id] = l
	a.mu.Unlock()
	return id, nil
}

// DestroyBindGroupLayout releases a bind group layout.
func (a *Adapter) DestroyBindGroupLayout(id gpucore.BindGroupLayoutID) {
	a.mu.Lock()
	delete(a.bindGroupLayouts, id)
	a.mu.Unlock()
}

// CreatePipelineLayout creates a pipeline layout.
func (a *Adapter) CreatePipelineLayout(desc *gpucore.PipelineLayoutDesc) (gpucore.PipelineLayoutID, error) {
	if desc.ImmediateSize > gpucore.MaxImmediateSize {
		return gpucore.InvalidID, fmt.Errorf("software: pipeline layout %q: immediate size %d exceeds %d", desc.Label, desc.ImmediateSize, gpucore.MaxImmediateSize)
	}
	pl := &pipelineLayout{immediateSize: desc.ImmediateSize}

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, lid := range desc.BindGroupLayouts {
		l, ok := a.bindGroupLayouts[lid]
		if !ok {
			return gpucore.InvalidID, fmt.Errorf("software: pipeline layout %q: bind group layout %d: %w", desc.Label, lid, gpucore.ErrUnknownResource)
		}
		pl.groups = append(pl.groups, l)
	}
	id := gpucore.PipelineLayoutID(a.newID())
	a.pipelineLayouts[id] = pl
	return id, nil
}

// DestroyPipelineLayout releases a pipeline layout.
func (a *Adapter) DestroyPipelineLayout(id gpucore.PipelineLayoutID) {
	a.mu.Lock()
	delete(a.pipelineLayouts, id)
	a.mu.Unlock()
}

// CreateComputePipeline binds a host entry point to a pipeline layout.
func (a *Adapter) CreateComputePipeline(desc *gpucore.ComputePipelineDesc) (gpucore.ComputePipelineID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	layout, ok := a.pipelineLayouts[desc.Layout]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("software: pipeline %q: layout %d: %w", desc.Label, desc.Layout, gpucore.ErrUnknownResource)
	}
	mod, ok := a.shaderModules[desc.ShaderModule]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("software: pipeline %q: shader module %d: %w", desc.Label, desc.ShaderModule, gpucore.ErrUnknownResource)
	}
	kernel, ok := mod.host[desc.EntryPoint]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("software: pipeline %q: entry point %q in %q: %w", desc.Label, desc.EntryPoint, mod.label, gpucore.ErrHostKernelMissing)
	}
	id := gpucore.ComputePipelineID(a.newID())
	a.pipelines[id] = &computePipeline{label: desc.Label, layout: layout, kernel: kernel}
	return id, nil
}

// DestroyComputePipeline releases a compute pipeline.
func (a *Adapter) DestroyComputePipeline(id gpucore.ComputePipelineID) {
	a.mu.Lock()
	delete(a.pipelines, id)
	a.mu.Unlock()
}

// CreateBindGroup binds buffer ranges to the slots of a layout.
// Offsets must be multiples of 256, as on WebGPU devices.
func (a *Adapter) CreateBindGroup(desc *gpucore.BindGroupDesc) (gpucore.BindGroupID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	layout, ok := a.bindGroupLayouts[desc.Layout]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("software: bind group %q: layout %d: %w", desc.Label, desc.Layout, gpucore.ErrUnknownResource)
	}
	bg := &bindGroup{label: desc.Label, layout: layout, entries: make([]boundBuffer, layout.maxSlot)}
	for _, e := range desc.Entries {
		le, ok := layout.entries[e.Binding]
		if !ok {
			return gpucore.InvalidID, fmt.Errorf("software: bind group %q: binding %d not in layout %q", desc.Label, e.Binding, layout.label)
		}
		buf, ok := a.buffers[e.Buffer]
		if !ok {
			return gpucore.InvalidID, fmt.Errorf("software: bind group %q: binding %d: buffer %d: %w", desc.Label, e.Binding, e.Buffer, gpucore.ErrUnknownResource)
		}
		if e.Offset%256 != 0 {
			return gpucore.InvalidID, fmt.Errorf("software: bind group %q: binding %d: offset %d not aligned to 256", desc.Label, e.Binding, e.Offset)
		}
		size := e.Size
		if size == 0 {
			size = uint64(len(buf.data)) - min(e.Offset, uint64(len(buf.data)))
		}
		if e.Offset+size > uint64(len(buf.data)) || size < le.MinBindingSize || size == 0 {
			return gpucore.InvalidID, fmt.Errorf("software: bind group %q: binding %d: range [%d,+%d) invalid for buffer %q (%d bytes)",
				desc.Label, e.Binding, e.Offset, size, buf.label, len(buf.data))
		}
		access := gpucore.AccessShaderRead
		if le.Type.Writes() {
			access = gpucore.AccessShaderReadWrite
		}
		bg.entries[e.Binding] = boundBuffer{buffer: e.Buffer, offset: e.Offset, size: size, access: access}
	}
	for slot := range layout.entries {
		if bg.entries[slot].buffer == gpucore.InvalidID {
			return gpucore.InvalidID, fmt.Errorf("software: bind group %q: binding %d missing", desc.Label, slot)
		}
	}
	id := gpucore.BindGroupID(a.newID())
	a.bindGroups[id] = bg
	return id, nil
}

// DestroyBindGroup releases a bind group.
func (a *Adapter) DestroyBindGroup(id gpucore.BindGroupID) {
	a.mu.Lock()
	delete(a.bindGroups, id)
	a.mu.Unlock()
}

// CreateCommandEncoder returns an encoder that records into host memory.
func (a *Adapter) CreateCommandEncoder(label string) (gpucore.CommandEncoder, error) {
	if a.destroyed.Load() {
		return nil, ErrDestroyed
	}
	e := &commandEncoder{adapter: a, label: label}
	if a.opts.validate {
		e.hazards = &gpucore.HazardTracker{}
	}
	return e, nil
}

// Submit queues the command buffers for execution and returns immediately.
func (a *Adapter) Submit(cmds ...gpucore.CommandBuffer) (gpucore.SubmissionIndex, error) {
	bufs := make([]*commandBuffer, 0, len(cmds))
	for _, c := range cmds {
		cb, ok := c.(*commandBuffer)
		if !ok || cb.adapter != a {
			return 0, fmt.Errorf("software: submit: command buffer %T not created by this adapter", c)
		}
		if !cb.submitted.CompareAndSwap(false, true) {
			return 0, fmt.Errorf("software: submit: command buffer %q already submitted", cb.label)
		}
		bufs = append(bufs, cb)
	}

	a.subMu.Lock()
	a.submitted++
	idx := a.submitted
	a.subMu.Unlock()

	err := a.enqueue(func() {
		var execErr error
		for _, cb := range bufs {
			if execErr = a.execute(cb); execErr != nil {
				break
			}
		}
		a.complete(idx, execErr)
	})
	if err != nil {
		a.complete(idx, err)
		return idx, err
	}
	return idx, nil
}

func (a *Adapter) complete(idx gpucore.SubmissionIndex, err error) {
	a.subMu.Lock()
	if err != nil {
		a.failures[idx] = err
		logx.Logger().Warn("software: submission failed", "index", idx, "err", err)
	}
	if idx > a.completed {
		a.completed = idx
	}
	close(a.progress)
	a.progress = make(chan struct{})
	a.subMu.Unlock()
}

// Wait blocks until submission idx has executed.
func (a *Adapter) Wait(ctx context.Context, idx gpucore.SubmissionIndex) error {
	for {
		a.subMu.Lock()
		if idx > a.submitted {
			a.subMu.Unlock()
			return fmt.Errorf("software: wait: submission %d was never submitted", idx)
		}
		if a.completed >= idx {
			err := a.failures[idx]
			delete(a.failures, idx)
			a.subMu.Unlock()
			return err
		}
		progress := a.progress
		a.subMu.Unlock()

		select {
		case <-progress:
		case <-ctx.Done():
			return fmt.Errorf("software: wait for submission %d: %w", idx, ctx.Err())
		}
	}
}

// Destroy drains the queue, stops the workers and drops all resources.
// Destroy is safe to call multiple times.
func (a *Adapter) Destroy() {
	a.qmu.Lock()
	if !a.destroyed.CompareAndSwap(false, true) {
		a.qmu.Unlock()
		return
	}
	close(a.queue)
	a.qmu.Unlock()
	<-a.queueDone
	a.pool.Close()

	a.mu.Lock()
	clear(a.buffers)
	clear(a.shaderModules)
	clear(a.bindGroupLayouts)
	clear(a.pipelineLayouts)
	clear(a.pipelines)
	clear(a.bindGroups)
	a.mu.Unlock()
}

var _ gpucore.GPUAdapter = (*Adapter)(nil)
