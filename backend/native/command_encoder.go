// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/ocean/gpucore"
)

// transient is a uniform buffer and bind group carrying the immediates of
// one dispatch. It lives until the command buffer's submission retires.
type transient struct {
	buf   hal.Buffer
	group hal.BindGroup
}

// commandBuffer implements gpucore.CommandBuffer.
type commandBuffer struct {
	adapter   *HALAdapter
	label     string
	cmd       hal.CommandBuffer
	transient []transient
	index     gpucore.SubmissionIndex
	submitted atomic.Bool
}

func (c *commandBuffer) Label() string { return c.label }

// release frees the HAL command buffer and its transient bindings.
func (c *commandBuffer) release() {
	d := c.adapter.device
	if d == nil {
		return
	}
	if c.cmd != nil {
		d.FreeCommandBuffer(c.cmd)
		c.cmd = nil
	}
	releaseTransients(d, c.transient)
	c.transient = nil
}

func releaseTransients(d hal.Device, ts []transient) {
	for _, t := range ts {
		if t.group != nil {
			d.DestroyBindGroup(t.group)
		}
		if t.buf != nil {
			d.DestroyBuffer(t.buf)
		}
	}
}

// commandEncoder implements gpucore.CommandEncoder on a HAL encoder.
//
// Errors are collected and reported by Finish. commandEncoder is NOT safe
// for concurrent use.
type commandEncoder struct {
	adapter   *HALAdapter
	label     string
	enc       hal.CommandEncoder
	hazards   *gpucore.HazardTracker
	open      *computePass
	transient []transient
	finished  bool
	err       error
}

func (e *commandEncoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

func (e *commandEncoder) BeginComputePass(label string) gpucore.ComputePassEncoder {
	p := &computePass{encoder: e, label: label}
	switch {
	case e.finished:
		e.fail(gpucore.ErrEncoderFinished)
		return p
	case e.open != nil:
		e.fail(fmt.Errorf("native: begin pass %q: %w", label, gpucore.ErrPassOpen))
		return p
	}
	p.pass = e.enc.BeginComputePass(&hal.ComputePassDescriptor{Label: label})
	e.open = p
	return p
}

// Barrier records a buffer usage transition for each barrier.
func (e *commandEncoder) Barrier(barriers ...gpucore.BufferBarrier) {
	if e.finished {
		e.fail(gpucore.ErrEncoderFinished)
		return
	}
	if e.open != nil {
		e.fail(fmt.Errorf("native: barrier: %w", gpucore.ErrPassOpen))
		return
	}
	a := e.adapter
	halBarriers := make([]hal.BufferBarrier, 0, len(barriers))
	a.mu.RLock()
	for _, b := range barriers {
		if b.Src == 0 || b.Dst == 0 {
			a.mu.RUnlock()
			e.fail(fmt.Errorf("native: barrier on buffer %d: empty access mask", b.Buffer))
			return
		}
		buf, ok := a.buffers[b.Buffer]
		if !ok {
			a.mu.RUnlock()
			e.fail(fmt.Errorf("native: barrier: buffer %d: %w", b.Buffer, gpucore.ErrUnknownResource))
			return
		}
		halBarriers = append(halBarriers, hal.BufferBarrier{
			Buffer: buf.buf,
			Usage: hal.BufferUsageTransition{
				OldUsage: convertAccess(b.Src),
				NewUsage: convertAccess(b.Dst),
			},
		})
	}
	a.mu.RUnlock()

	for _, b := range barriers {
		if e.hazards != nil {
			e.hazards.Barrier(b)
		}
	}
	e.enc.TransitionBuffers(halBarriers)
}

// Finish ends encoding. On error the HAL encoder is discarded.
func (e *commandEncoder) Finish() (gpucore.CommandBuffer, error) {
	if e.finished {
		return nil, gpucore.ErrEncoderFinished
	}
	e.finished = true
	if e.open != nil {
		e.fail(fmt.Errorf("native: finish %q: %w", e.label, gpucore.ErrPassOpen))
		e.open.End()
	}
	if e.err != nil {
		e.enc.DiscardEncoding()
		releaseTransients(e.adapter.device, e.transient)
		e.transient = nil
		return nil, fmt.Errorf("native: encoder %q: %w", e.label, e.err)
	}
	cmd, err := e.enc.EndEncoding()
	if err != nil {
		releaseTransients(e.adapter.device, e.transient)
		e.transient = nil
		return nil, fmt.Errorf("native: end encoding %q: %w", e.label, err)
	}
	cb := &commandBuffer{adapter: e.adapter, label: e.label, cmd: cmd, transient: e.transient}
	e.transient = nil
	return cb, nil
}

// Discard abandons the recording.
func (e *commandEncoder) Discard() {
	if e.finished {
		return
	}
	if e.open != nil {
		e.open.End()
	}
	e.finished = true
	e.enc.DiscardEncoding()
	releaseTransients(e.adapter.device, e.transient)
	e.transient = nil
}

// computePass implements gpucore.ComputePassEncoder.
type computePass struct {
	encoder    *commandEncoder
	label      string
	pass       hal.ComputePassEncoder
	pipeline   *computePipeline
	groups     []*bindGroup
	immediates []byte
	ended      bool
}

func (p *computePass) usable() bool {
	return p.pass != nil && !p.ended && !p.encoder.finished
}

func (p *computePass) SetPipeline(id gpucore.ComputePipelineID) {
	if !p.usable() {
		return
	}
	a := p.encoder.adapter
	a.mu.RLock()
	pl, ok := a.computePipelines[id]
	a.mu.RUnlock()
	if !ok {
		p.encoder.fail(fmt.Errorf("native: pass %q: pipeline %d: %w", p.label, id, gpucore.ErrUnknownResource))
		return
	}
	p.pipeline = pl
	p.pass.SetPipeline(pl.pipeline)
}

func (p *computePass) SetBindGroup(index uint32, id gpucore.BindGroupID) {
	if !p.usable() {
		return
	}
	a := p.encoder.adapter
	a.mu.RLock()
	bg, ok := a.bindGroups[id]
	a.mu.RUnlock()
	if !ok {
		p.encoder.fail(fmt.Errorf("native: pass %q: bind group %d: %w", p.label, id, gpucore.ErrUnknownResource))
		return
	}
	for uint32(len(p.groups)) <= index {
		p.groups = append(p.groups, nil)
	}
	p.groups[index] = bg
	p.pass.SetBindGroup(index, bg.group, nil)
}

func (p *computePass) SetImmediates(data []byte) {
	p.immediates = append(p.immediates[:0:0], data...)
}

func (p *computePass) Dispatch(x, y, z uint32) {
	e := p.encoder
	if !p.usable() {
		e.fail(fmt.Errorf("native: dispatch in pass %q: %w", p.label, gpucore.ErrEncoderFinished))
		return
	}
	if x == 0 || y == 0 || z == 0 {
		return
	}
	pl := p.pipeline
	if pl == nil {
		e.fail(fmt.Errorf("native: dispatch in pass %q: no pipeline set", p.label))
		return
	}
	if len(p.groups) < len(pl.layout.groups) {
		e.fail(fmt.Errorf("native: dispatch %q: %d bind groups set, pipeline %q needs %d", p.label, len(p.groups), pl.label, len(pl.layout.groups)))
		return
	}
	var accesses []gpucore.BufferAccess
	for i, want := range pl.layout.groups {
		bg := p.groups[i]
		if bg == nil || bg.layout != want {
			e.fail(fmt.Errorf("native: dispatch %q: bind group %d does not match the pipeline layout", p.label, i))
			return
		}
		accesses = append(accesses, bg.accesses...)
	}
	if uint32(len(p.immediates)) > pl.layout.immediateSize {
		e.fail(fmt.Errorf("native: dispatch %q: %d immediate bytes exceed layout size %d", p.label, len(p.immediates), pl.layout.immediateSize))
		return
	}
	if e.hazards != nil {
		if err := e.hazards.Dispatch(p.label, accesses); err != nil {
			e.fail(err)
			return
		}
	}
	if pl.layout.immediateSize > 0 {
		group, err := p.bindImmediates(pl.layout)
		if err != nil {
			e.fail(err)
			return
		}
		p.pass.SetBindGroup(uint32(len(pl.layout.groups)), group, nil)
	}
	p.pass.Dispatch(x, y, z)
}

// bindImmediates uploads the pass immediates into a fresh uniform buffer.
func (p *computePass) bindImmediates(layout *pipelineLayout) (hal.BindGroup, error) {
	a := p.encoder.adapter
	size := (uint64(layout.immediateSize) + 15) &^ 15
	data := make([]byte, size)
	copy(data, p.immediates)

	buf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: p.label + "_immediates",
		Size:  size,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("native: dispatch %q: create immediates buffer: %w", p.label, err)
	}
	a.queue.WriteBuffer(buf, 0, data)

	group, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  p.label + "_immediates",
		Layout: layout.immediates,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: buf.NativeHandle(), Offset: 0, Size: size}},
		},
	})
	if err != nil {
		a.device.DestroyBuffer(buf)
		return nil, fmt.Errorf("native: dispatch %q: create immediates bind group: %w", p.label, err)
	}
	p.encoder.transient = append(p.encoder.transient, transient{buf: buf, group: group})
	return group, nil
}

func (p *computePass) End() {
	if p.ended {
		return
	}
	p.ended = true
	if p.pass != nil {
		p.pass.End()
	}
	if p.encoder.open == p {
		p.encoder.open = nil
	}
}
