// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gogpu/ocean/gpucore"
)

type commandKind uint8

const (
	commandDispatch commandKind = iota + 1
	commandBarrier
)

type dispatchCommand struct {
	label      string
	pipeline   *computePipeline
	groups     []*bindGroup
	immediates []byte
	count      [3]uint32
}

type command struct {
	kind     commandKind
	dispatch dispatchCommand
	barriers []gpucore.BufferBarrier
}

// commandBuffer is the recorded, immutable form of a commandEncoder.
type commandBuffer struct {
	adapter   *Adapter
	label     string
	commands  []command
	submitted atomic.Bool
}

func (c *commandBuffer) Label() string { return c.label }

// commandEncoder records commands, resolving IDs at record time so that
// execution does not depend on later Destroy calls of bind groups or pipelines.
type commandEncoder struct {
	adapter  *Adapter
	label    string
	commands []command
	hazards  *gpucore.HazardTracker
	open     *computePass
	finished bool
	err      error
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
	case e.open != nil:
		e.fail(fmt.Errorf("software: begin pass %q: %w", label, gpucore.ErrPassOpen))
	default:
		e.open = p
	}
	return p
}

func (e *commandEncoder) Barrier(barriers ...gpucore.BufferBarrier) {
	if e.finished {
		e.fail(gpucore.ErrEncoderFinished)
		return
	}
	if e.open != nil {
		e.fail(fmt.Errorf("software: barrier: %w", gpucore.ErrPassOpen))
		return
	}
	for _, b := range barriers {
		if b.Src == 0 || b.Dst == 0 {
			e.fail(fmt.Errorf("software: barrier on buffer %d: empty access mask", b.Buffer))
			return
		}
		if e.hazards != nil {
			e.hazards.Barrier(b)
		}
	}
	e.commands = append(e.commands, command{kind: commandBarrier, barriers: append([]gpucore.BufferBarrier(nil), barriers...)})
}

func (e *commandEncoder) Finish() (gpucore.CommandBuffer, error) {
	if e.finished {
		return nil, gpucore.ErrEncoderFinished
	}
	e.finished = true
	if e.open != nil {
		e.fail(fmt.Errorf("software: finish %q: %w", e.label, gpucore.ErrPassOpen))
	}
	if e.err != nil {
		return nil, fmt.Errorf("software: encoder %q: %w", e.label, e.err)
	}
	return &commandBuffer{adapter: e.adapter, label: e.label, commands: e.commands}, nil
}

func (e *commandEncoder) Discard() {
	e.finished = true
	e.commands = nil
}

// computePass implements gpucore.ComputePassEncoder.
type computePass struct {
	encoder    *commandEncoder
	label      string
	pipeline   *computePipeline
	groups     []*bindGroup
	immediates []byte
	ended      bool
}

func (p *computePass) SetPipeline(id gpucore.ComputePipelineID) {
	a := p.encoder.adapter
	a.mu.RLock()
	pl, ok := a.pipelines[id]
	a.mu.RUnlock()
	if !ok {
		p.encoder.fail(fmt.Errorf("software: pass %q: pipeline %d: %w", p.label, id, gpucore.ErrUnknownResource))
		return
	}
	p.pipeline = pl
}

func (p *computePass) SetBindGroup(index uint32, id gpucore.BindGroupID) {
	a := p.encoder.adapter
	a.mu.RLock()
	bg, ok := a.bindGroups[id]
	a.mu.RUnlock()
	if !ok {
		p.encoder.fail(fmt.Errorf("software: pass %q: bind group %d: %w", p.label, id, gpucore.ErrUnknownResource))
		return
	}
	for uint32(len(p.groups)) <= index {
		p.groups = append(p.groups, nil)
	}
	p.groups[index] = bg
}

func (p *computePass) SetImmediates(data []byte) {
	p.immediates = append(p.immediates[:0:0], data...)
}

func (p *computePass) Dispatch(x, y, z uint32) {
	e := p.encoder
	if p.ended || e.finished {
		e.fail(fmt.Errorf("software: dispatch in pass %q: %w", p.label, gpucore.ErrEncoderFinished))
		return
	}
	if x == 0 || y == 0 || z == 0 {
		return
	}
	pl := p.pipeline
	if pl == nil {
		e.fail(fmt.Errorf("software: dispatch in pass %q: no pipeline set", p.label))
		return
	}
	if len(p.groups) < len(pl.layout.groups) {
		e.fail(fmt.Errorf("software: dispatch %q: %d bind groups set, pipeline %q needs %d", p.label, len(p.groups), pl.label, len(pl.layout.groups)))
		return
	}
	groups := make([]*bindGroup, len(pl.layout.groups))
	var accesses []gpucore.BufferAccess
	for i, want := range pl.layout.groups {
		bg := p.groups[i]
		if bg == nil || bg.layout != want {
			e.fail(fmt.Errorf("software: dispatch %q: bind group %d does not match layout %q", p.label, i, want.label))
			return
		}
		groups[i] = bg
		for _, bb := range bg.entries {
			if bb.buffer != gpucore.InvalidID {
				accesses = append(accesses, gpucore.BufferAccess{Buffer: bb.buffer, Access: bb.access})
			}
		}
	}
	if uint32(len(p.immediates)) > pl.layout.immediateSize {
		e.fail(fmt.Errorf("software: dispatch %q: %d immediate bytes exceed layout size %d", p.label, len(p.immediates), pl.layout.immediateSize))
		return
	}
	if e.hazards != nil {
		if err := e.hazards.Dispatch(p.label, accesses); err != nil {
			e.fail(err)
			return
		}
	}
	imm := make([]byte, pl.layout.immediateSize)
	copy(imm, p.immediates)
	e.commands = append(e.commands, command{
		kind: commandDispatch,
		dispatch: dispatchCommand{
			label:      p.label,
			pipeline:   pl,
			groups:     groups,
			immediates: imm,
			count:      [3]uint32{x, y, z},
		},
	})
}

func (p *computePass) End() {
	if p.ended {
		return
	}
	p.ended = true
	if p.encoder.open == p {
		p.encoder.open = nil
	}
}

// execute runs a command buffer on the queue goroutine.
func (a *Adapter) execute(cb *commandBuffer) error {
	for i := range cb.commands {
		c := &cb.commands[i]
		if c.kind != commandDispatch {
			// Dispatches complete before the next command starts, so
			// barriers need no work at execution time.
			continue
		}
		if err := a.runDispatch(&c.dispatch); err != nil {
			return fmt.Errorf("software: %q: dispatch %q: %w", cb.label, c.dispatch.label, err)
		}
	}
	return nil
}

// errKernelPanic wraps a panic raised by a host kernel.
var errKernelPanic = errors.New("host kernel panicked")

func (a *Adapter) runDispatch(d *dispatchCommand) (err error) {
	hb := &gpucore.HostBindings{
		Groups:     make([][][]byte, len(d.groups)),
		Immediates: d.immediates,
	}
	for gi, bg := range d.groups {
		slots := make([][]byte, len(bg.entries))
		for bi, bb := range bg.entries {
			if bb.buffer == gpucore.InvalidID {
				continue
			}
			buf, lerr := a.lookupBuffer(bb.buffer)
			if lerr != nil {
				return lerr
			}
			slots[bi] = buf.data[bb.offset : bb.offset+bb.size : bb.offset+bb.size]
		}
		hb.Groups[gi] = slots
	}

	kernel := d.pipeline.kernel
	invoke := kernel.Prepare(hb)
	wg := kernel.WorkgroupSize
	n := d.count
	total := int(n[0]) * int(n[1]) * int(n[2])

	var panicked atomic.Pointer[any]
	a.pool.ForRange(total, 1, func(lo, hi int) {
		defer func() {
			if r := recover(); r != nil {
				panicked.CompareAndSwap(nil, &r)
			}
		}()
		for w := lo; w < hi; w++ {
			wx := uint32(w) % n[0]
			wy := uint32(w) / n[0] % n[1]
			wz := uint32(w) / (n[0] * n[1])
			for lz := range wg[2] {
				for ly := range wg[1] {
					for lx := range wg[0] {
						invoke([3]uint32{wx*wg[0] + lx, wy*wg[1] + ly, wz*wg[2] + lz})
					}
				}
			}
		}
	})
	if r := panicked.Load(); r != nil {
		return fmt.Errorf("%w: %v", errKernelPanic, *r)
	}
	return nil
}
