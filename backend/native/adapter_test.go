// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/ocean/gpucore"
)

// createNoopDevice creates a noop device and queue for testing.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

func newNoopAdapter(t *testing.T, opts ...Option) *HALAdapter {
	t.Helper()
	device, queue := createNoopDevice(t)
	a, err := NewHALAdapter(device, queue, nil, opts...)
	if err != nil {
		t.Fatalf("NewHALAdapter() = %v", err)
	}
	t.Cleanup(a.Destroy)
	return a
}

// skipOnNagaLimitation skips the test when naga cannot compile a construct.
func skipOnNagaLimitation(t *testing.T, err error) {
	t.Helper()
	msg := err.Error()
	if strings.Contains(msg, "not yet implemented") || strings.Contains(msg, "not supported") {
		t.Skipf("Skipping: naga limitation: %v", err)
	}
}

const fillShader = `
struct Immediates {
    value: u32,
    count: u32,
}

@group(0) @binding(0) var<storage, read_write> data: array<u32>;
@group(1) @binding(0) var<uniform> imm: Immediates;

@compute @workgroup_size(64, 1, 1)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    if (id.x >= imm.count) {
        return;
    }
    data[id.x] = imm.value;
}
`

func TestNewHALAdapterRequiresDevice(t *testing.T) {
	if _, err := NewHALAdapter(nil, nil, nil); err == nil {
		t.Error("NewHALAdapter(nil, nil) succeeded")
	}
}

func TestCapabilities(t *testing.T) {
	a := newNoopAdapter(t)
	lim := gputypes.DefaultLimits()
	if a.MaxBufferSize() != lim.MaxBufferSize {
		t.Errorf("MaxBufferSize() = %d, want %d", a.MaxBufferSize(), lim.MaxBufferSize)
	}
	if got := a.MaxWorkgroupSize(); got[0] != lim.MaxComputeWorkgroupSizeX {
		t.Errorf("MaxWorkgroupSize() = %v", got)
	}
	if !a.SupportsCompute() {
		t.Error("SupportsCompute() = false")
	}
}

func TestCreateShaderModuleRequiresWGSL(t *testing.T) {
	a := newNoopAdapter(t)
	_, err := a.CreateShaderModule(&gpucore.ShaderModuleDesc{
		Label: "host-only",
		Host:  map[string]gpucore.HostKernel{"main": {}},
	})
	if !errors.Is(err, gpucore.ErrWGSLMissing) {
		t.Errorf("CreateShaderModule(host only) = %v, want ErrWGSLMissing", err)
	}
}

func TestBufferValidation(t *testing.T) {
	a := newNoopAdapter(t)
	ctx := context.Background()

	if _, err := a.CreateBuffer("empty", 0, gpucore.BufferUsageStorage); err == nil {
		t.Error("CreateBuffer(size 0) succeeded")
	}
	if _, err := a.CreateBuffer("huge", a.MaxBufferSize()+1, gpucore.BufferUsageStorage); err == nil {
		t.Error("CreateBuffer(above limit) succeeded")
	}

	buf, err := a.CreateBuffer("data", 64, gpucore.BufferUsageStorage|gpucore.BufferUsageCopyDst|gpucore.BufferUsageCopySrc)
	if err != nil {
		t.Fatalf("CreateBuffer() = %v", err)
	}
	if err := a.WriteBuffer(buf, 0, make([]byte, 16)); err != nil {
		t.Errorf("WriteBuffer() = %v", err)
	}
	if err := a.WriteBuffer(buf, 2, make([]byte, 4)); !errors.Is(err, ErrUnaligned) {
		t.Errorf("WriteBuffer(offset 2) = %v, want ErrUnaligned", err)
	}
	if err := a.WriteBuffer(buf, 60, make([]byte, 8)); err == nil {
		t.Error("WriteBuffer past end succeeded")
	}
	if _, err := a.ReadBuffer(ctx, buf, 32, 64); err == nil {
		t.Error("ReadBuffer past end succeeded")
	}

	a.DestroyBuffer(buf)
	a.DestroyBuffer(buf)
	if err := a.WriteBuffer(buf, 0, make([]byte, 4)); !errors.Is(err, gpucore.ErrUnknownResource) {
		t.Errorf("WriteBuffer(destroyed) = %v, want ErrUnknownResource", err)
	}
}

func TestReadBufferWaitsForCopy(t *testing.T) {
	a := newNoopAdapter(t)
	buf, _ := a.CreateBuffer("data", 256, gpucore.BufferUsageStorage|gpucore.BufferUsageCopySrc)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := a.ReadBuffer(ctx, buf, 0, 256)
	if err != nil {
		t.Fatalf("ReadBuffer() = %v", err)
	}
	if len(out) != 256 {
		t.Errorf("len(ReadBuffer()) = %d, want 256", len(out))
	}
}

func TestBindGroupValidation(t *testing.T) {
	a := newNoopAdapter(t)
	layout, err := a.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{
		Label: "layout",
		Entries: []gpucore.BindGroupLayoutEntry{
			{Binding: 0, Type: gpucore.BindingTypeStorageBuffer},
			{Binding: 1, Type: gpucore.BindingTypeUniformBuffer},
		},
	})
	if err != nil {
		t.Fatalf("CreateBindGroupLayout() = %v", err)
	}
	buf, _ := a.CreateBuffer("data", 64, gpucore.BufferUsageStorage|gpucore.BufferUsageUniform)

	tests := []struct {
		name    string
		entries []gpucore.BindGroupEntry
		want    error
	}{
		{"missing binding", []gpucore.BindGroupEntry{{Binding: 0, Buffer: buf}}, nil},
		{"unknown buffer", []gpucore.BindGroupEntry{{Binding: 0, Buffer: 999}, {Binding: 1, Buffer: buf}}, gpucore.ErrUnknownResource},
		{"binding not in layout", []gpucore.BindGroupEntry{{Binding: 5, Buffer: buf}}, nil},
		{"range past end", []gpucore.BindGroupEntry{{Binding: 0, Buffer: buf, Offset: 0, Size: 128}, {Binding: 1, Buffer: buf}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.CreateBindGroup(&gpucore.BindGroupDesc{Label: tt.name, Layout: layout, Entries: tt.entries})
			if err == nil {
				t.Fatal("CreateBindGroup() succeeded")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("CreateBindGroup() = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := a.CreateBindGroup(&gpucore.BindGroupDesc{
		Label:   "ok",
		Layout:  layout,
		Entries: []gpucore.BindGroupEntry{{Binding: 0, Buffer: buf}, {Binding: 1, Buffer: buf}},
	}); err != nil {
		t.Errorf("CreateBindGroup() = %v", err)
	}
	if _, err := a.CreatePipelineLayout(&gpucore.PipelineLayoutDesc{
		Label:         "too many immediates",
		ImmediateSize: gpucore.MaxImmediateSize + 4,
	}); err == nil {
		t.Error("CreatePipelineLayout(oversized immediates) succeeded")
	}
}

// fillPipeline builds the pipeline for fillShader over a buffer of n words.
type fillPipeline struct {
	buf      gpucore.BufferID
	pipeline gpucore.ComputePipelineID
	group    gpucore.BindGroupID
}

func newFillPipeline(t *testing.T, a *HALAdapter, n uint64) *fillPipeline {
	t.Helper()
	module, err := a.CreateShaderModule(&gpucore.ShaderModuleDesc{Label: "fill", WGSL: fillShader})
	if err != nil {
		skipOnNagaLimitation(t, err)
		t.Fatalf("CreateShaderModule() = %v", err)
	}
	layout, err := a.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{
		Label:   "fill",
		Entries: []gpucore.BindGroupLayoutEntry{{Binding: 0, Type: gpucore.BindingTypeStorageBuffer}},
	})
	if err != nil {
		t.Fatalf("CreateBindGroupLayout() = %v", err)
	}
	pipeLayout, err := a.CreatePipelineLayout(&gpucore.PipelineLayoutDesc{
		Label:            "fill",
		BindGroupLayouts: []gpucore.BindGroupLayoutID{layout},
		ImmediateSize:    8,
	})
	if err != nil {
		t.Fatalf("CreatePipelineLayout() = %v", err)
	}
	pipeline, err := a.CreateComputePipeline(&gpucore.ComputePipelineDesc{
		Label: "fill", Layout: pipeLayout, ShaderModule: module, EntryPoint: "main",
	})
	if err != nil {
		t.Fatalf("CreateComputePipeline() = %v", err)
	}
	buf, err := a.CreateBuffer("fill", n*4, gpucore.BufferUsageStorage|gpucore.BufferUsageCopySrc)
	if err != nil {
		t.Fatalf("CreateBuffer() = %v", err)
	}
	group, err := a.CreateBindGroup(&gpucore.BindGroupDesc{
		Label: "fill", Layout: layout, Entries: []gpucore.BindGroupEntry{{Binding: 0, Buffer: buf}},
	})
	if err != nil {
		t.Fatalf("CreateBindGroup() = %v", err)
	}
	return &fillPipeline{buf: buf, pipeline: pipeline, group: group}
}

func (f *fillPipeline) record(enc gpucore.CommandEncoder, value uint32) {
	pass := enc.BeginComputePass("fill")
	pass.SetPipeline(f.pipeline)
	pass.SetBindGroup(0, f.group)
	pass.SetImmediates([]byte{byte(value), byte(value >> 8), byte(value >> 16), byte(value >> 24), 64, 0, 0, 0})
	pass.Dispatch(1, 1, 1)
	pass.End()
}

func TestHazardValidation(t *testing.T) {
	a := newNoopAdapter(t)
	f := newFillPipeline(t, a, 64)

	enc, _ := a.CreateCommandEncoder("no-barrier")
	f.record(enc, 1)
	f.record(enc, 2)
	if _, err := enc.Finish(); !errors.Is(err, gpucore.ErrHazard) {
		t.Errorf("Finish() without barrier = %v, want ErrHazard", err)
	}

	enc, _ = a.CreateCommandEncoder("barrier")
	f.record(enc, 1)
	enc.Barrier(gpucore.BufferBarrier{Buffer: f.buf, Src: gpucore.AccessShaderReadWrite, Dst: gpucore.AccessShaderReadWrite})
	f.record(enc, 2)
	cb, err := enc.Finish()
	if err != nil {
		t.Fatalf("Finish() with barrier = %v", err)
	}
	if _, ok := cb.(*commandBuffer); !ok {
		t.Fatalf("Finish() = %T", cb)
	}
	if n := len(cb.(*commandBuffer).transient); n != 2 {
		t.Errorf("command buffer holds %d immediates bindings, want 2", n)
	}

	unchecked := newNoopAdapter(t, WithHazardValidation(false))
	g := newFillPipeline(t, unchecked, 64)
	enc, _ = unchecked.CreateCommandEncoder("unchecked")
	g.record(enc, 1)
	g.record(enc, 2)
	if _, err := enc.Finish(); err != nil {
		t.Errorf("Finish() with validation off = %v", err)
	}
}

func TestSubmitAndWait(t *testing.T) {
	a := newNoopAdapter(t)
	f := newFillPipeline(t, a, 64)

	enc, _ := a.CreateCommandEncoder("frame")
	f.record(enc, 7)
	cb, err := enc.Finish()
	if err != nil {
		t.Fatalf("Finish() = %v", err)
	}
	idx, err := a.Submit(cb)
	if err != nil {
		t.Fatalf("Submit() = %v", err)
	}
	if _, err := a.Submit(cb); err == nil {
		t.Error("submitting a command buffer twice succeeded")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Wait(ctx, idx); err != nil {
		t.Fatalf("Wait() = %v", err)
	}
	if err := a.Wait(ctx, idx+10); err == nil {
		t.Error("Wait(never submitted) succeeded")
	}

	a.subMu.Lock()
	inFlight := len(a.inFlight)
	a.subMu.Unlock()
	if inFlight != 0 {
		t.Errorf("%d command buffers still in flight after Wait", inFlight)
	}
}

func TestEncoderMisuse(t *testing.T) {
	a := newNoopAdapter(t)

	enc, _ := a.CreateCommandEncoder("open-pass")
	enc.BeginComputePass("left-open")
	if _, err := enc.Finish(); !errors.Is(err, gpucore.ErrPassOpen) {
		t.Errorf("Finish() with open pass = %v, want ErrPassOpen", err)
	}
	if _, err := enc.Finish(); !errors.Is(err, gpucore.ErrEncoderFinished) {
		t.Errorf("second Finish() = %v, want ErrEncoderFinished", err)
	}

	enc, _ = a.CreateCommandEncoder("bad-barrier")
	enc.Barrier(gpucore.BufferBarrier{Buffer: 12345, Src: gpucore.AccessShaderWrite, Dst: gpucore.AccessShaderRead})
	if _, err := enc.Finish(); !errors.Is(err, gpucore.ErrUnknownResource) {
		t.Errorf("Finish() after barrier on unknown buffer = %v, want ErrUnknownResource", err)
	}

	enc, _ = a.CreateCommandEncoder("discarded")
	enc.Discard()
	enc.Discard()

	if _, err := a.Submit(foreignCommandBuffer{}); err == nil {
		t.Error("Submit(foreign command buffer) succeeded")
	}
}

type foreignCommandBuffer struct{}

func (foreignCommandBuffer) Label() string { return "foreign" }

func TestDestroy(t *testing.T) {
	device, queue := createNoopDevice(t)
	a, err := NewHALAdapter(device, queue, nil)
	if err != nil {
		t.Fatalf("NewHALAdapter() = %v", err)
	}
	if _, err := a.CreateBuffer("leaked", 64, gpucore.BufferUsageStorage); err != nil {
		t.Fatalf("CreateBuffer() = %v", err)
	}
	a.Destroy()
	a.Destroy()
	if _, err := a.CreateCommandEncoder("late"); !errors.Is(err, ErrDestroyed) {
		t.Errorf("CreateCommandEncoder() after Destroy = %v, want ErrDestroyed", err)
	}
}

func TestConvertAccess(t *testing.T) {
	tests := []struct {
		access gpucore.Access
		want   gputypes.BufferUsage
	}{
		{gpucore.AccessShaderRead, gputypes.BufferUsageStorage},
		{gpucore.AccessShaderReadWrite, gputypes.BufferUsageStorage},
		{gpucore.AccessShaderRead | gpucore.AccessVertexRead, gputypes.BufferUsageStorage | gputypes.BufferUsageVertex},
		{gpucore.AccessTransferRead, gputypes.BufferUsageCopySrc},
		{gpucore.AccessTransferWrite, gputypes.BufferUsageCopyDst},
		{gpucore.AccessHostRead, gputypes.BufferUsageMapRead},
	}
	for _, tt := range tests {
		if got := convertAccess(tt.access); got != tt.want {
			t.Errorf("convertAccess(%v) = %v, want %v", tt.access, got, tt.want)
		}
	}
}

// Provider fakes.

type noopGPUDevice struct{}

func (noopGPUDevice) Poll(bool) {}
func (noopGPUDevice) Destroy()  {}

type plainProvider struct{}

func (plainProvider) Device() gpucontext.Device             { return noopGPUDevice{} }
func (plainProvider) Queue() gpucontext.Queue               { return nil }
func (plainProvider) Adapter() gpucontext.Adapter           { return nil }
func (plainProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }

type halProvider struct {
	plainProvider
	device hal.Device
	queue  hal.Queue
}

func (p halProvider) HalDevice() any { return p.device }
func (p halProvider) HalQueue() any  { return p.queue }

func TestNewHALAdapterFromProvider(t *testing.T) {
	if _, err := NewHALAdapterFromProvider(plainProvider{}); !errors.Is(err, ErrNoHALProvider) {
		t.Errorf("NewHALAdapterFromProvider(plain) = %v, want ErrNoHALProvider", err)
	}
	if _, err := NewHALAdapterFromProvider(halProvider{}); !errors.Is(err, ErrNoHALProvider) {
		t.Errorf("NewHALAdapterFromProvider(nil HAL objects) = %v, want ErrNoHALProvider", err)
	}

	device, queue := createNoopDevice(t)
	a, err := NewHALAdapterFromProvider(halProvider{device: device, queue: queue})
	if err != nil {
		t.Fatalf("NewHALAdapterFromProvider() = %v", err)
	}
	if a.owned {
		t.Error("adapter claims ownership of a shared device")
	}
	a.Destroy()
}
