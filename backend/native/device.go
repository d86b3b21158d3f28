// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/ocean/backend"
	"github.com/gogpu/ocean/gpucore"
	"github.com/gogpu/ocean/internal/logx"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

func init() {
	backend.Register(backend.Native, func() (gpucore.GPUAdapter, error) {
		return OpenDevice()
	})
}

// OpenDevice opens the first discrete or integrated Vulkan GPU, falling
// back to the first adapter found. The returned adapter owns the device.
func OpenDevice(opts ...Option) (*HALAdapter, error) {
	b, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not available", ErrNoGPU)
	}
	return openFrom(b, opts...)
}

// openFrom brings up a device on the given HAL backend.
func openFrom(b hal.Backend, opts ...Option) (*HALAdapter, error) {
	instance, err := b.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("native: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoGPU
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	limits := gputypes.DefaultLimits()
	openDev, err := selected.Adapter.Open(gputypes.Features(0), limits)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("native: open device: %w", err)
	}

	a, err := NewHALAdapter(openDev.Device, openDev.Queue, &limits, opts...)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	a.instance = instance
	a.owned = true
	a.name = selected.Info.Name
	logx.Logger().Info("native: device opened", "gpu", a.name, "type", selected.Info.DeviceType)
	return a, nil
}

// NewHALAdapterFromProvider wraps the device shared by a host application.
// The provider must implement HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue. The adapter never destroys the shared device.
func NewHALAdapterFromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*HALAdapter, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHALProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHALProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHALProvider)
	}

	a, err := NewHALAdapter(device, queue, nil, opts...)
	if err != nil {
		return nil, err
	}
	a.name = "shared"
	logx.Logger().Debug("native: using shared GPU device")
	return a, nil
}
