// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ocean

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// Channel names one plane of the frequency-domain field.
type Channel int

// Frequency-domain channels, in buffer order.
const (
	// ChannelHeight is h(k, t).
	ChannelHeight Channel = iota
	// ChannelDisplacementX is i·k̂x·h.
	ChannelDisplacementX
	// ChannelDisplacementZ is i·k̂z·h.
	ChannelDisplacementZ
	// ChannelSlopeX is ∂h/∂x = i·kx·h.
	ChannelSlopeX
	// ChannelSlopeZ is ∂h/∂z = i·kz·h.
	ChannelSlopeZ
	// ChannelDisplacementXX is ∂Dx/∂x = i·kx·Dx.
	ChannelDisplacementXX
	// ChannelDisplacementZZ is ∂Dz/∂z = i·kz·Dz.
	ChannelDisplacementZZ

	// ChannelCount is the number of channels transformed per update.
	ChannelCount = 7
)

var channelNames = [ChannelCount]string{"h", "dx", "dz", "dh/dx", "dh/dz", "ddx/dx", "ddz/dz"}

// String returns a short name for the channel.
func (c Channel) String() string {
	if c < 0 || c >= ChannelCount {
		return "unknown"
	}
	return channelNames[c]
}

// DisplacementNormal is one cell of the output field.
// Must match struct Cell in reconstruct.wgsl (32 bytes).
type DisplacementNormal struct {
	// Displacement is (−λ·Dx, h, −λ·Dz, 0).
	Displacement Vec4

	// Normal is the unit surface normal in XYZ. W holds the Jacobian of the
	// horizontal displacement: 1 on a flat sea, below 0 where the surface folds.
	Normal Vec4
}

// Byte sizes of the device-side element types.
const (
	waveVectorSize   = int(unsafe.Sizeof(WaveVector{}))
	amplitudeSize    = int(unsafe.Sizeof(SpectrumAmplitude{}))
	complexSize      = int(unsafe.Sizeof(complex64(0)))
	outputCellSize   = int(unsafe.Sizeof(DisplacementNormal{}))
	waveParamsSize   = 16
)

// waveParams holds the per-update immediates of the evolution and
// reconstruction stages. Must match struct WaveParams in the WGSL kernels.
type waveParams struct {
	Time       float32
	Choppiness float32
	N          uint32
	Stride     uint32
}

func (p waveParams) toBytes() []byte {
	buf := make([]byte, waveParamsSize)
	le := binary.LittleEndian
	le.PutUint32(buf[0:], math.Float32bits(p.Time))
	le.PutUint32(buf[4:], math.Float32bits(p.Choppiness))
	le.PutUint32(buf[8:], p.N)
	le.PutUint32(buf[12:], p.Stride)
	return buf
}
