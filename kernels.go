// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ocean

import (
	_ "embed"
	"math"

	"github.com/gogpu/ocean/gpucore"
)

// WGSL sources of the three tile stages.

//go:embed shaders/spectrum.wgsl
var shaderSpectrum string

//go:embed shaders/evolve.wgsl
var shaderEvolve string

//go:embed shaders/reconstruct.wgsl
var shaderReconstruct string

// kernelWorkgroup is the 2-D workgroup size shared by the tile stages.
// Must match @workgroup_size in spectrum.wgsl, evolve.wgsl and reconstruct.wgsl.
var kernelWorkgroup = [3]uint32{8, 8, 1}

// Shaders returns the WGSL sources of the tile stages keyed by stage name.
func Shaders() map[string]string {
	return map[string]string{
		"spectrum":    shaderSpectrum,
		"evolve":      shaderEvolve,
		"reconstruct": shaderReconstruct,
	}
}

// Host implementations of the stage entry points. Each mirrors its WGSL
// counterpart line for line.

var spectrumKernel = gpucore.HostKernel{
	WorkgroupSize: kernelWorkgroup,
	Prepare: func(b *gpucore.HostBindings) func([3]uint32) {
		params := spectrumParamsFromBytes(b.Buffer(0, 0))
		waves := gpucore.ViewAs[WaveVector](b.Buffer(0, 1))
		spectrum := gpucore.ViewAs[SpectrumAmplitude](b.Buffer(0, 2))
		key := params.seedKey()
		n := params.N
		return func(id [3]uint32) {
			if id[0] >= n || id[1] >= n {
				return
			}
			cell := id[1]*n + id[0]
			mirrored := ((n-id[1])%n)*n + (n-id[0])%n
			spectrum[cell] = SpectrumAmplitude{
				Height:     params.amplitude(cell, waves[cell].K, key),
				HeightConj: params.amplitude(mirrored, waves[mirrored].K, key),
				Dispersion: float32(params.dispersion(waves[cell].K)),
			}
		}
	},
}

func timesI(c complex64) complex64 {
	return complex(-imag(c), real(c))
}

func conj64(c complex64) complex64 {
	return complex(real(c), -imag(c))
}

func scale64(c complex64, s float32) complex64 {
	return complex(real(c)*s, imag(c)*s)
}

var evolveKernel = gpucore.HostKernel{
	WorkgroupSize: kernelWorkgroup,
	Prepare: func(b *gpucore.HostBindings) func([3]uint32) {
		spectrum := gpucore.ViewAs[SpectrumAmplitude](b.Buffer(0, 0))
		waves := gpucore.ViewAs[WaveVector](b.Buffer(0, 1))
		field := gpucore.ViewAs[complex64](b.Buffer(0, 2))
		t := b.Float32(0)
		n := b.Uint32(8)
		s := b.Uint32(12)
		return func(id [3]uint32) {
			if id[0] >= n || id[1] >= n {
				return
			}
			cell := id[1]*n + id[0]
			amp := spectrum[cell]
			wv := waves[cell]

			phase := float64(amp.Dispersion * t)
			e := complex(float32(math.Cos(phase)), float32(math.Sin(phase)))
			h := amp.Height*e + conj64(amp.HeightConj)*conj64(e)
			ih := timesI(h)

			field[cell] = h
			field[s+cell] = scale64(ih, wv.Unit.X)
			field[2*s+cell] = scale64(ih, wv.Unit.Y)
			field[3*s+cell] = scale64(ih, wv.K.X)
			field[4*s+cell] = scale64(ih, wv.K.Y)
			field[5*s+cell] = scale64(h, -wv.K.X*wv.Unit.X)
			field[6*s+cell] = scale64(h, -wv.K.Y*wv.Unit.Y)
		}
	},
}

var reconstructKernel = gpucore.HostKernel{
	WorkgroupSize: kernelWorkgroup,
	Prepare: func(b *gpucore.HostBindings) func([3]uint32) {
		field := gpucore.ViewAs[complex64](b.Buffer(0, 0))
		cells := gpucore.ViewAs[DisplacementNormal](b.Buffer(0, 1))
		chop := b.Float32(4)
		n := b.Uint32(8)
		s := b.Uint32(12)
		return func(id [3]uint32) {
			if id[0] >= n || id[1] >= n {
				return
			}
			cell := id[1]*n + id[0]
			flip := float32(1 - 2*int((id[0]+id[1])&1))

			h := flip * real(field[cell])
			dx := flip * real(field[s+cell])
			dz := flip * real(field[2*s+cell])
			hx := flip * real(field[3*s+cell])
			hz := flip * real(field[4*s+cell])
			dxx := flip * real(field[5*s+cell])
			dzz := flip * real(field[6*s+cell])

			cx := 1 - chop*dxx
			cz := 1 - chop*dzz
			normal := Vec3{X: -cz * hx, Y: cx * cz, Z: -cx * hz}.Normalize()

			cells[cell] = DisplacementNormal{
				Displacement: Vec4{X: -chop * dx, Y: h, Z: -chop * dz},
				Normal:       Vec4{X: normal.X, Y: normal.Y, Z: normal.Z, W: cx * cz},
			}
		}
	},
}
