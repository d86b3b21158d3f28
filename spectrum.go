// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ocean

import (
	"encoding/binary"
	"math"
)

// SpectrumAmplitude is one cell of the base spectrum.
// Must match struct Amplitude in spectrum.wgsl and evolve.wgsl (24 bytes).
type SpectrumAmplitude struct {
	// Height is h0(k).
	Height complex64

	// HeightConj is h0 of the mirrored cell, the lattice cell holding −k.
	// It is stored un-conjugated; the evolution stage conjugates it.
	HeightConj complex64

	// Dispersion is the angular frequency ω(k).
	Dispersion float32

	_ float32
}

// spectrumParamsSize is the byte size of SpectrumParams in spectrum.wgsl.
const spectrumParamsSize = 64

// spectrumParams holds the uniform block for the base spectrum dispatch.
// Must match struct SpectrumParams in spectrum.wgsl.
type spectrumParams struct {
	N              uint32
	SeedLo         uint32
	SeedHi         uint32
	Wind           Vec2
	Amplitude      float32
	Gravity        float32
	WindSpeed      float32
	Cutoff         float32
	Exponent       float32
	ReverseDamping float32
	Depth          float32
	LoopPeriod     float32
	DeltaK         float32
}

func newSpectrumParams(cfg *Config) spectrumParams {
	return spectrumParams{
		N:              uint32(cfg.TileSize),
		SeedLo:         uint32(cfg.Seed),
		SeedHi:         uint32(cfg.Seed >> 32),
		Wind:           cfg.windUnit(),
		Amplitude:      float32(cfg.Amplitude),
		Gravity:        float32(cfg.Gravity),
		WindSpeed:      float32(cfg.WindSpeed),
		Cutoff:         float32(cfg.SmallWaveCutoff),
		Exponent:       float32(cfg.DirectionalExponent),
		ReverseDamping: float32(cfg.ReverseDamping),
		Depth:          float32(cfg.Depth),
		LoopPeriod:     float32(cfg.LoopPeriod),
		DeltaK:         float32(2 * math.Pi / cfg.TileLength),
	}
}

// toBytes serializes the parameters to the WGSL uniform layout.
func (p spectrumParams) toBytes() []byte {
	buf := make([]byte, spectrumParamsSize)
	le := binary.LittleEndian
	le.PutUint32(buf[0:], p.N)
	le.PutUint32(buf[4:], p.SeedLo)
	le.PutUint32(buf[8:], p.SeedHi)
	// 12: padding
	le.PutUint32(buf[16:], math.Float32bits(p.Wind.X))
	le.PutUint32(buf[20:], math.Float32bits(p.Wind.Y))
	le.PutUint32(buf[24:], math.Float32bits(p.Amplitude))
	le.PutUint32(buf[28:], math.Float32bits(p.Gravity))
	le.PutUint32(buf[32:], math.Float32bits(p.WindSpeed))
	le.PutUint32(buf[36:], math.Float32bits(p.Cutoff))
	le.PutUint32(buf[40:], math.Float32bits(p.Exponent))
	le.PutUint32(buf[44:], math.Float32bits(p.ReverseDamping))
	le.PutUint32(buf[48:], math.Float32bits(p.Depth))
	le.PutUint32(buf[52:], math.Float32bits(p.LoopPeriod))
	le.PutUint32(buf[56:], math.Float32bits(p.DeltaK))
	// 60: padding
	return buf
}

// spectrumParamsFromBytes is the inverse of toBytes, used by the host kernel.
func spectrumParamsFromBytes(buf []byte) spectrumParams {
	le := binary.LittleEndian
	f := func(off int) float32 { return math.Float32frombits(le.Uint32(buf[off:])) }
	return spectrumParams{
		N:              le.Uint32(buf[0:]),
		SeedLo:         le.Uint32(buf[4:]),
		SeedHi:         le.Uint32(buf[8:]),
		Wind:           Vec2{X: f(16), Y: f(20)},
		Amplitude:      f(24),
		Gravity:        f(28),
		WindSpeed:      f(32),
		Cutoff:         f(36),
		Exponent:       f(40),
		ReverseDamping: f(44),
		Depth:          f(48),
		LoopPeriod:     f(52),
		DeltaK:         f(56),
	}
}

// pcg is the PCG-RXS-M-XS 32-bit hash.
func pcg(v uint32) uint32 {
	state := v*747796405 + 2891336453
	word := ((state >> ((state >> 28) + 4)) ^ state) * 277803737
	return (word >> 22) ^ word
}

// seedKey folds the 64-bit seed into one hash word.
func (p *spectrumParams) seedKey() uint32 {
	return pcg(p.SeedLo ^ pcg(p.SeedHi))
}

// uniform01 returns a uniform value in (0, 1] for a cell and stream.
func uniform01(cell, stream, key uint32) float64 {
	h := pcg(pcg(cell*4+stream) ^ key)
	return (float64(h>>8) + 1) / 16777216
}

// gaussian returns a pair of independent standard normal values for a cell
// using the Box–Muller transform.
func gaussian(cell, key uint32) (float64, float64) {
	u1 := uniform01(cell, 0, key)
	u2 := uniform01(cell, 1, key)
	r := math.Sqrt(-2 * math.Log(u1))
	theta := 2 * math.Pi * u2
	return r * math.Cos(theta), r * math.Sin(theta)
}

// phillips evaluates the Phillips spectrum P(k).
//
//	P(k) = A·exp(−1/(k·Lw)²)/k⁴ · |k̂·ŵ|^p · exp(−k²·ℓ²),  Lw = V²/g, ℓ = Lw·cutoff
//
// Waves moving against the wind are scaled by ReverseDamping. P(0) = 0.
func (p *spectrumParams) phillips(k Vec2) float64 {
	kx, kz := float64(k.X), float64(k.Y)
	kLen := math.Hypot(kx, kz)
	if kLen < unitEpsilon {
		return 0
	}
	g := float64(p.Gravity)
	v := float64(p.WindSpeed)
	lw := v * v / g
	k2 := kLen * kLen
	along := (kx*float64(p.Wind.X) + kz*float64(p.Wind.Y)) / kLen

	ph := float64(p.Amplitude) * math.Exp(-1/(k2*lw*lw)) / (k2 * k2)
	if e := float64(p.Exponent); e > 0 {
		ph *= math.Pow(math.Max(math.Abs(along), 1e-9), e)
	}
	if along < 0 {
		ph *= float64(p.ReverseDamping)
	}
	l := lw * float64(p.Cutoff)
	return ph * math.Exp(-k2*l*l)
}

// dispersion returns ω(k), optionally finite-depth and loop-quantized.
func (p *spectrumParams) dispersion(k Vec2) float64 {
	kLen := math.Hypot(float64(k.X), float64(k.Y))
	g := float64(p.Gravity)
	w := math.Sqrt(g * kLen)
	if d := float64(p.Depth); d > 0 {
		w = math.Sqrt(g * kLen * math.Tanh(math.Min(kLen*d, 20)))
	}
	if t := float64(p.LoopPeriod); t > 0 {
		w0 := 2 * math.Pi / t
		w = math.Floor(w/w0) * w0
	}
	return w
}

// amplitude returns h0 for one cell: ξ·sqrt(P(k)/2)·Δk.
func (p *spectrumParams) amplitude(cell uint32, k Vec2, key uint32) complex64 {
	gr, gi := gaussian(cell, key)
	s := math.Sqrt(p.phillips(k)*0.5) * float64(p.DeltaK)
	return complex(float32(gr*s), float32(gi*s))
}
