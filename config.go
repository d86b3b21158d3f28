// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ocean

import (
	"fmt"
	"math"
)

// Default configuration values.
const (
	DefaultTileSize            = 512
	DefaultTileLength          = 1000.0
	DefaultGravity             = 9.81
	DefaultWindSpeed           = 31.0
	DefaultAmplitude           = 2e-4
	DefaultChoppiness          = 1.3
	DefaultSmallWaveCutoff     = 0.001
	DefaultDirectionalExponent = 2.0
	DefaultReverseDamping      = 0.07
	DefaultSeed                = 0x5eed
)

// Config contains the fixed parameters of an ocean tile.
//
// A Config is copied into the tile by NewTile; changing it afterwards has no
// effect. Start from DefaultConfig and override fields.
type Config struct {
	// TileSize is the grid resolution N (cells per side). Must be a power of two.
	TileSize int

	// TileLength is the world-space side length L of the tile.
	TileLength float64

	// Gravity is the gravitational acceleration used by the dispersion
	// relation and the Phillips spectrum.
	Gravity float64

	// WindSpeed is the wind speed V. The largest waves have length V²/g.
	WindSpeed float64

	// WindDirection is the horizontal wind direction (x, z). It is normalized
	// internally and must not be zero.
	WindDirection [2]float64

	// Amplitude is the Phillips spectrum constant A. Zero produces a flat sea.
	Amplitude float64

	// Choppiness is the horizontal displacement scale λ.
	Choppiness float64

	// SmallWaveCutoff suppresses waves shorter than SmallWaveCutoff·V²/g.
	SmallWaveCutoff float64

	// DirectionalExponent is the power of |k̂·ŵ| in the spectrum.
	DirectionalExponent float64

	// ReverseDamping scales waves travelling against the wind, in [0, 1].
	ReverseDamping float64

	// Seed selects the random phases of the base spectrum.
	Seed uint64

	// Depth is the water depth for finite-depth dispersion. Zero means deep water.
	Depth float64

	// LoopPeriod quantizes frequencies to multiples of 2π/LoopPeriod so the
	// animation repeats exactly every LoopPeriod seconds. Zero disables looping.
	LoopPeriod float64
}

// DefaultConfig returns the default tile configuration.
func DefaultConfig() Config {
	return Config{
		TileSize:            DefaultTileSize,
		TileLength:          DefaultTileLength,
		Gravity:             DefaultGravity,
		WindSpeed:           DefaultWindSpeed,
		WindDirection:       [2]float64{1, 0},
		Amplitude:           DefaultAmplitude,
		Choppiness:          DefaultChoppiness,
		SmallWaveCutoff:     DefaultSmallWaveCutoff,
		DirectionalExponent: DefaultDirectionalExponent,
		ReverseDamping:      DefaultReverseDamping,
		Seed:                DefaultSeed,
	}
}

// Validate checks the configuration.
// It returns an error wrapping ErrInvalidTileSize, ErrInvalidTileLength or
// ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.TileSize <= 0 || c.TileSize&(c.TileSize-1) != 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTileSize, c.TileSize)
	}
	if !(c.TileLength > 0) || math.IsInf(c.TileLength, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidTileLength, c.TileLength)
	}

	positive := []struct {
		name  string
		value float64
	}{
		{"gravity", c.Gravity},
		{"wind speed", c.WindSpeed},
	}
	for _, p := range positive {
		if !(p.value > 0) || math.IsInf(p.value, 0) {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidConfig, p.name, p.value)
		}
	}

	nonNegative := []struct {
		name  string
		value float64
	}{
		{"amplitude", c.Amplitude},
		{"choppiness", c.Choppiness},
		{"small wave cutoff", c.SmallWaveCutoff},
		{"directional exponent", c.DirectionalExponent},
		{"depth", c.Depth},
		{"loop period", c.LoopPeriod},
	}
	for _, p := range nonNegative {
		if !(p.value >= 0) || math.IsInf(p.value, 0) {
			return fmt.Errorf("%w: %s must be non-negative, got %v", ErrInvalidConfig, p.name, p.value)
		}
	}

	if !(c.ReverseDamping >= 0 && c.ReverseDamping <= 1) {
		return fmt.Errorf("%w: reverse damping must be in [0, 1], got %v", ErrInvalidConfig, c.ReverseDamping)
	}
	if l := math.Hypot(c.WindDirection[0], c.WindDirection[1]); !(l > 0) || math.IsInf(l, 0) {
		return fmt.Errorf("%w: wind direction %v must be a non-zero vector", ErrInvalidConfig, c.WindDirection)
	}
	return nil
}

// windUnit returns the normalized wind direction.
func (c *Config) windUnit() Vec2 {
	l := math.Hypot(c.WindDirection[0], c.WindDirection[1])
	return Vec2{X: float32(c.WindDirection[0] / l), Y: float32(c.WindDirection[1] / l)}
}

// cellCount returns N².
func (c *Config) cellCount() int {
	return c.TileSize * c.TileSize
}
