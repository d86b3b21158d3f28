// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ocean

import (
	"errors"
	"math"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
	if cfg.TileSize != 512 || cfg.TileLength != 1000 {
		t.Errorf("default tile = %d cells over %v, want 512 over 1000", cfg.TileSize, cfg.TileLength)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"size one", func(c *Config) { c.TileSize = 1 }, nil},
		{"size 1024", func(c *Config) { c.TileSize = 1024 }, nil},
		{"size 100", func(c *Config) { c.TileSize = 100 }, ErrInvalidTileSize},
		{"NaN length", func(c *Config) { c.TileLength = math.NaN() }, ErrInvalidTileLength},
		{"negative length", func(c *Config) { c.TileLength = -5 }, ErrInvalidTileLength},
		{"zero wind speed", func(c *Config) { c.WindSpeed = 0 }, ErrInvalidConfig},
		{"negative amplitude", func(c *Config) { c.Amplitude = -1 }, ErrInvalidConfig},
		{"zero amplitude", func(c *Config) { c.Amplitude = 0 }, nil},
		{"negative choppiness", func(c *Config) { c.Choppiness = -0.1 }, ErrInvalidConfig},
		{"negative loop period", func(c *Config) { c.LoopPeriod = -1 }, ErrInvalidConfig},
		{"NaN wind direction", func(c *Config) { c.WindDirection = [2]float64{math.NaN(), 1} }, ErrInvalidConfig},
		{"full reverse damping", func(c *Config) { c.ReverseDamping = 1 }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestWindUnit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WindDirection = [2]float64{0, -7}
	if got := cfg.windUnit(); got != (Vec2{X: 0, Y: -1}) {
		t.Errorf("windUnit() = %v, want (0, -1)", got)
	}
}
