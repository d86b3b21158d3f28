// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gogpu/ocean"
	"github.com/gogpu/ocean/fft/hostfft"
	"github.com/gogpu/ocean/fft/stockham"
	"github.com/gogpu/ocean/gpucore"
)

func TestCompileOceanShaders(t *testing.T) {
	sources := ocean.Shaders()
	sources["stockham"] = stockham.Shader()

	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			words, err := CompileWGSL(src)
			if err != nil {
				skipOnNagaLimitation(t, err)
				t.Fatalf("CompileWGSL(%s) = %v", name, err)
			}
			if len(words) < 5 {
				t.Fatalf("SPIR-V output too short: %d words", len(words))
			}
			if words[0] != 0x07230203 {
				t.Errorf("invalid SPIR-V magic: 0x%08X", words[0])
			}
		})
	}
}

func TestTileOnHALDevice(t *testing.T) {
	a := newNoopAdapter(t)

	cfg := ocean.DefaultConfig()
	cfg.TileSize = 16
	cfg.TileLength = 50
	tile, err := ocean.NewTile(a, stockham.New(), cfg)
	if err != nil {
		t.Fatalf("NewTile() = %v", err)
	}
	defer tile.Destroy()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := tile.Initialize(ctx); err != nil {
		skipOnNagaLimitation(t, err)
		t.Fatalf("Initialize() = %v", err)
	}

	for frame := range 3 {
		enc, err := a.CreateCommandEncoder("frame")
		if err != nil {
			t.Fatalf("CreateCommandEncoder() = %v", err)
		}
		tile.RecordComputeWaves(enc, float32(frame)/60)
		cb, err := enc.Finish()
		if err != nil {
			t.Fatalf("frame %d: Finish() = %v", frame, err)
		}
		idx, err := a.Submit(cb)
		if err != nil {
			t.Fatalf("frame %d: Submit() = %v", frame, err)
		}
		if err := a.Wait(ctx, idx); err != nil {
			t.Fatalf("frame %d: Wait() = %v", frame, err)
		}
	}

	field, err := tile.ReadField(ctx)
	if err != nil {
		t.Fatalf("ReadField() = %v", err)
	}
	if len(field.Cells) != cfg.TileSize*cfg.TileSize {
		t.Errorf("ReadField() returned %d cells", len(field.Cells))
	}
}

func TestHostFFTRejectedOnHALDevice(t *testing.T) {
	a := newNoopAdapter(t)

	cfg := ocean.DefaultConfig()
	cfg.TileSize = 8
	tile, err := ocean.NewTile(a, hostfft.New(), cfg)
	if err != nil {
		t.Fatalf("NewTile() = %v", err)
	}
	defer tile.Destroy()

	err = tile.Initialize(context.Background())
	if err == nil {
		t.Fatal("Initialize() succeeded with a host-only FFT on a device adapter")
	}
	skipOnNagaLimitation(t, err)
	if !errors.Is(err, gpucore.ErrWGSLMissing) {
		t.Errorf("Initialize() = %v, want ErrWGSLMissing", err)
	}
}
