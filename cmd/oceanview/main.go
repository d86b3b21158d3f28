// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command oceanview animates an ocean tile in a window.
//
// Keys: Space pauses, M cycles shaded/normal/height views, +/- change the
// playback speed.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gogpu/ocean"
	"github.com/gogpu/ocean/gpucore/software"
	"github.com/gogpu/ocean/internal/preview"
)

func main() {
	def := ocean.DefaultConfig()
	var (
		size       = flag.Int("size", 128, "grid resolution (power of two)")
		length     = flag.Float64("length", 200, "tile side length in meters")
		wind       = flag.Float64("wind", 12, "wind speed in m/s")
		amplitude  = flag.Float64("amplitude", 2e-3, "Phillips spectrum constant")
		choppiness = flag.Float64("choppiness", def.Choppiness, "horizontal displacement scale")
		loop       = flag.Float64("loop", 0, "loop period in seconds (0 = never repeats)")
		seed       = flag.Uint64("seed", def.Seed, "spectrum seed")
		fftArg     = flag.String("fft", "stockham", "inverse FFT: stockham or hostfft")
		workers    = flag.Int("workers", 0, "software adapter workers (0 = GOMAXPROCS)")
		scale      = flag.Int("scale", 4, "window scale factor")
		debug      = flag.Bool("debug", true, "show the debug overlay")
		verbose    = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	if *verbose {
		ocean.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg := def
	cfg.TileSize = *size
	cfg.TileLength = *length
	cfg.WindSpeed = *wind
	cfg.Amplitude = *amplitude
	cfg.Choppiness = *choppiness
	cfg.LoopPeriod = *loop
	cfg.Seed = *seed

	var opts []software.Option
	if *workers > 0 {
		opts = append(opts, software.WithWorkers(*workers))
	}
	adapter := software.New(opts...)
	defer adapter.Destroy()

	fft, err := preview.NewFFT(*fftArg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	tile, err := ocean.NewTile(adapter, fft, cfg)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	defer tile.Destroy()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = tile.Initialize(ctx)
	cancel()
	if err != nil {
		log.Fatalf("Failed to initialize tile: %v", err)
	}

	g := newGame(adapter, tile, *debug)
	ebiten.SetWindowSize(cfg.TileSize**scale, cfg.TileSize**scale)
	ebiten.SetWindowTitle("Ocean")
	if err := ebiten.RunGame(g); err != nil {
		log.Fatalf("Viewer stopped: %v", err)
	}
}
