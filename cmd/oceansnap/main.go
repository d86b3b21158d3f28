// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command oceansnap computes one frame of an ocean tile and writes it as a
// 16-bit TIFF heightmap, a PNG normal map and a shaded PNG preview.
package main

import (
	"context"
	"flag"
	"image"
	"image/png"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/tiff"

	"github.com/gogpu/ocean"
	"github.com/gogpu/ocean/backend"
	"github.com/gogpu/ocean/gpucore"
	"github.com/gogpu/ocean/internal/preview"

	_ "github.com/gogpu/ocean/backend/native"
)

func main() {
	def := ocean.DefaultConfig()
	var (
		size       = flag.Int("size", 256, "grid resolution (power of two)")
		length     = flag.Float64("length", def.TileLength, "tile side length in meters")
		wind       = flag.Float64("wind", def.WindSpeed, "wind speed in m/s")
		windX      = flag.Float64("wind-x", def.WindDirection[0], "wind direction x")
		windZ      = flag.Float64("wind-z", def.WindDirection[1], "wind direction z")
		amplitude  = flag.Float64("amplitude", def.Amplitude, "Phillips spectrum constant")
		choppiness = flag.Float64("choppiness", def.Choppiness, "horizontal displacement scale")
		depth      = flag.Float64("depth", 0, "water depth in meters (0 = deep water)")
		seed       = flag.Uint64("seed", def.Seed, "spectrum seed")
		at         = flag.Float64("time", 0, "simulation time in seconds")
		backendArg = flag.String("backend", "", "GPU backend (default: best available)")
		fftArg     = flag.String("fft", "stockham", "inverse FFT: stockham or hostfft")
		outDir     = flag.String("out", ".", "output directory")
		previewPx  = flag.Int("preview", 512, "shaded preview size in pixels (0 disables)")
		foam       = flag.Float64("foam", preview.DefaultFoamThreshold, "Jacobian foam threshold")
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
	cfg.WindDirection = [2]float64{*windX, *windZ}
	cfg.Amplitude = *amplitude
	cfg.Choppiness = *choppiness
	cfg.Depth = *depth
	cfg.Seed = *seed

	name := *backendArg
	if name == "" && *fftArg == "hostfft" {
		// hostfft runs only where host kernels execute.
		name = backend.Software
	}
	adapter, err := openAdapter(name)
	if err != nil {
		log.Fatalf("Failed to open backend: %v", err)
	}
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

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	start := time.Now()
	if err := tile.Initialize(ctx); err != nil {
		log.Fatalf("Failed to initialize tile: %v", err)
	}
	field, err := preview.Compute(ctx, adapter, tile, float32(*at))
	if err != nil {
		log.Fatalf("Failed to compute frame: %v", err)
	}
	lo, hi := field.HeightRange()
	log.Printf("Computed %dx%d tile on %s in %v (height %.3f..%.3f m, foam %.1f%%)",
		cfg.TileSize, cfg.TileSize, adapter.Name(), time.Since(start).Round(time.Millisecond),
		lo, hi, 100*field.FoamFraction(0))

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("Failed to create %s: %v", *outDir, err)
	}
	save(filepath.Join(*outDir, "height.tiff"), preview.Heightmap(field), writeTIFF)
	save(filepath.Join(*outDir, "normal.png"), preview.NormalMap(field), png.Encode)
	if *previewPx > 0 {
		shaded := preview.Shaded(field, float32(*foam))
		save(filepath.Join(*outDir, "preview.png"), preview.Scale(shaded, *previewPx), png.Encode)
	}
}

func openAdapter(name string) (gpucore.GPUAdapter, error) {
	if name == "" {
		return backend.OpenDefault()
	}
	return backend.Open(name)
}

func writeTIFF(w io.Writer, img image.Image) error {
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
}

func save(path string, img image.Image, encode func(io.Writer, image.Image) error) {
	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", path, err)
	}
	if err := encode(f, img); err != nil {
		_ = f.Close()
		log.Fatalf("Failed to encode %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("Failed to write %s: %v", path, err)
	}
	log.Printf("Saved %s", path)
}
