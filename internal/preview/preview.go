// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package preview computes ocean frames and turns fields into images for
// the command-line tools.
package preview

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/ocean"
	"github.com/gogpu/ocean/fft/hostfft"
	"github.com/gogpu/ocean/fft/stockham"
	"github.com/gogpu/ocean/gpucore"
)

// DefaultFoamThreshold is the Jacobian below which Shaded starts mixing in foam.
const DefaultFoamThreshold = 0.4

var (
	deepColor    = [3]float64{0.01, 0.08, 0.16}
	shallowColor = [3]float64{0.06, 0.32, 0.42}
	foamColor    = [3]float64{0.92, 0.95, 0.97}
	sunDir       = normalize3(0.35, 0.85, 0.4)
)

// Compute records one update at time t, submits it and waits for the result.
func Compute(ctx context.Context, a gpucore.GPUAdapter, tile *ocean.Tile, t float32) (*ocean.Field, error) {
	enc, err := a.CreateCommandEncoder("preview_frame")
	if err != nil {
		return nil, fmt.Errorf("preview: create encoder: %w", err)
	}
	tile.RecordComputeWaves(enc, t)
	cb, err := enc.Finish()
	if err != nil {
		return nil, fmt.Errorf("preview: record frame: %w", err)
	}
	idx, err := a.Submit(cb)
	if err != nil {
		return nil, fmt.Errorf("preview: submit frame: %w", err)
	}
	if err := a.Wait(ctx, idx); err != nil {
		return nil, fmt.Errorf("preview: wait frame: %w", err)
	}
	return tile.ReadField(ctx)
}

// Heightmap maps vertical displacement onto 16-bit gray, lowest cell black
// and highest white. A flat field is mid-gray.
func Heightmap(f *ocean.Field) *image.Gray16 {
	n := f.Size
	img := image.NewGray16(image.Rect(0, 0, n, n))
	lo, hi := f.HeightRange()
	span := float64(hi - lo)
	for y := range n {
		for x := range n {
			v := 0.5
			if span > 0 {
				v = float64(f.At(x, y).Displacement.Y-lo) / span
			}
			img.SetGray16(x, y, color.Gray16{Y: uint16(math.Round(clamp01(v) * 0xffff))})
		}
	}
	return img
}

// NormalMap encodes normals as RGB = n·0.5 + 0.5 with opaque alpha.
func NormalMap(f *ocean.Field) *image.NRGBA {
	n := f.Size
	img := image.NewNRGBA(image.Rect(0, 0, n, n))
	for y := range n {
		for x := range n {
			nrm := f.At(x, y).Normal
			img.SetNRGBA(x, y, color.NRGBA{
				R: unorm8(float64(nrm.X)*0.5 + 0.5),
				G: unorm8(float64(nrm.Y)*0.5 + 0.5),
				B: unorm8(float64(nrm.Z)*0.5 + 0.5),
				A: 0xff,
			})
		}
	}
	return img
}

// Shaded lights the surface with a fixed sun, tints it by height and mixes
// in foam where the Jacobian drops below foam.
func Shaded(f *ocean.Field, foam float32) *image.RGBA {
	n := f.Size
	img := image.NewRGBA(image.Rect(0, 0, n, n))
	ShadeInto(f, foam, img.Pix)
	return img
}

// ShadeInto writes the shaded field as RGBA bytes into pix, which must hold
// at least 4·N² bytes.
func ShadeInto(f *ocean.Field, foam float32, pix []byte) {
	n := f.Size
	lo, hi := f.HeightRange()
	span := float64(hi - lo)
	for y := range n {
		for x := range n {
			c := f.At(x, y)
			h := 0.5
			if span > 0 {
				h = float64(c.Displacement.Y-lo) / span
			}
			nx, ny, nz := float64(c.Normal.X), float64(c.Normal.Y), float64(c.Normal.Z)
			diffuse := max(0, nx*sunDir[0]+ny*sunDir[1]+nz*sunDir[2])
			light := 0.35 + 0.65*diffuse

			amount := 0.0
			if foam > 0 {
				amount = clamp01(float64(foam-c.Normal.W) / float64(foam))
			}

			o := 4 * (y*n + x)
			for i := range 3 {
				water := (deepColor[i] + (shallowColor[i]-deepColor[i])*h) * light
				pix[o+i] = unorm8(water + (foamColor[i]-water)*amount)
			}
			pix[o+3] = 0xff
		}
	}
}

// Scale resamples src to size×size with Catmull-Rom filtering.
func Scale(src image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

func clamp01(v float64) float64 {
	return min(1, max(0, v))
}

func unorm8(v float64) uint8 {
	return uint8(math.Round(clamp01(v) * 0xff))
}

func normalize3(x, y, z float64) [3]float64 {
	l := math.Sqrt(x*x + y*y + z*z)
	return [3]float64{x / l, y / l, z / l}
}

// NewFFT returns the inverse FFT backend called name: "stockham" or "hostfft".
func NewFFT(name string) (ocean.InverseFFT, error) {
	switch name {
	case "stockham", "":
		return stockham.New(), nil
	case "hostfft":
		return hostfft.New(), nil
	default:
		return nil, fmt.Errorf("preview: unknown FFT backend %q (want stockham or hostfft)", name)
	}
}
