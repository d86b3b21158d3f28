// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/gogpu/ocean"
	"github.com/gogpu/ocean/gpucore"
	"github.com/gogpu/ocean/internal/preview"
)

const (
	minSpeed  = 0.25
	maxSpeed  = 8
	frameWait = 5 * time.Second
)

type viewMode int

const (
	viewShaded viewMode = iota
	viewNormal
	viewHeight
	viewCount
)

func (m viewMode) String() string {
	switch m {
	case viewShaded:
		return "shaded"
	case viewNormal:
		return "normal"
	case viewHeight:
		return "height"
	}
	return "unknown"
}

// Game animates one tile. Every tick computes a frame synchronously on the
// adapter and converts it to screen pixels.
type Game struct {
	adapter gpucore.GPUAdapter
	tile    *ocean.Tile
	size    int

	simTime  float64
	speed    float64
	paused   bool
	mode     viewMode
	debug    bool
	lastStep time.Duration

	field  *ocean.Field
	pixels []byte
}

func newGame(adapter gpucore.GPUAdapter, tile *ocean.Tile, debug bool) *Game {
	n := tile.Config().TileSize
	return &Game{
		adapter: adapter,
		tile:    tile,
		size:    n,
		speed:   1,
		debug:   debug,
		pixels:  make([]byte, 4*n*n),
	}
}

// Update advances simulation time and recomputes the surface.
func (g *Game) Update() error {
	g.handleControls()
	if g.paused && g.field != nil {
		return nil
	}
	if !g.paused {
		g.simTime += g.speed / float64(ebiten.TPS())
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), frameWait)
	field, err := preview.Compute(ctx, g.adapter, g.tile, float32(g.simTime))
	cancel()
	if err != nil {
		return err
	}
	g.lastStep = time.Since(start)
	g.field = field
	g.refreshPixels()
	return nil
}

func (g *Game) handleControls() {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		g.mode = (g.mode + 1) % viewCount
		if g.field != nil {
			g.refreshPixels()
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) || inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract) {
		g.speed = max(minSpeed, g.speed/2)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) || inpututil.IsKeyJustPressed(ebiten.KeyKPAdd) {
		g.speed = min(maxSpeed, g.speed*2)
	}
}

// refreshPixels converts the current field for the active view.
func (g *Game) refreshPixels() {
	switch g.mode {
	case viewNormal:
		copy(g.pixels, preview.NormalMap(g.field).Pix)
	case viewHeight:
		gray := preview.Heightmap(g.field)
		for i := range g.size * g.size {
			v := gray.Pix[2*i] // high byte
			o := 4 * i
			g.pixels[o], g.pixels[o+1], g.pixels[o+2], g.pixels[o+3] = v, v, v, 0xff
		}
	default:
		preview.ShadeInto(g.field, preview.DefaultFoamThreshold, g.pixels)
	}
}

// Draw renders the current surface and the optional overlay.
func (g *Game) Draw(screen *ebiten.Image) {
	if g.field != nil {
		screen.WritePixels(g.pixels)
	}
	if g.debug {
		msg := fmt.Sprintf("t: %.2fs (x%.2g)\nview: %s\nstep: %.1f ms\nFPS: %.1f",
			g.simTime, g.speed, g.mode, g.lastStep.Seconds()*1000, ebiten.ActualFPS())
		if g.field != nil {
			lo, hi := g.field.HeightRange()
			msg += fmt.Sprintf("\nheight: %.2f..%.2f m\nfoam: %.1f%%", lo, hi, 100*g.field.FoamFraction(0))
		}
		if g.paused {
			msg += "\npaused"
		}
		ebitenutil.DebugPrint(screen, msg)
	}
}

// Layout reports the logical screen size: one pixel per cell.
func (g *Game) Layout(_, _ int) (int, int) { return g.size, g.size }
