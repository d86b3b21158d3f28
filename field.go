// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ocean

import "math"

// Field is a host copy of a tile's output.
//
// Cell (x, y) is the surface point at world position (x·L/N, y·L/N) before
// displacement. The field is periodic: cell N wraps to cell 0, so adjacent
// tiles abut without seams.
type Field struct {
	// Size is N.
	Size int

	// Length is the world-space side length L.
	Length float64

	// Cells holds N² entries, row-major.
	Cells []DisplacementNormal
}

// At returns cell (x, y), wrapping both coordinates into [0, N).
func (f *Field) At(x, y int) DisplacementNormal {
	return f.Cells[wrapIndex(y, f.Size)*f.Size+wrapIndex(x, f.Size)]
}

// Sample bilinearly interpolates the field at normalized tile coordinates
// (u, v). Coordinates wrap modulo 1, so Sample(0, 0) and Sample(1, 1) are the
// same point. The interpolated normal is renormalized; its W (Jacobian) is
// interpolated linearly.
func (f *Field) Sample(u, v float64) DisplacementNormal {
	n := f.Size
	su := wrapUnit(u) * float64(n)
	sv := wrapUnit(v) * float64(n)
	x0, y0 := int(math.Floor(su)), int(math.Floor(sv))
	fx, fy := float32(su-float64(x0)), float32(sv-float64(y0))

	c00, c10 := f.At(x0, y0), f.At(x0+1, y0)
	c01, c11 := f.At(x0, y0+1), f.At(x0+1, y0+1)

	d := lerp4(lerp4(c00.Displacement, c10.Displacement, fx), lerp4(c01.Displacement, c11.Displacement, fx), fy)
	nrm := lerp4(lerp4(c00.Normal, c10.Normal, fx), lerp4(c01.Normal, c11.Normal, fx), fy)
	unit := nrm.XYZ().Normalize()
	return DisplacementNormal{
		Displacement: d,
		Normal:       Vec4{X: unit.X, Y: unit.Y, Z: unit.Z, W: nrm.W},
	}
}

// HeightRange returns the smallest and largest vertical displacement.
func (f *Field) HeightRange() (lo, hi float32) {
	if len(f.Cells) == 0 {
		return 0, 0
	}
	lo, hi = f.Cells[0].Displacement.Y, f.Cells[0].Displacement.Y
	for _, c := range f.Cells[1:] {
		lo = min(lo, c.Displacement.Y)
		hi = max(hi, c.Displacement.Y)
	}
	return lo, hi
}

// FoamFraction returns the fraction of cells whose Jacobian is below
// threshold. A threshold of 0 counts folded (overturning) cells.
func (f *Field) FoamFraction(threshold float32) float64 {
	if len(f.Cells) == 0 {
		return 0
	}
	var folded int
	for _, c := range f.Cells {
		if c.Normal.W < threshold {
			folded++
		}
	}
	return float64(folded) / float64(len(f.Cells))
}

func wrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

func wrapUnit(u float64) float64 {
	u -= math.Floor(u)
	if u >= 1 {
		u = 0
	}
	return u
}
