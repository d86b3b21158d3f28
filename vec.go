// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ocean

import "math"

// Vec2 mirrors WGSL vec2<f32>.
type Vec2 struct {
	X, Y float32
}

// Length returns the length (magnitude) of the vector.
func (v Vec2) Length() float32 {
	return float32(math.Hypot(float64(v.X), float64(v.Y)))
}

// Vec3 is a 3D vector used for host-side geometry.
type Vec3 struct {
	X, Y, Z float32
}

// Normalize returns the unit vector in the direction of v.
// Returns the zero vector if v has zero length.
func (v Vec3) Normalize() Vec3 {
	l := math.Sqrt(float64(v.X)*float64(v.X) + float64(v.Y)*float64(v.Y) + float64(v.Z)*float64(v.Z))
	if l == 0 {
		return Vec3{}
	}
	return Vec3{X: float32(float64(v.X) / l), Y: float32(float64(v.Y) / l), Z: float32(float64(v.Z) / l)}
}

// Vec4 mirrors WGSL vec4<f32>.
type Vec4 struct {
	X, Y, Z, W float32
}

// XYZ drops the W component.
func (v Vec4) XYZ() Vec3 {
	return Vec3{X: v.X, Y: v.Y, Z: v.Z}
}

func lerp4(a, b Vec4, t float32) Vec4 {
	s := 1 - t
	return Vec4{
		X: a.X*s + b.X*t,
		Y: a.Y*s + b.Y*t,
		Z: a.Z*s + b.Z*t,
		W: a.W*s + b.W*t,
	}
}
