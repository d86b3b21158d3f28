// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ocean

import (
	"math"
	"testing"
)

func TestVec2Length(t *testing.T) {
	tests := []struct {
		name string
		v    Vec2
		want float32
	}{
		{"zero", Vec2{}, 0},
		{"3-4-5", Vec2{X: 3, Y: 4}, 5},
		{"negative", Vec2{X: -6, Y: -8}, 10},
		{"axis", Vec2{Y: 2.5}, 2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Length(); got != tt.want {
				t.Errorf("%v.Length() = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestVec3Normalize(t *testing.T) {
	tests := []struct {
		name string
		v    Vec3
		want Vec3
	}{
		{"zero", Vec3{}, Vec3{}},
		{"up", Vec3{Y: 7}, Vec3{Y: 1}},
		{"diagonal", Vec3{X: 2, Y: 2, Z: 1}, Vec3{X: 2.0 / 3, Y: 2.0 / 3, Z: 1.0 / 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.v.Normalize()
			if math.Abs(float64(got.X-tt.want.X)) > 1e-6 ||
				math.Abs(float64(got.Y-tt.want.Y)) > 1e-6 ||
				math.Abs(float64(got.Z-tt.want.Z)) > 1e-6 {
				t.Errorf("%v.Normalize() = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestLerp4(t *testing.T) {
	a := Vec4{X: 0, Y: 1, Z: 2, W: -1}
	b := Vec4{X: 4, Y: 1, Z: -2, W: 1}
	tests := []struct {
		t    float32
		want Vec4
	}{
		{0, a},
		{1, b},
		{0.25, Vec4{X: 1, Y: 1, Z: 1, W: -0.5}},
	}
	for _, tt := range tests {
		if got := lerp4(a, b, tt.t); got != tt.want {
			t.Errorf("lerp4(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
	if got := a.XYZ(); got != (Vec3{X: 0, Y: 1, Z: 2}) {
		t.Errorf("XYZ() = %v", got)
	}
}
