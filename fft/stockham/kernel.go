// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package stockham

import (
	"math"

	"github.com/gogpu/ocean/gpucore"
)

// passKernel is the host implementation of main in stockham.wgsl.
var passKernel = gpucore.HostKernel{
	WorkgroupSize: workgroupSize,
	Prepare: func(b *gpucore.HostBindings) func([3]uint32) {
		src := gpucore.ViewAs[complex64](b.Buffer(0, 0))
		dst := gpucore.ViewAs[complex64](b.Buffer(0, 1))
		n := b.Uint32(0)
		ns := b.Uint32(4)
		axis := b.Uint32(8)
		batch := b.Uint32(12)
		half := n / 2

		element := func(channel, line, e uint32) uint32 {
			base := channel * n * n
			if axis == axisRows {
				return base + line*n + e
			}
			return base + e*n + line
		}

		return func(id [3]uint32) {
			j, line, channel := id[0], id[1], id[2]
			if j >= half || line >= n || channel >= batch {
				return
			}
			k := j % ns

			v0 := src[element(channel, line, j)]
			angle := float32(2*math.Pi) * float32(k) / float32(2*ns)
			w := complex(float32(math.Cos(float64(angle))), float32(math.Sin(float64(angle))))
			v1 := src[element(channel, line, j+half)] * w

			out := (j/ns)*ns*2 + k
			dst[element(channel, line, out)] = v0 + v1
			dst[element(channel, line, out+ns)] = v0 - v1
		}
	},
}
