// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package stockham

import (
	"context"
	"errors"
	"math"
	"math/cmplx"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/gogpu/naga"
	"github.com/mjibson/go-dsp/fft"

	"github.com/gogpu/ocean"
	"github.com/gogpu/ocean/gpucore"
	"github.com/gogpu/ocean/gpucore/software"
)

var _ ocean.InverseFFT = (*FFT)(nil)

func TestPlanPasses(t *testing.T) {
	tests := []struct {
		n      int
		passes int
	}{
		{1, 0},
		{2, 2},
		{4, 4},
		{64, 12},
		{512, 18},
	}
	for _, tt := range tests {
		p := planPasses(tt.n)
		if len(p) != tt.passes {
			t.Errorf("planPasses(%d) = %d passes, want %d", tt.n, len(p), tt.passes)
			continue
		}
		if len(p) == 0 {
			continue
		}
		if !p[0].toScratch || p[len(p)-1].toScratch {
			t.Errorf("planPasses(%d): first pass must write scratch and last must write the field", tt.n)
		}
		half := len(p) / 2
		for i, ps := range p {
			wantAxis := uint32(axisRows)
			if i >= half {
				wantAxis = axisColumns
			}
			if ps.axis != wantAxis {
				t.Errorf("planPasses(%d)[%d].axis = %d, want %d", tt.n, i, ps.axis, wantAxis)
			}
			if want := uint32(1) << (i % half); ps.ns != want {
				t.Errorf("planPasses(%d)[%d].ns = %d, want %d", tt.n, i, ps.ns, want)
			}
		}
	}
}

// referenceInverse returns the unnormalized inverse 2-D DFT of one channel.
func referenceInverse(data []complex64, n int) []complex128 {
	grid := make([][]complex128, n)
	for r := range n {
		grid[r] = make([]complex128, n)
		for c := range n {
			grid[r][c] = complex128(data[r*n+c])
		}
	}
	inv := fft.IFFT2(grid)
	out := make([]complex128, n*n)
	scale := complex(float64(n*n), 0)
	for r := range n {
		for c := range n {
			out[r*n+c] = inv[r][c] * scale
		}
	}
	return out
}

func runTransform(t *testing.T, a *software.Adapter, input []complex64, n, batch int) []complex64 {
	t.Helper()
	size := uint64(len(input) * complexSize)
	field, err := a.CreateBuffer("field", size, gpucore.BufferUsageStorage|gpucore.BufferUsageCopyDst|gpucore.BufferUsageCopySrc)
	if err != nil {
		t.Fatalf("CreateBuffer() = %v", err)
	}
	defer a.DestroyBuffer(field)
	if err := a.WriteBuffer(field, 0, gpucore.BytesOf(input)); err != nil {
		t.Fatalf("WriteBuffer() = %v", err)
	}

	f := New()
	if err := f.Setup(a, field, n, batch); err != nil {
		t.Fatalf("Setup() = %v", err)
	}
	defer f.Destroy()

	enc, err := a.CreateCommandEncoder("fft")
	if err != nil {
		t.Fatalf("CreateCommandEncoder() = %v", err)
	}
	f.Record(enc)
	cb, err := enc.Finish()
	if err != nil {
		t.Fatalf("Finish() = %v", err)
	}
	idx, err := a.Submit(cb)
	if err != nil {
		t.Fatalf("Submit() = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Wait(ctx, idx); err != nil {
		t.Fatalf("Wait() = %v", err)
	}
	raw, err := a.ReadBuffer(ctx, field, 0, size)
	if err != nil {
		t.Fatalf("ReadBuffer() = %v", err)
	}
	return append([]complex64(nil), gpucore.ViewAs[complex64](raw)...)
}

func TestInverseMatchesReference(t *testing.T) {
	a := software.New()
	defer a.Destroy()

	rng := rand.New(rand.NewPCG(1, 2))
	for _, tc := range []struct{ n, batch int }{{1, 1}, {2, 3}, {8, 2}, {32, 7}} {
		n, batch := tc.n, tc.batch
		input := make([]complex64, n*n*batch)
		for i := range input {
			input[i] = complex(float32(rng.NormFloat64()), float32(rng.NormFloat64()))
		}
		got := runTransform(t, a, append([]complex64(nil), input...), n, batch)

		tol := 1e-4 * float64(n*n)
		for ch := range batch {
			want := referenceInverse(input[ch*n*n:(ch+1)*n*n], n)
			for i, w := range want {
				g := complex128(got[ch*n*n+i])
				if cmplx.Abs(g-w) > tol {
					t.Fatalf("n=%d channel %d element %d = %v, want %v", n, ch, i, g, w)
				}
			}
		}
	}
}

func TestInverseOfSingleFrequency(t *testing.T) {
	const n = 16
	a := software.New()
	defer a.Destroy()

	// X[m0, n0] = 1 transforms to e^{+2πi(m0·r + n0·c)/N}.
	const m0, n0 = 3, 5
	input := make([]complex64, n*n)
	input[m0*n+n0] = 1
	got := runTransform(t, a, input, n, 1)

	for r := range n {
		for c := range n {
			phase := 2 * math.Pi * float64(m0*r+n0*c) / n
			want := cmplx.Exp(complex(0, phase))
			if d := cmplx.Abs(complex128(got[r*n+c]) - want); d > 1e-5 {
				t.Fatalf("x[%d,%d] = %v, want %v", r, c, got[r*n+c], want)
			}
		}
	}
}

func TestRecordTwiceInOneEncoder(t *testing.T) {
	const n = 8
	a := software.New()
	defer a.Destroy()

	field, _ := a.CreateBuffer("field", n*n*complexSize, gpucore.BufferUsageStorage)
	f := New()
	if err := f.Setup(a, field, n, 1); err != nil {
		t.Fatalf("Setup() = %v", err)
	}
	defer f.Destroy()

	enc, _ := a.CreateCommandEncoder("twice")
	f.Record(enc)
	f.Record(enc)
	if _, err := enc.Finish(); err != nil {
		t.Errorf("Finish() = %v, want no hazard between consecutive transforms", err)
	}
}

func TestSetupValidation(t *testing.T) {
	a := software.New()
	defer a.Destroy()
	field, _ := a.CreateBuffer("field", 64, gpucore.BufferUsageStorage)

	for _, tc := range []struct{ n, batch int }{{0, 1}, {3, 1}, {12, 1}, {4, 0}} {
		if err := New().Setup(a, field, tc.n, tc.batch); !errors.Is(err, ErrInvalidSize) {
			t.Errorf("Setup(n=%d, batch=%d) = %v, want ErrInvalidSize", tc.n, tc.batch, err)
		}
	}

	f := New()
	if err := f.Setup(a, field, 2, 1); err != nil {
		t.Fatalf("Setup() = %v", err)
	}
	if err := f.Setup(a, field, 2, 1); err == nil {
		t.Error("second Setup() succeeded")
	}
	f.Destroy()
	f.Destroy()
	if err := f.Setup(a, field, 2, 1); err != nil {
		t.Errorf("Setup() after Destroy = %v", err)
	}
	f.Destroy()
}

func TestShaderCompilation(t *testing.T) {
	spirv, err := naga.Compile(Shader())
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "not yet implemented") || strings.Contains(msg, "not supported") {
			t.Skipf("Skipping: naga limitation: %v", err)
		}
		t.Fatalf("naga.Compile() = %v", err)
	}
	if len(spirv) < 4 {
		t.Fatal("SPIR-V output too short")
	}
	magic := uint32(spirv[0]) | uint32(spirv[1])<<8 | uint32(spirv[2])<<16 | uint32(spirv[3])<<24
	if magic != 0x07230203 {
		t.Errorf("invalid SPIR-V magic: 0x%08X", magic)
	}
}
