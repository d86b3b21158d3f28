// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ocean

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/ocean/gpucore"
	"github.com/gogpu/ocean/internal/logx"
)

// initTimeout bounds Initialize when the context carries no deadline.
const initTimeout = 5 * time.Second

// OutputFormat describes the element layout of the output buffer.
type OutputFormat int

const (
	// FormatDisplacementNormalF32 is one DisplacementNormal (two vec4<f32>) per cell.
	FormatDisplacementNormalF32 OutputFormat = iota + 1
)

// OutputSurface describes the device buffer a renderer samples.
type OutputSurface struct {
	Buffer gpucore.BufferID
	Width  int
	Height int
	// Stride is the byte size of one cell.
	Stride int
	Format OutputFormat
	// Length is the world-space side length covered by the surface.
	Length float64
}

// Tile synthesizes one periodic square patch of ocean surface.
//
// A Tile records its per-update work into the host's command encoders and
// never submits on its own, except for the one-time spectrum generation in
// Initialize. All methods must be called from the goroutine that records
// commands.
type Tile struct {
	adapter gpucore.GPUAdapter
	fft     InverseFFT
	cfg     Config

	// Buffers
	params     gpucore.BufferID
	waves      gpucore.BufferID
	spectrum   gpucore.BufferID
	field      gpucore.BufferID
	output     gpucore.BufferID
	buffers    []gpucore.BufferID
	fftIsSetUp bool

	// Stages
	spectrumStage    *computeStage
	evolveStage      *computeStage
	reconstructStage *computeStage

	initialized bool
	destroyOnce sync.Once
	destroyed   bool
}

// NewTile validates cfg and returns an uninitialized tile. No GPU resources
// are allocated until Initialize.
func NewTile(adapter gpucore.GPUAdapter, fft InverseFFT, cfg Config) (*Tile, error) {
	if adapter == nil {
		return nil, ErrNilAdapter
	}
	if fft == nil {
		return nil, ErrNilFFT
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Tile{adapter: adapter, fft: fft, cfg: cfg}, nil
}

// Config returns the tile configuration.
func (t *Tile) Config() Config { return t.cfg }

// Initialized reports whether Initialize has completed.
func (t *Tile) Initialized() bool { return t.initialized }

// Initialize builds the wave-vector table and all GPU objects, sets up the
// FFT backend, and generates the base spectrum. It blocks until the spectrum
// dispatch has completed on the device.
//
// Any failure releases what was created and returns a wrapped error; the
// tile is then unusable until Initialize succeeds. Calling Initialize on an
// initialized tile is a no-op.
func (t *Tile) Initialize(ctx context.Context) (err error) {
	if t.destroyed {
		return ErrDestroyed
	}
	if t.initialized {
		return nil
	}
	defer func() {
		if err != nil {
			t.release()
		}
	}()

	n := t.cfg.TileSize
	cells := uint64(t.cfg.cellCount())
	fieldSize := cells * ChannelCount * uint64(complexSize)
	if fieldSize > t.adapter.MaxBufferSize() {
		return fmt.Errorf("ocean: tile size %d needs a %d byte field buffer, adapter limit is %d",
			n, fieldSize, t.adapter.MaxBufferSize())
	}

	table, err := NewWaveVectorTable(n, t.cfg.TileLength)
	if err != nil {
		return err
	}

	create := func(label string, size uint64, usage gpucore.BufferUsage) (gpucore.BufferID, error) {
		id, cerr := t.adapter.CreateBuffer(label, size, usage)
		if cerr != nil {
			return gpucore.InvalidID, fmt.Errorf("ocean: create %s buffer: %w", label, cerr)
		}
		t.buffers = append(t.buffers, id)
		return id, nil
	}
	if t.params, err = create("ocean_spectrum_params", spectrumParamsSize,
		gpucore.BufferUsageUniform|gpucore.BufferUsageCopyDst); err != nil {
		return err
	}
	if t.waves, err = create("ocean_wave_vectors", cells*uint64(waveVectorSize),
		gpucore.BufferUsageStorage|gpucore.BufferUsageCopyDst); err != nil {
		return err
	}
	if t.spectrum, err = create("ocean_spectrum", cells*uint64(amplitudeSize),
		gpucore.BufferUsageStorage|gpucore.BufferUsageCopySrc); err != nil {
		return err
	}
	if t.field, err = create("ocean_field", fieldSize,
		gpucore.BufferUsageStorage|gpucore.BufferUsageCopySrc); err != nil {
		return err
	}
	if t.output, err = create("ocean_output", cells*uint64(outputCellSize),
		gpucore.BufferUsageStorage|gpucore.BufferUsageVertex|gpucore.BufferUsageCopySrc); err != nil {
		return err
	}

	if err := t.adapter.WriteBuffer(t.params, 0, newSpectrumParams(&t.cfg).toBytes()); err != nil {
		return fmt.Errorf("ocean: upload spectrum parameters: %w", err)
	}
	if err := t.adapter.WriteBuffer(t.waves, 0, gpucore.BytesOf(table)); err != nil {
		return fmt.Errorf("ocean: upload wave vectors: %w", err)
	}

	if t.spectrumStage, err = newComputeStage(t.adapter, spectrumStageDesc(t.params, t.waves, t.spectrum)); err != nil {
		return fmt.Errorf("ocean: %w", err)
	}
	if t.evolveStage, err = newComputeStage(t.adapter, evolveStageDesc(t.spectrum, t.waves, t.field)); err != nil {
		return fmt.Errorf("ocean: %w", err)
	}
	if t.reconstructStage, err = newComputeStage(t.adapter, reconstructStageDesc(t.field, t.output)); err != nil {
		return fmt.Errorf("ocean: %w", err)
	}

	if err := t.fft.Setup(t.adapter, t.field, n, ChannelCount); err != nil {
		return fmt.Errorf("ocean: set up FFT backend: %w", err)
	}
	t.fftIsSetUp = true

	if err := t.generateSpectrum(ctx); err != nil {
		return err
	}

	t.initialized = true
	logx.Logger().Info("ocean: tile initialized",
		"adapter", t.adapter.Name(),
		"size", n,
		"length", t.cfg.TileLength,
		"field_bytes", fieldSize)
	return nil
}

// generateSpectrum records, submits and waits for the base spectrum dispatch.
func (t *Tile) generateSpectrum(ctx context.Context) error {
	enc, err := t.adapter.CreateCommandEncoder("ocean_initialize")
	if err != nil {
		return fmt.Errorf("ocean: create command encoder: %w", err)
	}
	t.spectrumStage.record(enc, t.cfg.TileSize, nil)
	enc.Barrier(gpucore.BufferBarrier{
		Buffer: t.spectrum,
		Src:    gpucore.AccessShaderReadWrite,
		Dst:    gpucore.AccessShaderRead,
	})
	cb, err := enc.Finish()
	if err != nil {
		return fmt.Errorf("ocean: record spectrum generation: %w", err)
	}

	idx, err := t.adapter.Submit(cb)
	if err != nil {
		return fmt.Errorf("ocean: submit spectrum generation: %w", err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, initTimeout)
		defer cancel()
	}
	if err := t.adapter.Wait(ctx, idx); err != nil {
		return fmt.Errorf("ocean: wait for spectrum generation: %w", err)
	}
	return nil
}

// RecordComputeWaves appends one surface update for time t (seconds) to enc:
// time evolution, a barrier, the inverse FFT, a barrier, reconstruction, and
// a final barrier making the output visible to vertex and shader reads.
// It never blocks and never submits.
//
// RecordComputeWaves panics with ErrNotInitialized if Initialize has not
// completed.
func (t *Tile) RecordComputeWaves(enc gpucore.CommandEncoder, time float32) {
	if !t.initialized {
		panic(ErrNotInitialized)
	}
	n := t.cfg.TileSize
	imm := waveParams{
		Time:       time,
		Choppiness: float32(t.cfg.Choppiness),
		N:          uint32(n),
		Stride:     uint32(t.cfg.cellCount()),
	}.toBytes()

	t.evolveStage.record(enc, n, imm)
	enc.Barrier(gpucore.BufferBarrier{
		Buffer: t.field,
		Src:    gpucore.AccessShaderReadWrite,
		Dst:    gpucore.AccessShaderReadWrite,
	})

	t.fft.Record(enc)
	enc.Barrier(gpucore.BufferBarrier{
		Buffer: t.field,
		Src:    gpucore.AccessShaderReadWrite,
		Dst:    gpucore.AccessShaderRead,
	})

	t.reconstructStage.record(enc, n, imm)
	enc.Barrier(
		gpucore.BufferBarrier{
			Buffer: t.output,
			Src:    gpucore.AccessShaderReadWrite,
			Dst:    gpucore.AccessShaderRead | gpucore.AccessVertexRead,
		},
		gpucore.BufferBarrier{
			Buffer: t.field,
			Src:    gpucore.AccessShaderRead,
			Dst:    gpucore.AccessShaderWrite,
		},
	)
}

// Output describes the output buffer. Valid after Initialize.
func (t *Tile) Output() OutputSurface {
	return OutputSurface{
		Buffer: t.output,
		Width:  t.cfg.TileSize,
		Height: t.cfg.TileSize,
		Stride: outputCellSize,
		Format: FormatDisplacementNormalF32,
		Length: t.cfg.TileLength,
	}
}

// ReadField copies the output buffer to the host after all submitted work
// has completed.
func (t *Tile) ReadField(ctx context.Context) (*Field, error) {
	if !t.initialized {
		return nil, ErrNotInitialized
	}
	size := uint64(t.cfg.cellCount() * outputCellSize)
	raw, err := t.adapter.ReadBuffer(ctx, t.output, 0, size)
	if err != nil {
		return nil, fmt.Errorf("ocean: read output: %w", err)
	}
	cells := make([]DisplacementNormal, t.cfg.cellCount())
	copy(gpucore.BytesOf(cells), raw)
	return &Field{Size: t.cfg.TileSize, Length: t.cfg.TileLength, Cells: cells}, nil
}

// Spectrum copies the base spectrum to the host.
func (t *Tile) Spectrum(ctx context.Context) ([]SpectrumAmplitude, error) {
	if !t.initialized {
		return nil, ErrNotInitialized
	}
	size := uint64(t.cfg.cellCount() * amplitudeSize)
	raw, err := t.adapter.ReadBuffer(ctx, t.spectrum, 0, size)
	if err != nil {
		return nil, fmt.Errorf("ocean: read spectrum: %w", err)
	}
	out := make([]SpectrumAmplitude, t.cfg.cellCount())
	copy(gpucore.BytesOf(out), raw)
	return out, nil
}

// release destroys every GPU object in reverse creation order.
func (t *Tile) release() {
	if t.fftIsSetUp {
		t.fft.Destroy()
		t.fftIsSetUp = false
	}
	for _, s := range []*computeStage{t.reconstructStage, t.evolveStage, t.spectrumStage} {
		if s != nil {
			s.destroy(t.adapter)
		}
	}
	t.reconstructStage, t.evolveStage, t.spectrumStage = nil, nil, nil
	for i := len(t.buffers) - 1; i >= 0; i-- {
		t.adapter.DestroyBuffer(t.buffers[i])
	}
	t.buffers = nil
	t.params, t.waves, t.spectrum, t.field, t.output = 0, 0, 0, 0, 0
	t.initialized = false
}

// Destroy releases all GPU resources. The caller must ensure no submitted
// work still uses the output. Destroy is safe to call multiple times.
func (t *Tile) Destroy() {
	t.destroyOnce.Do(func() {
		t.release()
		t.destroyed = true
		logx.Logger().Debug("ocean: tile destroyed")
	})
}
