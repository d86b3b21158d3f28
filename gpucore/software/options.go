// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

// Option configures an Adapter.
type Option func(*options)

type options struct {
	workers       int
	validate      bool
	maxBufferSize uint64
	queueDepth    int
}

func defaultOptions() options {
	return options{
		validate:      true,
		maxBufferSize: 1 << 30,
		queueDepth:    64,
	}
}

// WithWorkers sets the number of worker goroutines executing dispatches.
// Zero or negative uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithHazardValidation enables or disables barrier validation at record time.
func WithHazardValidation(enabled bool) Option {
	return func(o *options) { o.validate = enabled }
}

// WithMaxBufferSize sets the largest buffer CreateBuffer accepts.
func WithMaxBufferSize(size uint64) Option {
	return func(o *options) {
		if size > 0 {
			o.maxBufferSize = size
		}
	}
}
