// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package logx holds the logger shared by the ocean packages.
//
// The root package exposes SetLogger and Logger; adapters and FFT backends
// log through this package so they do not import the root package.
package logx

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// NopHandler silently discards all log records. Enabled reports false so
// callers skip message formatting entirely.
type NopHandler struct{}

func (NopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (NopHandler) Handle(context.Context, slog.Record) error { return nil }
func (NopHandler) WithAttrs([]slog.Attr) slog.Handler        { return NopHandler{} }
func (NopHandler) WithGroup(string) slog.Handler             { return NopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(NopHandler{}))
}

// Logger returns the current logger.
func Logger() *slog.Logger { return loggerPtr.Load() }

// Set stores l as the current logger. A nil logger restores silence.
func Set(l *slog.Logger) {
	if l == nil {
		l = slog.New(NopHandler{})
	}
	loggerPtr.Store(l)
}
