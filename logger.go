// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ocean

import (
	"log/slog"

	"github.com/gogpu/ocean/internal/logx"
)

// SetLogger configures the logger for ocean and all its sub-packages.
// By default, ocean produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by ocean:
//   - [slog.LevelDebug]: internal diagnostics (pipeline creation, buffer sizes, dispatch sizes)
//   - [slog.LevelInfo]: lifecycle events (tile initialized, device opened)
//   - [slog.LevelWarn]: non-fatal issues (resource release errors)
//
// Example:
//
//	ocean.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logx.Set(l)
}

// Logger returns the current logger used by ocean.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logx.Logger()
}
