// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package logx

import (
	"context"
	"log/slog"
	"testing"
)

func TestNopHandler_Enabled(t *testing.T) {
	h := NopHandler{}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if h.Enabled(context.Background(), level) {
			t.Errorf("NopHandler.Enabled(%v) = true, want false", level)
		}
	}
}

func TestNopHandler_Handle(t *testing.T) {
	if err := (NopHandler{}).Handle(context.Background(), slog.Record{}); err != nil {
		t.Errorf("NopHandler.Handle() = %v, want nil", err)
	}
}

func TestNopHandler_WithAttrsAndGroup(t *testing.T) {
	h := NopHandler{}
	if _, ok := h.WithAttrs([]slog.Attr{slog.String("key", "val")}).(NopHandler); !ok {
		t.Error("WithAttrs() did not return NopHandler")
	}
	if _, ok := h.WithGroup("group").(NopHandler); !ok {
		t.Error("WithGroup() did not return NopHandler")
	}
}

func TestSetNil(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { Set(orig) })

	Set(slog.Default())
	Set(nil)
	l := Logger()
	if l == nil {
		t.Fatal("Set(nil) stored a nil logger")
	}
	if l.Enabled(context.Background(), slog.LevelError) {
		t.Error("Set(nil) should produce a disabled logger")
	}
}
