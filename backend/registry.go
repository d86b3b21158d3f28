// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/ocean/gpucore"
	"github.com/gogpu/ocean/gpucore/software"
	"github.com/gogpu/ocean/internal/logx"
)

// Backend names.
const (
	// Software is the CPU adapter in gpucore/software.
	Software = "software"
	// Native is the HAL device adapter in backend/native.
	Native = "native"
)

// ErrBackendNotAvailable is returned when a requested backend is not
// registered or no registered backend could be opened.
var ErrBackendNotAvailable = errors.New("backend: not available")

// Factory opens a new adapter.
type Factory func() (gpucore.GPUAdapter, error)

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
	// Priority order for backend selection (first that opens wins).
	priority = []string{Native, Software}
)

func init() {
	Register(Software, func() (gpucore.GPUAdapter, error) {
		return software.New(), nil
	})
}

// Register registers a factory under name, replacing any previous one.
// This is typically called from init() functions in backend packages.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the registered backend names, sorted.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Open opens the named backend.
func Open(name string) (gpucore.GPUAdapter, error) {
	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	a, err := factory()
	if err != nil {
		return nil, fmt.Errorf("backend: open %q: %w", name, err)
	}
	return a, nil
}

// OpenDefault opens the first backend in priority order that succeeds,
// then any other registered backend. Failures are logged and skipped.
func OpenDefault() (gpucore.GPUAdapter, error) {
	names := Available()
	slices.SortStableFunc(names, func(a, b string) int {
		return rank(a) - rank(b)
	})

	var errs []error
	for _, name := range names {
		a, err := Open(name)
		if err == nil {
			logx.Logger().Debug("backend: selected", "name", name, "adapter", a.Name())
			return a, nil
		}
		logx.Logger().Info("backend: unavailable, trying next", "name", name, "err", err)
		errs = append(errs, err)
	}
	return nil, errors.Join(append([]error{ErrBackendNotAvailable}, errs...)...)
}

// rank orders names by priority; unknown names sort last.
func rank(name string) int {
	if i := slices.Index(priority, name); i >= 0 {
		return i
	}
	return len(priority)
}
