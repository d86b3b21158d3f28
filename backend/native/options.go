// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

// Option configures a HALAdapter.
type Option func(*options)

type options struct {
	validate bool
}

func defaultOptions() options {
	return options{validate: true}
}

// WithHazardValidation enables or disables barrier validation at record
// time. Validation is on by default.
func WithHazardValidation(enabled bool) Option {
	return func(o *options) { o.validate = enabled }
}
