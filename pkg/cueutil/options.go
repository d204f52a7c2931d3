// SPDX-License-Identifier: MPL-2.0

package cueutil

// DefaultMaxFileSize is the default maximum input size accepted by
// ParseAndDecode. Inputs are fully materialized in memory during CUE
// compilation, so unbounded inputs could exhaust memory.
const DefaultMaxFileSize int64 = 1 << 20 // 1 MiB

// parseOptions holds the resolved configuration for a parse operation.
type parseOptions struct {
	// filename is used in error messages.
	filename string
	// maxFileSize caps the accepted input size in bytes.
	maxFileSize int64
	// concrete requires all values to be concrete (no unresolved fields).
	concrete bool
}

// Option configures ParseAndDecode.
type Option func(*parseOptions)

// defaultOptions returns the baseline parse configuration.
func defaultOptions() parseOptions {
	return parseOptions{
		maxFileSize: DefaultMaxFileSize,
		concrete:    true,
	}
}

// WithFilename sets the filename used in error messages.
func WithFilename(name string) Option {
	return func(o *parseOptions) {
		o.filename = name
	}
}

// WithMaxFileSize overrides the maximum accepted input size in bytes.
func WithMaxFileSize(size int64) Option {
	return func(o *parseOptions) {
		o.maxFileSize = size
	}
}

// WithConcrete controls whether validation requires concrete values.
// Disable for schemas with optional fields that remain unresolved.
func WithConcrete(concrete bool) Option {
	return func(o *parseOptions) {
		o.concrete = concrete
	}
}
