package source

import "errors"

// Sentinel kinds for source resolution errors.
var (
	// ErrAllSourcesFailed means every candidate, including the sample
	// fallback, failed to yield a usable batch.
	ErrAllSourcesFailed = errors.New("all data sources failed")

	// ErrEmptyBatch marks a candidate that returned no usable rows.
	ErrEmptyBatch = errors.New("source returned an empty batch")

	// ErrBadShape marks a batch missing the expected identity columns.
	ErrBadShape = errors.New("source batch failed the shape check")

	// ErrUnsupportedFormat marks a file with an extension no reader handles.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrNotConfigured marks a candidate with no usable configuration.
	ErrNotConfigured = errors.New("source not configured")
)
