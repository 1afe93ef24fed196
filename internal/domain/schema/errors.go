package schema

import "errors"

// Sentinel kinds for normalization errors.
var (
	// ErrMissingIdentity is returned when the vehicle-id or timestamp
	// columns are entirely absent from a batch. Everything else is
	// best-effort mapped.
	ErrMissingIdentity = errors.New("required identity columns missing")
)
