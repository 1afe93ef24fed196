package cache

import "errors"

// ErrLoadTimeout reports a backend load that exceeded the load timeout.
var ErrLoadTimeout = errors.New("dataset load timed out")
