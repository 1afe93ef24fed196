package config

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. Callers match with errors.Is.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

func wrapLoadErr(err error) error {
	return fmt.Errorf("%w: %w", ErrLoadConfig, err)
}
