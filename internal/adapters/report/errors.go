package report

import "errors"

var (
	// ErrGeneration wraps any failure while assembling or writing a report.
	ErrGeneration = errors.New("report generation failed")

	// ErrUnknownDriver reports a driver-scope request for a driver absent
	// from the dataset.
	ErrUnknownDriver = errors.New("driver not present in dataset")
)
