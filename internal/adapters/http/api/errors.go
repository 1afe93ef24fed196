package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest     = errors.New("bad request")
	ErrUploadTooLarge = errors.New("upload exceeds size limit")
	ErrUploadFormat   = errors.New("unsupported upload format")
)
