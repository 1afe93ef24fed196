// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Extensions the normalizer can ingest.
var allowedUploadExts = map[string]struct{}{
	".csv":  {},
	".xlsx": {},
	".xls":  {},
}

// UploadHandler handles session dataset uploads.
type UploadHandler struct {
	deps Dependencies
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(deps Dependencies) *UploadHandler {
	return &UploadHandler{deps: deps}
}

// HandleUpload handles POST /upload (multipart "file" field) and
// DELETE /upload, which clears the session override.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handlePost(w, r)
	case http.MethodDelete:
		h.deps.ClearUpload()
		writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	default:
		http.NotFound(w, r)
	}
}

func (h *UploadHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.deps.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", ErrUploadTooLarge)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: missing file field", ErrBadRequest))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := allowedUploadExts[ext]; !ok {
		writeError(w, http.StatusUnsupportedMediaType, "unsupported_format",
			fmt.Errorf("%w: %s", ErrUploadFormat, ext))
		return
	}

	dest := h.deps.UploadDestination(header.Filename)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	out, err := os.Create(dest)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	written, err := io.Copy(out, file)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	h.deps.SetUpload(dest)
	writeJSON(w, http.StatusCreated, map[string]any{
		"status": "uploaded",
		"path":   dest,
		"bytes":  written,
	})
}
