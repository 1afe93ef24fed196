// Package api declares HTTP contracts and route registration helpers.
package api

import "net/http"

// DiagnosticsHandler handles source connectivity requests.
type DiagnosticsHandler struct {
	deps Dependencies
}

// NewDiagnosticsHandler creates a new diagnostics handler.
func NewDiagnosticsHandler(deps Dependencies) *DiagnosticsHandler {
	return &DiagnosticsHandler{deps: deps}
}

// HandleGetDiagnostics handles GET /diagnostics requests. Probes hit the
// backends directly; results are never cached.
func (h *DiagnosticsHandler) HandleGetDiagnostics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Diagnostics(r.Context()))
}
