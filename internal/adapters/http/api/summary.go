// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// SummaryHandler handles filtered aggregation requests.
type SummaryHandler struct {
	deps Dependencies
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(deps Dependencies) *SummaryHandler {
	return &SummaryHandler{deps: deps}
}

// HandleGetSummary handles GET /summary requests.
func (h *SummaryHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	c, err := parseCriteria(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	dim, err := parseDimension(r.URL.Query().Get("by"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	sum, err := h.deps.Summary(r.Context(), c, dim)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "load_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// HandleGetTrend handles GET /trend requests.
func (h *SummaryHandler) HandleGetTrend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	c, err := parseCriteria(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	points, err := h.deps.Trend(r.Context(), c)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "load_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

// HandleGetLetters handles GET /letters requests.
func (h *SummaryHandler) HandleGetLetters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	c, err := parseCriteria(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	letters, err := h.deps.WarningLetters(r.Context(), c)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "load_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, letters)
}
