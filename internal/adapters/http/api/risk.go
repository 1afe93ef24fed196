// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"
	"time"
)

// RiskHandler handles risk score requests.
type RiskHandler struct {
	deps Dependencies
}

// NewRiskHandler creates a new risk handler.
func NewRiskHandler(deps Dependencies) *RiskHandler {
	return &RiskHandler{deps: deps}
}

// HandleGetRisk handles GET /risk requests. The window defaults to the
// trailing month; "n" caps the returned ranking.
func (h *RiskHandler) HandleGetRisk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()

	from, err := parseDate(q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	to, err := parseDate(q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.AddDate(0, -1, 0)
	}

	ranked, err := h.deps.RiskScores(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "load_failed", err)
		return
	}

	if s := q.Get("n"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		if n < len(ranked) {
			ranked = ranked[:n]
		}
	}
	writeJSON(w, http.StatusOK, ranked)
}
