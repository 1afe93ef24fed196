// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/minehaul/fleetsafety/internal/adapters/report"
	"github.com/minehaul/fleetsafety/internal/domain/model"
)

// ReportHandler handles report generation requests.
type ReportHandler struct {
	deps Dependencies
}

// NewReportHandler creates a new report handler.
func NewReportHandler(deps Dependencies) *ReportHandler {
	return &ReportHandler{deps: deps}
}

// reportRequest mirrors the POST /report body.
type reportRequest struct {
	Scope    string `json:"scope"`
	DriverID string `json:"driver_id"`
	From     string `json:"from"`
	To       string `json:"to"`
	Language string `json:"language"`
}

func (r reportRequest) validate() error {
	switch r.Scope {
	case "", string(model.ScopeFleet):
	case string(model.ScopeDriver):
		if strings.TrimSpace(r.DriverID) == "" {
			return errors.New("missing driver_id for driver scope")
		}
	default:
		return errors.New("scope must be driver or fleet")
	}
	return nil
}

// HandlePostReport handles POST /report requests.
func (h *ReportHandler) HandlePostReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var body reportRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if err := body.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	from, err := parseDate(body.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	to, err := parseDate(body.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	req := model.ReportRequest{
		Scope:    model.ReportScope(body.Scope),
		DriverID: body.DriverID,
		From:     from,
		To:       to,
		Language: body.Language,
	}
	artifact, err := h.deps.GenerateReport(r.Context(), req)
	if err != nil {
		if errors.Is(err, report.ErrUnknownDriver) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "generation_failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, artifact)
}
