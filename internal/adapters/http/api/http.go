// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/minehaul/fleetsafety/internal/adapters/probe"
	"github.com/minehaul/fleetsafety/internal/domain/aggregate"
	"github.com/minehaul/fleetsafety/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	Dataset(ctx context.Context) (*model.Dataset, error)
	Refresh(ctx context.Context) (*model.Dataset, error)

	SetUpload(path string)
	ClearUpload()
	UploadDestination(filename string) string
	MaxUploadBytes() int64

	Summary(ctx context.Context, c aggregate.Criteria, dim aggregate.Dimension) (aggregate.Summary, error)
	Trend(ctx context.Context, c aggregate.Criteria) ([]aggregate.TrendPoint, error)
	WarningLetters(ctx context.Context, c aggregate.Criteria) (map[string]int, error)
	RiskScores(ctx context.Context, from, to time.Time) ([]model.RiskScore, error)

	GenerateReport(ctx context.Context, req model.ReportRequest) (model.ReportArtifact, error)
	Diagnostics(ctx context.Context) []probe.Result
	GetStats() map[string]interface{}
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	datasetHandler     *DatasetHandler
	summaryHandler     *SummaryHandler
	riskHandler        *RiskHandler
	reportHandler      *ReportHandler
	uploadHandler      *UploadHandler
	diagnosticsHandler *DiagnosticsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		datasetHandler:     NewDatasetHandler(deps),
		summaryHandler:     NewSummaryHandler(deps),
		riskHandler:        NewRiskHandler(deps),
		reportHandler:      NewReportHandler(deps),
		uploadHandler:      NewUploadHandler(deps),
		diagnosticsHandler: NewDiagnosticsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/dataset", MetricsMiddleware(s.datasetHandler.HandleGetDataset, "dataset"))
	mux.HandleFunc("/refresh", MetricsMiddleware(s.datasetHandler.HandleRefresh, "refresh"))
	mux.HandleFunc("/summary", MetricsMiddleware(s.summaryHandler.HandleGetSummary, "summary"))
	mux.HandleFunc("/trend", MetricsMiddleware(s.summaryHandler.HandleGetTrend, "trend"))
	mux.HandleFunc("/letters", MetricsMiddleware(s.summaryHandler.HandleGetLetters, "letters"))
	mux.HandleFunc("/risk", MetricsMiddleware(s.riskHandler.HandleGetRisk, "risk"))
	mux.HandleFunc("/report", MetricsMiddleware(s.reportHandler.HandlePostReport, "report"))
	mux.HandleFunc("/upload", MetricsMiddleware(s.uploadHandler.HandleUpload, "upload"))
	mux.HandleFunc("/diagnostics", MetricsMiddleware(s.diagnosticsHandler.HandleGetDiagnostics, "diagnostics"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
