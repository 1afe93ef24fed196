// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"time"

	"github.com/minehaul/fleetsafety/internal/domain/model"
)

// DatasetHandler handles dataset metadata and refresh requests.
type DatasetHandler struct {
	deps Dependencies
}

// NewDatasetHandler creates a new dataset handler.
func NewDatasetHandler(deps Dependencies) *DatasetHandler {
	return &DatasetHandler{deps: deps}
}

// datasetResponse is the dataset metadata shape. Events are not inlined;
// consumers go through /summary and /risk.
type datasetResponse struct {
	Source    model.SourceDescriptor `json:"source"`
	Signature string                 `json:"signature"`
	Degraded  bool                   `json:"degraded"`
	Events    int                    `json:"events"`
	Drivers   int                    `json:"drivers"`
	Vehicles  int                    `json:"vehicles"`
	LoadedAt  time.Time              `json:"loaded_at"`
}

// HandleGetDataset handles GET /dataset requests.
func (h *DatasetHandler) HandleGetDataset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	ds, err := h.deps.Dataset(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "load_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toDatasetResponse(ds))
}

// HandleRefresh handles POST /refresh requests.
func (h *DatasetHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	ds, err := h.deps.Refresh(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "load_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toDatasetResponse(ds))
}

func toDatasetResponse(ds *model.Dataset) datasetResponse {
	return datasetResponse{
		Source:    ds.Source,
		Signature: ds.Signature,
		Degraded:  ds.Degraded,
		Events:    len(ds.Events),
		Drivers:   len(ds.Drivers),
		Vehicles:  len(ds.Vehicles),
		LoadedAt:  ds.LoadedAt,
	}
}
