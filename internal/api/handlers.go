package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/hyperengineering/hydro/internal/filter"
	"github.com/hyperengineering/hydro/internal/metrics"
	"github.com/hyperengineering/hydro/internal/service"
	"github.com/hyperengineering/hydro/internal/types"
)

// maxBodyBytes caps request bodies; every write payload is a handful of fields.
const maxBodyBytes = 64 << 10

// Handler implements the API handlers
type Handler struct {
	svc             *service.Service
	metrics         *metrics.Metrics
	version         string
	defaultPageSize int
	maxPageSize     int
}

// NewHandler creates a new Handler over svc.
func NewHandler(svc *service.Service, m *metrics.Metrics, version string, defaultPageSize, maxPageSize int) *Handler {
	return &Handler{
		svc:             svc,
		metrics:         m,
		version:         version,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// Health returns the health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		slog.Error("health check failed", "error", err)
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	schema, err := h.svc.SchemaVersion(r.Context())
	if err != nil {
		slog.Error("health check failed", "error", err)
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeJSON(w, http.StatusOK, types.HealthResponse{
		Status:           "healthy",
		Version:          h.version,
		SchemaVersion:    schema,
		SystemCount:      stats.SystemCount,
		MeasurementCount: stats.MeasurementCount,
	})
}

// fail writes the problem response for a service error.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	MapServiceError(w, r, h.metrics, err)
}

func (h *Handler) page(r *http.Request) (filter.Page, error) {
	return filter.ParsePage(r.URL.Query(), h.defaultPageSize, h.maxPageSize)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// decodeJSON reads a single JSON object from the request body. Unknown
// fields are ignored so that read-only attributes echoed back by clients
// are harmless.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		detail := "Invalid JSON: " + err.Error()
		if errors.Is(err, io.EOF) {
			detail = "Request body is empty"
		}
		WriteProblem(w, r, http.StatusBadRequest, detail)
		return false
	}
	return true
}
