package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hyperengineering/hydro/internal/filter"
	"github.com/hyperengineering/hydro/internal/types"
	"github.com/hyperengineering/hydro/internal/validation"
)

// measurementInput is the full write payload. Pointers distinguish an
// absent field from a zero value.
type measurementInput struct {
	System           *string  `json:"system"`
	PH               *float64 `json:"ph"`
	TDS              *int64   `json:"tds"`
	WaterTemperature *float64 `json:"water_temperature"`
}

// complete returns the payload as a NewMeasurement, or a validation failure
// for every missing field.
func (in measurementInput) complete() (types.NewMeasurement, error) {
	var c validation.Collector
	if in.System == nil {
		c.Add(&validation.ValidationError{Field: "system", Message: "is required"})
	}
	if in.PH == nil {
		c.Add(&validation.ValidationError{Field: "ph", Message: "is required"})
	}
	if in.TDS == nil {
		c.Add(&validation.ValidationError{Field: "tds", Message: "is required"})
	}
	if in.WaterTemperature == nil {
		c.Add(&validation.ValidationError{Field: "water_temperature", Message: "is required"})
	}
	if err := c.Err(); err != nil {
		return types.NewMeasurement{}, err
	}
	return types.NewMeasurement{
		SystemID:         *in.System,
		PH:               *in.PH,
		TDS:              *in.TDS,
		WaterTemperature: *in.WaterTemperature,
	}, nil
}

// ListMeasurements handles GET /api/v1/measurements
func (h *Handler) ListMeasurements(w http.ResponseWriter, r *http.Request) {
	q, err := filter.ParseMeasurements(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := h.page(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	list, err := h.svc.ListMeasurements(r.Context(), IdentityFromContext(r.Context()), q, page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope(r, list))
}

// CreateMeasurement handles POST /api/v1/measurements
func (h *Handler) CreateMeasurement(w http.ResponseWriter, r *http.Request) {
	var in measurementInput
	if !decodeJSON(w, r, &in) {
		return
	}
	m, err := in.complete()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	created, err := h.svc.CreateMeasurement(r.Context(), IdentityFromContext(r.Context()), m)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GetMeasurement handles GET /api/v1/measurements/{id}
func (h *Handler) GetMeasurement(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.GetMeasurement(r.Context(), IdentityFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// ReplaceMeasurement handles PUT /api/v1/measurements/{id}
func (h *Handler) ReplaceMeasurement(w http.ResponseWriter, r *http.Request) {
	var in measurementInput
	if !decodeJSON(w, r, &in) {
		return
	}
	m, err := in.complete()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	updated, err := h.svc.ReplaceMeasurement(r.Context(), IdentityFromContext(r.Context()), chi.URLParam(r, "id"), m)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// UpdateMeasurement handles PATCH /api/v1/measurements/{id}
func (h *Handler) UpdateMeasurement(w http.ResponseWriter, r *http.Request) {
	var p types.MeasurementPatch
	if !decodeJSON(w, r, &p) {
		return
	}

	updated, err := h.svc.UpdateMeasurement(r.Context(), IdentityFromContext(r.Context()), chi.URLParam(r, "id"), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteMeasurement handles DELETE /api/v1/measurements/{id}
func (h *Handler) DeleteMeasurement(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteMeasurement(r.Context(), IdentityFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
