package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hyperengineering/hydro/internal/filter"
	"github.com/hyperengineering/hydro/internal/types"
)

// ListSystems handles GET /api/v1/systems
func (h *Handler) ListSystems(w http.ResponseWriter, r *http.Request) {
	q, err := filter.ParseSystems(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := h.page(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	list, err := h.svc.ListSystems(r.Context(), IdentityFromContext(r.Context()), q, page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope(r, list))
}

// CreateSystem handles POST /api/v1/systems
func (h *Handler) CreateSystem(w http.ResponseWriter, r *http.Request) {
	var in types.NewSystem
	if !decodeJSON(w, r, &in) {
		return
	}

	v, err := h.svc.CreateSystem(r.Context(), IdentityFromContext(r.Context()), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// GetSystem handles GET /api/v1/systems/{id}
func (h *Handler) GetSystem(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.GetSystem(r.Context(), IdentityFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// SystemDetails handles GET /api/v1/systems/{id}/details
func (h *Handler) SystemDetails(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.SystemDetails(r.Context(), IdentityFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// ReplaceSystem handles PUT /api/v1/systems/{id}
func (h *Handler) ReplaceSystem(w http.ResponseWriter, r *http.Request) {
	var in types.NewSystem
	if !decodeJSON(w, r, &in) {
		return
	}

	v, err := h.svc.ReplaceSystem(r.Context(), IdentityFromContext(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// UpdateSystem handles PATCH /api/v1/systems/{id}
func (h *Handler) UpdateSystem(w http.ResponseWriter, r *http.Request) {
	var p types.SystemPatch
	if !decodeJSON(w, r, &p) {
		return
	}

	v, err := h.svc.UpdateSystem(r.Context(), IdentityFromContext(r.Context()), chi.URLParam(r, "id"), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// DeleteSystem handles DELETE /api/v1/systems/{id}
func (h *Handler) DeleteSystem(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteSystem(r.Context(), IdentityFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
