package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/hyperengineering/hydro/internal/access"
	"github.com/hyperengineering/hydro/internal/filter"
	"github.com/hyperengineering/hydro/internal/service"
	"github.com/hyperengineering/hydro/internal/store"
	"github.com/hyperengineering/hydro/internal/validation"
)

func TestWriteProblem_BodyFormat(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/systems", nil)

	WriteProblem(w, r, http.StatusUnauthorized, "Missing or invalid bearer token")

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %v, want application/problem+json", ct)
	}

	var p Problem
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to unmarshal response body: %v", err)
	}
	if p.Type != "https://hydro.dev/errors/unauthorized" {
		t.Errorf("type = %v, want https://hydro.dev/errors/unauthorized", p.Type)
	}
	if p.Title != "Unauthorized" {
		t.Errorf("title = %v, want Unauthorized", p.Title)
	}
	if p.Status != 401 {
		t.Errorf("status = %d, want 401", p.Status)
	}
	if p.Instance != "/api/v1/systems" {
		t.Errorf("instance = %v, want /api/v1/systems", p.Instance)
	}
}

func TestWriteProblem_UnknownStatus(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	WriteProblem(w, r, http.StatusTeapot, "short and stout")

	var p Problem
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if p.Title != http.StatusText(http.StatusTeapot) {
		t.Errorf("title = %v, want %v", p.Title, http.StatusText(http.StatusTeapot))
	}
}

func TestWriteProblemWithErrors_422(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/measurements", nil)

	WriteProblemWithErrors(w, r, "Request contains invalid fields", []validation.ValidationError{
		{Field: "ph", Message: "must be between 0.0 and 14.0"},
	})

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}

	var p ProblemWithErrors
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if p.Type != "https://hydro.dev/errors/validation-error" {
		t.Errorf("type = %v, want https://hydro.dev/errors/validation-error", p.Type)
	}
	if len(p.Errors) != 1 || p.Errors[0].Field != "ph" {
		t.Errorf("errors = %+v, want one error on ph", p.Errors)
	}
}

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantField  string
	}{
		{"unauthenticated", access.ErrUnauthenticated, http.StatusUnauthorized, "https://hydro.dev/errors/unauthorized", ""},
		{"forbidden", fmt.Errorf("%w: %w", service.ErrForbidden, access.ErrOwnership), http.StatusForbidden, "https://hydro.dev/errors/forbidden", ""},
		{"not found", store.ErrNotFound, http.StatusNotFound, "https://hydro.dev/errors/not-found", ""},
		{"wrapped not found", fmt.Errorf("get system: %w", store.ErrNotFound), http.StatusNotFound, "https://hydro.dev/errors/not-found", ""},
		{"validation", validation.Errors{{Field: "name", Message: "is required"}}, http.StatusUnprocessableEntity, "https://hydro.dev/errors/validation-error", "name"},
		{"invalid filter", &filter.InvalidFilterError{Param: "ph_min", Value: "x", Reason: "must be a number"}, http.StatusBadRequest, "https://hydro.dev/errors/bad-request", "ph_min"},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, "https://hydro.dev/errors/internal-error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/v1/measurements", nil)

			MapServiceError(w, r, nil, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var p ProblemWithErrors
			if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
				t.Fatalf("failed to unmarshal: %v", err)
			}
			if p.Type != tt.wantType {
				t.Errorf("type = %v, want %v", p.Type, tt.wantType)
			}
			if tt.wantField != "" && (len(p.Errors) == 0 || p.Errors[0].Field != tt.wantField) {
				t.Errorf("errors = %+v, want field %q", p.Errors, tt.wantField)
			}
			if tt.wantStatus == http.StatusInternalServerError && p.Detail != "Internal Server Error" {
				t.Errorf("detail = %v, want 'Internal Server Error' (no leak)", p.Detail)
			}
		})
	}
}
