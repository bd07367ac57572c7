package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/hyperengineering/hydro/internal/access"
	"github.com/hyperengineering/hydro/internal/filter"
	"github.com/hyperengineering/hydro/internal/metrics"
	"github.com/hyperengineering/hydro/internal/service"
	"github.com/hyperengineering/hydro/internal/store"
	"github.com/hyperengineering/hydro/internal/validation"
)

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

type problemType struct {
	typeURI string
	title   string
}

// problemTypes maps HTTP status codes to RFC 7807 type URIs and titles.
var problemTypes = map[int]problemType{
	http.StatusBadRequest: {
		typeURI: "https://hydro.dev/errors/bad-request",
		title:   "Bad Request",
	},
	http.StatusUnauthorized: {
		typeURI: "https://hydro.dev/errors/unauthorized",
		title:   "Unauthorized",
	},
	http.StatusForbidden: {
		typeURI: "https://hydro.dev/errors/forbidden",
		title:   "Forbidden",
	},
	http.StatusNotFound: {
		typeURI: "https://hydro.dev/errors/not-found",
		title:   "Not Found",
	},
	http.StatusMethodNotAllowed: {
		typeURI: "https://hydro.dev/errors/method-not-allowed",
		title:   "Method Not Allowed",
	},
	http.StatusUnprocessableEntity: {
		typeURI: "https://hydro.dev/errors/validation-error",
		title:   "Validation Error",
	},
	http.StatusInternalServerError: {
		typeURI: "https://hydro.dev/errors/internal-error",
		title:   "Internal Server Error",
	},
}

func lookupProblemType(status int) problemType {
	if pt, ok := problemTypes[status]; ok {
		return pt
	}
	return problemType{
		typeURI: "https://hydro.dev/errors/unknown",
		title:   http.StatusText(status),
	}
}

// WriteProblem writes an RFC 7807 Problem Details response.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	pt := lookupProblemType(status)
	writeProblemBody(w, status, Problem{
		Type:     pt.typeURI,
		Title:    pt.title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	})
}

// ProblemWithErrors extends Problem with field error details.
type ProblemWithErrors struct {
	Problem
	Errors []validation.ValidationError `json:"errors,omitempty"`
}

// WriteProblemWithErrors writes a 422 Problem Details response with field errors.
func WriteProblemWithErrors(w http.ResponseWriter, r *http.Request, detail string, errs []validation.ValidationError) {
	writeProblemWithErrors(w, r, http.StatusUnprocessableEntity, detail, errs)
}

func writeProblemWithErrors(w http.ResponseWriter, r *http.Request, status int, detail string, errs []validation.ValidationError) {
	pt := lookupProblemType(status)
	writeProblemBody(w, status, ProblemWithErrors{
		Problem: Problem{
			Type:     pt.typeURI,
			Title:    pt.title,
			Status:   status,
			Detail:   detail,
			Instance: r.URL.Path,
		},
		Errors: errs,
	})
}

func writeProblemBody(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// MapServiceError converts domain errors to Problem Details responses.
func MapServiceError(w http.ResponseWriter, r *http.Request, m *metrics.Metrics, err error) {
	var verr validation.Errors
	var ferr *filter.InvalidFilterError

	switch {
	case errors.Is(err, access.ErrUnauthenticated):
		WriteProblem(w, r, http.StatusUnauthorized, "Authentication credentials were not provided")
	case errors.Is(err, service.ErrForbidden):
		WriteProblem(w, r, http.StatusForbidden, "You do not have permission to add measurements to this system")
	case errors.Is(err, store.ErrNotFound):
		WriteProblem(w, r, http.StatusNotFound, "Resource not found")
	case errors.As(err, &verr):
		WriteProblemWithErrors(w, r, "Request contains invalid fields", verr)
	case errors.As(err, &ferr):
		m.FilterRejected(ferr.Param)
		writeProblemWithErrors(w, r, http.StatusBadRequest, "Invalid query parameter",
			[]validation.ValidationError{{Field: ferr.Param, Message: ferr.Reason}})
	default:
		// Never expose internal error details to client
		slog.Error("request failed", "error", err, "path", r.URL.Path, "method", r.Method)
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
	}
}
