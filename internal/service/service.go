// Package service is the single entry point for System and Measurement
// operations. Every call is made on behalf of an identity; reads go through
// the ownership guard and System reads are returned as projected views.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hyperengineering/hydro/internal/access"
	"github.com/hyperengineering/hydro/internal/filter"
	"github.com/hyperengineering/hydro/internal/metrics"
	"github.com/hyperengineering/hydro/internal/store"
	"github.com/hyperengineering/hydro/internal/types"
	"github.com/hyperengineering/hydro/internal/validation"
	"github.com/hyperengineering/hydro/internal/view"
)

// ErrForbidden is returned when a Measurement write targets a System owned
// by another identity. It always wraps access.ErrOwnership.
var ErrForbidden = errors.New("forbidden")

// List is one page of results plus the total match count.
type List[T any] struct {
	Items []T
	Count int64
	Page  filter.Page
}

// HasNext reports whether a later page exists.
func (l List[T]) HasNext() bool {
	return int64(l.Page.Number) < l.Page.Count(l.Count)
}

// HasPrevious reports whether an earlier page exists.
func (l List[T]) HasPrevious() bool {
	return l.Page.Number > 1
}

// Service implements the System and Measurement operations.
type Service struct {
	store   store.Store
	guard   *access.Guard
	views   *view.Projector
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records domain events on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger used for unexpected store failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a Service backed by st.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:  st,
		guard:  access.NewGuard(st),
		views:  view.NewProjector(st),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stats returns global record counts.
func (s *Service) Stats(ctx context.Context) (*types.StoreStats, error) {
	return s.store.Stats(ctx)
}

// SchemaVersion returns the applied migration version.
func (s *Service) SchemaVersion(ctx context.Context) (int64, error) {
	return s.store.SchemaVersion(ctx)
}

// forbidden wraps an ownership failure so that both ErrForbidden and
// access.ErrOwnership match.
func forbidden(err error) error {
	return fmt.Errorf("%w: %w", ErrForbidden, err)
}

// fail passes known outcomes through untouched and logs anything else.
func (s *Service) fail(op string, err error) error {
	var verr validation.Errors
	var ferr *filter.InvalidFilterError
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, access.ErrUnauthenticated),
		errors.Is(err, ErrForbidden),
		errors.As(err, &verr),
		errors.As(err, &ferr):
		return err
	}
	s.logger.Error("operation failed", "op", op, "error", err)
	return fmt.Errorf("%s: %w", op, err)
}

// checkPage rejects pages past the end. The first page is always valid.
func checkPage(page filter.Page, total int64) error {
	if page.Number > 1 && int64(page.Number-1) >= page.Count(total) {
		return store.ErrNotFound
	}
	return nil
}
