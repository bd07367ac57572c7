// Package view builds the read representation of a System.
package view

import (
	"context"
	"fmt"

	"github.com/hyperengineering/hydro/internal/types"
)

// LatestLimit is the number of recent Measurements embedded in a SystemView.
const LatestLimit = 10

// Reader is the subset of the store a Projector needs.
type Reader interface {
	CountMeasurements(ctx context.Context, owner types.Identity, systemID string) (int64, error)
	RecentMeasurements(ctx context.Context, owner types.Identity, systemID string, limit int) ([]types.Measurement, error)
}

// Projector derives SystemViews. Nothing is cached: every projection reads
// the current count and newest Measurements.
type Projector struct {
	reader Reader
}

// NewProjector creates a Projector reading through r.
func NewProjector(r Reader) *Projector {
	return &Projector{reader: r}
}

// Project returns sys with its measurement count and up to LatestLimit
// newest Measurements, both scoped to identity.
func (p *Projector) Project(ctx context.Context, identity types.Identity, sys types.System) (*types.SystemView, error) {
	count, err := p.reader.CountMeasurements(ctx, identity, sys.ID)
	if err != nil {
		return nil, fmt.Errorf("count measurements for %s: %w", sys.ID, err)
	}

	latest, err := p.reader.RecentMeasurements(ctx, identity, sys.ID, LatestLimit)
	if err != nil {
		return nil, fmt.Errorf("recent measurements for %s: %w", sys.ID, err)
	}
	if latest == nil {
		latest = []types.Measurement{}
	}

	return &types.SystemView{
		ID:                 sys.ID,
		Name:               sys.Name,
		Description:        sys.Description,
		CreatedAt:          sys.CreatedAt,
		UpdatedAt:          sys.UpdatedAt,
		Owner:              sys.Owner,
		LatestMeasurements: latest,
		MeasurementCount:   count,
	}, nil
}

// ProjectAll projects each System in order.
func (p *Projector) ProjectAll(ctx context.Context, identity types.Identity, systems []types.System) ([]types.SystemView, error) {
	views := make([]types.SystemView, 0, len(systems))
	for _, sys := range systems {
		v, err := p.Project(ctx, identity, sys)
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}
