package store

import (
	"context"

	"github.com/hyperengineering/hydro/internal/filter"
	"github.com/hyperengineering/hydro/internal/types"
)

// Store defines the interface contract for System and Measurement persistence.
//
// Every method except SystemOwner and Stats is scoped to an owner: records
// belonging to any other owner behave exactly as if they did not exist.
type Store interface {
	CreateSystem(ctx context.Context, owner types.Identity, s types.NewSystem) (*types.System, error)
	GetSystem(ctx context.Context, owner types.Identity, id string) (*types.System, error)
	ListSystems(ctx context.Context, owner types.Identity, q filter.Query, page filter.Page) ([]types.System, int64, error)
	UpdateSystem(ctx context.Context, owner types.Identity, id string, p types.SystemPatch) (*types.System, error)
	DeleteSystem(ctx context.Context, owner types.Identity, id string) error

	// SystemOwner looks a System up without scoping. Reserved for write
	// authorization, which must tell "foreign" apart from "absent".
	SystemOwner(ctx context.Context, id string) (types.Identity, error)

	CreateMeasurement(ctx context.Context, owner types.Identity, m types.NewMeasurement) (*types.Measurement, error)
	GetMeasurement(ctx context.Context, owner types.Identity, id string) (*types.Measurement, error)
	ListMeasurements(ctx context.Context, owner types.Identity, q filter.Query, page filter.Page) ([]types.Measurement, int64, error)
	UpdateMeasurement(ctx context.Context, owner types.Identity, id string, p types.MeasurementPatch) (*types.Measurement, error)
	DeleteMeasurement(ctx context.Context, owner types.Identity, id string) error
	CountMeasurements(ctx context.Context, owner types.Identity, systemID string) (int64, error)
	RecentMeasurements(ctx context.Context, owner types.Identity, systemID string, limit int) ([]types.Measurement, error)

	Stats(ctx context.Context) (*types.StoreStats, error)
	SchemaVersion(ctx context.Context) (int64, error)
	Close() error
}
