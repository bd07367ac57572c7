// Package access decides what an identity may see and write. Reads are
// narrowed to the identity's own Systems and the Measurements attached to
// them; writes of Measurements are checked against the target System's owner.
// Every write path goes through a Guard method so the identity check is
// applied before the store is touched.
package access

import (
	"context"
	"errors"

	"github.com/hyperengineering/hydro/internal/filter"
	"github.com/hyperengineering/hydro/internal/store"
	"github.com/hyperengineering/hydro/internal/types"
	"github.com/hyperengineering/hydro/internal/validation"
)

var (
	// ErrUnauthenticated is returned when no identity is attached to a call.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrOwnership is returned when a write targets a System owned by
	// another identity.
	ErrOwnership = errors.New("system belongs to another owner")
)

// Guard filters store access by identity.
type Guard struct {
	store store.Store
}

// NewGuard creates a Guard over s.
func NewGuard(s store.Store) *Guard {
	return &Guard{store: s}
}

// Require rejects an empty identity.
func Require(identity types.Identity) error {
	if identity == "" {
		return ErrUnauthenticated
	}
	return nil
}

// VisibleSystems lists the Systems owned by identity that match q.
func (g *Guard) VisibleSystems(ctx context.Context, identity types.Identity, q filter.Query, page filter.Page) ([]types.System, int64, error) {
	if err := Require(identity); err != nil {
		return nil, 0, err
	}
	return g.store.ListSystems(ctx, identity, q, page)
}

// VisibleMeasurements lists the Measurements on Systems owned by identity
// that match q.
func (g *Guard) VisibleMeasurements(ctx context.Context, identity types.Identity, q filter.Query, page filter.Page) ([]types.Measurement, int64, error) {
	if err := Require(identity); err != nil {
		return nil, 0, err
	}
	return g.store.ListMeasurements(ctx, identity, q, page)
}

// System returns a System in the visible set, or store.ErrNotFound.
func (g *Guard) System(ctx context.Context, identity types.Identity, id string) (*types.System, error) {
	if err := Require(identity); err != nil {
		return nil, err
	}
	return g.store.GetSystem(ctx, identity, id)
}

// Measurement returns a Measurement in the visible set, or store.ErrNotFound.
func (g *Guard) Measurement(ctx context.Context, identity types.Identity, id string) (*types.Measurement, error) {
	if err := Require(identity); err != nil {
		return nil, err
	}
	return g.store.GetMeasurement(ctx, identity, id)
}

// AuthorizeWrite checks that identity may attach Measurements to systemID.
// A missing System is reported as a validation failure on the system field;
// a System owned by someone else as ErrOwnership.
func (g *Guard) AuthorizeWrite(ctx context.Context, identity types.Identity, systemID string) (*types.System, error) {
	if err := Require(identity); err != nil {
		return nil, err
	}
	if systemID == "" {
		return nil, validation.Errors{{Field: "system", Message: "is required"}}
	}
	if verr := validation.ValidateULID("system", systemID); verr != nil {
		return nil, validation.Errors{*verr}
	}

	owner, err := g.store.SystemOwner(ctx, systemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, SystemMissing()
		}
		return nil, err
	}
	if owner != identity {
		return nil, ErrOwnership
	}

	return g.store.GetSystem(ctx, identity, systemID)
}

// CreateSystem stores a System owned by identity.
func (g *Guard) CreateSystem(ctx context.Context, identity types.Identity, in types.NewSystem) (*types.System, error) {
	if err := Require(identity); err != nil {
		return nil, err
	}
	return g.store.CreateSystem(ctx, identity, in)
}

// UpdateSystem changes a System in the visible set, or returns
// store.ErrNotFound.
func (g *Guard) UpdateSystem(ctx context.Context, identity types.Identity, id string, p types.SystemPatch) (*types.System, error) {
	if err := Require(identity); err != nil {
		return nil, err
	}
	return g.store.UpdateSystem(ctx, identity, id, p)
}

// DeleteSystem removes a System in the visible set and its Measurements.
func (g *Guard) DeleteSystem(ctx context.Context, identity types.Identity, id string) error {
	if err := Require(identity); err != nil {
		return err
	}
	return g.store.DeleteSystem(ctx, identity, id)
}

// CreateMeasurement inserts a Measurement. The store repeats the ownership
// check inside the insert, so a System that changed hands or vanished after
// AuthorizeWrite yields store.ErrNotFound.
func (g *Guard) CreateMeasurement(ctx context.Context, identity types.Identity, in types.NewMeasurement) (*types.Measurement, error) {
	if err := Require(identity); err != nil {
		return nil, err
	}
	return g.store.CreateMeasurement(ctx, identity, in)
}

// UpdateMeasurement changes a Measurement in the visible set.
func (g *Guard) UpdateMeasurement(ctx context.Context, identity types.Identity, id string, p types.MeasurementPatch) (*types.Measurement, error) {
	if err := Require(identity); err != nil {
		return nil, err
	}
	return g.store.UpdateMeasurement(ctx, identity, id, p)
}

// DeleteMeasurement removes a Measurement in the visible set.
func (g *Guard) DeleteMeasurement(ctx context.Context, identity types.Identity, id string) error {
	if err := Require(identity); err != nil {
		return err
	}
	return g.store.DeleteMeasurement(ctx, identity, id)
}

// SystemMissing is the validation failure for a reference to a System that
// does not exist.
func SystemMissing() error {
	return validation.Errors{{Field: "system", Message: "does not exist"}}
}
