package service

import (
	"context"
	"errors"

	"github.com/hyperengineering/hydro/internal/access"
	"github.com/hyperengineering/hydro/internal/filter"
	"github.com/hyperengineering/hydro/internal/store"
	"github.com/hyperengineering/hydro/internal/types"
	"github.com/hyperengineering/hydro/internal/validation"
)

// ListMeasurements returns a page of Measurements on the identity's Systems.
func (s *Service) ListMeasurements(ctx context.Context, identity types.Identity, q filter.Query, page filter.Page) (*List[types.Measurement], error) {
	ms, total, err := s.guard.VisibleMeasurements(ctx, identity, q, page)
	if err != nil {
		return nil, s.fail("list measurements", err)
	}
	if err := checkPage(page, total); err != nil {
		return nil, err
	}
	return &List[types.Measurement]{Items: ms, Count: total, Page: page}, nil
}

// GetMeasurement returns a Measurement on one of the identity's Systems.
func (s *Service) GetMeasurement(ctx context.Context, identity types.Identity, id string) (*types.Measurement, error) {
	m, err := s.guard.Measurement(ctx, identity, id)
	if err != nil {
		return nil, s.fail("get measurement", err)
	}
	return m, nil
}

// CreateMeasurement records a Measurement. The target System must belong to
// identity: a foreign System yields ErrForbidden and an unknown one a
// validation failure on the system field.
func (s *Service) CreateMeasurement(ctx context.Context, identity types.Identity, in types.NewMeasurement) (*types.Measurement, error) {
	if err := access.Require(identity); err != nil {
		return nil, err
	}

	invalid := validation.ValidateNewMeasurement(in)
	if err := s.authorize(ctx, identity, in.SystemID); err != nil {
		return nil, mergeValidation(err, invalid)
	}
	if invalid != nil {
		return nil, invalid
	}

	m, err := s.guard.CreateMeasurement(ctx, identity, in)
	if err != nil {
		// The System was deleted between authorization and insert.
		if errors.Is(err, store.ErrNotFound) {
			return nil, access.SystemMissing()
		}
		return nil, s.fail("create measurement", err)
	}
	s.metrics.MeasurementCreated()
	s.logger.Debug("measurement created", "id", m.ID, "system", m.SystemID)

	return m, nil
}

// ReplaceMeasurement overwrites every measured value. in.SystemID must name
// the Measurement's current System.
func (s *Service) ReplaceMeasurement(ctx context.Context, identity types.Identity, id string, in types.NewMeasurement) (*types.Measurement, error) {
	return s.UpdateMeasurement(ctx, identity, id, types.MeasurementPatch{
		SystemID:         &in.SystemID,
		PH:               &in.PH,
		TDS:              &in.TDS,
		WaterTemperature: &in.WaterTemperature,
	})
}

// UpdateMeasurement applies the measured values present in p. Moving a
// Measurement to another System is rejected.
func (s *Service) UpdateMeasurement(ctx context.Context, identity types.Identity, id string, p types.MeasurementPatch) (*types.Measurement, error) {
	if err := access.Require(identity); err != nil {
		return nil, err
	}

	current, err := s.guard.Measurement(ctx, identity, id)
	if err != nil {
		return nil, s.fail("get measurement", err)
	}

	if p.SystemID != nil && *p.SystemID != current.SystemID {
		if err := s.authorize(ctx, identity, *p.SystemID); err != nil {
			return nil, err
		}
		return nil, validation.Errors{{Field: "system", Message: "cannot be changed"}}
	}

	m, err := s.guard.UpdateMeasurement(ctx, identity, id, p)
	if err != nil {
		return nil, s.fail("update measurement", err)
	}
	return m, nil
}

// DeleteMeasurement removes a Measurement.
func (s *Service) DeleteMeasurement(ctx context.Context, identity types.Identity, id string) error {
	if err := access.Require(identity); err != nil {
		return err
	}

	if err := s.guard.DeleteMeasurement(ctx, identity, id); err != nil {
		return s.fail("delete measurement", err)
	}
	return nil
}

func (s *Service) authorize(ctx context.Context, identity types.Identity, systemID string) error {
	if _, err := s.guard.AuthorizeWrite(ctx, identity, systemID); err != nil {
		if errors.Is(err, access.ErrOwnership) {
			return forbidden(err)
		}
		return s.fail("authorize write", err)
	}
	return nil
}

// mergeValidation joins two validation failures into one; any other error
// wins outright.
func mergeValidation(err, other error) error {
	var a, b validation.Errors
	if !errors.As(err, &a) || !errors.As(other, &b) {
		return err
	}
	merged := make(validation.Errors, 0, len(a)+len(b))
	merged = append(merged, a...)
	return append(merged, b...)
}
