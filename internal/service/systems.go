package service

import (
	"context"

	"github.com/hyperengineering/hydro/internal/access"
	"github.com/hyperengineering/hydro/internal/filter"
	"github.com/hyperengineering/hydro/internal/types"
	"github.com/hyperengineering/hydro/internal/validation"
)

// ListSystems returns a page of the identity's Systems as views.
func (s *Service) ListSystems(ctx context.Context, identity types.Identity, q filter.Query, page filter.Page) (*List[types.SystemView], error) {
	systems, total, err := s.guard.VisibleSystems(ctx, identity, q, page)
	if err != nil {
		return nil, s.fail("list systems", err)
	}
	if err := checkPage(page, total); err != nil {
		return nil, err
	}

	views, err := s.views.ProjectAll(ctx, identity, systems)
	if err != nil {
		return nil, s.fail("project systems", err)
	}
	return &List[types.SystemView]{Items: views, Count: total, Page: page}, nil
}

// GetSystem returns one of the identity's Systems as a view.
func (s *Service) GetSystem(ctx context.Context, identity types.Identity, id string) (*types.SystemView, error) {
	sys, err := s.guard.System(ctx, identity, id)
	if err != nil {
		return nil, s.fail("get system", err)
	}
	return s.project(ctx, identity, sys)
}

// SystemDetails is the dedicated details read. It returns the same
// projection as GetSystem.
func (s *Service) SystemDetails(ctx context.Context, identity types.Identity, id string) (*types.SystemView, error) {
	return s.GetSystem(ctx, identity, id)
}

// CreateSystem registers a System owned by identity.
func (s *Service) CreateSystem(ctx context.Context, identity types.Identity, in types.NewSystem) (*types.SystemView, error) {
	if err := access.Require(identity); err != nil {
		return nil, err
	}

	sys, err := s.guard.CreateSystem(ctx, identity, in)
	if err != nil {
		return nil, s.fail("create system", err)
	}
	s.metrics.SystemCreated()
	s.logger.Info("system created", "id", sys.ID, "owner", identity)

	return s.project(ctx, identity, sys)
}

// ReplaceSystem overwrites every writable field. The name is required.
func (s *Service) ReplaceSystem(ctx context.Context, identity types.Identity, id string, in types.NewSystem) (*types.SystemView, error) {
	if err := access.Require(identity); err != nil {
		return nil, err
	}
	if err := validation.ValidateNewSystem(in); err != nil {
		return nil, err
	}
	return s.UpdateSystem(ctx, identity, id, types.SystemPatch{Name: &in.Name, Description: &in.Description})
}

// UpdateSystem applies the fields present in p. An empty patch returns the
// System unchanged and leaves updated_at alone.
func (s *Service) UpdateSystem(ctx context.Context, identity types.Identity, id string, p types.SystemPatch) (*types.SystemView, error) {
	if err := access.Require(identity); err != nil {
		return nil, err
	}
	if p.Empty() {
		return s.GetSystem(ctx, identity, id)
	}

	sys, err := s.guard.UpdateSystem(ctx, identity, id, p)
	if err != nil {
		return nil, s.fail("update system", err)
	}
	return s.project(ctx, identity, sys)
}

// DeleteSystem removes a System and its Measurements.
func (s *Service) DeleteSystem(ctx context.Context, identity types.Identity, id string) error {
	if err := access.Require(identity); err != nil {
		return err
	}

	if err := s.guard.DeleteSystem(ctx, identity, id); err != nil {
		return s.fail("delete system", err)
	}
	s.logger.Info("system deleted", "id", id, "owner", identity)
	return nil
}

func (s *Service) project(ctx context.Context, identity types.Identity, sys *types.System) (*types.SystemView, error) {
	v, err := s.views.Project(ctx, identity, *sys)
	if err != nil {
		return nil, s.fail("project system", err)
	}
	return v, nil
}
