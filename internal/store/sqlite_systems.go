package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperengineering/hydro/internal/filter"
	"github.com/hyperengineering/hydro/internal/types"
	"github.com/hyperengineering/hydro/internal/validation"
)

const systemColumnList = `s.id, s.owner, s.name, s.description, s.created_at, s.updated_at`

// systemReturning is the RETURNING list, which cannot use a table alias.
const systemReturning = `id, owner, name, description, created_at, updated_at`

func scanSystem(scanner rowScanner) (*types.System, error) {
	var sys types.System
	var owner, createdAt, updatedAt string

	if err := scanner.Scan(&sys.ID, &owner, &sys.Name, &sys.Description, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	sys.Owner = types.Identity(owner)

	var err error
	if sys.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if sys.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &sys, nil
}

// CreateSystem validates and stores a new System owned by owner.
func (s *SQLiteStore) CreateSystem(ctx context.Context, owner types.Identity, in types.NewSystem) (*types.System, error) {
	if err := checkScope(owner); err != nil {
		return nil, err
	}
	if err := validation.ValidateNewSystem(in); err != nil {
		return nil, err
	}

	now := s.timestamp()
	sys := &types.System{
		ID:          newID(),
		Owner:       owner,
		Name:        in.Name,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO systems (id, owner, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sys.ID, string(owner), sys.Name, sys.Description, formatTime(now), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("insert system: %w", err)
	}

	return sys, nil
}

// GetSystem retrieves a System by ID within the owner's scope.
func (s *SQLiteStore) GetSystem(ctx context.Context, owner types.Identity, id string) (*types.System, error) {
	if err := checkScope(owner); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+systemColumnList+`
		FROM systems s
		WHERE s.id = ? AND s.owner = ?
	`, id, string(owner))

	sys, err := scanSystem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan system: %w", err)
	}
	return sys, nil
}

// ListSystems returns one page of the owner's Systems matching q, plus the
// total number of matches.
func (s *SQLiteStore) ListSystems(ctx context.Context, owner types.Identity, q filter.Query, page filter.Page) ([]types.System, int64, error) {
	if err := checkScope(owner); err != nil {
		return nil, 0, err
	}

	var where predicate
	where.add("s.owner = ?", string(owner))
	if err := where.addConditions(q.Conditions, systemColumns); err != nil {
		return nil, 0, err
	}
	where.addSearch(q.Search, "s.name", "s.description")

	order, err := orderBy(q.Order, systemColumns, "s.id")
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM systems s `+where.sql(), where.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count systems: %w", err)
	}

	args := append(append([]any{}, where.args...), page.Size, page.Offset())
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+systemColumnList+`
		FROM systems s
		`+where.sql()+`
		`+order+`
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query systems: %w", err)
	}
	defer rows.Close()

	systems := []types.System{}
	for rows.Next() {
		sys, err := scanSystem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan system: %w", err)
		}
		systems = append(systems, *sys)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate rows: %w", err)
	}

	return systems, total, nil
}

// UpdateSystem applies the present patch fields and refreshes updated_at in
// a single statement.
func (s *SQLiteStore) UpdateSystem(ctx context.Context, owner types.Identity, id string, p types.SystemPatch) (*types.System, error) {
	if err := checkScope(owner); err != nil {
		return nil, err
	}
	if err := validation.ValidateSystemPatch(p); err != nil {
		return nil, err
	}

	sets := []string{"updated_at = ?"}
	args := []any{formatTime(s.timestamp())}
	if p.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *p.Name)
	}
	if p.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *p.Description)
	}
	args = append(args, id, string(owner))

	row := s.db.QueryRowContext(ctx, `
		UPDATE systems
		SET `+strings.Join(sets, ", ")+`
		WHERE id = ? AND owner = ?
		RETURNING `+systemReturning, args...)

	sys, err := scanSystem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update system: %w", err)
	}
	return sys, nil
}

// DeleteSystem removes a System and all of its Measurements.
func (s *SQLiteStore) DeleteSystem(ctx context.Context, owner types.Identity, id string) error {
	if err := checkScope(owner); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// The foreign key cascades too; deleting explicitly keeps the cascade
	// independent of the foreign_keys pragma.
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM measurements
		WHERE system_id IN (SELECT id FROM systems WHERE id = ? AND owner = ?)
	`, id, string(owner)); err != nil {
		return fmt.Errorf("delete measurements: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM systems WHERE id = ? AND owner = ?`, id, string(owner))
	if err != nil {
		return fmt.Errorf("delete system: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// SystemOwner returns the owner of a System regardless of caller.
func (s *SQLiteStore) SystemOwner(ctx context.Context, id string) (types.Identity, error) {
	var owner string
	err := s.db.QueryRowContext(ctx, `SELECT owner FROM systems WHERE id = ?`, id).Scan(&owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("query system owner: %w", err)
	}
	return types.Identity(owner), nil
}
