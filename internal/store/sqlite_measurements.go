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

const measurementColumnList = `m.id, m.system_id, m.ph, m.tds, m.water_temperature, m.created_at`

const measurementReturning = `id, system_id, ph, tds, water_temperature, created_at`

// ownedMeasurements restricts m to rows whose System belongs to the owner.
const ownedMeasurements = `FROM measurements m JOIN systems s ON s.id = m.system_id`

func scanMeasurement(scanner rowScanner) (*types.Measurement, error) {
	var m types.Measurement
	var createdAt string

	if err := scanner.Scan(&m.ID, &m.SystemID, &m.PH, &m.TDS, &m.WaterTemperature, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateMeasurement records a Measurement on one of the owner's Systems.
// A System outside the owner's scope yields ErrNotFound.
func (s *SQLiteStore) CreateMeasurement(ctx context.Context, owner types.Identity, in types.NewMeasurement) (*types.Measurement, error) {
	if err := checkScope(owner); err != nil {
		return nil, err
	}
	if err := validation.ValidateNewMeasurement(in); err != nil {
		return nil, err
	}

	m := &types.Measurement{
		ID:               newID(),
		SystemID:         in.SystemID,
		PH:               in.PH,
		TDS:              in.TDS,
		WaterTemperature: in.WaterTemperature,
		CreatedAt:        s.timestamp(),
	}

	// Insert only if the System exists and is owned by owner.
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO measurements (id, system_id, ph, tds, water_temperature, created_at)
		SELECT ?, s.id, ?, ?, ?, ?
		FROM systems s
		WHERE s.id = ? AND s.owner = ?
	`, m.ID, m.PH, m.TDS, m.WaterTemperature, formatTime(m.CreatedAt), in.SystemID, string(owner))
	if err != nil {
		return nil, fmt.Errorf("insert measurement: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return m, nil
}

// GetMeasurement retrieves a Measurement by ID within the owner's scope.
func (s *SQLiteStore) GetMeasurement(ctx context.Context, owner types.Identity, id string) (*types.Measurement, error) {
	if err := checkScope(owner); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+measurementColumnList+`
		`+ownedMeasurements+`
		WHERE m.id = ? AND s.owner = ?
	`, id, string(owner))

	m, err := scanMeasurement(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan measurement: %w", err)
	}
	return m, nil
}

// ListMeasurements returns one page of the owner's Measurements matching q,
// plus the total number of matches.
func (s *SQLiteStore) ListMeasurements(ctx context.Context, owner types.Identity, q filter.Query, page filter.Page) ([]types.Measurement, int64, error) {
	if err := checkScope(owner); err != nil {
		return nil, 0, err
	}

	var where predicate
	where.add("s.owner = ?", string(owner))
	if err := where.addConditions(q.Conditions, measurementColumns); err != nil {
		return nil, 0, err
	}

	order, err := orderBy(q.Order, measurementColumns, "m.id")
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) `+ownedMeasurements+` `+where.sql(), where.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count measurements: %w", err)
	}

	args := append(append([]any{}, where.args...), page.Size, page.Offset())
	ms, err := s.queryMeasurements(ctx, `
		SELECT `+measurementColumnList+`
		`+ownedMeasurements+`
		`+where.sql()+`
		`+order+`
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, 0, err
	}
	return ms, total, nil
}

// UpdateMeasurement applies the present patch values. The owning System
// cannot be changed through a patch.
func (s *SQLiteStore) UpdateMeasurement(ctx context.Context, owner types.Identity, id string, p types.MeasurementPatch) (*types.Measurement, error) {
	if err := checkScope(owner); err != nil {
		return nil, err
	}
	if err := validation.ValidateMeasurementPatch(p); err != nil {
		return nil, err
	}
	if p.Empty() {
		return s.GetMeasurement(ctx, owner, id)
	}

	var sets []string
	var args []any
	if p.PH != nil {
		sets = append(sets, "ph = ?")
		args = append(args, *p.PH)
	}
	if p.TDS != nil {
		sets = append(sets, "tds = ?")
		args = append(args, *p.TDS)
	}
	if p.WaterTemperature != nil {
		sets = append(sets, "water_temperature = ?")
		args = append(args, *p.WaterTemperature)
	}
	args = append(args, id, string(owner))

	row := s.db.QueryRowContext(ctx, `
		UPDATE measurements
		SET `+strings.Join(sets, ", ")+`
		WHERE id = ? AND system_id IN (SELECT id FROM systems WHERE owner = ?)
		RETURNING `+measurementReturning, args...)

	m, err := scanMeasurement(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update measurement: %w", err)
	}
	return m, nil
}

// DeleteMeasurement removes a Measurement within the owner's scope.
func (s *SQLiteStore) DeleteMeasurement(ctx context.Context, owner types.Identity, id string) error {
	if err := checkScope(owner); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM measurements
		WHERE id = ? AND system_id IN (SELECT id FROM systems WHERE owner = ?)
	`, id, string(owner))
	if err != nil {
		return fmt.Errorf("delete measurement: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountMeasurements returns the number of Measurements on a System. A System
// outside the owner's scope counts as empty.
func (s *SQLiteStore) CountMeasurements(ctx context.Context, owner types.Identity, systemID string) (int64, error) {
	if err := checkScope(owner); err != nil {
		return 0, err
	}

	var count int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) `+ownedMeasurements+`
		WHERE m.system_id = ? AND s.owner = ?
	`, systemID, string(owner)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count measurements: %w", err)
	}
	return count, nil
}

// RecentMeasurements returns up to limit Measurements on a System, newest first.
func (s *SQLiteStore) RecentMeasurements(ctx context.Context, owner types.Identity, systemID string, limit int) ([]types.Measurement, error) {
	if err := checkScope(owner); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []types.Measurement{}, nil
	}

	return s.queryMeasurements(ctx, `
		SELECT `+measurementColumnList+`
		`+ownedMeasurements+`
		WHERE m.system_id = ? AND s.owner = ?
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT ?
	`, systemID, string(owner), limit)
}

func (s *SQLiteStore) queryMeasurements(ctx context.Context, query string, args ...any) ([]types.Measurement, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query measurements: %w", err)
	}
	defer rows.Close()

	measurements := []types.Measurement{}
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan measurement: %w", err)
		}
		measurements = append(measurements, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return measurements, nil
}
