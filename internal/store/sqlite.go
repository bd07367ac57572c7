package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/hyperengineering/hydro/internal/types"
)

// timeLayout is fixed-width so that text comparison in SQL matches
// chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore represents the SQLite-backed System and Measurement database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// pragmas are applied to every pooled connection through the DSN.
var pragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"synchronous(NORMAL)",
}

// NewSQLiteStore creates a new SQLiteStore instance.
// It opens the database with WAL mode and safety pragmas, and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := Open(dbPath)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Open opens the SQLite database at dbPath without migrating it.
// ":memory:" opens a private in-memory database on a single connection.
func Open(dbPath string) (*sql.DB, error) {
	inMemory := dbPath == ":memory:"

	if !inMemory {
		if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if inMemory {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

func dsn(dbPath string) string {
	params := make([]string, len(pragmas))
	for i, p := range pragmas {
		params[i] = "_pragma=" + p
	}
	return "file:" + dbPath + "?" + strings.Join(params, "&")
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for migration tooling.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Stats returns global record counts.
func (s *SQLiteStore) Stats(ctx context.Context) (*types.StoreStats, error) {
	var stats types.StoreStats
	err := s.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM systems), (SELECT COUNT(*) FROM measurements)
	`).Scan(&stats.SystemCount, &stats.MeasurementCount)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	return &stats, nil
}

// SchemaVersion returns the applied migration version.
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (int64, error) {
	return SchemaVersion(s.db)
}

func (s *SQLiteStore) timestamp() time.Time {
	return s.now().UTC()
}

func newID() string {
	return ulid.Make().String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", v, err)
	}
	return t, nil
}

func checkScope(owner types.Identity) error {
	if owner == "" {
		return ErrInvalidScope
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}
