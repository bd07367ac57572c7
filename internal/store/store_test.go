package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hyperengineering/hydro/internal/types"
)

var fixedTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// tickingClock returns fixedTime plus one second per call, so every record
// gets a distinct, predictable timestamp.
type tickingClock struct {
	mu   sync.Mutex
	next time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.next
	c.next = c.next.Add(time.Second)
	return t
}

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	clock := &tickingClock{next: fixedTime}
	s.now = clock.Now
	t.Cleanup(func() { s.Close() })
	return s
}

func mustCreateSystem(t *testing.T, s *SQLiteStore, owner types.Identity, name string) *types.System {
	t.Helper()
	sys, err := s.CreateSystem(context.Background(), owner, types.NewSystem{Name: name})
	if err != nil {
		t.Fatalf("CreateSystem(%q): %v", name, err)
	}
	return sys
}

func mustCreateMeasurement(t *testing.T, s *SQLiteStore, owner types.Identity, systemID string, ph float64) *types.Measurement {
	t.Helper()
	m, err := s.CreateMeasurement(context.Background(), owner, types.NewMeasurement{
		SystemID:         systemID,
		PH:               ph,
		TDS:              500,
		WaterTemperature: 21.5,
	})
	if err != nil {
		t.Fatalf("CreateMeasurement(%v): %v", ph, err)
	}
	return m
}
