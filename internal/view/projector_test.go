package view

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperengineering/hydro/internal/types"
)

// mockReader records the scope it was called with and serves canned data.
type mockReader struct {
	count     int64
	recent    []types.Measurement
	err       error
	gotOwner  types.Identity
	gotSystem string
	gotLimit  int
}

func (m *mockReader) CountMeasurements(ctx context.Context, owner types.Identity, systemID string) (int64, error) {
	m.gotOwner, m.gotSystem = owner, systemID
	return m.count, m.err
}

func (m *mockReader) RecentMeasurements(ctx context.Context, owner types.Identity, systemID string, limit int) ([]types.Measurement, error) {
	m.gotLimit = limit
	return m.recent, m.err
}

func TestProject_CopiesAttributesAndDerivedFields(t *testing.T) {
	// Given: a system with fifteen measurements, of which the reader returns ten
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sys := types.System{
		ID:          "sys-1",
		Owner:       "alice",
		Name:        "Tower",
		Description: "basil",
		CreatedAt:   created,
		UpdatedAt:   created.Add(time.Hour),
	}
	recent := make([]types.Measurement, LatestLimit)
	for i := range recent {
		recent[i] = types.Measurement{ID: string(rune('a' + i))}
	}
	r := &mockReader{count: 15, recent: recent}

	// When: projecting
	v, err := NewProjector(r).Project(context.Background(), "alice", sys)
	require.NoError(t, err)

	// Then: attributes are copied and the derived fields come from the reader
	assert.Equal(t, sys.ID, v.ID)
	assert.Equal(t, sys.Name, v.Name)
	assert.Equal(t, sys.Description, v.Description)
	assert.Equal(t, sys.Owner, v.Owner)
	assert.Equal(t, sys.CreatedAt, v.CreatedAt)
	assert.Equal(t, sys.UpdatedAt, v.UpdatedAt)
	assert.Equal(t, int64(15), v.MeasurementCount)
	assert.Equal(t, recent, v.LatestMeasurements)

	// And: the reader was scoped to the caller with the fixed limit
	assert.Equal(t, types.Identity("alice"), r.gotOwner)
	assert.Equal(t, "sys-1", r.gotSystem)
	assert.Equal(t, LatestLimit, r.gotLimit)
}

func TestProject_EmptySystemHasEmptyList(t *testing.T) {
	v, err := NewProjector(&mockReader{}).Project(context.Background(), "alice", types.System{ID: "s"})
	require.NoError(t, err)

	assert.NotNil(t, v.LatestMeasurements, "latest_measurements must encode as [] not null")
	assert.Empty(t, v.LatestMeasurements)
	assert.Zero(t, v.MeasurementCount)
}

func TestProject_ReaderErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewProjector(&mockReader{err: boom}).Project(context.Background(), "alice", types.System{ID: "s"})
	assert.ErrorIs(t, err, boom)
}

func TestProjectAll_PreservesOrder(t *testing.T) {
	systems := []types.System{{ID: "b"}, {ID: "a"}, {ID: "c"}}
	views, err := NewProjector(&mockReader{}).ProjectAll(context.Background(), "alice", systems)
	require.NoError(t, err)

	require.Len(t, views, 3)
	assert.Equal(t, "b", views[0].ID)
	assert.Equal(t, "a", views[1].ID)
	assert.Equal(t, "c", views[2].ID)
}
