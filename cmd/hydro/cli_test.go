package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperengineering/hydro/internal/store"
	"github.com/hyperengineering/hydro/internal/types"
)

// executeCmd runs the root command with args against the database at dbPath.
func executeCmd(t *testing.T, dbPath string, args ...string) (stdout string, err error) {
	t.Helper()

	// Cobra parses into package-level variables; reset them so values from
	// a previous test do not leak.
	dbPathOverride = ""
	systemOwner = ""
	systemJSONOutput = false
	systemSearch = ""

	fullArgs := append(append([]string{}, args...), "--db", dbPath)

	outBuf := new(bytes.Buffer)
	rootCmd.SetOut(outBuf)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs(fullArgs)

	err = rootCmd.Execute()

	rootCmd.SetOut(nil)
	rootCmd.SetErr(nil)
	rootCmd.SetArgs(nil)

	return outBuf.String(), err
}

// seed creates one system with n measurements for owner in a fresh database.
func seed(t *testing.T, owner string, n int) (dbPath string, systemID string) {
	t.Helper()
	dbPath = filepath.Join(t.TempDir(), "hydro.db")

	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	sys, err := st.CreateSystem(ctx, types.Identity(owner), types.NewSystem{Name: "Tower", Description: "kitchen"})
	if err != nil {
		t.Fatalf("CreateSystem() error = %v", err)
	}
	for i := 0; i < n; i++ {
		_, err := st.CreateMeasurement(ctx, types.Identity(owner), types.NewMeasurement{
			SystemID: sys.ID, PH: 6.5, TDS: 800, WaterTemperature: 21.0,
		})
		if err != nil {
			t.Fatalf("CreateMeasurement() error = %v", err)
		}
	}
	return dbPath, sys.ID
}

// --- migrate ---

func TestMigrate_FreshDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "hydro.db")

	stdout, err := executeCmd(t, dbPath, "migrate")
	if err != nil {
		t.Fatalf("migrate error = %v", err)
	}
	if !strings.Contains(stdout, "Migrated schema from version 0") {
		t.Errorf("stdout = %q, want migration summary", stdout)
	}

	stdout, err = executeCmd(t, dbPath, "migrate")
	if err != nil {
		t.Fatalf("second migrate error = %v", err)
	}
	if !strings.Contains(stdout, "Schema is up to date") {
		t.Errorf("stdout = %q, want up-to-date message", stdout)
	}
}

func TestMigrateStatus(t *testing.T) {
	dbPath, _ := seed(t, "alice", 0)

	stdout, err := executeCmd(t, dbPath, "migrate", "status")
	if err != nil {
		t.Fatalf("migrate status error = %v", err)
	}
	if !strings.HasPrefix(stdout, "Schema version: ") || strings.Contains(stdout, "Schema version: 0\n") {
		t.Errorf("stdout = %q, want a non-zero schema version", stdout)
	}
}

// --- system ---

func TestSystemList_RequiresOwner(t *testing.T) {
	dbPath, _ := seed(t, "alice", 0)

	_, err := executeCmd(t, dbPath, "system", "list")
	if err == nil || !strings.Contains(err.Error(), "--owner") {
		t.Errorf("error = %v, want --owner is required", err)
	}
}

func TestSystemList_Table(t *testing.T) {
	dbPath, id := seed(t, "alice", 3)

	stdout, err := executeCmd(t, dbPath, "system", "list", "--owner", "alice")
	if err != nil {
		t.Fatalf("system list error = %v", err)
	}
	if !strings.Contains(stdout, "ID") || !strings.Contains(stdout, "MEASUREMENTS") {
		t.Errorf("stdout = %q, want a header row", stdout)
	}
	if !strings.Contains(stdout, id) || !strings.Contains(stdout, "Tower") {
		t.Errorf("stdout = %q, want the seeded system", stdout)
	}
}

func TestSystemList_OtherOwnerSeesNothing(t *testing.T) {
	dbPath, _ := seed(t, "alice", 1)

	stdout, err := executeCmd(t, dbPath, "system", "list", "--owner", "bob")
	if err != nil {
		t.Fatalf("system list error = %v", err)
	}
	if !strings.Contains(stdout, "No systems found.") {
		t.Errorf("stdout = %q, want 'No systems found.'", stdout)
	}
}

func TestSystemList_JSON(t *testing.T) {
	dbPath, id := seed(t, "alice", 2)

	stdout, err := executeCmd(t, dbPath, "system", "list", "--owner", "alice", "--json")
	if err != nil {
		t.Fatalf("system list error = %v", err)
	}

	var out struct {
		Systems []types.SystemView `json:"systems"`
		Total   int                `json:"total"`
	}
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("invalid JSON %q: %v", stdout, err)
	}
	if out.Total != 1 || len(out.Systems) != 1 || out.Systems[0].ID != id {
		t.Errorf("output = %+v, want the one seeded system", out)
	}
	if out.Systems[0].MeasurementCount != 2 {
		t.Errorf("measurement_count = %d, want 2", out.Systems[0].MeasurementCount)
	}
}

func TestSystemList_Search(t *testing.T) {
	dbPath, _ := seed(t, "alice", 0)

	stdout, err := executeCmd(t, dbPath, "system", "list", "--owner", "alice", "--search", "garage")
	if err != nil {
		t.Fatalf("system list error = %v", err)
	}
	if !strings.Contains(stdout, "No systems found.") {
		t.Errorf("stdout = %q, want no match for an unrelated search", stdout)
	}
}

func TestSystemShow(t *testing.T) {
	dbPath, id := seed(t, "alice", 12)

	stdout, err := executeCmd(t, dbPath, "system", "show", id, "--owner", "alice", "--json")
	if err != nil {
		t.Fatalf("system show error = %v", err)
	}

	var v types.SystemView
	if err := json.Unmarshal([]byte(stdout), &v); err != nil {
		t.Fatalf("invalid JSON %q: %v", stdout, err)
	}
	if v.MeasurementCount != 12 {
		t.Errorf("measurement_count = %d, want 12", v.MeasurementCount)
	}
	if len(v.LatestMeasurements) != 10 {
		t.Errorf("latest_measurements = %d entries, want 10", len(v.LatestMeasurements))
	}

	stdout, err = executeCmd(t, dbPath, "system", "show", id, "--owner", "alice")
	if err != nil {
		t.Fatalf("system show error = %v", err)
	}
	if !strings.Contains(stdout, "Measurements:") || !strings.Contains(stdout, "MEASUREMENT") {
		t.Errorf("stdout = %q, want details and a measurement table", stdout)
	}
}

func TestSystemShow_ForeignOwnerNotFound(t *testing.T) {
	dbPath, id := seed(t, "alice", 0)

	_, err := executeCmd(t, dbPath, "system", "show", id, "--owner", "bob")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %v, want not found", err)
	}
}
