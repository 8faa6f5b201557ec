package db

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleRun(source string, started time.Time) *RunRecord {
	return &RunRecord{
		Source:        source,
		StartedAt:     started,
		RowsLoaded:    100,
		ColumnsLoaded: 18,
		ColumnsKept:   14,
		OutputDir:     "/tmp/out",
		Dropped: []DroppedColumn{
			{Name: "End_Lat", Reason: "missing values"},
			{Name: "Airport_Code", Reason: "unused"},
		},
		Columns: []ColumnProfile{
			{Name: "ID", Dtype: "text", NonNull: 100},
			{Name: "End_Lat", Dtype: "numeric", NonNull: 20, NullRatio: 0.8},
		},
		Counts: []FieldCounts{
			{Field: "Severity", Values: []ValueCount{{"2", 60}, {"3", 30}, {"4", 10}}},
			{Field: "City", Values: []ValueCount{{"Columbus", 40}, {"Dayton", 35}}},
		},
	}
}

func TestPragmasApplied(t *testing.T) {
	db := newTestDB(t)

	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("Failed to query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("Expected journal_mode=wal, got %s", journalMode)
	}

	var busyTimeout int
	if err := db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout); err != nil {
		t.Fatalf("Failed to query busy_timeout: %v", err)
	}
	if busyTimeout != 5000 {
		t.Errorf("Expected busy_timeout=5000, got %d", busyTimeout)
	}

	var foreignKeys int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys); err != nil {
		t.Fatalf("Failed to query foreign_keys: %v", err)
	}
	if foreignKeys != 1 {
		t.Errorf("Expected foreign_keys=1, got %d", foreignKeys)
	}
}

func TestMigrations(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	defer db.Close()

	v, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(0), v)
	assert.False(t, dirty)

	require.NoError(t, db.MigrateUp())
	latest, err := LatestMigrationVersion(MigrationsFS())
	require.NoError(t, err)
	v, _, err = db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, latest, v)

	// Already at latest is not an error.
	require.NoError(t, db.MigrateUp())

	require.NoError(t, db.MigrateDown())
	v, _, err = db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, latest-1, v)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE name = 'run_value_counts'`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestRecordRun(t *testing.T) {
	db := newTestDB(t)
	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	r := sampleRun("accidents.csv", started)
	require.NoError(t, db.RecordRun(r))
	assert.Len(t, r.RunID, 36)

	got, err := db.Run(r.RunID)
	require.NoError(t, err)
	assert.True(t, got.StartedAt.Equal(started))
	got.StartedAt = r.StartedAt
	if diff := cmp.Diff(r, got); diff != "" {
		t.Errorf("Run() mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordRun_DefaultsAndDuplicates(t *testing.T) {
	db := newTestDB(t)
	r := &RunRecord{Source: "a.csv"}
	require.NoError(t, db.RecordRun(r))
	assert.NotEmpty(t, r.RunID)
	assert.False(t, r.StartedAt.IsZero())

	dup := &RunRecord{RunID: r.RunID, Source: "b.csv"}
	assert.Error(t, db.RecordRun(dup))

	runs, err := db.Runs(0)
	require.NoError(t, err)
	assert.Len(t, runs, 1, "failed insert must roll back")
}

func TestRuns(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, src := range []string{"one.csv", "two.csv", "three.csv"} {
		require.NoError(t, db.RecordRun(sampleRun(src, base.Add(time.Duration(i)*time.Hour))))
	}

	runs, err := db.Runs(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "three.csv", runs[0].Source)
	assert.Equal(t, "two.csv", runs[1].Source)
	assert.Nil(t, runs[0].Counts)

	all, err := db.Runs(0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	latest, err := db.LatestRun()
	require.NoError(t, err)
	assert.Equal(t, "three.csv", latest.Source)
	assert.Len(t, latest.Counts, 2)
}

func TestValueCounts(t *testing.T) {
	db := newTestDB(t)
	r := sampleRun("accidents.csv", time.Now())
	require.NoError(t, db.RecordRun(r))

	tests := []struct {
		name    string
		runID   string
		field   string
		want    []ValueCount
		wantErr error
	}{
		{"severity", r.RunID, "Severity", []ValueCount{{"2", 60}, {"3", 30}, {"4", 10}}, nil},
		{"city", r.RunID, "City", []ValueCount{{"Columbus", 40}, {"Dayton", 35}}, nil},
		{"unknown field", r.RunID, "Weather_Condition", []ValueCount{}, nil},
		{"unknown run", "nope", "Severity", nil, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.ValueCounts(tt.runID, tt.field)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLatestRun_Empty(t *testing.T) {
	db := newTestDB(t)
	_, err := db.LatestRun()
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = db.Run("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAttachAdminRoutes(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.RecordRun(sampleRun("accidents.csv", time.Now())))

	mux := http.NewServeMux()
	require.NoError(t, db.AttachAdminRoutes(mux))

	for _, path := range []string{"/debug/backup", "/debug/tailsql/"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		// Access control may reject non-local callers; the route must exist.
		assert.NotEqual(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestServeBackup(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.RecordRun(sampleRun("accidents.csv", time.Now())))

	rec := httptest.NewRecorder()
	db.serveBackup(rec, httptest.NewRequest(http.MethodGet, "/debug/backup", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/gzip", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte{0x1f, 0x8b}), "not gzip")
}

func TestRunMigrateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.db")
	var buf bytes.Buffer

	require.NoError(t, RunMigrateCommand(&buf, []string{"status"}, path))
	assert.Contains(t, buf.String(), "behind")

	buf.Reset()
	require.NoError(t, RunMigrateCommand(&buf, []string{"up"}, path))
	assert.Contains(t, buf.String(), "All migrations applied")

	buf.Reset()
	require.NoError(t, RunMigrateCommand(&buf, []string{"status"}, path))
	assert.Contains(t, buf.String(), "up to date")

	buf.Reset()
	require.NoError(t, RunMigrateCommand(&buf, []string{"down"}, path))
	assert.Contains(t, buf.String(), "Current version: 1")

	require.NoError(t, RunMigrateCommand(&buf, []string{"force", "2"}, path))
	assert.Error(t, RunMigrateCommand(&buf, []string{"force", "x"}, path))
	assert.Error(t, RunMigrateCommand(&buf, []string{"sideways"}, path))
	assert.Error(t, RunMigrateCommand(&buf, nil, path))

	buf.Reset()
	require.NoError(t, RunMigrateCommand(&buf, []string{"help"}, path))
	assert.Contains(t, buf.String(), "Database Migration Commands")
}
