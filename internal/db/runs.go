package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("run not found")

// RunRecord is one execution of the analysis pipeline.
type RunRecord struct {
	RunID         string    `json:"run_id"`
	Source        string    `json:"source"`
	StartedAt     time.Time `json:"started_at"`
	RowsLoaded    int       `json:"rows_loaded"`
	ColumnsLoaded int       `json:"columns_loaded"`
	ColumnsKept   int       `json:"columns_kept"`
	OutputDir     string    `json:"output_dir"`

	Dropped []DroppedColumn `json:"dropped,omitempty"`
	Columns []ColumnProfile `json:"columns,omitempty"`
	Counts  []FieldCounts   `json:"counts,omitempty"`
}

// DroppedColumn is a column removed during cleaning.
type DroppedColumn struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ColumnProfile describes a column as it was loaded.
type ColumnProfile struct {
	Name      string  `json:"name"`
	Dtype     string  `json:"dtype"`
	NonNull   int     `json:"non_null"`
	NullRatio float64 `json:"null_ratio"`
}

// ValueCount is the number of rows holding one value of a field.
type ValueCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// FieldCounts are the ranked value counts of one field.
type FieldCounts struct {
	Field  string       `json:"field"`
	Values []ValueCount `json:"values"`
}

// RecordRun stores r and its child rows in one transaction. An empty RunID
// is filled with a new UUID and a zero StartedAt with the current time.
func (db *DB) RecordRun(r *RunRecord) error {
	if r.RunID == "" {
		r.RunID = uuid.NewString()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO runs (
			run_id, source, started_at, rows_loaded, columns_loaded, columns_kept, output_dir
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Source, r.StartedAt.UnixNano(), r.RowsLoaded, r.ColumnsLoaded, r.ColumnsKept, r.OutputDir,
	); err != nil {
		return fmt.Errorf("failed to insert run %s: %w", r.RunID, err)
	}

	for _, d := range r.Dropped {
		if _, err := tx.Exec(`INSERT INTO run_dropped_columns (run_id, column_name, reason) VALUES (?, ?, ?)`,
			r.RunID, d.Name, d.Reason); err != nil {
			return fmt.Errorf("failed to insert dropped column %s: %w", d.Name, err)
		}
	}
	for i, c := range r.Columns {
		if _, err := tx.Exec(`INSERT INTO run_columns (run_id, position, column_name, dtype, non_null, null_ratio)
			VALUES (?, ?, ?, ?, ?, ?)`,
			r.RunID, i, c.Name, c.Dtype, c.NonNull, c.NullRatio); err != nil {
			return fmt.Errorf("failed to insert column profile %s: %w", c.Name, err)
		}
	}
	for _, fc := range r.Counts {
		for rank, v := range fc.Values {
			if _, err := tx.Exec(`INSERT INTO run_value_counts (run_id, field, rank, label, count)
				VALUES (?, ?, ?, ?, ?)`,
				r.RunID, fc.Field, rank, v.Label, v.Count); err != nil {
				return fmt.Errorf("failed to insert %s count %q: %w", fc.Field, v.Label, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", r.RunID, err)
	}
	return nil
}

const runColumns = `run_id, source, started_at, rows_loaded, columns_loaded, columns_kept, output_dir`

func scanRun(row interface{ Scan(...any) error }) (RunRecord, error) {
	var (
		r       RunRecord
		started int64
	)
	err := row.Scan(&r.RunID, &r.Source, &started, &r.RowsLoaded, &r.ColumnsLoaded, &r.ColumnsKept, &r.OutputDir)
	r.StartedAt = time.Unix(0, started)
	return r, err
}

// Runs returns the most recent runs, newest first, without their child rows.
// limit <= 0 returns every run.
func (db *DB) Runs(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LatestRun returns the newest run with its child rows.
func (db *DB) LatestRun() (*RunRecord, error) {
	var id string
	err := db.QueryRow(`SELECT run_id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}
	return db.Run(id)
}

// Run returns the run with the given id, including dropped columns, column
// profile and value counts.
func (db *DB) Run(runID string) (*RunRecord, error) {
	r, err := scanRun(db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run %s: %w", runID, err)
	}

	if r.Dropped, err = db.droppedColumns(runID); err != nil {
		return nil, err
	}
	if r.Columns, err = db.columnProfile(runID); err != nil {
		return nil, err
	}
	fields, err := db.countedFields(runID)
	if err != nil {
		return nil, err
	}
	for _, field := range fields {
		values, err := db.ValueCounts(runID, field)
		if err != nil {
			return nil, err
		}
		r.Counts = append(r.Counts, FieldCounts{Field: field, Values: values})
	}
	return &r, nil
}

// ValueCounts returns the stored counts of field for a run in rank order.
// An unknown run is ErrNotFound; a field with no counts is an empty slice.
func (db *DB) ValueCounts(runID, field string) ([]ValueCount, error) {
	var exists bool
	if err := db.QueryRow(`SELECT COUNT(*) > 0 FROM runs WHERE run_id = ?`, runID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to look up run %s: %w", runID, err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := db.Query(`SELECT label, count FROM run_value_counts
		WHERE run_id = ? AND field = ? ORDER BY rank`, runID, field)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s counts: %w", field, err)
	}
	defer rows.Close()

	counts := []ValueCount{}
	for rows.Next() {
		var v ValueCount
		if err := rows.Scan(&v.Label, &v.Count); err != nil {
			return nil, fmt.Errorf("failed to scan %s count: %w", field, err)
		}
		counts = append(counts, v)
	}
	return counts, rows.Err()
}

func (db *DB) droppedColumns(runID string) ([]DroppedColumn, error) {
	rows, err := db.Query(`SELECT column_name, reason FROM run_dropped_columns
		WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dropped columns: %w", err)
	}
	defer rows.Close()

	var out []DroppedColumn
	for rows.Next() {
		var d DroppedColumn
		if err := rows.Scan(&d.Name, &d.Reason); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (db *DB) columnProfile(runID string) ([]ColumnProfile, error) {
	rows, err := db.Query(`SELECT column_name, dtype, non_null, null_ratio FROM run_columns
		WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query column profile: %w", err)
	}
	defer rows.Close()

	var out []ColumnProfile
	for rows.Next() {
		var c ColumnProfile
		if err := rows.Scan(&c.Name, &c.Dtype, &c.NonNull, &c.NullRatio); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (db *DB) countedFields(runID string) ([]string, error) {
	rows, err := db.Query(`SELECT field FROM run_value_counts
		WHERE run_id = ? GROUP BY field ORDER BY MIN(rowid)`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query counted fields: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
