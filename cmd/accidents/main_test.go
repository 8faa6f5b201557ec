package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/accident.report/internal/api"
	"github.com/banshee-data/accident.report/internal/config"
	"github.com/banshee-data/accident.report/internal/db"
	"github.com/banshee-data/accident.report/internal/monitoring"
	"github.com/banshee-data/accident.report/internal/plots"
	"github.com/banshee-data/accident.report/internal/report"
	"github.com/banshee-data/accident.report/internal/testutil"
	"github.com/banshee-data/accident.report/internal/timeutil"
)

func quietLogs(t *testing.T) {
	t.Helper()
	prev := monitoring.Logf
	monitoring.SetLogger(t.Logf)
	t.Cleanup(func() { monitoring.SetLogger(prev) })
}

func TestFlagDefaults(t *testing.T) {
	assert.Equal(t, "", *csvPath)
	assert.Equal(t, "plots", *outputDir)
	assert.Equal(t, "accidents.db", *dbPath)
	assert.Equal(t, ":8080", *listen)
	assert.Equal(t, report.DefaultAssetsHost, *assetsHost)
	assert.False(t, *serve)
	assert.False(t, *quiet)
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, 100000, cfg.GetSampleRows())

	path := filepath.Join(t.TempDir(), "analysis.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"sample_rows": 500, "top_n": 5}`), 0o644))
	cfg, err = loadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.GetSampleRows())
	assert.Equal(t, 5, cfg.GetTopN())

	orig := *rows
	t.Cleanup(func() { *rows = orig })
	*rows = 42
	cfg, err = loadConfig(path, map[string]bool{"rows": true})
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.GetSampleRows(), "flag overrides file")

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.Error(t, err)
}

func TestRunPipeline(t *testing.T) {
	quietLogs(t)
	dir := t.TempDir()
	csv := testutil.WriteAccidentsCSV(t, dir, testutil.FixtureOptions{Rows: 200, Seed: 21, RoadCondition: true})

	database, err := db.NewDB(filepath.Join(dir, "runs.db"))
	require.NoError(t, err)
	defer database.Close()

	cfg := config.DefaultAnalysisConfig()
	pair := 100
	cfg.PairSampleSize = &pair

	now := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	var out bytes.Buffer
	res, err := runPipeline(options{
		CSV:        csv,
		Config:     cfg,
		OutputBase: filepath.Join(dir, "plots"),
		DB:         database,
	}, timeutil.NewMockClock(now), &out)
	require.NoError(t, err)

	assert.Equal(t, plots.MakeOutputDir(filepath.Join(dir, "plots"), csv, now), res.OutputDir)
	// 11 figures, the HTML report and the workbook
	assert.Len(t, res.Files, 13)
	for _, f := range res.Files {
		assert.FileExists(t, f)
	}
	assert.FileExists(t, filepath.Join(res.OutputDir, api.ReportFile))
	assert.FileExists(t, filepath.Join(res.OutputDir, WorkbookFile))

	console := out.String()
	assert.Contains(t, console, "First rows")
	assert.Contains(t, console, "Cleaned rows")
	assert.Contains(t, console, "Number of rows: 200")

	latest, err := database.LatestRun()
	require.NoError(t, err)
	assert.Equal(t, res.Run.RunID, latest.RunID)
	assert.Equal(t, 200, latest.RowsLoaded)
	assert.Equal(t, len(testutil.AccidentHeader)+1, latest.ColumnsLoaded, "with Road_Condition")
	assert.True(t, latest.StartedAt.Equal(now))
	assert.Len(t, latest.Counts, 4)

	counts, err := database.ValueCounts(latest.RunID, "Severity")
	require.NoError(t, err)
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	assert.Equal(t, 200, total)
}

func TestRunPipeline_NoDatabase(t *testing.T) {
	quietLogs(t)
	dir := t.TempDir()
	csv := testutil.WriteAccidentsCSV(t, dir, testutil.FixtureOptions{Rows: 60, Seed: 22})

	cfg := config.DefaultAnalysisConfig()
	limit := 40
	cfg.SampleRows = &limit

	var out bytes.Buffer
	res, err := runPipeline(options{CSV: csv, Config: cfg, OutputBase: dir}, timeutil.RealClock{}, &out)
	require.NoError(t, err)
	assert.Equal(t, 40, res.Run.RowsLoaded)
	assert.Empty(t, res.Run.RunID, "nothing recorded")
	// no Road_Condition column: one figure fewer
	assert.Len(t, res.Files, 12)
}

func TestRunPipeline_LogsEachStepOnce(t *testing.T) {
	var lines []string
	prev := monitoring.Logf
	monitoring.SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	t.Cleanup(func() { monitoring.SetLogger(prev) })

	dir := t.TempDir()
	csv := testutil.WriteAccidentsCSV(t, dir, testutil.FixtureOptions{Rows: 30, Seed: 23})
	_, err := runPipeline(options{CSV: csv, OutputBase: dir}, timeutil.RealClock{}, &bytes.Buffer{})
	require.NoError(t, err)

	for _, step := range []string{"load", "clean", "summarise", "render"} {
		started := 0
		for _, l := range lines {
			if strings.HasPrefix(l, "["+step+"] started") {
				started++
			}
		}
		assert.Equal(t, 1, started, "start lines for %s", step)
	}
}

func TestRunPipeline_InfiniteCoordinates(t *testing.T) {
	quietLogs(t)
	dir := t.TempDir()
	csv := testutil.WriteAccidentsCSV(t, dir, testutil.FixtureOptions{Rows: 80, Seed: 24, InfiniteLatitude: true})

	res, err := runPipeline(options{CSV: csv, OutputBase: dir}, timeutil.RealClock{}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Len(t, res.Files, 12)
	assert.FileExists(t, filepath.Join(res.OutputDir, plots.FileLocations))
	assert.FileExists(t, filepath.Join(res.OutputDir, WorkbookFile))
}

func TestRunPipeline_MissingFile(t *testing.T) {
	quietLogs(t)
	_, err := runPipeline(options{CSV: filepath.Join(t.TempDir(), "nope.csv"), OutputBase: t.TempDir()},
		timeutil.RealClock{}, &bytes.Buffer{})
	assert.Error(t, err)
}
