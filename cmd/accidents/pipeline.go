package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/accident.report/internal/analysis"
	"github.com/banshee-data/accident.report/internal/api"
	"github.com/banshee-data/accident.report/internal/config"
	"github.com/banshee-data/accident.report/internal/dataset"
	"github.com/banshee-data/accident.report/internal/db"
	"github.com/banshee-data/accident.report/internal/monitoring"
	"github.com/banshee-data/accident.report/internal/plots"
	"github.com/banshee-data/accident.report/internal/report"
	"github.com/banshee-data/accident.report/internal/timeutil"
)

// WorkbookFile is the name of the XLSX summary inside the output directory.
const WorkbookFile = "summary.xlsx"

// headRows is how many rows the console previews print.
const headRows = 10

// options are the resolved inputs of one run.
type options struct {
	CSV        string
	Config     *config.AnalysisConfig
	OutputBase string
	AssetsHost string
	// DB is optional; a nil DB skips run recording.
	DB *db.DB
}

// result describes what a run produced.
type result struct {
	OutputDir string
	Files     []string
	Run       *db.RunRecord
	Summary   *analysis.Summary
}

// runPipeline loads the CSV, prints the console tables to out, cleans and
// summarises the frame, then writes the figures, HTML report and workbook
// into a fresh output directory and records the run.
func runPipeline(o options, clock timeutil.Clock, out io.Writer) (*result, error) {
	cfg := o.Config
	if cfg == nil {
		cfg = config.DefaultAnalysisConfig()
	}
	started := clock.Now()

	done := monitoring.Step("load")
	frame, err := dataset.ReadCSVFile(o.CSV, cfg.GetSampleRows())
	done()
	if err != nil {
		return nil, err
	}
	loadedColumns := frame.Width()
	info := frame.Info()

	report.PrintHead(out, "First rows", frame, headRows)
	report.PrintInfo(out, frame)

	cleaned, err := analysis.Clean(frame, cfg)
	if err != nil {
		return nil, fmt.Errorf("cleaning failed: %w", err)
	}
	report.PrintCleaning(out, cleaned)
	report.PrintHead(out, "Cleaned rows", cleaned.Frame, headRows)

	summary, err := analysis.Summarise(cleaned, cfg)
	if err != nil {
		return nil, fmt.Errorf("summary failed: %w", err)
	}
	report.PrintSummary(out, summary)

	outDir := plots.MakeOutputDir(o.OutputBase, o.CSV, started)
	renderer, err := plots.NewRenderer(outDir, cfg.GetFigureWidthIn(), cfg.GetFigureHeightIn())
	if err != nil {
		return nil, err
	}
	files, err := renderer.RenderAll(summary)
	if err != nil {
		return nil, err
	}

	htmlPath := filepath.Join(outDir, api.ReportFile)
	if err := writeHTML(htmlPath, summary, o); err != nil {
		return nil, err
	}
	files = append(files, htmlPath)

	xlsxPath := filepath.Join(outDir, WorkbookFile)
	if err := report.WriteWorkbook(xlsxPath, info, cleaned, summary); err != nil {
		return nil, err
	}
	files = append(files, xlsxPath)
	monitoring.Logf("wrote %d files to %s", len(files), outDir)

	run := newRunRecord(o.CSV, started, frame.Len(), loadedColumns, info, cleaned, summary, outDir)
	if o.DB != nil {
		if err := o.DB.RecordRun(run); err != nil {
			return nil, fmt.Errorf("failed to record run: %w", err)
		}
		monitoring.Logf("recorded run %s in %s", run.RunID, o.DB.Path())
	}

	monitoring.Logf("run finished in %s", clock.Since(started))
	return &result{OutputDir: outDir, Files: files, Run: run, Summary: summary}, nil
}

func writeHTML(path string, s *analysis.Summary, o options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	err = report.WriteHTML(f, s, report.HTMLOptions{
		Title:      filepath.Base(o.CSV),
		AssetsHost: o.AssetsHost,
		MaxPoints:  5000,
	})
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close report: %w", cerr)
	}
	return err
}

func newRunRecord(source string, started time.Time, rows, columns int,
	info []dataset.ColumnInfo, c *analysis.Cleaned, s *analysis.Summary, outDir string) *db.RunRecord {
	r := &db.RunRecord{
		Source:        source,
		StartedAt:     started,
		RowsLoaded:    rows,
		ColumnsLoaded: columns,
		ColumnsKept:   c.Frame.Width(),
		OutputDir:     outDir,
	}
	for _, name := range c.Sparse {
		r.Dropped = append(r.Dropped, db.DroppedColumn{Name: name, Reason: "missing values"})
	}
	for _, name := range c.Removed {
		r.Dropped = append(r.Dropped, db.DroppedColumn{Name: name, Reason: "unused"})
	}
	for _, ci := range info {
		r.Columns = append(r.Columns, db.ColumnProfile{
			Name: ci.Name, Dtype: ci.Kind.String(), NonNull: ci.NonNull, NullRatio: ci.NullRatio,
		})
	}
	for _, fc := range []struct {
		field  string
		counts []dataset.Count
	}{
		{analysis.ColCity, s.TopCities},
		{analysis.ColSeverity, s.Severity},
		{analysis.ColWeather, s.Weather},
		{analysis.ColRoadCondition, s.RoadCondition},
	} {
		if len(fc.counts) == 0 {
			continue
		}
		values := make([]db.ValueCount, len(fc.counts))
		for i, vc := range fc.counts {
			values[i] = db.ValueCount{Label: vc.Label, Count: vc.Count}
		}
		r.Counts = append(r.Counts, db.FieldCounts{Field: fc.field, Values: values})
	}
	return r
}
