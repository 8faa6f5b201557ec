// Package analysis turns a loaded accident frame into the cleaned table and
// the per-figure datasets that the renderers and reports consume.
package analysis

import (
	"fmt"

	"github.com/banshee-data/accident.report/internal/config"
	"github.com/banshee-data/accident.report/internal/dataset"
	"github.com/banshee-data/accident.report/internal/monitoring"
)

// Column names read by the pipeline.
const (
	ColCity          = "City"
	ColSeverity      = "Severity"
	ColRoadCondition = "Road_Condition"
	ColWeather       = "Weather_Condition"
	ColHours         = "Hours"
	ColLng           = "Start_Lng"
	ColLat           = "Start_Lat"
	ColState         = "State"
	ColTemperature   = "Temperature(F)"
	ColWindSpeed     = "Wind_Speed(mph)"
)

// Cleaned is the frame after the cleaning pipeline together with the
// bookkeeping each step produced.
type Cleaned struct {
	Frame *dataset.Frame

	// Sparse lists the columns dropped for exceeding the missing-value
	// threshold, Removed the configured drop columns that were present.
	Sparse  []string
	Removed []string

	// Categorical and Numeric are the feature lists taken after the sparse
	// drop and before any coercion.
	Categorical []string
	Numeric     []string

	// Coerced maps each coerced column to the number of cells it nulled.
	Coerced map[string]int
	// TimeNulled counts datetime cells that failed to parse.
	TimeNulled int
}

// Clean runs the cleaning steps in order: drop sparse columns, capture the
// categorical and numeric feature lists, drop unused columns, coerce the
// location and temperature columns to numbers, then parse the start time and
// derive the hour of day. The frame is modified in place.
func Clean(f *dataset.Frame, cfg *config.AnalysisConfig) (*Cleaned, error) {
	if f == nil {
		return nil, fmt.Errorf("clean: nil frame")
	}
	if cfg == nil {
		cfg = config.DefaultAnalysisConfig()
	}
	defer monitoring.Step("clean")()

	c := &Cleaned{Frame: f, Coerced: make(map[string]int)}

	c.Sparse = f.DropSparse(cfg.GetMissingThreshold())
	monitoring.Logf("[clean] dropped %d columns with more than %.0f%% missing values: %v",
		len(c.Sparse), cfg.GetMissingThreshold()*100, c.Sparse)

	exclude := make(map[string]bool)
	for _, name := range cfg.GetExcludeCategorical() {
		exclude[name] = true
	}
	for _, name := range f.NamesOfKind(dataset.Text) {
		if !exclude[name] {
			c.Categorical = append(c.Categorical, name)
		}
	}
	c.Numeric = f.NamesOfKind(dataset.Numeric)

	c.Removed = f.Drop(cfg.GetDropColumns()...)
	if len(c.Removed) > 0 {
		monitoring.Logf("[clean] removed unused columns: %v", c.Removed)
	}
	// The numeric list feeds the pair plot, which reads the frame.
	c.Numeric = present(f, c.Numeric)

	for _, name := range cfg.GetNumericColumns() {
		if !f.Has(name) {
			monitoring.Logf("[clean] skipping numeric coercion of %q: column not present", name)
			continue
		}
		nulled, err := f.CoerceNumeric(name)
		if err != nil {
			return nil, fmt.Errorf("failed to coerce %q: %w", name, err)
		}
		c.Coerced[name] = nulled
		if nulled > 0 {
			monitoring.Logf("[clean] %q: %d unparseable values set to NaN", name, nulled)
		}
	}

	if ts := cfg.GetDatetimeColumn(); f.Has(ts) {
		nulled, err := f.ParseDatetime(ts)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %q: %w", ts, err)
		}
		c.TimeNulled = nulled
		if err := f.DeriveHour(ts, ColHours); err != nil {
			return nil, fmt.Errorf("failed to derive hours: %w", err)
		}
	} else {
		monitoring.Logf("[clean] no %q column, time of day analysis unavailable", ts)
	}

	return c, nil
}

func present(f *dataset.Frame, names []string) []string {
	var out []string
	for _, n := range names {
		if f.Has(n) {
			out = append(out, n)
		}
	}
	return out
}
