// Package plots renders the accident figures to PNG files with gonum/plot.
package plots

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/accident.report/internal/analysis"
	"github.com/banshee-data/accident.report/internal/monitoring"
	"github.com/banshee-data/accident.report/internal/security"
)

// File names of the rendered figures.
const (
	FileCorrelation     = "correlation_heatmap.png"
	FileTopCities       = "top_cities.png"
	FileSeverityPie     = "severity_pie.png"
	FileRoadPie         = "road_condition_pie.png"
	FileWeather         = "weather_conditions.png"
	FileTimeOfDay       = "time_of_day.png"
	FileLocations       = "accident_locations.png"
	FileTempBySeverity  = "temperature_by_severity.png"
	FileWindBySeverity  = "wind_by_severity.png"
	FileTempDensity     = "temperature_density.png"
	FilePairPlot        = "pairplot.png"
	defaultFigureWidth  = 10
	defaultFigureHeight = 6
)

// Renderer writes figures into a single output directory.
type Renderer struct {
	dir           string
	width, height vg.Length
}

// NewRenderer creates dir if needed and returns a renderer producing figures
// of the given size in inches. Non-positive sizes fall back to 10x6.
func NewRenderer(dir string, widthIn, heightIn float64) (*Renderer, error) {
	if dir == "" {
		return nil, fmt.Errorf("no output directory configured")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create plot directory: %w", err)
	}
	if widthIn <= 0 {
		widthIn = defaultFigureWidth
	}
	if heightIn <= 0 {
		heightIn = defaultFigureHeight
	}
	return &Renderer{
		dir:    dir,
		width:  vg.Length(widthIn) * vg.Inch,
		height: vg.Length(heightIn) * vg.Inch,
	}, nil
}

// Dir returns the output directory.
func (r *Renderer) Dir() string { return r.dir }

func (r *Renderer) save(p *plot.Plot, name string) (string, error) {
	path := filepath.Join(r.dir, name)
	if err := p.Save(r.width, r.height, path); err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	return path, nil
}

// RenderAll renders every figure whose dataset is present in s and returns
// the written paths in figure order.
func (r *Renderer) RenderAll(s *analysis.Summary) ([]string, error) {
	if s == nil {
		return nil, fmt.Errorf("nothing to render")
	}
	defer monitoring.Step("render")()

	figures := []struct {
		present bool
		render  func() (string, error)
	}{
		{s.Correlation != nil, func() (string, error) { return r.CorrelationHeatmap(s.NumericFeatures, s.Correlation) }},
		{len(s.TopCities) > 0, func() (string, error) { return r.TopCities(s.TopCities) }},
		{len(s.Severity) > 0, func() (string, error) { return r.SeverityPie(s.Severity) }},
		{len(s.RoadCondition) > 0, func() (string, error) { return r.RoadConditionPie(s.RoadCondition) }},
		{len(s.Weather) > 0, func() (string, error) { return r.WeatherConditions(s.Weather) }},
		{len(s.Hours) > 0, func() (string, error) { return r.TimeOfDay(s.Hours) }},
		{s.Locations != nil && s.Locations.Points() > 0, func() (string, error) { return r.Locations(s.Locations) }},
		{len(s.TemperatureBySeverity) > 0, func() (string, error) { return r.TemperatureBySeverity(s.TemperatureBySeverity) }},
		{s.WindBySeverity != nil && len(s.WindBySeverity.Groups) > 0, func() (string, error) { return r.WindBySeverity(s.WindBySeverity) }},
		{s.TemperatureDensity != nil, func() (string, error) { return r.TemperatureDensity(s.TemperatureDensity) }},
		{s.Pairs != nil && len(s.Pairs.Names) > 0, func() (string, error) { return r.PairPlot(s.Pairs) }},
	}

	var written []string
	for _, fig := range figures {
		if !fig.present {
			continue
		}
		path, err := fig.render()
		if err != nil {
			return written, err
		}
		monitoring.Logf("[render] wrote %s", path)
		written = append(written, path)
	}
	return written, nil
}

// FormatTimestamp generates a timestamp string for directory naming.
func FormatTimestamp(t time.Time) string {
	return t.Format("20060102_150405")
}

// MakeOutputDir returns the directory for one run's figures:
// <baseDir>/<source basename without extension>/<timestamp>. The basename is
// reduced to filename-safe characters.
func MakeOutputDir(baseDir, source string, now time.Time) string {
	base := filepath.Base(source)
	name := base[:len(base)-len(filepath.Ext(base))]
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "dataset"
	}
	name = security.SanitizeFilename(name)
	return filepath.Join(baseDir, name, FormatTimestamp(now))
}
