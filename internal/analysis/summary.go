package analysis

import (
	"fmt"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/accident.report/internal/config"
	"github.com/banshee-data/accident.report/internal/dataset"
	"github.com/banshee-data/accident.report/internal/monitoring"
	"github.com/banshee-data/accident.report/internal/stats"
)

// Summary holds the dataset behind every figure. A nil field means the
// figure's columns were not available and it is skipped.
type Summary struct {
	Rows int

	NumericFeatures []string
	Correlation     *mat.SymDense

	TopCities     []dataset.Count
	Severity      []dataset.Count
	RoadCondition []dataset.Count
	Weather       []dataset.Count

	Hours []stats.Bin

	Locations *Locations

	TemperatureBySeverity []SeverityBox
	WindBySeverity        *Violins
	TemperatureDensity    *stats.Density

	Pairs *PairGrid

	// Skipped names the figures that could not be produced, with the reason.
	Skipped []string
}

// StateLocations are the accident coordinates of one state.
type StateLocations struct {
	State    string
	Lng, Lat []float64
	// Centroid is the mean position used to place the state label.
	CentroidLng, CentroidLat float64
}

// Locations are the accident coordinates grouped by state in the order the
// states first appear.
type Locations struct {
	States []StateLocations
}

// Points returns the total number of plotted coordinates.
func (l *Locations) Points() int {
	n := 0
	for _, s := range l.States {
		n += len(s.Lng)
	}
	return n
}

// SeverityBox is the box plot summary of one severity level and the values
// it was computed from.
type SeverityBox struct {
	Severity string
	Box      stats.Box
	Values   []float64
}

// Violin is the density of one severity level. A level without spread has
// no density and is drawn as a flat line at Box.Median.
type Violin struct {
	Severity   string
	Density    stats.Density
	HasDensity bool
	Box        stats.Box
}

// Violins are the per-severity densities. MaxDensity is the largest density
// across all levels so widths are comparable between violins.
type Violins struct {
	Groups     []Violin
	MaxDensity float64
}

// PairGrid is the sampled numeric table behind the pair plot.
type PairGrid struct {
	Names   []string
	Columns [][]float64
	Valid   [][]bool
	// Diagonal holds the density of each column, nil when it has no spread.
	Diagonal   []*stats.Density
	SampleSize int
}

// Summarise computes every figure dataset from a cleaned frame.
func Summarise(c *Cleaned, cfg *config.AnalysisConfig) (*Summary, error) {
	if c == nil || c.Frame == nil {
		return nil, fmt.Errorf("summarise: nothing to summarise")
	}
	if cfg == nil {
		cfg = config.DefaultAnalysisConfig()
	}
	defer monitoring.Step("summarise")()

	f := c.Frame
	s := &Summary{Rows: f.Len(), NumericFeatures: c.Numeric}
	skip := func(figure string, cols ...string) {
		reason := fmt.Sprintf("%s: requires %v", figure, cols)
		s.Skipped = append(s.Skipped, reason)
		monitoring.Logf("[summarise] skipping %s", reason)
	}
	has := func(cols ...string) bool {
		for _, col := range cols {
			if !f.Has(col) {
				return false
			}
		}
		return true
	}

	if len(c.Numeric) > 0 {
		corr, err := correlation(f, c.Numeric)
		if err != nil {
			return nil, err
		}
		s.Correlation = corr
	} else {
		skip("correlation heatmap", "numeric features")
	}

	var err error
	topN := cfg.GetTopN()
	if has(ColCity) {
		if s.TopCities, err = topCounts(f, ColCity, topN); err != nil {
			return nil, err
		}
	} else {
		skip("top cities", ColCity)
	}
	if has(ColSeverity) {
		if s.Severity, err = f.ValueCounts(ColSeverity); err != nil {
			return nil, err
		}
	} else {
		skip("severity pie", ColSeverity)
	}
	if has(ColRoadCondition) {
		if s.RoadCondition, err = f.ValueCounts(ColRoadCondition); err != nil {
			return nil, err
		}
	} else {
		skip("road condition pie", ColRoadCondition)
	}
	if has(ColWeather) {
		if s.Weather, err = topCounts(f, ColWeather, topN); err != nil {
			return nil, err
		}
	} else {
		skip("weather conditions", ColWeather)
	}

	if hours, err := numericColumn(f, ColHours); err == nil && len(hours) > 0 {
		s.Hours = stats.Histogram(hours, cfg.GetHourBins())
	} else {
		skip("time of day", ColHours)
	}

	if has(ColLng, ColLat, ColState) {
		if s.Locations, err = locations(f); err != nil {
			return nil, err
		}
	} else {
		skip("accident locations", ColLng, ColLat, ColState)
	}

	if has(ColSeverity, ColTemperature) {
		if s.TemperatureBySeverity, err = boxesBySeverity(f, ColTemperature); err != nil {
			skip("temperature by severity", "numeric "+ColTemperature)
		}
	} else {
		skip("temperature by severity", ColSeverity, ColTemperature)
	}
	if has(ColSeverity, ColWindSpeed) {
		if s.WindBySeverity, err = violinsBySeverity(f, ColWindSpeed); err != nil {
			skip("wind by severity", "numeric "+ColWindSpeed)
		}
	} else {
		skip("wind by severity", ColSeverity, ColWindSpeed)
	}

	if temps, err := numericColumn(f, ColTemperature); err == nil && len(temps) > 0 {
		if d, ok := stats.KDE(temps, stats.DensityGridSize, stats.DensityCut); ok {
			s.TemperatureDensity = &d
		} else {
			skip("temperature density", "two distinct "+ColTemperature+" values")
		}
	} else {
		skip("temperature density", ColTemperature)
	}

	if len(c.Numeric) > 0 && f.Len() > 0 {
		if s.Pairs, err = pairGrid(f, c.Numeric, cfg); err != nil {
			return nil, err
		}
	} else {
		skip("pair plot", "numeric features")
	}

	return s, nil
}

func correlation(f *dataset.Frame, names []string) (*mat.SymDense, error) {
	cols := make([][]float64, len(names))
	valid := make([][]bool, len(names))
	for i, name := range names {
		vals, ok, err := f.Floats(name)
		if err != nil {
			return nil, fmt.Errorf("correlation: %w", err)
		}
		cols[i], valid[i] = vals, ok
	}
	corr, err := stats.CorrelationMatrix(cols, valid)
	if err != nil {
		return nil, fmt.Errorf("correlation: %w", err)
	}
	return corr, nil
}

func topCounts(f *dataset.Frame, name string, n int) ([]dataset.Count, error) {
	counts, err := f.ValueCounts(name)
	if err != nil {
		return nil, err
	}
	return dataset.NLargest(counts, n), nil
}

// numericColumn returns the present values of a numeric column, or nil when
// the column is absent.
func numericColumn(f *dataset.Frame, name string) ([]float64, error) {
	if !f.Has(name) {
		return nil, nil
	}
	return f.PresentFloats(name)
}

func locations(f *dataset.Frame) (*Locations, error) {
	lng, lngOK, err := f.Floats(ColLng)
	if err != nil {
		return nil, fmt.Errorf("locations: %w", err)
	}
	lat, latOK, err := f.Floats(ColLat)
	if err != nil {
		return nil, fmt.Errorf("locations: %w", err)
	}
	groups, err := f.GroupBy(ColState)
	if err != nil {
		return nil, fmt.Errorf("locations: %w", err)
	}

	out := &Locations{}
	for _, g := range groups {
		sl := StateLocations{State: g.Label}
		for _, r := range g.Rows {
			if lngOK[r] && latOK[r] {
				sl.Lng = append(sl.Lng, lng[r])
				sl.Lat = append(sl.Lat, lat[r])
			}
		}
		if len(sl.Lng) == 0 {
			continue
		}
		sl.CentroidLng = stats.Mean(sl.Lng)
		sl.CentroidLat = stats.Mean(sl.Lat)
		out.States = append(out.States, sl)
	}
	return out, nil
}

// severityGroups returns the present values of col per severity level with
// levels ordered numerically when they are numbers.
func severityGroups(f *dataset.Frame, col string) ([]string, [][]float64, error) {
	vals, ok, err := f.Floats(col)
	if err != nil {
		return nil, nil, err
	}
	groups, err := f.GroupBy(ColSeverity)
	if err != nil {
		return nil, nil, err
	}
	sortLevels(groups)

	var labels []string
	var values [][]float64
	for _, g := range groups {
		var xs []float64
		for _, r := range g.Rows {
			if ok[r] {
				xs = append(xs, vals[r])
			}
		}
		if len(xs) == 0 {
			continue
		}
		labels = append(labels, g.Label)
		values = append(values, xs)
	}
	return labels, values, nil
}

func sortLevels(groups []dataset.Group) {
	sort.SliceStable(groups, func(i, j int) bool {
		a, errA := strconv.ParseFloat(groups[i].Label, 64)
		b, errB := strconv.ParseFloat(groups[j].Label, 64)
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return groups[i].Label < groups[j].Label
		}
	})
}

func boxesBySeverity(f *dataset.Frame, col string) ([]SeverityBox, error) {
	labels, values, err := severityGroups(f, col)
	if err != nil {
		return nil, fmt.Errorf("box plot of %s: %w", col, err)
	}
	var out []SeverityBox
	for i, label := range labels {
		b, ok := stats.BoxStats(values[i])
		if !ok {
			continue
		}
		out = append(out, SeverityBox{Severity: label, Box: b, Values: values[i]})
	}
	return out, nil
}

func violinsBySeverity(f *dataset.Frame, col string) (*Violins, error) {
	labels, values, err := severityGroups(f, col)
	if err != nil {
		return nil, fmt.Errorf("violin plot of %s: %w", col, err)
	}
	out := &Violins{}
	for i, label := range labels {
		b, ok := stats.BoxStats(values[i])
		if !ok {
			continue
		}
		v := Violin{Severity: label, Box: b}
		v.Density, v.HasDensity = stats.KDE(values[i], stats.ViolinGridSize, stats.ViolinCut)
		if v.HasDensity && v.Density.Max() > out.MaxDensity {
			out.MaxDensity = v.Density.Max()
		}
		out.Groups = append(out.Groups, v)
	}
	return out, nil
}

func pairGrid(f *dataset.Frame, names []string, cfg *config.AnalysisConfig) (*PairGrid, error) {
	n := cfg.GetPairSampleSize()
	if f.Len() < n {
		n = f.Len()
	}
	sub, err := f.Select(names...)
	if err != nil {
		return nil, fmt.Errorf("pair plot: %w", err)
	}
	sample := sub.Sample(n, cfg.GetSeed())

	g := &PairGrid{Names: names, SampleSize: sample.Len()}
	for _, name := range names {
		vals, ok, err := sample.Floats(name)
		if err != nil {
			return nil, fmt.Errorf("pair plot: %w", err)
		}
		g.Columns = append(g.Columns, vals)
		g.Valid = append(g.Valid, ok)

		var present []float64
		for i, v := range vals {
			if ok[i] {
				present = append(present, v)
			}
		}
		if d, ok := stats.KDE(present, stats.DensityGridSize, stats.DensityCut); ok {
			g.Diagonal = append(g.Diagonal, &d)
		} else {
			g.Diagonal = append(g.Diagonal, nil)
		}
	}
	return g, nil
}
