package plots

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/accident.report/internal/dataset"
)

// TopCities draws the city counts as horizontal bars with the most frequent
// city on top.
func (r *Renderer) TopCities(counts []dataset.Count) (string, error) {
	if len(counts) == 0 {
		return "", fmt.Errorf("top cities: no counts")
	}
	p := plot.New()
	p.Title.Text = "Top 10 Accident Hotspots by City"
	p.X.Label.Text = "Number of Accidents"
	p.Y.Label.Text = "City"

	n := len(counts)
	colors := gradient(n)
	names := make([]string, n)
	for i, c := range counts {
		// Row 0 is drawn at the bottom, so the ranking is reversed.
		pos := n - 1 - i
		names[pos] = c.Label
		bar, err := plotter.NewBarChart(plotter.Values{float64(c.Count)}, r.barWidth(n, r.height))
		if err != nil {
			return "", fmt.Errorf("top cities: %w", err)
		}
		bar.Horizontal = true
		bar.XMin = float64(pos)
		bar.Color = colors[i]
		bar.LineStyle.Width = 0
		p.Add(bar)
	}
	p.NominalY(names...)
	p.X.Min = 0

	return r.save(p, FileTopCities)
}

// WeatherConditions draws the weather counts as vertical coral bars.
func (r *Renderer) WeatherConditions(counts []dataset.Count) (string, error) {
	if len(counts) == 0 {
		return "", fmt.Errorf("weather conditions: no counts")
	}
	p := plot.New()
	p.Title.Text = "Accidents by Weather Conditions"
	p.X.Label.Text = "Weather Condition"
	p.Y.Label.Text = "Number of Accidents"

	values := make(plotter.Values, len(counts))
	names := make([]string, len(counts))
	for i, c := range counts {
		values[i] = float64(c.Count)
		names[i] = c.Label
	}
	bar, err := plotter.NewBarChart(values, r.barWidth(len(counts), r.width))
	if err != nil {
		return "", fmt.Errorf("weather conditions: %w", err)
	}
	bar.Color = coral
	bar.LineStyle.Width = 0
	p.Add(bar)
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 2
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Y.Min = 0

	return r.save(p, FileWeather)
}

// barWidth sizes bars to fill most of their slot along an axis of the given
// length.
func (r *Renderer) barWidth(n int, axis vg.Length) vg.Length {
	if n < 1 {
		n = 1
	}
	return axis * 0.6 / vg.Length(n)
}
