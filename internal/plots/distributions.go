package plots

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/accident.report/internal/analysis"
	"github.com/banshee-data/accident.report/internal/stats"
)

// TimeOfDay draws the hour-of-day histogram.
func (r *Renderer) TimeOfDay(bins []stats.Bin) (string, error) {
	if len(bins) == 0 {
		return "", fmt.Errorf("time of day: no bins")
	}
	p := plot.New()
	p.Title.Text = "Accidents by Time of Day"
	p.X.Label.Text = "Time of Day"
	p.Y.Label.Text = "Number of Accidents"

	h := &plotter.Histogram{
		Bins:      make([]plotter.HistogramBin, len(bins)),
		Width:     bins[0].Max - bins[0].Min,
		FillColor: histBlue,
		LineStyle: plotter.DefaultLineStyle,
	}
	h.LineStyle.Color = edgeGrey
	h.LineStyle.Width = vg.Points(0.5)
	for i, b := range bins {
		h.Bins[i] = plotter.HistogramBin{Min: b.Min, Max: b.Max, Weight: float64(b.Count)}
	}
	p.Add(h)
	p.Y.Min = 0

	return r.save(p, FileTimeOfDay)
}

// Locations draws every accident position coloured by state, with each
// state's code written at its mean position.
func (r *Renderer) Locations(l *analysis.Locations) (string, error) {
	if l == nil || l.Points() == 0 {
		return "", fmt.Errorf("accident locations: no points")
	}
	p := plot.New()
	p.Title.Text = "Accidents Location"
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"

	colors := generateColors(len(l.States), 204)
	var centroids plotter.XYs
	var names []string
	for i, st := range l.States {
		if len(st.Lng) == 0 {
			continue
		}
		xys := make(plotter.XYs, len(st.Lng))
		for j := range st.Lng {
			xys[j] = plotter.XY{X: st.Lng[j], Y: st.Lat[j]}
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return "", fmt.Errorf("accident locations %s: %w", st.State, err)
		}
		sc.GlyphStyle.Color = colors[i]
		sc.GlyphStyle.Radius = vg.Points(2)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)

		centroids = append(centroids, plotter.XY{X: st.CentroidLng, Y: st.CentroidLat})
		names = append(names, st.State)
	}

	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: centroids, Labels: names})
	if err != nil {
		return "", fmt.Errorf("accident locations: %w", err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i] = textStyle(11, plainText)
	}
	p.Add(labels)

	return r.save(p, FileLocations)
}

// TemperatureBySeverity draws one box per severity level. The boxes use the
// quartiles computed by the stats package rather than gonum's own.
func (r *Renderer) TemperatureBySeverity(boxes []analysis.SeverityBox) (string, error) {
	if len(boxes) == 0 {
		return "", fmt.Errorf("temperature by severity: no groups")
	}
	p := plot.New()
	p.Title.Text = "Boxplot of Temperature by Accident Severity"
	p.X.Label.Text = "Severity"
	p.Y.Label.Text = "Temperature (F)"

	colors := set2(len(boxes))
	names := make([]string, len(boxes))
	width := r.barWidth(len(boxes), r.width)
	for i, sb := range boxes {
		names[i] = sb.Severity
		b, err := plotter.NewBoxPlot(width, float64(i), plotter.Values(sb.Values))
		if err != nil {
			return "", fmt.Errorf("temperature by severity %s: %w", sb.Severity, err)
		}
		applyBox(b, sb.Box)
		b.FillColor = colors[i]
		p.Add(b)
	}
	p.NominalX(names...)

	return r.save(p, FileTempBySeverity)
}

// applyBox replaces the box plot's statistics with box and recomputes which
// values fall outside the whiskers.
func applyBox(b *plotter.BoxPlot, box stats.Box) {
	b.Quartile1 = box.Q1
	b.Median = box.Median
	b.Quartile3 = box.Q3
	b.AdjLow = box.WhiskerLow
	b.AdjHigh = box.WhiskerHigh
	lo := box.Q1 - 1.5*box.IQR()
	hi := box.Q3 + 1.5*box.IQR()
	b.Outside = b.Outside[:0]
	for i, v := range b.Values {
		if v < lo || v > hi {
			b.Outside = append(b.Outside, i)
		}
	}
}

// violinHalfWidth is the half width of the widest violin in category units.
const violinHalfWidth = 0.4

// WindBySeverity draws a mirrored density per severity level. Widths are
// scaled by the largest density over all levels, so areas are comparable.
func (r *Renderer) WindBySeverity(v *analysis.Violins) (string, error) {
	if v == nil || len(v.Groups) == 0 {
		return "", fmt.Errorf("wind by severity: no groups")
	}
	p := plot.New()
	p.Title.Text = "Violin Plot of Wind Speed by Accident Severity"
	p.X.Label.Text = "Severity"
	p.Y.Label.Text = "Wind Speed (mph)"

	colors := set2(len(v.Groups))
	names := make([]string, len(v.Groups))
	for i, g := range v.Groups {
		names[i] = g.Severity
		x := float64(i)
		if g.HasDensity && v.MaxDensity > 0 {
			n := len(g.Density.X)
			outline := make(plotter.XYs, 0, 2*n)
			for k := 0; k < n; k++ {
				outline = append(outline, plotter.XY{X: x + violinHalfWidth*g.Density.Y[k]/v.MaxDensity, Y: g.Density.X[k]})
			}
			for k := n - 1; k >= 0; k-- {
				outline = append(outline, plotter.XY{X: x - violinHalfWidth*g.Density.Y[k]/v.MaxDensity, Y: g.Density.X[k]})
			}
			poly, err := plotter.NewPolygon(outline)
			if err != nil {
				return "", fmt.Errorf("wind by severity %s: %w", g.Severity, err)
			}
			poly.Color = colors[i]
			poly.LineStyle.Color = edgeGrey
			poly.LineStyle.Width = vg.Points(1)
			p.Add(poly)
		} else {
			flat, err := plotter.NewLine(plotter.XYs{
				{X: x - violinHalfWidth, Y: g.Box.Median},
				{X: x + violinHalfWidth, Y: g.Box.Median},
			})
			if err != nil {
				return "", fmt.Errorf("wind by severity %s: %w", g.Severity, err)
			}
			flat.LineStyle.Color = colors[i]
			flat.LineStyle.Width = vg.Points(2)
			p.Add(flat)
		}
		if err := addInnerBox(p, x, g.Box); err != nil {
			return "", fmt.Errorf("wind by severity %s: %w", g.Severity, err)
		}
	}
	p.NominalX(names...)

	return r.save(p, FileWindBySeverity)
}

// addInnerBox draws the miniature box inside a violin: a thin whisker line,
// a thick interquartile bar and a white median dot.
func addInnerBox(p *plot.Plot, x float64, b stats.Box) error {
	whisker, err := plotter.NewLine(plotter.XYs{{X: x, Y: b.WhiskerLow}, {X: x, Y: b.WhiskerHigh}})
	if err != nil {
		return err
	}
	whisker.LineStyle.Color = edgeGrey
	whisker.LineStyle.Width = vg.Points(1.5)

	iqr, err := plotter.NewLine(plotter.XYs{{X: x, Y: b.Q1}, {X: x, Y: b.Q3}})
	if err != nil {
		return err
	}
	iqr.LineStyle.Color = edgeGrey
	iqr.LineStyle.Width = vg.Points(5)

	median, err := plotter.NewScatter(plotter.XYs{{X: x, Y: b.Median}})
	if err != nil {
		return err
	}
	median.GlyphStyle.Color = color.White
	median.GlyphStyle.Radius = vg.Points(2)
	median.GlyphStyle.Shape = draw.CircleGlyph{}

	p.Add(whisker, iqr, median)
	return nil
}

// TemperatureDensity draws the filled temperature density.
func (r *Renderer) TemperatureDensity(d *stats.Density) (string, error) {
	if d == nil || len(d.X) == 0 {
		return "", fmt.Errorf("temperature density: no estimate")
	}
	p := plot.New()
	p.Title.Text = "Density of Temperature by Accident Temperature"
	p.X.Label.Text = "Temperature (F)"
	p.Y.Label.Text = "Density"

	line, err := densityLine(d)
	if err != nil {
		return "", fmt.Errorf("temperature density: %w", err)
	}
	line.LineStyle.Color = kdeGreen
	line.FillColor = kdeFill
	p.Add(line)
	p.Y.Min = 0

	return r.save(p, FileTempDensity)
}

func densityLine(d *stats.Density) (*plotter.Line, error) {
	xys := make(plotter.XYs, len(d.X))
	for i := range d.X {
		xys[i] = plotter.XY{X: d.X[i], Y: d.Y[i]}
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Width = vg.Points(1.5)
	return line, nil
}
