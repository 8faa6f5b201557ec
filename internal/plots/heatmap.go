package plots

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg/draw"
)

// corrGrid adapts a correlation matrix to plotter.GridXYZ with the first
// feature in the top row.
type corrGrid struct {
	m *mat.SymDense
	n int
}

func (g corrGrid) Dims() (c, r int)   { return g.n, g.n }
func (g corrGrid) Z(c, r int) float64 { return g.m.At(g.n-1-r, c) }
func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }
func (g corrGrid) Min() float64       { return -1 }
func (g corrGrid) Max() float64       { return 1 }

// CorrelationHeatmap draws the annotated correlation matrix of the named
// numeric features on a blue-red diverging scale over [-1, 1].
func (r *Renderer) CorrelationHeatmap(names []string, corr *mat.SymDense) (string, error) {
	if corr == nil {
		return "", fmt.Errorf("correlation heatmap: no matrix")
	}
	n, _ := corr.Dims()
	if len(names) != n {
		return "", fmt.Errorf("correlation heatmap: %d names for %d features", len(names), n)
	}

	p := plot.New()
	p.Title.Text = "Correlation Heatmap"

	cm := moreland.SmoothBlueRed()
	cm.SetMin(-1)
	cm.SetMax(1)
	grid := corrGrid{m: corr, n: n}
	hm := plotter.NewHeatMap(grid, cm.Palette(255))
	hm.NaN = nanGrey
	p.Add(hm)

	var xys plotter.XYs
	var texts []string
	var values []float64
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			v := grid.Z(col, row)
			if math.IsNaN(v) {
				continue
			}
			xys = append(xys, plotter.XY{X: float64(col), Y: float64(row)})
			texts = append(texts, fmt.Sprintf("%.2f", v))
			values = append(values, v)
		}
	}
	if len(xys) > 0 {
		labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
		if err != nil {
			return "", fmt.Errorf("correlation heatmap: %w", err)
		}
		for i := range labels.TextStyle {
			var c color.Color = plainText
			if math.Abs(values[i]) > 0.6 {
				c = color.White
			}
			labels.TextStyle[i] = textStyle(9, c)
		}
		p.Add(labels)
	}

	rev := make([]string, n)
	for i, name := range names {
		rev[n-1-i] = name
	}
	p.NominalX(names...)
	p.NominalY(rev...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	return r.save(p, FileCorrelation)
}
