package plots

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/banshee-data/accident.report/internal/analysis"
)

const (
	pairCellSize = 2.5 * vg.Inch
	pairTitle    = "Pairplot of Sampled Numerical Features"
)

// PairPlot draws the lower triangle of a scatter matrix over the sampled
// numeric features with each feature's density on the diagonal.
func (r *Renderer) PairPlot(g *analysis.PairGrid) (string, error) {
	n := len(g.Names)
	if n == 0 || len(g.Columns) != n || len(g.Valid) != n {
		return "", fmt.Errorf("pair plot: malformed grid")
	}

	plots := make([][]*plot.Plot, n)
	for row := 0; row < n; row++ {
		plots[row] = make([]*plot.Plot, n)
		for col := 0; col <= row; col++ {
			p, err := pairCell(g, row, col)
			if err != nil {
				return "", fmt.Errorf("pair plot %s/%s: %w", g.Names[row], g.Names[col], err)
			}
			plots[row][col] = p
		}
	}

	titleHeight := vg.Points(60)
	width := vg.Length(n) * pairCellSize
	height := vg.Length(n)*pairCellSize + titleHeight
	img := vgimg.New(width, height)
	dc := draw.New(img)

	tiles := draw.Tiles{
		Rows:      n,
		Cols:      n,
		PadTop:    titleHeight,
		PadBottom: vg.Points(10),
		PadLeft:   vg.Points(10),
		PadRight:  vg.Points(10),
		PadX:      vg.Points(20),
		PadY:      vg.Points(20),
	}
	canvases := plot.Align(plots, tiles, dc)
	for row := range plots {
		for col, p := range plots[row] {
			if p != nil {
				p.Draw(canvases[row][col])
			}
		}
	}
	dc.FillText(textStyle(24, plainText), vg.Point{X: width / 2, Y: height - titleHeight/2}, pairTitle)

	path := filepath.Join(r.dir, FilePairPlot)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("pair plot: %w", err)
	}
	defer f.Close()
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		return "", fmt.Errorf("pair plot: %w", err)
	}
	return path, f.Close()
}

// pairCell builds one panel: a density on the diagonal, otherwise a scatter
// of column col against column row over rows where both are present.
func pairCell(g *analysis.PairGrid, row, col int) (*plot.Plot, error) {
	p := plot.New()
	if row == len(g.Names)-1 {
		p.X.Label.Text = g.Names[col]
	}
	if col == 0 {
		p.Y.Label.Text = g.Names[row]
	}

	if row == col {
		if d := g.Diagonal[row]; d != nil {
			line, err := densityLine(d)
			if err != nil {
				return nil, err
			}
			line.LineStyle.Color = pairBlue
			line.FillColor = pairBlue
			p.Add(line)
			p.Y.Min = 0
		}
		return p, nil
	}

	xs, ys := g.Columns[col], g.Columns[row]
	var xys plotter.XYs
	for i := range xs {
		if g.Valid[col][i] && g.Valid[row][i] {
			xys = append(xys, plotter.XY{X: xs[i], Y: ys[i]})
		}
	}
	if len(xys) == 0 {
		return p, nil
	}
	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	sc.GlyphStyle.Color = pairBlue
	sc.GlyphStyle.Radius = vg.Points(2.5)
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(sc)
	return p, nil
}
