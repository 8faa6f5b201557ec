package plots

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/accident.report/internal/dataset"
)

// pieChart is a plot.Plotter drawing wedges counter-clockwise from a start
// angle, with percentage labels inside and category labels outside.
type pieChart struct {
	counts   []dataset.Count
	colors   []color.Color
	startDeg float64
}

// DataRange keeps the axes symmetric around the pie.
func (pc *pieChart) DataRange() (xmin, xmax, ymin, ymax float64) {
	return -1, 1, -1, 1
}

func (pc *pieChart) Plot(c draw.Canvas, _ *plot.Plot) {
	total := 0
	for _, cnt := range pc.counts {
		total += cnt.Count
	}
	if total == 0 {
		return
	}

	center := vg.Point{X: (c.Min.X + c.Max.X) / 2, Y: (c.Min.Y + c.Max.Y) / 2}
	radius := 0.38 * vg.Length(math.Min(float64(c.Max.X-c.Min.X), float64(c.Max.Y-c.Min.Y)))
	at := func(angle float64, scale vg.Length) vg.Point {
		return vg.Point{
			X: center.X + scale*vg.Length(math.Cos(angle)),
			Y: center.Y + scale*vg.Length(math.Sin(angle)),
		}
	}

	pctStyle := textStyle(10, plainText)
	nameStyle := textStyle(11, plainText)
	angle := pc.startDeg * math.Pi / 180
	for i, cnt := range pc.counts {
		frac := float64(cnt.Count) / float64(total)
		sweep := 2 * math.Pi * frac

		steps := int(math.Ceil(sweep / (2 * math.Pi) * 180))
		if steps < 2 {
			steps = 2
		}
		pts := []vg.Point{center}
		for s := 0; s <= steps; s++ {
			pts = append(pts, at(angle+sweep*float64(s)/float64(steps), radius))
		}
		c.FillPolygon(pc.colors[i%len(pc.colors)], pts)

		mid := angle + sweep/2
		c.FillText(pctStyle, at(mid, radius*0.6), fmt.Sprintf("%.1f%%", 100*frac))

		sty := nameStyle
		if math.Cos(mid) < 0 {
			sty.XAlign = draw.XRight
		} else {
			sty.XAlign = draw.XLeft
		}
		c.FillText(sty, at(mid, radius*1.1), cnt.Label)

		angle += sweep
	}
}

func (r *Renderer) pie(title, file string, counts []dataset.Count, colors []color.Color, startDeg float64) (string, error) {
	if len(counts) == 0 {
		return "", fmt.Errorf("%s: no counts", file)
	}
	p := plot.New()
	p.Title.Text = title
	p.HideAxes()
	p.Add(&pieChart{counts: counts, colors: colors, startDeg: startDeg})
	return r.save(p, file)
}

// SeverityPie draws the share of each severity level in pastel colours.
func (r *Renderer) SeverityPie(counts []dataset.Count) (string, error) {
	return r.pie("Severity Count", FileSeverityPie, counts, pastel(len(counts)), 0)
}

// RoadConditionPie draws the share of each road condition starting from the
// twelve o'clock position.
func (r *Renderer) RoadConditionPie(counts []dataset.Count) (string, error) {
	return r.pie("Accidents by Road Condition", FileRoadPie, counts, set2(len(counts)), 90)
}
