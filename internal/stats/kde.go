package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Grid sizes and cut factors used for density curves and violins.
const (
	DensityGridSize = 200
	DensityCut      = 3.0
	ViolinGridSize  = 100
	ViolinCut       = 2.0
)

// Density is a kernel density estimate evaluated on an evenly spaced grid.
type Density struct {
	X, Y      []float64
	Bandwidth float64
	N         int
}

// Max returns the peak density.
func (d Density) Max() float64 {
	if len(d.Y) == 0 {
		return 0
	}
	return floats.Max(d.Y)
}

// ScottBandwidth returns Scott's rule of thumb bandwidth n^(-1/5) * sd, with
// sd the sample standard deviation.
func ScottBandwidth(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}
	return math.Pow(n, -0.2) * stat.StdDev(values, nil)
}

// KDE estimates the density of values with a Gaussian kernel and Scott's
// bandwidth, evaluated on gridSize points from min-cut*bw to max+cut*bw.
// It reports false when fewer than two finite values remain or they have no
// spread, since no bandwidth exists for them.
func KDE(values []float64, gridSize int, cut float64) (Density, bool) {
	values = finite(values)
	bw := ScottBandwidth(values)
	if bw <= 0 || math.IsNaN(bw) || gridSize < 2 {
		return Density{}, false
	}

	lo := floats.Min(values) - cut*bw
	hi := floats.Max(values) + cut*bw
	xs := floats.Span(make([]float64, gridSize), lo, hi)
	ys := make([]float64, gridSize)
	kernel := distuv.Normal{Mu: 0, Sigma: bw}
	inv := 1 / float64(len(values))
	for i, x := range xs {
		var sum float64
		for _, v := range values {
			sum += kernel.Prob(x - v)
		}
		ys[i] = sum * inv
	}
	return Density{X: xs, Y: ys, Bandwidth: bw, N: len(values)}, true
}

func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
