package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Box summarises a sample for a box plot. Whiskers reach the most extreme
// values within 1.5 IQR of the quartiles; anything further is an outlier.
type Box struct {
	N           int
	Min, Max    float64
	Q1          float64
	Median      float64
	Q3          float64
	WhiskerLow  float64
	WhiskerHigh float64
	Outliers    []float64
}

// IQR returns the interquartile range.
func (b Box) IQR() float64 { return b.Q3 - b.Q1 }

// BoxStats computes the box plot summary of values. NaNs are ignored. It
// reports false for an empty sample.
func BoxStats(values []float64) (Box, bool) {
	x := finite(values)
	if len(x) == 0 {
		return Box{}, false
	}
	sort.Float64s(x)

	b := Box{
		N:      len(x),
		Min:    x[0],
		Max:    x[len(x)-1],
		Q1:     Quantile(x, 0.25),
		Median: Quantile(x, 0.5),
		Q3:     Quantile(x, 0.75),
	}
	lo := b.Q1 - 1.5*b.IQR()
	hi := b.Q3 + 1.5*b.IQR()
	b.WhiskerLow, b.WhiskerHigh = b.Q1, b.Q3
	for _, v := range x {
		if v >= lo {
			b.WhiskerLow = math.Min(v, b.Q1)
			break
		}
	}
	for i := len(x) - 1; i >= 0; i-- {
		if x[i] <= hi {
			b.WhiskerHigh = math.Max(x[i], b.Q3)
			break
		}
	}
	for _, v := range x {
		if v < lo || v > hi {
			b.Outliers = append(b.Outliers, v)
		}
	}
	return b, true
}

// Quantile returns the p quantile of sorted by linear interpolation between
// closest ranks, h = (n-1)p. This is the default definition in most
// plotting libraries; gonum's stat.Quantile offers only the empirical and
// the (np)-based interpolating forms.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return math.NaN()
	case n == 1 || p <= 0:
		return sorted[0]
	case p >= 1:
		return sorted[n-1]
	}
	h := float64(n-1) * p
	i := int(math.Floor(h))
	if i+1 >= n {
		return sorted[n-1]
	}
	frac := h - float64(i)
	return sorted[i] + frac*(sorted[i+1]-sorted[i])
}

// Mean returns the arithmetic mean of the finite values, or NaN when there
// are none.
func Mean(values []float64) float64 {
	x := finite(values)
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.Mean(x, nil)
}
