package stats

import (
	"gonum.org/v1/gonum/floats"
)

// Bin is one histogram bin covering [Min, Max). The last bin of a histogram
// also includes Max.
type Bin struct {
	Min, Max float64
	Count    int
}

// Histogram splits values into n equal-width bins spanning their range. A
// constant series is binned over a unit-wide range centred on the value.
// NaNs are ignored. Empty input or n < 1 returns nil.
func Histogram(values []float64, n int) []Bin {
	values = finite(values)
	if len(values) == 0 || n < 1 {
		return nil
	}
	lo, hi := floats.Min(values), floats.Max(values)
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	edges := floats.Span(make([]float64, n+1), lo, hi)
	edges[n] = hi
	bins := make([]Bin, n)
	for i := range bins {
		bins[i] = Bin{Min: edges[i], Max: edges[i+1]}
	}
	width := (hi - lo) / float64(n)
	for _, v := range values {
		i := int((v - lo) / width)
		if i >= n {
			i = n - 1
		}
		// Guard against the computed index landing one bin off an edge.
		for i > 0 && v < bins[i].Min {
			i--
		}
		for i < n-1 && v >= bins[i].Max {
			i++
		}
		bins[i].Count++
	}
	return bins
}
