// Package stats holds the descriptive statistics behind the accident plots:
// correlation matrices, histograms, kernel density estimates and box plot
// summaries. The numerics are delegated to gonum.
package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// CorrelationMatrix returns the Pearson correlation of every pair of columns
// using pairwise-complete observations: for each pair only the rows where both
// values are valid take part. A pair with fewer than two such rows, or with a
// constant side, correlates as NaN. The diagonal is 1 unless the column
// itself has no variance.
func CorrelationMatrix(cols [][]float64, valid [][]bool) (*mat.SymDense, error) {
	n := len(cols)
	if len(valid) != n {
		return nil, fmt.Errorf("have %d columns but %d validity masks", n, len(valid))
	}
	if n == 0 {
		return nil, fmt.Errorf("no columns to correlate")
	}
	rows := len(cols[0])
	for i := range cols {
		if len(cols[i]) != rows || len(valid[i]) != rows {
			return nil, fmt.Errorf("column %d has %d values and %d flags, expected %d", i, len(cols[i]), len(valid[i]), rows)
		}
	}

	corr := mat.NewSymDense(n, nil)
	x := make([]float64, 0, rows)
	y := make([]float64, 0, rows)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			x, y = x[:0], y[:0]
			for r := 0; r < rows; r++ {
				if valid[i][r] && valid[j][r] {
					x = append(x, cols[i][r])
					y = append(y, cols[j][r])
				}
			}
			corr.SetSym(i, j, pearson(x, y))
		}
	}
	return corr, nil
}

func pearson(x, y []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	if stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return math.NaN()
	}
	r := stat.Correlation(x, y, nil)
	// Rounding can push a perfect correlation just past the unit interval.
	return math.Max(-1, math.Min(1, r))
}
