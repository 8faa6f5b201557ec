package dataset

import (
	"math"
	"strings"

	"github.com/go-gota/gota/series"
)

// naCell is the cell text gota reads as a missing element.
const naCell = "NaN"

// missingTokens are the cell values treated as missing when loading a CSV.
var missingTokens = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None", "n/a",
	"nan", "null",
}

var missingSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(missingTokens))
	for _, tok := range missingTokens {
		m[tok] = struct{}{}
	}
	return m
}()

// IsMissing reports whether a raw cell is a missing-value token.
func IsMissing(v string) bool {
	_, ok := missingSet[v]
	return ok
}

// textSeries builds a string series from raw cells with every missing token
// mapped to NA.
func textSeries(name string, cells []string) series.Series {
	marked := make([]string, len(cells))
	for i, v := range cells {
		if IsMissing(v) {
			marked[i] = naCell
			continue
		}
		marked[i] = v
	}
	return series.New(marked, series.String, name)
}

// parseFloats converts the present cells through a float series. failed
// marks the present cells that did not parse; null cells never fail and
// come back as NaN.
func parseFloats(name string, cells []string, null []bool) (vals []float64, failed []bool) {
	in := make([]string, len(cells))
	for i, v := range cells {
		if null[i] {
			in[i] = naCell
			continue
		}
		in[i] = strings.TrimSpace(v)
	}
	s := series.New(in, series.Float, name)
	vals = s.Float()
	na := s.IsNaN()
	failed = make([]bool, len(cells))
	for i := range vals {
		if null[i] {
			vals[i] = math.NaN()
			continue
		}
		failed[i] = na[i]
	}
	return vals, failed
}

// nullNonFinite marks NaN and infinite values null and returns how many
// present cells it nulled. Infinities cannot be placed on a plot axis.
func nullNonFinite(vals []float64, null []bool) int {
	n := 0
	for i, v := range vals {
		if null[i] {
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			vals[i] = math.NaN()
			null[i] = true
			n++
		}
	}
	return n
}

func isBool(v string) bool {
	return strings.EqualFold(v, "true") || strings.EqualFold(v, "false")
}

// boolColumn reports whether every cell is True/False. A flag column with
// missing cells is text, matching how mixed flags and nulls load as objects.
func boolColumn(cells []string, null []bool) bool {
	for i, v := range cells {
		if null[i] || !isBool(v) {
			return false
		}
	}
	return len(cells) > 0
}

func anyTrue(b []bool) bool {
	for _, v := range b {
		if v {
			return true
		}
	}
	return false
}
