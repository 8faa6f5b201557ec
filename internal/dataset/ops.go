package dataset

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat/sampleuv"
)

// DefaultTimeLayouts are tried in order by ParseDatetime when no layouts are
// given.
var DefaultTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
}

// ColumnInfo describes one column for the info table.
type ColumnInfo struct {
	Name      string
	Kind      Kind
	NonNull   int
	Null      int
	NullRatio float64
}

// Head returns the first n rows rendered as strings.
func (f *Frame) Head(n int) [][]string {
	if n > f.rows {
		n = f.rows
	}
	if n < 0 {
		n = 0
	}
	rows := make([][]string, n)
	for i := range rows {
		row := make([]string, len(f.cols))
		for j, c := range f.cols {
			row[j] = c.String(i)
		}
		rows[i] = row
	}
	return rows
}

// Info returns per-column type and missing-value counts.
func (f *Frame) Info() []ColumnInfo {
	out := make([]ColumnInfo, len(f.cols))
	for i, c := range f.cols {
		nonNull := c.NonNull()
		ratio := 0.0
		if f.rows > 0 {
			ratio = float64(f.rows-nonNull) / float64(f.rows)
		}
		out[i] = ColumnInfo{
			Name:      c.Name,
			Kind:      c.Kind,
			NonNull:   nonNull,
			Null:      f.rows - nonNull,
			NullRatio: ratio,
		}
	}
	return out
}

// DropSparse removes every column with fewer than Len()*(1-maxMissing)
// present values and returns the dropped names in column order.
func (f *Frame) DropSparse(maxMissing float64) []string {
	thresh := float64(f.rows) * (1 - maxMissing)
	var dropped []string
	kept := f.cols[:0]
	for _, c := range f.cols {
		if float64(c.NonNull()) < thresh {
			dropped = append(dropped, c.Name)
			continue
		}
		kept = append(kept, c)
	}
	f.cols = kept
	f.reindex()
	return dropped
}

// Drop removes the named columns, ignoring names that are not present, and
// returns the names actually removed.
func (f *Frame) Drop(names ...string) []string {
	remove := make(map[string]bool, len(names))
	for _, n := range names {
		remove[n] = true
	}
	var dropped []string
	kept := f.cols[:0]
	for _, c := range f.cols {
		if remove[c.Name] {
			dropped = append(dropped, c.Name)
			continue
		}
		kept = append(kept, c)
	}
	f.cols = kept
	f.reindex()
	return dropped
}

// Select returns a new frame with copies of the named columns. Absent names
// are an error.
func (f *Frame) Select(names ...string) (*Frame, error) {
	cols := make([]*Column, 0, len(names))
	for _, n := range names {
		c := f.Column(n)
		if c == nil {
			return nil, fmt.Errorf("column %q not found", n)
		}
		cols = append(cols, c.clone())
	}
	out, err := NewFrame(cols...)
	if err != nil {
		return nil, err
	}
	out.rows = f.rows
	return out, nil
}

// NamesOfKind returns the names of every column of the given kind.
func (f *Frame) NamesOfKind(kind Kind) []string {
	var names []string
	for _, c := range f.cols {
		if c.Kind == kind {
			names = append(names, c.Name)
		}
	}
	return names
}

// CoerceNumeric re-parses the named column as floats. Cells that do not
// parse, and infinities, become null. It returns how many previously present
// cells were nulled.
func (f *Frame) CoerceNumeric(name string) (int, error) {
	c := f.Column(name)
	if c == nil {
		return 0, fmt.Errorf("column %q not found", name)
	}
	num, failed := parseFloats(c.Name, c.raw, c.null)
	nulled := 0
	for i, bad := range failed {
		if bad {
			c.null[i] = true
			nulled++
		}
	}
	nulled += nullNonFinite(num, c.null)
	c.Kind = Numeric
	c.num = num
	c.ts = nil
	return nulled, nil
}

// ParseDatetime re-parses the named column as timestamps using layouts, or
// DefaultTimeLayouts when none are given. Unparseable cells become null.
// It returns how many previously present cells were nulled.
func (f *Frame) ParseDatetime(name string, layouts ...string) (int, error) {
	c := f.Column(name)
	if c == nil {
		return 0, fmt.Errorf("column %q not found", name)
	}
	if len(layouts) == 0 {
		layouts = DefaultTimeLayouts
	}
	nulled := 0
	ts := make([]time.Time, c.Len())
	for i, v := range c.raw {
		if c.null[i] {
			continue
		}
		t, ok := parseTime(strings.TrimSpace(v), layouts)
		if !ok {
			c.null[i] = true
			nulled++
			continue
		}
		ts[i] = t
	}
	c.Kind = Datetime
	c.ts = ts
	c.num = nil
	return nulled, nil
}

func parseTime(v string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DeriveHour adds (or replaces) a numeric column dst holding the hour of day
// of the datetime column src.
func (f *Frame) DeriveHour(src, dst string) error {
	c := f.Column(src)
	if c == nil {
		return fmt.Errorf("column %q not found", src)
	}
	if c.Kind != Datetime {
		return fmt.Errorf("column %q is %s, not datetime", src, c.Kind)
	}
	hours := &Column{
		Name: dst,
		Kind: Numeric,
		raw:  make([]string, c.Len()),
		null: make([]bool, c.Len()),
		num:  make([]float64, c.Len()),
	}
	for i := range c.raw {
		t, ok := c.Time(i)
		if !ok {
			hours.null[i] = true
			hours.num[i] = math.NaN()
			continue
		}
		hours.num[i] = float64(t.Hour())
		hours.raw[i] = fmt.Sprintf("%d", t.Hour())
	}
	return f.AddColumn(hours)
}

// Sample returns n rows drawn without replacement using a PCG source seeded
// with seed. Asking for at least Len() rows returns every row in shuffled
// order.
func (f *Frame) Sample(n int, seed uint64) *Frame {
	src := rand.NewPCG(seed, seed)
	var idx []int
	switch {
	case n <= 0 || f.rows == 0:
		idx = nil
	case n >= f.rows:
		idx = rand.New(src).Perm(f.rows)
	default:
		idx = make([]int, n)
		sampleuv.WithoutReplacement(idx, f.rows, src)
	}
	cols := make([]*Column, len(f.cols))
	for i, c := range f.cols {
		cols[i] = c.take(idx)
	}
	return &Frame{cols: cols, index: copyIndex(f.index), rows: len(idx)}
}

func copyIndex(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Floats returns the values of a numeric column with a validity mask.
func (f *Frame) Floats(name string) ([]float64, []bool, error) {
	c := f.Column(name)
	if c == nil {
		return nil, nil, fmt.Errorf("column %q not found", name)
	}
	if c.Kind != Numeric {
		return nil, nil, fmt.Errorf("column %q is %s, not numeric", name, c.Kind)
	}
	valid := make([]bool, c.Len())
	for i := range valid {
		valid[i] = !c.null[i]
	}
	return append([]float64(nil), c.num...), valid, nil
}

// PresentFloats returns only the present values of a numeric column.
func (f *Frame) PresentFloats(name string) ([]float64, error) {
	vals, valid, err := f.Floats(name)
	if err != nil {
		return nil, err
	}
	out := vals[:0]
	for i, v := range vals {
		if valid[i] {
			out = append(out, v)
		}
	}
	return out, nil
}
