// Package dataset provides a small column-oriented table for the accident
// records: CSV loading with dtype inference, missing-value tracking and the
// column operations the cleaning pipeline needs.
package dataset

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Kind is the inferred storage type of a column.
type Kind int

const (
	// Numeric columns hold float64 values; nulls are NaN.
	Numeric Kind = iota
	// Bool columns hold True/False flags.
	Bool
	// Text columns hold free-form strings (categorical features).
	Text
	// Datetime columns hold parsed timestamps.
	Datetime
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Bool:
		return "bool"
	case Text:
		return "text"
	case Datetime:
		return "datetime"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Column is a single named column. raw keeps the original cell text so a
// column can be re-parsed after its kind changes.
type Column struct {
	Name string
	Kind Kind

	raw  []string
	null []bool
	num  []float64   // Numeric only
	ts   []time.Time // Datetime only
}

// NewColumn builds a column from raw cells, marking missing tokens as null
// and inferring its kind.
func NewColumn(name string, cells []string) *Column {
	return fromSeries(textSeries(name, cells))
}

// fromSeries builds a column from a string series whose NA elements are the
// missing cells. A column is Numeric when every present cell parses as a
// float, Bool when every cell is True/False, and Text otherwise.
func fromSeries(s series.Series) *Column {
	c := &Column{
		Name: s.Name,
		raw:  s.Records(),
		null: s.IsNaN(),
	}
	num, failed := parseFloats(c.Name, c.raw, c.null)
	switch {
	case !anyTrue(failed):
		c.Kind = Numeric
		c.num = num
		nullNonFinite(c.num, c.null)
	case boolColumn(c.raw, c.null):
		c.Kind = Bool
	default:
		c.Kind = Text
	}
	return c
}

// Len returns the number of cells.
func (c *Column) Len() int { return len(c.raw) }

// IsNull reports whether cell i is missing.
func (c *Column) IsNull(i int) bool { return c.null[i] }

// NonNull returns the number of present cells.
func (c *Column) NonNull() int {
	n := 0
	for _, isNull := range c.null {
		if !isNull {
			n++
		}
	}
	return n
}

// Raw returns the original text of cell i.
func (c *Column) Raw(i int) string { return c.raw[i] }

// String renders cell i for display. Nulls render as NaN (NaT for datetimes).
func (c *Column) String(i int) string {
	if c.null[i] {
		if c.Kind == Datetime {
			return "NaT"
		}
		return "NaN"
	}
	switch c.Kind {
	case Numeric:
		return strconv.FormatFloat(c.num[i], 'f', -1, 64)
	case Datetime:
		return c.ts[i].Format("2006-01-02 15:04:05")
	default:
		return c.raw[i]
	}
}

// Float returns the numeric value of cell i and whether it is present.
func (c *Column) Float(i int) (float64, bool) {
	if c.Kind != Numeric || c.null[i] {
		return math.NaN(), false
	}
	return c.num[i], true
}

// Time returns the timestamp of cell i and whether it is present.
func (c *Column) Time(i int) (time.Time, bool) {
	if c.Kind != Datetime || c.null[i] {
		return time.Time{}, false
	}
	return c.ts[i], true
}

// Label returns the grouping label of cell i: the raw text for text and
// bool columns and the formatted value for numeric ones, so "2" and "2.0"
// group together.
func (c *Column) Label(i int) string {
	if c.Kind == Numeric && !c.null[i] {
		return strconv.FormatFloat(c.num[i], 'f', -1, 64)
	}
	return c.raw[i]
}

func (c *Column) take(idx []int) *Column {
	out := &Column{
		Name: c.Name,
		Kind: c.Kind,
		raw:  make([]string, len(idx)),
		null: make([]bool, len(idx)),
	}
	if c.num != nil {
		out.num = make([]float64, len(idx))
	}
	if c.ts != nil {
		out.ts = make([]time.Time, len(idx))
	}
	for j, i := range idx {
		out.raw[j] = c.raw[i]
		out.null[j] = c.null[i]
		if c.num != nil {
			out.num[j] = c.num[i]
		}
		if c.ts != nil {
			out.ts[j] = c.ts[i]
		}
	}
	return out
}

func (c *Column) clone() *Column {
	out := &Column{
		Name: c.Name,
		Kind: c.Kind,
		raw:  append([]string(nil), c.raw...),
		null: append([]bool(nil), c.null...),
	}
	if c.num != nil {
		out.num = append([]float64(nil), c.num...)
	}
	if c.ts != nil {
		out.ts = append([]time.Time(nil), c.ts...)
	}
	return out
}

// Frame is an ordered set of equal-length columns.
type Frame struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// NewFrame assembles a frame from columns. All columns must have the same
// length and distinct names.
func NewFrame(cols ...*Column) (*Frame, error) {
	f := &Frame{index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if i == 0 {
			f.rows = c.Len()
		} else if c.Len() != f.rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", c.Name, c.Len(), f.rows)
		}
		if _, dup := f.index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		f.index[c.Name] = i
		f.cols = append(f.cols, c)
	}
	return f, nil
}

// FromRecords builds a frame from a header and row-major records. Short rows
// are padded with nulls; long rows are an error.
func FromRecords(header []string, records [][]string) (*Frame, error) {
	names := uniqueNames(header)
	table := make([][]string, 0, len(records)+1)
	table = append(table, names)
	for i, rec := range records {
		if len(rec) > len(names) {
			return nil, fmt.Errorf("row %d: %d fields, header has %d", i+1, len(rec), len(names))
		}
		row := make([]string, len(names))
		copy(row, rec)
		table = append(table, row)
	}

	cols := make([]*Column, len(names))
	if len(records) == 0 {
		for j, name := range names {
			cols[j] = NewColumn(name, nil)
		}
		return NewFrame(cols...)
	}

	df := dataframe.LoadRecords(table,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(missingTokens),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to load records: %w", df.Err)
	}
	for j, name := range names {
		cols[j] = fromSeries(df.Col(name))
	}
	return NewFrame(cols...)
}

// uniqueNames suffixes repeated header names with .1, .2, ...
func uniqueNames(header []string) []string {
	seen := make(map[string]int, len(header))
	out := make([]string, len(header))
	for i, h := range header {
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		for {
			n, ok := seen[name]
			if !ok {
				break
			}
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", h, n+1)
		}
		seen[name] = 0
		out[i] = name
	}
	return out
}

// Len returns the number of rows.
func (f *Frame) Len() int { return f.rows }

// Width returns the number of columns.
func (f *Frame) Width() int { return len(f.cols) }

// Columns returns the columns in order. The slice must not be modified.
func (f *Frame) Columns() []*Column { return f.cols }

// Names returns the column names in order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.Name
	}
	return names
}

// Has reports whether the frame has a column called name.
func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Column returns the named column or nil.
func (f *Frame) Column(name string) *Column {
	i, ok := f.index[name]
	if !ok {
		return nil
	}
	return f.cols[i]
}

func (f *Frame) reindex() {
	f.index = make(map[string]int, len(f.cols))
	for i, c := range f.cols {
		f.index[c.Name] = i
	}
}

// AddColumn appends c, replacing any existing column with the same name in
// place.
func (f *Frame) AddColumn(c *Column) error {
	if len(f.cols) > 0 && c.Len() != f.rows {
		return fmt.Errorf("column %q has %d rows, expected %d", c.Name, c.Len(), f.rows)
	}
	if len(f.cols) == 0 {
		f.rows = c.Len()
	}
	if i, ok := f.index[c.Name]; ok {
		f.cols[i] = c
		return nil
	}
	f.cols = append(f.cols, c)
	f.index[c.Name] = len(f.cols) - 1
	return nil
}
