// Package report writes the tabular and interactive outputs of a run: console
// tables, an HTML chart page and an XLSX workbook.
package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/banshee-data/accident.report/internal/analysis"
	"github.com/banshee-data/accident.report/internal/dataset"
)

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	if title != "" {
		t.SetTitle(title)
	}
	return t
}

// PrintHead prints the first n rows of f.
func PrintHead(w io.Writer, title string, f *dataset.Frame, n int) {
	t := newTable(w, title)
	header := table.Row{""}
	for _, name := range f.Names() {
		header = append(header, name)
	}
	t.AppendHeader(header)
	for i, row := range f.Head(n) {
		r := table.Row{i}
		for _, cell := range row {
			r = append(r, cell)
		}
		t.AppendRow(r)
	}
	t.Render()
}

// PrintInfo prints the shape of f and a per-column type and missing-value
// table.
func PrintInfo(w io.Writer, f *dataset.Frame) {
	fmt.Fprintf(w, "Number of columns: %d\n", f.Width())
	fmt.Fprintf(w, "Number of rows: %d\n", f.Len())

	t := newTable(w, "")
	t.AppendHeader(table.Row{"#", "Column", "Non-Null Count", "Null %", "Dtype"})
	for i, ci := range f.Info() {
		t.AppendRow(table.Row{i, ci.Name, ci.NonNull, fmt.Sprintf("%.1f", 100*ci.NullRatio), ci.Kind})
	}
	t.Render()
}

// PrintCleaning summarises what the cleaning pipeline removed and kept.
func PrintCleaning(w io.Writer, c *analysis.Cleaned) {
	t := newTable(w, "Cleaning")
	t.AppendHeader(table.Row{"Step", "Columns"})
	t.AppendRow(table.Row{"dropped (missing values)", joinOrDash(c.Sparse)})
	t.AppendRow(table.Row{"removed (unused)", joinOrDash(c.Removed)})
	t.AppendRow(table.Row{"categorical features", joinOrDash(c.Categorical)})
	t.AppendRow(table.Row{"numeric features", joinOrDash(c.Numeric)})
	for _, name := range sortedKeys(c.Coerced) {
		t.AppendRow(table.Row{"coerced " + name, fmt.Sprintf("%d values set to NaN", c.Coerced[name])})
	}
	t.Render()
}

// PrintCounts prints a value count table.
func PrintCounts(w io.Writer, title string, counts []dataset.Count) {
	if len(counts) == 0 {
		return
	}
	t := newTable(w, title)
	t.AppendHeader(table.Row{"Value", "Count"})
	total := 0
	for _, c := range counts {
		t.AppendRow(table.Row{c.Label, c.Count})
		total += c.Count
	}
	t.AppendFooter(table.Row{"Total", total})
	t.Render()
}

// PrintSummary prints the count tables of s and the list of skipped figures.
func PrintSummary(w io.Writer, s *analysis.Summary) {
	PrintCounts(w, "Top Cities", s.TopCities)
	PrintCounts(w, "Severity", s.Severity)
	PrintCounts(w, "Road Condition", s.RoadCondition)
	PrintCounts(w, "Weather Conditions", s.Weather)
	for _, reason := range s.Skipped {
		fmt.Fprintf(w, "skipped %s\n", reason)
	}
}
