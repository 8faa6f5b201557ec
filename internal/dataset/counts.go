package dataset

import (
	"fmt"
	"sort"
)

// Count is one row of a value count table.
type Count struct {
	Label string
	Count int
}

// ValueCounts tallies the present values of a column, most frequent first.
// Ties keep the order in which values first appear.
func (f *Frame) ValueCounts(name string) ([]Count, error) {
	c := f.Column(name)
	if c == nil {
		return nil, fmt.Errorf("column %q not found", name)
	}
	pos := make(map[string]int)
	var counts []Count
	for i := 0; i < c.Len(); i++ {
		if c.null[i] {
			continue
		}
		label := c.Label(i)
		if j, ok := pos[label]; ok {
			counts[j].Count++
			continue
		}
		pos[label] = len(counts)
		counts = append(counts, Count{Label: label, Count: 1})
	}
	sort.SliceStable(counts, func(a, b int) bool {
		return counts[a].Count > counts[b].Count
	})
	return counts, nil
}

// NLargest returns at most the first n entries of counts, which must already
// be sorted by ValueCounts.
func NLargest(counts []Count, n int) []Count {
	if n < 0 {
		n = 0
	}
	if len(counts) > n {
		return counts[:n]
	}
	return counts
}

// Unique returns the distinct present labels of a column in first-appearance
// order.
func (f *Frame) Unique(name string) ([]string, error) {
	c := f.Column(name)
	if c == nil {
		return nil, fmt.Errorf("column %q not found", name)
	}
	seen := make(map[string]bool)
	var out []string
	for i := 0; i < c.Len(); i++ {
		if c.null[i] {
			continue
		}
		label := c.Label(i)
		if seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, label)
	}
	return out, nil
}

// Group holds the row indices sharing one label.
type Group struct {
	Label string
	Rows  []int
}

// GroupBy partitions the rows with a present key into groups in
// first-appearance order of the key.
func (f *Frame) GroupBy(name string) ([]Group, error) {
	c := f.Column(name)
	if c == nil {
		return nil, fmt.Errorf("column %q not found", name)
	}
	pos := make(map[string]int)
	var groups []Group
	for i := 0; i < c.Len(); i++ {
		if c.null[i] {
			continue
		}
		label := c.Label(i)
		j, ok := pos[label]
		if !ok {
			j = len(groups)
			pos[label] = j
			groups = append(groups, Group{Label: label})
		}
		groups[j].Rows = append(groups[j].Rows, i)
	}
	return groups, nil
}
