package dataset

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueCounts(t *testing.T) {
	f := mustRead(t, "City\nDayton\nColumbus\nDayton\nN/A\nAkron\nColumbus\nDayton\nToledo\n", 0)
	counts, err := f.ValueCounts("City")
	require.NoError(t, err)

	want := []Count{
		{Label: "Dayton", Count: 3},
		{Label: "Columbus", Count: 2},
		{Label: "Akron", Count: 1},
		{Label: "Toledo", Count: 1},
	}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("ValueCounts mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, want[:2], NLargest(counts, 2))
	assert.Equal(t, want, NLargest(counts, 10))
	assert.Empty(t, NLargest(counts, -1))

	_, err = f.ValueCounts("Absent")
	assert.Error(t, err)
}

func TestValueCounts_NumericLabels(t *testing.T) {
	f := mustRead(t, "Severity\n2\n2.0\n3\n", 0)
	counts, err := f.ValueCounts("Severity")
	require.NoError(t, err)
	assert.Equal(t, []Count{{Label: "2", Count: 2}, {Label: "3", Count: 1}}, counts)
}

func TestUniqueAndGroupBy(t *testing.T) {
	f := mustRead(t, "State,v\nOH,1\nCA,2\nOH,3\n,4\n", 0)

	uniq, err := f.Unique("State")
	require.NoError(t, err)
	assert.Equal(t, []string{"OH", "CA"}, uniq)

	groups, err := f.GroupBy("State")
	require.NoError(t, err)
	want := []Group{{Label: "OH", Rows: []int{0, 2}}, {Label: "CA", Rows: []int{1}}}
	if diff := cmp.Diff(want, groups); diff != "" {
		t.Errorf("GroupBy mismatch (-want +got):\n%s", diff)
	}

	_, err = f.Unique("Absent")
	assert.Error(t, err)
	_, err = f.GroupBy("Absent")
	assert.Error(t, err)
}
