package dataset

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `ID,Severity,City,Temperature(F),Amenity,Start_Time,Wind_Chill(F)
A-1,3,Dayton,36.9,False,2016-02-08 05:46:00,
A-2,2,Reynoldsburg,37.9,False,2016-02-08 06:07:59,
A-3,2,Dayton,N/A,True,2016-02-08 06:49:27,33.3
A-4,3,Columbus,35.1,False,not a time,
`

func mustRead(t *testing.T, data string, limit int) *Frame {
	t.Helper()
	f, err := ReadCSV(strings.NewReader(data), limit)
	require.NoError(t, err)
	return f
}

func TestReadCSV_InfersKinds(t *testing.T) {
	f := mustRead(t, sampleCSV, 0)

	assert.Equal(t, 4, f.Len())
	assert.Equal(t, 7, f.Width())
	assert.Equal(t, []string{"ID", "Severity", "City", "Temperature(F)", "Amenity", "Start_Time", "Wind_Chill(F)"}, f.Names())

	kinds := map[string]Kind{
		"ID":             Text,
		"Severity":       Numeric,
		"City":           Text,
		"Temperature(F)": Numeric,
		"Amenity":        Bool,
		"Start_Time":     Text,
		"Wind_Chill(F)":  Numeric,
	}
	for name, want := range kinds {
		assert.Equal(t, want, f.Column(name).Kind, "kind of %s", name)
	}

	temp := f.Column("Temperature(F)")
	assert.True(t, temp.IsNull(2))
	v, ok := temp.Float(0)
	assert.True(t, ok)
	assert.InDelta(t, 36.9, v, 1e-9)
}

func TestReadCSV_Limit(t *testing.T) {
	f := mustRead(t, sampleCSV, 2)
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, "A-2", f.Column("ID").Raw(1))
}

func TestReadCSV_Errors(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader(""), 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no header")
	})

	t.Run("too many fields", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("a,b\n1,2,3\n"), 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "3 fields, header has 2")
	})

	t.Run("header only", func(t *testing.T) {
		f := mustRead(t, "a,b\n", 0)
		assert.Equal(t, 0, f.Len())
		assert.Equal(t, 2, f.Width())
	})
}

func TestReadCSV_ShortRowsArePadded(t *testing.T) {
	f := mustRead(t, "a,b,c\n1,x\n", 0)
	assert.True(t, f.Column("c").IsNull(0))
	assert.Equal(t, Numeric, f.Column("c").Kind)
}

func TestReadCSV_DuplicateHeaders(t *testing.T) {
	f := mustRead(t, "a,a,b,a\n1,2,3,4\n", 0)
	assert.Equal(t, []string{"a", "a.1", "b", "a.2"}, f.Names())
}

func TestReadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accidents.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0644))

	f, err := ReadCSVFile(path, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, f.Len())

	_, err = ReadCSVFile(filepath.Join(t.TempDir(), "missing.csv"), 0)
	assert.Error(t, err)
}

func TestIsMissing(t *testing.T) {
	for _, tok := range []string{"", "NA", "N/A", "NaN", "nan", "NULL", "null", "None", "#N/A", "<NA>"} {
		assert.True(t, IsMissing(tok), "token %q", tok)
	}
	for _, tok := range []string{"0", "none", "Clear", " "} {
		assert.False(t, IsMissing(tok), "token %q", tok)
	}
}

func TestColumn_String(t *testing.T) {
	f := mustRead(t, sampleCSV, 0)
	assert.Equal(t, "NaN", f.Column("Temperature(F)").String(2))
	assert.Equal(t, "3", f.Column("Severity").String(0))
	assert.Equal(t, "Dayton", f.Column("City").String(0))
}

func TestNewFrame_Validation(t *testing.T) {
	a := NewColumn("a", []string{"1", "2"})
	b := NewColumn("b", []string{"1"})
	_, err := NewFrame(a, b)
	assert.Error(t, err)

	_, err = NewFrame(a, NewColumn("a", []string{"3", "4"}))
	assert.Error(t, err)
}

func TestFrame_AddColumnReplaces(t *testing.T) {
	f := mustRead(t, "a,b\n1,2\n3,4\n", 0)
	require.NoError(t, f.AddColumn(NewColumn("a", []string{"x", "y"})))
	assert.Equal(t, []string{"a", "b"}, f.Names())
	assert.Equal(t, Text, f.Column("a").Kind)

	assert.Error(t, f.AddColumn(NewColumn("c", []string{"1"})))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "numeric", Numeric.String())
	assert.Equal(t, "datetime", Datetime.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}

func TestAllNullColumnIsNumeric(t *testing.T) {
	c := NewColumn("empty", []string{"", "NA"})
	assert.Equal(t, Numeric, c.Kind)
	v, ok := c.Float(0)
	assert.False(t, ok)
	assert.True(t, math.IsNaN(v))
}

func TestReadCSV_InfinitiesAreMissing(t *testing.T) {
	f := mustRead(t, "Start_Lat,Start_Lng\n40.1,-83.0\ninf,-82.9\n39.8,-Infinity\n", 0)

	lat := f.Column("Start_Lat")
	assert.Equal(t, Numeric, lat.Kind)
	assert.True(t, lat.IsNull(1))
	assert.Equal(t, 2, lat.NonNull())

	vals, err := f.PresentFloats("Start_Lng")
	require.NoError(t, err)
	assert.Equal(t, []float64{-83.0, -82.9}, vals)
}

func TestCoerceNumeric_CountsInfinities(t *testing.T) {
	f := mustRead(t, "lat\n40.1\nunknown\n+Inf\n", 0)
	require.Equal(t, Text, f.Column("lat").Kind)

	nulled, err := f.CoerceNumeric("lat")
	require.NoError(t, err)
	assert.Equal(t, 2, nulled)
	assert.Equal(t, 1, f.Column("lat").NonNull())
}

func TestReadCSV_FlagsWithNullsAreText(t *testing.T) {
	f := mustRead(t, "Amenity,Bump\nTrue,False\n,True\nFalse,False\n", 0)
	assert.Equal(t, Text, f.Column("Amenity").Kind)
	assert.Equal(t, Bool, f.Column("Bump").Kind)
}

func TestReadCSV_UnnamedHeader(t *testing.T) {
	f := mustRead(t, ",a\n1,2\n", 0)
	assert.Equal(t, []string{"Unnamed: 0", "a"}, f.Names())
}
