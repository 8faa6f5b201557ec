package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/accident.report/internal/config"
	"github.com/banshee-data/accident.report/internal/dataset"
	"github.com/banshee-data/accident.report/internal/testutil"
)

func loadFixture(t *testing.T, opts testutil.FixtureOptions) *dataset.Frame {
	t.Helper()
	f, err := dataset.ReadCSV(strings.NewReader(testutil.AccidentsCSV(opts)), 0)
	require.NoError(t, err)
	return f
}

func TestClean(t *testing.T) {
	f := loadFixture(t, testutil.FixtureOptions{Rows: 300, Seed: 1})
	c, err := Clean(f, config.DefaultAnalysisConfig())
	require.NoError(t, err)

	assert.Equal(t, []string{"End_Lat", "End_Lng", "Wind_Chill(F)"}, c.Sparse)
	assert.Equal(t, []string{"Airport_Code"}, c.Removed)
	assert.False(t, f.Has("Airport_Code"))

	assert.Equal(t, []string{"Severity", "Start_Lat", "Start_Lng", "Temperature(F)", "Wind_Speed(mph)"}, c.Numeric)
	// ID and the free-text columns are excluded; Start_Time was still text
	// when the list was taken.
	assert.Equal(t, []string{"Start_Time", "City", "State", "Airport_Code", "Weather_Condition"}, c.Categorical)

	assert.Equal(t, dataset.Datetime, f.Column("Start_Time").Kind)
	hours, err := f.PresentFloats(ColHours)
	require.NoError(t, err)
	assert.Len(t, hours, 300)
	for _, h := range hours {
		assert.True(t, h >= 0 && h <= 23)
	}
	assert.Equal(t, 0, c.TimeNulled)
	assert.Equal(t, 0, c.Coerced[ColLng])
}

func TestClean_CoercesBadCoordinates(t *testing.T) {
	f := loadFixture(t, testutil.FixtureOptions{Rows: 100, Seed: 2, BadCoordinates: true})
	assert.Equal(t, dataset.Text, f.Column(ColLng).Kind)

	c, err := Clean(f, nil)
	require.NoError(t, err)

	assert.NotContains(t, c.Numeric, ColLng, "feature lists are taken before coercion")
	assert.Equal(t, 2, c.Coerced[ColLng])
	assert.Equal(t, dataset.Numeric, f.Column(ColLng).Kind)
}

func TestClean_MissingOptionalColumns(t *testing.T) {
	f, err := dataset.ReadCSV(strings.NewReader("ID,Severity\nA-1,2\nA-2,3\n"), 0)
	require.NoError(t, err)

	c, err := Clean(f, nil)
	require.NoError(t, err)
	assert.Empty(t, c.Coerced)
	assert.False(t, f.Has(ColHours))
	assert.Equal(t, []string{"Severity"}, c.Numeric)
	assert.Empty(t, c.Categorical)
}

func TestClean_FlagsWithNullsAreCategorical(t *testing.T) {
	f, err := dataset.ReadCSV(strings.NewReader("ID,Severity,Amenity,Bump\nA-1,2,True,False\nA-2,3,,True\nA-3,2,False,False\nA-4,1,False,True\n"), 0)
	require.NoError(t, err)

	c, err := Clean(f, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Amenity"}, c.Categorical)
}

func TestClean_NilFrame(t *testing.T) {
	_, err := Clean(nil, nil)
	assert.Error(t, err)
}

func TestSummarise(t *testing.T) {
	f := loadFixture(t, testutil.FixtureOptions{Rows: 400, Seed: 3, RoadCondition: true})
	c, err := Clean(f, nil)
	require.NoError(t, err)

	cfg := config.DefaultAnalysisConfig()
	pair := 150
	cfg.PairSampleSize = &pair

	s, err := Summarise(c, cfg)
	require.NoError(t, err)
	assert.Empty(t, s.Skipped)
	assert.Equal(t, 400, s.Rows)

	t.Run("correlation", func(t *testing.T) {
		n := len(c.Numeric)
		r, cols := s.Correlation.Dims()
		assert.Equal(t, n, r)
		assert.Equal(t, n, cols)
		for i := 0; i < n; i++ {
			assert.InDelta(t, 1.0, s.Correlation.At(i, i), 1e-9)
		}
	})

	t.Run("counts", func(t *testing.T) {
		assert.LessOrEqual(t, len(s.TopCities), 10)
		assert.Equal(t, 10, len(s.Weather))
		for i := 1; i < len(s.TopCities); i++ {
			assert.GreaterOrEqual(t, s.TopCities[i-1].Count, s.TopCities[i].Count)
		}
		total := 0
		for _, sc := range s.Severity {
			total += sc.Count
		}
		assert.Equal(t, 400, total)
		assert.Len(t, s.RoadCondition, 4)
	})

	t.Run("hours", func(t *testing.T) {
		require.Len(t, s.Hours, 20)
		total := 0
		for _, b := range s.Hours {
			total += b.Count
		}
		assert.Equal(t, 400, total)
	})

	t.Run("locations", func(t *testing.T) {
		require.NotNil(t, s.Locations)
		assert.Len(t, s.Locations.States, 4)
		assert.Equal(t, 400, s.Locations.Points())
		for _, st := range s.Locations.States {
			if st.State == "CA" {
				assert.InDelta(t, -118.2, st.CentroidLng, 0.5)
				assert.InDelta(t, 34.0, st.CentroidLat, 0.5)
			}
		}
	})

	t.Run("severity distributions", func(t *testing.T) {
		var levels []string
		for _, b := range s.TemperatureBySeverity {
			levels = append(levels, b.Severity)
		}
		assert.Equal(t, []string{"1", "2", "3", "4"}, levels)

		require.NotNil(t, s.WindBySeverity)
		assert.Len(t, s.WindBySeverity.Groups, 4)
		for _, v := range s.WindBySeverity.Groups {
			require.True(t, v.HasDensity)
			assert.LessOrEqual(t, v.Density.Max(), s.WindBySeverity.MaxDensity)
		}
	})

	t.Run("density and pairs", func(t *testing.T) {
		require.NotNil(t, s.TemperatureDensity)
		assert.Len(t, s.TemperatureDensity.X, 200)

		require.NotNil(t, s.Pairs)
		assert.Equal(t, 150, s.Pairs.SampleSize)
		assert.Equal(t, c.Numeric, s.Pairs.Names)
		assert.Len(t, s.Pairs.Diagonal, len(c.Numeric))
		for _, col := range s.Pairs.Columns {
			assert.Len(t, col, 150)
		}
	})
}

func TestSummarise_PairSampleIsDeterministic(t *testing.T) {
	run := func() *Summary {
		f := loadFixture(t, testutil.FixtureOptions{Rows: 120, Seed: 4})
		c, err := Clean(f, nil)
		require.NoError(t, err)
		s, err := Summarise(c, nil)
		require.NoError(t, err)
		return s
	}
	a, b := run(), run()
	assert.Equal(t, 120, a.Pairs.SampleSize)
	if diff := cmp.Diff(a.Pairs.Columns, b.Pairs.Columns, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("pair samples differ (-a +b):\n%s", diff)
	}
}

func TestSummarise_SkipsMissingColumns(t *testing.T) {
	f, err := dataset.ReadCSV(strings.NewReader("Severity,City\n2,Dayton\n3,Dayton\n2,Akron\n"), 0)
	require.NoError(t, err)
	c, err := Clean(f, nil)
	require.NoError(t, err)

	s, err := Summarise(c, nil)
	require.NoError(t, err)

	assert.NotNil(t, s.Correlation)
	assert.True(t, math.IsNaN(s.Correlation.At(0, 0)) || s.Correlation.At(0, 0) == 1)
	assert.Equal(t, []dataset.Count{{Label: "Dayton", Count: 2}, {Label: "Akron", Count: 1}}, s.TopCities)
	assert.Nil(t, s.RoadCondition)
	assert.Nil(t, s.Weather)
	assert.Nil(t, s.Hours)
	assert.Nil(t, s.Locations)
	assert.Nil(t, s.TemperatureBySeverity)
	assert.Nil(t, s.WindBySeverity)
	assert.Nil(t, s.TemperatureDensity)
	assert.NotNil(t, s.Pairs)
	assert.Len(t, s.Skipped, 7)
}

func TestSummarise_Nil(t *testing.T) {
	_, err := Summarise(nil, nil)
	assert.Error(t, err)
}
