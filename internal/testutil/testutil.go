// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

// AccidentHeader is the column layout of generated accident fixtures. It
// follows the public US accidents export: End_Lat, End_Lng and
// Wind_Chill(F) are mostly empty so the sparse-column drop removes them.
var AccidentHeader = []string{
	"ID", "Severity", "Start_Time", "Start_Lat", "Start_Lng", "End_Lat", "End_Lng",
	"Description", "City", "State", "Zipcode", "Airport_Code", "Weather_Timestamp",
	"Temperature(F)", "Wind_Chill(F)", "Wind_Speed(mph)", "Weather_Condition", "Amenity",
}

// FixtureOptions controls AccidentsCSV.
type FixtureOptions struct {
	Rows int
	Seed uint64
	// RoadCondition appends a Road_Condition column.
	RoadCondition bool
	// BadCoordinates writes a non-numeric longitude into every 50th row.
	BadCoordinates bool
	// InfiniteLatitude writes inf or -inf into every 20th latitude.
	InfiniteLatitude bool
}

type fixtureState struct {
	code     string
	lat, lng float64
	cities   []string
	airport  string
}

var fixtureStates = []fixtureState{
	{"OH", 39.9, -82.9, []string{"Columbus", "Dayton", "Cincinnati"}, "KCMH"},
	{"CA", 34.0, -118.2, []string{"Los Angeles", "Sacramento", "San Diego", "San Jose"}, "KLAX"},
	{"TX", 29.7, -95.3, []string{"Houston", "Dallas", "Austin"}, "KIAH"},
	{"FL", 28.5, -81.3, []string{"Miami", "Orlando"}, "KMCO"},
}

var fixtureWeather = []string{"Clear", "Overcast", "Light Rain", "Mostly Cloudy", "Fair", "Snow", "Fog", "Heavy Rain", "Scattered Clouds", "Haze", "Thunderstorm", "Drizzle"}

var fixtureRoad = []string{"Dry", "Wet", "Icy", "Snowy"}

// AccidentsCSV generates a deterministic accident CSV.
func AccidentsCSV(opts FixtureOptions) string {
	if opts.Rows <= 0 {
		opts.Rows = 200
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	header := append([]string(nil), AccidentHeader...)
	if opts.RoadCondition {
		header = append(header, "Road_Condition")
	}

	var b strings.Builder
	b.WriteString(strings.Join(header, ","))
	b.WriteByte('\n')
	base := time.Date(2016, 2, 8, 0, 0, 0, 0, time.UTC)
	for i := 0; i < opts.Rows; i++ {
		st := fixtureStates[rng.IntN(len(fixtureStates))]
		city := st.cities[rng.IntN(len(st.cities))]
		severity := 1 + rng.IntN(4)
		start := base.Add(time.Duration(rng.IntN(365*24*60)) * time.Minute)
		lat := st.lat + rng.NormFloat64()*0.5
		lng := fmt.Sprintf("%.6f", st.lng+rng.NormFloat64()*0.5)
		if opts.BadCoordinates && i%50 == 49 {
			lng = "unknown"
		}

		latCell := fmt.Sprintf("%.6f", lat)
		if opts.InfiniteLatitude && i%20 == 7 {
			latCell = "inf"
			if i%40 == 27 {
				latCell = "-inf"
			}
		}

		endLat, endLng, chill := "", "", ""
		if i%5 == 0 {
			endLat = fmt.Sprintf("%.6f", lat+0.01)
			endLng = fmt.Sprintf("%.6f", st.lng+0.01)
			chill = fmt.Sprintf("%.1f", 20+rng.Float64()*30)
		}
		temp := fmt.Sprintf("%.1f", 55+rng.NormFloat64()*15-float64(severity))
		if i%17 == 3 {
			temp = ""
		}
		wind := fmt.Sprintf("%.1f", rng.ExpFloat64()*4*float64(severity))
		amenity := "False"
		if rng.IntN(10) == 0 {
			amenity = "True"
		}

		row := []string{
			fmt.Sprintf("A-%d", i+1),
			fmt.Sprintf("%d", severity),
			start.Format("2006-01-02 15:04:05"),
			latCell,
			lng,
			endLat,
			endLng,
			fmt.Sprintf("%q", "Accident on I-"+fmt.Sprint(70+rng.IntN(30))+", lanes blocked"),
			city,
			st.code,
			fmt.Sprintf("%05d-%04d", 10000+rng.IntN(89999), rng.IntN(10000)),
			st.airport,
			start.Add(-10 * time.Minute).Format("2006-01-02 15:04:05"),
			temp,
			chill,
			wind,
			fixtureWeather[rng.IntN(len(fixtureWeather))],
			amenity,
		}
		if opts.RoadCondition {
			row = append(row, fixtureRoad[rng.IntN(len(fixtureRoad))])
		}
		b.WriteString(strings.Join(row, ","))
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteAccidentsCSV writes a generated fixture into dir and returns its path.
func WriteAccidentsCSV(t testing.TB, dir string, opts FixtureOptions) string {
	t.Helper()
	path := filepath.Join(dir, "accidents.csv")
	if err := os.WriteFile(path, []byte(AccidentsCSV(opts)), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}
