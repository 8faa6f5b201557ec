package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical analysis defaults file.
const DefaultConfigPath = "config/analysis.defaults.json"

// AnalysisConfig holds the knobs of a run. Every field is optional; the Get*
// accessors supply the defaults for anything the JSON file leaves out.
type AnalysisConfig struct {
	// Loading
	SampleRows *int `json:"sample_rows,omitempty"` // 0 or less reads the whole file

	// Cleaning
	MissingThreshold   *float64  `json:"missing_threshold,omitempty"`
	ExcludeCategorical *[]string `json:"exclude_categorical,omitempty"`
	DropColumns        *[]string `json:"drop_columns,omitempty"`
	NumericColumns     *[]string `json:"numeric_columns,omitempty"`
	DatetimeColumn     *string   `json:"datetime_column,omitempty"`

	// Summaries
	TopN           *int    `json:"top_n,omitempty"`
	HourBins       *int    `json:"hour_bins,omitempty"`
	PairSampleSize *int    `json:"pair_sample_size,omitempty"`
	Seed           *uint64 `json:"seed,omitempty"`

	// Figures
	FigureWidthIn  *float64 `json:"figure_width_in,omitempty"`
	FigureHeightIn *float64 `json:"figure_height_in,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrString(v string) *string    { return &v }
func ptrUint64(v uint64) *uint64    { return &v }
func ptrStrings(v []string) *[]string {
	c := append([]string(nil), v...)
	return &c
}

// EmptyAnalysisConfig returns a config with every field unset.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// DefaultAnalysisConfig returns a config with every field populated from the
// built-in defaults, matching config/analysis.defaults.json.
func DefaultAnalysisConfig() *AnalysisConfig {
	e := EmptyAnalysisConfig()
	return &AnalysisConfig{
		SampleRows:         ptrInt(e.GetSampleRows()),
		MissingThreshold:   ptrFloat64(e.GetMissingThreshold()),
		ExcludeCategorical: ptrStrings(e.GetExcludeCategorical()),
		DropColumns:        ptrStrings(e.GetDropColumns()),
		NumericColumns:     ptrStrings(e.GetNumericColumns()),
		DatetimeColumn:     ptrString(e.GetDatetimeColumn()),
		TopN:               ptrInt(e.GetTopN()),
		HourBins:           ptrInt(e.GetHourBins()),
		PairSampleSize:     ptrInt(e.GetPairSampleSize()),
		Seed:               ptrUint64(e.GetSeed()),
		FigureWidthIn:      ptrFloat64(e.GetFigureWidthIn()),
		FigureHeightIn:     ptrFloat64(e.GetFigureHeightIn()),
	}
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted from
// the file fall back to defaults through the Get* accessors.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyAnalysisConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *AnalysisConfig) Validate() error {
	if c.MissingThreshold != nil {
		if *c.MissingThreshold < 0 || *c.MissingThreshold > 1 {
			return fmt.Errorf("missing_threshold must be between 0 and 1, got %f", *c.MissingThreshold)
		}
	}
	if c.TopN != nil && *c.TopN < 1 {
		return fmt.Errorf("top_n must be positive, got %d", *c.TopN)
	}
	if c.HourBins != nil && *c.HourBins < 1 {
		return fmt.Errorf("hour_bins must be positive, got %d", *c.HourBins)
	}
	if c.PairSampleSize != nil && *c.PairSampleSize < 1 {
		return fmt.Errorf("pair_sample_size must be positive, got %d", *c.PairSampleSize)
	}
	if c.FigureWidthIn != nil && *c.FigureWidthIn <= 0 {
		return fmt.Errorf("figure_width_in must be positive, got %f", *c.FigureWidthIn)
	}
	if c.FigureHeightIn != nil && *c.FigureHeightIn <= 0 {
		return fmt.Errorf("figure_height_in must be positive, got %f", *c.FigureHeightIn)
	}
	if c.DatetimeColumn != nil && *c.DatetimeColumn == "" {
		return fmt.Errorf("datetime_column must not be empty")
	}
	return nil
}

// GetSampleRows returns the sample_rows value or the default.
func (c *AnalysisConfig) GetSampleRows() int {
	if c.SampleRows == nil {
		return 100000
	}
	return *c.SampleRows
}

// GetMissingThreshold returns the missing_threshold value or the default.
func (c *AnalysisConfig) GetMissingThreshold() float64 {
	if c.MissingThreshold == nil {
		return 0.3
	}
	return *c.MissingThreshold
}

// GetExcludeCategorical returns the categorical columns left out of the
// categorical feature list.
func (c *AnalysisConfig) GetExcludeCategorical() []string {
	if c.ExcludeCategorical == nil {
		return []string{"ID", "Description", "Zipcode", "Weather_Timestamp"}
	}
	return *c.ExcludeCategorical
}

// GetDropColumns returns the columns removed from the frame before plotting.
func (c *AnalysisConfig) GetDropColumns() []string {
	if c.DropColumns == nil {
		return []string{"Airport_Code"}
	}
	return *c.DropColumns
}

// GetNumericColumns returns the columns coerced to numeric.
func (c *AnalysisConfig) GetNumericColumns() []string {
	if c.NumericColumns == nil {
		return []string{"Start_Lng", "Start_Lat", "Temperature(F)"}
	}
	return *c.NumericColumns
}

// GetDatetimeColumn returns the accident start time column.
func (c *AnalysisConfig) GetDatetimeColumn() string {
	if c.DatetimeColumn == nil {
		return "Start_Time"
	}
	return *c.DatetimeColumn
}

// GetTopN returns the top_n value or the default.
func (c *AnalysisConfig) GetTopN() int {
	if c.TopN == nil {
		return 10
	}
	return *c.TopN
}

// GetHourBins returns the hour_bins value or the default.
func (c *AnalysisConfig) GetHourBins() int {
	if c.HourBins == nil {
		return 20
	}
	return *c.HourBins
}

// GetPairSampleSize returns the pair_sample_size value or the default.
func (c *AnalysisConfig) GetPairSampleSize() int {
	if c.PairSampleSize == nil {
		return 5000
	}
	return *c.PairSampleSize
}

// GetSeed returns the sampling seed or the default.
func (c *AnalysisConfig) GetSeed() uint64 {
	if c.Seed == nil {
		return 42
	}
	return *c.Seed
}

// GetFigureWidthIn returns the figure width in inches.
func (c *AnalysisConfig) GetFigureWidthIn() float64 {
	if c.FigureWidthIn == nil {
		return 10
	}
	return *c.FigureWidthIn
}

// GetFigureHeightIn returns the figure height in inches.
func (c *AnalysisConfig) GetFigureHeightIn() float64 {
	if c.FigureHeightIn == nil {
		return 6
	}
	return *c.FigureHeightIn
}
