package report

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/banshee-data/accident.report/internal/analysis"
	"github.com/banshee-data/accident.report/internal/dataset"
)

// Workbook sheet names.
const (
	SheetColumns       = "Columns"
	SheetDropped       = "Dropped"
	SheetTopCities     = "Top Cities"
	SheetSeverity      = "Severity"
	SheetWeather       = "Weather"
	SheetRoadCondition = "Road Condition"
	SheetCorrelation   = "Correlation"
)

// WriteWorkbook saves the tabular results of a run to an XLSX file at path.
// info is the column profile of the frame as loaded, before cleaning.
func WriteWorkbook(path string, info []dataset.ColumnInfo, c *analysis.Cleaned, s *analysis.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetColumns); err != nil {
		return fmt.Errorf("failed to rename default sheet: %w", err)
	}
	rows := [][]interface{}{{"Column", "Dtype", "Non-Null Count", "Null Count", "Null Ratio"}}
	for _, ci := range info {
		rows = append(rows, []interface{}{ci.Name, ci.Kind.String(), ci.NonNull, ci.Null, ci.NullRatio})
	}
	if err := writeRows(f, SheetColumns, rows); err != nil {
		return err
	}

	if c != nil {
		rows = [][]interface{}{{"Column", "Reason"}}
		for _, name := range c.Sparse {
			rows = append(rows, []interface{}{name, "missing values"})
		}
		for _, name := range c.Removed {
			rows = append(rows, []interface{}{name, "unused"})
		}
		if err := addSheet(f, SheetDropped, rows); err != nil {
			return err
		}
	}

	if s != nil {
		counts := []struct {
			sheet, field string
			values       []dataset.Count
		}{
			{SheetTopCities, analysis.ColCity, s.TopCities},
			{SheetSeverity, analysis.ColSeverity, s.Severity},
			{SheetWeather, analysis.ColWeather, s.Weather},
			{SheetRoadCondition, analysis.ColRoadCondition, s.RoadCondition},
		}
		for _, vc := range counts {
			if len(vc.values) == 0 {
				continue
			}
			rows = [][]interface{}{{vc.field, "Count"}}
			for _, v := range vc.values {
				rows = append(rows, []interface{}{v.Label, v.Count})
			}
			if err := addSheet(f, vc.sheet, rows); err != nil {
				return err
			}
		}

		if s.Correlation != nil {
			header := []interface{}{""}
			for _, name := range s.NumericFeatures {
				header = append(header, name)
			}
			rows = [][]interface{}{header}
			for i, name := range s.NumericFeatures {
				row := []interface{}{name}
				for j := range s.NumericFeatures {
					v := s.Correlation.At(i, j)
					if math.IsNaN(v) {
						row = append(row, "")
					} else {
						row = append(row, v)
					}
				}
				rows = append(rows, row)
			}
			if err := addSheet(f, SheetCorrelation, rows); err != nil {
				return err
			}
		}
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func addSheet(f *excelize.File, sheet string, rows [][]interface{}) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", sheet, err)
	}
	return writeRows(f, sheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) > 0 {
		last, err := excelize.ColumnNumberToName(len(rows[0]))
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, "A", last, 18); err != nil {
			return fmt.Errorf("failed to size %s columns: %w", sheet, err)
		}
	}
	return nil
}
