// Package report writes a spreadsheet summary of a render run.
package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gimbal-ghost/gimbal-ghost/blackbox"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet every flight row is written to
const SheetName = "Flights"

// Headers are the report columns in order
var Headers = []string{
	"Log", "Flight", "Output", "Status", "Frames", "Progress (%)",
	"Render time (s)", "Resolution", "Codec", "Duration (s)", "Error",
}

var columnWidths = []float64{30, 8, 40, 12, 10, 12, 16, 14, 12, 14, 60}

// WriteXLSX writes one row per flight to an xlsx workbook at path
func WriteXLSX(path string, flights []blackbox.FlightSummary) error {
	if !strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return fmt.Errorf("report path %s must end in .xlsx", path)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name report sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	// Write header
	if err := f.SetSheetRow(SheetName, "A1", &Headers); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(Headers), 1)
	if err != nil {
		return fmt.Errorf("failed to resolve header range: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", lastHeader, headerStyle); err != nil {
		return fmt.Errorf("failed to style report header: %w", err)
	}

	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to resolve column %d: %w", i+1, err)
		}
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("failed to size column %s: %w", col, err)
		}
	}

	// Write data rows
	for i, flight := range flights {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to resolve row %d: %w", i+2, err)
		}
		row := Row(flight)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", flight.OutputPath, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report %s: %w", path, err)
	}
	return nil
}

// Row converts a flight summary to report cell values
func Row(flight blackbox.FlightSummary) []interface{} {
	row := []interface{}{
		filepath.Base(flight.LogPath),
		flight.Number,
		flight.OutputPath,
		string(flight.Status),
		flight.Frames,
		roundTo(flight.Progress, 1),
		roundTo(flight.RenderTime.Seconds(), 2),
		flight.Resolution,
		flight.Codec,
		nil,
		flight.Error,
	}
	if flight.Duration > 0 {
		row[9] = roundTo(flight.Duration, 2)
	}
	return row
}

func roundTo(v float64, places int) float64 {
	p := 1.0
	for i := 0; i < places; i++ {
		p *= 10
	}
	return float64(int64(v*p+0.5)) / p
}
