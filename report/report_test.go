package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/gimbal-ghost/gimbal-ghost/blackbox"
	"github.com/gimbal-ghost/gimbal-ghost/events"
	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	flights := []blackbox.FlightSummary{
		{
			LogPath:    "/logs/LOG00001.BBL",
			LogName:    "LOG00001",
			Number:     1,
			OutputPath: "/logs/LOG00001 flight 1.mov",
			Status:     events.StatusComplete,
			Frames:     900,
			Progress:   100,
			RenderTime: 1500 * time.Millisecond,
			Resolution: "1075x500",
			Codec:      "prores",
			Duration:   30,
		},
		{
			LogPath:    "/logs/LOG00001.BBL",
			LogName:    "LOG00001",
			Number:     2,
			OutputPath: "/logs/LOG00001 flight 2.mov",
			Status:     events.StatusError,
			Error:      "render process for LOG00001.02 exited with non zero exit code: 1",
		},
	}

	if err := WriteXLSX(path, flights); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("Failed to open report: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("Failed to read rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected header and 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Log" || rows[0][len(Headers)-1] != "Error" {
		t.Errorf("Unexpected header %v", rows[0])
	}

	tests := []struct {
		cell     string
		expected string
	}{
		{"A2", "LOG00001.BBL"},
		{"B2", "1"},
		{"D2", "complete"},
		{"E2", "900"},
		{"G2", "1.5"},
		{"H2", "1075x500"},
		{"D3", "error"},
		{"K3", "render process for LOG00001.02 exited with non zero exit code: 1"},
	}
	for _, tt := range tests {
		got, err := f.GetCellValue(SheetName, tt.cell)
		if err != nil {
			t.Errorf("GetCellValue(%s) error = %v", tt.cell, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("Cell %s: expected %q, got %q", tt.cell, tt.expected, got)
		}
	}
}

func TestWriteXLSXRejectsExtension(t *testing.T) {
	if err := WriteXLSX(filepath.Join(t.TempDir(), "report.csv"), nil); err == nil {
		t.Error("Expected error for a non xlsx path")
	}
}

func TestRowLeavesUnknownDurationEmpty(t *testing.T) {
	row := Row(blackbox.FlightSummary{Status: events.StatusError})
	if row[9] != nil {
		t.Errorf("Expected empty duration, got %v", row[9])
	}
	if len(row) != len(Headers) {
		t.Errorf("Expected %d cells, got %d", len(Headers), len(row))
	}
}
