package video

import "testing"

func TestParseFrame(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		frame  int
		wantOK bool
	}{
		{"Padded", "[info] frame=   42 fps=0.0 q=-0.0 size=       0kB time=00:00:01.40", 42, true},
		{"No padding", "frame=7 fps=12", 7, true},
		{"Large", "frame=123456 fps=240", 123456, true},
		{"Not progress", "[info] Stream #0:0: Video: png", 0, false},
		{"Empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, ok := ParseFrame(tt.line)
			if ok != tt.wantOK || frame != tt.frame {
				t.Errorf("ParseFrame(%q) = (%d, %v), expected (%d, %v)", tt.line, frame, ok, tt.frame, tt.wantOK)
			}
		})
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		name     string
		frame    int
		total    int
		expected float64
	}{
		{"Start", 0, 100, 0},
		{"Half", 50, 100, 50},
		{"Done", 100, 100, 100},
		{"Past the estimate", 130, 100, 100},
		{"Unknown total", 10, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percent(tt.frame, tt.total); got != tt.expected {
				t.Errorf("Percent(%d, %d) = %v, expected %v", tt.frame, tt.total, got, tt.expected)
			}
		})
	}
}

func TestIsErrorLine(t *testing.T) {
	if !isErrorLine("[concat @ 0x1] [error] Impossible to open '/x.png'") {
		t.Error("Expected error tagged line to be detected")
	}
	if isErrorLine("[info] frame=  1") {
		t.Error("Info line should not be treated as an error")
	}
}
