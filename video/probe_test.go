package video

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestProbeCommand(t *testing.T) {
	tests := []struct {
		compositor string
		expected   string
	}{
		{"ffmpeg", "ffprobe"},
		{"/opt/ffmpeg/bin/ffmpeg", "/opt/ffmpeg/bin/ffprobe"},
		{`C:\tools\ffmpeg.exe`, `C:\tools\ffprobe.exe`},
		{"/usr/local/bin/avconv", "ffprobe"},
	}

	for _, tt := range tests {
		if filepath.Separator == '/' && tt.compositor[0] == 'C' {
			// filepath.Split does not treat backslashes as separators here
			continue
		}
		if got := ProbeCommand(tt.compositor); got != tt.expected {
			t.Errorf("ProbeCommand(%q) = %q, expected %q", tt.compositor, got, tt.expected)
		}
	}
}

func TestParseProbeOutput(t *testing.T) {
	info, err := parseProbeOutput("codec_name=prores\nwidth=1275\nheight=600\nduration=12.033333\n")
	if err != nil {
		t.Fatalf("parseProbeOutput() error = %v", err)
	}
	if info.Codec != "prores" {
		t.Errorf("Expected codec prores, got %s", info.Codec)
	}
	if info.Resolution != "1275x600" {
		t.Errorf("Expected resolution 1275x600, got %s", info.Resolution)
	}
	if info.Duration != 12.033333 {
		t.Errorf("Expected duration 12.033333, got %v", info.Duration)
	}
}

func TestParseProbeOutputErrors(t *testing.T) {
	tests := []struct {
		name   string
		output string
	}{
		{"No codec", "width=10\nheight=10\n"},
		{"Bad resolution", "codec_name=prores\nwidth=\nheight=10\n"},
		{"Bad duration", "codec_name=prores\nwidth=10\nheight=10\nduration=abc\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseProbeOutput(tt.output); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestProbeOutputNonVideo(t *testing.T) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not available")
	}

	_, err := ProbeOutput(context.Background(), "ffprobe", filepath.Join(t.TempDir(), "missing.mov"))
	if err == nil {
		t.Error("Expected error for a missing file")
	}
}
