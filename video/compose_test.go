package video

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"sync"
	"testing"
)

// writeCompositor creates a fake ffmpeg that prints progress and writes its last argument
func writeCompositor(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatalf("Failed to write fake compositor: %v", err)
	}
	return path
}

func TestComposeArgs(t *testing.T) {
	args := ComposeArgs(ComposeOptions{
		Compositor:    "ffmpeg",
		LeftManifest:  "/tmp/s.01.left.demux.txt",
		RightManifest: "/tmp/s.01.right.demux.txt",
		Output:        "/out/s flight 1.mov",
		FPS:           30,
	})

	expected := []string{
		"-loglevel", "repeat+level+info",
		"-hide_banner",
		"-f", "concat", "-safe", "0", "-i", "/tmp/s.01.left.demux.txt",
		"-f", "concat", "-safe", "0", "-i", "/tmp/s.01.right.demux.txt",
		"-filter_complex", "[0]pad=iw+75:color=black@0.0[left],[left][1]hstack=inputs=2,fps=30",
		"-vsync", "vfr",
		"-vcodec", "prores_ks",
		"-pix_fmt", "yuva444p10le",
		"-profile:v", "4444",
		"-qscale:v", "1",
		"-y",
		"/out/s flight 1.mov",
	}
	if !reflect.DeepEqual(args, expected) {
		t.Errorf("Unexpected args:\n%q\nexpected:\n%q", args, expected)
	}
}

func TestComposeArgsFractionalFPS(t *testing.T) {
	args := ComposeArgs(ComposeOptions{FPS: 59.94})
	var filter string
	for i, arg := range args {
		if arg == "-filter_complex" {
			filter = args[i+1]
		}
	}
	if !strings.HasSuffix(filter, "fps=59.94") {
		t.Errorf("Expected filter to end with fps=59.94, got %q", filter)
	}
}

func TestCompose(t *testing.T) {
	compositor := writeCompositor(t, `for last; do :; done
printf 'frame=    1 fps=0.0\rframe=    2 fps=0.0\r' >&2
echo "[info] video:1kB" >&2
echo "overlay" > "$last"
exit 0
`)
	output := filepath.Join(t.TempDir(), "sample flight 1.mov")

	var mu sync.Mutex
	var frames []int
	var lines int
	result, err := Compose(context.Background(), ComposeOptions{
		Compositor: compositor, LeftManifest: "l", RightManifest: "r", Output: output, FPS: 30,
	}, func(frame int) {
		mu.Lock()
		frames = append(frames, frame)
		mu.Unlock()
	}, func(string) {
		mu.Lock()
		lines++
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if result.ExitCode != 0 {
		t.Errorf("Expected exit code 0, got %d", result.ExitCode)
	}
	if result.LastFrame != 2 {
		t.Errorf("Expected last frame 2, got %d", result.LastFrame)
	}
	if !reflect.DeepEqual(frames, []int{1, 2}) {
		t.Errorf("Expected frames [1 2], got %v", frames)
	}
	if lines != 3 {
		t.Errorf("Expected 3 logged lines, got %d", lines)
	}
	if err := ValidateOutput(output); err != nil {
		t.Errorf("Expected output to be written: %v", err)
	}
}

func TestComposeFailure(t *testing.T) {
	compositor := writeCompositor(t, `echo "[concat @ 0x1] [error] Impossible to open 'missing.png'" >&2
exit 1
`)

	result, err := Compose(context.Background(), ComposeOptions{Compositor: compositor, FPS: 30}, nil, nil)
	if err != nil {
		t.Fatalf("Expected nil error for a compositor that ran, got %v", err)
	}
	if result.ExitCode != 1 {
		t.Errorf("Expected exit code 1, got %d", result.ExitCode)
	}
	if !strings.Contains(result.LastError, "Impossible to open") {
		t.Errorf("Expected last error line to be captured, got %q", result.LastError)
	}
}

func TestComposeMissingCompositor(t *testing.T) {
	_, err := Compose(context.Background(), ComposeOptions{
		Compositor: filepath.Join(t.TempDir(), "no-ffmpeg"), FPS: 30,
	}, nil, nil)
	if err == nil {
		t.Error("Expected an error when the compositor does not exist")
	}
}
