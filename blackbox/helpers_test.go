package blackbox

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/gimbal-ghost/gimbal-ghost/sticks"
)

const testManifest = `{
  "name": "test sticks",
  "frames": {
    "location": "frames",
    "fileNameFormat": "<x>_<y>.png",
    "x": {"min": -500, "max": 500, "increment": 250},
    "y": {"min": -500, "max": 500, "increment": 250}
  }
}`

// writeTestManifest writes the stick manifest used across the package tests
func writeTestManifest(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sticks.json")
	if err := os.WriteFile(path, []byte(testManifest), 0644); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}
	return path
}

func newTestResolver(t *testing.T) *sticks.Resolver {
	t.Helper()
	r, err := sticks.NewResolver(sticks.ResolverOptions{ManifestPath: writeTestManifest(t)})
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	return r
}

// writeExecutable creates a shell script, skipping the test where sh is unavailable
func writeExecutable(t *testing.T, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

// fakeDecoder writes <log>.01.csv with rows 0..lastRow at 30 rows per second with
// every stick at mid range, plus the GPS and event side files.
func fakeDecoder(t *testing.T, lastRow int) string {
	t.Helper()
	return writeExecutable(t, "blackbox_decode", fmt.Sprintf(`base="${1%%.*}"
{
echo "loopIteration, time (us), rcCommand[0], rcCommand[1], rcCommand[2], rcCommand[3], gyroADC[0]"
i=0
while [ $i -le %d ]; do
  t=$(( (i * 1000000 + 15) / 30 ))
  echo "$i, $t, 0, 0, 0, 1500, 12"
  i=$((i + 1))
done
} > "$base.01.csv"
echo "time, lat, lon" > "$base.01.gps.csv"
echo "{}" > "$base.01.event"
echo "Log 1 of 1, start 00:00.000"
`, lastRow))
}

// failingDecoder exits with code 2 after leaving a partial file behind
func failingDecoder(t *testing.T) string {
	t.Helper()
	return writeExecutable(t, "blackbox_decode", `echo "partial" > "${1%.*}.01.csv"
echo "corrupt log" >&2
exit 2
`)
}

// fakeCompositor prints ffmpeg style progress and writes its last argument
func fakeCompositor(t *testing.T) string {
	t.Helper()
	return writeExecutable(t, "ffmpeg", `for last; do :; done
printf 'frame=    5 fps=0.0\rframe=   11 fps=0.0\r' >&2
printf 'overlay' > "$last"
`)
}

// failingCompositor exits with code 1 without writing output
func failingCompositor(t *testing.T) string {
	t.Helper()
	return writeExecutable(t, "ffmpeg", `echo "[error] Impossible to open sprite" >&2
exit 1
`)
}

// writeCSV writes a flight CSV from header and rows
func writeCSV(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		t.Fatalf("Failed to write csv: %v", err)
	}
	return path
}

// readLines returns the non-empty lines of a file
func readLines(t *testing.T, path string) []string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return strings.Split(strings.TrimRight(string(content), "\n"), "\n")
}
