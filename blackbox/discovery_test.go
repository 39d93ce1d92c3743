package blackbox

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func TestFindLogFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"LOG00001.BBL",
		"LOG00001.01.csv",     // decoded from LOG00001.BBL
		"LOG00001.01.gps.csv", // side file
		"session/btfl_002.bfl",
		"session/export.02.csv",
		"session/notes.txt",
		"gimbal-ghost-123/LOG00001.BBL", // stale scratch directory
	} {
		touch(t, filepath.Join(dir, name))
	}

	files, err := FindLogFiles([]string{dir})
	if err != nil {
		t.Fatalf("FindLogFiles() error = %v", err)
	}

	expected := []string{
		filepath.Join(dir, "LOG00001.BBL"),
		filepath.Join(dir, "session", "btfl_002.bfl"),
		filepath.Join(dir, "session", "export.02.csv"),
	}
	if !reflect.DeepEqual(files, expected) {
		t.Errorf("Expected %v, got %v", expected, files)
	}
}

func TestFindLogFilesPassesFilesThrough(t *testing.T) {
	dir := t.TempDir()
	log := filepath.Join(dir, "LOG00001.BBL")
	notes := filepath.Join(dir, "notes.txt")
	touch(t, log)
	touch(t, notes)
	missing := filepath.Join(dir, "missing.bbl")

	files, err := FindLogFiles([]string{log, notes, missing, log})
	if err != nil {
		t.Fatalf("FindLogFiles() error = %v", err)
	}

	expected := []string{log, notes, missing}
	if !reflect.DeepEqual(files, expected) {
		t.Errorf("Expected %v, got %v", expected, files)
	}
}

func TestFindLogFilesEmptyDirectory(t *testing.T) {
	files, err := FindLogFiles([]string{t.TempDir()})
	if err != nil {
		t.Fatalf("FindLogFiles() error = %v", err)
	}
	if len(files) != 0 {
		t.Errorf("Expected no files, got %v", files)
	}
}
