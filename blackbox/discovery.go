package blackbox

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FindLogFiles expands the given paths into blackbox logs. Files are passed through
// as given so unsupported extensions are reported later. Directories are scanned
// recursively for logs; decoded CSVs that sit next to their binary log are skipped.
func FindLogFiles(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(path string) {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if !seen[abs] {
			seen[abs] = true
			files = append(files, abs)
		}
	}

	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil || !fi.IsDir() {
			add(p)
			continue
		}

		found, err := findLogFilesWithWalkDir(p)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", p, err)
		}
		for _, f := range found {
			add(f)
		}
	}

	return files, nil
}

// findLogFilesWithWalkDir uses filepath.WalkDir to find logs under a directory
func findLogFilesWithWalkDir(directory string) ([]string, error) {
	var binaries, csvs []string

	err := filepath.WalkDir(directory, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			// Scratch copies are never inputs
			if path != directory && strings.HasPrefix(d.Name(), ScratchPrefix) {
				return filepath.SkipDir
			}
			return nil
		}

		if !IsLogFile(path) {
			return nil
		}

		if strings.EqualFold(filepath.Ext(path), ".csv") {
			if isDecodedCSV(d.Name()) {
				csvs = append(csvs, path)
			}
			return nil
		}

		binaries = append(binaries, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// A CSV named after a binary log in the same directory was decoded from it
	decodedFrom := make(map[string]bool, len(binaries))
	for _, b := range binaries {
		decodedFrom[strings.TrimSuffix(b, filepath.Ext(b))] = true
	}

	files := binaries
	for _, c := range csvs {
		logName, _ := ParseFlightName(c)
		if decodedFrom[filepath.Join(filepath.Dir(c), logName)] {
			continue
		}
		files = append(files, c)
	}

	sort.Strings(files)
	return files, nil
}
