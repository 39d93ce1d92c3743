package video

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OutputExtension is the container written for every rendered flight
const OutputExtension = ".mov"

// IsOverlayFile checks if a path looks like a rendered overlay
func IsOverlayFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), OutputExtension)
}

// ValidateOutput performs basic validation on a rendered overlay
func ValidateOutput(outputFile string) error {
	fi, err := os.Stat(outputFile)
	if err != nil {
		return fmt.Errorf("rendered file not accessible: %w", err)
	}

	if fi.IsDir() {
		return fmt.Errorf("rendered path %s is a directory", outputFile)
	}

	if fi.Size() == 0 {
		return fmt.Errorf("rendered file is empty")
	}

	return nil
}

// extractFirstLine extracts just the first line from a multi-line string
func extractFirstLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > 0 && strings.TrimSpace(lines[0]) != "" {
		return strings.TrimSpace(lines[0])
	}
	return "no additional information available"
}
