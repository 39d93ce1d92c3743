package video

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var resolutionRegex = regexp.MustCompile(`^\d+x\d+$`)

// OutputInfo is what ffprobe reports about a rendered overlay
type OutputInfo struct {
	Resolution string
	Codec      string
	Duration   float64 // seconds
}

// ProbeCommand returns the ffprobe executable that sits next to the given ffmpeg
func ProbeCommand(compositor string) string {
	dir, base := filepath.Split(compositor)
	probe := strings.Replace(base, "ffmpeg", "ffprobe", 1)
	if probe == base {
		return "ffprobe"
	}
	return dir + probe
}

// ProbeOutput reads resolution, codec and duration of a rendered overlay
func ProbeOutput(ctx context.Context, ffprobe, outputFile string) (*OutputInfo, error) {
	cmd := exec.CommandContext(ctx, ffprobe, "-v", "error", "-select_streams", "v:0",
		"-show_entries", "stream=codec_name,width,height:format=duration",
		"-of", "default=noprint_wrappers=1", "--", outputFile)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("failed to probe %s: %w: %s", outputFile, err, extractFirstLine(string(output)))
	}

	return parseProbeOutput(string(output))
}

// parseProbeOutput reads ffprobe key=value lines
func parseProbeOutput(output string) (*OutputInfo, error) {
	values := map[string]string{}
	for _, line := range strings.Split(output, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		// Only the first value counts when a file has several streams
		if _, seen := values[key]; !seen {
			values[key] = value
		}
	}

	info := &OutputInfo{Codec: values["codec_name"]}
	if info.Codec == "" {
		return nil, fmt.Errorf("could not detect video codec")
	}

	info.Resolution = values["width"] + "x" + values["height"]
	if !resolutionRegex.MatchString(info.Resolution) {
		return nil, fmt.Errorf("invalid resolution format: %s", info.Resolution)
	}

	if d, ok := values["duration"]; ok && d != "N/A" {
		duration, err := strconv.ParseFloat(d, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse duration: %w", err)
		}
		info.Duration = duration
	}

	return info, nil
}
