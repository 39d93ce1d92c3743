package video

import (
	"regexp"
	"strconv"
	"strings"
)

// frameRegex matches the frame counter ffmpeg prints in its progress lines
var frameRegex = regexp.MustCompile(`frame=\s*(\d+)`)

// ParseFrame extracts the current frame number from a compositor output line
func ParseFrame(line string) (int, bool) {
	match := frameRegex.FindStringSubmatch(line)
	if match == nil {
		return 0, false
	}
	frame, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return frame, true
}

// Percent converts a frame counter into a render percentage capped at 100
func Percent(frame, total int) float64 {
	if total <= 0 || frame <= 0 {
		return 0
	}
	return min(100, float64(frame)/float64(total)*100)
}

// isErrorLine reports whether a line logged with "-loglevel level" carries an error tag
func isErrorLine(line string) bool {
	return strings.Contains(line, "[error]") || strings.Contains(line, "[fatal]") || strings.Contains(line, "[panic]")
}
