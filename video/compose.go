package video

import (
	"context"
	"strconv"
	"sync"

	"github.com/gimbal-ghost/gimbal-ghost/utils"
)

// Gutter between the left and right stick in pixels
const Gutter = 75

// ComposeOptions describes one overlay render
type ComposeOptions struct {
	Compositor    string  // ffmpeg executable
	LeftManifest  string  // concat demuxer input for the left stick
	RightManifest string  // concat demuxer input for the right stick
	Output        string  // .mov file, overwritten if present
	FPS           float64 // output frame rate
}

// ComposeResult holds what was observed while the compositor ran
type ComposeResult struct {
	ExitCode  int
	LastFrame int
	LastError string // last error tagged line from the compositor, if any
}

// ComposeArgs builds the compositor argument list. The left stream is padded to leave
// a transparent gutter, both streams are stacked side by side and encoded as ProRes 4444
// with an alpha channel.
func ComposeArgs(opts ComposeOptions) []string {
	fps := strconv.FormatFloat(opts.FPS, 'f', -1, 64)
	filter := "[0]pad=iw+" + strconv.Itoa(Gutter) + ":color=black@0.0[left],[left][1]hstack=inputs=2,fps=" + fps

	return []string{
		"-loglevel", "repeat+level+info",
		"-hide_banner",
		"-f", "concat",
		"-safe", "0",
		"-i", opts.LeftManifest,
		"-f", "concat",
		"-safe", "0",
		"-i", opts.RightManifest,
		"-filter_complex", filter,
		"-vsync", "vfr",
		"-vcodec", "prores_ks",
		"-pix_fmt", "yuva444p10le",
		"-profile:v", "4444",
		"-qscale:v", "1",
		"-y",
		opts.Output,
	}
}

// Compose runs the compositor and waits for it to exit. onFrame is called with every
// frame counter parsed from its stderr, logLine with every raw output line. Both may be nil.
// The returned error is only set when the process could not run to completion.
func Compose(ctx context.Context, opts ComposeOptions, onFrame func(frame int), logLine utils.LineHandler) (ComposeResult, error) {
	var (
		mu     sync.Mutex
		result ComposeResult
	)

	onStderr := func(line string) {
		if logLine != nil {
			logLine(line)
		}
		if frame, ok := ParseFrame(line); ok {
			mu.Lock()
			result.LastFrame = frame
			mu.Unlock()
			if onFrame != nil {
				onFrame(frame)
			}
			return
		}
		if isErrorLine(line) {
			mu.Lock()
			result.LastError = line
			mu.Unlock()
		}
	}

	code, err := utils.RunProcess(ctx, opts.Compositor, ComposeArgs(opts), logLine, onStderr)

	mu.Lock()
	defer mu.Unlock()
	result.ExitCode = code
	return result, err
}
