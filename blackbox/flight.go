package blackbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gimbal-ghost/gimbal-ghost/events"
	"github.com/gimbal-ghost/gimbal-ghost/sticks"
	"github.com/gimbal-ghost/gimbal-ghost/types"
	"github.com/gimbal-ghost/gimbal-ghost/video"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// flightNameRegex splits "<log name>.<NN>" decoded CSV stems
var flightNameRegex = regexp.MustCompile(`^(.+)\.(\d{2})$`)

// ctxCheckRows is how often the parse loop looks at the context
const ctxCheckRows = 4096

// rowGapWarnMicros is the telemetry gap above which a single row is reported
// for filling a long run of frames on its own
const rowGapWarnMicros = 10_000_000

// FlightOptions configures a Flight
type FlightOptions struct {
	CSVPath        string // decoded flight CSV
	LogPath        string // blackbox log the flight came from
	OutputDir      string
	OutputName     string // prefix of the output file, defaults to the log name
	Resolver       *sticks.Resolver
	CompositorPath string
	Sink           events.Sink
	Logger         *zap.SugaredLogger
	Probe          bool // read the rendered file back with ffprobe
}

// Flight is one flight decoded out of a blackbox log. It owns its CSV, its
// demux manifests and its output video.
type Flight struct {
	LogName string
	Number  int
	CSVPath string

	logPath    string
	outputPath string
	leftDemux  string
	rightDemux string
	resolver   *sticks.Resolver
	compositor string
	probe      bool
	sink       events.Sink
	logger     *zap.SugaredLogger

	mu         sync.Mutex
	status     events.Status
	frames     int
	progress   float64
	err        error
	info       *video.OutputInfo
	renderTime time.Duration
}

// ParseFlightName extracts the log name and flight number from a decoded CSV path.
// Files without a two digit suffix are flight 0 named after their stem.
func ParseFlightName(csvPath string) (string, int) {
	stem := strings.TrimSuffix(filepath.Base(csvPath), filepath.Ext(csvPath))
	match := flightNameRegex.FindStringSubmatch(stem)
	if match == nil {
		return stem, 0
	}
	number, err := strconv.Atoi(match[2])
	if err != nil {
		return stem, 0
	}
	return match[1], number
}

// OutputFileName is the file a flight renders to
func OutputFileName(logName string, number int) string {
	return fmt.Sprintf("%s flight %d%s", logName, number, video.OutputExtension)
}

// NewFlight creates a flight in the Decoded state and announces it
func NewFlight(opts FlightOptions) *Flight {
	logName, number := ParseFlightName(opts.CSVPath)
	dir := filepath.Dir(opts.CSVPath)
	stem := strings.TrimSuffix(filepath.Base(opts.CSVPath), filepath.Ext(opts.CSVPath))
	outputName := opts.OutputName
	if outputName == "" {
		outputName = logName
	}

	f := &Flight{
		LogName:    logName,
		Number:     number,
		CSVPath:    opts.CSVPath,
		logPath:    opts.LogPath,
		outputPath: filepath.Join(opts.OutputDir, OutputFileName(outputName, number)),
		leftDemux:  filepath.Join(dir, stem+".left.demux.txt"),
		rightDemux: filepath.Join(dir, stem+".right.demux.txt"),
		resolver:   opts.Resolver,
		compositor: opts.CompositorPath,
		probe:      opts.Probe,
		sink:       opts.Sink,
		logger:     opts.Logger,
		status:     events.StatusDecoded,
	}
	if f.sink == nil {
		f.sink = events.Discard
	}
	if f.logger == nil {
		f.logger = zap.NewNop().Sugar()
	}
	f.logger = f.logger.With("log", filepath.Base(opts.LogPath), "flight", number)

	f.publish("")
	return f
}

// Name identifies the flight in messages, e.g. "LOG00001.01"
func (f *Flight) Name() string {
	return strings.TrimSuffix(filepath.Base(f.CSVPath), filepath.Ext(f.CSVPath))
}

// OutputPath is where the rendered overlay is written
func (f *Flight) OutputPath() string { return f.outputPath }

// DemuxPaths returns the left and right manifest paths
func (f *Flight) DemuxPaths() (string, string) { return f.leftDemux, f.rightDemux }

// Status returns the current lifecycle state
func (f *Flight) Status() events.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// FrameCount returns the number of frames written to the manifests
func (f *Flight) FrameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames
}

// Progress returns the render progress in percent
func (f *Flight) Progress() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.progress
}

// Err returns the error that ended the flight, if any
func (f *Flight) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Parse streams the flight CSV through the resampler into the demux manifests
func (f *Flight) Parse(ctx context.Context) error {
	if err := f.transition(events.StatusDecoded, events.StatusParsing); err != nil {
		return &types.StreamError{Path: f.CSVPath, Op: "parse", Err: err}
	}
	f.logger.Infow("parsing flight", "csv", f.CSVPath)

	frames, err := f.writeManifests(ctx)
	if err != nil {
		return f.fail(err)
	}

	f.mu.Lock()
	f.status = events.StatusParsed
	f.frames = frames
	f.mu.Unlock()

	f.logger.Infow("parsed flight", "frames", frames, "left", f.leftDemux, "right", f.rightDemux)
	f.publish(fmt.Sprintf("%d frames", frames))
	return nil
}

func (f *Flight) writeManifests(ctx context.Context) (int, error) {
	in, err := os.Open(f.CSVPath)
	if err != nil {
		return 0, &types.StreamError{Path: f.CSVPath, Op: "open flight csv", Err: err}
	}
	defer in.Close()

	rows, err := newRowReader(in)
	if err != nil {
		return 0, &types.StreamError{Path: f.CSVPath, Op: "read flight csv", Err: err}
	}

	pair, err := video.CreateDemuxPair(f.leftDemux, f.rightDemux, f.resolver.FrameDuration())
	if err != nil {
		return 0, err
	}

	resampler := newResampler(f.resolver.MicroSecPerFrame())
	emit := func(sample sticks.StickSample) error {
		if pair.Entries()%ctxCheckRows == ctxCheckRows-1 && ctx.Err() != nil {
			return &types.StreamError{Path: f.CSVPath, Op: "parse", Err: ctx.Err()}
		}
		paths := f.resolver.Resolve(sample)
		return pair.Append(paths.Left, paths.Right)
	}
	count := 0
	for {
		if count%ctxCheckRows == 0 && ctx.Err() != nil {
			_ = pair.Close()
			return 0, &types.StreamError{Path: f.CSVPath, Op: "parse", Err: ctx.Err()}
		}
		count++

		row, err := rows.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			_ = pair.Close()
			return 0, &types.StreamError{Path: f.CSVPath, Op: "read flight csv", Err: err}
		}

		filled, err := resampler.Step(row, emit)
		if err != nil {
			_ = pair.Close()
			return 0, err
		}
		if filled*f.resolver.MicroSecPerFrame() > rowGapWarnMicros {
			f.logger.Warnw("telemetry gap filled with interpolated frames",
				"row", count, "time", row.TimeMicros, "frames", filled)
		}
	}

	if err := pair.Close(); err != nil {
		return 0, err
	}
	if rows.Skipped() > 0 {
		f.logger.Warnw("skipped incomplete csv rows", "rows", rows.Skipped())
	}
	if pair.Entries() == 0 {
		return 0, &types.StreamError{Path: f.CSVPath, Op: "parse", Err: errors.New("flight has no telemetry rows")}
	}
	return pair.Entries(), nil
}

// Render runs the compositor over the demux manifests. sem bounds how many renders
// run at once across the whole batch and may be nil.
func (f *Flight) Render(ctx context.Context, sem *semaphore.Weighted) error {
	if f.Status() != events.StatusParsed {
		return &types.RenderProcessError{Flight: f.Name(), ExitCode: -1,
			Err: fmt.Errorf("flight is %s, not %s", f.Status(), events.StatusParsed)}
	}

	if sem != nil {
		if err := sem.Acquire(ctx, 1); err != nil {
			return f.fail(&types.RenderProcessError{Flight: f.Name(), ExitCode: -1, Err: err})
		}
		defer sem.Release(1)
	}

	if err := f.transition(events.StatusParsed, events.StatusRendering); err != nil {
		return &types.RenderProcessError{Flight: f.Name(), ExitCode: -1, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(f.outputPath), 0755); err != nil {
		return f.fail(&types.StreamError{Path: filepath.Dir(f.outputPath), Op: "create output directory", Err: err})
	}

	f.logger.Infow("rendering flight", "output", f.outputPath)
	started := time.Now()

	result, err := video.Compose(ctx, video.ComposeOptions{
		Compositor:    f.compositor,
		LeftManifest:  f.leftDemux,
		RightManifest: f.rightDemux,
		Output:        f.outputPath,
		FPS:           f.resolver.FPS(),
	}, f.onFrame, func(line string) {
		f.logger.Debugw(line, "process", filepath.Base(f.compositor))
	})
	if err != nil {
		return f.fail(&types.RenderProcessError{Flight: f.Name(), ExitCode: -1, Err: err})
	}
	if result.ExitCode != 0 {
		var cause error
		if result.LastError != "" {
			cause = errors.New(result.LastError)
		}
		return f.fail(&types.RenderProcessError{Flight: f.Name(), ExitCode: result.ExitCode, Err: cause})
	}
	if err := video.ValidateOutput(f.outputPath); err != nil {
		return f.fail(&types.RenderProcessError{Flight: f.Name(), ExitCode: -1, Err: err})
	}

	var info *video.OutputInfo
	if f.probe {
		info, err = video.ProbeOutput(ctx, video.ProbeCommand(f.compositor), f.outputPath)
		if err != nil {
			f.logger.Warnw("failed to probe rendered flight", "error", err)
		}
	}

	f.mu.Lock()
	f.status = events.StatusComplete
	f.progress = 100
	f.info = info
	f.renderTime = time.Since(started)
	f.mu.Unlock()

	f.logger.Infow("rendered flight", "output", f.outputPath, "took", f.renderTime)
	f.publish("Rendered to " + f.outputPath)
	return nil
}

func (f *Flight) onFrame(frame int) {
	f.mu.Lock()
	f.progress = video.Percent(frame, f.frames)
	f.mu.Unlock()
	f.publish("")
}

// transition moves from one state to the next or reports the actual state
func (f *Flight) transition(from, to events.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status != from {
		return fmt.Errorf("flight is %s, expected %s", f.status, from)
	}
	f.status = to
	f.publishLocked("")
	return nil
}

// fail moves the flight into its terminal error state
func (f *Flight) fail(err error) error {
	f.mu.Lock()
	f.status = events.StatusError
	f.err = err
	f.mu.Unlock()

	f.logger.Errorw("flight failed", "error", err)
	f.publish(err.Error())
	return err
}

func (f *Flight) publish(message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.publishLocked(message)
}

func (f *Flight) publishLocked(message string) {
	f.sink.Publish(events.Event{
		Status:         f.status,
		LogPath:        f.logPath,
		OutputFileName: filepath.Base(f.outputPath),
		FlightNumber:   f.Number,
		Message:        message,
		Progress:       f.progress,
		Time:           time.Now(),
	})
}

// FlightSummary is a snapshot of one flight for reports
type FlightSummary struct {
	LogPath    string
	LogName    string
	Number     int
	OutputPath string
	Status     events.Status
	Frames     int
	Progress   float64
	RenderTime time.Duration
	Error      string
	Resolution string
	Codec      string
	Duration   float64
}

// Summary returns the flight's current state
func (f *Flight) Summary() FlightSummary {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := FlightSummary{
		LogPath:    f.logPath,
		LogName:    f.LogName,
		Number:     f.Number,
		OutputPath: f.outputPath,
		Status:     f.status,
		Frames:     f.frames,
		Progress:   f.progress,
		RenderTime: f.renderTime,
	}
	if f.err != nil {
		s.Error = f.err.Error()
	}
	if f.info != nil {
		s.Resolution = f.info.Resolution
		s.Codec = f.info.Codec
		s.Duration = f.info.Duration
	}
	return s
}
