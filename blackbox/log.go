package blackbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gimbal-ghost/gimbal-ghost/events"
	"github.com/gimbal-ghost/gimbal-ghost/sticks"
	"github.com/gimbal-ghost/gimbal-ghost/types"
	"github.com/gimbal-ghost/gimbal-ghost/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// ScratchPrefix prefixes every scratch directory created for a log
const ScratchPrefix = "gimbal-ghost-"

// Extensions accepted as input. ".csv" is an already decoded single flight.
var logExtensions = []string{".bbl", ".bfl", ".csv"}

// IsLogFile checks if the extension is one of the accepted log extensions
func IsLogFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, v := range logExtensions {
		if v == ext {
			return true
		}
	}
	return false
}

// isDecodedCSV reports whether a file in the scratch directory is a flight CSV.
// GPS side files are skipped.
func isDecodedCSV(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".csv") && !strings.HasSuffix(lower, ".gps.csv")
}

// LogOptions configures a Log
type LogOptions struct {
	Path           string
	Resolver       *sticks.Resolver
	OutputDir      string // defaults to the directory of Path
	OutputName     string // prefix of the flights' output files, defaults to the log name
	DecoderPath    string
	CompositorPath string
	Sink           events.Sink
	Logger         *zap.SugaredLogger
	Probe          bool
}

// Log is one blackbox log selected by the user. It owns a scratch copy of the
// file and every flight decoded from it.
type Log struct {
	path        string
	scratchDir  string
	scratchPath string
	opts        LogOptions
	logger      *zap.SugaredLogger

	mu       sync.Mutex
	flights  []*Flight
	decoded  bool
	disposed bool
}

// NewLog validates the log path and copies the file into a fresh scratch directory
func NewLog(opts LogOptions) (*Log, error) {
	if !IsLogFile(opts.Path) {
		return nil, &types.ConfigurationError{
			Path:   opts.Path,
			Reason: fmt.Sprintf("blackbox logs must end in %s", strings.Join(logExtensions, ", ")),
		}
	}
	if opts.Resolver == nil {
		return nil, &types.ConfigurationError{Path: opts.Path, Reason: "no frame resolver configured"}
	}

	absPath, err := filepath.Abs(opts.Path)
	if err != nil {
		return nil, &types.ConfigurationError{Path: opts.Path, Reason: "invalid path", Err: err}
	}
	fi, err := os.Stat(absPath)
	if err != nil {
		return nil, &types.ConfigurationError{Path: opts.Path, Reason: "log file not accessible", Err: err}
	}
	if fi.IsDir() {
		return nil, &types.ConfigurationError{Path: opts.Path, Reason: "log path is a directory"}
	}

	if opts.OutputDir == "" {
		opts.OutputDir = filepath.Dir(absPath)
	}
	if opts.DecoderPath == "" {
		opts.DecoderPath = utils.DefaultDecoder
	}
	if opts.CompositorPath == "" {
		opts.CompositorPath = utils.DefaultCompositor
	}
	if opts.Sink == nil {
		opts.Sink = events.Discard
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	opts.Path = absPath

	scratchDir, err := os.MkdirTemp("", ScratchPrefix)
	if err != nil {
		return nil, &types.StreamError{Path: os.TempDir(), Op: "create scratch directory", Err: err}
	}

	l := &Log{
		path:        absPath,
		scratchDir:  scratchDir,
		scratchPath: filepath.Join(scratchDir, filepath.Base(absPath)),
		opts:        opts,
		logger:      opts.Logger.With("log", filepath.Base(absPath)),
	}

	if err := copyFile(absPath, l.scratchPath); err != nil {
		_ = os.RemoveAll(scratchDir)
		return nil, err
	}

	return l, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return &types.StreamError{Path: src, Op: "open log", Err: err}
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return &types.StreamError{Path: dst, Op: "create scratch copy", Err: err}
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return &types.StreamError{Path: dst, Op: "copy log", Err: err}
	}
	if err := out.Close(); err != nil {
		return &types.StreamError{Path: dst, Op: "close scratch copy", Err: err}
	}
	return nil
}

// Path returns the absolute path of the user's log file
func (l *Log) Path() string { return l.path }

// ScratchDir returns the scratch directory owned by this log
func (l *Log) ScratchDir() string { return l.scratchDir }

// Flights returns the flights found by Decode
func (l *Log) Flights() []*Flight {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Flight, len(l.flights))
	copy(out, l.flights)
	return out
}

// Decode turns the log into flights. CSV input becomes a single flight, binary
// logs go through the external decoder.
func (l *Log) Decode(ctx context.Context) error {
	l.mu.Lock()
	if l.decoded {
		l.mu.Unlock()
		return fmt.Errorf("log %s was already decoded", l.path)
	}
	l.decoded = true
	l.mu.Unlock()

	var csvPaths []string
	if strings.EqualFold(filepath.Ext(l.path), ".csv") {
		csvPaths = []string{l.scratchPath}
	} else {
		paths, err := l.runDecoder(ctx)
		if err != nil {
			l.logger.Errorw("decode failed", "error", err)
			return err
		}
		csvPaths = paths
	}

	flights := make([]*Flight, 0, len(csvPaths))
	for _, p := range csvPaths {
		flights = append(flights, NewFlight(FlightOptions{
			CSVPath:        p,
			LogPath:        l.path,
			OutputDir:      l.opts.OutputDir,
			OutputName:     l.opts.OutputName,
			Resolver:       l.opts.Resolver,
			CompositorPath: l.opts.CompositorPath,
			Sink:           l.opts.Sink,
			Logger:         l.opts.Logger,
			Probe:          l.opts.Probe,
		}))
	}

	l.mu.Lock()
	l.flights = flights
	l.mu.Unlock()
	return nil
}

func (l *Log) runDecoder(ctx context.Context) ([]string, error) {
	logFile := filepath.Base(l.scratchPath)
	l.logger.Infow("decoding", "decoder", l.opts.DecoderPath)

	debug := func(stream string) utils.LineHandler {
		return func(line string) {
			l.logger.Debugw(line, "process", filepath.Base(l.opts.DecoderPath), "stream", stream)
		}
	}

	code, err := utils.RunProcess(ctx, l.opts.DecoderPath, []string{l.scratchPath}, debug("stdout"), debug("stderr"))
	if err != nil {
		return nil, &types.DecodeProcessError{LogFile: logFile, ExitCode: -1, Err: err}
	}
	if code != 0 {
		return nil, &types.DecodeProcessError{LogFile: logFile, ExitCode: code}
	}

	paths, err := l.findDecodedCSVs()
	if err != nil {
		return nil, &types.DecodeProcessError{LogFile: logFile, ExitCode: -1, Err: err}
	}
	if len(paths) == 0 {
		return nil, &types.DecodeProcessError{LogFile: logFile, ExitCode: -1, Err: errors.New("decoder produced no flight csv files")}
	}

	l.logger.Infow("decoded", "flights", len(paths))
	return paths, nil
}

// findDecodedCSVs lists flight CSVs in the scratch directory ordered by flight number
func (l *Log) findDecodedCSVs() ([]string, error) {
	entries, err := os.ReadDir(l.scratchDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scratch directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !isDecodedCSV(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(l.scratchDir, e.Name()))
	}

	sort.Slice(paths, func(i, j int) bool {
		_, ni := ParseFlightName(paths[i])
		_, nj := ParseFlightName(paths[j])
		if ni != nj {
			return ni < nj
		}
		return paths[i] < paths[j]
	})
	return paths, nil
}

// Parse parses every flight still in the Decoded state concurrently. All of them
// are attempted and the first error is returned.
func (l *Log) Parse(ctx context.Context) error {
	var g errgroup.Group
	for _, f := range l.Flights() {
		if f.Status() != events.StatusDecoded {
			continue
		}
		g.Go(func() error {
			return f.Parse(ctx)
		})
	}
	return g.Wait()
}

// Render renders every parsed flight concurrently. Flights that failed to parse are
// left alone so their siblings still produce output.
func (l *Log) Render(ctx context.Context, sem *semaphore.Weighted) error {
	var g errgroup.Group
	for _, f := range l.Flights() {
		if f.Status() != events.StatusParsed {
			continue
		}
		g.Go(func() error {
			return f.Render(ctx, sem)
		})
	}
	return g.Wait()
}

// Dispose removes the scratch directory. It is safe to call more than once and
// after any failure.
func (l *Log) Dispose() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.disposed {
		return nil
	}
	l.disposed = true

	if err := os.RemoveAll(l.scratchDir); err != nil {
		return &types.StreamError{Path: l.scratchDir, Op: "remove scratch directory", Err: err}
	}
	l.logger.Debugw("removed scratch directory", "dir", l.scratchDir)
	return nil
}

// Summaries returns a snapshot of every flight
func (l *Log) Summaries() []FlightSummary {
	flights := l.Flights()
	out := make([]FlightSummary, 0, len(flights))
	for _, f := range flights {
		out = append(out, f.Summary())
	}
	return out
}
