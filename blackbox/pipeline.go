package blackbox

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/gimbal-ghost/gimbal-ghost/events"
	"github.com/gimbal-ghost/gimbal-ghost/sticks"
	"github.com/gimbal-ghost/gimbal-ghost/types"
	"github.com/gimbal-ghost/gimbal-ghost/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// RenderRequest is one batch of logs to render
type RenderRequest struct {
	LogPaths        []string
	TransmitterMode sticks.TransmitterMode
	OutputFPS       float64
}

// PipelineOptions holds the settings shared by every log in a batch
type PipelineOptions struct {
	ManifestPath   string
	Source         sticks.Source
	DecoderPath    string
	CompositorPath string
	OutputDir      string // empty renders next to each log
	Jobs           int    // concurrent decodes and renders, <= 0 picks a default
	Sink           events.Sink
	Logger         *zap.SugaredLogger
	Probe          bool
}

// Summary is the outcome of a batch
type Summary struct {
	Success bool
	Flights []FlightSummary
	Errors  []error
}

// Pipeline renders batches of blackbox logs
type Pipeline struct {
	opts PipelineOptions
}

// NewPipeline fills in defaults for unset options
func NewPipeline(opts PipelineOptions) *Pipeline {
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
	return &Pipeline{opts: opts}
}

// RenderLogs runs one batch and reports whether every flight rendered
func RenderLogs(ctx context.Context, req RenderRequest, opts PipelineOptions) bool {
	return NewPipeline(opts).Run(ctx, req).Success
}

// Run decodes, parses and renders every log in phases. Each phase finishes for the
// whole batch before the next one starts. A log that fails to decode drops out while
// the others carry on. Scratch directories are removed when Run returns, whatever
// happened before.
func (p *Pipeline) Run(ctx context.Context, req RenderRequest) Summary {
	logger := p.opts.Logger
	var (
		mu     sync.Mutex
		errs   []error
		record = func(err error) {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}
	)

	resolver, err := sticks.NewResolver(sticks.ResolverOptions{
		ManifestPath: p.opts.ManifestPath,
		Source:       p.opts.Source,
		Mode:         req.TransmitterMode,
		FPS:          req.OutputFPS,
	})
	if err != nil {
		logger.Errorw("failed to load stick manifest", "manifest", p.opts.ManifestPath, "error", err)
		return Summary{Errors: []error{err}}
	}

	names := outputNames(req.LogPaths, p.opts.OutputDir)
	var logs []*Log
	for _, path := range req.LogPaths {
		l, err := NewLog(LogOptions{
			Path:           path,
			Resolver:       resolver,
			OutputDir:      p.opts.OutputDir,
			OutputName:     names[path],
			DecoderPath:    p.opts.DecoderPath,
			CompositorPath: p.opts.CompositorPath,
			Sink:           p.opts.Sink,
			Logger:         logger,
			Probe:          p.opts.Probe,
		})
		if err != nil {
			logger.Errorw("skipping log", "log", path, "error", err)
			record(err)
			continue
		}
		logs = append(logs, l)
	}
	defer p.disposeAll(logs)

	jobs := p.opts.Jobs
	if jobs <= 0 {
		jobs = utils.DefaultJobs(append([]string{p.opts.OutputDir}, req.LogPaths...)...)
	}
	logger.Infow("starting render", "logs", len(logs), "jobs", jobs,
		"mode", resolver.Mode(), "fps", resolver.FPS(), "source", resolver.Source())

	// Decode
	decoded := make([]bool, len(logs))
	var g errgroup.Group
	g.SetLimit(jobs)
	for i, l := range logs {
		g.Go(func() error {
			if err := l.Decode(ctx); err != nil {
				record(err)
				return nil
			}
			decoded[i] = true
			return nil
		})
	}
	_ = g.Wait()

	var live []*Log
	for i, l := range logs {
		if decoded[i] {
			live = append(live, l)
		}
	}
	claimOutputs(live)

	// Parse
	g = errgroup.Group{}
	for _, l := range live {
		g.Go(func() error {
			// Failures stay on the flights and are collected below
			_ = l.Parse(ctx)
			return nil
		})
	}
	_ = g.Wait()

	// Render
	sem := semaphore.NewWeighted(int64(jobs))
	g = errgroup.Group{}
	for _, l := range live {
		g.Go(func() error {
			_ = l.Render(ctx, sem)
			return nil
		})
	}
	_ = g.Wait()

	for _, l := range live {
		for _, f := range l.Flights() {
			if err := f.Err(); err != nil {
				record(err)
			}
		}
	}

	summary := Summary{Errors: errs}
	for _, l := range logs {
		summary.Flights = append(summary.Flights, l.Summaries()...)
	}
	summary.Success = len(errs) == 0 && len(summary.Flights) > 0
	for _, f := range summary.Flights {
		if f.Status != events.StatusComplete {
			summary.Success = false
		}
	}

	if summary.Success {
		logger.Infow("render finished", "flights", len(summary.Flights))
	} else {
		logger.Errorw("render finished with errors", "flights", len(summary.Flights), "errors", len(errs))
	}
	return summary
}

// outputNames renames logs that would render into the same directory under the same
// name, which is what happens with LOG00001.bbl files from several SD cards and a
// shared output directory. Each clashing log gets its parent directory appended to
// its name, plus a counter if the parent directories share a name too. Logs that do
// not clash keep their own name and are absent from the result.
func outputNames(paths []string, outputDir string) map[string]string {
	type target struct{ dir, name string }
	type member struct{ path, source string }

	groups := make(map[target][]member)
	var order []target
	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			continue
		}
		dir := outputDir
		if dir == "" {
			dir = filepath.Dir(absPath)
		}
		name, _ := ParseFlightName(absPath)
		t := target{dir: filepath.Clean(dir), name: name}
		if _, ok := groups[t]; !ok {
			order = append(order, t)
		}
		groups[t] = append(groups[t], member{path: path, source: filepath.Dir(absPath)})
	}

	names := make(map[string]string)
	for _, t := range order {
		members := groups[t]
		sources := make(map[string]bool)
		for _, m := range members {
			sources[m.source] = true
		}
		if len(sources) < 2 {
			continue
		}

		// label -> source directory that owns it
		owners := make(map[string]string)
		labels := make(map[string]string)
		for _, m := range members {
			if label, ok := labels[m.source]; ok {
				names[m.path] = label
				continue
			}
			base := fmt.Sprintf("%s (%s)", t.name, filepath.Base(m.source))
			label := base
			for n := 2; owners[label] != "" && owners[label] != m.source; n++ {
				label = fmt.Sprintf("%s %d", base, n)
			}
			owners[label] = m.source
			labels[m.source] = label
			names[m.path] = label
		}
	}
	return names
}

// claimOutputs fails every flight whose output file an earlier flight of the batch
// already renders to. Only the first claimant keeps the path.
func claimOutputs(logs []*Log) {
	owners := make(map[string]*Flight)
	for _, l := range logs {
		for _, f := range l.Flights() {
			path := f.OutputPath()
			owner, ok := owners[path]
			if !ok {
				owners[path] = f
				continue
			}
			_ = f.fail(&types.ConfigurationError{
				Path:   f.logPath,
				Reason: fmt.Sprintf("output %s is already rendered by flight %s of %s", path, owner.Name(), owner.logPath),
			})
		}
	}
}

func (p *Pipeline) disposeAll(logs []*Log) {
	var g errgroup.Group
	for _, l := range logs {
		g.Go(func() error {
			if err := l.Dispose(); err != nil {
				p.opts.Logger.Warnw("failed to remove scratch directory", "dir", l.ScratchDir(), "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}
