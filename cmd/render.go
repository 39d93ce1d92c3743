package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gimbal-ghost/gimbal-ghost/blackbox"
	"github.com/gimbal-ghost/gimbal-ghost/events"
	"github.com/gimbal-ghost/gimbal-ghost/report"
	"github.com/gimbal-ghost/gimbal-ghost/sticks"
	"github.com/gimbal-ghost/gimbal-ghost/types"
	"github.com/gimbal-ghost/gimbal-ghost/ui"
	"github.com/gimbal-ghost/gimbal-ghost/utils"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
)

// ErrRenderFailed is returned when at least one log or flight did not render
var ErrRenderFailed = errors.New("render finished with errors")

// RenderCmd renders stick overlay videos for blackbox logs
type RenderCmd struct {
	Files      []string `arg:"" name:"files" help:"Blackbox logs (.bbl, .bfl, .csv) or directories to scan" type:"path"`
	Manifest   string   `help:"Stick manifest (json or yaml)" type:"existingfile" required:"" env:"GIMBAL_GHOST_MANIFEST"`
	Source     string   `help:"Firmware family that wrote the logs" default:"betaflight" enum:"betaflight,emuflight,rotorflight,edgetx"`
	Mode       string   `help:"Transmitter stick mode" default:"2" enum:"1,2,3,4"`
	FPS        float64  `name:"fps" help:"Output frame rate" default:"30"`
	OutputDir  string   `help:"Directory for rendered overlays (default: next to each log)" type:"path"`
	Decoder    string   `help:"blackbox_decode executable" default:"blackbox_decode" env:"GIMBAL_GHOST_DECODER"`
	FFmpeg     string   `name:"ffmpeg" help:"ffmpeg executable" default:"ffmpeg" env:"GIMBAL_GHOST_FFMPEG"`
	Jobs       int      `help:"Number of concurrent decodes and renders (0 = auto)" default:"0"`
	NoTUI      bool     `name:"no-tui" help:"Print a plain progress bar instead of the interactive view"`
	Report     string   `help:"Write an xlsx report of every flight to this path" type:"path"`
	Probe      bool     `help:"Read rendered overlays back with ffprobe for the report"`
	EventsAddr string   `help:"Serve status events over websocket, e.g. localhost:8765"`
}

func (cmd *RenderCmd) Run(appCtx *types.AppContext) error {
	version := appCtx.VersionString()
	logger := appCtx.Log()

	if err := utils.ValidateDependencies(cmd.Decoder, cmd.FFmpeg); err != nil {
		return fmt.Errorf("dependency check failed: %w", err)
	}

	files, err := blackbox.FindLogFiles(cmd.Files)
	if err != nil {
		return fmt.Errorf("failed to expand directories: %w", err)
	}
	if len(files) == 0 {
		fmt.Println("🎯 No blackbox logs found.")
		return nil
	}

	mode, err := strconv.Atoi(cmd.Mode)
	if err != nil {
		return fmt.Errorf("invalid transmitter mode %q: %w", cmd.Mode, err)
	}

	// Set default job count based on drive type
	jobs := cmd.Jobs
	if jobs <= 0 {
		jobs = utils.DefaultJobs(append([]string{cmd.OutputDir}, files...)...)
		if jobs == 1 && runtime.NumCPU() > 1 {
			fmt.Printf("⚠️  Network drive detected, using 1 job for optimal performance\n")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	useTUI := !cmd.NoTUI && isatty.IsTerminal(os.Stdout.Fd())
	if useTUI && appCtx != nil && appCtx.LogFile == "" {
		// Log lines on stderr would tear the interactive view
		logger = zap.NewNop().Sugar()
	}

	runID := uuid.NewString()
	logger = logger.With("run", runID)

	sinks := []events.Sink{events.LogSink{Logger: logger}}
	if cmd.EventsAddr != "" {
		hub := events.NewHub(logger)
		addr, err := hub.Listen(cmd.EventsAddr)
		if err != nil {
			return fmt.Errorf("failed to start event hub: %w", err)
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer shutdownCancel()
			if err := hub.Close(shutdownCtx); err != nil {
				logger.Warnw("failed to stop event hub", "error", err)
			}
		}()
		fmt.Println(ui.InfoStyle.Render(fmt.Sprintf("📡 Streaming status events on ws://%s/events", addr)))
		sinks = append(sinks, hub)
	}

	var (
		program *tea.Program
		bar     *ui.ProgressBarSink
	)
	if useTUI {
		program = tea.NewProgram(ui.NewRenderModel(version, cancel))
		sinks = append(sinks, ui.ProgramSink{Program: program})
	} else {
		bar = ui.NewProgressBarSink(os.Stderr)
		sinks = append(sinks, bar)
	}
	queue := events.NewQueue(events.Stamp{RunID: runID, Next: events.Multi(sinks...)}, events.DefaultQueueSize)

	pipeline := blackbox.NewPipeline(blackbox.PipelineOptions{
		ManifestPath:   cmd.Manifest,
		Source:         sticks.Source(cmd.Source),
		DecoderPath:    cmd.Decoder,
		CompositorPath: cmd.FFmpeg,
		OutputDir:      cmd.OutputDir,
		Jobs:           jobs,
		Sink:           queue,
		Logger:         logger,
		Probe:          cmd.Probe,
	})
	req := blackbox.RenderRequest{
		LogPaths:        files,
		TransmitterMode: sticks.TransmitterMode(mode),
		OutputFPS:       cmd.FPS,
	}

	fmt.Println(ui.HeaderStyle.Render(fmt.Sprintf("Gimbal Ghost %s", version)))
	fmt.Println(ui.ProcessingStyle.Render(fmt.Sprintf("🎬 Rendering %d logs with %d jobs:", len(files), jobs)))

	var summary blackbox.Summary
	if program != nil {
		summary, err = runWithTUI(ctx, program, pipeline, req, queue, cancel)
		if err != nil {
			return err
		}
	} else {
		summary = pipeline.Run(ctx, req)
		queue.Close()
		_ = bar.Finish()
	}

	if dropped := queue.Dropped(); dropped > 0 {
		logger.Warnw("dropped status events", "count", dropped)
	}

	printSummary(summary)

	if cmd.Report != "" {
		if err := report.WriteXLSX(cmd.Report, summary.Flights); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Println(ui.InfoStyle.Render(fmt.Sprintf("📊 Report written to %s", cmd.Report)))
	}

	if !summary.Success {
		return ErrRenderFailed
	}
	return nil
}

// runWithTUI runs the pipeline in the background while the program draws progress
func runWithTUI(ctx context.Context, program *tea.Program, pipeline *blackbox.Pipeline,
	req blackbox.RenderRequest, queue *events.Queue, cancel context.CancelFunc) (blackbox.Summary, error) {
	var summary blackbox.Summary
	done := make(chan struct{})

	go func() {
		defer close(done)
		summary = pipeline.Run(ctx, req)
		queue.Close()
		program.Send(ui.RunFinishedMsg{Success: summary.Success, Errors: len(summary.Errors)})
	}()

	if _, err := program.Run(); err != nil {
		cancel()
		<-done
		return summary, fmt.Errorf("failed to run TUI: %w", err)
	}

	// The user may have quit early, in which case the run was cancelled and winds down here
	<-done
	return summary, nil
}

// printSummary displays the outcome of every flight and every error not tied to one
func printSummary(summary blackbox.Summary) {
	fmt.Printf("\n%s\n", ui.HeaderStyle.Render("📊 Render Summary"))

	var complete, failed int
	flightErrors := make(map[string]bool)
	for _, f := range summary.Flights {
		style := ui.StatusStyle(f.Status)
		switch f.Status {
		case events.StatusComplete:
			complete++
			fmt.Printf("%s\n", style.Render(fmt.Sprintf("✅ %s", f.OutputPath)))
		case events.StatusError:
			failed++
			flightErrors[f.Error] = true
			fmt.Printf("%s\n", style.Render(fmt.Sprintf("❌ %s: %s", blackbox.OutputFileName(f.LogName, f.Number), f.Error)))
		default:
			failed++
			fmt.Printf("%s\n", style.Render(fmt.Sprintf("⏹️  %s stopped while %s", blackbox.OutputFileName(f.LogName, f.Number), f.Status)))
		}
	}

	for _, err := range summary.Errors {
		if !flightErrors[err.Error()] {
			fmt.Printf("%s\n", ui.ErrorStyle.Render(fmt.Sprintf("❌ %v", err)))
		}
	}

	fmt.Printf("   Rendered: %d flights\n", complete)
	fmt.Printf("   Failed: %d flights\n", failed)

	if summary.Success {
		fmt.Printf("\n%s\n", ui.SuccessStyle.Render("🎉 Render complete!"))
	} else {
		fmt.Printf("\n%s\n", ui.ErrorStyle.Render("❌ Render finished with errors."))
	}
}
