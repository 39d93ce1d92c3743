package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gimbal-ghost/gimbal-ghost/events"
	"github.com/schollz/progressbar/v3"
)

// ProgramSink forwards events to a running bubbletea program. Program.Send blocks
// until the program reads the message, so wrap it in an events.Queue.
type ProgramSink struct {
	Program *tea.Program
}

// Publish implements events.Sink
func (s ProgramSink) Publish(e events.Event) {
	s.Program.Send(FlightEventMsg{Event: e})
}

// ProgressBarSink draws a single aggregate progress bar for runs without the TUI.
// Every known flight contributes 100 units to the bar.
type ProgressBarSink struct {
	mu       sync.Mutex
	bar      *progressbar.ProgressBar
	progress map[string]float64
	order    []string
}

// NewProgressBarSink creates a bar writing to w
func NewProgressBarSink(w io.Writer) *ProgressBarSink {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("rendering"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
	return &ProgressBarSink{
		bar:      bar,
		progress: make(map[string]float64),
	}
}

// Publish implements events.Sink
func (s *ProgressBarSink) Publish(e events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := e.Key()
	if _, ok := s.progress[key]; !ok {
		s.order = append(s.order, key)
	}
	switch {
	case e.Status.Terminal():
		s.progress[key] = 100
	case e.Status == events.StatusRendering:
		s.progress[key] = e.Progress
	default:
		s.progress[key] = 0
	}

	s.bar.ChangeMax(len(s.order) * 100)
	_ = s.bar.Set(int(s.total()))
	s.bar.Describe(fmt.Sprintf("%s %s", StatusIcon(e.Status), e.OutputFileName))
}

func (s *ProgressBarSink) total() float64 {
	var total float64
	for _, p := range s.progress {
		total += p
	}
	return total
}

// Overall returns the aggregate progress in percent
func (s *ProgressBarSink) Overall() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.order) == 0 {
		return 0
	}
	return s.total() / float64(len(s.order))
}

// Finish completes the bar
func (s *ProgressBarSink) Finish() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bar.Finish()
}
