package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gimbal-ghost/gimbal-ghost/events"
)

// FlightEntry is a finished flight in the results list
type FlightEntry struct {
	OutputFileName string
	Status         events.Status
	Message        string
}

func (f FlightEntry) FilterValue() string { return f.OutputFileName }
func (f FlightEntry) Title() string       { return f.OutputFileName }
func (f FlightEntry) Description() string {
	if f.Status == events.StatusError {
		return fmt.Sprintf("❌ %s", f.Message)
	}
	return fmt.Sprintf("✓ %s", f.Message)
}

// FlightState tracks one flight while it moves through the pipeline
type FlightState struct {
	OutputFileName string
	FlightNumber   int
	Status         events.Status
	Progress       float64 // 0 to 100
	Message        string
}

// RenderModel shows per-flight progress for a render run
type RenderModel struct {
	// Application state
	flights  map[string]*FlightState
	order    []string
	finished []FlightEntry
	done     bool
	success  bool

	// UI components
	overallProgress progress.Model
	flightProgress  progress.Model
	finishedList    list.Model

	// Layout
	width  int
	height int

	// Control state
	quitting bool
	cancel   func()

	// Version for display
	Version string
}

// NewRenderModel creates the render TUI. cancel is called when the user quits
// before the run is over and may be nil.
func NewRenderModel(version string, cancel func()) RenderModel {
	finishedList := list.New([]list.Item{}, list.NewDefaultDelegate(), 80, 12)
	finishedList.Title = "Finished Flights"
	finishedList.SetShowHelp(false)

	return RenderModel{
		flights:         make(map[string]*FlightState),
		overallProgress: progress.New(progress.WithDefaultGradient()),
		flightProgress:  progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
		finishedList:    finishedList,
		cancel:          cancel,
		Version:         version,
	}
}

// Init implements tea.Model
func (m RenderModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m RenderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			if !m.done && m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.finishedList.SetSize(msg.Width-4, msg.Height/3)

	case FlightEventMsg:
		m.applyEvent(msg.Event)

	case RunFinishedMsg:
		m.done = true
		m.success = msg.Success
		return m, tea.Quit
	}

	return m, nil
}

func (m *RenderModel) applyEvent(e events.Event) {
	key := e.Key()
	state, ok := m.flights[key]
	if !ok {
		state = &FlightState{OutputFileName: e.OutputFileName, FlightNumber: e.FlightNumber}
		m.flights[key] = state
		m.order = append(m.order, key)
	}
	if state.Status.Terminal() {
		return
	}

	state.Status = e.Status
	state.Progress = e.Progress
	if e.Message != "" {
		state.Message = e.Message
	}

	if !e.Status.Terminal() {
		return
	}
	if e.Status == events.StatusComplete {
		state.Progress = 100
	}

	m.finished = append(m.finished, FlightEntry{
		OutputFileName: state.OutputFileName,
		Status:         e.Status,
		Message:        state.Message,
	})
	items := make([]list.Item, len(m.finished))
	for i, entry := range m.finished {
		items[i] = entry
	}
	m.finishedList.SetItems(items)
}

// Flight returns the tracked state of a flight by output file name
func (m RenderModel) Flight(key string) (FlightState, bool) {
	state, ok := m.flights[key]
	if !ok {
		return FlightState{}, false
	}
	return *state, true
}

// Finished returns the flights that reached a terminal state, in order
func (m RenderModel) Finished() []FlightEntry {
	return m.finished
}

// Overall is the fraction of known flights that are finished
func (m RenderModel) Overall() float64 {
	if len(m.order) == 0 {
		return 0
	}
	return float64(len(m.finished)) / float64(len(m.order))
}

// View implements tea.Model
func (m RenderModel) View() string {
	if m.quitting && !m.done {
		return "Cancelling render...\n"
	}

	// Header
	header := HeaderStyle.Render(fmt.Sprintf("Gimbal Ghost %s", m.Version))

	// Overall progress
	overallView := fmt.Sprintf("Overall Progress: %s (%d/%d flights)",
		m.overallProgress.ViewAs(m.Overall()),
		len(m.finished),
		len(m.order))

	// Active flights
	flightViews := []string{"Flights:"}
	for _, key := range m.order {
		state := m.flights[key]
		if state.Status.Terminal() {
			continue
		}
		line := fmt.Sprintf("%s %-10s ", StatusIcon(state.Status), StatusStyle(state.Status).Render(string(state.Status)))
		if state.Status == events.StatusRendering {
			line += m.flightProgress.ViewAs(state.Progress/100) + " "
		}
		flightViews = append(flightViews, line+state.OutputFileName)
	}
	if len(flightViews) == 1 {
		flightViews = append(flightViews, MutedStyle.Render("  waiting for flights..."))
	}

	// Finished list
	finishedView := m.finishedList.View()

	sections := []string{
		header,
		overallView,
		strings.Join(flightViews, "\n"),
		finishedView,
	}

	if m.done {
		if m.success {
			sections = append(sections, SuccessStyle.Render("✅ Render complete."))
		} else {
			sections = append(sections, ErrorStyle.Render("❌ Render finished with errors."))
		}
	} else {
		sections = append(sections, "Controls: [q] Cancel")
	}

	return strings.Join(sections, "\n\n")
}
