package ui

import "github.com/gimbal-ghost/gimbal-ghost/events"

// FlightEventMsg carries one pipeline status event into the TUI
type FlightEventMsg struct {
	Event events.Event
}

// RunFinishedMsg is sent once the pipeline has returned
type RunFinishedMsg struct {
	Success bool
	Errors  int
}
