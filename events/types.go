// Package events carries flight status updates from the render pipeline to
// whoever is watching: the terminal UI, the log and websocket clients.
package events

import (
	"sync"
	"time"
)

// Status is the lifecycle state of one flight
type Status string

const (
	StatusDecoded   Status = "decoded"
	StatusParsing   Status = "parsing"
	StatusParsed    Status = "parsed"
	StatusRendering Status = "rendering"
	StatusComplete  Status = "complete"
	StatusError     Status = "error"
)

// Terminal reports whether no further events follow for the flight
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// Event is one status update for a flight
type Event struct {
	RunID          string    `json:"runId"`
	Status         Status    `json:"status"`
	LogPath        string    `json:"logPath"`
	OutputFileName string    `json:"outputFileName"`
	FlightNumber   int       `json:"flightNumber"`
	Message        string    `json:"message,omitempty"`
	Progress       float64   `json:"progress"`
	Time           time.Time `json:"time"`
}

// Key identifies the flight an event belongs to. Logs from different cards
// often share a name, so the output file name alone is not unique.
func (e Event) Key() string {
	return FlightKey(e.LogPath, e.OutputFileName)
}

// FlightKey builds the Key of the events published by one flight
func FlightKey(logPath, outputFileName string) string {
	if logPath == "" {
		return outputFileName
	}
	return logPath + "|" + outputFileName
}

// Sink receives events. Publish must return quickly and never block the caller
// on a slow consumer.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(Event)

func (f SinkFunc) Publish(e Event) { f(e) }

type discard struct{}

func (discard) Publish(Event) {}

// Discard drops every event
var Discard Sink = discard{}

type multi []Sink

// Multi fans every event out to all sinks in order
func Multi(sinks ...Sink) Sink {
	var m multi
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	if len(m) == 0 {
		return Discard
	}
	if len(m) == 1 {
		return m[0]
	}
	return m
}

func (m multi) Publish(e Event) {
	for _, s := range m {
		s.Publish(e)
	}
}

// Stamp fills RunID and Time on every event passed through it
type Stamp struct {
	RunID string
	Next  Sink
}

func (s Stamp) Publish(e Event) {
	if e.RunID == "" {
		e.RunID = s.RunID
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	s.Next.Publish(e)
}

// Recorder keeps every event in memory. Used by tests and the report writer.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of everything recorded so far
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Statuses returns the recorded statuses for one flight in publish order
func (r *Recorder) Statuses(key string) []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Status
	for _, e := range r.events {
		if e.Key() == key {
			out = append(out, e.Status)
		}
	}
	return out
}
