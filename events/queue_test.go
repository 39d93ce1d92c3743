package events

import (
	"testing"
)

func TestQueueDeliversInOrder(t *testing.T) {
	var rec Recorder
	q := NewQueue(&rec, 0)

	for i := 0; i < 100; i++ {
		q.Publish(Event{Status: StatusRendering, OutputFileName: "a.mov", Progress: float64(i)})
	}
	q.Close()

	events := rec.Events()
	if len(events) != 100 {
		t.Fatalf("Expected 100 events, got %d", len(events))
	}
	for i, e := range events {
		if e.Progress != float64(i) {
			t.Fatalf("Event %d out of order: progress %v", i, e.Progress)
		}
	}
	if q.Dropped() != 0 {
		t.Errorf("Expected no drops, got %d", q.Dropped())
	}
}

func TestQueueDropsWhenFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	var rec Recorder
	blocking := SinkFunc(func(e Event) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		rec.Publish(e)
	})

	q := NewQueue(blocking, 2)
	q.Publish(Event{Progress: 0})
	<-started // delivery goroutine now holds event 0

	q.Publish(Event{Progress: 1})
	q.Publish(Event{Progress: 2})
	q.Publish(Event{Progress: 3}) // buffer of 2 is full

	if q.Dropped() != 1 {
		t.Errorf("Expected 1 dropped event, got %d", q.Dropped())
	}

	close(release)
	q.Close()

	if len(rec.Events()) != 3 {
		t.Errorf("Expected 3 delivered events, got %d", len(rec.Events()))
	}
}

func TestQueuePublishAfterClose(t *testing.T) {
	var rec Recorder
	q := NewQueue(&rec, 4)
	q.Close()
	q.Close()

	q.Publish(Event{Status: StatusComplete})

	if len(rec.Events()) != 0 {
		t.Error("Expected no delivery after close")
	}
	if q.Dropped() != 1 {
		t.Errorf("Expected the late event to be counted as dropped, got %d", q.Dropped())
	}
}
