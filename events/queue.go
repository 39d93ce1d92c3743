package events

import (
	"sync"
	"sync/atomic"
)

// DefaultQueueSize is the number of events buffered before new ones are dropped
const DefaultQueueSize = 1024

// Queue decouples publishers from a slow sink. Events are delivered by a single
// goroutine in publish order. When the buffer is full new events are dropped and
// counted instead of blocking the publisher.
type Queue struct {
	next    Sink
	ch      chan Event
	done    chan struct{}
	dropped atomic.Uint64

	mu     sync.RWMutex
	closed bool
}

// NewQueue starts the delivery goroutine. size <= 0 uses DefaultQueueSize.
func NewQueue(next Sink, size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	q := &Queue{
		next: next,
		ch:   make(chan Event, size),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.done)
	for e := range q.ch {
		q.next.Publish(e)
	}
}

// Publish enqueues an event without blocking
func (q *Queue) Publish(e Event) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.dropped.Add(1)
		return
	}

	select {
	case q.ch <- e:
	default:
		q.dropped.Add(1)
	}
}

// Dropped returns how many events were discarded
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}

// Close stops accepting events and waits until the buffered ones are delivered
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	q.mu.Unlock()
	<-q.done
}
