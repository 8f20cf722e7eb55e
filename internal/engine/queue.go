package engine

import "sync"

// eventQueue is an unbounded, goroutine-safe FIFO of events.
//
// Producers (websocket readers, the proximity service) never block. The Run
// loop waits on a size-1 signal channel so it can also watch ctx.Done().
type eventQueue struct {
	mu     sync.Mutex
	events []Event
	closed bool
	signal chan struct{}
}

// newEventQueue creates an empty event queue.
func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]Event, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *eventQueue) Enqueue(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.events = append(q.events, e)

	// buffer of 1 coalesces signals
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
// Returns (Event{}, false) if queue is empty.
func (q *eventQueue) TryDequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event{}, false
	}

	e := q.events[0]

	// Clear the slot so the Reply channel is not retained by the backing array.
	q.events[0] = Event{}

	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}

	return e, true
}

// Wait returns a channel that signals when events may be available.
// Use with select for context-aware waiting:
//
//	select {
//	case <-ctx.Done():
//	    return ctx.Err()
//	case <-q.Wait():
//	    // Try TryDequeue
//	}
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Drained reports whether the queue is closed and empty.
func (q *eventQueue) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.events) == 0
}

// Close signals that no more events will be enqueued.
// Wakes any blocked waiters by closing the signal channel.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
