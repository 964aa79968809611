package display

import "sync"

// Queue is a bounded FIFO of events. When full, Push discards the oldest
// event so the newest input is never lost.
type Queue struct {
	mu      sync.Mutex
	events  []Event
	size    int
	dropped uint64
}

// NewQueue returns a queue holding at most size events (minimum 1).
func NewQueue(size int) *Queue {
	if size < 1 {
		size = 1
	}
	return &Queue{size: size}
}

// Push appends ev and reports whether an older event was discarded.
func (q *Queue) Push(ev Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	dropped := false
	if len(q.events) == q.size {
		q.events = q.events[1:]
		q.dropped++
		dropped = true
	}
	q.events = append(q.events, ev)
	return dropped
}

// Pop removes and returns the oldest event.
func (q *Queue) Pop() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event{}, false
	}
	ev := q.events[0]
	q.events = q.events[1:]
	return ev, true
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Dropped returns how many events were discarded because the queue was full.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
