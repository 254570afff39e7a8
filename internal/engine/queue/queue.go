package queue

import (
	"Go2InputSpectra/internal/model"
	"context"
	"sync"
)

const initialCapacity = 64

// Queue is an unbounded FIFO of input events with one producer and one consumer.
// Push never blocks; Pop blocks until an event is available or the queue is closed and empty.
type Queue struct {
	mu     sync.Mutex
	buf    []model.Event
	head   int
	size   int
	closed bool

	// wake holds at most one pending signal for the consumer.
	wake chan struct{}
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{
		buf:  make([]model.Event, initialCapacity),
		wake: make(chan struct{}, 1),
	}
}

// Push appends ev to the tail of the queue. It returns false if the queue is closed,
// in which case the event is dropped.
func (q *Queue) Push(ev model.Event) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	if q.size == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.size)%len(q.buf)] = ev
	q.size++
	q.mu.Unlock()

	q.signal()
	return true
}

// Pop removes and returns the event at the head of the queue, waiting if it is empty.
// ok is false once the queue is closed and fully drained, or when ctx is done.
func (q *Queue) Pop(ctx context.Context) (ev model.Event, ok bool) {
	for {
		q.mu.Lock()
		if q.size > 0 {
			ev = q.buf[q.head]
			q.buf[q.head] = model.Event{}
			q.head = (q.head + 1) % len(q.buf)
			q.size--
			q.mu.Unlock()
			return ev, true
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return model.Event{}, false
		}

		select {
		case <-q.wake:
		case <-ctx.Done():
			return model.Event{}, false
		}
	}
}

// Close marks the queue as closed. Events pushed before Close are still delivered.
// Calling Close more than once is a no-op.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// grow doubles the ring buffer, unwrapping it so head starts at index 0. Caller holds mu.
func (q *Queue) grow() {
	next := make([]model.Event, len(q.buf)*2)
	n := copy(next, q.buf[q.head:])
	copy(next[n:], q.buf[:q.head])
	q.buf = next
	q.head = 0
}
