package aggregator

import (
	"Go2InputSpectra/internal/engine/queue"
	"Go2InputSpectra/internal/model"
	"context"
	"log/slog"
	"math"
	"sync"
	"time"
)

// MinMouseDistance is the smallest pointer movement that is counted.
// Smaller moves are treated as jitter and discarded without moving the reference point.
const MinMouseDistance = 1.0

// MouseDistance returns the Euclidean distance between two pointer positions.
func MouseDistance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}

// WheelSpins returns the scroll magnitude of a wheel event.
func WheelSpins(dx, dy int64) int64 {
	return model.SaturatingAdd(abs(dx), abs(dy))
}

func abs(v int64) int64 {
	switch {
	case v == math.MinInt64:
		return math.MaxInt64
	case v < 0:
		return -v
	default:
		return v
	}
}

// maxDistance is the first float64 above the int64 range.
const maxDistance = float64(1 << 63)

// countableDistance truncates a pointer distance to an integer, saturating at math.MaxInt64.
func countableDistance(dist float64) int64 {
	if dist >= maxDistance {
		return math.MaxInt64
	}
	return int64(dist)
}

// pointer tracks the last accepted pointer position. Only the consumer goroutine touches it.
type pointer struct {
	x, y float64
	seen bool
}

// Aggregator reduces input events into running counters.
// It implements the model.Aggregator interface.
type Aggregator struct {
	mu       sync.Mutex
	counters model.Counters

	pointer pointer
}

// New creates an aggregator with zeroed counters.
func New() *Aggregator {
	return &Aggregator{}
}

// Run consumes q in delivery order until it is closed and drained, or ctx is done.
func (a *Aggregator) Run(ctx context.Context, q *queue.Queue) {
	slog.Debug("Aggregator started")
	for {
		ev, ok := q.Pop(ctx)
		if !ok {
			slog.Debug("Aggregator stopped", "backlog", q.Len())
			return
		}
		a.Apply(ev)
	}
}

// Apply reduces a single event. Events of other kinds are accepted and ignored.
func (a *Aggregator) Apply(ev model.Event) {
	switch ev.Kind {
	case model.KindMouseMove:
		dist, ok := a.trackPointer(ev.X, ev.Y)
		if !ok {
			return
		}
		a.mu.Lock()
		a.counters.MouseDistance = model.SaturatingAdd(a.counters.MouseDistance, dist)
		a.mu.Unlock()
	case model.KindWheel:
		spins := WheelSpins(ev.DeltaX, ev.DeltaY)
		a.mu.Lock()
		a.counters.WheelSpins = model.SaturatingAdd(a.counters.WheelSpins, spins)
		a.mu.Unlock()
		slog.Debug("Wheel moved", "dx", ev.DeltaX, "dy", ev.DeltaY)
	case model.KindButtonPress:
		a.mu.Lock()
		a.counters.ButtonPresses = model.SaturatingAdd(a.counters.ButtonPresses, 1)
		a.mu.Unlock()
	case model.KindKeyPress:
		a.mu.Lock()
		a.counters.KeyPresses = model.SaturatingAdd(a.counters.KeyPresses, 1)
		a.mu.Unlock()
	default:
		return
	}
}

// trackPointer updates the reference position and returns the distance to count.
// ok is false when the move contributes nothing: the first sample, sub-threshold jitter,
// or a non-finite position, which is dropped without touching the reference.
func (a *Aggregator) trackPointer(x, y float64) (int64, bool) {
	if !finite(x) || !finite(y) {
		slog.Debug("Dropping non-finite pointer position", "x", x, "y", y)
		return 0, false
	}
	p := &a.pointer
	if !p.seen {
		p.x, p.y, p.seen = x, y, true
		return 0, false
	}

	dist := MouseDistance(p.x, p.y, x, y)
	if math.IsNaN(dist) || dist < MinMouseDistance {
		return 0, false
	}
	slog.Debug("Mouse moved", "from_x", p.x, "from_y", p.y, "to_x", x, "to_y", y, "distance", dist)
	p.x, p.y = x, y
	return countableDistance(dist), true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ResetPointer forgets the reference position so the next sample counts as the first.
// It must be called from the goroutine that applies events.
func (a *Aggregator) ResetPointer() {
	a.pointer = pointer{}
}

// Drain atomically reads and zeroes the counters.
func (a *Aggregator) Drain(now time.Time) model.Delta {
	a.mu.Lock()
	c := a.counters
	a.counters = model.Counters{}
	a.mu.Unlock()
	return model.Delta{Timestamp: now, Counters: c}
}

// Peek returns the current counters without resetting them.
func (a *Aggregator) Peek() model.Counters {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counters
}
