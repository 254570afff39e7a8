package model

import (
	"math"
	"time"
)

// EventKind identifies the variant of an input notification.
type EventKind string

const (
	KindMouseMove     EventKind = "mouse_move"
	KindWheel         EventKind = "wheel"
	KindButtonPress   EventKind = "button_press"
	KindButtonRelease EventKind = "button_release"
	KindKeyPress      EventKind = "key_press"
	KindKeyRelease    EventKind = "key_release"
	KindUnknown       EventKind = "unknown"
)

// Event is a single typed notification delivered by an event source.
// Only the fields relevant to Kind are meaningful.
type Event struct {
	Kind EventKind
	Time time.Time

	// Pointer position, for KindMouseMove.
	X float64
	Y float64

	// Wheel deltas, for KindWheel.
	DeltaX int64
	DeltaY int64

	// Button or key name, informational only.
	Code string
}

// Counters holds the four running totals accumulated between flushes.
type Counters struct {
	MouseDistance int64
	WheelSpins    int64
	ButtonPresses int64
	KeyPresses    int64
}

// IsZero reports whether all counters are zero.
func (c Counters) IsZero() bool {
	return c == Counters{}
}

// Add returns the field-wise sum of c and o.
func (c Counters) Add(o Counters) Counters {
	return Counters{
		MouseDistance: SaturatingAdd(c.MouseDistance, o.MouseDistance),
		WheelSpins:    SaturatingAdd(c.WheelSpins, o.WheelSpins),
		ButtonPresses: SaturatingAdd(c.ButtonPresses, o.ButtonPresses),
		KeyPresses:    SaturatingAdd(c.KeyPresses, o.KeyPresses),
	}
}

// SaturatingAdd adds two counter values, pinning the result at math.MaxInt64
// instead of wrapping around.
func SaturatingAdd(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	if b < 0 && a < math.MinInt64-b {
		return math.MinInt64
	}
	return a + b
}

// Delta is the set of counter values captured and reset by one flush cycle.
type Delta struct {
	Timestamp time.Time
	Counters
}

// Add folds a later delta into d. The later timestamp wins and counters are summed.
// It is used to carry a delta that could not be persisted into the next cycle.
func (d Delta) Add(later Delta) Delta {
	ts := d.Timestamp
	if later.Timestamp.After(ts) {
		ts = later.Timestamp
	}
	return Delta{Timestamp: ts, Counters: d.Counters.Add(later.Counters)}
}

// Snapshot is the cumulative record stored on disk. Field order is the on-disk order.
type Snapshot struct {
	Timestamp     string `json:"timestamp"`
	MouseDistance int64  `json:"mouse_distance"`
	WheelSpins    int64  `json:"wheel_spins"`
	ButtonPresses int64  `json:"button_presses"`
	KeyPresses    int64  `json:"key_presses"`
}

// TimestampLayout is the layout of Snapshot.Timestamp.
const TimestampLayout = "2006-01-02 15:04:05"
