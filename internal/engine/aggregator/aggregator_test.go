package aggregator

import (
	"Go2InputSpectra/internal/engine/queue"
	"Go2InputSpectra/internal/model"
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func move(x, y float64) model.Event {
	return model.Event{Kind: model.KindMouseMove, X: x, Y: y}
}

func TestMouseDistance(t *testing.T) {
	assert.Equal(t, 5.0, MouseDistance(0, 0, 3, 4))
	assert.Equal(t, int64(5), int64(MouseDistance(0, 0, 3, 4)))
	assert.Equal(t, 0.0, MouseDistance(7, 7, 7, 7))
}

func TestWheelSpins(t *testing.T) {
	assert.Equal(t, int64(7), WheelSpins(5, -2))
	assert.Equal(t, int64(0), WheelSpins(0, 0))
	assert.Equal(t, int64(7), WheelSpins(3, -4))
}

func TestWheelSpins_Saturates(t *testing.T) {
	assert.Equal(t, int64(math.MaxInt64), WheelSpins(math.MinInt64, 0))
	assert.Equal(t, int64(math.MaxInt64), WheelSpins(math.MaxInt64, -5))
}

func TestAggregator_HugeCoordinatesSaturate(t *testing.T) {
	a := New()
	a.Apply(move(0, 0))
	a.Apply(move(1e300, 0))
	assert.Equal(t, int64(math.MaxInt64), a.Peek().MouseDistance)

	a.Apply(move(-1e300, 0))
	assert.Equal(t, int64(math.MaxInt64), a.Peek().MouseDistance)

	a.Apply(model.Event{Kind: model.KindWheel, DeltaX: math.MinInt64})
	assert.Equal(t, int64(math.MaxInt64), a.Peek().WheelSpins)

	a.Apply(model.Event{Kind: model.KindWheel, DeltaY: 3})
	assert.Equal(t, int64(math.MaxInt64), a.Peek().WheelSpins)
}

func TestAggregator_NonFinitePositionIsDropped(t *testing.T) {
	a := New()
	a.Apply(move(0, 0))
	a.Apply(move(math.Inf(1), 0))
	a.Apply(move(math.NaN(), 2))
	assert.Equal(t, int64(0), a.Peek().MouseDistance)

	// The reference is still (0,0).
	a.Apply(move(3, 4))
	assert.Equal(t, int64(5), a.Peek().MouseDistance)
}

func TestAggregator_MouseMove(t *testing.T) {
	a := New()

	a.Apply(move(0, 0))
	assert.Equal(t, int64(0), a.Peek().MouseDistance, "first sample must not add distance")

	a.Apply(move(3, 4))
	assert.Equal(t, int64(5), a.Peek().MouseDistance)
}

func TestAggregator_MouseMoveTruncates(t *testing.T) {
	a := New()
	a.Apply(move(0, 0))
	a.Apply(move(1, 1)) // ~1.414
	a.Apply(move(1, 3.9))
	assert.Equal(t, int64(1+2), a.Peek().MouseDistance)
}

func TestAggregator_SubThresholdKeepsReference(t *testing.T) {
	a := New()
	a.Apply(move(0, 0))
	a.Apply(move(0, 0.5))
	assert.Equal(t, int64(0), a.Peek().MouseDistance)

	// Measured from (0,0), not from the discarded (0,0.5).
	a.Apply(move(0, 1.2))
	assert.Equal(t, int64(1), a.Peek().MouseDistance)

	// Jitter strings undercount: each step is below the threshold relative to (0,1.2).
	a.Apply(move(0, 1.8))
	a.Apply(move(0, 2.1))
	assert.Equal(t, int64(1), a.Peek().MouseDistance)
}

func TestAggregator_ResetPointer(t *testing.T) {
	a := New()
	a.Apply(move(0, 0))
	a.ResetPointer()
	a.Apply(move(100, 0))
	assert.Equal(t, int64(0), a.Peek().MouseDistance)
}

func TestAggregator_CountsAndIgnores(t *testing.T) {
	a := New()
	events := []model.Event{
		{Kind: model.KindWheel, DeltaX: 3, DeltaY: -4},
		{Kind: model.KindButtonPress, Code: "left"},
		{Kind: model.KindButtonRelease, Code: "left"},
		{Kind: model.KindKeyPress, Code: "KeyA"},
		{Kind: model.KindKeyRelease, Code: "KeyA"},
		{Kind: model.KindUnknown},
	}
	for _, ev := range events {
		a.Apply(ev)
	}

	assert.Equal(t, model.Counters{WheelSpins: 7, ButtonPresses: 1, KeyPresses: 1}, a.Peek())
}

func TestAggregator_DrainResets(t *testing.T) {
	a := New()
	a.Apply(model.Event{Kind: model.KindKeyPress})
	a.Apply(model.Event{Kind: model.KindKeyPress})

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.Local)
	d := a.Drain(now)
	assert.Equal(t, now, d.Timestamp)
	assert.Equal(t, int64(2), d.KeyPresses)
	assert.True(t, a.Peek().IsZero())

	d = a.Drain(now)
	assert.True(t, d.IsZero())
}

func TestAggregator_RunConsumesQueue(t *testing.T) {
	a := New()
	q := queue.New()

	q.Push(move(0, 0))
	q.Push(move(3, 4))
	q.Push(model.Event{Kind: model.KindWheel, DeltaX: 3, DeltaY: -4})
	q.Push(model.Event{Kind: model.KindButtonPress})
	q.Push(model.Event{Kind: model.KindKeyPress})
	q.Close()

	done := make(chan struct{})
	go func() {
		a.Run(context.Background(), q)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("aggregator did not stop after queue close")
	}
	assert.Equal(t, model.Counters{MouseDistance: 5, WheelSpins: 7, ButtonPresses: 1, KeyPresses: 1}, a.Peek())
}

// Concurrent drains never lose or double count key presses.
func TestAggregator_DrainConcurrentWithApply(t *testing.T) {
	a := New()
	const n = 20000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			a.Apply(model.Event{Kind: model.KindKeyPress})
		}
	}()

	var total int64
	stop := make(chan struct{})
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for {
			select {
			case <-stop:
				return
			default:
				total += a.Drain(time.Now()).KeyPresses
			}
		}
	}()

	wg.Wait()
	close(stop)
	<-drained
	total += a.Drain(time.Now()).KeyPresses

	require.Equal(t, int64(n), total)
}
