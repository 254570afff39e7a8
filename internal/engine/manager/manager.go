package manager

import (
	"Go2InputSpectra/internal/engine/aggregator"
	"Go2InputSpectra/internal/engine/queue"
	"Go2InputSpectra/internal/model"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

const defaultPeriod = time.Second

// Options tune a Manager.
type Options struct {
	// Period is the wait between the end of one flush and the start of the next.
	Period time.Duration
	// FailFast stops the pipeline on the first persistence error instead of retrying.
	FailFast bool
	// Clock stamps each delta. Defaults to time.Now.
	Clock func() time.Time
}

// Manager wires an event source, the event queue, the aggregator and the persister.
type Manager struct {
	source     model.EventSource
	queue      *queue.Queue
	aggregator *aggregator.Aggregator
	writer     model.Writer

	period   time.Duration
	failFast bool
	clock    func() time.Time

	// pending holds deltas whose write failed, oldest first, at most one per local day.
	// Only the persister goroutine touches it.
	pending []model.Delta
}

// NewManager creates a new Manager.
func NewManager(source model.EventSource, writer model.Writer, opts Options) *Manager {
	period := opts.Period
	if period <= 0 {
		period = defaultPeriod
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Manager{
		source:     source,
		queue:      queue.New(),
		aggregator: aggregator.New(),
		writer:     writer,
		period:     period,
		failFast:   opts.FailFast,
		clock:      clock,
	}
}

// Aggregator returns the aggregator owned by the manager.
func (m *Manager) Aggregator() *aggregator.Aggregator {
	return m.aggregator
}

// Run starts the source, aggregator and persister goroutines and blocks until the pipeline stops.
// The pipeline stops when ctx is cancelled, when the source ends, or on a fatal persistence error.
// A final flush is attempted on every stop except a fatal persistence error.
func (m *Manager) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	aggDone := make(chan struct{})

	g.Go(func() error {
		defer m.queue.Close()
		err := m.source.Stream(gctx, m.capture)
		if gctx.Err() != nil {
			return nil
		}
		if err != nil {
			slog.Error("Event source failed", "error", err)
			return fmt.Errorf("%w: %w", model.ErrSourceTerminated, err)
		}
		slog.Info("Event source ended, shutting down")
		return nil
	})

	g.Go(func() error {
		defer close(aggDone)
		m.aggregator.Run(gctx, m.queue)
		return nil
	})

	g.Go(func() error {
		return m.runPersister(gctx, aggDone)
	})

	slog.Info("Pipeline started", "period", m.period, "fail_fast", m.failFast)
	err := g.Wait()
	slog.Info("Pipeline stopped")
	return err
}

// capture is the callback handed to the event source. It never blocks on the counter lock
// and never performs I/O; events offered after the queue closed are dropped.
func (m *Manager) capture(ev model.Event) {
	_ = m.queue.Push(ev)
}

// runPersister flushes every period. The wait restarts only after the previous flush completed.
func (m *Manager) runPersister(ctx context.Context, aggDone <-chan struct{}) error {
	timer := time.NewTimer(m.period)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			if err := m.Flush(); err != nil && m.failFast {
				return err
			}
			timer.Reset(m.period)
		case <-aggDone:
			return m.finalFlush()
		case <-ctx.Done():
			<-aggDone
			return m.finalFlush()
		}
	}
}

func (m *Manager) finalFlush() error {
	slog.Debug("Taking final flush")
	err := m.Flush()
	if err != nil && m.failFast {
		return err
	}
	return nil
}

// Flush runs one flush cycle: read-and-reset the counters, then merge the delta into the store.
// On failure the delta stays pending and is retried on the next cycle. A pending delta is only
// folded into a newer one from the same local day, so daily segments keep their attribution.
// It must not be called concurrently with itself.
func (m *Manager) Flush() error {
	delta := m.aggregator.Drain(m.clock())
	if n := len(m.pending); n > 0 && sameDay(m.pending[n-1].Timestamp, delta.Timestamp) {
		m.pending[n-1] = m.pending[n-1].Add(delta)
	} else {
		m.pending = append(m.pending, delta)
	}

	for len(m.pending) > 0 {
		d := m.pending[0]
		slog.Debug("Flushing", "timestamp", d.Timestamp, "mouse_distance", d.MouseDistance, "wheel_spins", d.WheelSpins,
			"button_presses", d.ButtonPresses, "key_presses", d.KeyPresses, "backlog", m.queue.Len())

		if err := m.writer.Write(d); err != nil {
			if m.failFast {
				slog.Error("Snapshot write failed", "error", err)
			} else {
				slog.Warn("Snapshot write failed, keeping delta for next cycle", "pending", len(m.pending), "error", err)
			}
			return err
		}
		m.pending = m.pending[1:]
	}
	m.pending = nil
	return nil
}

// Pending returns the deltas waiting to be persisted, oldest first.
func (m *Manager) Pending() []model.Delta {
	return m.pending
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// IsSourceTerminated reports whether err came from an event source failure.
func IsSourceTerminated(err error) bool {
	return errors.Is(err, model.ErrSourceTerminated)
}
