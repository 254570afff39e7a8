package model

import (
	"context"
	"errors"
)

// EventSource delivers input notifications, in order, to emit.
// Stream returns when the source ends; emit must never block it for long.
type EventSource interface {
	Stream(ctx context.Context, emit func(Event)) error
}

// EventSourceFunc adapts a function literal to the EventSource interface.
type EventSourceFunc func(ctx context.Context, emit func(Event)) error

// Stream calls the underlying function.
func (f EventSourceFunc) Stream(ctx context.Context, emit func(Event)) error {
	return f(ctx, emit)
}

// ErrSourceTerminated reports that an event source ended unexpectedly.
var ErrSourceTerminated = errors.New("event source terminated")
