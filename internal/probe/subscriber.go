package probe

import (
	"Go2InputSpectra/internal/model"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// NATSSource subscribes to a NATS subject on which an input-hook helper publishes JSON events.
// It implements the model.EventSource interface.
type NATSSource struct {
	url     string
	subject string
}

// NewNATSSource creates a new NATS-backed event source.
func NewNATSSource(url, subject string) *NATSSource {
	if url == "" {
		url = nats.DefaultURL
	}
	return &NATSSource{url: url, subject: subject}
}

// Stream connects, subscribes and emits events until ctx is done or the connection closes.
// Messages on one subscription are delivered sequentially, so emit sees them in publish order.
func (s *NATSSource) Stream(ctx context.Context, emit func(model.Event)) error {
	closed := make(chan struct{})
	nc, err := nats.Connect(s.url,
		nats.Name("inputspectra-engine"),
		nats.ClosedHandler(func(*nats.Conn) { close(closed) }),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("Disconnected from NATS", "error", err)
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", s.url, err)
	}
	slog.Info("Connected to NATS server", "url", s.url)

	sub, err := nc.Subscribe(s.subject, func(msg *nats.Msg) {
		ev, err := DecodeEvent(msg.Data)
		if err != nil {
			slog.Debug("Skipping malformed event", "subject", msg.Subject, "error", err)
			return
		}
		emit(ev)
	})
	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to subscribe to '%s': %w", s.subject, err)
	}
	slog.Info("Subscribed, waiting for events", "subject", s.subject)

	select {
	case <-ctx.Done():
		_ = sub.Unsubscribe()
		nc.Close()
		return ctx.Err()
	case <-closed:
		lastErr := nc.LastError()
		if lastErr == nil {
			lastErr = errors.New("connection closed")
		}
		return fmt.Errorf("NATS connection to %s lost: %w", s.url, lastErr)
	}
}
