package probe

import (
	"Go2InputSpectra/internal/model"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// Publisher is responsible for publishing input events to a NATS subject.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// NewPublisher creates a new NATS publisher.
func NewPublisher(url, subject string) (*Publisher, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url, nats.Name("inputspectra-probe"))
	if err != nil {
		return nil, err
	}
	slog.Info("Connected to NATS server", "url", url)
	return &Publisher{nc: nc, subject: subject}, nil
}

// Publish encodes an event as JSON and publishes it to the configured subject.
func (p *Publisher) Publish(ev model.Event) error {
	data, err := EncodeEvent(ev)
	if err != nil {
		return err
	}
	return p.nc.Publish(p.subject, data)
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		if err := p.nc.Drain(); err != nil {
			slog.Warn("Failed to drain NATS connection", "error", err)
		}
		slog.Info("NATS connection drained and closed")
	}
}
