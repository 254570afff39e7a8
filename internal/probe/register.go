package probe

import (
	"Go2InputSpectra/internal/config"
	"Go2InputSpectra/internal/factory"
	"Go2InputSpectra/internal/model"
	"context"
	"fmt"
	"os"
)

func init() {
	factory.RegisterSource("stdin", func(cfg *config.Config) (model.EventSource, error) {
		return NewStreamSource("stdin", os.Stdin), nil
	})

	factory.RegisterSource("file", func(cfg *config.Config) (model.EventSource, error) {
		if cfg.Source.Path == "" {
			return nil, fmt.Errorf("%w: source.path is required for the file source", config.ErrConfiguration)
		}
		path := cfg.Source.Path
		// Opened lazily so a named pipe does not block startup.
		return model.EventSourceFunc(func(ctx context.Context, emit func(model.Event)) error {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open event file: %w", err)
			}
			defer f.Close()
			return NewStreamSource(path, f).Stream(ctx, emit)
		}), nil
	})

	factory.RegisterSource("nats", func(cfg *config.Config) (model.EventSource, error) {
		return NewNATSSource(cfg.Source.NATSURL, cfg.Source.Subject), nil
	})
}
