package factory

import (
	"Go2InputSpectra/internal/config"
	"Go2InputSpectra/internal/model"
	"fmt"
	"log/slog"
	"sort"
)

// SourceFactory defines a function that creates an event source from the configuration.
type SourceFactory func(cfg *config.Config) (model.EventSource, error)

// registry holds the mapping of source types to their factory functions.
var registry = make(map[string]SourceFactory)

// RegisterSource registers a new event source type with its factory function.
func RegisterSource(name string, factory SourceFactory) {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("event source type '%s' already registered", name))
	}
	registry[name] = factory
}

// CreateSource creates the event source selected by cfg.Source.Type.
func CreateSource(cfg *config.Config) (model.EventSource, error) {
	factory, ok := registry[cfg.Source.Type]
	if !ok {
		return nil, fmt.Errorf("%w: unknown event source type '%s' (known: %v)", config.ErrConfiguration, cfg.Source.Type, Sources())
	}
	slog.Debug("Creating event source", "type", cfg.Source.Type)

	src, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating event source '%s': %w", cfg.Source.Type, err)
	}
	return src, nil
}

// Sources returns the registered source type names in sorted order.
func Sources() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
