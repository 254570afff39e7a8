package model

// Writer defines a generic interface for persisting flush deltas.
type Writer interface {
	// Write merges a delta into the persistent store.
	Write(delta Delta) error
}
