package model

import "time"

// Aggregator defines the contract between the event consumer and the persister.
type Aggregator interface {
	// Apply reduces a single event into the running counters.
	Apply(ev Event)

	// Drain atomically reads and resets the counters, returning them as a delta stamped with now.
	Drain(now time.Time) Delta
}
