package repository

import "time"

// Option applies a configuration option to the InMemoryStore.
type Option func(*InMemoryStore)

// WithClock sets the time source used to stamp updated items.
func WithClock(now func() time.Time) Option {
	return func(s *InMemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithFixture seeds the store from a decoded fixture.
func WithFixture(f Fixture) Option {
	return func(s *InMemoryStore) {
		s.seed = &f
	}
}
