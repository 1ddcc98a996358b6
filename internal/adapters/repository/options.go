package repository

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithCapacity sets the number of reports kept in memory.
// If capacity > 0: bounded mode, the oldest report is evicted first.
// If capacity <= 0: unbounded mode.
func WithCapacity(capacity int) Option {
	return func(s *MemoryStore) {
		s.capacity = capacity
	}
}

// WithEvictHook registers a callback invoked with the id of each evicted report.
func WithEvictHook(fn func(id string)) Option {
	return func(s *MemoryStore) {
		s.onEvict = fn
	}
}
