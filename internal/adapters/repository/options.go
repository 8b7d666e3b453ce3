// Package repository defines the domain store interface and errors.
package repository

// StoreOption applies a configuration option to the MemoryStore.
type StoreOption func(*MemoryStore)

// WithHistoryCapacity bounds the retained audit trail. Zero or negative
// keeps every entry.
func WithHistoryCapacity(capacity int) StoreOption {
	return func(s *MemoryStore) {
		s.historyCapacity = capacity
	}
}
