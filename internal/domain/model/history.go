package model

import "time"

// HistoryEntry is one audit-trail record. Entries are produced by
// request handlers and persisted asynchronously by the audit workers.
type HistoryEntry struct {
	ID        string
	Action    string
	ActorID   string
	ActorRole Role
	Details   string
	CreatedAt time.Time
}
