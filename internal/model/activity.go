package model

import "time"

// ActivityEntry is an append-only, human-readable audit line. Entries are
// immutable once created and returned newest-first.
type ActivityEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}
