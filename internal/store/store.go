// Package store provides persistence for calc evaluation history.
package store

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one recorded evaluation. Exactly one of Result and Error is
// meaningful: Error is empty for successful evaluations.
type Entry struct {
	ID         string    `json:"id"`
	Session    string    `json:"session"`
	Expression string    `json:"expression"`
	Result     int64     `json:"result"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// OK returns true if the evaluation succeeded.
func (e Entry) OK() bool {
	return e.Error == ""
}

// Store is the interface for history persistence.
type Store interface {
	// Record appends an entry. A missing ID or CreatedAt is filled in.
	Record(e Entry) (Entry, error)
	// History returns entries newest first. An empty session matches every
	// session; limit <= 0 returns everything.
	History(session string, limit int) ([]Entry, error)
	// Clear removes entries for a session, or every entry if session is empty.
	Clear(session string) error
	// Close releases resources.
	Close() error
}

// MetadataStore extends Store with key/value metadata.
type MetadataStore interface {
	Store
	GetMetadata(key string) (string, error)
	SetMetadata(key, value string) error
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

func prepare(e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return e
}
