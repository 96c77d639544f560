package cache

import (
	"time"
)

// Entry represents a cached value with a time-to-live.
type Entry struct {
	// Value is the cached payload.
	Value any `json:"value"`

	// CreatedAt is when the value was stored.
	CreatedAt time.Time `json:"created_at"`

	// TTL is how long the value stays valid after CreatedAt.
	TTL time.Duration `json:"ttl"`
}

// NewEntry creates an entry stamped with the given creation time.
func NewEntry(value any, ttl time.Duration, now time.Time) *Entry {
	return &Entry{
		Value:     value,
		CreatedAt: now,
		TTL:       ttl,
	}
}

// IsExpired returns true if the entry has outlived its TTL at the given time.
func (e *Entry) IsExpired(now time.Time) bool {
	return now.Sub(e.CreatedAt) > e.TTL
}

// RemainingTTL returns the validity left at the given time, floored to whole
// seconds. Returns 0 if already expired.
func (e *Entry) RemainingTTL(now time.Time) time.Duration {
	remaining := e.TTL - now.Sub(e.CreatedAt)
	if remaining < 0 {
		return 0
	}
	return remaining.Truncate(time.Second)
}
