package redis

import (
	"time"

	"github.com/redis/rueidis"
)

// NewStoreForTest creates a Store with the provided rueidis client (test-only).
// Readiness probes retry after a millisecond.
func NewStoreForTest(c rueidis.Client) *Store {
	s := newStore(c)
	s.readyInterval = time.Millisecond
	return s
}
