package memory

import (
	"sync/atomic"

	telemetry "bustrack/internal/telemetry/domain"
)

// LatestStore is a single-slot, last-write-wins reading cache.
type LatestStore struct {
	latest atomic.Pointer[telemetry.Reading]
}

// NewLatestStore constructs an empty store.
func NewLatestStore() *LatestStore {
	return &LatestStore{}
}

// Put replaces the held reading.
func (s *LatestStore) Put(reading telemetry.Reading) {
	copy := reading
	s.latest.Store(&copy)
}

// Get returns the held reading, or false when nothing was stored yet.
func (s *LatestStore) Get() (telemetry.Reading, bool) {
	current := s.latest.Load()
	if current == nil {
		return telemetry.Reading{}, false
	}
	return *current, true
}
