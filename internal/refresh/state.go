package refresh

import (
	"sync"
	"time"

	"roomdisplay/internal/booking"
)

// State is the shared snapshot read by the HTTP handlers and replaced by
// the refresh loop. Single writer, many readers; the snapshot is a value
// copy so readers never observe a partial update.
type State struct {
	mu      sync.RWMutex
	current *booking.Display
	updated time.Time
}

// NewState returns an empty state; it stays empty until the first
// successful refresh.
func NewState() *State {
	return &State{}
}

// Current returns the displayed booking, if any.
func (s *State) Current() (booking.Display, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return booking.Display{}, false
	}
	return *s.current, true
}

// LastUpdated returns when the last successful refresh completed.
func (s *State) LastUpdated() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.updated.IsZero() {
		return time.Time{}, false
	}
	return s.updated, true
}

// publish atomically replaces the snapshot. A nil booking means the room
// is available today.
func (s *State) publish(b *booking.Display, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = b
	s.updated = at
}
