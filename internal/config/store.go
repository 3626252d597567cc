package config

import "sync"

// Store is the process-wide settings record, shared between the control
// listener and the render loop. The lock is held only for the duration of a
// merge or snapshot, never across I/O or rendering.
type Store struct {
	mu  sync.Mutex
	cur Settings
}

// NewStore returns a store seeded with defaults.
func NewStore() *Store {
	return &Store{cur: Defaults()}
}

// Apply merges u into the stored settings. Alpha and Radius only change
// when present in the update; Output and AllowOpaque are replaced outright.
// Unless the update carries the opaque override, the merged alpha is
// clamped to MaxAlpha.
func (s *Store) Apply(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.Alpha != nil {
		s.cur.Alpha = *u.Alpha
	}
	if u.Radius != nil {
		s.cur.Radius = *u.Radius
	}
	s.cur.Output = u.Output
	s.cur.AllowOpaque = u.AllowOpaque

	if s.cur.Alpha < 0 {
		s.cur.Alpha = 0
	}
	if s.cur.Alpha > 1 {
		s.cur.Alpha = 1
	}
	if !s.cur.AllowOpaque && s.cur.Alpha > MaxAlpha {
		s.cur.Alpha = MaxAlpha
	}
	if s.cur.Radius < 0 {
		s.cur.Radius = 0
	}
}

// Snapshot returns a copy of the current settings.
func (s *Store) Snapshot() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}
