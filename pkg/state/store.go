// Package state holds a node's belief about the feeder: the last moisture
// reading, the pump state and when the state was last published.
//
// A Store has a single owner (the control loop of the node) and is not safe
// for concurrent use.
package state

import "time"

type Store struct {
	Moisture int
	PumpOn   bool

	// Zero means "never published", which forces the next publication
	lastPublished time.Time
}

func NewStore() *Store {
	return &Store{}
}

// TogglePump flips the pump state and returns the new value.
func (s *Store) TogglePump() bool {
	s.PumpOn = !s.PumpOn

	return s.PumpOn
}

// ForcePublish resets the publish timer to the "never" sentinel.
func (s *Store) ForcePublish() {
	s.lastPublished = time.Time{}
}

func (s *Store) MarkPublished(now time.Time) {
	s.lastPublished = now
}

func (s *Store) LastPublished() time.Time {
	return s.lastPublished
}

// PublishDue reports whether a snapshot should be published at now.
// It is due if nothing was published yet or if strictly more than interval
// has passed since the last publication.
func (s *Store) PublishDue(now time.Time, interval time.Duration) bool {
	if s.lastPublished.IsZero() {
		return true
	}

	return now.Sub(s.lastPublished) > interval
}
