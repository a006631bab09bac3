package store

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"caldesign/internal/model"
)

// EventStore is the session's insertion-ordered event collection. Readers
// always get a copy, so a snapshot handed to the calendar core never changes
// underneath it.
type EventStore struct {
	mu     sync.RWMutex
	events []model.Event
	newID  func() string
}

// New constructs an empty store that assigns random UUIDs.
func New() *EventStore {
	return &EventStore{newID: uuid.NewString}
}

// Add validates ev, assigns it an ID and derived display attributes, and
// appends it. Any ID on the input is ignored.
func (s *EventStore) Add(ev model.Event) (model.Event, error) {
	if err := ev.Validate(); err != nil {
		return model.Event{}, fmt.Errorf("store: add event: %w", err)
	}
	ev = ev.WithDerived()

	s.mu.Lock()
	defer s.mu.Unlock()

	ev.ID = s.newID()
	s.events = append(s.events, ev)
	return ev, nil
}

// Remove deletes the event with the given ID and reports whether it existed.
func (s *EventStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, ev := range s.events {
		if ev.ID == id {
			s.events = append(s.events[:i:i], s.events[i+1:]...)
			return true
		}
	}
	return false
}

// Get looks up a single event.
func (s *EventStore) Get(id string) (model.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ev := range s.events {
		if ev.ID == id {
			return ev, true
		}
	}
	return model.Event{}, false
}

// Snapshot returns a copy of all events in insertion order.
func (s *EventStore) Snapshot() []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *EventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// ReplaceSource drops every event imported from source and appends the given
// events in their place, tagged with that source. Events that fail
// validation are skipped and counted.
func (s *EventStore) ReplaceSource(source string, events []model.Event) (added, skipped int) {
	fresh := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if err := ev.Validate(); err != nil {
			skipped++
			continue
		}
		ev = ev.WithDerived()
		ev.Source = source
		fresh = append(fresh, ev)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]model.Event, 0, len(s.events)+len(fresh))
	for _, ev := range s.events {
		if source != "" && ev.Source == source {
			continue
		}
		kept = append(kept, ev)
	}
	for i := range fresh {
		fresh[i].ID = s.newID()
	}
	s.events = append(kept, fresh...)
	return len(fresh), skipped
}
