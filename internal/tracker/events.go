package tracker

import (
	"slices"

	"github.com/claude/mapty/internal/workout"
)

// EventKind names a store mutation.
type EventKind string

const (
	EventAdded   EventKind = "added"
	EventUpdated EventKind = "updated"
	EventRemoved EventKind = "removed"
	EventCleared EventKind = "cleared"
)

// Event is delivered to subscribers after a mutation has been applied and
// its persist attempted. Workout is a copy; it is nil for EventCleared.
type Event struct {
	Kind    EventKind
	ID      string
	Workout *workout.Workout
}

// Subscribe registers fn for every subsequent event and returns a func that
// unregisters it. Handlers run synchronously while the store is locked, in
// subscription order; they must not call back into the store.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// Watch calls init with copies of every workout and registers fn, both
// under the store lock, so fn sees exactly the events that follow the state
// init was given. init has the same restriction as a handler.
func (s *Store) Watch(init func([]*workout.Workout), fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	init(s.copyAll())
	return s.Subscribe(fn)
}

// emit is called with s.mu held.
func (s *Store) emit(ev Event) {
	s.subMu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
