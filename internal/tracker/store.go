// Package tracker owns the workout collection: ordered in memory, mirrored
// to a snapshot in durable key-value storage after every mutation.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/claude/mapty/internal/kv"
	"github.com/claude/mapty/internal/observability"
	"github.com/claude/mapty/internal/workout"
)

// SnapshotKey is the storage key holding the serialized collection.
const SnapshotKey = "workouts"

var (
	// ErrNotFound is returned when an id is absent from the collection.
	ErrNotFound = errors.New("workout not found")
	// ErrDuplicateID is returned by Add when the id is already present.
	ErrDuplicateID = errors.New("workout id already exists")
	// ErrPersistenceUnavailable wraps failed snapshot writes. The mutation
	// that triggered the write has been applied in memory.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
)

// Patch holds the editable fields of a workout. Nil fields are left as they
// are. Cadence applies to running only, ElevationGain to cycling only.
type Patch struct {
	Distance      *float64 `json:"distance,omitempty"`
	Duration      *float64 `json:"duration,omitempty"`
	Cadence       *float64 `json:"cadence,omitempty"`
	ElevationGain *float64 `json:"elevationGain,omitempty"`
}

// Option configures a Store.
type Option func(*Store)

// WithRecomputeOnEdit makes Update refresh pace or speed after applying a
// patch. Descriptions are never recomputed.
func WithRecomputeOnEdit(on bool) Option {
	return func(s *Store) { s.recompute = on }
}

// Store is the workout collection. All methods are safe for concurrent use;
// operations are serialized so they observe each other atomically, and
// subscribers see events in the same order the mutations were applied.
type Store struct {
	mu        sync.Mutex
	kv        kv.Store
	log       *slog.Logger
	workouts  []*workout.Workout
	recompute bool
	dirty     bool

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// Open builds a Store from the snapshot under SnapshotKey. A missing,
// unreadable or unparsable snapshot yields an empty collection; only the
// log and metrics see the failure.
func Open(ctx context.Context, store kv.Store, log *slog.Logger, opts ...Option) *Store {
	s := &Store{
		kv:   store,
		log:  log,
		subs: make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.workouts = s.load(ctx)
	observability.SetStoreState(len(s.workouts), false)
	return s
}

func (s *Store) load(ctx context.Context) []*workout.Workout {
	data, err := s.kv.Get(ctx, SnapshotKey)
	if errors.Is(err, kv.ErrNotFound) {
		observability.RecordSnapshotLoad("empty")
		return nil
	}
	if err != nil {
		s.log.Warn("snapshot read failed, starting empty", "error", err)
		observability.RecordSnapshotLoad("unavailable")
		return nil
	}

	ws, skipped, err := DecodeSnapshot(data)
	if err != nil {
		s.log.Warn("snapshot unparsable, starting empty", "error", err)
		observability.RecordSnapshotLoad("unparsable")
		return nil
	}
	for _, sk := range skipped {
		s.log.Warn("skipping snapshot record", "index", sk.Index, "error", sk.Err)
	}
	observability.RecordSnapshotLoad("loaded")
	s.log.Info("snapshot loaded", "workouts", len(ws), "skipped", len(skipped))
	return ws
}

// Add appends w to the end of the collection.
func (s *Store) Add(ctx context.Context, w *workout.Workout) error {
	if w == nil {
		return fmt.Errorf("adding workout: nil workout")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(w.ID) >= 0 {
		return fmt.Errorf("adding workout %s: %w", w.ID, ErrDuplicateID)
	}
	stored := w.Clone()
	s.workouts = append(s.workouts, stored)
	err := s.persist(ctx, "add")
	s.emit(Event{Kind: EventAdded, ID: stored.ID, Workout: stored.Clone()})
	return err
}

// FindByID returns a copy of the workout with the given id.
func (s *Store) FindByID(id string) (*workout.Workout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("finding workout %s: %w", id, ErrNotFound)
	}
	return s.workouts[i].Clone(), nil
}

// Update overwrites the editable fields of the workout with the given id.
// Unless WithRecomputeOnEdit is set, pace, speed and description keep their
// creation-time values.
func (s *Store) Update(ctx context.Context, id string, p Patch) (*workout.Workout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("updating workout %s: %w", id, ErrNotFound)
	}
	w := s.workouts[i]
	if p.Distance != nil {
		w.Distance = *p.Distance
	}
	if p.Duration != nil {
		w.Duration = *p.Duration
	}
	switch w.Kind {
	case workout.Running:
		if p.Cadence != nil {
			w.Cadence = *p.Cadence
		}
	case workout.Cycling:
		if p.ElevationGain != nil {
			w.ElevationGain = *p.ElevationGain
		}
	}
	if s.recompute {
		w.Recompute()
	}
	err := s.persist(ctx, "update")
	s.emit(Event{Kind: EventUpdated, ID: id, Workout: w.Clone()})
	return w.Clone(), err
}

// Remove deletes the workout with the given id.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("removing workout %s: %w", id, ErrNotFound)
	}
	removed := s.workouts[i]
	s.workouts = append(s.workouts[:i:i], s.workouts[i+1:]...)
	err := s.persist(ctx, "remove")
	s.emit(Event{Kind: EventRemoved, ID: id, Workout: removed})
	return err
}

// Activate counts one interaction with the workout and persists it.
func (s *Store) Activate(ctx context.Context, id string) (*workout.Workout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("activating workout %s: %w", id, ErrNotFound)
	}
	w := s.workouts[i]
	w.Activate()
	err := s.persist(ctx, "activate")
	s.emit(Event{Kind: EventUpdated, ID: id, Workout: w.Clone()})
	return w.Clone(), err
}

// All returns copies of every workout, oldest first.
func (s *Store) All() []*workout.Workout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyAll()
}

func (s *Store) copyAll() []*workout.Workout {
	out := make([]*workout.Workout, len(s.workouts))
	for i, w := range s.workouts {
		out[i] = w.Clone()
	}
	return out
}

// CenterOn returns the coordinates the map should pan to for id.
func (s *Store) CenterOn(id string) (workout.Coords, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return workout.Coords{}, fmt.Errorf("locating workout %s: %w", id, ErrNotFound)
	}
	return s.workouts[i].Coords, nil
}

// Clear erases the snapshot and empties the collection. The in-memory
// collection is emptied even when the delete fails.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workouts = nil
	var err error
	if derr := s.kv.Delete(ctx, SnapshotKey); derr != nil {
		err = s.writeFailed("clear", derr)
	} else {
		s.dirty = false
		observability.RecordMutation("clear")
	}
	observability.SetStoreState(0, s.dirty)
	s.emit(Event{Kind: EventCleared})
	return err
}

// Len returns the number of workouts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workouts)
}

// Dirty reports whether the last write failed, leaving the in-memory
// collection ahead of the persisted snapshot.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

func (s *Store) indexOf(id string) int {
	for i, w := range s.workouts {
		if w.ID == id {
			return i
		}
	}
	return -1
}

// persist writes the whole collection. Caller holds s.mu.
func (s *Store) persist(ctx context.Context, op string) error {
	defer func() { observability.SetStoreState(len(s.workouts), s.dirty) }()

	data, err := EncodeSnapshot(s.workouts)
	if err != nil {
		return s.writeFailed(op, err)
	}
	if err := s.kv.Set(ctx, SnapshotKey, data); err != nil {
		return s.writeFailed(op, err)
	}
	if s.dirty {
		s.log.Info("snapshot resynced", "op", op, "workouts", len(s.workouts))
	}
	s.dirty = false
	observability.RecordMutation(op)
	return nil
}

func (s *Store) writeFailed(op string, err error) error {
	s.dirty = true
	observability.RecordMutation(op)
	observability.RecordPersistFailure()
	s.log.Warn("snapshot write failed, change is in memory only", "op", op, "error", err)
	return fmt.Errorf("%s: %w: %w", op, ErrPersistenceUnavailable, err)
}
