package mcp

import (
	"context"

	"github.com/claude/mapty/internal/tracker"
	"github.com/claude/mapty/internal/workout"
)

// DataSource abstracts the workout collection for MCP tools. storeSource
// (local) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ListWorkouts(ctx context.Context) ([]tracker.Record, error)
	GetWorkout(ctx context.Context, id string) (*tracker.Record, error)
	LocateWorkout(ctx context.Context, id string) (workout.Coords, error)
}

// FromStore exposes an in-process Store as a DataSource.
func FromStore(s *tracker.Store) DataSource {
	return storeSource{s}
}

type storeSource struct {
	store *tracker.Store
}

func (s storeSource) ListWorkouts(context.Context) ([]tracker.Record, error) {
	all := s.store.All()
	recs := make([]tracker.Record, 0, len(all))
	for _, w := range all {
		recs = append(recs, tracker.NewRecord(w))
	}
	return recs, nil
}

func (s storeSource) GetWorkout(_ context.Context, id string) (*tracker.Record, error) {
	w, err := s.store.FindByID(id)
	if err != nil {
		return nil, err
	}
	rec := tracker.NewRecord(w)
	return &rec, nil
}

func (s storeSource) LocateWorkout(_ context.Context, id string) (workout.Coords, error) {
	return s.store.CenterOn(id)
}
