package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/claude/mapty/internal/kv"
	"github.com/claude/mapty/internal/workout"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func f(v float64) *float64 { return &v }

func mustRunning(t *testing.T, distance, duration, cadence float64) *workout.Workout {
	t.Helper()
	w, err := workout.NewRunning(workout.Coords{52.52, 13.40}, distance, duration, cadence)
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func mustCycling(t *testing.T, distance, duration, elev float64) *workout.Workout {
	t.Helper()
	w, err := workout.NewCycling(workout.Coords{48.85, 2.35}, distance, duration, elev)
	if err != nil {
		t.Fatal(err)
	}
	return w
}

// failingGet is a kv store whose reads always fail.
type failingGet struct {
	*kv.Memory
	err error
}

func (s failingGet) Get(context.Context, string) ([]byte, error) { return nil, s.err }

// TestAddFind verifies an added workout can be found and the length grows by one.
func TestAddFind(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, kv.NewMemory(), discard())

	w := mustRunning(t, 5, 25, 170)
	if err := s.Add(ctx, w); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("len = %d, want 1", s.Len())
	}
	got, err := s.FindByID(w.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.ID != w.ID || got.Distance != 5 || got.Pace != 5 {
		t.Errorf("found %+v, want copy of %+v", got, w)
	}
}

// TestAddDuplicate verifies ids stay unique within the collection.
func TestAddDuplicate(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, kv.NewMemory(), discard())
	w := mustRunning(t, 5, 25, 170)
	if err := s.Add(ctx, w); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(ctx, w); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("second Add err = %v, want ErrDuplicateID", err)
	}
	if s.Len() != 1 {
		t.Errorf("len = %d, want 1", s.Len())
	}
}

// TestFindByIDReturnsCopy verifies callers cannot mutate stored workouts.
func TestFindByIDReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, kv.NewMemory(), discard())
	w := mustRunning(t, 5, 25, 170)
	if err := s.Add(ctx, w); err != nil {
		t.Fatal(err)
	}
	w.Distance = 99
	got, _ := s.FindByID(w.ID)
	got.Distance = 42
	again, _ := s.FindByID(w.ID)
	if again.Distance != 5 {
		t.Errorf("stored distance = %v, want 5", again.Distance)
	}
}

// TestRemove verifies removal of a present id and NotFound for an absent one.
func TestRemove(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, kv.NewMemory(), discard())
	a, b := mustRunning(t, 5, 25, 170), mustCycling(t, 20, 60, 100)
	for _, w := range []*workout.Workout{a, b} {
		if err := s.Add(ctx, w); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.Remove(ctx, a.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("len = %d, want 1", s.Len())
	}
	if _, err := s.FindByID(a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindByID after Remove err = %v, want ErrNotFound", err)
	}

	if err := s.Remove(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove(missing) err = %v, want ErrNotFound", err)
	}
	if s.Len() != 1 {
		t.Errorf("len after failed Remove = %d, want 1", s.Len())
	}
	if all := s.All(); all[0].ID != b.ID {
		t.Errorf("remaining id = %s, want %s", all[0].ID, b.ID)
	}
}

// TestUpdateLeavesDerivedStale verifies edits overwrite inputs but keep the
// creation-time pace, speed and description. This mirrors the tracker's
// historical behaviour; see WithRecomputeOnEdit for the repaired variant.
func TestUpdateLeavesDerivedStale(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, kv.NewMemory(), discard())
	r := mustRunning(t, 5, 25, 170)
	c := mustCycling(t, 30, 60, 200)
	s.Add(ctx, r)
	s.Add(ctx, c)

	got, err := s.Update(ctx, r.ID, Patch{Distance: f(10)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Distance != 10 {
		t.Errorf("distance = %v, want 10", got.Distance)
	}
	if got.Pace != r.Pace {
		t.Errorf("pace = %v, want unchanged %v", got.Pace, r.Pace)
	}
	if got.Description != r.Description {
		t.Errorf("description = %q, want unchanged %q", got.Description, r.Description)
	}

	got, err = s.Update(ctx, c.ID, Patch{Distance: f(10), Duration: f(30), ElevationGain: f(-15)})
	if err != nil {
		t.Fatal(err)
	}
	if got.Speed != c.Speed {
		t.Errorf("speed = %v, want unchanged %v", got.Speed, c.Speed)
	}
	if got.ElevationGain != -15 || got.Duration != 30 {
		t.Errorf("cycling after update = %+v", got)
	}
	if got.Coords != c.Coords || !got.CreatedAt.Equal(c.CreatedAt) {
		t.Errorf("coords/createdAt changed on edit")
	}
}

// TestUpdateRecomputeOnEdit verifies the opt-in repaired edit path.
func TestUpdateRecomputeOnEdit(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, kv.NewMemory(), discard(), WithRecomputeOnEdit(true))
	r := mustRunning(t, 5, 25, 170)
	s.Add(ctx, r)

	got, err := s.Update(ctx, r.ID, Patch{Distance: f(10)})
	if err != nil {
		t.Fatal(err)
	}
	if got.Pace != 2.5 {
		t.Errorf("pace = %v, want 2.5", got.Pace)
	}
	if got.Description != r.Description {
		t.Errorf("description = %q, want %q", got.Description, r.Description)
	}
}

// TestUpdateVariantFields verifies a patch only touches the fields of the
// workout's own variant.
func TestUpdateVariantFields(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, kv.NewMemory(), discard())
	r := mustRunning(t, 5, 25, 170)
	c := mustCycling(t, 30, 60, 200)
	s.Add(ctx, r)
	s.Add(ctx, c)

	gotR, _ := s.Update(ctx, r.ID, Patch{Cadence: f(180), ElevationGain: f(999)})
	if gotR.Cadence != 180 || gotR.ElevationGain != 0 {
		t.Errorf("running = cadence %v elevation %v, want 180 and 0", gotR.Cadence, gotR.ElevationGain)
	}
	gotC, _ := s.Update(ctx, c.ID, Patch{Cadence: f(180), ElevationGain: f(300)})
	if gotC.Cadence != 0 || gotC.ElevationGain != 300 {
		t.Errorf("cycling = cadence %v elevation %v, want 0 and 300", gotC.Cadence, gotC.ElevationGain)
	}
}

// TestUpdateNotFound verifies an absent id is rejected without persisting.
func TestUpdateNotFound(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := Open(ctx, mem, discard())
	if _, err := s.Update(ctx, "nope", Patch{Distance: f(1)}); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := mem.Get(ctx, SnapshotKey); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("snapshot written on failed update")
	}
}

// TestRoundTrip verifies a fresh store rebuilt from the snapshot has the same
// workouts, in the same order, with identical field values.
func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := Open(ctx, mem, discard())

	var want []*workout.Workout
	for i := 0; i < 6; i++ {
		var w *workout.Workout
		if i%2 == 0 {
			w = mustRunning(t, float64(i+1), float64(10*(i+1)), 160+float64(i))
		} else {
			w = mustCycling(t, float64(10*i), float64(30*i), float64(-5*i))
		}
		want = append(want, w)
		if err := s.Add(ctx, w); err != nil {
			t.Fatal(err)
		}
	}
	s.Activate(ctx, want[1].ID)
	want[1].Clicks = 1
	s.Update(ctx, want[2].ID, Patch{Duration: f(77)})
	want[2].Duration = 77

	fresh := Open(ctx, mem, discard())
	got := fresh.All()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.ID != w.ID || g.Kind != w.Kind {
			t.Errorf("[%d] id/kind = %s/%s, want %s/%s", i, g.ID, g.Kind, w.ID, w.Kind)
		}
		if !g.CreatedAt.Equal(w.CreatedAt) {
			t.Errorf("[%d] createdAt = %v, want %v", i, g.CreatedAt, w.CreatedAt)
		}
		g.CreatedAt = w.CreatedAt
		if *g != *w {
			t.Errorf("[%d] = %+v, want %+v", i, g, w)
		}
	}
}

// TestLoadKeepsStaleDerived verifies derived values are read back as stored
// rather than recomputed on load.
func TestLoadKeepsStaleDerived(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := Open(ctx, mem, discard())
	r := mustRunning(t, 5, 25, 170)
	s.Add(ctx, r)
	s.Update(ctx, r.ID, Patch{Distance: f(10)})

	got, err := Open(ctx, mem, discard()).FindByID(r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Pace != 5 {
		t.Errorf("reloaded pace = %v, want stale 5", got.Pace)
	}
}

// TestLoadDoesNotRevalidate verifies a hand-edited snapshot with invalid
// numbers is accepted as-is.
func TestLoadDoesNotRevalidate(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	mem.Set(ctx, SnapshotKey, []byte(`[{"type":"running","id":"x1","distance":-3,"duration":0,"cadence":-1,"pace":0,"description":"Running on May 2"}]`))

	s := Open(ctx, mem, discard())
	w, err := s.FindByID("x1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if w.Distance != -3 || w.Cadence != -1 {
		t.Errorf("workout = %+v, want raw snapshot values", w)
	}
}

// TestOpenDegradesToEmpty verifies missing, unparsable and unreadable
// snapshots all produce an empty store without an error.
func TestOpenDegradesToEmpty(t *testing.T) {
	ctx := context.Background()

	garbage := kv.NewMemory()
	garbage.Set(ctx, SnapshotKey, []byte(`{not json`))
	null := kv.NewMemory()
	null.Set(ctx, SnapshotKey, []byte(`null`))

	tests := map[string]kv.Store{
		"missing":    kv.NewMemory(),
		"unparsable": garbage,
		"null":       null,
		"read error": failingGet{Memory: kv.NewMemory(), err: errors.New("io error")},
	}
	for name, store := range tests {
		s := Open(ctx, store, discard())
		if s.Len() != 0 {
			t.Errorf("%s: len = %d, want 0", name, s.Len())
		}
		if s.Dirty() {
			t.Errorf("%s: dirty = true, want false", name)
		}
	}
}

// TestOpenSkipsUnknownRecords verifies bad entries are dropped while the
// rest of the snapshot still loads.
func TestOpenSkipsUnknownRecords(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	mem.Set(ctx, SnapshotKey, []byte(`[
		{"type":"swimming","id":"s1","distance":1,"duration":1},
		{"type":"cycling","id":"c1","distance":20,"duration":60,"elevationGain":0,"speed":20},
		{"type":"running","distance":1,"duration":1},
		42
	]`))
	s := Open(ctx, mem, discard())
	all := s.All()
	if len(all) != 1 || all[0].ID != "c1" {
		t.Fatalf("all = %+v, want only c1", all)
	}
}

// TestCenterOn verifies the stored coordinates are returned exactly.
func TestCenterOn(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, kv.NewMemory(), discard())
	w := mustCycling(t, 10, 30, 0)
	s.Add(ctx, w)

	got, err := s.CenterOn(w.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got != (workout.Coords{48.85, 2.35}) {
		t.Errorf("coords = %v, want [48.85 2.35]", got)
	}
	if _, err := s.CenterOn("absent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("CenterOn(absent) err = %v, want ErrNotFound", err)
	}
}

// TestActivate verifies the interaction counter persists across reloads.
func TestActivate(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := Open(ctx, mem, discard())
	w := mustRunning(t, 5, 25, 170)
	s.Add(ctx, w)

	s.Activate(ctx, w.ID)
	got, err := s.Activate(ctx, w.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Clicks != 2 {
		t.Errorf("clicks = %d, want 2", got.Clicks)
	}
	reloaded, _ := Open(ctx, mem, discard()).FindByID(w.ID)
	if reloaded.Clicks != 2 {
		t.Errorf("reloaded clicks = %d, want 2", reloaded.Clicks)
	}
	if _, err := s.Activate(ctx, "absent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// TestClear verifies both memory and the snapshot are emptied.
func TestClear(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := Open(ctx, mem, discard())
	s.Add(ctx, mustRunning(t, 5, 25, 170))
	s.Add(ctx, mustCycling(t, 10, 30, 5))

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("len = %d, want 0", s.Len())
	}
	if _, err := mem.Get(ctx, SnapshotKey); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("snapshot still present: %v", err)
	}
	if n := Open(ctx, mem, discard()).Len(); n != 0 {
		t.Errorf("reopened len = %d, want 0", n)
	}
}

// TestPersistFailure verifies a failed write keeps the mutation in memory,
// surfaces ErrPersistenceUnavailable and marks the store dirty until a later
// write succeeds.
func TestPersistFailure(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := Open(ctx, mem, discard())
	first := mustRunning(t, 5, 25, 170)
	s.Add(ctx, first)

	mem.Fail(errors.New("quota exceeded"))
	second := mustCycling(t, 10, 30, 5)
	err := s.Add(ctx, second)
	if !errors.Is(err, ErrPersistenceUnavailable) {
		t.Fatalf("Add err = %v, want ErrPersistenceUnavailable", err)
	}
	if s.Len() != 2 {
		t.Errorf("len = %d, want 2", s.Len())
	}
	if !s.Dirty() {
		t.Error("dirty = false, want true")
	}
	if n := Open(ctx, mem, discard()).Len(); n != 1 {
		t.Errorf("persisted len = %d, want 1", n)
	}

	mem.Fail(nil)
	if _, err := s.Update(ctx, first.ID, Patch{Cadence: f(175)}); err != nil {
		t.Fatalf("Update after heal: %v", err)
	}
	if s.Dirty() {
		t.Error("dirty = true after successful write")
	}
	if n := Open(ctx, mem, discard()).Len(); n != 2 {
		t.Errorf("persisted len after heal = %d, want 2", n)
	}
}

// TestClearFailure verifies memory is emptied even when the delete fails.
func TestClearFailure(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := Open(ctx, mem, discard())
	s.Add(ctx, mustRunning(t, 5, 25, 170))
	mem.Fail(errors.New("locked"))

	if err := s.Clear(ctx); !errors.Is(err, ErrPersistenceUnavailable) {
		t.Errorf("err = %v, want ErrPersistenceUnavailable", err)
	}
	if s.Len() != 0 || !s.Dirty() {
		t.Errorf("len = %d dirty = %v, want 0 and true", s.Len(), s.Dirty())
	}
}

// TestEvents verifies every mutation emits one event, in order, and that
// unsubscribed handlers stop receiving.
func TestEvents(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, kv.NewMemory(), discard())

	var got []Event
	unsubscribe := s.Subscribe(func(ev Event) { got = append(got, ev) })

	w := mustRunning(t, 5, 25, 170)
	s.Add(ctx, w)
	s.Update(ctx, w.ID, Patch{Distance: f(6)})
	s.Remove(ctx, w.ID)
	s.Remove(ctx, w.ID) // not found: no event
	s.Clear(ctx)

	want := []EventKind{EventAdded, EventUpdated, EventRemoved, EventCleared}
	if len(got) != len(want) {
		t.Fatalf("events = %d, want %d", len(got), len(want))
	}
	for i, k := range want {
		if got[i].Kind != k {
			t.Errorf("event[%d] = %s, want %s", i, got[i].Kind, k)
		}
	}
	if got[1].Workout.Distance != 6 || got[1].ID != w.ID {
		t.Errorf("updated event = %+v", got[1])
	}
	if got[3].Workout != nil {
		t.Errorf("cleared event carries workout")
	}

	unsubscribe()
	s.Add(ctx, mustRunning(t, 1, 1, 1))
	if len(got) != len(want) {
		t.Errorf("received event after unsubscribe")
	}
}

// TestSnapshotShape verifies each persisted record carries only the fields
// of its own variant.
func TestSnapshotShape(t *testing.T) {
	r := mustRunning(t, 5, 25, 170)
	c := mustCycling(t, 10, 30, 0)
	data, err := EncodeSnapshot([]*workout.Workout{r, c})
	if err != nil {
		t.Fatal(err)
	}
	var recs []map[string]any
	if err := json.Unmarshal(data, &recs); err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}
	for _, k := range []string{"type", "id", "createdAt", "coordinates", "distance", "duration", "description", "cadence", "pace"} {
		if _, ok := recs[0][k]; !ok {
			t.Errorf("running record missing %q", k)
		}
	}
	for _, k := range []string{"elevationGain", "speed"} {
		if _, ok := recs[0][k]; ok {
			t.Errorf("running record has %q", k)
		}
		if _, ok := recs[1][k]; !ok {
			t.Errorf("cycling record missing %q", k)
		}
	}
	if _, ok := recs[1]["cadence"]; ok {
		t.Error("cycling record has cadence")
	}
	if recs[0]["type"] != "running" || recs[1]["type"] != "cycling" {
		t.Errorf("types = %v, %v", recs[0]["type"], recs[1]["type"])
	}
}

// TestDecodeBrowserExport verifies records written by the browser tracker,
// which use "date" and "coords", are understood.
func TestDecodeBrowserExport(t *testing.T) {
	data := []byte(`[{"date":"2024-04-14T09:30:00.000Z","id":"3094837261","clicks":0,"coords":[51.5,-0.12],
		"distance":5.2,"duration":24,"type":"running","cadence":178,"pace":4.615384615384615,
		"description":"Running on April 14"}]`)
	ws, skipped, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(skipped) != 0 || len(ws) != 1 {
		t.Fatalf("decoded %d, skipped %d", len(ws), len(skipped))
	}
	w := ws[0]
	if w.ID != "3094837261" || w.Coords != (workout.Coords{51.5, -0.12}) {
		t.Errorf("workout = %+v", w)
	}
	want := time.Date(2024, time.April, 14, 9, 30, 0, 0, time.UTC)
	if !w.CreatedAt.Equal(want) {
		t.Errorf("createdAt = %v, want %v", w.CreatedAt, want)
	}
	if w.Cadence != 178 || w.Pace != 4.615384615384615 {
		t.Errorf("cadence/pace = %v/%v", w.Cadence, w.Pace)
	}
}

// TestRecomputeZeroDistanceStaysDurable verifies an edit that would make pace
// infinite keeps the old pace and does not block later snapshot writes.
func TestRecomputeZeroDistanceStaysDurable(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := Open(ctx, mem, discard(), WithRecomputeOnEdit(true))
	r := mustRunning(t, 5, 25, 170)
	s.Add(ctx, r)

	got, err := s.Update(ctx, r.ID, Patch{Distance: f(0)})
	if err != nil {
		t.Fatalf("Update err = %v", err)
	}
	if got.Pace != 5 {
		t.Errorf("pace = %v, want unchanged 5", got.Pace)
	}
	if err := s.Add(ctx, mustCycling(t, 10, 30, 0)); err != nil {
		t.Fatalf("later Add err = %v", err)
	}
	if s.Dirty() {
		t.Error("dirty = true, want false")
	}
	if n := Open(ctx, mem, discard()).Len(); n != 2 {
		t.Errorf("persisted len = %d, want 2", n)
	}
}

// TestNaNPatchStaysDurable verifies a non-finite edited value is written as
// 0 or omitted instead of making the whole snapshot unencodable.
func TestNaNPatchStaysDurable(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := Open(ctx, mem, discard())
	r := mustRunning(t, 5, 25, 170)
	s.Add(ctx, r)

	if _, err := s.Update(ctx, r.ID, Patch{Distance: f(math.NaN()), Cadence: f(math.Inf(1))}); err != nil {
		t.Fatalf("Update err = %v", err)
	}
	c := mustCycling(t, 10, 30, 0)
	if err := s.Add(ctx, c); err != nil {
		t.Fatalf("later Add err = %v", err)
	}
	if s.Dirty() {
		t.Error("dirty = true, want false")
	}

	reloaded := Open(ctx, mem, discard())
	if reloaded.Len() != 2 {
		t.Fatalf("persisted len = %d, want 2", reloaded.Len())
	}
	got, err := reloaded.FindByID(r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Distance != 0 || got.Cadence != 0 {
		t.Errorf("distance = %v cadence = %v, want 0 and 0", got.Distance, got.Cadence)
	}
	if got.Pace != 5 {
		t.Errorf("pace = %v, want 5", got.Pace)
	}
}

// TestOpenSkipsDuplicateIDs verifies only the first record of a repeated id
// is loaded.
func TestOpenSkipsDuplicateIDs(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	mem.Set(ctx, SnapshotKey, []byte(`[
		{"type":"running","id":"r1","distance":5,"duration":25,"cadence":170,"pace":5},
		{"type":"cycling","id":"r1","distance":20,"duration":60,"elevationGain":0,"speed":20},
		{"type":"cycling","id":"c1","distance":20,"duration":60,"elevationGain":0,"speed":20}
	]`))

	_, skipped, err := DecodeSnapshot(mustGet(t, mem))
	if err != nil {
		t.Fatal(err)
	}
	if len(skipped) != 1 || skipped[0].Index != 1 || !errors.Is(skipped[0].Err, ErrDuplicateID) {
		t.Errorf("skipped = %+v, want index 1 with ErrDuplicateID", skipped)
	}

	s := Open(ctx, mem, discard())
	if s.Len() != 2 {
		t.Fatalf("len = %d, want 2", s.Len())
	}
	w, _ := s.FindByID("r1")
	if w.Kind != workout.Running {
		t.Errorf("r1 kind = %s, want running", w.Kind)
	}
	if err := s.Remove(ctx, "r1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.FindByID("r1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindByID after remove err = %v, want ErrNotFound", err)
	}
}

func mustGet(t *testing.T, mem *kv.Memory) []byte {
	t.Helper()
	data, err := mem.Get(context.Background(), SnapshotKey)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

// TestWatch verifies init receives the current collection and the handler
// receives only the events after it.
func TestWatch(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, kv.NewMemory(), discard())
	first := mustRunning(t, 5, 25, 170)
	s.Add(ctx, first)

	var initial []*workout.Workout
	var events []Event
	unsubscribe := s.Watch(
		func(ws []*workout.Workout) { initial = ws },
		func(ev Event) { events = append(events, ev) },
	)
	defer unsubscribe()

	if len(initial) != 1 || initial[0].ID != first.ID {
		t.Fatalf("initial = %+v, want [%s]", initial, first.ID)
	}
	if len(events) != 0 {
		t.Errorf("events before any mutation = %d", len(events))
	}
	second := mustCycling(t, 10, 30, 0)
	s.Add(ctx, second)
	if len(events) != 1 || events[0].ID != second.ID {
		t.Errorf("events = %+v, want one added %s", events, second.ID)
	}
}
