package tracker

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/claude/mapty/internal/workout"
)

// Record is the persisted and wire shape of one workout. Derived values are stored
// and read back verbatim.
type Record struct {
	Type          string     `json:"type"`
	ID            string     `json:"id"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
	Coordinates   []float64  `json:"coordinates,omitempty"`
	Distance      float64    `json:"distance"`
	Duration      float64    `json:"duration"`
	Description   string     `json:"description"`
	Clicks        int        `json:"clicks"`
	Cadence       *float64   `json:"cadence,omitempty"`
	Pace          *float64   `json:"pace,omitempty"`
	ElevationGain *float64   `json:"elevationGain,omitempty"`
	Speed         *float64   `json:"speed,omitempty"`

	// Browser localStorage exports use these names instead.
	Date   *time.Time `json:"date,omitempty"`
	Coords []float64  `json:"coords,omitempty"`
}

// NewRecord converts w to its persisted shape. JSON has no NaN or Inf, so
// non-finite coordinates and variant fields are omitted and a non-finite
// distance or duration is written as 0; one unencodable edit must not block
// every later snapshot write.
func NewRecord(w *workout.Workout) Record {
	created := w.CreatedAt
	r := Record{
		Type:        string(w.Kind),
		ID:          w.ID,
		CreatedAt:   &created,
		Distance:    finiteOrZero(w.Distance),
		Duration:    finiteOrZero(w.Duration),
		Description: w.Description,
		Clicks:      w.Clicks,
	}
	if isFinite(w.Coords.Lat()) && isFinite(w.Coords.Lng()) {
		r.Coordinates = []float64{w.Coords.Lat(), w.Coords.Lng()}
	}
	switch w.Kind {
	case workout.Running:
		r.Cadence, r.Pace = finitePtr(w.Cadence), finitePtr(w.Pace)
	case workout.Cycling:
		r.ElevationGain, r.Speed = finitePtr(w.ElevationGain), finitePtr(w.Speed)
	}
	return r
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteOrZero(v float64) float64 {
	if !isFinite(v) {
		return 0
	}
	return v
}

func finitePtr(v float64) *float64 {
	if !isFinite(v) {
		return nil
	}
	return &v
}

// fromRecord rebuilds a workout as plain data. Nothing is validated or
// recomputed, so a hand-edited snapshot is taken as-is.
func fromRecord(r Record) (*workout.Workout, error) {
	kind, err := workout.ParseKind(r.Type)
	if err != nil {
		return nil, err
	}
	if r.ID == "" {
		return nil, fmt.Errorf("record has no id")
	}
	w := &workout.Workout{
		Kind:        kind,
		ID:          r.ID,
		Distance:    r.Distance,
		Duration:    r.Duration,
		Description: r.Description,
		Clicks:      r.Clicks,
	}
	switch {
	case r.CreatedAt != nil:
		w.CreatedAt = *r.CreatedAt
	case r.Date != nil:
		w.CreatedAt = *r.Date
	}
	coords := r.Coordinates
	if coords == nil {
		coords = r.Coords
	}
	if len(coords) >= 2 {
		w.Coords = workout.Coords{coords[0], coords[1]}
	}
	switch kind {
	case workout.Running:
		w.Cadence = deref(r.Cadence)
		w.Pace = deref(r.Pace)
	case workout.Cycling:
		w.ElevationGain = deref(r.ElevationGain)
		w.Speed = deref(r.Speed)
	}
	return w, nil
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// EncodeSnapshot serializes the collection in display order.
func EncodeSnapshot(ws []*workout.Workout) ([]byte, error) {
	recs := make([]Record, 0, len(ws))
	for _, w := range ws {
		recs = append(recs, NewRecord(w))
	}
	data, err := json.Marshal(recs)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

// SkippedRecord describes a snapshot entry that could not be rebuilt.
type SkippedRecord struct {
	Index int
	Err   error
}

// DecodeSnapshot parses a snapshot. An error means the snapshot as a whole
// is unreadable; individual bad entries are dropped and reported in skipped.
// Later entries repeating an earlier id are dropped the same way.
func DecodeSnapshot(data []byte) (ws []*workout.Workout, skipped []SkippedRecord, err error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	ws = make([]*workout.Workout, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, msg := range raw {
		var r Record
		if err := json.Unmarshal(msg, &r); err != nil {
			skipped = append(skipped, SkippedRecord{Index: i, Err: err})
			continue
		}
		w, err := fromRecord(r)
		if err != nil {
			skipped = append(skipped, SkippedRecord{Index: i, Err: err})
			continue
		}
		if seen[w.ID] {
			skipped = append(skipped, SkippedRecord{Index: i, Err: fmt.Errorf("workout %s: %w", w.ID, ErrDuplicateID)})
			continue
		}
		seen[w.ID] = true
		ws = append(ws, w)
	}
	return ws, skipped, nil
}
