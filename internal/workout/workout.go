package workout

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the workout variants.
type Kind string

const (
	Running Kind = "running"
	Cycling Kind = "cycling"
)

// ParseKind maps a persisted or user-supplied type string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Running:
		return Running, nil
	case Cycling:
		return Cycling, nil
	}
	return "", fmt.Errorf("unknown workout type %q", s)
}

// Coords is a [lat, lng] pair.
type Coords [2]float64

// Lat returns the latitude.
func (c Coords) Lat() float64 { return c[0] }

// Lng returns the longitude.
func (c Coords) Lng() float64 { return c[1] }

// ErrValidation is wrapped by every ValidationError.
var ErrValidation = errors.New("inputs have to be positive numbers")

// ValidationError reports a rejected numeric input at creation time.
type ValidationError struct {
	Field string
	Value float64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s = %v: %v", e.Field, e.Value, ErrValidation)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Workout is a recorded running or cycling session. Kind selects which of
// the variant fields are meaningful: Cadence and Pace for running,
// ElevationGain and Speed for cycling.
type Workout struct {
	Kind        Kind
	ID          string
	CreatedAt   time.Time
	Coords      Coords
	Distance    float64 // km
	Duration    float64 // min
	Description string
	Clicks      int

	Cadence float64 // steps/min
	Pace    float64 // min/km

	ElevationGain float64 // m
	Speed         float64 // km/h
}

// Now is the clock used to stamp CreatedAt.
var Now = time.Now

// NewID returns a fresh workout identifier.
func NewID() string {
	return uuid.NewString()
}

// NewRunning creates a running workout. Distance, duration and cadence must
// all be finite and positive.
func NewRunning(coords Coords, distance, duration, cadence float64) (*Workout, error) {
	if err := positive("distance", distance); err != nil {
		return nil, err
	}
	if err := positive("duration", duration); err != nil {
		return nil, err
	}
	if err := positive("cadence", cadence); err != nil {
		return nil, err
	}
	w := newBase(Running, coords, distance, duration)
	w.Cadence = cadence
	w.Recompute()
	return w, nil
}

// NewCycling creates a cycling workout. Elevation gain may be zero or
// negative but must be a real number.
func NewCycling(coords Coords, distance, duration, elevationGain float64) (*Workout, error) {
	if err := positive("distance", distance); err != nil {
		return nil, err
	}
	if err := positive("duration", duration); err != nil {
		return nil, err
	}
	if !finite(elevationGain) {
		return nil, &ValidationError{Field: "elevationGain", Value: elevationGain}
	}
	w := newBase(Cycling, coords, distance, duration)
	w.ElevationGain = elevationGain
	w.Recompute()
	return w, nil
}

func newBase(kind Kind, coords Coords, distance, duration float64) *Workout {
	w := &Workout{
		Kind:      kind,
		ID:        NewID(),
		CreatedAt: Now(),
		Coords:    coords,
		Distance:  distance,
		Duration:  duration,
	}
	w.Description = Describe(kind, w.CreatedAt)
	return w
}

// Recompute refreshes the derived metric of the workout's variant from its
// current distance and duration. Description is left untouched. A result
// that is not finite (zero distance or duration) leaves the old value.
func (w *Workout) Recompute() {
	switch w.Kind {
	case Running:
		if pace := w.Duration / w.Distance; finite(pace) {
			w.Pace = pace
		}
	case Cycling:
		if speed := w.Distance / (w.Duration / 60); finite(speed) {
			w.Speed = speed
		}
	}
}

// Activate records one interaction with the workout.
func (w *Workout) Activate() {
	w.Clicks++
}

// Clone returns a copy that shares no state with w.
func (w *Workout) Clone() *Workout {
	c := *w
	return &c
}

func positive(field string, v float64) error {
	if !finite(v) || v <= 0 {
		return &ValidationError{Field: field, Value: v}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
