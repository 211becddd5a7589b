// Package view keeps a render-ready projection of the workout collection:
// list entries for the sidebar and markers for the map. It follows the store
// through events, so after every mutation it matches a full resync.
package view

import (
	"fmt"
	"sync"

	"github.com/claude/mapty/internal/tracker"
	"github.com/claude/mapty/internal/workout"
)

// Detail is one metric cell of a list entry.
type Detail struct {
	Field    string `json:"field"`
	Icon     string `json:"icon"`
	Value    string `json:"value"`
	Unit     string `json:"unit"`
	Editable bool   `json:"editable"`
}

// Item is one rendered list entry.
type Item struct {
	ID      string   `json:"id"`
	Type    string   `json:"type"`
	Class   string   `json:"class"`
	Title   string   `json:"title"`
	Details []Detail `json:"details"`
}

// Marker is one map marker with its popup.
type Marker struct {
	ID         string  `json:"id"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	PopupClass string  `json:"popupClass"`
	PopupText  string  `json:"popupText"`
}

// List is the projection. Items are newest first, the order the sidebar
// shows them; markers keep insertion order.
type List struct {
	mu      sync.RWMutex
	items   []Item
	markers []Marker
}

// NewList returns an empty List.
func NewList() *List {
	return &List{}
}

// Attach resyncs the list from s and subscribes it to later events in one
// step, so no mutation falls between the two. The returned func detaches it.
func (l *List) Attach(s *tracker.Store) (detach func()) {
	return s.Watch(l.Sync, l.Apply)
}

// Sync rebuilds the projection from ws, given oldest first.
func (l *List) Sync(ws []*workout.Workout) {
	items := make([]Item, 0, len(ws))
	markers := make([]Marker, 0, len(ws))
	for i := len(ws) - 1; i >= 0; i-- {
		items = append(items, RenderItem(ws[i]))
	}
	for _, w := range ws {
		markers = append(markers, RenderMarker(w))
	}

	l.mu.Lock()
	l.items, l.markers = items, markers
	l.mu.Unlock()
}

// Apply folds one store event into the projection. Applying an event that is
// already reflected leaves the projection unchanged.
func (l *List) Apply(ev tracker.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch ev.Kind {
	case tracker.EventAdded, tracker.EventUpdated:
		item, marker := RenderItem(ev.Workout), RenderMarker(ev.Workout)
		if i := l.itemIndex(ev.ID); i >= 0 {
			l.items[i] = item
		} else {
			l.items = append([]Item{item}, l.items...)
		}
		if i := l.markerIndex(ev.ID); i >= 0 {
			l.markers[i] = marker
		} else {
			l.markers = append(l.markers, marker)
		}
	case tracker.EventRemoved:
		if i := l.itemIndex(ev.ID); i >= 0 {
			l.items = append(l.items[:i:i], l.items[i+1:]...)
		}
		if i := l.markerIndex(ev.ID); i >= 0 {
			l.markers = append(l.markers[:i:i], l.markers[i+1:]...)
		}
	case tracker.EventCleared:
		l.items, l.markers = nil, nil
	}
}

// Items returns a copy of the list entries.
func (l *List) Items() []Item {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Item, len(l.items))
	copy(out, l.items)
	return out
}

// Markers returns a copy of the map markers.
func (l *List) Markers() []Marker {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Marker, len(l.markers))
	copy(out, l.markers)
	return out
}

func (l *List) itemIndex(id string) int {
	for i, it := range l.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (l *List) markerIndex(id string) int {
	for i, m := range l.markers {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// Icon returns the emoji shown for the workout type.
func Icon(kind workout.Kind) string {
	if kind == workout.Running {
		return "🏃‍♂️"
	}
	return "🚴‍♀️"
}

// RenderItem builds the list entry for w. Derived metrics are shown with one
// decimal and are read-only.
func RenderItem(w *workout.Workout) Item {
	details := []Detail{
		{Field: "distance", Icon: Icon(w.Kind), Value: number(w.Distance), Unit: "km", Editable: true},
		{Field: "duration", Icon: "⏱", Value: number(w.Duration), Unit: "min", Editable: true},
	}
	switch w.Kind {
	case workout.Running:
		details = append(details,
			Detail{Field: "pace", Icon: "⚡️", Value: fmt.Sprintf("%.1f", w.Pace), Unit: "min/km"},
			Detail{Field: "cadence", Icon: "🦶🏼", Value: number(w.Cadence), Unit: "spm", Editable: true},
		)
	case workout.Cycling:
		details = append(details,
			Detail{Field: "speed", Icon: "⚡️", Value: fmt.Sprintf("%.1f", w.Speed), Unit: "km/h"},
			Detail{Field: "elevationGain", Icon: "⛰", Value: number(w.ElevationGain), Unit: "m", Editable: true},
		)
	}
	return Item{
		ID:      w.ID,
		Type:    string(w.Kind),
		Class:   "workout workout--" + string(w.Kind),
		Title:   w.Description,
		Details: details,
	}
}

// RenderMarker builds the map marker for w.
func RenderMarker(w *workout.Workout) Marker {
	return Marker{
		ID:         w.ID,
		Lat:        w.Coords.Lat(),
		Lng:        w.Coords.Lng(),
		PopupClass: string(w.Kind) + "-popup",
		PopupText:  Icon(w.Kind) + " " + w.Description,
	}
}

// number formats user-entered values the way they were typed: no trailing zeros.
func number(v float64) string {
	return fmt.Sprintf("%g", v)
}
