package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/claude/mapty/internal/tracker"
	"github.com/claude/mapty/internal/workout"
	"github.com/go-chi/chi/v5"
)

// createRequest is the body of POST /api/v1/workouts. Cadence is read for
// running, ElevationGain for cycling.
type createRequest struct {
	Type          string         `json:"type"`
	Coordinates   workout.Coords `json:"coordinates"`
	Distance      float64        `json:"distance"`
	Duration      float64        `json:"duration"`
	Cadence       float64        `json:"cadence"`
	ElevationGain float64        `json:"elevationGain"`
}

// mutationResponse reports the result of a mutation. Persisted is false when
// the change was applied in memory but the snapshot write failed.
type mutationResponse struct {
	Workout   *tracker.Record `json:"workout,omitempty"`
	ID        string          `json:"id,omitempty"`
	Persisted bool            `json:"persisted"`
}

type centerResponse struct {
	ID          string         `json:"id"`
	Coordinates workout.Coords `json:"coordinates"`
	Zoom        int            `json:"zoom"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"workouts":  s.store.Len(),
		"persisted": !s.store.Dirty(),
	})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"items":   s.view.Items(),
		"markers": s.view.Markers(),
		"zoom":    s.zoom,
	})
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	all := s.store.All()
	recs := make([]tracker.Record, 0, len(all))
	for _, wo := range all {
		recs = append(recs, tracker.NewRecord(wo))
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	wo, err := s.store.FindByID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tracker.NewRecord(wo))
}

func (s *Server) handleCenterOn(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	coords, err := s.store.CenterOn(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, centerResponse{ID: id, Coordinates: coords, Zoom: s.zoom})
}

func (s *Server) handleCreateWorkout(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	kind, err := workout.ParseKind(req.Type)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var wo *workout.Workout
	switch kind {
	case workout.Running:
		wo, err = workout.NewRunning(req.Coordinates, req.Distance, req.Duration, req.Cadence)
	case workout.Cycling:
		wo, err = workout.NewCycling(req.Coordinates, req.Distance, req.Duration, req.ElevationGain)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	persisted, err := s.mutationResult(s.store.Add(r.Context(), wo))
	if err != nil {
		s.writeError(w, err)
		return
	}
	rec := tracker.NewRecord(wo)
	writeJSON(w, http.StatusCreated, mutationResponse{Workout: &rec, Persisted: persisted})
}

func (s *Server) handleUpdateWorkout(w http.ResponseWriter, r *http.Request) {
	var patch tracker.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	wo, err := s.store.Update(r.Context(), chi.URLParam(r, "id"), patch)
	persisted, err := s.mutationResult(err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	rec := tracker.NewRecord(wo)
	writeJSON(w, http.StatusOK, mutationResponse{Workout: &rec, Persisted: persisted})
}

func (s *Server) handleRemoveWorkout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	persisted, err := s.mutationResult(s.store.Remove(r.Context(), id))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse{ID: id, Persisted: persisted})
}

func (s *Server) handleActivateWorkout(w http.ResponseWriter, r *http.Request) {
	wo, err := s.store.Activate(r.Context(), chi.URLParam(r, "id"))
	persisted, err := s.mutationResult(err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	rec := tracker.NewRecord(wo)
	writeJSON(w, http.StatusOK, mutationResponse{Workout: &rec, Persisted: persisted})
}

func (s *Server) handleClearWorkouts(w http.ResponseWriter, r *http.Request) {
	persisted, err := s.mutationResult(s.store.Clear(r.Context()))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse{Persisted: persisted})
}

// mutationResult separates "applied but not durable" from real failures.
func (s *Server) mutationResult(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, tracker.ErrPersistenceUnavailable) {
		s.log.Warn("mutation not persisted", "error", err)
		return false, nil
	}
	return false, err
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, workout.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, tracker.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "workout not found"})
	case errors.Is(err, tracker.ErrDuplicateID):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		s.log.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
