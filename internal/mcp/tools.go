package mcp

import (
	"context"
	"errors"

	"github.com/claude/mapty/internal/tracker"
	"github.com/claude/mapty/internal/workout"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolListWorkouts = mcp.NewTool("list_workouts",
	mcp.WithDescription("List logged workouts, oldest first. Each includes distance (km), duration (min), coordinates, and pace (min/km) for running or speed (km/h) for cycling."),
	mcp.WithString("type", mcp.Description("Filter by workout type. Defaults to all."), mcp.Enum("running", "cycling")),
)

var toolGetWorkout = mcp.NewTool("get_workout",
	mcp.WithDescription("Get one workout by id."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Workout id")),
)

var toolLocateWorkout = mcp.NewTool("locate_workout",
	mcp.WithDescription("Get the [lat, lng] coordinates where a workout was recorded."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Workout id")),
)

type location struct {
	ID          string         `json:"id"`
	Coordinates workout.Coords `json:"coordinates"`
}

// --- Tool handlers ---

func (h *handlers) listWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var filter workout.Kind
	if t := req.GetString("type", ""); t != "" {
		k, err := workout.ParseKind(t)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		filter = k
	}

	recs, err := h.ds.ListWorkouts(ctx)
	if err != nil {
		h.log.Error("mcp list_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if filter != "" {
		kept := recs[:0]
		for _, r := range recs {
			if r.Type == string(filter) {
				kept = append(kept, r)
			}
		}
		recs = kept
	}

	result, err := mcp.NewToolResultJSON(recs)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	rec, err := h.ds.GetWorkout(ctx, id)
	if err != nil {
		return h.lookupError("get_workout", id, err), nil
	}

	result, err := mcp.NewToolResultJSON(rec)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) locateWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	coords, err := h.ds.LocateWorkout(ctx, id)
	if err != nil {
		return h.lookupError("locate_workout", id, err), nil
	}

	result, err := mcp.NewToolResultJSON(location{ID: id, Coordinates: coords})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) lookupError(tool, id string, err error) *mcp.CallToolResult {
	if errors.Is(err, tracker.ErrNotFound) {
		return mcp.NewToolResultError("no workout with id " + id)
	}
	h.log.Error("mcp "+tool, "id", id, "error", err)
	return mcp.NewToolResultError("query failed: " + err.Error())
}
