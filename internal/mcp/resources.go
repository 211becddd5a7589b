package mcp

import (
	"context"
	"encoding/json"

	"github.com/claude/mapty/internal/workout"
	"github.com/mark3labs/mcp-go/mcp"
)

type kindTotals struct {
	Count    int     `json:"count"`
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
}

func (h *handlers) workouts(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	recs, err := h.ds.ListWorkouts(ctx)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, recs)
}

func (h *handlers) summary(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	recs, err := h.ds.ListWorkouts(ctx)
	if err != nil {
		return nil, err
	}

	totals := map[string]*kindTotals{
		string(workout.Running): {},
		string(workout.Cycling): {},
	}
	for _, r := range recs {
		t, ok := totals[r.Type]
		if !ok {
			continue
		}
		t.Count++
		t.Distance += r.Distance
		t.Duration += r.Duration
	}

	return jsonContents(req.Params.URI, map[string]any{
		"workouts": len(recs),
		"by_type":  totals,
	})
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
