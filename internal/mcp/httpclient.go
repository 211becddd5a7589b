package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/mapty/internal/tracker"
	"github.com/claude/mapty/internal/workout"
)

// HTTPClient implements DataSource by calling the mapty REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// the workouts live on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusNotFound:
		return nil, fmt.Errorf("httpclient: %s: %w", path, tracker.ErrNotFound)
	default:
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}
}

func workoutPath(id string) string {
	return "/api/v1/workouts/" + url.PathEscape(id)
}

func (c *HTTPClient) ListWorkouts(ctx context.Context) ([]tracker.Record, error) {
	body, err := c.get(ctx, "/api/v1/workouts")
	if err != nil {
		return nil, err
	}

	var recs []tracker.Record
	if err := json.Unmarshal(body, &recs); err != nil {
		return nil, fmt.Errorf("httpclient: decode workouts: %w", err)
	}
	return recs, nil
}

func (c *HTTPClient) GetWorkout(ctx context.Context, id string) (*tracker.Record, error) {
	body, err := c.get(ctx, workoutPath(id))
	if err != nil {
		return nil, err
	}

	var rec tracker.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("httpclient: decode workout: %w", err)
	}
	return &rec, nil
}

func (c *HTTPClient) LocateWorkout(ctx context.Context, id string) (workout.Coords, error) {
	body, err := c.get(ctx, workoutPath(id)+"/center")
	if err != nil {
		return workout.Coords{}, err
	}

	var resp struct {
		Coordinates workout.Coords `json:"coordinates"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return workout.Coords{}, fmt.Errorf("httpclient: decode center: %w", err)
	}
	return resp.Coordinates, nil
}
