package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("Mapty", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Mapty workout log. List running and cycling workouts, read one workout with its pace or speed, and find where on the map it was recorded. Read-only."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolListWorkouts, Handler: h.listWorkouts},
		server.ServerTool{Tool: toolGetWorkout, Handler: h.getWorkout},
		server.ServerTool{Tool: toolLocateWorkout, Handler: h.locateWorkout},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resWorkouts, Handler: h.workouts},
		server.ServerResource{Resource: resSummary, Handler: h.summary},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resWorkouts = mcp.NewResource(
	"mapty://workouts",
	"Workouts",
	mcp.WithResourceDescription("Every logged workout in creation order, as stored in the snapshot"),
	mcp.WithMIMEType("application/json"),
)

var resSummary = mcp.NewResource(
	"mapty://summary",
	"Workout Summary",
	mcp.WithResourceDescription("Workout counts and total distance and duration per type"),
	mcp.WithMIMEType("application/json"),
)
