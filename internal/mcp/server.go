package mcp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
// It returns 0 when no user was injected.
func UserIDFromContext(ctx context.Context) int64 {
	if id, ok := ctx.Value(userIDKey).(int64); ok {
		return id
	}
	return 0
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("BasicFit", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("BasicFit training server. Query workout sessions, progression trackers, next-session recommendations and training statistics. All data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetRecommendation, Handler: h.getRecommendation},
		server.ServerTool{Tool: toolGetSession, Handler: h.getSession},
		server.ServerTool{Tool: toolListSessions, Handler: h.listSessions},
		server.ServerTool{Tool: toolGetProgressions, Handler: h.getProgressions},
		server.ServerTool{Tool: toolGetUserStats, Handler: h.getUserStats},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resMachineCatalog, Handler: h.machineCatalog},
		server.ServerResource{Resource: resTrainingModes, Handler: h.trainingModes},
		server.ServerResource{Resource: resRecentSessions, Handler: h.recentSessions},
	)

	return s
}

// NewHTTPHandler serves s over streamable HTTP. userID resolves the caller
// of each request, usually from values stored by upstream middleware.
func NewHTTPHandler(s *server.MCPServer, userID func(context.Context) int64) http.Handler {
	return server.NewStreamableHTTPServer(s,
		server.WithStateLess(true),
		server.WithHTTPContextFunc(func(ctx context.Context, _ *http.Request) context.Context {
			return WithUserID(ctx, userID(ctx))
		}),
	)
}

// ServeStdio serves s on stdin/stdout with every call scoped to userID.
func ServeStdio(s *server.MCPServer, userID int64) error {
	return server.ServeStdio(s, server.WithStdioContextFunc(func(ctx context.Context) context.Context {
		return WithUserID(ctx, userID)
	}))
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resMachineCatalog = mcp.NewResource(
	"basicfit://machines",
	"Machine Catalog",
	mcp.WithResourceDescription("Every gym machine with its category, weight increment and load limits"),
	mcp.WithMIMEType("application/json"),
)

var resTrainingModes = mcp.NewResource(
	"basicfit://training_modes",
	"Training Modes",
	mcp.WithResourceDescription("Training modes with their recommended sets, rep range and rest"),
	mcp.WithMIMEType("application/json"),
)

var resRecentSessions = mcp.NewResource(
	"basicfit://recent_sessions",
	"Recent Sessions",
	mcp.WithResourceDescription("The 20 most recent workout sessions"),
	mcp.WithMIMEType("application/json"),
)
