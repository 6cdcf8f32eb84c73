// Package mcp exposes trip planning as Model Context Protocol tools over
// streamable HTTP.
package mcp

import (
	"context"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/TripCrew/internal/domain/run"
	"github.com/Strob0t/TripCrew/internal/domain/trip"
	"github.com/Strob0t/TripCrew/internal/middleware"
)

// ServerConfig holds the MCP server identity and access key.
type ServerConfig struct {
	Name    string
	Version string
	APIKey  string // empty disables auth
	// RunTimeout bounds one plan_trip call; zero leaves it to the client.
	RunTimeout time.Duration
}

// Planner runs the crew for one set of preferences.
type Planner interface {
	Plan(ctx context.Context, id string, prefs trip.Preferences) (*run.Record, error)
}

// RunReader reads finished runs.
type RunReader interface {
	Get(ctx context.Context, id string) (*run.Record, error)
	List(ctx context.Context, limit int) ([]run.Record, error)
}

// ServerDeps are the services the tools call into. Nil fields make the
// matching tools answer with an error result.
type ServerDeps struct {
	Planner Planner
	Runs    RunReader
	// Limiter throttles plan_trip per client IP. Nil admits every call.
	Limiter *middleware.RateLimiter
}

// Server wraps an mcp-go server with TripCrew's tools and resources.
type Server struct {
	cfg       ServerConfig
	deps      ServerDeps
	mcpServer *mcpserver.MCPServer
}

// NewServer creates the MCP server and registers all tools and resources.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithResourceCapabilities(false, false),
			mcpserver.WithRecovery(),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Handler returns the streamable HTTP endpoint, guarded by the API key.
// The caller's address travels in the context so tools can be throttled.
func (s *Server) Handler() http.Handler {
	return AuthMiddleware(s.cfg.APIKey, middleware.WithClientIP(mcpserver.NewStreamableHTTPServer(s.mcpServer)))
}
