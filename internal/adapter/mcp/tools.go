package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/TripCrew/internal/domain"
	"github.com/Strob0t/TripCrew/internal/domain/trip"
	"github.com/Strob0t/TripCrew/internal/middleware"
)

const defaultListLimit = 20

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.planTripTool(),
		s.getTripRunTool(),
		s.listTripRunsTool(),
	)
}

func (s *Server) planTripTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("plan_trip",
		mcplib.WithDescription("Run the four-agent crew (city selection, city research, itinerary, budget) for a set of travel preferences"),
		mcplib.WithString("travel_type",
			mcplib.Required(),
			mcplib.Description("Kind of trip"),
			mcplib.Enum(enumOf(trip.TravelTypes)...),
		),
		mcplib.WithArray("interests",
			mcplib.Description("Zero or more interests"),
			mcplib.Items(map[string]any{"type": "string", "enum": trip.Interests}),
		),
		mcplib.WithString("season",
			mcplib.Required(),
			mcplib.Description("Season of travel"),
			mcplib.Enum(enumOf(trip.Seasons)...),
		),
		mcplib.WithNumber("duration",
			mcplib.Description("Trip length in days"),
			mcplib.Min(trip.MinDuration),
			mcplib.Max(trip.MaxDuration),
			mcplib.DefaultNumber(trip.DefaultDuration),
		),
		mcplib.WithString("budget",
			mcplib.Required(),
			mcplib.Description("Budget tier"),
			mcplib.Enum(enumOf(trip.Budgets)...),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handlePlanTrip,
	}
}

func (s *Server) getTripRunTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_trip_run",
		mcplib.WithDescription("Get a finished trip-planning run by ID"),
		mcplib.WithString("run_id",
			mcplib.Required(),
			mcplib.Description("The run ID to look up"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleGetTripRun,
	}
}

func (s *Server) listTripRunsTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("list_trip_runs",
		mcplib.WithDescription("List recent trip-planning runs, newest first"),
		mcplib.WithNumber("limit",
			mcplib.Description("Maximum number of runs"),
			mcplib.Min(1),
			mcplib.Max(100),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleListTripRuns,
	}
}

func (s *Server) handlePlanTrip(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Planner == nil {
		return mcplib.NewToolResultError("planner not configured"), nil
	}
	prefs, err := preferencesFromArgs(req.GetArguments())
	if err != nil {
		return mcplib.NewToolResultError(err.Error()), nil
	}
	if l := s.deps.Limiter; l != nil {
		ip := middleware.ClientIPFrom(ctx)
		if d := l.Allow(middleware.SurfaceMCP, ip); !d.Allowed {
			slog.InfoContext(ctx, "plan throttled", "surface", middleware.SurfaceMCP, "ip", ip)
			return mcplib.NewToolResultError(fmt.Sprintf("rate limit exceeded, retry in %ds", d.RetryAfterSeconds())), nil
		}
	}
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	rec, err := s.deps.Planner.Plan(ctx, "", prefs)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return mcplib.NewToolResultError(err.Error()), nil
		}
		return mcplib.NewToolResultError("trip planning failed"), nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal run", err), nil
	}
	return toolResultJSON(string(data)), nil
}

func (s *Server) handleGetTripRun(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Runs == nil {
		return mcplib.NewToolResultError("run reader not configured"), nil
	}
	runID, ok := req.GetArguments()["run_id"].(string)
	if !ok || runID == "" {
		return mcplib.NewToolResultError("run_id is required"), nil
	}
	rec, err := s.deps.Runs.Get(ctx, runID)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(fmt.Sprintf("failed to get run %s", runID), err), nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal run", err), nil
	}
	return toolResultJSON(string(data)), nil
}

func (s *Server) handleListTripRuns(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Runs == nil {
		return mcplib.NewToolResultError("run reader not configured"), nil
	}
	limit := defaultListLimit
	if v, ok := req.GetArguments()["limit"].(float64); ok && v >= 1 {
		limit = int(v)
	}
	recs, err := s.deps.Runs.List(ctx, limit)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to list runs", err), nil
	}
	data, err := json.Marshal(recs)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal runs", err), nil
	}
	return toolResultJSON(string(data)), nil
}

// preferencesFromArgs decodes tool arguments; missing duration takes the default.
func preferencesFromArgs(args map[string]any) (trip.Preferences, error) {
	p := trip.Defaults()

	str := func(key string) (string, error) {
		v, ok := args[key].(string)
		if !ok || v == "" {
			return "", fmt.Errorf("%s is required", key)
		}
		return v, nil
	}

	tt, err := str("travel_type")
	if err != nil {
		return p, err
	}
	season, err := str("season")
	if err != nil {
		return p, err
	}
	budget, err := str("budget")
	if err != nil {
		return p, err
	}
	p.TravelType = trip.TravelType(tt)
	p.Season = trip.Season(season)
	p.Budget = trip.Budget(budget)

	if d, ok := args["duration"].(float64); ok {
		if d != float64(int(d)) {
			return p, fmt.Errorf("duration must be a whole number of days")
		}
		p.Duration = int(d)
	}

	if raw, ok := args["interests"]; ok && raw != nil {
		list, ok := raw.([]any)
		if !ok {
			return p, fmt.Errorf("interests must be an array of strings")
		}
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return p, fmt.Errorf("interests must be an array of strings")
			}
			p.Interests = append(p.Interests, s)
		}
	}
	return p, nil
}

func enumOf[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func toolResultJSON(text string) *mcplib.CallToolResult {
	return mcplib.NewToolResultText(text)
}
