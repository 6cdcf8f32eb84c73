package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/Strob0t/TripCrew/internal/domain/trip"
)

// registerResources registers all MCP resources on the server.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			"tripcrew://options",
			"Preference Options",
			mcplib.WithResourceDescription("Allowed values for every plan_trip argument"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleOptionsResource,
	)

	s.mcpServer.AddResource(
		mcplib.NewResource(
			"tripcrew://runs/recent",
			"Recent Runs",
			mcplib.WithResourceDescription("The most recent trip-planning runs"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleRecentRunsResource,
	)
}

type options struct {
	TravelTypes     []trip.TravelType `json:"travel_types"`
	Interests       []string          `json:"interests"`
	Seasons         []trip.Season     `json:"seasons"`
	Budgets         []trip.Budget     `json:"budgets"`
	MinDuration     int               `json:"min_duration"`
	MaxDuration     int               `json:"max_duration"`
	DefaultDuration int               `json:"default_duration"`
}

func (s *Server) handleOptionsResource(_ context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	data, err := json.Marshal(options{
		TravelTypes:     trip.TravelTypes,
		Interests:       trip.Interests,
		Seasons:         trip.Seasons,
		Budgets:         trip.Budgets,
		MinDuration:     trip.MinDuration,
		MaxDuration:     trip.MaxDuration,
		DefaultDuration: trip.DefaultDuration,
	})
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, string(data)), nil
}

func (s *Server) handleRecentRunsResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Runs == nil {
		return jsonContents(req.Params.URI, `{"error":"run reader not configured"}`), nil
	}
	recs, err := s.deps.Runs.List(ctx, defaultListLimit)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(recs)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, string(data)), nil
}

func jsonContents(uri, text string) []mcplib.ResourceContents {
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		},
	}
}
