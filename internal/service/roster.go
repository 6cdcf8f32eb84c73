// Package service contains application services.
package service

import (
	"fmt"
	"log/slog"

	"github.com/Strob0t/TripCrew/internal/domain"
	"github.com/Strob0t/TripCrew/internal/domain/agent"
	"github.com/Strob0t/TripCrew/internal/port/llm"
)

// Agent is a crew persona bound to the language-model client it speaks through.
type Agent struct {
	Spec   agent.Spec
	Client llm.Client
}

// SystemPrompt renders the persona sent as the system message of every call.
func (a *Agent) SystemPrompt() string {
	return fmt.Sprintf("You are %s. %s\nYour personal goal is: %s", a.Spec.Role, a.Spec.Backstory, a.Spec.Goal)
}

// Roster is the four-agent crew of one run.
type Roster struct {
	CitySelector  *Agent
	LocalExpert   *Agent
	TravelPlanner *Agent
	BudgetManager *Agent
}

// BuildRoster binds the four definitions to client. All agents share the
// client, which is read-only after construction.
func BuildRoster(client llm.Client, defs agent.Definitions) *Roster { //nolint:gocritic // hugeParam: definitions are copied per run
	bind := func(s agent.Spec) *Agent {
		a := &Agent{Spec: s, Client: client}
		slog.Info("agent created", "key", s.Key, "role", s.Role)
		return a
	}
	return &Roster{
		CitySelector:  bind(defs.CitySelector),
		LocalExpert:   bind(defs.LocalExpert),
		TravelPlanner: bind(defs.TravelPlanner),
		BudgetManager: bind(defs.BudgetManager),
	}
}

// Agent returns the agent occupying seat k, or nil.
func (r *Roster) Agent(k agent.Key) *Agent {
	switch k {
	case agent.KeyCitySelector:
		return r.CitySelector
	case agent.KeyLocalExpert:
		return r.LocalExpert
	case agent.KeyTravelPlanner:
		return r.TravelPlanner
	case agent.KeyBudgetManager:
		return r.BudgetManager
	}
	return nil
}

// check reports a configuration error when the roster is nil or a seat is
// empty or unbound.
func (r *Roster) check() error {
	if r == nil {
		return fmt.Errorf("roster is nil: %w", domain.ErrConfiguration)
	}
	for _, k := range agent.Keys {
		a := r.Agent(k)
		if a == nil {
			return fmt.Errorf("roster is missing agent %s: %w", k, domain.ErrConfiguration)
		}
		if a.Client == nil {
			return fmt.Errorf("agent %s has no llm client: %w", k, domain.ErrConfiguration)
		}
	}
	return nil
}
