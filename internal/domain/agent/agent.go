// Package agent defines the role configurations of the trip-planning crew.
package agent

import (
	"errors"
	"fmt"
)

// Key identifies one seat in the crew.
type Key string

const (
	KeyCitySelector  Key = "city_selector"
	KeyLocalExpert   Key = "local_expert"
	KeyTravelPlanner Key = "travel_planner"
	KeyBudgetManager Key = "budget_manager"
)

// Keys lists the crew seats in roster order.
var Keys = []Key{KeyCitySelector, KeyLocalExpert, KeyTravelPlanner, KeyBudgetManager}

// ValidKey reports whether k is a known crew seat.
func ValidKey(k Key) bool {
	switch k {
	case KeyCitySelector, KeyLocalExpert, KeyTravelPlanner, KeyBudgetManager:
		return true
	}
	return false
}

var (
	ErrUnknownKey       = errors.New("unknown agent key")
	ErrRoleRequired     = errors.New("agent role is required")
	ErrGoalRequired     = errors.New("agent goal is required")
	ErrBackstoryMissing = errors.New("agent backstory is required")
)

// Spec is the static persona an agent plays: who it is, what it wants and
// where its knowledge comes from. It carries no state between runs.
type Spec struct {
	Key       Key    `json:"key" yaml:"key"`
	Role      string `json:"role" yaml:"role"`
	Goal      string `json:"goal" yaml:"goal"`
	Backstory string `json:"backstory" yaml:"backstory"`
}

// Validate checks that every field of the agent is set.
func (s *Spec) Validate() error {
	if !ValidKey(s.Key) {
		return fmt.Errorf("%w: %q", ErrUnknownKey, s.Key)
	}
	if s.Role == "" {
		return fmt.Errorf("%s: %w", s.Key, ErrRoleRequired)
	}
	if s.Goal == "" {
		return fmt.Errorf("%s: %w", s.Key, ErrGoalRequired)
	}
	if s.Backstory == "" {
		return fmt.Errorf("%s: %w", s.Key, ErrBackstoryMissing)
	}
	return nil
}

// Definitions holds one Spec per crew seat.
type Definitions struct {
	CitySelector  Spec
	LocalExpert   Spec
	TravelPlanner Spec
	BudgetManager Spec
}

// All returns the four specs in roster order.
func (d *Definitions) All() []Spec {
	return []Spec{d.CitySelector, d.LocalExpert, d.TravelPlanner, d.BudgetManager}
}

// Validate checks every spec.
func (d *Definitions) Validate() error {
	for _, s := range d.All() {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Override replaces the agent occupying the same seat. Empty fields in s keep
// the current value.
func (d *Definitions) Override(s Spec) error {
	var dst *Spec
	switch s.Key {
	case KeyCitySelector:
		dst = &d.CitySelector
	case KeyLocalExpert:
		dst = &d.LocalExpert
	case KeyTravelPlanner:
		dst = &d.TravelPlanner
	case KeyBudgetManager:
		dst = &d.BudgetManager
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, s.Key)
	}
	if s.Role != "" {
		dst.Role = s.Role
	}
	if s.Goal != "" {
		dst.Goal = s.Goal
	}
	if s.Backstory != "" {
		dst.Backstory = s.Backstory
	}
	return nil
}
