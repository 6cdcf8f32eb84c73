package service

import (
	"fmt"

	"github.com/Strob0t/TripCrew/internal/domain"
	"github.com/Strob0t/TripCrew/internal/domain/pipeline"
	"github.com/Strob0t/TripCrew/internal/domain/trip"
)

// Task is one rendered pipeline step ready for execution.
type Task struct {
	Kind           pipeline.Kind
	Agent          *Agent
	Instruction    string
	ExpectedOutput string
	DependsOn      []int // indices of earlier tasks whose output is passed as context
}

// BuildTasks renders the trip-planning pipeline for one run. The roster is
// checked before anything is built; a nil or incomplete roster yields an
// error wrapping domain.ErrConfiguration and no tasks.
func BuildTasks(roster *Roster, prefs trip.Preferences, destination string) ([]Task, error) { //nolint:gocritic // hugeParam: preferences are immutable values
	return buildTasks(roster, pipeline.TripPlanning(), prefs, destination)
}

func buildTasks(roster *Roster, tmpl pipeline.Template, prefs trip.Preferences, destination string) ([]Task, error) { //nolint:gocritic // hugeParam
	if err := roster.check(); err != nil {
		return nil, err
	}
	if err := tmpl.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline template: %w: %w", domain.ErrConfiguration, err)
	}

	vars := pipeline.NewVars(&prefs, destination)
	tasks := make([]Task, 0, len(tmpl.Steps))
	for i := range tmpl.Steps {
		step := &tmpl.Steps[i]
		instruction, expected, err := step.Render(vars)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w: %w", step.Kind, domain.ErrConfiguration, err)
		}
		tasks = append(tasks, Task{
			Kind:           step.Kind,
			Agent:          roster.Agent(step.Agent),
			Instruction:    instruction,
			ExpectedOutput: expected,
			DependsOn:      append([]int(nil), step.DependsOn...),
		})
	}
	return tasks, nil
}
