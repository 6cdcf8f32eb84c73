// Package pipeline defines the fixed four-step trip-planning pipeline.
// A Template lists the steps in execution order; each step names the crew
// seat that performs it, its instruction template and the indices of the
// earlier steps whose output it consumes.
package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"text/template"

	"github.com/Strob0t/TripCrew/internal/domain/agent"
	"github.com/Strob0t/TripCrew/internal/domain/trip"
)

// Kind identifies a pipeline step.
type Kind string

const (
	KindCitySelection     Kind = "city_selection"
	KindCityResearch      Kind = "city_research"
	KindItineraryCreation Kind = "itinerary_creation"
	KindBudgetPlanning    Kind = "budget_planning"
)

// Order is the fixed execution order.
var Order = []Kind{KindCitySelection, KindCityResearch, KindItineraryCreation, KindBudgetPlanning}

var (
	ErrStepCount        = errors.New("pipeline must have exactly four steps")
	ErrStepOrder        = errors.New("pipeline steps are out of order")
	ErrStepMissingAgent = errors.New("step agent is invalid")
	ErrStepInstruction  = errors.New("step instruction is required")
	ErrDAGCycle         = errors.New("step dependencies contain a cycle")
	ErrDAGInvalidRef    = errors.New("step dependency references invalid index")
	ErrDAGForwardRef    = errors.New("step depends on a later step")
)

// Step is one unit of work in the pipeline.
type Step struct {
	Kind           Kind
	Agent          agent.Key
	Instruction    string // text/template over Vars
	ExpectedOutput string // text/template over Vars
	DependsOn      []int
}

// Template is the ordered list of steps.
type Template struct {
	Steps []Step
}

// Vars is the data available to instruction templates.
type Vars struct {
	TravelType  string
	Interests   string
	Season      string
	Duration    int
	Budget      string
	Destination string
}

// NewVars flattens preferences and the destination for templating.
func NewVars(p *trip.Preferences, destination string) Vars {
	return Vars{
		TravelType:  string(p.TravelType),
		Interests:   p.InterestList(),
		Season:      string(p.Season),
		Duration:    p.Duration,
		Budget:      string(p.Budget),
		Destination: destination,
	}
}

// Validate checks the template for structural correctness: the four kinds
// in fixed order, a valid seat per step, and dependencies that only point
// backwards.
func (t *Template) Validate() error {
	if len(t.Steps) != len(Order) {
		return fmt.Errorf("got %d: %w", len(t.Steps), ErrStepCount)
	}
	for i, s := range t.Steps {
		if s.Kind != Order[i] {
			return fmt.Errorf("step %d is %q, want %q: %w", i, s.Kind, Order[i], ErrStepOrder)
		}
		if !agent.ValidKey(s.Agent) {
			return fmt.Errorf("step %d: %w", i, ErrStepMissingAgent)
		}
		if s.Instruction == "" {
			return fmt.Errorf("step %d: %w", i, ErrStepInstruction)
		}
		for _, dep := range s.DependsOn {
			if dep > i {
				return fmt.Errorf("step %d depends on %d: %w", i, dep, ErrDAGForwardRef)
			}
		}
	}
	return t.validateDAG()
}

// validateDAG checks that step dependencies form a valid DAG using Kahn's algorithm.
func (t *Template) validateDAG() error {
	n := len(t.Steps)
	inDegree := make([]int, n)
	adj := make([][]int, n)

	for i, s := range t.Steps {
		for _, dep := range s.DependsOn {
			if dep < 0 || dep >= n {
				return fmt.Errorf("step %d depends on %d: %w", i, dep, ErrDAGInvalidRef)
			}
			if dep == i {
				return fmt.Errorf("step %d depends on itself: %w", i, ErrDAGCycle)
			}
			adj[dep] = append(adj[dep], i)
			inDegree[i]++
		}
	}

	queue := make([]int, 0, n)
	for i, d := range inDegree {
		if d == 0 {
			queue = append(queue, i)
		}
	}

	visited := 0
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		visited++
		for _, neighbor := range adj[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
			}
		}
	}

	if visited != n {
		return ErrDAGCycle
	}
	return nil
}

// Render fills the step's instruction and expected-output templates.
func (s *Step) Render(v Vars) (instruction, expected string, err error) {
	instruction, err = render(string(s.Kind)+".instruction", s.Instruction, v)
	if err != nil {
		return "", "", err
	}
	expected, err = render(string(s.Kind)+".expected", s.ExpectedOutput, v)
	if err != nil {
		return "", "", err
	}
	return instruction, expected, nil
}

func render(name, text string, v Vars) (string, error) {
	if text == "" {
		return "", nil
	}
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
