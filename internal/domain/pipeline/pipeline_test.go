package pipeline

import (
	"errors"
	"strings"
	"testing"

	"github.com/Strob0t/TripCrew/internal/domain/trip"
)

func TestTripPlanning_Valid(t *testing.T) {
	tmpl := TripPlanning()
	if err := tmpl.Validate(); err != nil {
		t.Fatalf("builtin pipeline invalid: %v", err)
	}
	for i, s := range tmpl.Steps {
		if s.Kind != Order[i] {
			t.Errorf("step %d: got %q, want %q", i, s.Kind, Order[i])
		}
	}
	if deps := tmpl.Steps[3].DependsOn; len(deps) != 1 || deps[0] != 2 {
		t.Errorf("budget step depends on %v, want [2]", deps)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Template)
		want   error
	}{
		{"too few steps", func(tm *Template) { tm.Steps = tm.Steps[:3] }, ErrStepCount},
		{"swapped order", func(tm *Template) { tm.Steps[0], tm.Steps[1] = tm.Steps[1], tm.Steps[0] }, ErrStepOrder},
		{"bad agent", func(tm *Template) { tm.Steps[1].Agent = "ghost" }, ErrStepMissingAgent},
		{"empty instruction", func(tm *Template) { tm.Steps[2].Instruction = "" }, ErrStepInstruction},
		{"forward ref", func(tm *Template) { tm.Steps[1].DependsOn = []int{3} }, ErrDAGForwardRef},
		{"self ref", func(tm *Template) { tm.Steps[2].DependsOn = []int{2} }, ErrDAGCycle},
		{"negative ref", func(tm *Template) { tm.Steps[3].DependsOn = []int{-1} }, ErrDAGInvalidRef},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := TripPlanning()
			tt.mutate(&tmpl)
			err := tmpl.Validate()
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRender_EmbedsPreferences(t *testing.T) {
	prefs := trip.Preferences{
		TravelType: trip.TravelLeisure,
		Interests:  []string{"History", "Food"},
		Season:     trip.SeasonSummer,
		Duration:   7,
		Budget:     trip.BudgetMedium,
	}
	v := NewVars(&prefs, "Paris")
	tmpl := TripPlanning()

	instr, expected, err := tmpl.Steps[0].Render(v)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Leisure", "History, Food", "Summer", "7 days", "$1000-$2000"} {
		if !strings.Contains(instr, want) {
			t.Errorf("city selection instruction missing %q", want)
		}
	}
	if expected == "" {
		t.Error("expected output should be rendered")
	}

	instr, expected, err = tmpl.Steps[1].Render(v)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(instr, "Paris") || !strings.Contains(expected, "Paris") {
		t.Errorf("research step should embed destination: %q / %q", instr, expected)
	}

	instr, _, err = tmpl.Steps[2].Render(v)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(instr, "7-day itinerary for Paris") {
		t.Errorf("itinerary instruction: %q", instr)
	}
}

func TestRender_UnknownField(t *testing.T) {
	s := Step{Kind: KindCityResearch, Instruction: "Visit {{.Planet}}"}
	if _, _, err := s.Render(Vars{}); err == nil {
		t.Fatal("expected error for unknown template field")
	}
}
