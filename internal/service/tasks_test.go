package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Strob0t/TripCrew/internal/adapter/fakellm"
	"github.com/Strob0t/TripCrew/internal/domain"
	"github.com/Strob0t/TripCrew/internal/domain/agent"
	"github.com/Strob0t/TripCrew/internal/domain/pipeline"
)

func TestBuildTasks_FixedOrder(t *testing.T) {
	r := BuildRoster(fakellm.New(), agent.Builtin())
	tasks, err := BuildTasks(r, samplePrefs(), "Paris")
	require.NoError(t, err)
	require.Len(t, tasks, 4)

	for i, kind := range pipeline.Order {
		assert.Equal(t, kind, tasks[i].Kind)
	}
	assert.Same(t, r.CitySelector, tasks[0].Agent)
	assert.Same(t, r.LocalExpert, tasks[1].Agent)
	assert.Same(t, r.TravelPlanner, tasks[2].Agent)
	assert.Same(t, r.BudgetManager, tasks[3].Agent)

	assert.Empty(t, tasks[0].DependsOn)
	assert.Equal(t, []int{2}, tasks[3].DependsOn)
}

func TestBuildTasks_EmbedsInputs(t *testing.T) {
	r := BuildRoster(fakellm.New(), agent.Builtin())
	tasks, err := BuildTasks(r, samplePrefs(), "Lisbon")
	require.NoError(t, err)

	sel := tasks[0].Instruction
	assert.Contains(t, sel, "Cultural")
	assert.Contains(t, sel, "History, Food")
	assert.Contains(t, sel, "Spring")
	assert.Contains(t, sel, "5 days")
	assert.Contains(t, sel, "$1000-$2000")

	assert.Contains(t, tasks[1].Instruction, "Lisbon")
	assert.Contains(t, tasks[2].Instruction, "Create a 5-day itinerary for Lisbon.")
	assert.Contains(t, tasks[3].Instruction, "$1000-$2000")
	assert.NotEmpty(t, tasks[2].ExpectedOutput)
}

func TestBuildTasks_NilRoster(t *testing.T) {
	tasks, err := BuildTasks(nil, samplePrefs(), "Paris")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
	assert.Nil(t, tasks)
}

func TestBuildTasks_MissingAgent(t *testing.T) {
	r := BuildRoster(fakellm.New(), agent.Builtin())
	r.BudgetManager = nil
	tasks, err := BuildTasks(r, samplePrefs(), "Paris")
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
	assert.Nil(t, tasks)
}

func TestBuildTasks_BrokenTemplate(t *testing.T) {
	r := BuildRoster(fakellm.New(), agent.Builtin())
	tmpl := pipeline.TripPlanning()
	tmpl.Steps[1].Instruction = "Research {{.Country}}"

	_, err := buildTasks(r, tmpl, samplePrefs(), "Paris")
	assert.True(t, errors.Is(err, domain.ErrConfiguration))

	tmpl = pipeline.TripPlanning()
	tmpl.Steps[0].DependsOn = []int{3}
	_, err = buildTasks(r, tmpl, samplePrefs(), "Paris")
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
	assert.True(t, errors.Is(err, pipeline.ErrDAGForwardRef))
}
