package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	cfotel "github.com/Strob0t/TripCrew/internal/adapter/otel"
	"github.com/Strob0t/TripCrew/internal/domain"
	"github.com/Strob0t/TripCrew/internal/domain/agent"
	"github.com/Strob0t/TripCrew/internal/domain/pipeline"
	"github.com/Strob0t/TripCrew/internal/domain/run"
	"github.com/Strob0t/TripCrew/internal/domain/trip"
	"github.com/Strob0t/TripCrew/internal/logger"
	"github.com/Strob0t/TripCrew/internal/port/broadcast"
	"github.com/Strob0t/TripCrew/internal/port/llm"
)

// ExecutionError reports the task whose model call failed. It matches
// domain.ErrExecution and the underlying cause with errors.Is.
type ExecutionError struct {
	Index int
	Task  pipeline.Kind
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("task %d (%s): %v", e.Index, e.Task, e.Err)
}

func (e *ExecutionError) Unwrap() []error {
	return []error{domain.ErrExecution, e.Err}
}

// Executor runs rendered tasks and returns one output per completed task,
// in task order.
type Executor interface {
	Execute(ctx context.Context, tasks []Task) ([]run.TaskOutput, error)
}

// SequentialExecutor runs tasks strictly one after another, each as a single
// blocking model call. It never retries.
type SequentialExecutor struct {
	hub broadcast.Broadcaster
}

// NewSequentialExecutor creates an executor that reports task progress to hub.
func NewSequentialExecutor(hub broadcast.Broadcaster) *SequentialExecutor {
	if hub == nil {
		hub = broadcast.Nop{}
	}
	return &SequentialExecutor{hub: hub}
}

// Execute stops at the first failing task and discards earlier outputs.
func (e *SequentialExecutor) Execute(ctx context.Context, tasks []Task) ([]run.TaskOutput, error) {
	runID := logger.RunID(ctx)
	outputs := make([]run.TaskOutput, 0, len(tasks))

	for i := range tasks {
		t := &tasks[i]
		ev := broadcast.TaskEvent{RunID: runID, Index: i, Total: len(tasks), Kind: string(t.Kind), Agent: t.Agent.Spec.Role}
		e.hub.BroadcastEvent(ctx, broadcast.EventTaskStarted, ev)

		taskCtx, span := cfotel.StartTaskSpan(ctx, i, string(t.Kind), t.Agent.Spec.Role)
		start := time.Now()
		out, err := t.Agent.Client.Complete(taskCtx, llm.Request{
			System: t.Agent.SystemPrompt(),
			Prompt: composePrompt(t, outputs),
		})
		cfotel.EndSpan(span, err)
		if err != nil {
			slog.ErrorContext(ctx, "task failed", "index", i, "kind", t.Kind, "error", err)
			return nil, &ExecutionError{Index: i, Task: t.Kind, Err: err}
		}

		slog.InfoContext(ctx, "task completed",
			"index", i, "kind", t.Kind, "agent", t.Agent.Spec.Role,
			"duration_ms", time.Since(start).Milliseconds(), "output_bytes", len(out))
		outputs = append(outputs, run.TaskOutput{Raw: out})
		e.hub.BroadcastEvent(ctx, broadcast.EventTaskCompleted, ev)
	}
	return outputs, nil
}

// composePrompt joins the task instruction, its expected output and the raw
// output of every dependency.
func composePrompt(t *Task, done []run.TaskOutput) string {
	var b strings.Builder
	b.WriteString(t.Instruction)
	if t.ExpectedOutput != "" {
		b.WriteString("\n\nExpected output: ")
		b.WriteString(t.ExpectedOutput)
	}
	wrote := false
	for _, dep := range t.DependsOn {
		if dep < 0 || dep >= len(done) {
			continue
		}
		if !wrote {
			b.WriteString("\n\nContext from earlier tasks:")
			wrote = true
		}
		fmt.Fprintf(&b, "\n\n--- %s ---\n%s", pipeline.Order[dep], done[dep].Raw)
	}
	return b.String()
}

// CrewService assembles a fresh roster and task list for every run and
// executes them against one shared model client.
type CrewService struct {
	client      llm.Client
	defs        agent.Definitions
	destination string
	exec        Executor
}

// NewCrewService creates a CrewService. A nil executor runs tasks
// sequentially without progress events.
func NewCrewService(client llm.Client, defs agent.Definitions, destination string, exec Executor) *CrewService { //nolint:gocritic // hugeParam
	if exec == nil {
		exec = NewSequentialExecutor(nil)
	}
	return &CrewService{client: client, defs: defs, destination: destination, exec: exec}
}

// Provider names the model client the crew speaks through.
func (s *CrewService) Provider() string {
	if s.client == nil {
		return ""
	}
	return s.client.Name()
}

// Destination is the city the research, itinerary and budget tasks target.
func (s *CrewService) Destination() string { return s.destination }

// Run executes the four-task pipeline for prefs. On success the four
// sections are returned, with placeholders for any task that produced no
// output. A configuration problem wraps domain.ErrConfiguration; a failed
// model call is returned as *ExecutionError and no result is produced.
func (s *CrewService) Run(ctx context.Context, prefs trip.Preferences) (*run.Result, error) { //nolint:gocritic // hugeParam
	var roster *Roster
	if s.client != nil {
		roster = BuildRoster(s.client, s.defs)
	}
	tasks, err := BuildTasks(roster, prefs, s.destination)
	if err != nil {
		return nil, err
	}

	outputs, err := s.exec.Execute(ctx, tasks)
	if err != nil {
		return nil, err
	}

	result := run.FromOutputs(outputs)
	return &result, nil
}
