package bootstrap

import (
	"context"
	stderrors "errors"
	"testing"

	platformerrors "lobsterboard-server-go/internal/platform/errors"
)

func TestInitGraphOrder(t *testing.T) {
	steps := InitGraph()
	want := []string{
		"config:load",
		"logging:init-provider",
		"storage:init-documents",
		"services:init",
	}
	if len(steps) != len(want) {
		t.Fatalf("unexpected step count: got %d want %d", len(steps), len(want))
	}
	for i, step := range steps {
		if step.ID != want[i] {
			t.Fatalf("step %d mismatch: got %s want %s", i, step.ID, want[i])
		}
	}
}

func TestExecuteInitGraph(t *testing.T) {
	t.Chdir(t.TempDir())

	state := &appState{}
	if err := executeInitSteps(context.Background(), InitGraph(), state); err != nil {
		t.Fatalf("executeInitSteps failed: %v", err)
	}
	if state.config == nil {
		t.Fatal("config is nil after init")
	}
	if state.logger == nil {
		t.Fatal("logger is nil after init")
	}
	if state.configDoc == nil || state.todosDoc == nil || state.notesDoc == nil {
		t.Fatal("data documents not initialised")
	}
	if state.secrets == nil || state.gate == nil {
		t.Fatal("secrets store or auth gate not initialised")
	}
	if state.client == nil || state.releases == nil || state.usage == nil {
		t.Fatal("proxy services not initialised")
	}
	if state.collector == nil || state.hub == nil || state.templates == nil {
		t.Fatal("stats or template services not initialised")
	}
	state.hub.Close()
	state.logger.Close()
}

func TestExecuteInitStepsUnsatisfiedDependency(t *testing.T) {
	steps := []initStep{
		{
			ID:        "late",
			DependsOn: []string{"never-ran"},
			Execute:   func(context.Context, *appState) error { return nil },
		},
	}
	err := executeInitSteps(context.Background(), steps, &appState{})
	if err == nil {
		t.Fatal("expected dependency error")
	}
	var typed *platformerrors.Error
	if !stderrors.As(err, &typed) {
		t.Fatalf("expected typed error, got %T", err)
	}
	if typed.Op != "late" {
		t.Fatalf("unexpected op: %s", typed.Op)
	}
}

func TestExecuteInitStepsNilState(t *testing.T) {
	if err := executeInitSteps(context.Background(), InitGraph(), nil); err == nil {
		t.Fatal("expected error for nil state")
	}
}
