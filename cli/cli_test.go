package cli_test

import (
	"context"
	"strings"
	"testing"

	icl "github.com/yjcyxky/factotum/internal/cli"
)

const linearDoc = `{
  "name": "linear",
  "tasks": [
    {"name": "a", "executor": "shell", "command": "true", "on_result": {"continue_job": [0]}},
    {"name": "b", "depends_on": ["a"], "executor": "shell", "command": "true", "on_result": {"continue_job": [0]}}
  ]
}`

func TestDeterministicInvocation_IdenticalRunsIdenticalExitCode(t *testing.T) {
	inv := icl.Invocation{JobDocument: []byte(linearDoc), DryRun: true}

	res1, err1 := icl.Execute(context.Background(), inv)
	if err1 != nil {
		t.Fatalf("run1 err: %v", err1)
	}
	res2, err2 := icl.Execute(context.Background(), inv)
	if err2 != nil {
		t.Fatalf("run2 err: %v", err2)
	}
	if res1.ExitCode != icl.ExitSuccess || res2.ExitCode != icl.ExitSuccess {
		t.Fatalf("expected both runs to succeed, got %d and %d", res1.ExitCode, res2.ExitCode)
	}
}

func TestExitCodeStability_UnrecognizedReturnCodeIsStable(t *testing.T) {
	doc := `{
  "name": "failing",
  "tasks": [
    {"name": "t1", "executor": "shell", "command": "exit 9", "on_result": {"continue_job": [0]}}
  ]
}`
	inv := icl.Invocation{JobDocument: []byte(doc)}

	res1, _ := icl.Execute(context.Background(), inv)
	res2, _ := icl.Execute(context.Background(), inv)
	if res1.ExitCode != icl.ExitTaskFailure || res2.ExitCode != icl.ExitTaskFailure {
		t.Fatalf("expected stable task-failure exit code; got %d and %d", res1.ExitCode, res2.ExitCode)
	}
}

func TestInvalidInvocation_DeterministicAndExplainable(t *testing.T) {
	inv := icl.Invocation{JobDocument: []byte(`{"tasks": []}`)}

	res1, err1 := icl.Execute(context.Background(), inv)
	res2, err2 := icl.Execute(context.Background(), inv)

	if res1.ExitCode != icl.ExitLoadError || res2.ExitCode != icl.ExitLoadError {
		t.Fatalf("expected exit %d, got %d and %d", icl.ExitLoadError, res1.ExitCode, res2.ExitCode)
	}
	if err1 != nil || err2 != nil {
		t.Fatalf("a malformed document is reported via Result, not error: %v / %v", err1, err2)
	}
	if res1.Summary != res2.Summary {
		t.Fatalf("expected deterministic error message")
	}
}

func TestStartPointRejection_InadmissibleStartIsStableExit3(t *testing.T) {
	doc := `{
  "name": "diamond",
  "tasks": [
    {"name": "a", "executor": "shell", "command": "true", "on_result": {"continue_job": [0]}},
    {"name": "b", "depends_on": ["a"], "executor": "shell", "command": "true", "on_result": {"continue_job": [0]}},
    {"name": "c", "depends_on": ["a"], "executor": "shell", "command": "true", "on_result": {"continue_job": [0]}},
    {"name": "d", "depends_on": ["b", "c"], "executor": "shell", "command": "true", "on_result": {"continue_job": [0]}}
  ]
}`
	inv := icl.Invocation{JobDocument: []byte(doc), DryRun: true, Start: "b"}

	res1, err1 := icl.Execute(context.Background(), inv)
	res2, err2 := icl.Execute(context.Background(), inv)
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected error: %v / %v", err1, err2)
	}
	if res1.ExitCode != icl.ExitOther || res2.ExitCode != icl.ExitOther {
		t.Fatalf("expected exit %d, got %d and %d", icl.ExitOther, res1.ExitCode, res2.ExitCode)
	}
}

func TestZeroTaskJob_RunsSuccessfullyWithZeroOverZero(t *testing.T) {
	inv := icl.Invocation{JobDocument: []byte(`{"name": "empty", "tasks": []}`)}

	res, err := icl.Execute(context.Background(), inv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != icl.ExitSuccess {
		t.Fatalf("expected ExitSuccess, got %d: %s", res.ExitCode, res.Summary)
	}
	if !strings.Contains(res.Summary, "0/0 tasks run") {
		t.Fatalf("expected summary to report 0/0 tasks run, got %q", res.Summary)
	}
}

func TestTerminateJob_SkipsDescendantAndEarlyFinishes(t *testing.T) {
	doc := `{
  "name": "early-finish",
  "tasks": [
    {"name": "a", "executor": "shell", "command": "true", "on_result": {"terminate_job": [0]}},
    {"name": "b", "depends_on": ["a"], "executor": "shell", "command": "true", "on_result": {"continue_job": [0]}}
  ]
}`
	res, err := icl.Execute(context.Background(), icl.Invocation{JobDocument: []byte(doc)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != icl.ExitSuccess {
		t.Fatalf("an early finish is still a successful exit, got %d: %s", res.ExitCode, res.Summary)
	}
	if !strings.Contains(res.Summary, "b: skipped") {
		t.Fatalf("expected descendant b reported skipped, got %q", res.Summary)
	}
}
