package loader

import "testing"

const simpleDoc = `{
  "name": "demo",
  "tags": {"env": "test"},
  "tasks": [
    {
      "name": "A",
      "depends_on": [],
      "executor": "shell",
      "command": "echo {{greeting}}",
      "arguments": ["{{target}}"],
      "on_result": {"continue_job": [0], "terminate_job": []}
    },
    {
      "name": "B",
      "depends_on": ["A"],
      "executor": "shell",
      "command": "echo done",
      "arguments": [],
      "on_result": {"continue_job": [0], "terminate_job": [3]}
    }
  ]
}`

func TestLoad_RendersTemplatesAndBuildsGraph(t *testing.T) {
	j, g, err := Load([]byte(simpleDoc), map[string]string{"greeting": "hi", "target": "world"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, ok := j.Task("A")
	if !ok {
		t.Fatalf("expected task A")
	}
	if a.Command != "echo hi" {
		t.Fatalf("expected rendered command, got %q", a.Command)
	}
	if a.Arguments[0] != "world" {
		t.Fatalf("expected rendered argument, got %q", a.Arguments[0])
	}
	if !g.HasTask("B") {
		t.Fatalf("expected task B in graph")
	}
}

func TestLoad_UnboundPlaceholderLeftLiteral(t *testing.T) {
	j, _, err := Load([]byte(simpleDoc), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, _ := j.Task("A")
	if a.Command != "echo {{greeting}}" {
		t.Fatalf("expected literal placeholder, got %q", a.Command)
	}
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	bad := `{"name": "demo", "bogus_field": true, "tasks": []}`
	if _, _, err := Load([]byte(bad), nil); err == nil {
		t.Fatalf("expected error for unknown top-level field")
	}
}

func TestLoad_AcceptsEmptyTasks(t *testing.T) {
	doc := `{"name": "demo", "tasks": []}`
	j, g, err := Load([]byte(doc), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(j.Tasks()) != 0 {
		t.Fatalf("expected zero tasks, got %d", len(j.Tasks()))
	}
	if len(g.Names()) != 0 {
		t.Fatalf("expected empty graph, got %v", g.Names())
	}
}

func TestLoad_RejectsOverlappingResultMapping(t *testing.T) {
	bad := `{
		"name": "demo",
		"tasks": [
			{"name": "A", "executor": "shell", "command": "x", "on_result": {"continue_job": [0], "terminate_job": [0]}}
		]
	}`
	if _, _, err := Load([]byte(bad), nil); err == nil {
		t.Fatalf("expected error for overlapping on_result sets")
	}
}

func TestLoad_RejectsUnknownDependency(t *testing.T) {
	bad := `{
		"name": "demo",
		"tasks": [
			{"name": "A", "depends_on": ["ghost"], "executor": "shell", "command": "x", "on_result": {"continue_job": [0]}}
		]
	}`
	if _, _, err := Load([]byte(bad), nil); err == nil {
		t.Fatalf("expected error for unknown dependency")
	}
}

func TestLoad_RejectsTrailingData(t *testing.T) {
	bad := simpleDoc + `{"extra": true}`
	if _, _, err := Load([]byte(bad), nil); err == nil {
		t.Fatalf("expected error for trailing data")
	}
}
