package dotgraph

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/yjcyxky/factotum/internal/job"
)

func TestRender_IncludesTasksAndEdges(t *testing.T) {
	tasks := []*job.Task{
		{Name: "A"},
		{Name: "B", DependsOn: []string{"A"}},
	}
	j := job.NewJob("demo", json.RawMessage(`{}`), nil, tasks)

	dot := Render(j)
	if !strings.Contains(dot, `digraph "demo"`) {
		t.Fatalf("expected digraph header, got %q", dot)
	}
	if !strings.Contains(dot, `"A" -> "B"`) {
		t.Fatalf("expected edge A -> B, got %q", dot)
	}
}
