// Package dotgraph emits a job's dependency graph as a DOT file, a pure
// string serialization with no role in execution semantics.
package dotgraph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yjcyxky/factotum/internal/job"
)

// Render produces a DOT digraph naming every task and, for each edge A->B
// (B depends on A), an "A -> B" arrow, matching the graph model's edge
// direction.
func Render(j *job.Job) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("digraph %q {\n", j.Name))

	tasks := j.Tasks()
	names := make([]string, 0, len(tasks))
	byName := make(map[string]*job.Task, len(tasks))
	for _, t := range tasks {
		names = append(names, t.Name)
		byName[t.Name] = t
	}
	sort.Strings(names)

	for _, n := range names {
		b.WriteString(fmt.Sprintf("  %q;\n", n))
	}

	var edges []string
	for _, n := range names {
		deps := append([]string(nil), byName[n].DependsOn...)
		sort.Strings(deps)
		for _, dep := range deps {
			edges = append(edges, fmt.Sprintf("  %q -> %q;\n", dep, n))
		}
	}
	sort.Strings(edges)
	for _, e := range edges {
		b.WriteString(e)
	}

	b.WriteString("}\n")
	return b.String()
}
