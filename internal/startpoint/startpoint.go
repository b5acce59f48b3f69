// Package startpoint decides whether execution may begin at a requested
// task without triggering any prior work.
package startpoint

import (
	"github.com/yjcyxky/factotum/internal/graph"
)

// PlanError reports that the start task is missing or inadmissible. It is
// reported before any task runs.
type PlanError struct {
	Msg string
}

func (e *PlanError) Error() string { return e.Msg }

// Resolve returns the roots execution should begin from. An empty start
// returns every root in g. A non-empty start that names a task which would
// trigger upstream work, or that does not exist, returns a *PlanError.
func Resolve(g *graph.Graph, start string) ([]string, error) {
	if start == "" {
		return roots(g), nil
	}
	if !g.HasTask(start) {
		return nil, &PlanError{Msg: "the task specified could not be found"}
	}
	bad, err := g.WouldTriggerUpstream(start)
	if err != nil {
		return nil, &PlanError{Msg: err.Error()}
	}
	if bad {
		return nil, &PlanError{Msg: "the job cannot be started here without triggering prior tasks"}
	}
	return []string{start}, nil
}

func roots(g *graph.Graph) []string {
	var out []string
	for _, name := range g.Names() {
		ancestors, err := g.Ancestors(name)
		if err == nil && len(ancestors) == 0 {
			out = append(out, name)
		}
	}
	return out
}
