// Package plan computes the level-synchronous execution plan: a sequence
// of dependency levels such that every task in level k depends only on
// tasks in levels < k, and tasks within a level are mutually independent.
package plan

import (
	"sort"

	"github.com/yjcyxky/factotum/internal/graph"
)

// Plan is the ordered list of dependency levels to dispatch.
type Plan struct {
	Levels [][]string
}

// Build computes the plan for the subgraph reachable from roots (every task
// reachable from any of them, roots inclusive). Passing every root in g
// plans the whole graph.
//
// Levels are produced by repeated Kahn-style extraction restricted to the
// selected subgraph: a task is ready once every dependency that is itself
// in the subgraph has already been placed in an earlier level. A root's
// dependencies outside the subgraph (the prior tasks a start point skips)
// are not considered.
//
// Ordering within a level is not part of the contract (callers must not
// depend on it); it is sorted here only so tests and logs are reproducible.
func Build(g *graph.Graph, roots []string) (*Plan, error) {
	selected := make(map[string]bool)
	for _, r := range roots {
		selected[r] = true
		desc, err := g.Descendants(r)
		if err != nil {
			return nil, err
		}
		for _, d := range desc {
			selected[d] = true
		}
	}

	remaining := make(map[string][]string, len(selected))
	for name := range selected {
		ancestors, err := g.Ancestors(name)
		if err != nil {
			return nil, err
		}
		var inSubgraph []string
		for _, a := range ancestors {
			if selected[a] {
				inSubgraph = append(inSubgraph, a)
			}
		}
		remaining[name] = inSubgraph
	}

	placed := make(map[string]bool, len(selected))
	var levels [][]string
	for len(placed) < len(selected) {
		var level []string
		for name, deps := range remaining {
			if placed[name] {
				continue
			}
			ready := true
			for _, d := range deps {
				if !placed[d] {
					ready = false
					break
				}
			}
			if ready {
				level = append(level, name)
			}
		}
		if len(level) == 0 {
			// Every remaining task still has an unplaced in-subgraph
			// dependency; since the whole graph is acyclic this cannot
			// happen for a correctly selected subgraph.
			break
		}
		sort.Strings(level)
		levels = append(levels, level)
		for _, name := range level {
			placed[name] = true
		}
	}

	return &Plan{Levels: levels}, nil
}
