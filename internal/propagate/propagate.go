// Package propagate rewrites descendant task states once a task fails or
// signals a controlled early finish (SuccessNoop).
package propagate

import (
	"fmt"

	"github.com/yjcyxky/factotum/internal/graph"
	"github.com/yjcyxky/factotum/internal/job"
)

// FromOrigin transitively marks every still-Waiting descendant of origin as
// Skipped, with a reason naming origin. Descendants already terminal (or
// already Skipped) are left untouched. A descendant found Running is an
// invariant violation — the caller must not invoke this while a sibling in
// the same level is still in flight — and returns an error.
//
// Returns the names of tasks newly transitioned to Skipped, in deterministic
// order.
func FromOrigin(g *graph.Graph, runs map[string]*job.TaskRun, origin string) ([]string, error) {
	desc, err := g.Descendants(origin)
	if err != nil {
		return nil, err
	}

	var skipped []string
	for _, name := range desc {
		run, ok := runs[name]
		if !ok {
			return nil, fmt.Errorf("propagate: missing run record for %q", name)
		}
		switch run.State {
		case job.Waiting:
			run.State = job.Skipped
			run.Reason = fmt.Sprintf("ancestor task %q did not complete", origin)
			skipped = append(skipped, name)
		case job.Running:
			return nil, fmt.Errorf("invariant violation: downstream task %q is running during propagation from %q", name, origin)
		default:
			// Already terminal (including already Skipped). Left unchanged.
		}
	}
	return skipped, nil
}
