package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yjcyxky/factotum/internal/executor"
	"github.com/yjcyxky/factotum/internal/job"
)

// Summarize renders the run's terminal report: a "N/M tasks run in D.Ds"
// line, followed by one line per task naming its final state. A task skipped
// as a consequence of another task's failure or controlled early finish
// names that task in parentheses on its own line.
func Summarize(j *job.Job, runs map[string]*job.TaskRun, outcome *executor.Outcome) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%d/%d tasks run in %s\n", outcome.TasksRun, outcome.TasksTotal, formatDuration(outcome.Duration))

	names := make([]string, 0, len(runs))
	for name := range runs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		run := runs[name]
		switch run.State {
		case job.Skipped:
			if origin, ok := outcome.SkippedBy[name]; ok {
				fmt.Fprintf(&b, "  %s: skipped (%s)\n", name, origin)
				continue
			}
			fmt.Fprintf(&b, "  %s: skipped\n", name)
		case job.Failed:
			fmt.Fprintf(&b, "  %s: failed (%s)\n", name, run.Reason)
		default:
			fmt.Fprintf(&b, "  %s: %s\n", name, run.State)
		}
	}

	return b.String()
}

// formatDuration renders seconds with one decimal place, matching the
// original tool's "0.0s" style summary line.
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
