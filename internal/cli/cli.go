// Package cli orchestrates one end-to-end run: it wires the loader,
// start-point analyzer, planner, executor, propagator, update bus, and
// webhook dispatcher into a single Execute call, and translates the
// outcome into the tool's exit code contract.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/yjcyxky/factotum/internal/bus"
	"github.com/yjcyxky/factotum/internal/executor"
	"github.com/yjcyxky/factotum/internal/hostcheck"
	"github.com/yjcyxky/factotum/internal/job"
	"github.com/yjcyxky/factotum/internal/loader"
	"github.com/yjcyxky/factotum/internal/plan"
	"github.com/yjcyxky/factotum/internal/startpoint"
	"github.com/yjcyxky/factotum/internal/strategy"
	"github.com/yjcyxky/factotum/internal/tracewriter"
	"github.com/yjcyxky/factotum/internal/webhook"
)

// Exit codes per the external CLI contract: 0 success/controlled early
// finish, 1 parse/validation error, 2 one or more tasks failed, 3 other
// (start-point rejected, host mismatch, webhook URL invalid).
const (
	ExitSuccess     = 0
	ExitLoadError   = 1
	ExitTaskFailure = 2
	ExitOther       = 3
)

// Invocation is everything a run needs, already resolved from flags/config.
type Invocation struct {
	JobDocument        []byte
	Env                map[string]string
	DryRun             bool
	Start              string
	WebhookURL         string
	Tags               map[string]string
	MaxStdouterr       int
	Host               string
	Concurrency        int
	WebhookRetryBudget int
	WebhookMaxWait     time.Duration

	// TracePath, when set, receives the canonical post-run trace: one
	// JSON object per task naming its terminal classification, sorted
	// for byte-for-byte stability across identical runs.
	TracePath string
}

// Result is what Execute reports back to main.
type Result struct {
	ExitCode int
	Summary  string
}

// Execute runs a job document end to end and returns the exit code the
// process should use.
func Execute(ctx context.Context, inv Invocation) (*Result, error) {
	if inv.Host != "" {
		id, err := hostcheck.LocalIdentity()
		if err != nil {
			return &Result{ExitCode: ExitOther}, err
		}
		if err := hostcheck.Check(inv.Host, id); err != nil {
			return &Result{ExitCode: ExitOther, Summary: err.Error()}, nil
		}
	}

	j, g, err := loader.Load(inv.JobDocument, inv.Env)
	if err != nil {
		return &Result{ExitCode: ExitLoadError, Summary: err.Error()}, nil
	}

	roots, err := startpoint.Resolve(g, inv.Start)
	if err != nil {
		return &Result{ExitCode: ExitOther, Summary: err.Error()}, nil
	}

	p, err := plan.Build(g, roots)
	if err != nil {
		return &Result{ExitCode: ExitOther}, err
	}

	runs := make(map[string]*job.TaskRun, len(j.Tasks()))
	for _, t := range j.Tasks() {
		runs[t.Name] = job.NewTaskRun(t)
	}
	// Tasks outside the selected subgraph (ancestors of a non-root start
	// point) are never touched: they remain Waiting in runs and are
	// reported as not-run in the summary.

	var b *bus.Bus
	var dispatcher *webhook.Dispatcher
	runID := uuid.NewString()
	if inv.WebhookURL != "" {
		b = bus.New(256)
		dispatcher, err = webhook.NewDispatcher(inv.WebhookURL, runID, j.Name, j.Raw, webhookRetryBudget(inv), webhookMaxWait(inv))
		if err != nil {
			return &Result{ExitCode: ExitOther}, err
		}
		dispatcher.Run(ctx, b)
	}

	startedAt := time.Now()
	if b != nil {
		b.EmitRunStarted(bus.RunStarted{
			JobName:     j.Name,
			RawDocument: j.Raw,
			Tags:        mergeTags(j.Tags, inv.Tags),
			StartedAt:   startedAt,
			StartTask:   inv.Start,
		})
	}

	var strat strategy.Strategy
	var override *executor.OverrideResultMappings
	if inv.DryRun {
		strat = strategy.Sim{}
		override = &executor.OverrideResultMappings{ContinueJob: []int{0}}
	} else {
		strat = strategy.OS{}
	}

	ex := &executor.Executor{
		Graph:       g,
		Strategy:    strat,
		Bus:         b,
		Override:    override,
		MaxCapture:  inv.MaxStdouterr,
		Concurrency: inv.Concurrency,
	}

	outcome, err := ex.Run(ctx, p, runs)

	if b != nil {
		fmt.Fprintln(os.Stderr, "Waiting for webhook to finish sending events...")
		b.Close()
		dispatcher.Wait()
		fmt.Fprintln(os.Stderr, "done!")
		received, succeeded := dispatcher.Counts()
		if received > succeeded {
			fmt.Fprintln(os.Stderr, "some events failed to send")
		}
	}

	if err != nil {
		return &Result{ExitCode: ExitOther}, err
	}

	if inv.TracePath != "" {
		if err := writeTrace(inv.TracePath, j.Raw, runs); err != nil {
			return &Result{ExitCode: ExitOther}, fmt.Errorf("write trace: %w", err)
		}
	}

	summary := Summarize(j, runs, outcome)
	return &Result{ExitCode: exitCodeFor(outcome), Summary: summary}, nil
}

func writeTrace(path string, jobRaw []byte, runs map[string]*job.TaskRun) error {
	b, err := tracewriter.Build(jobRaw, runs).CanonicalJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func exitCodeFor(o *executor.Outcome) int {
	switch o.OverallOutcome {
	case "failed":
		return ExitTaskFailure
	default:
		return ExitSuccess
	}
}

// mergeTags layers cliTags over the job document's declared tags; a
// command-line --tag wins on key conflict, mirroring how --env overrides a
// loaded --env-file.
func mergeTags(jobTags, cliTags map[string]string) map[string]string {
	if len(jobTags) == 0 && len(cliTags) == 0 {
		return nil
	}
	merged := make(map[string]string, len(jobTags)+len(cliTags))
	for k, v := range jobTags {
		merged[k] = v
	}
	for k, v := range cliTags {
		merged[k] = v
	}
	return merged
}

func webhookRetryBudget(inv Invocation) int {
	if inv.WebhookRetryBudget > 0 {
		return inv.WebhookRetryBudget
	}
	return 5
}

func webhookMaxWait(inv Invocation) time.Duration {
	if inv.WebhookMaxWait > 0 {
		return inv.WebhookMaxWait
	}
	return 60 * time.Second
}

// Validate parses and plans a job document without dispatching any
// strategy, per the validate-only mode restored from the original tool.
func Validate(raw []byte, env map[string]string, start string) (string, error) {
	_, g, err := loader.Load(raw, env)
	if err != nil {
		return "", err
	}
	roots, err := startpoint.Resolve(g, start)
	if err != nil {
		return "", err
	}
	p, err := plan.Build(g, roots)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("valid job: %d level(s)", len(p.Levels)), nil
}
