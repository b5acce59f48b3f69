// Package executor drives level-synchronous dispatch: for each plan level,
// every ready task's strategy invocation runs concurrently; the executor
// waits for the whole level to settle, classifies each result, runs state
// propagation for any failure/early-finish, and only then proceeds to the
// next level.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yjcyxky/factotum/internal/bus"
	"github.com/yjcyxky/factotum/internal/graph"
	"github.com/yjcyxky/factotum/internal/job"
	"github.com/yjcyxky/factotum/internal/plan"
	"github.com/yjcyxky/factotum/internal/propagate"
	"github.com/yjcyxky/factotum/internal/strategy"
)

// OverrideResultMappings replaces every task's continue/terminate
// classification, used by --dry-run and validation-style runs.
type OverrideResultMappings struct {
	ContinueJob  []int
	TerminateJob []int
}

// apply returns the effective mapping for spec, honoring the override when
// o is non-nil.
func (o *OverrideResultMappings) apply(spec job.ResultMapping) job.ResultMapping {
	if o == nil {
		return spec
	}
	return job.ResultMapping{ContinueJob: o.ContinueJob, TerminateJob: o.TerminateJob}
}

// Executor drives one run of a plan against a strategy.
type Executor struct {
	Graph      *graph.Graph
	Strategy   strategy.Strategy
	Bus        *bus.Bus
	Override   *OverrideResultMappings
	MaxCapture int

	// Concurrency caps in-flight strategy invocations within a level; 0
	// means unbounded (one goroutine per ready task in the level).
	Concurrency int
}

// Outcome summarizes a completed run.
type Outcome struct {
	// OverallOutcome is one of "success", "early_finish", "failed".
	OverallOutcome string
	TasksRun       int
	TasksTotal     int
	Duration       time.Duration
	// SkippedBy names, for each skipped task, the task whose failure or
	// early finish caused the skip.
	SkippedBy map[string]string
}

// Run dispatches p level by level against runs, mutating each TaskRun in
// place and returning the run's overall outcome.
func (e *Executor) Run(ctx context.Context, p *plan.Plan, runs map[string]*job.TaskRun) (*Outcome, error) {
	start := time.Now()
	outcome := &Outcome{OverallOutcome: "success", TasksTotal: len(runs), SkippedBy: map[string]string{}}

	for _, level := range p.Levels {
		settled, err := e.runLevel(ctx, level, runs)
		if err != nil {
			return nil, err
		}
		outcome.TasksRun += settled

		for _, name := range level {
			run := runs[name]
			switch run.State {
			case job.Failed:
				if outcome.OverallOutcome == "success" {
					outcome.OverallOutcome = "failed"
				}
				skipped, err := propagate.FromOrigin(e.Graph, runs, name)
				if err != nil {
					return nil, err
				}
				for _, s := range skipped {
					outcome.SkippedBy[s] = name
				}
			case job.SuccessNoop:
				if outcome.OverallOutcome == "success" {
					outcome.OverallOutcome = "early_finish"
				}
				skipped, err := propagate.FromOrigin(e.Graph, runs, name)
				if err != nil {
					return nil, err
				}
				for _, s := range skipped {
					outcome.SkippedBy[s] = name
				}
			}
		}
	}

	outcome.Duration = time.Since(start)
	e.emitRunFinished(outcome, runs)
	return outcome, nil
}

func (e *Executor) runLevel(ctx context.Context, level []string, runs map[string]*job.TaskRun) (int, error) {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		settled  int
		sem      chan struct{}
	)
	if e.Concurrency > 0 {
		sem = make(chan struct{}, e.Concurrency)
	}

	for _, name := range level {
		run := runs[name]
		if run.State != job.Waiting {
			// Already Skipped by an earlier level's propagation.
			continue
		}

		wg.Add(1)
		go func(name string, run *job.TaskRun) {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}

			startedAt := time.Now()
			run.RunStarted = &startedAt
			run.State = job.Running
			e.emitTaskStarted(name, startedAt)

			res := e.Strategy.Run(ctx, strategy.CommandLine{
				Command:    run.Spec.Command,
				Arguments:  run.Spec.Arguments,
				MaxCapture: e.MaxCapture,
			})

			mu.Lock()
			e.classify(run, res)
			settled++
			mu.Unlock()

			e.emitTaskFinished(name, run)
		}(name, run)
	}

	wg.Wait()
	return settled, nil
}

func (e *Executor) classify(run *job.TaskRun, res strategy.RunResult) {
	run.Result = &job.RunResult{
		Duration:    res.Duration,
		LaunchError: res.LaunchError,
		Stdout:      res.Stdout,
		Stderr:      res.Stderr,
		ReturnCode:  res.ReturnCode,
	}

	if res.LaunchError != "" {
		run.State = job.Failed
		run.Reason = res.LaunchError
		return
	}

	mapping := e.Override.apply(run.Spec.OnResult)
	switch {
	case mapping.Continues(res.ReturnCode):
		run.State = job.Success
	case mapping.Terminates(res.ReturnCode):
		run.State = job.SuccessNoop
	default:
		run.State = job.Failed
		run.Reason = fmt.Sprintf("return code %d not recognized", res.ReturnCode)
	}
}

func (e *Executor) emitTaskStarted(name string, at time.Time) {
	if e.Bus == nil {
		return
	}
	e.Bus.EmitTaskStarted(bus.TaskStarted{TaskName: name, StartedAt: at})
}

func (e *Executor) emitTaskFinished(name string, run *job.TaskRun) {
	if e.Bus == nil {
		return
	}
	var code *int
	var duration time.Duration
	var stdout, stderr []byte
	if run.Result != nil {
		c := run.Result.ReturnCode
		code = &c
		duration = run.Result.Duration
		stdout = run.Result.Stdout
		stderr = run.Result.Stderr
	}
	e.Bus.EmitTaskFinished(bus.TaskFinished{
		TaskName:   name,
		State:      string(run.State),
		Duration:   duration,
		ReturnCode: code,
		Stdout:     stdout,
		Stderr:     stderr,
	})
}

func (e *Executor) emitRunFinished(outcome *Outcome, runs map[string]*job.TaskRun) {
	if e.Bus == nil {
		return
	}
	tasks := make([]bus.TaskFinished, 0, len(runs))
	for name, run := range runs {
		var code *int
		var duration time.Duration
		if run.Result != nil {
			c := run.Result.ReturnCode
			code = &c
			duration = run.Result.Duration
		}
		tasks = append(tasks, bus.TaskFinished{TaskName: name, State: string(run.State), Duration: duration, ReturnCode: code})
	}
	e.Bus.EmitRunFinished(bus.RunFinished{OverallOutcome: outcome.OverallOutcome, FinishedAt: time.Now(), Tasks: tasks})
}
