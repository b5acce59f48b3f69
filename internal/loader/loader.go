// Package loader parses a job document, renders {{var}} placeholders from
// an environment binding, and builds the validated graph that backs it.
package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/yjcyxky/factotum/internal/graph"
	"github.com/yjcyxky/factotum/internal/job"
)

// LoadError wraps a malformed document, schema violation, cycle, duplicate
// name, or unknown dependency. No state is mutated by a failed load.
type LoadError struct {
	Msg string
}

func (e *LoadError) Error() string { return e.Msg }

func loadErrorf(format string, args ...any) error {
	return &LoadError{Msg: fmt.Sprintf(format, args...)}
}

type docTask struct {
	Name      string           `json:"name"`
	DependsOn []string         `json:"depends_on"`
	Executor  string           `json:"executor"`
	Command   string           `json:"command"`
	Arguments []string         `json:"arguments"`
	OnResult  job.ResultMapping `json:"on_result"`
}

type doc struct {
	Name  string            `json:"name"`
	Tags  map[string]string `json:"tags"`
	Tasks []docTask         `json:"tasks"`
}

// Load parses raw as a job document, renders {{var}} placeholders from env,
// validates every §3 invariant, and returns the resulting Job and Graph.
//
// Unknown top-level fields are rejected. The first violation found is
// returned; no partial result is produced on error.
func Load(raw []byte, env map[string]string) (*job.Job, *graph.Graph, error) {
	var d doc
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return nil, nil, loadErrorf("parse job document: %v", err)
	}
	var trailing any
	if err := dec.Decode(&trailing); err != io.EOF {
		if err == nil {
			return nil, nil, loadErrorf("parse job document: trailing data")
		}
		return nil, nil, loadErrorf("parse job document: %v", err)
	}

	if d.Name == "" {
		return nil, nil, loadErrorf("job name is required")
	}
	// A job with zero tasks is valid: it runs to completion immediately,
	// reporting "0/0 tasks run".

	names := make([]string, 0, len(d.Tasks))
	dependsOn := make(map[string][]string, len(d.Tasks))
	tasks := make([]*job.Task, 0, len(d.Tasks))

	for _, dt := range d.Tasks {
		if dt.Name == "" {
			return nil, nil, loadErrorf("task name is required")
		}
		if dt.Executor != job.ShellExecutor {
			return nil, nil, loadErrorf("task %q: unsupported executor %q", dt.Name, dt.Executor)
		}
		if err := dt.OnResult.Validate(); err != nil {
			return nil, nil, loadErrorf("task %q: %v", dt.Name, err)
		}

		command := renderTemplate(dt.Command, env)
		args := make([]string, len(dt.Arguments))
		for i, a := range dt.Arguments {
			args[i] = renderTemplate(a, env)
		}

		t := &job.Task{
			Name:      dt.Name,
			DependsOn: dt.DependsOn,
			Executor:  dt.Executor,
			Command:   command,
			Arguments: args,
			OnResult:  dt.OnResult,
		}
		tasks = append(tasks, t)
		names = append(names, dt.Name)
		dependsOn[dt.Name] = dt.DependsOn
	}

	g, err := graph.New(names, dependsOn)
	if err != nil {
		return nil, nil, loadErrorf("%v", err)
	}

	j := job.NewJob(d.Name, json.RawMessage(append([]byte(nil), raw...)), d.Tags, tasks)
	return j, g, nil
}

// renderTemplate replaces every {{key}} occurrence with env[key]. A key
// absent from env is left as a literal (no implicit empty substitution),
// matching the "rendered from the environment binding" contract: only
// bound variables are substituted.
func renderTemplate(s string, env map[string]string) string {
	if len(env) == 0 || !strings.Contains(s, "{{") {
		return s
	}
	var b strings.Builder
	rest := s
	for {
		start := strings.Index(rest, "{{")
		if start == -1 {
			b.WriteString(rest)
			break
		}
		end := strings.Index(rest[start:], "}}")
		if end == -1 {
			b.WriteString(rest)
			break
		}
		end += start
		b.WriteString(rest[:start])
		key := strings.TrimSpace(rest[start+2 : end])
		if val, ok := env[key]; ok {
			b.WriteString(val)
		} else {
			b.WriteString(rest[start : end+2])
		}
		rest = rest[end+2:]
	}
	return b.String()
}
