// Package tracewriter builds a canonical, byte-stable record of a run's
// terminal task outcomes, for the optional --trace flag. Unlike the update
// bus (which streams events live to the webhook dispatcher), a trace is
// built once from the run's final state and written after the run
// completes: it carries no timestamps or runtime-dependent values, only
// logical outcomes, so identical runs produce byte-identical trace files.
package tracewriter

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/yjcyxky/factotum/internal/job"
)

// EventKind is the stable, canonical discriminator for an Event. These
// values are part of the trace's canonical bytes; do not rename them.
type EventKind string

const (
	EventTaskSucceeded    EventKind = "TaskSucceeded"
	EventTaskEarlyFinish  EventKind = "TaskEarlyFinish"
	EventTaskFailed       EventKind = "TaskFailed"
	EventTaskSkipped      EventKind = "TaskSkipped"
	EventTaskNotDispatched EventKind = "TaskNotDispatched"
)

// Event is a single task's terminal outcome.
type Event struct {
	Kind EventKind

	// TaskName identifies the task this event refers to.
	TaskName string

	// Reason is a stable, logical reason code: the failure message for
	// TaskFailed, or the originating task's name for TaskSkipped.
	Reason string
}

// Trace is the canonical record of one run: a job hash plus its sorted
// events. Two runs over the same job document that reach the same
// classification produce an identical Trace.
type Trace struct {
	JobHash string
	Events  []Event
}

// Build derives a Trace from a job's raw document and the final run
// records. Tasks outside the dispatched subgraph (ancestors of a non-root
// start point) are reported as TaskNotDispatched.
func Build(jobRaw []byte, runs map[string]*job.TaskRun) Trace {
	t := Trace{JobHash: hashJob(jobRaw)}
	for name, run := range runs {
		t.Events = append(t.Events, eventFor(name, run))
	}
	t.Canonicalize()
	return t
}

func eventFor(name string, run *job.TaskRun) Event {
	switch run.State {
	case job.Success:
		return Event{Kind: EventTaskSucceeded, TaskName: name}
	case job.SuccessNoop:
		return Event{Kind: EventTaskEarlyFinish, TaskName: name}
	case job.Failed:
		return Event{Kind: EventTaskFailed, TaskName: name, Reason: run.Reason}
	case job.Skipped:
		return Event{Kind: EventTaskSkipped, TaskName: name, Reason: run.Reason}
	default:
		return Event{Kind: EventTaskNotDispatched, TaskName: name}
	}
}

func hashJob(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Validate checks that every event carries the fields its kind requires.
func (t *Trace) Validate() error {
	if t == nil {
		return errors.New("trace is nil")
	}
	if t.JobHash == "" {
		return errors.New("jobHash is required")
	}
	for i, e := range t.Events {
		if e.Kind == "" {
			return fmt.Errorf("events[%d].kind is required", i)
		}
		if e.TaskName == "" {
			return fmt.Errorf("events[%d].taskName is required", i)
		}
	}
	return nil
}

// Canonicalize sorts events by (taskName, kindOrder, reason) so that
// encoding order never depends on execution timing, goroutine scheduling,
// or map iteration order.
func (t *Trace) Canonicalize() {
	if t == nil {
		return
	}
	sort.SliceStable(t.Events, func(i, j int) bool {
		a, b := t.Events[i], t.Events[j]
		if a.TaskName != b.TaskName {
			return a.TaskName < b.TaskName
		}
		if kindOrder(a.Kind) != kindOrder(b.Kind) {
			return kindOrder(a.Kind) < kindOrder(b.Kind)
		}
		return a.Reason < b.Reason
	})
}

func kindOrder(k EventKind) int {
	switch k {
	case EventTaskSucceeded:
		return 10
	case EventTaskEarlyFinish:
		return 20
	case EventTaskFailed:
		return 30
	case EventTaskSkipped:
		return 40
	case EventTaskNotDispatched:
		return 50
	default:
		return 1000
	}
}

// CanonicalJSON canonicalizes a copy of t and returns its JSON encoding.
func (t Trace) CanonicalJSON() ([]byte, error) {
	cp := Trace{JobHash: t.JobHash, Events: append([]Event(nil), t.Events...)}
	cp.Canonicalize()
	if err := cp.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(&cp)
}

// MarshalJSON fixes field order (jobHash before events) regardless of
// struct field order, so the encoding is stable across Go versions.
func (t Trace) MarshalJSON() ([]byte, error) {
	if t.JobHash == "" {
		return nil, errors.New("jobHash is required")
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	buf.WriteString(`"jobHash":`)
	jh, _ := json.Marshal(t.JobHash)
	buf.Write(jh)
	buf.WriteByte(',')
	buf.WriteString(`"events":[`)
	for i, e := range t.Events {
		if i > 0 {
			buf.WriteByte(',')
		}
		eb, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		buf.Write(eb)
	}
	buf.WriteString(`]}`)
	return buf.Bytes(), nil
}
