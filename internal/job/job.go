package job

import "encoding/json"

// Job is a named collection of tasks forming a DAG. It owns its tasks
// exclusively; callers address tasks by name through Task.
type Job struct {
	Name string
	Tags map[string]string

	// Raw is the verbatim on-disk document, retained for webhook payloads.
	Raw json.RawMessage

	tasks   []*Task
	byName  map[string]*Task
}

// NewJob indexes tasks by name. Callers must have already validated
// uniqueness; NewJob panics on a duplicate name, since that indicates a
// caller bug rather than a malformed document (validation happens earlier,
// in the loader).
func NewJob(name string, raw json.RawMessage, tags map[string]string, tasks []*Task) *Job {
	byName := make(map[string]*Task, len(tasks))
	for _, t := range tasks {
		if _, exists := byName[t.Name]; exists {
			panic("job: duplicate task name " + t.Name)
		}
		byName[t.Name] = t
	}
	return &Job{Name: name, Raw: raw, Tags: tags, tasks: tasks, byName: byName}
}

// Tasks returns the tasks in load order.
func (j *Job) Tasks() []*Task {
	out := make([]*Task, len(j.tasks))
	copy(out, j.tasks)
	return out
}

// Task looks up a task by name.
func (j *Job) Task(name string) (*Task, bool) {
	t, ok := j.byName[name]
	return t, ok
}
