package types

import (
	"errors"
	"fmt"
	"strings"
)

type Task string

const (
	TaskCWS Task = "cws"
	TaskPOS Task = "pos"
	TaskNER Task = "ner"
	TaskSRL Task = "srl"
	TaskDEP Task = "dep"
	TaskSDP Task = "sdp"
)

var ErrUnknownTask = errors.New("unknown task")

// AllTasks lists tasks in execution order.
func AllTasks() []Task {
	return []Task{TaskCWS, TaskPOS, TaskNER, TaskSRL, TaskDEP, TaskSDP}
}

func ParseTask(name string) (Task, error) {
	task := Task(strings.ToLower(strings.TrimSpace(name)))
	for _, t := range AllTasks() {
		if t == task {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTask, name)
}

func ParseTasks(names []string) ([]Task, error) {
	tasks := make([]Task, 0, len(names))
	for _, name := range names {
		task, err := ParseTask(name)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// Requires returns the task whose output this task consumes.
func (t Task) Requires() (Task, bool) {
	switch t {
	case TaskPOS:
		return TaskCWS, true
	case TaskNER, TaskSRL, TaskDEP, TaskSDP:
		return TaskPOS, true
	}
	return "", false
}

// TaskSet is a set of tasks kept in execution order when listed.
type TaskSet map[Task]bool

func NewTaskSet(tasks ...Task) TaskSet {
	set := make(TaskSet, len(tasks))
	for _, t := range tasks {
		set[t] = true
	}
	return set
}

// WithRequirements returns a copy of the set closed under Requires.
func (set TaskSet) WithRequirements() TaskSet {
	closed := make(TaskSet, len(set))
	for t := range set {
		for cur, ok := t, true; ok; cur, ok = cur.Requires() {
			closed[cur] = true
		}
	}
	return closed
}

func (set TaskSet) Has(t Task) bool {
	return set[t]
}

func (set TaskSet) List() []Task {
	var tasks []Task
	for _, t := range AllTasks() {
		if set[t] {
			tasks = append(tasks, t)
		}
	}
	return tasks
}
