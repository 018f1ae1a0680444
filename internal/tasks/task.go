// Package tasks hosts the long-running pipeline workers and their shared
// lifecycle: each task is a single background goroutine with cooperative
// cancellation, started and stopped through the Manager by the control
// surface.
package tasks

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrAlreadyRunning is returned by Start on a running task, and by
	// Reset, which is rejected while the task runs.
	ErrAlreadyRunning = errors.New("task already running")

	// ErrNotRunning is returned by Stop on a stopped task.
	ErrNotRunning = errors.New("task not running")
)

// Status is an atomic snapshot of a task's lifecycle and progress.
type Status struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	StartTime   *time.Time `json:"startTime"`
	EndTime     *time.Time `json:"endTime"`
	Running     bool       `json:"running"`
	Done        bool       `json:"done"`
	Processed   int64      `json:"processedCount"`
}

// Task is one long-running pipeline stage. Implementations enforce single
// concurrent execution per task; nothing is shared between tasks except
// the durable stores.
type Task interface {
	Name() string
	Description() string
	Start(ctx context.Context) error
	Stop() error
	Running() bool
	Status() Status
	Reset() error
}

// Manager indexes the tasks by name for the control surface.
type Manager struct {
	order []string
	tasks map[string]Task
}

// NewManager registers the given tasks, preserving order for listings.
func NewManager(tasks ...Task) *Manager {
	m := &Manager{tasks: make(map[string]Task, len(tasks))}
	for _, t := range tasks {
		m.order = append(m.order, t.Name())
		m.tasks[t.Name()] = t
	}
	return m
}

// Get returns the named task.
func (m *Manager) Get(name string) (Task, bool) {
	t, ok := m.tasks[name]
	return t, ok
}

// List returns a status snapshot per registered task.
func (m *Manager) List() []Status {
	out := make([]Status, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.tasks[name].Status())
	}
	return out
}

// StopAll stops every running task; used during shutdown.
func (m *Manager) StopAll() {
	for _, name := range m.order {
		if t := m.tasks[name]; t.Running() {
			_ = t.Stop()
		}
	}
}
