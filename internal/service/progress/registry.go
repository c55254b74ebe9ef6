// Package progress tracks long-running ingestion tasks. The registry is the
// single owner of task state: the catalog coordinator reports through a
// callback and the HTTP layer polls by task ID. Finished tasks are retained
// for a bounded window and then evicted.
package progress

import (
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vodarr/vodarr/internal/observability"
)

// Status is the lifecycle state of a tracked task.
type Status string

const (
	StatusProcessing  Status = "processing"
	StatusTranscoding Status = "transcoding"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// terminal reports whether a task in this status will never change again.
func (s Status) terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Task is a point-in-time snapshot of one tracked task.
type Task struct {
	ID         string    `json:"id"`
	Status     Status    `json:"status"`
	Progress   float64   `json:"progress"`
	Message    string    `json:"message,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// Registry is a bounded in-memory task store with TTL eviction.
type Registry struct {
	mu        sync.RWMutex
	tasks     map[string]*Task
	retention time.Duration
	logger    *slog.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}

	now func() time.Time
}

const cleanupInterval = time.Minute

// NewRegistry builds a Registry and starts its eviction loop. Retention is
// how long completed and failed tasks stay pollable.
func NewRegistry(retention time.Duration, logger *slog.Logger) *Registry {
	r := &Registry{
		tasks:     make(map[string]*Task),
		retention: retention,
		logger:    observability.WithComponent(logger, "progress"),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		now:       time.Now,
	}
	go r.evictLoop()
	return r
}

// Start registers a new task and returns its ID.
func (r *Registry) Start() string {
	id := uuid.NewString()
	now := r.now()

	r.mu.Lock()
	r.tasks[id] = &Task{
		ID:        id,
		Status:    StatusProcessing,
		StartedAt: now,
		UpdatedAt: now,
	}
	r.mu.Unlock()

	r.logger.Debug("task registered", "task_id", id)
	return id
}

// Update sets the status, percentage and message of a running task. Updates
// against unknown or already-terminal tasks are dropped.
func (r *Registry) Update(id string, status Status, progress float64, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok || task.Status.terminal() {
		return
	}

	task.Status = status
	task.Progress = clampProgress(progress)
	task.Message = message
	task.UpdatedAt = r.now()
	if status.terminal() {
		task.FinishedAt = task.UpdatedAt
	}
}

// Complete marks the task finished with full progress.
func (r *Registry) Complete(id string, message string) {
	r.Update(id, StatusCompleted, 100, message)
}

// Fail marks the task failed and records the error text.
func (r *Registry) Fail(id string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok || task.Status.terminal() {
		return
	}

	task.Status = StatusFailed
	if err != nil {
		task.Error = err.Error()
	}
	task.UpdatedAt = r.now()
	task.FinishedAt = task.UpdatedAt
}

// Get returns a snapshot of the task, or false if it is unknown or evicted.
func (r *Registry) Get(id string) (Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *task, true
}

// Len returns the number of tracked tasks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// Stop terminates the eviction loop. Safe to call more than once.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		<-r.doneCh
	})
}

func (r *Registry) evictLoop() {
	defer close(r.doneCh)

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			if n := r.evictExpired(); n > 0 {
				r.logger.Debug("evicted expired tasks", "count", n)
			}
		}
	}
}

// evictExpired removes terminal tasks older than the retention window.
func (r *Registry) evictExpired() int {
	cutoff := r.now().Add(-r.retention)

	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int
	maps.DeleteFunc(r.tasks, func(_ string, task *Task) bool {
		expired := task.Status.terminal() && task.FinishedAt.Before(cutoff)
		if expired {
			removed++
		}
		return expired
	})
	return removed
}

func clampProgress(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
