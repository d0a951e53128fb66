package narrative

import (
	"context"
	"errors"
	"sync"

	"standings-backend/internal/models"
)

// ErrStale is returned by Wait when a newer request for the same key
// replaced the task, or the key was cancelled, before the result was read.
var ErrStale = errors.New("narrative request superseded")

// Analyzer is the part of Service the runner needs.
type Analyzer interface {
	Analyze(ctx context.Context, teams []models.Team) string
}

// Runner keeps at most one in-flight narrative task per key. Starting a
// new task cancels the previous one and marks its result stale.
type Runner struct {
	analyzer Analyzer

	mu    sync.Mutex
	tasks map[string]*Task
}

func NewRunner(a Analyzer) *Runner {
	return &Runner{analyzer: a, tasks: make(map[string]*Task)}
}

// Task is a cancellable handle on one narrative request.
type Task struct {
	runner *Runner
	key    string
	cancel context.CancelFunc
	done   chan struct{}
	text   string

	// guarded by runner.mu
	stale bool
}

// Start launches a narrative for teams under key. The snapshot is copied so
// later mutations do not leak into the request.
func (r *Runner) Start(ctx context.Context, key string, teams []models.Team) *Task {
	snapshot := make([]models.Team, len(teams))
	for i, t := range teams {
		snapshot[i] = t.Clone()
	}

	ctx, cancel := context.WithCancel(ctx)
	t := &Task{runner: r, key: key, cancel: cancel, done: make(chan struct{})}

	r.mu.Lock()
	if prev, ok := r.tasks[key]; ok {
		prev.stale = true
		prev.cancel()
	}
	r.tasks[key] = t
	r.mu.Unlock()

	go func() {
		defer close(t.done)
		defer cancel()
		t.text = r.analyzer.Analyze(ctx, snapshot)
	}()
	return t
}

// Wait blocks until the task finishes or ctx is done. A result from a task
// that has been superseded is discarded with ErrStale.
func (t *Task) Wait(ctx context.Context) (string, error) {
	select {
	case <-t.done:
	case <-ctx.Done():
		t.cancel()
		<-t.done
		t.runner.release(t)
		return "", ctx.Err()
	}

	if stale := t.runner.release(t); stale {
		return "", ErrStale
	}
	return t.text, nil
}

// release drops t from the in-flight map and reports whether it was stale.
func (r *Runner) release(t *Task) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.tasks[t.key]; ok && cur == t {
		delete(r.tasks, t.key)
	}
	return t.stale
}

// Cancel aborts any in-flight task for key.
func (r *Runner) Cancel(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tasks[key]; ok {
		t.stale = true
		t.cancel()
		delete(r.tasks, key)
	}
}

// InFlight returns the number of tasks not yet collected.
func (r *Runner) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}
