package tasks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// runner carries the lifecycle state shared by every task: a single worker
// goroutine, cooperative cancellation through a derived context, and
// counters owned by the worker but readable through an atomic snapshot.
type runner struct {
	mu        sync.Mutex
	running   bool
	done      bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startTime *time.Time
	endTime   *time.Time
	processed atomic.Int64
}

// begin transitions Stopped -> Running and launches loop in the worker
// goroutine. The loop owns all processing; it must return promptly once
// its context is cancelled, finishing the current chunk first.
func (r *runner) begin(parent context.Context, loop func(ctx context.Context)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(parent)
	now := time.Now()
	r.running = true
	r.done = false
	r.cancel = cancel
	r.startTime = &now
	r.endTime = nil
	r.processed.Store(0)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		loop(ctx)
		cancel()
		end := time.Now()
		r.mu.Lock()
		r.running = false
		r.endTime = &end
		r.mu.Unlock()
	}()
	return nil
}

// halt transitions Running -> Stopped cooperatively and waits for the
// worker to finish its current iteration.
func (r *runner) halt() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return ErrNotRunning
	}
	r.cancel()
	r.mu.Unlock()
	r.wg.Wait()
	return nil
}

func (r *runner) isRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// resetCounters zeroes progress state; rejected while running.
func (r *runner) resetCounters() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return fmt.Errorf("reset: %w", ErrAlreadyRunning)
	}
	r.processed.Store(0)
	r.done = false
	r.startTime = nil
	r.endTime = nil
	return nil
}

func (r *runner) markDone() {
	r.mu.Lock()
	r.done = true
	r.mu.Unlock()
}

func (r *runner) addProcessed(n int64) {
	r.processed.Add(n)
}

func (r *runner) snapshot(name, description string) Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Status{
		Name:        name,
		Description: description,
		StartTime:   r.startTime,
		EndTime:     r.endTime,
		Running:     r.running,
		Done:        r.done,
		Processed:   r.processed.Load(),
	}
}
