// Package schedule runs a function on a fixed interval with a guaranteed
// stop. It backs the once-per-second countdown refresh and the daily
// timetable refetch.
package schedule

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrRunning is returned by Start when the task is already running.
var ErrRunning = errors.New("schedule: task already running")

// Task calls a function every interval until stopped. The zero value is not
// usable; construct with Every.
type Task struct {
	interval time.Duration
	fn       func(context.Context)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Every returns a stopped task that will call fn once per interval.
// A non-positive interval panics.
func Every(interval time.Duration, fn func(context.Context)) *Task {
	if interval <= 0 {
		panic("schedule: non-positive interval")
	}
	return &Task{interval: interval, fn: fn}
}

// Start runs fn immediately and then on every tick, in a background
// goroutine, until ctx is cancelled or Stop is called.
func (t *Task) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done != nil {
		return ErrRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done

	go t.loop(ctx, done)
	return nil
}

func (t *Task) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.fn(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			t.fn(ctx)
		}
	}
}

// Stop cancels the task and waits for an in-flight call to return. After
// Stop returns fn is never called again until the next Start. Stopping a
// stopped task is a no-op.
func (t *Task) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the task's loop is alive: it was started, and
// neither Stop nor the Start context has ended it.
func (t *Task) Running() bool {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// Wait blocks until the task's loop exits, either through Stop or because
// the context passed to Start was cancelled.
func (t *Task) Wait() {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()
	if done != nil {
		<-done
	}
}
