package schedule

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Runner executes a task on a fixed wall-clock interval. Ticks run
// sequentially in a single goroutine, so an overdue tick is never
// started while the previous one is still running; the overdue firings
// are simply dropped. There is no replay of ticks missed while stopped.
type Runner struct {
	task     Task
	interval time.Duration

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewRunner(task Task, interval time.Duration) *Runner {
	return &Runner{
		task:     task,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (r *Runner) Start(ctx context.Context) {
	slog.Info("schedule runner started", "task", r.task.Name(), "interval", r.interval)
	go r.loop(ctx)
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := r.task.Run(ctx); err != nil {
				slog.Error("task run failed", "task", r.task.Name(), "error", err)
			}
		case <-r.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop prevents further ticks and waits for the in-flight one, if any,
// to complete.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
	<-r.done
}
