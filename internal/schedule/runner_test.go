package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingTask struct {
	runs     atomic.Int64
	inFlight atomic.Int64
	overlap  atomic.Bool
	duration time.Duration
}

func (t *countingTask) Run(ctx context.Context) error {
	if t.inFlight.Add(1) > 1 {
		t.overlap.Store(true)
	}
	defer t.inFlight.Add(-1)

	t.runs.Add(1)
	if t.duration > 0 {
		time.Sleep(t.duration)
	}
	return nil
}

func (t *countingTask) Name() string {
	return "counting task"
}

func TestRunner_TicksNeverOverlap(t *testing.T) {
	// each run outlasts several intervals; overdue ticks must be dropped,
	// not stacked
	task := &countingTask{duration: 30 * time.Millisecond}
	runner := NewRunner(task, 5*time.Millisecond)

	runner.Start(context.Background())
	time.Sleep(150 * time.Millisecond)
	runner.Stop()

	assert.False(t, task.overlap.Load())
	assert.Greater(t, task.runs.Load(), int64(1))
}

func TestRunner_StopWaitsForInFlightRun(t *testing.T) {
	task := &countingTask{duration: 50 * time.Millisecond}
	runner := NewRunner(task, 10*time.Millisecond)

	runner.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	runner.Stop()

	// no run may still be in flight after Stop returns
	assert.Equal(t, int64(0), task.inFlight.Load())

	runs := task.runs.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, runs, task.runs.Load())
}

func TestRunner_StopIsIdempotent(t *testing.T) {
	task := &countingTask{}
	runner := NewRunner(task, 10*time.Millisecond)

	runner.Start(context.Background())
	runner.Stop()
	runner.Stop()
}

func TestRunner_ContextCancelStopsLoop(t *testing.T) {
	task := &countingTask{}
	runner := NewRunner(task, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	runner.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)

	runs := task.runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, runs, task.runs.Load())
}
