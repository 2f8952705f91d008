package aggregator

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// Task is one unit of rate-limited work.
type Task func(ctx context.Context)

// TaskQueue runs tasks under a rate policy. Run returns once every task has
// run or ctx is done.
type TaskQueue interface {
	Run(ctx context.Context, tasks []Task)
}

// SerialQueue runs tasks one at a time and waits a fixed delay between
// consecutive tasks. No wait precedes the first task or follows the last.
type SerialQueue struct {
	delay time.Duration
	clock clockwork.Clock
}

// NewSerialQueue creates a SerialQueue. A nil clock uses real time.
func NewSerialQueue(delay time.Duration, clock clockwork.Clock) *SerialQueue {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SerialQueue{delay: delay, clock: clock}
}

// Run implements TaskQueue.
func (q *SerialQueue) Run(ctx context.Context, tasks []Task) {
	for i, task := range tasks {
		if i > 0 && !q.wait(ctx) {
			return
		}
		task(ctx)
	}
}

func (q *SerialQueue) wait(ctx context.Context) bool {
	if q.delay <= 0 {
		return ctx.Err() == nil
	}

	timer := q.clock.NewTimer(q.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
