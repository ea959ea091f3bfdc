// Package scheduler provides the default worker pool and timer
// facility injected into the pubsub engines.
package scheduler

import (
	"context"
	"time"

	"github.com/panjf2000/ants/v2"
)

const defaultWorkers = 16

// Scheduler runs submitted work on a fixed pool of workers and fires
// deferred callbacks onto the same pool. Size the pool for the pull
// concurrency plus the handler parallelism you expect; work submitted
// while the pool is saturated still runs, on an overflow goroutine.
type Scheduler struct {
	pool *ants.Pool
}

func New(workers int) (*Scheduler, error) {
	if workers <= 0 {
		workers = defaultWorkers
	}
	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	return &Scheduler{pool: pool}, nil
}

// Go runs fn on a worker goroutine. It never blocks the caller and
// never drops fn.
func (s *Scheduler) Go(fn func()) {
	if err := s.pool.Submit(fn); err != nil {
		// Pool saturated or released; the work must still run.
		go fn()
	}
}

// ScheduleAfter runs fn on a worker once d elapses. The returned stop
// function reports whether it prevented fn from being scheduled.
func (s *Scheduler) ScheduleAfter(d time.Duration, fn func()) (stop func() bool) {
	if d <= 0 {
		s.Go(fn)
		return func() bool { return false }
	}
	t := time.AfterFunc(d, func() { s.Go(fn) })
	return t.Stop
}

// Shutdown releases the pool, waiting for running work bounded by
// ctx's deadline (or 5s without one).
func (s *Scheduler) Shutdown(ctx context.Context) error {
	timeout := 5 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
	}
	return s.pool.ReleaseTimeout(timeout)
}
