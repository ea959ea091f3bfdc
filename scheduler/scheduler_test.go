package scheduler_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infigaming-com/go-pubsub/scheduler"
)

func newScheduler(t *testing.T, workers int) *scheduler.Scheduler {
	t.Helper()
	s, err := scheduler.New(workers)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, s.Shutdown(ctx))
	})
	return s
}

func TestGoRunsSubmittedWork(t *testing.T) {
	s := newScheduler(t, 4)
	done := make(chan struct{})
	s.Go(func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("work never ran")
	}
}

func TestGoNeverDropsWorkWhenSaturated(t *testing.T) {
	s := newScheduler(t, 1)

	// Saturate the single worker, then submit more; the overflow work
	// must still run.
	release := make(chan struct{})
	blocked := make(chan struct{})
	s.Go(func() {
		close(blocked)
		<-release
	})
	<-blocked

	const n = 10
	var ran atomic.Int32
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		s.Go(func() {
			ran.Add(1)
			wg.Done()
		})
	}
	wg.Wait()
	close(release)
	assert.Equal(t, int32(n), ran.Load())
}

func TestScheduleAfterFires(t *testing.T) {
	s := newScheduler(t, 4)
	fired := make(chan time.Time, 1)
	start := time.Now()
	s.ScheduleAfter(30*time.Millisecond, func() { fired <- time.Now() })
	select {
	case at := <-fired:
		assert.GreaterOrEqual(t, at.Sub(start), 30*time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatal("deferred work never fired")
	}
}

func TestScheduleAfterStop(t *testing.T) {
	s := newScheduler(t, 4)
	fired := make(chan struct{}, 1)
	stop := s.ScheduleAfter(50*time.Millisecond, func() { fired <- struct{}{} })
	assert.True(t, stop())
	select {
	case <-fired:
		t.Fatal("stopped timer still fired")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestScheduleAfterZeroRunsImmediately(t *testing.T) {
	s := newScheduler(t, 4)
	fired := make(chan struct{})
	stop := s.ScheduleAfter(0, func() { close(fired) })
	assert.False(t, stop())
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("immediate work never ran")
	}
}
