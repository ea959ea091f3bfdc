package pubsub

import "time"

// Scheduler supplies the worker pool and timer facility the engines run
// on. Go submits fn for execution on a worker goroutine distinct from
// the caller's. ScheduleAfter arranges for fn to run on a worker after
// d elapses and returns a stop function that reports whether the
// callback was prevented from running.
//
// The scheduler subpackage provides the default implementation.
type Scheduler interface {
	Go(fn func())
	ScheduleAfter(d time.Duration, fn func()) (stop func() bool)
}
