package pubsub

import (
	"math/rand"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RetryPolicy shapes the backoff between pull attempts after a
// retryable failure.
type RetryPolicy struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	Jitter         float64
}

func (r RetryPolicy) normalized() RetryPolicy {
	if r.InitialBackoff <= 0 {
		r.InitialBackoff = 200 * time.Millisecond
	}
	if r.MaxBackoff <= 0 {
		r.MaxBackoff = 30 * time.Second
	}
	if r.Multiplier <= 1 {
		r.Multiplier = 2
	}
	return r
}

// exponential is the per-pull-loop backoff state. It is not safe for
// concurrent use; every pull loop owns its own.
type exponential struct {
	policy  RetryPolicy
	current time.Duration
}

func (e *exponential) Next() time.Duration {
	if e.current <= 0 {
		e.current = e.policy.InitialBackoff
	} else {
		e.current = time.Duration(float64(e.current) * e.policy.Multiplier)
		if e.current > e.policy.MaxBackoff {
			e.current = e.policy.MaxBackoff
		}
	}
	interval := e.current
	if e.policy.Jitter > 0 {
		span := float64(interval) * e.policy.Jitter
		interval += time.Duration((rand.Float64()*2 - 1) * span)
		if interval < 0 {
			interval = e.policy.InitialBackoff
		}
	}
	return interval
}

func (e *exponential) Reset() { e.current = 0 }

// DefaultRetryable classifies a pull failure by its gRPC status code.
// Anything that is not a transient service condition ends the session.
func DefaultRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.Aborted, codes.DeadlineExceeded, codes.Internal:
		return true
	}
	return false
}
