package pubsub

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestRetryPolicyNormalized(t *testing.T) {
	def := RetryPolicy{}.normalized()
	assert.Equal(t, 200*time.Millisecond, def.InitialBackoff)
	assert.Equal(t, 30*time.Second, def.MaxBackoff)
	assert.Equal(t, 2.0, def.Multiplier)

	custom := RetryPolicy{InitialBackoff: time.Second, MaxBackoff: time.Minute, Multiplier: 1.5}.normalized()
	assert.Equal(t, time.Second, custom.InitialBackoff)
	assert.Equal(t, time.Minute, custom.MaxBackoff)
	assert.Equal(t, 1.5, custom.Multiplier)
}

func TestExponentialBackoff(t *testing.T) {
	bo := &exponential{policy: RetryPolicy{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     350 * time.Millisecond,
		Multiplier:     2,
	}}
	assert.Equal(t, 100*time.Millisecond, bo.Next())
	assert.Equal(t, 200*time.Millisecond, bo.Next())
	assert.Equal(t, 350*time.Millisecond, bo.Next()) // capped
	assert.Equal(t, 350*time.Millisecond, bo.Next())

	bo.Reset()
	assert.Equal(t, 100*time.Millisecond, bo.Next())
}

func TestExponentialBackoffJitterBounds(t *testing.T) {
	bo := &exponential{policy: RetryPolicy{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		Multiplier:     2,
		Jitter:         0.5,
	}}
	for i := 0; i < 20; i++ {
		d := bo.Next()
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 1500*time.Millisecond)
	}
}

func TestDefaultRetryable(t *testing.T) {
	retryable := []codes.Code{
		codes.Unavailable, codes.ResourceExhausted, codes.Aborted,
		codes.DeadlineExceeded, codes.Internal,
	}
	for _, c := range retryable {
		assert.True(t, DefaultRetryable(status.Error(c, "boom")), c.String())
	}
	terminal := []codes.Code{
		codes.PermissionDenied, codes.NotFound, codes.InvalidArgument,
		codes.FailedPrecondition, codes.Unauthenticated,
	}
	for _, c := range terminal {
		assert.False(t, DefaultRetryable(status.Error(c, "boom")), c.String())
	}
	assert.False(t, DefaultRetryable(nil))
	// Plain errors map to codes.Unknown.
	assert.False(t, DefaultRetryable(errors.New("not a status")))
}

func TestErrMismatchedResponse(t *testing.T) {
	err := errMismatchedResponse(3, 1)
	require.Error(t, err)
	assert.Equal(t, codes.Unknown, status.Code(err))
	assert.Equal(t, "pubsub: mismatched message id count: sent 3 messages, received 1 ids",
		status.Convert(err).Message())
}

func TestPublishResultResolvesOnce(t *testing.T) {
	r := newPublishResult()
	select {
	case <-r.Ready():
		t.Fatal("fresh result must not be ready")
	default:
	}
	r.set("id-1", nil)
	id, err := r.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "id-1", id)
}

func TestPublishResultGetHonorsContext(t *testing.T) {
	r := newPublishResult()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Get(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
