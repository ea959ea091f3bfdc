package pubsub_test

import (
	"context"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	pubsub "github.com/infigaming-com/go-pubsub"
	"github.com/infigaming-com/go-pubsub/scheduler"
)

func TestMain(m *testing.M) {
	// ants spawns its package-level default pool's maintenance
	// goroutines at init; no test creates or can release them.
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("github.com/panjf2000/ants/v2.(*poolCommon).purgeStaleWorkers"),
		goleak.IgnoreTopFunction("github.com/panjf2000/ants/v2.(*poolCommon).ticktock"),
	)
}

// fakeStub implements pubsub.TransportStub with per-test closures. A
// nil pull blocks until the context is done, matching a long poll
// against an idle subscription; other nil operations succeed.
type fakeStub struct {
	publish func(context.Context, *pubsub.PublishBatchRequest) (*pubsub.PublishBatchResponse, error)
	pull    func(context.Context, *pubsub.PullRequest) ([]*pubsub.PulledMessage, error)
	ack     func(context.Context, *pubsub.AcknowledgeRequest) error
	modack  func(context.Context, *pubsub.ModifyAckDeadlineRequest) error
}

func (f *fakeStub) PublishBatch(ctx context.Context, req *pubsub.PublishBatchRequest) (*pubsub.PublishBatchResponse, error) {
	if f.publish == nil {
		return &pubsub.PublishBatchResponse{}, nil
	}
	return f.publish(ctx, req)
}

func (f *fakeStub) Pull(ctx context.Context, req *pubsub.PullRequest) ([]*pubsub.PulledMessage, error) {
	if f.pull == nil {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.pull(ctx, req)
}

func (f *fakeStub) Acknowledge(ctx context.Context, req *pubsub.AcknowledgeRequest) error {
	if f.ack == nil {
		return nil
	}
	return f.ack(ctx, req)
}

func (f *fakeStub) ModifyAckDeadline(ctx context.Context, req *pubsub.ModifyAckDeadlineRequest) error {
	if f.modack == nil {
		return nil
	}
	return f.modack(ctx, req)
}

func (f *fakeStub) Close(context.Context) error { return nil }

func newTestScheduler(t *testing.T) *scheduler.Scheduler {
	t.Helper()
	sched, err := scheduler.New(8)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, sched.Shutdown(ctx))
	})
	return sched
}

// goroutineID distinguishes execution contexts in the worker-affinity
// tests; the engines guarantee results and handlers never run on the
// caller's goroutine.
func goroutineID() string {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	return strings.Fields(string(buf[:n]))[1]
}
