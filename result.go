package pubsub

import "context"

// PublishResult is the single-assignment result slot of one Publish
// call. It becomes ready exactly once, with either the service-assigned
// message id or an error.
type PublishResult struct {
	ready chan struct{}
	id    string
	err   error
}

func newPublishResult() *PublishResult {
	return &PublishResult{ready: make(chan struct{})}
}

func resolvedPublishResult(id string, err error) *PublishResult {
	r := newPublishResult()
	r.set(id, err)
	return r
}

// Ready is closed once the result is available.
func (r *PublishResult) Ready() <-chan struct{} { return r.ready }

// Get blocks until the result is available or ctx is done.
func (r *PublishResult) Get(ctx context.Context) (string, error) {
	select {
	case <-r.ready:
		return r.id, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// set must be called exactly once.
func (r *PublishResult) set(id string, err error) {
	r.id = id
	r.err = err
	close(r.ready)
}
