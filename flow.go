package pubsub

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// flowController enforces the caller-side outstanding limits of a
// publisher. Capacity is acquired before an entry joins the batch and
// released when its result resolves.
type flowController struct {
	behavior LimitExceededBehavior
	msgs     *semaphore.Weighted // nil when unlimited
	bytes    *semaphore.Weighted
	maxBytes int64
}

func newFlowController(maxMessages, maxBytes int, behavior LimitExceededBehavior) *flowController {
	fc := &flowController{behavior: behavior, maxBytes: int64(maxBytes)}
	if maxMessages > 0 {
		fc.msgs = semaphore.NewWeighted(int64(maxMessages))
	}
	if maxBytes > 0 {
		fc.bytes = semaphore.NewWeighted(int64(maxBytes))
	}
	return fc
}

func (f *flowController) acquire(ctx context.Context, size int) error {
	if f.behavior == FlowControlIgnore {
		return nil
	}
	switch f.behavior {
	case FlowControlSignalError:
		if f.msgs != nil && !f.msgs.TryAcquire(1) {
			return ErrMaxOutstandingMessages
		}
		if f.bytes != nil && !f.bytes.TryAcquire(f.weight(size)) {
			if f.msgs != nil {
				f.msgs.Release(1)
			}
			return ErrMaxOutstandingBytes
		}
	default:
		if f.msgs != nil {
			if err := f.msgs.Acquire(ctx, 1); err != nil {
				return err
			}
		}
		if f.bytes != nil {
			if err := f.bytes.Acquire(ctx, f.weight(size)); err != nil {
				if f.msgs != nil {
					f.msgs.Release(1)
				}
				return err
			}
		}
	}
	return nil
}

func (f *flowController) release(size int) {
	if f.behavior == FlowControlIgnore {
		return
	}
	if f.msgs != nil {
		f.msgs.Release(1)
	}
	if f.bytes != nil {
		f.bytes.Release(f.weight(size))
	}
}

// weight caps a single message at the semaphore's capacity so an
// oversized message still makes progress instead of deadlocking.
func (f *flowController) weight(size int) int64 {
	w := int64(size)
	if w > f.maxBytes {
		w = f.maxBytes
	}
	if w < 1 {
		w = 1
	}
	return w
}
