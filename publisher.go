package pubsub

import (
	"context"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// pendingPublish is one caller's request: its message, the byte size
// counted against the batch and flow limits, and its result slot.
type pendingPublish struct {
	msg  *Message
	size int
	res  *PublishResult
}

// pendingBatch accumulates entries until a flush trigger fires. The
// generation tags the hold timer so a stale timer firing after an
// early flush is a no-op.
type pendingBatch struct {
	gen       uint64
	entries   []*pendingPublish
	bytes     int
	stopTimer func() bool
}

// Publisher is the batching publish engine for one topic. It is safe
// for concurrent use by any number of goroutines until Stop.
type Publisher struct {
	topic  Topic
	cfg    BatchingConfig
	stub   TransportStub
	sched  Scheduler
	logger *zap.Logger
	flow   *flowController

	mu      sync.Mutex
	batch   *pendingBatch
	gen     uint64
	stopped bool

	inflight sync.WaitGroup
}

// NewPublisher creates a batching publisher for topic. The transport
// stub and scheduler are injected collaborators; the publisher issues
// all transport calls and result resolutions on scheduler workers.
func NewPublisher(topic Topic, cfg BatchingConfig, stub TransportStub, sched Scheduler, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		topic:  topic,
		cfg:    cfg,
		stub:   stub,
		sched:  sched,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.flow = newFlowController(cfg.MaxOutstandingMessages, cfg.MaxOutstandingBytes, cfg.LimitExceededBehavior)
	return p
}

// Publish appends msg to the current batch and returns its result
// slot. The result resolves on a scheduler worker, never on the
// caller's goroutine, so a caller may hold locks while awaiting it.
// ctx bounds only flow-control blocking, not the batch call itself.
func (p *Publisher) Publish(ctx context.Context, msg *Message) *PublishResult {
	size := msg.size()
	if err := p.flow.acquire(ctx, size); err != nil {
		return resolvedPublishResult("", err)
	}
	entry := &pendingPublish{msg: msg, size: size, res: newPublishResult()}

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		p.flow.release(size)
		return resolvedPublishResult("", ErrPublisherStopped)
	}

	// At most two batches leave the lock: the current one when the new
	// entry would straddle the byte limit, and the fresh one when a
	// post-insert trigger fires.
	var ready []*pendingBatch
	if p.batch != nil && p.cfg.wouldOverflow(p.batch.bytes, size) {
		ready = append(ready, p.takeLocked())
	}
	b := p.currentLocked()
	b.entries = append(b.entries, entry)
	b.bytes += size
	if len(b.entries) == 1 && p.cfg.MaxHoldTime > 0 {
		gen := b.gen
		b.stopTimer = p.sched.ScheduleAfter(p.cfg.MaxHoldTime, func() { p.holdExpired(gen) })
	}
	if p.cfg.flushAfterInsert(len(b.entries), b.bytes) {
		ready = append(ready, p.takeLocked())
	}
	p.mu.Unlock()

	for _, rb := range ready {
		p.send(rb)
	}
	return entry.res
}

// Stop flushes any non-empty batch, cancels the pending hold timer and
// waits, bounded by ctx, for in-flight batch calls to resolve.
// Publish calls made after Stop fail with ErrPublisherStopped.
func (p *Publisher) Stop(ctx context.Context) error {
	p.mu.Lock()
	already := p.stopped
	p.stopped = true
	b := p.takeLocked()
	p.mu.Unlock()
	if !already {
		p.send(b)
	}

	done := make(chan struct{})
	p.sched.Go(func() {
		p.inflight.Wait()
		close(done)
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (p *Publisher) currentLocked() *pendingBatch {
	if p.batch == nil {
		p.gen++
		p.batch = &pendingBatch{gen: p.gen}
	}
	return p.batch
}

// takeLocked detaches the current batch, stops its hold timer and
// registers the batch as in-flight while still under the mutex, so a
// concurrent Stop can never observe a detached batch as already done.
// The caller must send the returned batch after releasing the mutex.
func (p *Publisher) takeLocked() *pendingBatch {
	b := p.batch
	p.batch = nil
	if b != nil && b.stopTimer != nil {
		b.stopTimer()
		b.stopTimer = nil
	}
	if b != nil && len(b.entries) > 0 {
		p.inflight.Add(1)
	}
	return b
}

func (p *Publisher) holdExpired(gen uint64) {
	p.mu.Lock()
	if p.batch == nil || p.batch.gen != gen {
		// Flushed early; stale timer.
		p.mu.Unlock()
		return
	}
	b := p.takeLocked()
	p.mu.Unlock()
	p.send(b)
}

// send issues a batch detached by takeLocked; it owns the in-flight
// Done acquired there.
func (p *Publisher) send(b *pendingBatch) {
	if b == nil || len(b.entries) == 0 {
		return
	}
	p.sched.Go(func() {
		defer p.inflight.Done()
		p.sendBatch(b)
	})
}

// sendBatch runs on a scheduler worker: one transport call per batch,
// then fan the response back out to every entry in submission order.
func (p *Publisher) sendBatch(b *pendingBatch) {
	ctx := context.Background()
	req := &PublishBatchRequest{
		Topic: p.topic.FullName(),
		Messages: lo.Map(b.entries, func(e *pendingPublish, _ int) *Message {
			return e.msg
		}),
	}
	recordBatchSent(ctx, p.topic.FullName(), len(b.entries))

	resp, err := p.stub.PublishBatch(ctx, req)
	if err == nil {
		// A nil response counts as zero ids; the stub misbehaving must
		// not escape as a panic.
		var received []string
		if resp != nil {
			received = resp.MessageIDs
		}
		if len(received) != len(b.entries) {
			err = errMismatchedResponse(len(b.entries), len(received))
		}
	}
	if err != nil {
		p.logger.Warn("publish batch failed",
			zap.String("topic", p.topic.FullName()),
			zap.Int("messages", len(b.entries)),
			zap.Error(err))
		p.resolve(b, nil, err)
		return
	}
	p.resolve(b, resp.MessageIDs, nil)
}

// resolve settles every entry's result slot: one batch outcome applies
// to all entries identically, or ids are assigned by position.
func (p *Publisher) resolve(b *pendingBatch, ids []string, err error) {
	for i, e := range b.entries {
		if err != nil {
			e.res.set("", err)
		} else {
			e.res.set(ids[i], nil)
		}
		p.flow.release(e.size)
	}
	recordPublished(context.Background(), p.topic.FullName(), len(b.entries), err)
}
