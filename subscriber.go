package pubsub

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Handler processes one delivered message. It runs on a scheduler
// worker, and distinct messages may be handled concurrently; handlers
// must not assume serialized delivery. Settle the message with Ack or
// Nack before returning; a message left unsettled is nacked.
type Handler interface {
	Handle(ctx context.Context, m *ReceivedMessage)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, *ReceivedMessage)

func (f HandlerFunc) Handle(ctx context.Context, m *ReceivedMessage) { f(ctx, m) }

// Session is one live subscribe call: pull loops feeding a handler,
// live-message accounting, and a terminal result slot resolved exactly
// once.
//
// Cancellation is cooperative. Cancel stops new pulls; messages
// already dispatched finish, their ack calls are issued, and only then
// does the terminal slot resolve. A non-retryable pull failure takes
// the same drain path with that failure as the terminal status.
type Session struct {
	subscription Subscription
	stub         TransportStub
	sched        Scheduler
	handler      Handler
	logger       *zap.Logger
	pullers      int
	maxMessages  int
	retry        RetryPolicy
	retryable    func(error) bool

	baseCtx     context.Context
	pullCtx     context.Context
	cancelPulls context.CancelFunc

	pullWG sync.WaitGroup // pull loops still running
	live   sync.WaitGroup // messages dispatched, not yet settled
	acks   sync.WaitGroup // ack/modack calls in flight

	mu  sync.Mutex
	err error

	done chan struct{}
}

// NewSession starts pulling from sub and dispatching every received
// message to h on scheduler workers. ctx is the parent for all
// transport calls; canceling it behaves like Cancel.
func NewSession(ctx context.Context, sub Subscription, stub TransportStub, sched Scheduler, h Handler, opts ...SessionOption) *Session {
	if ctx == nil {
		ctx = context.Background()
	}
	s := &Session{
		subscription: sub,
		stub:         stub,
		sched:        sched,
		handler:      h,
		logger:       zap.NewNop(),
		pullers:      1,
		maxMessages:  100,
		retry:        RetryPolicy{}.normalized(),
		retryable:    DefaultRetryable,
		baseCtx:      ctx,
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.pullCtx, s.cancelPulls = context.WithCancel(ctx)

	s.pullWG.Add(s.pullers)
	for i := 0; i < s.pullers; i++ {
		s.sched.Go(s.pullLoop)
	}
	s.sched.Go(s.supervise)
	return s
}

// Cancel requests cooperative shutdown: no new pulls are issued, but
// in-flight handlers and their ack calls run to completion.
func (s *Session) Cancel() { s.cancelPulls() }

// Done is closed once the session has terminated.
func (s *Session) Done() <-chan struct{} { return s.done }

// Wait blocks until the session terminates and returns its final
// status: nil after a clean cancellation, or the pull failure that
// ended it early.
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return s.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the terminal status recorded so far.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// fail records the first terminal error and stops new pulls; draining
// proceeds as for cancellation.
func (s *Session) fail(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
	s.cancelPulls()
}

// supervise resolves the terminal slot after the drain sequence: pull
// loops first (no new live entries after that), then live messages,
// then in-flight ack calls.
func (s *Session) supervise() {
	s.pullWG.Wait()
	s.live.Wait()
	s.acks.Wait()
	close(s.done)
}

func (s *Session) pullLoop() {
	defer s.pullWG.Done()
	bo := &exponential{policy: s.retry}
	name := s.subscription.FullName()
	for {
		if s.pullCtx.Err() != nil {
			return
		}
		msgs, err := s.stub.Pull(s.pullCtx, &PullRequest{Subscription: name, MaxMessages: s.maxMessages})
		if err != nil {
			if s.pullCtx.Err() != nil {
				// Cancel-requested; not a session failure.
				return
			}
			if !s.retryable(err) {
				s.fail(err)
				return
			}
			delay := bo.Next()
			s.logger.Warn("pull retry",
				zap.String("subscription", name),
				zap.Duration("delay", delay),
				zap.Error(err))
			t := time.NewTimer(delay)
			select {
			case <-s.pullCtx.Done():
				t.Stop()
				return
			case <-t.C:
			}
			continue
		}
		bo.Reset()
		recordPulled(s.baseCtx, name, len(msgs))
		for _, pm := range msgs {
			m := &ReceivedMessage{
				ID:              pm.ID,
				Data:            pm.Data,
				Attributes:      pm.Attributes,
				OrderingKey:     pm.OrderingKey,
				PublishTime:     pm.PublishTime,
				DeliveryAttempt: pm.DeliveryAttempt,
				ackID:           pm.AckID,
				session:         s,
			}
			s.live.Add(1)
			s.sched.Go(func() { s.dispatch(m) })
		}
	}
}

// dispatch runs the handler for one message on a scheduler worker. The
// handler sees the session's parent context, not the pull context, so
// cancellation never interrupts a handler already running.
func (s *Session) dispatch(m *ReceivedMessage) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("handler panic",
				zap.String("subscription", s.subscription.FullName()),
				zap.String("message", m.ID),
				zap.Any("panic", r))
		}
		// No-op when the handler already settled the message.
		m.Nack()
	}()
	s.handler.Handle(s.baseCtx, m)
}

// ack issues the acknowledge call fire-and-forget and releases the
// message from live accounting. Failures are logged only; the service
// redelivers.
func (s *Session) ack(ackID string) {
	name := s.subscription.FullName()
	s.acks.Add(1)
	s.sched.Go(func() {
		defer s.acks.Done()
		req := &AcknowledgeRequest{Subscription: name, AckIDs: []string{ackID}}
		if err := s.stub.Acknowledge(s.baseCtx, req); err != nil {
			s.logger.Warn("acknowledge failed",
				zap.String("subscription", name),
				zap.String("ack_id", ackID),
				zap.Error(err))
		}
	})
	recordSettled(s.baseCtx, name, true)
	s.live.Done()
}

// nack gives the lease back immediately via a zero-deadline modify.
func (s *Session) nack(ackID string) {
	s.modifyAckDeadline(ackID, 0)
	recordSettled(s.baseCtx, s.subscription.FullName(), false)
	s.live.Done()
}

// extend is non-terminal: the message stays live.
func (s *Session) extend(ackID string, d time.Duration) {
	s.modifyAckDeadline(ackID, d)
}

func (s *Session) modifyAckDeadline(ackID string, d time.Duration) {
	name := s.subscription.FullName()
	s.acks.Add(1)
	s.sched.Go(func() {
		defer s.acks.Done()
		req := &ModifyAckDeadlineRequest{Subscription: name, AckIDs: []string{ackID}, AckDeadline: d}
		if err := s.stub.ModifyAckDeadline(s.baseCtx, req); err != nil {
			s.logger.Warn("modify ack deadline failed",
				zap.String("subscription", name),
				zap.String("ack_id", ackID),
				zap.Duration("deadline", d),
				zap.Error(err))
		}
	})
}
