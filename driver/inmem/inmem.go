// Package inmem implements pubsub.TransportStub in memory, for tests
// and examples. Nacked messages are redelivered with an incremented
// delivery attempt; deadline extension is accepted and otherwise
// ignored (leases are not timed out locally).
package inmem

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	pubsub "github.com/infigaming-com/go-pubsub"
)

var (
	ErrClosed         = errors.New("inmem: transport closed")
	ErrNoSubscription = errors.New("inmem: unknown subscription")
)

type Transport struct {
	mu      sync.Mutex
	subs    map[string]*queue   // by subscription full name
	byTopic map[string][]*queue // by topic full name
	closed  bool
}

type queue struct {
	pending     []*pubsub.PulledMessage
	outstanding map[string]*pubsub.PulledMessage // by ack id
	notify      chan struct{}
}

func New() *Transport {
	return &Transport{
		subs:    map[string]*queue{},
		byTopic: map[string][]*queue{},
	}
}

// CreateSubscription binds a subscription to a topic. Messages
// published to the topic from now on are delivered to it.
func (t *Transport) CreateSubscription(topic, subscription string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.subs[subscription]; ok {
		return
	}
	q := &queue{
		outstanding: map[string]*pubsub.PulledMessage{},
		notify:      make(chan struct{}, 1),
	}
	t.subs[subscription] = q
	t.byTopic[topic] = append(t.byTopic[topic], q)
}

func (t *Transport) PublishBatch(ctx context.Context, req *pubsub.PublishBatchRequest) (*pubsub.PublishBatchResponse, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrClosed
	}
	ids := make([]string, 0, len(req.Messages))
	now := time.Now()
	for _, m := range req.Messages {
		id := uuid.NewString()
		ids = append(ids, id)
		for _, q := range t.byTopic[req.Topic] {
			q.push(&pubsub.PulledMessage{
				AckID:           uuid.NewString(),
				ID:              id,
				Data:            append([]byte(nil), m.Data...),
				Attributes:      cloneMap(m.Attributes),
				OrderingKey:     m.OrderingKey,
				PublishTime:     now,
				DeliveryAttempt: 1,
			})
		}
	}
	return &pubsub.PublishBatchResponse{MessageIDs: ids}, nil
}

func (t *Transport) Pull(ctx context.Context, req *pubsub.PullRequest) ([]*pubsub.PulledMessage, error) {
	for {
		t.mu.Lock()
		if t.closed {
			t.mu.Unlock()
			return nil, ErrClosed
		}
		q, ok := t.subs[req.Subscription]
		if !ok {
			t.mu.Unlock()
			return nil, ErrNoSubscription
		}
		if len(q.pending) > 0 {
			n := req.MaxMessages
			if n <= 0 || n > len(q.pending) {
				n = len(q.pending)
			}
			out := q.pending[:n:n]
			q.pending = q.pending[n:]
			for _, m := range out {
				q.outstanding[m.AckID] = m
			}
			t.mu.Unlock()
			return out, nil
		}
		notify := q.notify
		t.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-notify:
		}
	}
}

func (t *Transport) Acknowledge(ctx context.Context, req *pubsub.AcknowledgeRequest) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	q, ok := t.subs[req.Subscription]
	if !ok {
		return ErrNoSubscription
	}
	for _, id := range req.AckIDs {
		delete(q.outstanding, id)
	}
	return nil
}

// ModifyAckDeadline with a zero deadline is a nack: the message goes
// back on the queue with a fresh ack id and a bumped delivery attempt.
func (t *Transport) ModifyAckDeadline(ctx context.Context, req *pubsub.ModifyAckDeadlineRequest) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	q, ok := t.subs[req.Subscription]
	if !ok {
		return ErrNoSubscription
	}
	if req.AckDeadline > 0 {
		return nil
	}
	for _, id := range req.AckIDs {
		m, ok := q.outstanding[id]
		if !ok {
			continue
		}
		delete(q.outstanding, id)
		redelivery := *m
		redelivery.AckID = uuid.NewString()
		redelivery.DeliveryAttempt = m.DeliveryAttempt + 1
		q.push(&redelivery)
	}
	return nil
}

func (t *Transport) Close(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	// Closing notify wakes every blocked Pull; pushes are guarded by
	// the closed flag so they never send on a closed channel.
	for _, q := range t.subs {
		close(q.notify)
	}
	return nil
}

// push appends under the transport mutex and wakes one waiting pull.
func (q *queue) push(m *pubsub.PulledMessage) {
	q.pending = append(q.pending, m)
	q.wake()
}

func (q *queue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func cloneMap(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
