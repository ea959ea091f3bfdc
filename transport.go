package pubsub

import (
	"context"
	"time"
)

// TransportStub exposes the four service operations the runtime needs.
// Implementations must be safe for concurrent use. The engines invoke
// every method on a Scheduler worker, never on a caller's goroutine.
type TransportStub interface {
	PublishBatch(ctx context.Context, req *PublishBatchRequest) (*PublishBatchResponse, error)
	Pull(ctx context.Context, req *PullRequest) ([]*PulledMessage, error)
	Acknowledge(ctx context.Context, req *AcknowledgeRequest) error
	ModifyAckDeadline(ctx context.Context, req *ModifyAckDeadlineRequest) error
	Close(ctx context.Context) error
}

// PublishBatchRequest carries one batch of messages for a topic.
// Messages keep caller submission order.
type PublishBatchRequest struct {
	Topic    string
	Messages []*Message
}

// PublishBatchResponse holds the service-assigned message ids, one per
// request message, in request order.
type PublishBatchResponse struct {
	MessageIDs []string
}

type PullRequest struct {
	Subscription string
	MaxMessages  int
}

// PulledMessage is one delivered message plus the opaque token used to
// acknowledge it or modify its ack deadline.
type PulledMessage struct {
	AckID           string
	ID              string
	Data            []byte
	Attributes      map[string]string
	OrderingKey     string
	PublishTime     time.Time
	DeliveryAttempt int
}

type AcknowledgeRequest struct {
	Subscription string
	AckIDs       []string
}

// ModifyAckDeadlineRequest extends (or, with a zero deadline, gives up)
// the delivery lease on the named messages.
type ModifyAckDeadlineRequest struct {
	Subscription string
	AckIDs       []string
	AckDeadline  time.Duration
}
