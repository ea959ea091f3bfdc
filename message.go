package pubsub

import (
	"sync"
	"sync/atomic"
	"time"
)

// Message is the payload of one Publish call.
type Message struct {
	Data        []byte
	Attributes  map[string]string
	OrderingKey string
}

// size is the byte footprint counted against the batch and
// flow-control limits.
func (m *Message) size() int {
	n := len(m.Data) + len(m.OrderingKey)
	for k, v := range m.Attributes {
		n += len(k) + len(v)
	}
	return n
}

// ReceivedMessage is one delivered message handed to a session Handler.
// Ack and Nack are terminal and once-guarded; whichever runs first
// wins, and both release the message from the session's live
// accounting. A handler that returns without calling either is nacked
// by the session. Extend prolongs the delivery lease without settling
// the message.
type ReceivedMessage struct {
	ID              string
	Data            []byte
	Attributes      map[string]string
	OrderingKey     string
	PublishTime     time.Time
	DeliveryAttempt int

	ackID   string
	session *Session
	settle  sync.Once
	settled atomic.Bool
}

// AckID returns the service-assigned acknowledgment token.
func (m *ReceivedMessage) AckID() string { return m.ackID }

// Ack acknowledges the message. The transport call is issued
// fire-and-forget; a failure is logged and the service redelivers.
func (m *ReceivedMessage) Ack() {
	m.settle.Do(func() {
		m.settled.Store(true)
		m.session.ack(m.ackID)
	})
}

// Nack gives up the delivery lease so the service redelivers promptly.
func (m *ReceivedMessage) Nack() {
	m.settle.Do(func() {
		m.settled.Store(true)
		m.session.nack(m.ackID)
	})
}

// Extend pushes the ack deadline out by d. Once the message is settled
// the lease is no longer the handler's; Extend becomes a no-op so no
// modack call can race the session's drain accounting.
func (m *ReceivedMessage) Extend(d time.Duration) {
	if m.settled.Load() {
		return
	}
	m.session.extend(m.ackID, d)
}
