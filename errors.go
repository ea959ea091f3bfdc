package pubsub

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrPublisherStopped is resolved into results of Publish calls
	// made after Stop. Publishing on a stopped engine is a caller
	// error, not a retryable condition.
	ErrPublisherStopped = errors.New("pubsub: publisher stopped")

	// ErrMaxOutstandingMessages and ErrMaxOutstandingBytes reject a
	// Publish under FlowControlSignalError once the corresponding
	// outstanding limit is reached.
	ErrMaxOutstandingMessages = errors.New("pubsub: maximum outstanding messages exceeded")
	ErrMaxOutstandingBytes    = errors.New("pubsub: maximum outstanding bytes exceeded")
)

// errMismatchedResponse is the single canonical error for a successful
// publish call whose response shape violates the protocol. Transport
// errors are never rewritten; this is the only place response-shape
// validation happens.
func errMismatchedResponse(sent, received int) error {
	return status.Errorf(codes.Unknown,
		"pubsub: mismatched message id count: sent %d messages, received %d ids", sent, received)
}
