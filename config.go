package pubsub

import "time"

// LimitExceededBehavior selects what Publish does once an outstanding
// limit is reached.
type LimitExceededBehavior int

const (
	// FlowControlBlock makes Publish wait (ctx-bounded) for capacity.
	FlowControlBlock LimitExceededBehavior = iota
	// FlowControlSignalError resolves the result immediately with
	// ErrMaxOutstandingMessages or ErrMaxOutstandingBytes.
	FlowControlSignalError
	// FlowControlIgnore disables the outstanding limits.
	FlowControlIgnore
)

// BatchingConfig controls when a publisher flushes its pending batch
// and how much unresolved work callers may accumulate.
//
// A zero MaxHoldTime means flush on every Publish, never hold. Zero
// MaxMessages or MaxBytes likewise degenerate to flush-per-call.
type BatchingConfig struct {
	// MaxMessages flushes the batch once it holds this many entries.
	MaxMessages int
	// MaxBytes flushes the batch once its cumulative payload size
	// reaches this many bytes.
	MaxBytes int
	// MaxHoldTime flushes the batch this long after its first entry
	// was appended, whichever trigger fires first.
	MaxHoldTime time.Duration

	// MaxOutstandingMessages and MaxOutstandingBytes bound the
	// publishes accepted but not yet resolved. Zero means unlimited.
	MaxOutstandingMessages int
	MaxOutstandingBytes    int
	LimitExceededBehavior  LimitExceededBehavior
}

// DefaultBatchingConfig matches the service's customary client
// defaults: 100 messages, 1e6 bytes, 10ms hold.
func DefaultBatchingConfig() BatchingConfig {
	return BatchingConfig{
		MaxMessages: 100,
		MaxBytes:    1e6,
		MaxHoldTime: 10 * time.Millisecond,
	}
}

// flushAfterInsert reports whether the batch must flush immediately
// after an entry was appended, leaving only the hold timer otherwise.
func (c BatchingConfig) flushAfterInsert(count, bytes int) bool {
	if c.MaxMessages <= 0 || count >= c.MaxMessages {
		return true
	}
	if c.MaxBytes <= 0 || bytes >= c.MaxBytes {
		return true
	}
	return c.MaxHoldTime <= 0
}

// wouldOverflow reports whether appending size more bytes must flush
// the current non-empty batch first, so an entry never straddles the
// byte limit.
func (c BatchingConfig) wouldOverflow(bytes, size int) bool {
	return c.MaxBytes > 0 && bytes > 0 && bytes+size > c.MaxBytes
}
