package pubsub

import "go.uber.org/zap"

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithPublisherLogger sets the logger used for batch failures. The
// default is a no-op logger.
func WithPublisherLogger(logger *zap.Logger) PublisherOption {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionLogger sets the logger used for retries, ack failures and
// handler panics. The default is a no-op logger.
func WithSessionLogger(logger *zap.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPullConcurrency sets how many pull calls the session keeps in
// flight. The default is 1.
func WithPullConcurrency(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.pullers = n
		}
	}
}

// WithMaxPullMessages caps the messages requested per pull call. The
// default is 100.
func WithMaxPullMessages(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.maxMessages = n
		}
	}
}

// WithPullRetry sets the backoff policy applied between retryable pull
// failures.
func WithPullRetry(policy RetryPolicy) SessionOption {
	return func(s *Session) {
		s.retry = policy.normalized()
	}
}

// WithRetryable replaces the predicate deciding whether a pull failure
// is retried or terminates the session. The default is
// DefaultRetryable.
func WithRetryable(fn func(error) bool) SessionOption {
	return func(s *Session) {
		if fn != nil {
			s.retryable = fn
		}
	}
}
