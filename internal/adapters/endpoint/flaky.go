package endpoint

import (
	"context"
	"log/slog"
	"sync"

	"formgate/internal/domain/submission"
)

// FlakySubmitter wraps another Submitter and rejects the first N attempts
// for each idempotency key with a transient 503-equivalent error. The
// failure counters are owned by the instance, so each test or dev-mode
// server gets its own deterministic failure script.
type FlakySubmitter struct {
	next     Submitter
	failures int

	mu   sync.Mutex
	seen map[string]int
}

// NewFlakySubmitter creates a decorator failing the first `failures`
// attempts per idempotency key.
// PRE: next is non-nil; failures >= 0
// POST: Returns a ready-to-use decorator with empty counters
func NewFlakySubmitter(next Submitter, failures int) *FlakySubmitter {
	return &FlakySubmitter{
		next:     next,
		failures: failures,
		seen:     make(map[string]int),
	}
}

// Submit injects transient failures, then delegates.
// PRE: req.IdempotencyKey is non-empty
// POST: Attempts 1..failures per key return a retryable error; later
// attempts pass through to the wrapped submitter
func (s *FlakySubmitter) Submit(ctx context.Context, req Request) (submission.Receipt, error) {
	s.mu.Lock()
	attempt := s.seen[req.IdempotencyKey]
	if attempt < s.failures {
		s.seen[req.IdempotencyKey] = attempt + 1
		s.mu.Unlock()
		slog.Info("flaky_injected_failure", "idempotency_key", req.IdempotencyKey, "attempt", attempt+1)
		return submission.Receipt{}, submission.Unavailable("service temporarily unavailable")
	}
	s.mu.Unlock()
	return s.next.Submit(ctx, req)
}
