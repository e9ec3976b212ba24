package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"formgate/internal/adapters/endpoint"
	"formgate/internal/domain/form"
	"formgate/internal/domain/submission"
	"formgate/internal/observability"
)

// SubmissionController drives one logical form submission to completion
// against an unreliable remote intake endpoint, retrying transient failures
// up to the configured budget with a fixed delay between attempts.
//
// At most one submission cycle runs at a time per controller. A Submit call
// made while a cycle is in flight is dropped silently: it returns the zero
// Receipt and a nil error without touching the in-flight cycle, and callers
// should observe State() instead. Reset is likewise a no-op while a cycle
// is in flight.
//
// Each accepted cycle is tagged with a fresh idempotency key that is reused
// across every retry of that cycle, so the endpoint can deduplicate attempts
// it already processed despite a client-observed failure.
type SubmissionController struct {
	submitter endpoint.Submitter
	cfg       submission.Config

	// Injected for tests; default to uuid generation and a context-aware
	// timer wait.
	generateID func() string
	sleep      func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	inFlight bool
	state    submission.State
}

// NewSubmissionController creates a controller with the given endpoint and
// retry policy.
// PRE: submitter is non-nil
// POST: Controller starts Idle with no submission in flight
func NewSubmissionController(submitter endpoint.Submitter, cfg submission.Config) *SubmissionController {
	return &SubmissionController{
		submitter:  submitter,
		cfg:        cfg.Normalize(),
		generateID: uuid.NewString,
		sleep:      sleepContext,
		state:      submission.State{Status: submission.StatusIdle},
	}
}

// sleepContext waits for d or until ctx is canceled.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Submit runs one full attempt cycle for the given form: an initial attempt
// plus up to MaxRetries retries, waiting RetryDelay before each retry. The
// terminal outcome is both recorded in the observable state and returned,
// so the polled state and the error channel converge on the same
// information.
// PRE: f has been validated by the caller
// POST: Guard is released whatever the outcome; state is terminal (Success
// or Error) unless the call was dropped as a duplicate
func (c *SubmissionController) Submit(ctx context.Context, f form.Submission) (submission.Receipt, error) {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		observability.SubmissionsDropped.Inc()
		slog.Debug("submission_dropped", "reason", "in_flight")
		return submission.Receipt{}, nil
	}
	c.inFlight = true
	c.state = submission.State{Status: submission.StatusPending}
	c.mu.Unlock()

	// The guard must never stay held after the cycle ends; a stuck guard
	// would lock the controller forever.
	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	key := c.generateID()
	start := time.Now()
	observability.SubmissionsAccepted.Inc()
	slog.Info("submission_accepted", "idempotency_key", key)

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			c.setRetrying(attempt)
			observability.SubmissionRetries.Inc()
			slog.Info("submission_retrying",
				"idempotency_key", key, "attempt", attempt, "delay", c.cfg.RetryDelay)
			if err := c.sleep(ctx, c.cfg.RetryDelay); err != nil {
				lastErr = fmt.Errorf("retry delay interrupted: %w", err)
				break
			}
		}

		observability.SubmissionAttempts.Inc()
		rcpt, err := c.submitter.Submit(ctx, endpoint.Request{IdempotencyKey: key, Form: f})
		if err == nil {
			c.setSuccess(rcpt)
			observability.SubmissionsCompleted.WithLabelValues("success").Inc()
			observability.SubmissionDuration.Observe(time.Since(start).Seconds())
			slog.Info("submission_succeeded",
				"idempotency_key", key, "receipt_id", rcpt.ID, "attempts", attempt+1)
			return rcpt, nil
		}

		if submission.IsRetryable(err) && attempt < c.cfg.MaxRetries {
			slog.Warn("submission_attempt_failed",
				"idempotency_key", key, "attempt", attempt, "error", err.Error())
			lastErr = err
			continue
		}

		lastErr = err
		break
	}

	c.setError(lastErr)
	observability.SubmissionsCompleted.WithLabelValues("error").Inc()
	observability.SubmissionDuration.Observe(time.Since(start).Seconds())
	slog.Error("submission_failed", "idempotency_key", key, "error", lastErr.Error())
	return submission.Receipt{}, lastErr
}

// Reset returns the controller to Idle, clearing the attempt count and the
// last result/error. It is a no-op while a cycle is in flight.
// PRE: none
// POST: Status is Idle with transient fields cleared, unless in flight
func (c *SubmissionController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		slog.Debug("reset_ignored", "reason", "in_flight")
		return
	}
	c.state = submission.State{Status: submission.StatusIdle}
}

// State returns a snapshot of the observable submission state.
func (c *SubmissionController) State() submission.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	if s.LastResult != nil {
		r := *s.LastResult
		s.LastResult = &r
	}
	return s
}

// setRetrying marks the start of retry number `attempt`.
func (c *SubmissionController) setRetrying(attempt int) {
	c.mu.Lock()
	c.state.Status = submission.StatusRetrying
	c.state.AttemptCount = attempt
	c.mu.Unlock()
}

// setSuccess records the terminal success state.
func (c *SubmissionController) setSuccess(rcpt submission.Receipt) {
	c.mu.Lock()
	c.state.Status = submission.StatusSuccess
	c.state.LastResult = &rcpt
	c.state.LastError = ""
	c.mu.Unlock()
}

// setError records the terminal failure state.
func (c *SubmissionController) setError(err error) {
	c.mu.Lock()
	c.state.Status = submission.StatusError
	c.state.LastError = err.Error()
	c.state.LastResult = nil
	c.mu.Unlock()
}
