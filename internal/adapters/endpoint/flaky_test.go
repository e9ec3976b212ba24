package endpoint

import (
	"context"
	"testing"
	"time"

	"formgate/internal/domain/submission"
)

// stubSubmitter always succeeds and counts calls.
type stubSubmitter struct {
	calls int
}

// Submit returns a fixed receipt.
// PRE: none
// POST: calls incremented
func (s *stubSubmitter) Submit(_ context.Context, _ Request) (submission.Receipt, error) {
	s.calls++
	return submission.Receipt{ID: "rec-1", ReceivedAt: time.Now()}, nil
}

func TestFlakyFailsFirstNAttemptsPerKey(t *testing.T) {
	inner := &stubSubmitter{}
	flaky := NewFlakySubmitter(inner, 2)
	req := Request{IdempotencyKey: "k1"}

	for i := 0; i < 2; i++ {
		_, err := flaky.Submit(context.Background(), req)
		if err == nil {
			t.Fatalf("attempt %d: expected injected failure", i+1)
		}
		if !submission.IsRetryable(err) {
			t.Errorf("attempt %d: injected failure must be retryable, got %v", i+1, err)
		}
	}
	if inner.calls != 0 {
		t.Errorf("inner submitter reached too early: %d calls", inner.calls)
	}

	rcpt, err := flaky.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("third attempt should pass through: %v", err)
	}
	if rcpt.ID != "rec-1" || inner.calls != 1 {
		t.Errorf("expected delegation on third attempt, got %+v (%d inner calls)", rcpt, inner.calls)
	}
}

func TestFlakyCountersAreIndependentPerKey(t *testing.T) {
	inner := &stubSubmitter{}
	flaky := NewFlakySubmitter(inner, 1)

	if _, err := flaky.Submit(context.Background(), Request{IdempotencyKey: "a"}); err == nil {
		t.Fatal("first attempt for key a should fail")
	}
	if _, err := flaky.Submit(context.Background(), Request{IdempotencyKey: "b"}); err == nil {
		t.Fatal("first attempt for key b should fail independently")
	}
	if _, err := flaky.Submit(context.Background(), Request{IdempotencyKey: "a"}); err != nil {
		t.Fatalf("second attempt for key a should pass: %v", err)
	}
}

func TestFlakyZeroFailuresPassesThrough(t *testing.T) {
	inner := &stubSubmitter{}
	flaky := NewFlakySubmitter(inner, 0)
	if _, err := flaky.Submit(context.Background(), Request{IdempotencyKey: "k"}); err != nil {
		t.Fatalf("expected pass-through, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 inner call, got %d", inner.calls)
	}
}
