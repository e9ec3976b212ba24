package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	emailAdapter "formgate/internal/adapters/email"
	"formgate/internal/adapters/endpoint"
	"formgate/internal/domain/form"
	"formgate/internal/domain/intake"
)

// --- Mock intake store ---

type mockIntakeStore struct {
	byKey     map[string]intake.Record
	saveCalls int
}

func newMockIntakeStore() *mockIntakeStore {
	return &mockIntakeStore{byKey: make(map[string]intake.Record)}
}

// GetByIdempotencyKey returns the stored record for a key.
// PRE: key is non-empty
// POST: Returns the record or intake.ErrNotFound
func (m *mockIntakeStore) GetByIdempotencyKey(_ context.Context, key string) (intake.Record, error) {
	r, ok := m.byKey[key]
	if !ok {
		return intake.Record{}, intake.ErrNotFound
	}
	return r, nil
}

// Save stores a record keyed by its idempotency key.
// PRE: r has been validated
// POST: Record stored in map
func (m *mockIntakeStore) Save(_ context.Context, r intake.Record) error {
	m.saveCalls++
	m.byKey[r.IdempotencyKey] = r
	return nil
}

// --- Mock email sender ---

type mockSender struct {
	sent []emailAdapter.SendRequest
	err  error
}

// Send records the request and returns the configured error.
// PRE: req is populated
// POST: Request appended to sent
func (m *mockSender) Send(_ context.Context, req emailAdapter.SendRequest) (emailAdapter.SendResult, error) {
	m.sent = append(m.sent, req)
	if m.err != nil {
		return emailAdapter.SendResult{}, m.err
	}
	return emailAdapter.SendResult{MessageID: "msg-1", SentAt: time.Now()}, nil
}

func testReceiveDeps(store *mockIntakeStore, sender *mockSender) ReceiveSubmissionDeps {
	deps := ReceiveSubmissionDeps{
		IntakeStore: store,
		EmailFrom:   "Formgate <noreply@formgate.dev>",
		GenerateID:  func() string { return "rec-1" },
		Now:         func() time.Time { return time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC) },
	}
	if sender != nil {
		deps.EmailSender = sender
	}
	return deps
}

func testInput(key string) ReceiveSubmissionInput {
	return ReceiveSubmissionInput{
		IdempotencyKey: key,
		Form:           form.Submission{Name: "Ada", Email: "ada@example.com", Message: "hello"},
	}
}

// --- Tests ---

func TestReceiveNewSubmission(t *testing.T) {
	store := newMockIntakeStore()
	sender := &mockSender{}

	rcpt, err := ExecuteReceiveSubmission(context.Background(), testInput("k1"), testReceiveDeps(store, sender))
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	if rcpt.ID != "rec-1" {
		t.Errorf("expected receipt rec-1, got %q", rcpt.ID)
	}
	if store.saveCalls != 1 {
		t.Errorf("expected 1 save, got %d", store.saveCalls)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 confirmation email, got %d", len(sender.sent))
	}
	if sender.sent[0].To[0] != "ada@example.com" {
		t.Errorf("confirmation sent to %q", sender.sent[0].To[0])
	}
}

func TestReceiveDeduplicatesByIdempotencyKey(t *testing.T) {
	store := newMockIntakeStore()
	sender := &mockSender{}
	deps := testReceiveDeps(store, sender)

	first, err := ExecuteReceiveSubmission(context.Background(), testInput("k1"), deps)
	if err != nil {
		t.Fatalf("first receive failed: %v", err)
	}

	second, err := ExecuteReceiveSubmission(context.Background(), testInput("k1"), deps)
	if err != nil {
		t.Fatalf("duplicate receive failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("duplicate must map to the original record: %q vs %q", second.ID, first.ID)
	}
	if store.saveCalls != 1 {
		t.Errorf("duplicate must not save again, got %d saves", store.saveCalls)
	}
	if len(sender.sent) != 1 {
		t.Errorf("duplicate must not re-send confirmation, got %d emails", len(sender.sent))
	}
}

func TestReceiveRejectsMissingKey(t *testing.T) {
	deps := testReceiveDeps(newMockIntakeStore(), nil)
	_, err := ExecuteReceiveSubmission(context.Background(), testInput(""), deps)
	if !errors.Is(err, intake.ErrEmptyIdempotencyKey) {
		t.Errorf("expected ErrEmptyIdempotencyKey, got %v", err)
	}
}

func TestReceiveRejectsInvalidForm(t *testing.T) {
	deps := testReceiveDeps(newMockIntakeStore(), nil)
	input := testInput("k1")
	input.Form.Email = "not-an-email"
	_, err := ExecuteReceiveSubmission(context.Background(), input, deps)
	if !errors.Is(err, form.ErrInvalidEmail) {
		t.Errorf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestConfirmationFailureDoesNotFailIntake(t *testing.T) {
	store := newMockIntakeStore()
	sender := &mockSender{err: errors.New("provider down")}

	rcpt, err := ExecuteReceiveSubmission(context.Background(), testInput("k1"), testReceiveDeps(store, sender))
	if err != nil {
		t.Fatalf("intake must tolerate email failures, got %v", err)
	}
	if rcpt.ID == "" {
		t.Error("expected a receipt despite email failure")
	}
	if store.saveCalls != 1 {
		t.Errorf("expected record saved, got %d saves", store.saveCalls)
	}
}

func TestIntakeSubmitterCarriesIdempotencyKey(t *testing.T) {
	store := newMockIntakeStore()
	sub := &IntakeSubmitter{Deps: testReceiveDeps(store, nil)}

	_, err := sub.Submit(context.Background(), endpoint.Request{
		IdempotencyKey: "k9",
		Form:           form.Submission{Name: "Ada", Email: "ada@example.com", Message: "hi"},
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, ok := store.byKey["k9"]; !ok {
		t.Error("record not stored under the request's idempotency key")
	}
}
