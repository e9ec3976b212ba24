package orchestrators

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"time"

	emailAdapter "formgate/internal/adapters/email"
	"formgate/internal/adapters/endpoint"
	"formgate/internal/domain/form"
	"formgate/internal/domain/intake"
	"formgate/internal/domain/submission"
	"formgate/internal/observability"
)

// IntakeStoreForReceive defines the store interface needed by ReceiveSubmission.
type IntakeStoreForReceive interface {
	GetByIdempotencyKey(ctx context.Context, key string) (intake.Record, error)
	Save(ctx context.Context, r intake.Record) error
}

// ReceiveSubmissionInput carries one submission as presented to the intake
// endpoint.
type ReceiveSubmissionInput struct {
	IdempotencyKey string
	Form           form.Submission
}

// ReceiveSubmissionDeps holds dependencies for ReceiveSubmission.
type ReceiveSubmissionDeps struct {
	IntakeStore IntakeStoreForReceive
	EmailSender emailAdapter.Sender // nil disables confirmation emails
	EmailFrom   string
	GenerateID  func() string
	Now         func() time.Time
}

// ExecuteReceiveSubmission records a submission on the intake side,
// deduplicating by idempotency key: a retried attempt whose key was already
// processed maps back to the original record's receipt instead of creating
// a second record. On first receipt a best-effort confirmation email is
// sent; email failures are logged and never fail the intake.
// PRE: input.IdempotencyKey is non-empty; deps.GenerateID and deps.Now are set
// POST: Exactly one record exists per idempotency key; returns its receipt
func ExecuteReceiveSubmission(ctx context.Context, input ReceiveSubmissionInput, deps ReceiveSubmissionDeps) (submission.Receipt, error) {
	if input.IdempotencyKey == "" {
		return submission.Receipt{}, intake.ErrEmptyIdempotencyKey
	}
	if err := input.Form.Validate(); err != nil {
		return submission.Receipt{}, fmt.Errorf("validation: %w", err)
	}

	if existing, err := deps.IntakeStore.GetByIdempotencyKey(ctx, input.IdempotencyKey); err == nil {
		observability.IntakeReceived.WithLabelValues("duplicate").Inc()
		slog.Info("intake_duplicate",
			"idempotency_key", input.IdempotencyKey, "record_id", existing.ID)
		return submission.Receipt{ID: existing.ID, ReceivedAt: existing.ReceivedAt}, nil
	}

	rec := intake.Record{
		ID:             deps.GenerateID(),
		IdempotencyKey: input.IdempotencyKey,
		Name:           input.Form.Name,
		Email:          input.Form.Email,
		Subject:        input.Form.Subject,
		Message:        input.Form.Message,
		ReceivedAt:     deps.Now().UTC(),
	}
	if err := rec.Validate(); err != nil {
		return submission.Receipt{}, fmt.Errorf("validation: %w", err)
	}

	if err := deps.IntakeStore.Save(ctx, rec); err != nil {
		slog.Error("intake_save_failed", "error", err.Error(), "record_id", rec.ID)
		return submission.Receipt{}, fmt.Errorf("save intake record: %w", err)
	}

	observability.IntakeReceived.WithLabelValues("new").Inc()
	slog.Info("intake_received", "record_id", rec.ID, "idempotency_key", rec.IdempotencyKey)

	if deps.EmailSender != nil {
		sendIntakeConfirmation(ctx, deps, rec)
	}

	return submission.Receipt{ID: rec.ID, ReceivedAt: rec.ReceivedAt}, nil
}

// sendIntakeConfirmation sends the "we got your submission" email.
// PRE: rec has been saved
// POST: Email queued or a warning logged; never returns an error
func sendIntakeConfirmation(ctx context.Context, deps ReceiveSubmissionDeps, rec intake.Record) {
	subject := "We received your submission"
	if rec.Subject != "" {
		subject = fmt.Sprintf("We received your submission: %s", rec.Subject)
	}
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your submission was received and assigned reference <strong>%s</strong>.</p>",
		html.EscapeString(rec.Name), html.EscapeString(rec.ID))

	_, err := deps.EmailSender.Send(ctx, emailAdapter.SendRequest{
		To:      []string{rec.Email},
		From:    deps.EmailFrom,
		Subject: subject,
		HTML:    body,
	})
	if err != nil {
		slog.Warn("intake_confirmation_failed", "error", err.Error(), "record_id", rec.ID)
	}
}

// IntakeSubmitter presents the intake orchestrator as an in-process remote
// endpoint. It is used when no upstream URL is configured (the submission
// then lands in the local intake store) and by tests.
type IntakeSubmitter struct {
	Deps ReceiveSubmissionDeps
}

// Compile-time check that *IntakeSubmitter satisfies endpoint.Submitter.
var _ endpoint.Submitter = (*IntakeSubmitter)(nil)

// Submit delivers the request straight to ExecuteReceiveSubmission.
func (s *IntakeSubmitter) Submit(ctx context.Context, req endpoint.Request) (submission.Receipt, error) {
	return ExecuteReceiveSubmission(ctx, ReceiveSubmissionInput{
		IdempotencyKey: req.IdempotencyKey,
		Form:           req.Form,
	}, s.Deps)
}
