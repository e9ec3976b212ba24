package intake

import (
	"errors"
	"time"
)

// Domain errors.
var (
	ErrEmptyIdempotencyKey = errors.New("idempotency key is required")
	ErrEmptyID             = errors.New("record ID is required")
	ErrEmptyEmail          = errors.New("email is required")
	ErrNotFound            = errors.New("intake record not found")
)

// Record is a submission as received and stored by the intake endpoint.
// The idempotency key is unique across records: a retried attempt that the
// endpoint already processed maps back to the same record.
type Record struct {
	ID             string
	IdempotencyKey string
	Name           string
	Email          string
	Subject        string
	Message        string
	ReceivedAt     time.Time
}

// Validate checks that the Record has valid data.
// PRE: Record struct is populated
// POST: Returns nil if valid, domain error otherwise
func (r *Record) Validate() error {
	if r.ID == "" {
		return ErrEmptyID
	}
	if r.IdempotencyKey == "" {
		return ErrEmptyIdempotencyKey
	}
	if r.Email == "" {
		return ErrEmptyEmail
	}
	if r.ReceivedAt.IsZero() {
		return errors.New("received_at must be set")
	}
	return nil
}
