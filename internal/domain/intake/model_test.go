package intake

import (
	"errors"
	"testing"
	"time"
)

func validRecord() Record {
	return Record{
		ID:             "rec-1",
		IdempotencyKey: "key-1",
		Name:           "Ada",
		Email:          "ada@example.com",
		Message:        "hello",
		ReceivedAt:     time.Now(),
	}
}

func TestRecordValidate(t *testing.T) {
	r := validRecord()
	if err := r.Validate(); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	noID := validRecord()
	noID.ID = ""
	if err := noID.Validate(); !errors.Is(err, ErrEmptyID) {
		t.Errorf("expected ErrEmptyID, got %v", err)
	}

	noKey := validRecord()
	noKey.IdempotencyKey = ""
	if err := noKey.Validate(); !errors.Is(err, ErrEmptyIdempotencyKey) {
		t.Errorf("expected ErrEmptyIdempotencyKey, got %v", err)
	}

	noEmail := validRecord()
	noEmail.Email = ""
	if err := noEmail.Validate(); !errors.Is(err, ErrEmptyEmail) {
		t.Errorf("expected ErrEmptyEmail, got %v", err)
	}

	noTime := validRecord()
	noTime.ReceivedAt = time.Time{}
	if err := noTime.Validate(); err == nil {
		t.Error("expected error for zero received_at")
	}
}
