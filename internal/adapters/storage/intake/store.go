package intake

import (
	"context"

	domain "formgate/internal/domain/intake"
)

// Store defines the interface for intake record persistence.
type Store interface {
	// GetByID retrieves a record by its ID.
	// PRE: id is non-empty
	// POST: Returns the record or domain.ErrNotFound
	GetByID(ctx context.Context, id string) (domain.Record, error)

	// GetByIdempotencyKey retrieves the record a retried attempt maps to.
	// PRE: key is non-empty
	// POST: Returns the record or domain.ErrNotFound
	GetByIdempotencyKey(ctx context.Context, key string) (domain.Record, error)

	// Save persists a record to the database.
	// PRE: record has been validated
	// POST: Record is persisted (insert or update by ID)
	Save(ctx context.Context, r domain.Record) error

	// List returns the most recently received records.
	// PRE: limit > 0
	// POST: Returns up to limit records ordered by received_at desc
	List(ctx context.Context, limit int) ([]domain.Record, error)

	// Delete removes a record.
	// PRE: id is non-empty
	// POST: Record is removed from database
	Delete(ctx context.Context, id string) error
}
