package intake

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"formgate/internal/adapters/storage"
	domain "formgate/internal/domain/intake"
)

const (
	dateLayout = "2006-01-02T15:04:05.999999999Z07:00"
)

// SQLiteStore implements the intake Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new intake store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a record by its ID.
// PRE: id is non-empty
// POST: Returns the record or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, idempotency_key, name, email, subject, message, received_at
		 FROM intake_submission WHERE id = ?`, id)
	return scanRecord(row)
}

// GetByIdempotencyKey retrieves the record a retried attempt maps to.
// PRE: key is non-empty
// POST: Returns the record or domain.ErrNotFound
func (s *SQLiteStore) GetByIdempotencyKey(ctx context.Context, key string) (domain.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, idempotency_key, name, email, subject, message, received_at
		 FROM intake_submission WHERE idempotency_key = ?`, key)
	return scanRecord(row)
}

// Save persists a record to the database.
// PRE: record has been validated
// POST: Record is persisted (insert or update by ID)
func (s *SQLiteStore) Save(ctx context.Context, r domain.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO intake_submission (id, idempotency_key, name, email, subject, message, received_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   idempotency_key=excluded.idempotency_key, name=excluded.name, email=excluded.email,
		   subject=excluded.subject, message=excluded.message, received_at=excluded.received_at`,
		r.ID, r.IdempotencyKey, r.Name, r.Email, r.Subject, r.Message,
		r.ReceivedAt.Format(dateLayout))
	return err
}

// List returns the most recently received records.
// PRE: limit > 0
// POST: Returns up to limit records ordered by received_at desc
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, idempotency_key, name, email, subject, message, received_at
		 FROM intake_submission ORDER BY received_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Delete removes a record.
// PRE: id is non-empty
// POST: Record is removed from database
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM intake_submission WHERE id = ?`, id)
	return err
}

// scanRecord scans a single row into a Record.
func scanRecord(row *sql.Row) (domain.Record, error) {
	var r domain.Record
	var receivedAt string
	err := row.Scan(&r.ID, &r.IdempotencyKey, &r.Name, &r.Email, &r.Subject, &r.Message, &receivedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Record{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Record{}, err
	}
	r.ReceivedAt, _ = time.Parse(dateLayout, receivedAt)
	return r, nil
}

// scanRecords scans multiple rows into a slice of Records.
func scanRecords(rows *sql.Rows) ([]domain.Record, error) {
	var records []domain.Record
	for rows.Next() {
		var r domain.Record
		var receivedAt string
		if err := rows.Scan(&r.ID, &r.IdempotencyKey, &r.Name, &r.Email, &r.Subject, &r.Message, &receivedAt); err != nil {
			return nil, err
		}
		r.ReceivedAt, _ = time.Parse(dateLayout, receivedAt)
		records = append(records, r)
	}
	return records, rows.Err()
}
