package form

import (
	"errors"
	"strings"
)

// Domain errors.
var (
	ErrEmptyName    = errors.New("name is required")
	ErrEmptyMessage = errors.New("message is required")
	ErrInvalidEmail = errors.New("a valid email address is required")
	ErrTooLong      = errors.New("message exceeds the maximum length")
)

// MaxMessageLen bounds the free-text message field.
const MaxMessageLen = 10000

// Submission is the caller-supplied form payload handed to the controller.
type Submission struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// Validate checks that the Submission has valid data.
// PRE: Submission struct is populated
// POST: Returns nil if valid, domain error otherwise
func (s *Submission) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(s.Message) == "" {
		return ErrEmptyMessage
	}
	if len(s.Message) > MaxMessageLen {
		return ErrTooLong
	}
	email := strings.TrimSpace(s.Email)
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return ErrInvalidEmail
	}
	return nil
}
