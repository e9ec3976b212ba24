package submission

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Status constants for a submission cycle. Exactly one is active at a time.
const (
	StatusIdle     = "idle"
	StatusPending  = "pending"
	StatusRetrying = "retrying"
	StatusSuccess  = "success"
	StatusError    = "error"
)

// Receipt is the success value returned by the remote intake endpoint.
// It is opaque to the controller beyond carrying an identifier.
type Receipt struct {
	ID         string
	ReceivedAt time.Time
}

// State is the externally observable snapshot of one controller.
// LastError and LastResult are mutually exclusive: at most one is set.
type State struct {
	Status       string
	AttemptCount int
	LastError    string
	LastResult   *Receipt
}

// InFlight returns true while a submission cycle is running.
// PRE: Status field is set
// POST: Returns true for pending or retrying
func (s State) InFlight() bool {
	return s.Status == StatusPending || s.Status == StatusRetrying
}

// Config holds the retry policy for a controller instance. It is immutable
// once the controller is constructed.
type Config struct {
	MaxRetries int           // retries after the initial attempt
	RetryDelay time.Duration // fixed wait before each retry, no backoff
}

// DefaultConfig returns the stock retry policy.
func DefaultConfig() Config {
	return Config{MaxRetries: 3, RetryDelay: 2 * time.Second}
}

// Normalize clamps negative values to zero.
// PRE: none
// POST: Returned config has MaxRetries >= 0 and RetryDelay >= 0
func (c Config) Normalize() Config {
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	}
	return c
}

// RemoteError is a structured failure reported by the remote intake
// endpoint. StatusCode carries the endpoint's HTTP-equivalent classifier.
type RemoteError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote endpoint returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("remote endpoint returned status %d: %s", e.StatusCode, e.Message)
}

// IsRetryable reports whether err is a transient remote failure eligible
// for automatic retry. Only a structured "service temporarily unavailable"
// classifier qualifies; every other error shape is terminal.
// PRE: none
// POST: Pure function, no side effects
func IsRetryable(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.StatusCode == http.StatusServiceUnavailable
}

// Unavailable builds the transient failure the intake side reports while it
// cannot accept submissions.
func Unavailable(msg string) *RemoteError {
	return &RemoteError{StatusCode: http.StatusServiceUnavailable, Message: msg}
}
