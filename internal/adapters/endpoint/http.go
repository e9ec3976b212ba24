package endpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"formgate/internal/domain/submission"
)

// HTTPSubmitter delivers submissions to a remote intake service over HTTP.
type HTTPSubmitter struct {
	client *http.Client
	url    string
}

// NewHTTPSubmitter creates a submitter posting to the given intake URL.
// PRE: url is non-empty; client may be nil for defaults
// POST: Returns a ready-to-use submitter
func NewHTTPSubmitter(url string, client *http.Client) *HTTPSubmitter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSubmitter{client: client, url: url}
}

type submitBody struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

type receiptBody struct {
	ID         string    `json:"id"`
	ReceivedAt time.Time `json:"received_at"`
}

// Submit posts the form as JSON with the idempotency key in the
// Idempotency-Key header.
// PRE: req.IdempotencyKey is non-empty
// POST: 2xx responses decode to a Receipt; other statuses map to a
// *submission.RemoteError carrying the response status
func (s *HTTPSubmitter) Submit(ctx context.Context, req Request) (submission.Receipt, error) {
	data, err := json.Marshal(submitBody{
		Name:    req.Form.Name,
		Email:   req.Form.Email,
		Subject: req.Form.Subject,
		Message: req.Form.Message,
	})
	if err != nil {
		return submission.Receipt{}, fmt.Errorf("marshal submission: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(data))
	if err != nil {
		return submission.Receipt{}, fmt.Errorf("build intake request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return submission.Receipt{}, fmt.Errorf("intake request failed: %w", err)
	}
	defer resp.Body.Close()

	// Bound the body read; the intake response is tiny.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return submission.Receipt{}, fmt.Errorf("read intake response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Warn("intake_http_error", "status", resp.StatusCode, "idempotency_key", req.IdempotencyKey)
		return submission.Receipt{}, &submission.RemoteError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	var rb receiptBody
	if err := json.Unmarshal(body, &rb); err != nil {
		return submission.Receipt{}, fmt.Errorf("decode intake receipt: %w", err)
	}
	return submission.Receipt{ID: rb.ID, ReceivedAt: rb.ReceivedAt}, nil
}
