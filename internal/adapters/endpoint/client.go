package endpoint

import (
	"context"

	"formgate/internal/domain/form"
	"formgate/internal/domain/submission"
)

// Request carries one attempt to the remote intake endpoint. The idempotency
// key is the same for every attempt within one submission cycle so the
// endpoint can deduplicate retries it already processed.
type Request struct {
	IdempotencyKey string
	Form           form.Submission
}

// Submitter is the interface to the remote intake endpoint. The endpoint's
// latency and failures are non-deterministic; the only contract is that
// Submit eventually returns exactly once per call. Transient outages are
// reported as a *submission.RemoteError carrying a 503 status; every other
// error is terminal.
type Submitter interface {
	Submit(ctx context.Context, req Request) (submission.Receipt, error)
}
