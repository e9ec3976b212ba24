package observability

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SubmissionsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "formgate_submissions_accepted_total",
		Help: "Submission cycles started by the controller",
	})

	SubmissionsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "formgate_submissions_dropped_total",
		Help: "Submit calls ignored because a cycle was already in flight",
	})

	SubmissionAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "formgate_submission_attempts_total",
		Help: "Individual calls to the remote intake endpoint",
	})

	SubmissionRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "formgate_submission_retries_total",
		Help: "Retries issued after a transient failure",
	})

	SubmissionsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "formgate_submissions_completed_total",
		Help: "Submission cycles reaching a terminal state",
	}, []string{"outcome"}) // outcome: success, error

	SubmissionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "formgate_submission_duration_seconds",
		Help:    "Duration of a full submission cycle including retry delays.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	IntakeReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "formgate_intake_received_total",
		Help: "Submissions received by the intake endpoint",
	}, []string{"result"}) // result: new, duplicate

	QueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "formgate_db_query_duration_seconds",
		Help:    "Duration of SQLite queries.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	})
)

// NewLogger creates a new structured logger.
func NewLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

// MetricsHandler returns the Prometheus scrape handler.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
