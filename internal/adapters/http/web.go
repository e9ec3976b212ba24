package web

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"time"

	"formgate/internal/adapters/http/middleware"
	intakeStore "formgate/internal/adapters/storage/intake"
	"formgate/internal/application/orchestrators"
	"formgate/internal/observability"
)

// Deps holds the wiring for the HTTP layer.
type Deps struct {
	Controller *orchestrators.SubmissionController
	IntakeDeps orchestrators.ReceiveSubmissionDeps
	ListStore  intakeStore.Store // admin listing
	AdminHash  string            // bcrypt hash of the admin password; empty disables /admin
	IntroMD    string            // markdown rendered above the form
}

// Global deps instance (set by NewMux)
var deps *Deps

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// loadCSRFKey reads the CSRF secret from FORMGATE_CSRF_KEY (hex-encoded, 32 bytes).
// In production, the key MUST be set. In development, a random key is generated per startup.
func loadCSRFKey() []byte {
	if keyHex := os.Getenv("FORMGATE_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			log.Fatal("FORMGATE_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key
	}
	if os.Getenv("FORMGATE_ENV") == "production" {
		log.Fatal("FORMGATE_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate CSRF key: %v", err)
	}
	log.Println("WARNING: using random CSRF key (tokens won't survive restart). Set FORMGATE_CSRF_KEY for production.")
	return key
}

// NewMux wires HTTP handlers for the app.
func NewMux(d *Deps) http.Handler {
	deps = d

	mux := http.NewServeMux()
	mux.HandleFunc("/", handleFormPage)
	mux.HandleFunc("/api/submit", handleSubmit)
	mux.HandleFunc("/api/state", handleState)
	mux.HandleFunc("/api/reset", handleReset)
	mux.HandleFunc("/intake/submissions", handleIntake)
	mux.HandleFunc("/admin/submissions", handleAdminSubmissions)
	mux.Handle("/metrics", observability.MetricsHandler())

	csrfKey := loadCSRFKey()
	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Apply middleware: RequestLog -> RateLimit -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey),
		middleware.RateLimit(limiter),
		middleware.RequestLog,
	)
}
