package main

import (
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	emailPkg "formgate/internal/adapters/email"
	"formgate/internal/adapters/endpoint"
	web "formgate/internal/adapters/http"
	"formgate/internal/adapters/storage"
	intakeStorePkg "formgate/internal/adapters/storage/intake"
	"formgate/internal/application/orchestrators"
	"formgate/internal/domain/submission"
	"formgate/internal/observability"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	slog.SetDefault(observability.NewLogger())

	// Initialize database with WAL mode, foreign keys, and busy timeout
	dbPath := envOrDefault("FORMGATE_DB", "formgate.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.InitDB(db); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	instrumentedDB := storage.NewInstrumentedDB(db)
	intakeStore := intakeStorePkg.NewSQLiteStore(instrumentedDB)

	// Configure email sender for intake confirmations
	var sender emailPkg.Sender
	resendKey := os.Getenv("FORMGATE_RESEND_KEY")
	emailFrom := envOrDefault("FORMGATE_EMAIL_FROM", "Formgate <noreply@formgate.dev>")
	if resendKey != "" {
		sender = emailPkg.NewResendSender(resendKey, emailFrom)
		log.Println("Email sender configured (Resend)")
	} else {
		sender = emailPkg.NewNoopSender()
		if os.Getenv("FORMGATE_ENV") == "production" {
			log.Println("WARNING: FORMGATE_RESEND_KEY is not set — confirmation emails are DISABLED in production")
		} else {
			log.Println("Email sender configured (noop — set FORMGATE_RESEND_KEY for real delivery)")
		}
	}

	intakeDeps := orchestrators.ReceiveSubmissionDeps{
		IntakeStore: intakeStore,
		EmailSender: sender,
		EmailFrom:   emailFrom,
		GenerateID:  uuid.NewString,
		Now:         time.Now,
	}

	// Choose the remote endpoint: a real upstream URL, or the local intake
	// orchestrator (optionally made flaky for demos and dev testing).
	var submitter endpoint.Submitter
	if upstream := os.Getenv("FORMGATE_UPSTREAM_URL"); upstream != "" {
		submitter = endpoint.NewHTTPSubmitter(upstream, nil)
		log.Printf("Submitting to upstream intake at %s", upstream)
	} else {
		submitter = &orchestrators.IntakeSubmitter{Deps: intakeDeps}
		log.Println("Submitting to local intake (no FORMGATE_UPSTREAM_URL set)")
	}
	if failures := envInt("FORMGATE_FLAKY_FAILURES", 0); failures > 0 {
		submitter = endpoint.NewFlakySubmitter(submitter, failures)
		log.Printf("Failure injection enabled: first %d attempts per submission fail", failures)
	}

	cfg := submission.Config{
		MaxRetries: envInt("FORMGATE_MAX_RETRIES", submission.DefaultConfig().MaxRetries),
		RetryDelay: envDuration("FORMGATE_RETRY_DELAY", submission.DefaultConfig().RetryDelay),
	}
	controller := orchestrators.NewSubmissionController(submitter, cfg)

	mux := web.NewMux(&web.Deps{
		Controller: controller,
		IntakeDeps: intakeDeps,
		ListStore:  intakeStore,
		AdminHash:  loadAdminHash(),
		IntroMD:    os.Getenv("FORMGATE_INTRO_MD"),
	})

	addr := envOrDefault("FORMGATE_ADDR", ":8080")
	log.Printf("Formgate %s starting on %s (env=%s, max_retries=%d, retry_delay=%s)",
		version, addr, envOrDefault("FORMGATE_ENV", "development"), cfg.MaxRetries, cfg.RetryDelay)

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// loadAdminHash resolves the admin credential: either a precomputed bcrypt
// hash, or a plaintext password hashed at startup (dev convenience).
func loadAdminHash() string {
	if hash := os.Getenv("FORMGATE_ADMIN_PASSWORD_HASH"); hash != "" {
		return hash
	}
	if pw := os.Getenv("FORMGATE_ADMIN_PASSWORD"); pw != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(pw), 12)
		if err != nil {
			log.Fatalf("failed to hash admin password: %v", err)
		}
		return string(hash)
	}
	log.Println("Admin listing disabled (set FORMGATE_ADMIN_PASSWORD or FORMGATE_ADMIN_PASSWORD_HASH)")
	return ""
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Fatalf("%s must be an integer, got %q", key, v)
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Fatalf("%s must be a duration like 2s, got %q", key, v)
		}
		return d
	}
	return fallback
}
