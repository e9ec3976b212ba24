package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	"golang.org/x/crypto/bcrypt"

	"formgate/internal/application/orchestrators"
	"formgate/internal/domain/form"
	"formgate/internal/domain/intake"
	"formgate/internal/domain/submission"
)

// defaultIntro is shown above the form when no FORMGATE_INTRO_MD is configured.
const defaultIntro = `## Get in touch

Fill in the form below. Your submission is delivered reliably: transient
outages on our side are retried automatically.`

var formTemplate = template.Must(template.New("form").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Formgate</title></head>
<body>
{{.Intro}}
<form method="post" action="/api/submit">
  {{.CSRFField}}
  <label>Name <input name="name" required></label><br>
  <label>Email <input name="email" type="email" required></label><br>
  <label>Subject <input name="subject"></label><br>
  <label>Message <textarea name="message" required></textarea></label><br>
  <button type="submit">Send</button>
</form>
<p><a href="/api/state">Submission state</a></p>
</body>
</html>
`))

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json_encode_failed", "error", err.Error())
	}
}

// stateJSON flattens a state snapshot for the API.
func stateJSON(s submission.State) map[string]any {
	out := map[string]any{
		"status":       s.Status,
		"attemptCount": s.AttemptCount,
	}
	if s.LastError != "" {
		out["lastError"] = s.LastError
	}
	if s.LastResult != nil {
		out["lastResult"] = map[string]any{
			"id":         s.LastResult.ID,
			"receivedAt": s.LastResult.ReceivedAt.Format(time.RFC3339Nano),
		}
	}
	return out
}

// handleFormPage handles GET /.
// Renders the submission form with the CSRF token and the markdown intro.
func handleFormPage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	intro := deps.IntroMD
	if intro == "" {
		intro = defaultIntro
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(intro), &buf); err != nil {
		slog.Error("intro_render_failed", "error", err.Error())
		buf.Reset()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := formTemplate.Execute(w, map[string]any{
		"Intro":     template.HTML(buf.String()),
		"CSRFField": csrf.TemplateField(r),
	})
	if err != nil {
		slog.Error("form_page_render_failed", "error", err.Error())
	}
}

// handleSubmit handles POST /api/submit.
// Validates the form and drives it through the submission controller. The
// call blocks until the cycle reaches a terminal state; a duplicate while a
// cycle is in flight gets 202 and should poll /api/state.
// PRE: CSRF token present for browser form posts.
// POST: Controller state is terminal (or unchanged for duplicates).
func handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}

	f := form.Submission{
		Name:    strings.TrimSpace(r.FormValue("name")),
		Email:   strings.TrimSpace(r.FormValue("email")),
		Subject: strings.TrimSpace(r.FormValue("subject")),
		Message: strings.TrimSpace(r.FormValue("message")),
	}
	if err := f.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	rcpt, err := deps.Controller.Submit(r.Context(), f)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error": err.Error(),
			"state": stateJSON(deps.Controller.State()),
		})
		return
	}
	if rcpt.ID == "" {
		// Dropped duplicate: a cycle is already in flight.
		writeJSON(w, http.StatusAccepted, map[string]any{
			"status": "in_flight",
			"state":  stateJSON(deps.Controller.State()),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"receipt": map[string]any{
			"id":         rcpt.ID,
			"receivedAt": rcpt.ReceivedAt.Format(time.RFC3339Nano),
		},
		"state": stateJSON(deps.Controller.State()),
	})
}

// handleState handles GET /api/state.
// Returns the controller's observable state snapshot.
func handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, stateJSON(deps.Controller.State()))
}

// handleReset handles POST /api/reset.
// Resets the controller to Idle; a reset during an in-flight cycle is a
// no-op, which the returned state reflects.
func handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	deps.Controller.Reset()
	writeJSON(w, http.StatusOK, stateJSON(deps.Controller.State()))
}

type intakeBody struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Subject        string `json:"subject"`
	Message        string `json:"message"`
	IdempotencyKey string `json:"idempotency_key"`
}

// handleIntake handles POST /intake/submissions.
// This is the remote endpoint's HTTP surface: it deduplicates by the
// Idempotency-Key header (or body field) and persists the submission.
func handleIntake(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var body intakeBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&body); err != nil {
		http.Error(w, "malformed JSON body", http.StatusBadRequest)
		return
	}
	key := r.Header.Get("Idempotency-Key")
	if key == "" {
		key = body.IdempotencyKey
	}

	rcpt, err := orchestrators.ExecuteReceiveSubmission(r.Context(), orchestrators.ReceiveSubmissionInput{
		IdempotencyKey: key,
		Form: form.Submission{
			Name:    body.Name,
			Email:   body.Email,
			Subject: body.Subject,
			Message: body.Message,
		},
	}, deps.IntakeDeps)
	if err != nil {
		if errors.Is(err, intake.ErrEmptyIdempotencyKey) || strings.Contains(err.Error(), "validation:") {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "intake unavailable", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":          rcpt.ID,
		"received_at": rcpt.ReceivedAt.Format(time.RFC3339Nano),
	})
}

// handleAdminSubmissions handles GET /admin/submissions.
// Lists received submissions; guarded by basic auth against the bcrypt hash
// configured at startup.
func handleAdminSubmissions(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if deps.AdminHash == "" {
		http.Error(w, "admin access not configured", http.StatusNotFound)
		return
	}

	_, pass, ok := r.BasicAuth()
	if !ok || bcrypt.CompareHashAndPassword([]byte(deps.AdminHash), []byte(pass)) != nil {
		w.Header().Set("WWW-Authenticate", `Basic realm="formgate admin"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	records, err := deps.ListStore.List(r.Context(), 100)
	if err != nil {
		slog.Error("admin_list_failed", "error", err.Error())
		http.Error(w, "failed to list submissions", http.StatusInternalServerError)
		return
	}

	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		out = append(out, map[string]any{
			"id":              rec.ID,
			"idempotency_key": rec.IdempotencyKey,
			"name":            rec.Name,
			"email":           rec.Email,
			"subject":         rec.Subject,
			"message":         rec.Message,
			"received_at":     rec.ReceivedAt.Format(time.RFC3339Nano),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"submissions": out})
}
