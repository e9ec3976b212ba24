package submission

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"503 remote", &RemoteError{StatusCode: http.StatusServiceUnavailable}, true},
		{"503 via helper", Unavailable("maintenance"), true},
		{"wrapped 503", fmt.Errorf("attempt failed: %w", Unavailable("")), true},
		{"500 remote", &RemoteError{StatusCode: http.StatusInternalServerError}, false},
		{"400 remote", &RemoteError{StatusCode: http.StatusBadRequest}, false},
		{"403 remote", &RemoteError{StatusCode: http.StatusForbidden}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRemoteErrorMessage(t *testing.T) {
	e := &RemoteError{StatusCode: 503, Message: "try later"}
	if got := e.Error(); got != "remote endpoint returned status 503: try later" {
		t.Errorf("unexpected error string: %q", got)
	}
	bare := &RemoteError{StatusCode: 500}
	if got := bare.Error(); got != "remote endpoint returned status 500" {
		t.Errorf("unexpected error string: %q", got)
	}
}

func TestStateInFlight(t *testing.T) {
	for status, want := range map[string]bool{
		StatusIdle:     false,
		StatusPending:  true,
		StatusRetrying: true,
		StatusSuccess:  false,
		StatusError:    false,
	} {
		if got := (State{Status: status}).InFlight(); got != want {
			t.Errorf("InFlight(%q) = %v, want %v", status, got, want)
		}
	}
}

func TestConfigNormalize(t *testing.T) {
	c := Config{MaxRetries: -2, RetryDelay: -time.Second}.Normalize()
	if c.MaxRetries != 0 || c.RetryDelay != 0 {
		t.Errorf("expected negative values clamped to zero, got %+v", c)
	}

	keep := Config{MaxRetries: 5, RetryDelay: 250 * time.Millisecond}.Normalize()
	if keep.MaxRetries != 5 || keep.RetryDelay != 250*time.Millisecond {
		t.Errorf("valid config must pass through unchanged, got %+v", keep)
	}
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if c.MaxRetries != 3 || c.RetryDelay != 2*time.Second {
		t.Errorf("unexpected defaults: %+v", c)
	}
}
