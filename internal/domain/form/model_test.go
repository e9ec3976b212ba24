package form

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	valid := Submission{Name: "Ada", Email: "ada@example.com", Message: "hello"}

	tests := []struct {
		name   string
		mutate func(*Submission)
		want   error
	}{
		{"valid", func(*Submission) {}, nil},
		{"missing name", func(s *Submission) { s.Name = "  " }, ErrEmptyName},
		{"missing message", func(s *Submission) { s.Message = "" }, ErrEmptyMessage},
		{"missing email", func(s *Submission) { s.Email = "" }, ErrInvalidEmail},
		{"email without at", func(s *Submission) { s.Email = "ada.example.com" }, ErrInvalidEmail},
		{"email with leading at", func(s *Submission) { s.Email = "@example.com" }, ErrInvalidEmail},
		{"email with trailing at", func(s *Submission) { s.Email = "ada@" }, ErrInvalidEmail},
		{"oversized message", func(s *Submission) { s.Message = strings.Repeat("x", MaxMessageLen+1) }, ErrTooLong},
		{"subject optional", func(s *Submission) { s.Subject = "" }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			if err := s.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}
