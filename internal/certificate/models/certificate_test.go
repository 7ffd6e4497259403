package models

import (
	"strings"
	"testing"
	"time"

	id "sgea/pkg/domain"
)

func TestNewValidationCode(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		code := NewValidationCode()
		if len(code) != 16 {
			t.Fatalf("expected 16 characters, got %d (%q)", len(code), code)
		}
		if code != strings.ToUpper(code) {
			t.Fatalf("expected uppercase code, got %q", code)
		}
		for _, r := range code {
			if !strings.ContainsRune("0123456789ABCDEF", r) {
				t.Fatalf("unexpected character %q in code %q", r, code)
			}
		}
		if _, dup := seen[code]; dup {
			t.Fatalf("duplicate code %q after %d draws", code, len(seen))
		}
		seen[code] = struct{}{}
	}
}

func TestNew(t *testing.T) {
	registrationID := id.NewRegistrationID()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	certificate := New(registrationID, now)
	if certificate.RegistrationID != registrationID {
		t.Fatalf("expected registration %s, got %s", registrationID, certificate.RegistrationID)
	}
	if !certificate.IssuedAt.Equal(now) {
		t.Fatalf("expected issued at %v, got %v", now, certificate.IssuedAt)
	}
	if certificate.ValidationCode == "" {
		t.Fatal("expected a validation code")
	}
}
