package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	id "sgea/pkg/domain"
)

// Certificate proves completion of an event. It is keyed by the registration
// that earned it (strict one-to-one), is created exactly once, and is never
// updated; it disappears only when its registration is deleted.
type Certificate struct {
	RegistrationID id.RegistrationID
	ValidationCode string
	IssuedAt       time.Time
}

// New constructs a Certificate with a freshly generated validation code.
func New(registrationID id.RegistrationID, now time.Time) *Certificate {
	return &Certificate{
		RegistrationID: registrationID,
		ValidationCode: NewValidationCode(),
		IssuedAt:       now,
	}
}

// NewValidationCode generates a 16-character uppercase hex token. Collisions
// are negligible at this entropy (64 bits), but the store's unique constraint
// on the code remains the correctness backstop.
func NewValidationCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:16])
}
