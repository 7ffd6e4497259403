package models

import (
	"time"

	id "sgea/pkg/domain"
)

// Registration links an account to an event. At most one registration exists
// per (account, event) pair; the store's unique constraint enforces this, the
// service's pre-check only improves the error message.
type Registration struct {
	ID        id.RegistrationID
	AccountID id.AccountID
	EventID   id.EventID
	Presence  bool
	CreatedAt time.Time
}

// New constructs a Registration. Presence always starts false; only the
// event's organizer toggles it later.
func New(registrationID id.RegistrationID, accountID id.AccountID, eventID id.EventID, now time.Time) *Registration {
	return &Registration{
		ID:        registrationID,
		AccountID: accountID,
		EventID:   eventID,
		Presence:  false,
		CreatedAt: now,
	}
}
