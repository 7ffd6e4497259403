// Package domain defines typed identifiers shared across feature packages.
//
// Each entity gets its own UUID-backed type so the compiler rejects
// cross-entity mixups (passing an EventID where a RegistrationID is
// expected fails to compile).
package domain

import (
	"github.com/google/uuid"

	dErrors "sgea/pkg/domain-errors"
)

type (
	// AccountID identifies a user account.
	AccountID uuid.UUID
	// EventID identifies an event.
	EventID uuid.UUID
	// RegistrationID identifies a registration. A certificate shares the
	// identifier of the registration that owns it.
	RegistrationID uuid.UUID
)

func (id AccountID) String() string      { return uuid.UUID(id).String() }
func (id EventID) String() string        { return uuid.UUID(id).String() }
func (id RegistrationID) String() string { return uuid.UUID(id).String() }

// UUID exposes the raw identifier for interop with drivers and tokens.
func (id AccountID) UUID() uuid.UUID      { return uuid.UUID(id) }
func (id EventID) UUID() uuid.UUID        { return uuid.UUID(id) }
func (id RegistrationID) UUID() uuid.UUID { return uuid.UUID(id) }

func (id AccountID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id RegistrationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// NewAccountID returns a fresh random account identifier.
func NewAccountID() AccountID { return AccountID(uuid.New()) }

// NewEventID returns a fresh random event identifier.
func NewEventID() EventID { return EventID(uuid.New()) }

// NewRegistrationID returns a fresh random registration identifier.
func NewRegistrationID() RegistrationID { return RegistrationID(uuid.New()) }

// ParseAccountID parses and validates an account ID from its string form.
func ParseAccountID(s string) (AccountID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return AccountID{}, err
	}
	return AccountID(u), nil
}

// ParseEventID parses and validates an event ID from its string form.
func ParseEventID(s string) (EventID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return EventID{}, err
	}
	return EventID(u), nil
}

// ParseRegistrationID parses and validates a registration ID from its string form.
func ParseRegistrationID(s string) (RegistrationID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return RegistrationID{}, err
	}
	return RegistrationID(u), nil
}

// parseUUID enforces the shared invariant: IDs must be valid, non-nil UUIDs.
func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}
