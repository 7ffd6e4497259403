package models

import (
	"strings"
	"time"

	id "sgea/pkg/domain"
	dErrors "sgea/pkg/domain-errors"
)

// Role determines what an account may do: participants register for events,
// professors additionally appear as event supervisors, organizers own events
// and manage attendance and certificates.
type Role string

const (
	RoleParticipant Role = "participant"
	RoleProfessor   Role = "professor"
	RoleOrganizer   Role = "organizer"
)

// Valid reports whether the role is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleParticipant, RoleProfessor, RoleOrganizer:
		return true
	}
	return false
}

// Account is a registered user. Accounts are never hard-deleted; events and
// registrations reference them with nullable foreign keys.
type Account struct {
	ID           id.AccountID
	Username     string
	Email        string
	FirstName    string
	LastName     string
	Phone        string
	Institution  string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewAccount validates invariants and constructs an Account. The caller
// supplies the already-hashed credential.
//
// Invariant: participants and professors must state their institution.
func NewAccount(accountID id.AccountID, username, email, firstName, lastName, phone, institution string, role Role, passwordHash string, now time.Time) (*Account, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))
	institution = strings.TrimSpace(institution)

	if username == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "username is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "a valid email is required")
	}
	if !role.Valid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown role")
	}
	if (role == RoleParticipant || role == RoleProfessor) && institution == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "institution is required for participants and professors")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "credential hash is required")
	}

	return &Account{
		ID:           accountID,
		Username:     username,
		Email:        email,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		Phone:        strings.TrimSpace(phone),
		Institution:  institution,
		Role:         role,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// DisplayName renders the name shown on dashboards and certificates.
func (a *Account) DisplayName() string {
	name := strings.TrimSpace(a.FirstName + " " + a.LastName)
	if name == "" {
		return a.Username
	}
	return name
}
