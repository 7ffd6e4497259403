package models

import (
	"strings"
	"time"

	id "sgea/pkg/domain"
	dErrors "sgea/pkg/domain-errors"
)

// EventType classifies the academic event.
type EventType string

const (
	TypeSeminar  EventType = "seminar"
	TypeLecture  EventType = "lecture"
	TypeCongress EventType = "congress"
	TypeWorkshop EventType = "workshop"
	TypeOther    EventType = "other"
)

func (t EventType) Valid() bool {
	switch t {
	case TypeSeminar, TypeLecture, TypeCongress, TypeWorkshop, TypeOther:
		return true
	}
	return false
}

// Event is an academic event owned by an organizer. Organizer and professor
// are nullable: deleting an account detaches it from its events rather than
// deleting them.
type Event struct {
	ID          id.EventID
	Name        string
	Type        EventType
	StartTime   time.Time
	EndTime     time.Time
	Location    string
	Capacity    int
	OrganizerID *id.AccountID
	ProfessorID *id.AccountID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewEvent validates invariants and constructs an Event.
//
// Invariants: the start time must not be in the past at creation, and the
// end time must not precede the start time. Capacity is non-negative; zero
// means nobody can register.
func NewEvent(eventID id.EventID, name string, eventType EventType, startTime, endTime time.Time, location string, capacity int, organizerID id.AccountID, professorID *id.AccountID, now time.Time) (*Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "event name is required")
	}
	if !eventType.Valid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown event type")
	}
	if startTime.Before(now) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "start time must not be in the past")
	}
	if endTime.Before(startTime) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "end time must not precede start time")
	}
	if capacity < 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "capacity must be non-negative")
	}
	if organizerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "organizer is required")
	}

	orgID := organizerID
	return &Event{
		ID:          eventID,
		Name:        name,
		Type:        eventType,
		StartTime:   startTime,
		EndTime:     endTime,
		Location:    strings.TrimSpace(location),
		Capacity:    capacity,
		OrganizerID: &orgID,
		ProfessorID: professorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// OwnedBy reports whether the event is owned by the given account. Events
// whose organizer was removed are owned by nobody.
func (e *Event) OwnedBy(accountID id.AccountID) bool {
	return e.OrganizerID != nil && *e.OrganizerID == accountID
}

// Finished reports whether the event has ended as of now.
func (e *Event) Finished(now time.Time) bool {
	return e.EndTime.Before(now)
}
