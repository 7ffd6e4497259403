// Package service manages the event catalog.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"sgea/internal/audit"
	certmodels "sgea/internal/certificate/models"
	"sgea/internal/event/models"
	regmodels "sgea/internal/registration/models"
	id "sgea/pkg/domain"
	dErrors "sgea/pkg/domain-errors"
	"sgea/pkg/platform/sentinel"
	"sgea/pkg/platform/tx"
	"sgea/pkg/requestcontext"
)

// Store persists events.
type Store interface {
	Create(ctx context.Context, event *models.Event) error
	FindByID(ctx context.Context, eventID id.EventID) (*models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, eventID id.EventID) error
	ListAll(ctx context.Context) ([]models.Event, error)
	ListByOrganizer(ctx context.Context, organizerID id.AccountID) ([]models.Event, error)
	ListByProfessor(ctx context.Context, professorID id.AccountID) ([]models.Event, error)
}

// RegistrationStore is the slice of the registration store event deletion
// needs.
type RegistrationStore interface {
	ListByEvent(ctx context.Context, eventID id.EventID) ([]regmodels.Registration, error)
	DeleteByEvent(ctx context.Context, eventID id.EventID) error
}

// CertificateStore is consulted during deletion so certificates never outlive
// their registration.
type CertificateStore interface {
	FindByRegistration(ctx context.Context, registrationID id.RegistrationID) (*certmodels.Certificate, error)
	DeleteByRegistration(ctx context.Context, registrationID id.RegistrationID) error
}

// Auditor is the append-only audit side channel.
type Auditor interface {
	Record(ctx context.Context, action audit.Action, detail string)
}

// Service manages events: the public catalog, the organizer's own events,
// and the professor's reading list.
type Service struct {
	events        Store
	registrations RegistrationStore
	certificates  CertificateStore
	runner        tx.Runner
	logger        *slog.Logger
	auditor       Auditor

	// When set, professors see only events naming them as responsible
	// professor; otherwise they see the whole catalog.
	scopeProfessorDashboard bool
}

type Option func(*Service)

func WithAuditor(auditor Auditor) Option {
	return func(s *Service) { s.auditor = auditor }
}

func WithProfessorScoping(enabled bool) Option {
	return func(s *Service) { s.scopeProfessorDashboard = enabled }
}

func New(events Store, registrations RegistrationStore, certificates CertificateStore, runner tx.Runner, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		events:                  events,
		registrations:           registrations,
		certificates:            certificates,
		runner:                  runner,
		logger:                  logger,
		scopeProfessorDashboard: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new event owned by the authenticated organizer.
func (s *Service) Create(ctx context.Context, event *models.Event) error {
	if err := s.events.Create(ctx, event); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create event")
	}
	if s.auditor != nil {
		s.auditor.Record(ctx, audit.ActionEventCreated,
			fmt.Sprintf("event %q created", event.Name))
	}
	return nil
}

// Get returns a single event.
func (s *Service) Get(ctx context.Context, eventID id.EventID) (*models.Event, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event")
	}
	return event, nil
}

// Update replaces the mutable fields of an event. Only the owning organizer
// may update; the end-after-start invariant is re-checked here because the
// constructor only runs at creation.
func (s *Service) Update(ctx context.Context, event *models.Event) error {
	current, err := s.ownedEvent(ctx, event.ID)
	if err != nil {
		return err
	}
	if event.Name == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "event name is required")
	}
	if !event.Type.Valid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "unknown event type")
	}
	if event.EndTime.Before(event.StartTime) {
		return dErrors.New(dErrors.CodeInvariantViolation, "end time must not precede start time")
	}
	if event.Capacity < 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "capacity must be non-negative")
	}

	event.OrganizerID = current.OrganizerID
	event.CreatedAt = current.CreatedAt
	event.UpdatedAt = requestcontext.Now(ctx)
	if err := s.events.Update(ctx, event); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update event")
	}
	if s.auditor != nil {
		s.auditor.Record(ctx, audit.ActionEventUpdated,
			fmt.Sprintf("event %q updated", event.Name))
	}
	return nil
}

// Delete removes an event with everything hanging off it. Certificates go
// first, then registrations, then the event itself, all in one transaction.
// Only the owning organizer may delete.
func (s *Service) Delete(ctx context.Context, eventID id.EventID) error {
	event, err := s.ownedEvent(ctx, eventID)
	if err != nil {
		return err
	}

	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		registrations, err := s.registrations.ListByEvent(ctx, eventID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list registrations")
		}
		for i := range registrations {
			if err := s.certificates.DeleteByRegistration(ctx, registrations[i].ID); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete certificate")
			}
		}
		if err := s.registrations.DeleteByEvent(ctx, eventID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete registrations")
		}
		if err := s.events.Delete(ctx, eventID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete event")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.auditor != nil {
		s.auditor.Record(ctx, audit.ActionEventDeleted,
			fmt.Sprintf("event %q deleted", event.Name))
	}
	return nil
}

// ListAll returns the full catalog, newest first.
func (s *Service) ListAll(ctx context.Context) ([]models.Event, error) {
	events, err := s.events.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list events")
	}
	return events, nil
}

// ListMine returns the events the authenticated organizer owns.
func (s *Service) ListMine(ctx context.Context) ([]models.Event, error) {
	accountID := requestcontext.AccountID(ctx)
	if accountID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	events, err := s.events.ListByOrganizer(ctx, accountID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list events")
	}
	return events, nil
}

// ListForProfessor returns the professor dashboard listing. Scoped to events
// naming the professor when scoping is on, the whole catalog otherwise.
func (s *Service) ListForProfessor(ctx context.Context) ([]models.Event, error) {
	accountID := requestcontext.AccountID(ctx)
	if accountID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if !s.scopeProfessorDashboard {
		return s.ListAll(ctx)
	}
	events, err := s.events.ListByProfessor(ctx, accountID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list events")
	}
	return events, nil
}

func (s *Service) ownedEvent(ctx context.Context, eventID id.EventID) (*models.Event, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event")
	}
	if !event.OwnedBy(requestcontext.AccountID(ctx)) {
		return nil, dErrors.New(dErrors.CodeNotOwner, "only the event organizer may modify this event")
	}
	return event, nil
}
