// Package service implements the registration and attendance workflow.
//
// The rules here are the gatekeeping half of the certificate pipeline: an
// account registers while the event runs and has room, the organizer marks
// presence, and a confirmed presence on a finished event earns a certificate.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"sgea/internal/audit"
	certmodels "sgea/internal/certificate/models"
	eventmodels "sgea/internal/event/models"
	"sgea/internal/platform/metrics"
	"sgea/internal/registration/models"
	id "sgea/pkg/domain"
	dErrors "sgea/pkg/domain-errors"
	"sgea/pkg/platform/sentinel"
	"sgea/pkg/platform/tx"
	"sgea/pkg/requestcontext"
)

// Store persists registrations.
type Store interface {
	Create(ctx context.Context, registration *models.Registration) error
	FindByID(ctx context.Context, registrationID id.RegistrationID) (*models.Registration, error)
	FindByAccountAndEvent(ctx context.Context, accountID id.AccountID, eventID id.EventID) (*models.Registration, error)
	SetPresence(ctx context.Context, registrationID id.RegistrationID, presence bool) error
	Delete(ctx context.Context, registrationID id.RegistrationID) error
	CountByEvent(ctx context.Context, eventID id.EventID) (int, error)
	ListByEvent(ctx context.Context, eventID id.EventID) ([]models.Registration, error)
	ListByAccount(ctx context.Context, accountID id.AccountID) ([]models.Registration, error)
}

// EventStore resolves the events being registered for.
type EventStore interface {
	FindByID(ctx context.Context, eventID id.EventID) (*eventmodels.Event, error)
}

// CertificateStore is the slice of the certificate store cancellation needs.
type CertificateStore interface {
	FindByRegistration(ctx context.Context, registrationID id.RegistrationID) (*certmodels.Certificate, error)
	DeleteByRegistration(ctx context.Context, registrationID id.RegistrationID) error
}

// Issuer is the certificate engine as seen from the attendance toggle.
type Issuer interface {
	TryIssue(ctx context.Context, registration *models.Registration) (bool, error)
}

// Auditor is the append-only audit side channel.
type Auditor interface {
	Record(ctx context.Context, action audit.Action, detail string)
}

// Notifier sends registration emails. Calls never block and failures never
// surface here.
type Notifier interface {
	RegistrationConfirmed(ctx context.Context, accountID id.AccountID, eventName string)
	RegistrationCancelled(ctx context.Context, accountID id.AccountID, eventName string)
}

// Service enforces the registration policy and tracks attendance.
type Service struct {
	registrations Store
	events        EventStore
	certificates  CertificateStore
	issuer        Issuer
	runner        tx.Runner
	logger        *slog.Logger
	auditor       Auditor
	notifier      Notifier
	metrics       *metrics.Metrics
}

type Option func(*Service)

func WithAuditor(auditor Auditor) Option {
	return func(s *Service) { s.auditor = auditor }
}

func WithNotifier(notifier Notifier) Option {
	return func(s *Service) { s.notifier = notifier }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(registrations Store, events EventStore, certificates CertificateStore, issuer Issuer, runner tx.Runner, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		registrations: registrations,
		events:        events,
		certificates:  certificates,
		issuer:        issuer,
		runner:        runner,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a registration for the authenticated account.
//
// Checked in order: the event exists, registration is still open (the event
// has not ended), there is room left, and the account is not already
// registered. The capacity and duplicate pre-checks give precise errors; the
// store's unique (account, event) constraint settles concurrent duplicates.
func (s *Service) Register(ctx context.Context, eventID id.EventID) (*models.Registration, error) {
	accountID := requestcontext.AccountID(ctx)
	if accountID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event")
	}

	now := requestcontext.Now(ctx)
	if event.Finished(now) {
		return nil, dErrors.New(dErrors.CodeRegistrationClosed, "registration for this event has closed")
	}

	registration := models.New(id.NewRegistrationID(), accountID, eventID, now)
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		count, err := s.registrations.CountByEvent(ctx, eventID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count registrations")
		}
		if count >= event.Capacity {
			return dErrors.New(dErrors.CodeCapacityExceeded, "the event is full")
		}
		if err := s.registrations.Create(ctx, registration); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeAlreadyRegistered, "you are already registered for this event")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create registration")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.auditor != nil {
		s.auditor.Record(ctx, audit.ActionRegistration,
			fmt.Sprintf("registered for event %q", event.Name))
	}
	if s.notifier != nil {
		s.notifier.RegistrationConfirmed(ctx, accountID, event.Name)
	}
	s.metrics.IncRegistrationsCreated()
	return registration, nil
}

// Cancel removes the account's registration for the event, along with any
// certificate it earned. Cancelling when not registered is a no-op.
func (s *Service) Cancel(ctx context.Context, eventID id.EventID) error {
	accountID := requestcontext.AccountID(ctx)
	if accountID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	registration, err := s.registrations.FindByAccountAndEvent(ctx, accountID, eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration")
	}

	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.certificates.DeleteByRegistration(ctx, registration.ID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete certificate")
		}
		if err := s.registrations.Delete(ctx, registration.ID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete registration")
		}
		return nil
	})
	if err != nil {
		return err
	}

	eventName := ""
	if event, findErr := s.events.FindByID(ctx, eventID); findErr == nil {
		eventName = event.Name
	}
	if s.auditor != nil {
		detail := "registration cancelled"
		if eventName != "" {
			detail = fmt.Sprintf("cancelled registration for event %q", eventName)
		}
		s.auditor.Record(ctx, audit.ActionCancellation, detail)
	}
	if s.notifier != nil {
		s.notifier.RegistrationCancelled(ctx, accountID, eventName)
	}
	s.metrics.IncRegistrationsCancelled()
	return nil
}

// TogglePresence flips the attendance flag on a registration. Only the
// organizer who owns the event may do so, at any time relative to the event
// schedule. After every toggle the certificate engine gets a chance to issue;
// it declines on its own when the new state is ineligible.
func (s *Service) TogglePresence(ctx context.Context, registrationID id.RegistrationID) (*models.Registration, error) {
	registration, err := s.registrations.FindByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration")
	}

	event, err := s.events.FindByID(ctx, registration.EventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event")
	}
	if !event.OwnedBy(requestcontext.AccountID(ctx)) {
		return nil, dErrors.New(dErrors.CodeNotOwner, "only the event organizer may mark attendance")
	}

	registration.Presence = !registration.Presence
	if err := s.registrations.SetPresence(ctx, registration.ID, registration.Presence); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update presence")
	}

	if s.auditor != nil {
		s.auditor.Record(ctx, audit.ActionPresence,
			fmt.Sprintf("presence set to %t for event %q", registration.Presence, event.Name))
	}

	if s.issuer != nil {
		if _, err := s.issuer.TryIssue(ctx, registration); err != nil {
			// The toggle already happened; a failed issuance must not undo
			// it. The next sweep will retry.
			s.logger.WarnContext(ctx, "presence toggle: certificate issuance failed",
				"registration_id", registration.ID.String(),
				"error", err.Error(),
			)
		}
	}
	return registration, nil
}

// FindForAccount returns the account's registration for the event, if any.
func (s *Service) FindForAccount(ctx context.Context, accountID id.AccountID, eventID id.EventID) (*models.Registration, error) {
	registration, err := s.registrations.FindByAccountAndEvent(ctx, accountID, eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration")
	}
	return registration, nil
}

// ListByEvent returns every registration of the event. Only the owning
// organizer may see the attendance list.
func (s *Service) ListByEvent(ctx context.Context, eventID id.EventID) ([]models.Registration, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event")
	}
	if !event.OwnedBy(requestcontext.AccountID(ctx)) {
		return nil, dErrors.New(dErrors.CodeNotOwner, "only the event organizer may list registrations")
	}
	registrations, err := s.registrations.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list registrations")
	}
	return registrations, nil
}

// ListByAccount returns every registration of the account.
func (s *Service) ListByAccount(ctx context.Context, accountID id.AccountID) ([]models.Registration, error) {
	registrations, err := s.registrations.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list registrations")
	}
	return registrations, nil
}
