// Package service implements certificate eligibility and issuance.
//
// Eligibility for a registration is exactly: presence confirmed, event
// finished, no certificate yet. Issuance is idempotent; the store's
// one-certificate-per-registration constraint is the final guard, so two
// concurrent triggers (an attendance toggle and a dashboard sweep, say)
// produce exactly one certificate.
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
	regmodels "sgea/internal/registration/models"
	id "sgea/pkg/domain"
	dErrors "sgea/pkg/domain-errors"
	"sgea/pkg/platform/sentinel"
	"sgea/pkg/requestcontext"
)

// Store persists certificates.
type Store interface {
	Create(ctx context.Context, certificate *certmodels.Certificate) error
	FindByRegistration(ctx context.Context, registrationID id.RegistrationID) (*certmodels.Certificate, error)
	FindByCode(ctx context.Context, code string) (*certmodels.Certificate, error)
}

// RegistrationStore is the read surface the engine needs on registrations.
type RegistrationStore interface {
	ListByEvent(ctx context.Context, eventID id.EventID) ([]regmodels.Registration, error)
	ListByAccount(ctx context.Context, accountID id.AccountID) ([]regmodels.Registration, error)
}

// EventStore resolves the events registrations point at.
type EventStore interface {
	FindByID(ctx context.Context, eventID id.EventID) (*eventmodels.Event, error)
}

// Auditor is the append-only audit side channel.
type Auditor interface {
	Record(ctx context.Context, action audit.Action, detail string)
}

// Notifier announces newly issued certificates. Calls never block and
// failures never surface here.
type Notifier interface {
	CertificateIssued(ctx context.Context, accountID id.AccountID, eventName, validationCode string)
}

// Service is the certificate engine.
type Service struct {
	certificates  Store
	registrations RegistrationStore
	events        EventStore
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

func New(certificates Store, registrations RegistrationStore, events EventStore, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		certificates:  certificates,
		registrations: registrations,
		events:        events,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TryIssue evaluates eligibility for the registration and issues a
// certificate when it holds. It returns true only when this call created the
// certificate; ineligibility and already-issued are silent false outcomes,
// not errors. Safe to call from any trigger at any time.
func (s *Service) TryIssue(ctx context.Context, registration *regmodels.Registration) (bool, error) {
	if !registration.Presence {
		return false, nil
	}
	event, err := s.events.FindByID(ctx, registration.EventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event")
	}
	if !event.Finished(requestcontext.Now(ctx)) {
		return false, nil
	}

	// Fast-path check. Not authoritative: the insert below may still
	// conflict with a concurrent issuer, and that is fine.
	if _, err := s.certificates.FindByRegistration(ctx, registration.ID); err == nil {
		return false, nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing certificate")
	}

	certificate := certmodels.New(registration.ID, requestcontext.Now(ctx))
	if err := s.certificates.Create(ctx, certificate); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Another trigger issued first, or the generated code collided.
			// Either way the registration is certified; nothing to do.
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue certificate")
	}

	if s.auditor != nil {
		s.auditor.Record(ctx, audit.ActionCertificate,
			fmt.Sprintf("certificate %s issued for event %q", certificate.ValidationCode, event.Name))
	}
	if s.notifier != nil {
		s.notifier.CertificateIssued(ctx, registration.AccountID, event.Name, certificate.ValidationCode)
	}
	s.metrics.IncCertificatesIssued()
	return true, nil
}

// BatchIssue issues certificates for every present, uncertified registration
// of a finished event. Only the owning organizer may run it. Returns the
// number of certificates this call created; zero is a valid outcome.
func (s *Service) BatchIssue(ctx context.Context, eventID id.EventID) (int, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return 0, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event")
	}
	if !event.OwnedBy(requestcontext.AccountID(ctx)) {
		return 0, dErrors.New(dErrors.CodeNotOwner, "only the event organizer may issue certificates")
	}
	if !event.Finished(requestcontext.Now(ctx)) {
		return 0, dErrors.New(dErrors.CodeEventNotFinished, "the event has not finished yet")
	}

	registrations, err := s.registrations.ListByEvent(ctx, eventID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list registrations")
	}

	count := 0
	for i := range registrations {
		issued, err := s.TryIssue(ctx, &registrations[i])
		if err != nil {
			return count, err
		}
		if issued {
			count++
		}
	}

	if s.auditor != nil {
		s.auditor.Record(ctx, audit.ActionCertificateBatch,
			fmt.Sprintf("%d certificates issued for event %q", count, event.Name))
	}
	return count, nil
}

// SweepAccount opportunistically issues every certificate the account has
// earned. The participant dashboard calls this on open, so certificates
// appear lazily without a background job.
func (s *Service) SweepAccount(ctx context.Context, accountID id.AccountID) (int, error) {
	registrations, err := s.registrations.ListByAccount(ctx, accountID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list registrations")
	}
	return s.sweep(ctx, registrations)
}

// SweepEvent opportunistically issues pending certificates for an event's
// registrations. The organizer's participant-management view calls this on
// open. Unlike BatchIssue it is silent about unfinished events: TryIssue
// simply declines each registration.
func (s *Service) SweepEvent(ctx context.Context, eventID id.EventID) (int, error) {
	registrations, err := s.registrations.ListByEvent(ctx, eventID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list registrations")
	}
	return s.sweep(ctx, registrations)
}

func (s *Service) sweep(ctx context.Context, registrations []regmodels.Registration) (int, error) {
	count := 0
	for i := range registrations {
		issued, err := s.TryIssue(ctx, &registrations[i])
		if err != nil {
			// A sweep is best-effort; one bad registration must not block
			// the rest of the dashboard.
			s.logger.WarnContext(ctx, "sweep: certificate issuance failed",
				"registration_id", registrations[i].ID.String(),
				"error", err.Error(),
			)
			continue
		}
		if issued {
			count++
		}
	}
	return count, nil
}

// FindByRegistration returns the certificate owned by the registration, if
// issued.
func (s *Service) FindByRegistration(ctx context.Context, registrationID id.RegistrationID) (*certmodels.Certificate, error) {
	certificate, err := s.certificates.FindByRegistration(ctx, registrationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "certificate not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load certificate")
	}
	return certificate, nil
}

// Validate resolves a validation code to its certificate. This is the public
// check printed on issued certificates.
func (s *Service) Validate(ctx context.Context, code string) (*certmodels.Certificate, error) {
	if code == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "validation code is required")
	}
	certificate, err := s.certificates.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "unknown validation code")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up validation code")
	}
	return certificate, nil
}
