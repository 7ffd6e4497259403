package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	certstore "sgea/internal/certificate/store"
	eventmodels "sgea/internal/event/models"
	eventstore "sgea/internal/event/store"
	regmodels "sgea/internal/registration/models"
	regstore "sgea/internal/registration/store"
	id "sgea/pkg/domain"
	dErrors "sgea/pkg/domain-errors"
	"sgea/pkg/requestcontext"
)

type CertificateServiceSuite struct {
	suite.Suite
	events        *eventstore.MemoryStore
	registrations *regstore.MemoryStore
	certificates  *certstore.MemoryStore
	service       *Service

	now       time.Time
	organizer id.AccountID
}

func TestCertificateServiceSuite(t *testing.T) {
	suite.Run(t, new(CertificateServiceSuite))
}

func (s *CertificateServiceSuite) SetupTest() {
	s.events = eventstore.NewMemoryStore()
	s.registrations = regstore.NewMemoryStore()
	s.certificates = certstore.NewMemoryStore()
	s.service = New(s.certificates, s.registrations, s.events, slog.Default())

	s.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s.organizer = id.NewAccountID()
}

// ctx returns a context carrying the given identity and the suite clock.
func (s *CertificateServiceSuite) ctx(accountID id.AccountID) context.Context {
	ctx := requestcontext.WithTime(context.Background(), s.now)
	if !accountID.IsNil() {
		ctx = requestcontext.WithAccount(ctx, accountID, "someone", "organizer")
	}
	return ctx
}

// seedEvent creates an event ending at the given offset from the suite clock.
func (s *CertificateServiceSuite) seedEvent(endOffset time.Duration, capacity int) *eventmodels.Event {
	organizerID := s.organizer
	event := &eventmodels.Event{
		ID:          id.NewEventID(),
		Name:        "Systems Seminar",
		Type:        eventmodels.TypeSeminar,
		StartTime:   s.now.Add(endOffset - 2*time.Hour),
		EndTime:     s.now.Add(endOffset),
		Capacity:    capacity,
		OrganizerID: &organizerID,
		CreatedAt:   s.now.Add(-48 * time.Hour),
		UpdatedAt:   s.now.Add(-48 * time.Hour),
	}
	s.Require().NoError(s.events.Create(context.Background(), event))
	return event
}

func (s *CertificateServiceSuite) seedRegistration(eventID id.EventID, presence bool) *regmodels.Registration {
	registration := regmodels.New(id.NewRegistrationID(), id.NewAccountID(), eventID, s.now.Add(-24*time.Hour))
	registration.Presence = presence
	s.Require().NoError(s.registrations.Create(context.Background(), registration))
	return registration
}

func (s *CertificateServiceSuite) TestTryIssue() {
	s.Run("issues for present registration on finished event", func() {
		event := s.seedEvent(-time.Hour, 10)
		registration := s.seedRegistration(event.ID, true)

		issued, err := s.service.TryIssue(s.ctx(id.AccountID{}), registration)
		s.Require().NoError(err)
		s.True(issued)

		certificate, err := s.certificates.FindByRegistration(context.Background(), registration.ID)
		s.Require().NoError(err)
		s.Len(certificate.ValidationCode, 16)
	})

	s.Run("declines when presence not confirmed", func() {
		event := s.seedEvent(-time.Hour, 10)
		registration := s.seedRegistration(event.ID, false)

		issued, err := s.service.TryIssue(s.ctx(id.AccountID{}), registration)
		s.Require().NoError(err)
		s.False(issued)
	})

	s.Run("declines while event still running", func() {
		event := s.seedEvent(time.Hour, 10)
		registration := s.seedRegistration(event.ID, true)

		issued, err := s.service.TryIssue(s.ctx(id.AccountID{}), registration)
		s.Require().NoError(err)
		s.False(issued)
	})

	s.Run("second call is a silent no-op", func() {
		event := s.seedEvent(-time.Hour, 10)
		registration := s.seedRegistration(event.ID, true)
		ctx := s.ctx(id.AccountID{})

		issued, err := s.service.TryIssue(ctx, registration)
		s.Require().NoError(err)
		s.True(issued)

		first, err := s.certificates.FindByRegistration(context.Background(), registration.ID)
		s.Require().NoError(err)

		issued, err = s.service.TryIssue(ctx, registration)
		s.Require().NoError(err)
		s.False(issued)

		second, err := s.certificates.FindByRegistration(context.Background(), registration.ID)
		s.Require().NoError(err)
		s.Equal(first.ValidationCode, second.ValidationCode)
	})
}

func (s *CertificateServiceSuite) TestConcurrentTryIssue() {
	event := s.seedEvent(-time.Hour, 10)
	registration := s.seedRegistration(event.ID, true)

	const issuers = 16
	var wg sync.WaitGroup
	var issued atomic.Int64
	for i := 0; i < issuers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.service.TryIssue(s.ctx(id.AccountID{}), registration)
			s.NoError(err)
			if ok {
				issued.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int64(1), issued.Load())
	certificate, err := s.certificates.FindByRegistration(context.Background(), registration.ID)
	s.Require().NoError(err)
	s.NotEmpty(certificate.ValidationCode)
}

func (s *CertificateServiceSuite) TestBatchIssue() {
	s.Run("issues only for present registrations", func() {
		event := s.seedEvent(-time.Hour, 10)
		s.seedRegistration(event.ID, true)
		s.seedRegistration(event.ID, true)
		s.seedRegistration(event.ID, false)

		count, err := s.service.BatchIssue(s.ctx(s.organizer), event.ID)
		s.Require().NoError(err)
		s.Equal(2, count)
	})

	s.Run("skips already certified registrations", func() {
		event := s.seedEvent(-time.Hour, 10)
		registration := s.seedRegistration(event.ID, true)
		s.seedRegistration(event.ID, true)

		issued, err := s.service.TryIssue(s.ctx(id.AccountID{}), registration)
		s.Require().NoError(err)
		s.True(issued)

		count, err := s.service.BatchIssue(s.ctx(s.organizer), event.ID)
		s.Require().NoError(err)
		s.Equal(1, count)
	})

	s.Run("rejects non-owner", func() {
		event := s.seedEvent(-time.Hour, 10)
		s.seedRegistration(event.ID, true)

		_, err := s.service.BatchIssue(s.ctx(id.NewAccountID()), event.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotOwner))
	})

	s.Run("rejects unfinished event", func() {
		event := s.seedEvent(time.Hour, 10)
		s.seedRegistration(event.ID, true)

		_, err := s.service.BatchIssue(s.ctx(s.organizer), event.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeEventNotFinished))
	})

	s.Run("zero eligible is a valid outcome", func() {
		event := s.seedEvent(-time.Hour, 10)
		s.seedRegistration(event.ID, false)

		count, err := s.service.BatchIssue(s.ctx(s.organizer), event.ID)
		s.Require().NoError(err)
		s.Equal(0, count)
	})
}

func (s *CertificateServiceSuite) TestSweeps() {
	s.Run("account sweep issues across events", func() {
		accountID := id.NewAccountID()
		finished := s.seedEvent(-time.Hour, 10)
		running := s.seedEvent(time.Hour, 10)

		for _, event := range []*eventmodels.Event{finished, running} {
			registration := regmodels.New(id.NewRegistrationID(), accountID, event.ID, s.now.Add(-24*time.Hour))
			registration.Presence = true
			s.Require().NoError(s.registrations.Create(context.Background(), registration))
		}

		count, err := s.service.SweepAccount(s.ctx(accountID), accountID)
		s.Require().NoError(err)
		s.Equal(1, count)
	})

	s.Run("event sweep is silent about unfinished events", func() {
		event := s.seedEvent(time.Hour, 10)
		s.seedRegistration(event.ID, true)

		count, err := s.service.SweepEvent(s.ctx(s.organizer), event.ID)
		s.Require().NoError(err)
		s.Equal(0, count)
	})
}

func (s *CertificateServiceSuite) TestValidate() {
	s.Run("resolves an issued code", func() {
		event := s.seedEvent(-time.Hour, 10)
		registration := s.seedRegistration(event.ID, true)

		issued, err := s.service.TryIssue(s.ctx(id.AccountID{}), registration)
		s.Require().NoError(err)
		s.True(issued)

		certificate, err := s.certificates.FindByRegistration(context.Background(), registration.ID)
		s.Require().NoError(err)

		found, err := s.service.Validate(context.Background(), certificate.ValidationCode)
		s.Require().NoError(err)
		s.Equal(registration.ID, found.RegistrationID)
	})

	s.Run("unknown code is not found", func() {
		_, err := s.service.Validate(context.Background(), "0123456789ABCDEF")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("empty code is a bad request", func() {
		_, err := s.service.Validate(context.Background(), "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}
