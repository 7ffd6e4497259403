//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	accmodels "sgea/internal/account/models"
	accountstore "sgea/internal/account/store"
	certmodels "sgea/internal/certificate/models"
	certstore "sgea/internal/certificate/store"
	eventmodels "sgea/internal/event/models"
	eventstore "sgea/internal/event/store"
	regmodels "sgea/internal/registration/models"
	regstore "sgea/internal/registration/store"
	id "sgea/pkg/domain"
	"sgea/pkg/platform/sentinel"
	"sgea/pkg/testutil/containers"
)

type CertificateStoreSuite struct {
	suite.Suite
	postgres      *containers.PostgresContainer
	accounts      *accountstore.PostgresStore
	events        *eventstore.PostgresStore
	registrations *regstore.PostgresStore
	store         *certstore.PostgresStore
}

func TestCertificateStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CertificateStoreSuite))
}

func (s *CertificateStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.accounts = accountstore.NewPostgres(s.postgres.DB)
	s.events = eventstore.NewPostgres(s.postgres.DB)
	s.registrations = regstore.NewPostgres(s.postgres.DB)
	s.store = certstore.NewPostgres(s.postgres.DB)
}

func (s *CertificateStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(),
		"certificates", "registrations", "events", "accounts")
	s.Require().NoError(err)
}

func (s *CertificateStoreSuite) seedRegistration() *regmodels.Registration {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	account, err := accmodels.NewAccount(id.NewAccountID(), "mariana", "mariana@uni.edu",
		"", "", "", "Federal University", accmodels.RoleParticipant, "hash", now)
	s.Require().NoError(err)
	s.Require().NoError(s.accounts.Create(ctx, account))

	organizer, err := accmodels.NewAccount(id.NewAccountID(), "coord", "coord@uni.edu",
		"", "", "", "", accmodels.RoleOrganizer, "hash", now)
	s.Require().NoError(err)
	s.Require().NoError(s.accounts.Create(ctx, organizer))

	event, err := eventmodels.NewEvent(id.NewEventID(), "Seminar", eventmodels.TypeSeminar,
		now.Add(time.Hour), now.Add(2*time.Hour), "", 100, organizer.ID, nil, now)
	s.Require().NoError(err)
	s.Require().NoError(s.events.Create(ctx, event))

	registration := regmodels.New(id.NewRegistrationID(), account.ID, event.ID, now)
	s.Require().NoError(s.registrations.Create(ctx, registration))
	return registration
}

func (s *CertificateStoreSuite) TestOneCertificatePerRegistration() {
	ctx := context.Background()
	registration := s.seedRegistration()

	first := certmodels.New(registration.ID, time.Now().UTC())
	s.Require().NoError(s.store.Create(ctx, first))

	second := certmodels.New(registration.ID, time.Now().UTC())
	err := s.store.Create(ctx, second)
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *CertificateStoreSuite) TestLookupByCode() {
	ctx := context.Background()
	registration := s.seedRegistration()

	certificate := certmodels.New(registration.ID, time.Now().UTC())
	s.Require().NoError(s.store.Create(ctx, certificate))

	found, err := s.store.FindByCode(ctx, certificate.ValidationCode)
	s.Require().NoError(err)
	s.Equal(registration.ID, found.RegistrationID)

	_, err = s.store.FindByCode(ctx, "0000000000000000")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *CertificateStoreSuite) TestDeleteByRegistrationIsIdempotent() {
	ctx := context.Background()
	registration := s.seedRegistration()

	certificate := certmodels.New(registration.ID, time.Now().UTC())
	s.Require().NoError(s.store.Create(ctx, certificate))

	s.Require().NoError(s.store.DeleteByRegistration(ctx, registration.ID))
	s.Require().NoError(s.store.DeleteByRegistration(ctx, registration.ID))

	_, err := s.store.FindByRegistration(ctx, registration.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
