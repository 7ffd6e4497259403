//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	accmodels "sgea/internal/account/models"
	accountstore "sgea/internal/account/store"
	eventmodels "sgea/internal/event/models"
	eventstore "sgea/internal/event/store"
	regmodels "sgea/internal/registration/models"
	regstore "sgea/internal/registration/store"
	id "sgea/pkg/domain"
	"sgea/pkg/platform/sentinel"
	"sgea/pkg/platform/tx"
	"sgea/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres      *containers.PostgresContainer
	accounts      *accountstore.PostgresStore
	registrations *regstore.PostgresStore
	store         *eventstore.PostgresStore
	runner        *tx.SQLRunner
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.accounts = accountstore.NewPostgres(s.postgres.DB)
	s.registrations = regstore.NewPostgres(s.postgres.DB)
	s.store = eventstore.NewPostgres(s.postgres.DB)
	s.runner = tx.NewSQLRunner(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(),
		"certificates", "registrations", "events", "accounts")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) seedAccount(username string, role accmodels.Role) id.AccountID {
	now := time.Now().UTC().Truncate(time.Microsecond)
	account, err := accmodels.NewAccount(id.NewAccountID(), username, username+"@uni.edu",
		"", "", "", "Federal University", role, "hash", now)
	s.Require().NoError(err)
	s.Require().NoError(s.accounts.Create(context.Background(), account))
	return account.ID
}

func (s *PostgresStoreSuite) newEvent(organizerID id.AccountID, professorID *id.AccountID) *eventmodels.Event {
	now := time.Now().UTC().Truncate(time.Microsecond)
	event, err := eventmodels.NewEvent(id.NewEventID(), "Research Week", eventmodels.TypeSeminar,
		now.Add(time.Hour), now.Add(3*time.Hour), "Auditorium B", 80, organizerID, professorID, now)
	s.Require().NoError(err)
	return event
}

func (s *PostgresStoreSuite) TestCreateAndFindRoundTrip() {
	ctx := context.Background()
	organizerID := s.seedAccount("coord", accmodels.RoleOrganizer)
	professorID := s.seedAccount("prof", accmodels.RoleProfessor)

	event := s.newEvent(organizerID, &professorID)
	s.Require().NoError(s.store.Create(ctx, event))

	found, err := s.store.FindByID(ctx, event.ID)
	s.Require().NoError(err)
	s.Equal(event.Name, found.Name)
	s.Equal(event.Type, found.Type)
	s.Equal(event.Location, found.Location)
	s.Equal(event.Capacity, found.Capacity)
	s.Require().NotNil(found.OrganizerID)
	s.Equal(organizerID, *found.OrganizerID)
	s.Require().NotNil(found.ProfessorID)
	s.Equal(professorID, *found.ProfessorID)
}

func (s *PostgresStoreSuite) TestUpdate() {
	ctx := context.Background()
	organizerID := s.seedAccount("coord", accmodels.RoleOrganizer)

	event := s.newEvent(organizerID, nil)
	s.Require().NoError(s.store.Create(ctx, event))

	event.Name = "Research Week II"
	event.Capacity = 120
	s.Require().NoError(s.store.Update(ctx, event))

	found, err := s.store.FindByID(ctx, event.ID)
	s.Require().NoError(err)
	s.Equal("Research Week II", found.Name)
	s.Equal(120, found.Capacity)

	missing := s.newEvent(organizerID, nil)
	err = s.store.Update(ctx, missing)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDeleteInsideTransaction() {
	ctx := context.Background()
	organizerID := s.seedAccount("coord", accmodels.RoleOrganizer)

	event := s.newEvent(organizerID, nil)
	s.Require().NoError(s.store.Create(ctx, event))

	for _, name := range []string{"a", "b"} {
		accountID := s.seedAccount(name, accmodels.RoleParticipant)
		registration := regmodels.New(id.NewRegistrationID(), accountID, event.ID, time.Now().UTC())
		s.Require().NoError(s.registrations.Create(ctx, registration))
	}

	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.registrations.DeleteByEvent(ctx, event.ID); err != nil {
			return err
		}
		return s.store.Delete(ctx, event.ID)
	})
	s.Require().NoError(err)

	_, err = s.store.FindByID(ctx, event.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
	count, err := s.registrations.CountByEvent(ctx, event.ID)
	s.Require().NoError(err)
	s.Equal(0, count)
}

func (s *PostgresStoreSuite) TestListings() {
	ctx := context.Background()
	organizerID := s.seedAccount("coord", accmodels.RoleOrganizer)
	otherID := s.seedAccount("other", accmodels.RoleOrganizer)
	professorID := s.seedAccount("prof", accmodels.RoleProfessor)

	mine := s.newEvent(organizerID, &professorID)
	s.Require().NoError(s.store.Create(ctx, mine))
	theirs := s.newEvent(otherID, nil)
	s.Require().NoError(s.store.Create(ctx, theirs))

	all, err := s.store.ListAll(ctx)
	s.Require().NoError(err)
	s.Len(all, 2)

	byOrganizer, err := s.store.ListByOrganizer(ctx, organizerID)
	s.Require().NoError(err)
	s.Require().Len(byOrganizer, 1)
	s.Equal(mine.ID, byOrganizer[0].ID)

	byProfessor, err := s.store.ListByProfessor(ctx, professorID)
	s.Require().NoError(err)
	s.Require().Len(byProfessor, 1)
	s.Equal(mine.ID, byProfessor[0].ID)
}
