package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sgea/internal/registration/models"
	id "sgea/pkg/domain"
	"sgea/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemoryStore()
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) newRegistration(accountID id.AccountID, eventID id.EventID) *models.Registration {
	return models.New(id.NewRegistrationID(), accountID, eventID, time.Now())
}

func (s *MemoryStoreSuite) TestUniquePair() {
	accountID := id.NewAccountID()
	eventID := id.NewEventID()

	s.Require().NoError(s.store.Create(s.ctx, s.newRegistration(accountID, eventID)))

	err := s.store.Create(s.ctx, s.newRegistration(accountID, eventID))
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	s.Require().NoError(s.store.Create(s.ctx, s.newRegistration(accountID, id.NewEventID())))
	s.Require().NoError(s.store.Create(s.ctx, s.newRegistration(id.NewAccountID(), eventID)))
}

func (s *MemoryStoreSuite) TestConcurrentCreateSamePair() {
	accountID := id.NewAccountID()
	eventID := id.NewEventID()

	const writers = 32
	var wg sync.WaitGroup
	var created atomic.Int64
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.store.Create(s.ctx, s.newRegistration(accountID, eventID)); err == nil {
				created.Add(1)
			} else {
				s.ErrorIs(err, sentinel.ErrConflict)
			}
		}()
	}
	wg.Wait()

	s.Equal(int64(1), created.Load())
	count, err := s.store.CountByEvent(s.ctx, eventID)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *MemoryStoreSuite) TestCountAndList() {
	eventID := id.NewEventID()
	for i := 0; i < 3; i++ {
		s.Require().NoError(s.store.Create(s.ctx, s.newRegistration(id.NewAccountID(), eventID)))
	}
	s.Require().NoError(s.store.Create(s.ctx, s.newRegistration(id.NewAccountID(), id.NewEventID())))

	count, err := s.store.CountByEvent(s.ctx, eventID)
	s.Require().NoError(err)
	s.Equal(3, count)

	registrations, err := s.store.ListByEvent(s.ctx, eventID)
	s.Require().NoError(err)
	s.Len(registrations, 3)
}

func (s *MemoryStoreSuite) TestDeleteFreesThePair() {
	accountID := id.NewAccountID()
	eventID := id.NewEventID()

	registration := s.newRegistration(accountID, eventID)
	s.Require().NoError(s.store.Create(s.ctx, registration))
	s.Require().NoError(s.store.Delete(s.ctx, registration.ID))

	s.Require().NoError(s.store.Create(s.ctx, s.newRegistration(accountID, eventID)))
}

func (s *MemoryStoreSuite) TestSetPresence() {
	registration := s.newRegistration(id.NewAccountID(), id.NewEventID())
	s.Require().NoError(s.store.Create(s.ctx, registration))

	s.Require().NoError(s.store.SetPresence(s.ctx, registration.ID, true))

	found, err := s.store.FindByID(s.ctx, registration.ID)
	s.Require().NoError(err)
	s.True(found.Presence)

	err = s.store.SetPresence(s.ctx, id.NewRegistrationID(), true)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestDeleteByEvent() {
	eventID := id.NewEventID()
	for i := 0; i < 2; i++ {
		s.Require().NoError(s.store.Create(s.ctx, s.newRegistration(id.NewAccountID(), eventID)))
	}
	keeper := s.newRegistration(id.NewAccountID(), id.NewEventID())
	s.Require().NoError(s.store.Create(s.ctx, keeper))

	s.Require().NoError(s.store.DeleteByEvent(s.ctx, eventID))

	count, err := s.store.CountByEvent(s.ctx, eventID)
	s.Require().NoError(err)
	s.Equal(0, count)

	_, err = s.store.FindByID(s.ctx, keeper.ID)
	s.Require().NoError(err)
}
