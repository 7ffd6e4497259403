package store

import (
	"context"
	"sort"
	"sync"

	"sgea/internal/registration/models"
	id "sgea/pkg/domain"
	"sgea/pkg/platform/sentinel"
)

type pairKey struct {
	account id.AccountID
	event   id.EventID
}

// MemoryStore keeps registrations in memory. It enforces the same
// one-registration-per-(account, event) invariant the PostgreSQL unique
// constraint does, under a single mutex, so concurrent unit tests exercise
// the conflict path for real.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[id.RegistrationID]*models.Registration
	byPair map[pairKey]id.RegistrationID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[id.RegistrationID]*models.Registration),
		byPair: make(map[pairKey]id.RegistrationID),
	}
}

// Create inserts the registration, failing with sentinel.ErrConflict when the
// (account, event) pair already has one. The check and insert happen under
// one lock: of two racing writers exactly one wins.
func (s *MemoryStore) Create(_ context.Context, registration *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{account: registration.AccountID, event: registration.EventID}
	if _, exists := s.byPair[key]; exists {
		return sentinel.ErrConflict
	}
	cp := *registration
	s.byID[registration.ID] = &cp
	s.byPair[key] = registration.ID
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, registrationID id.RegistrationID) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	registration, ok := s.byID[registrationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *registration
	return &cp, nil
}

func (s *MemoryStore) FindByAccountAndEvent(_ context.Context, accountID id.AccountID, eventID id.EventID) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	registrationID, ok := s.byPair[pairKey{account: accountID, event: eventID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.byID[registrationID]
	return &cp, nil
}

// SetPresence persists the toggled presence flag.
func (s *MemoryStore) SetPresence(_ context.Context, registrationID id.RegistrationID, presence bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	registration, ok := s.byID[registrationID]
	if !ok {
		return sentinel.ErrNotFound
	}
	registration.Presence = presence
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, registrationID id.RegistrationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	registration, ok := s.byID[registrationID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byPair, pairKey{account: registration.AccountID, event: registration.EventID})
	delete(s.byID, registrationID)
	return nil
}

func (s *MemoryStore) DeleteByEvent(_ context.Context, eventID id.EventID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for registrationID, registration := range s.byID {
		if registration.EventID == eventID {
			delete(s.byPair, pairKey{account: registration.AccountID, event: registration.EventID})
			delete(s.byID, registrationID)
		}
	}
	return nil
}

func (s *MemoryStore) CountByEvent(_ context.Context, eventID id.EventID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, registration := range s.byID {
		if registration.EventID == eventID {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) ListByEvent(_ context.Context, eventID id.EventID) ([]models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(r *models.Registration) bool { return r.EventID == eventID }), nil
}

func (s *MemoryStore) ListByAccount(_ context.Context, accountID id.AccountID) ([]models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(r *models.Registration) bool { return r.AccountID == accountID }), nil
}

func (s *MemoryStore) collect(match func(*models.Registration) bool) []models.Registration {
	var out []models.Registration
	for _, registration := range s.byID {
		if match(registration) {
			out = append(out, *registration)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
