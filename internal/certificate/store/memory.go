package store

import (
	"context"
	"sync"

	"sgea/internal/certificate/models"
	id "sgea/pkg/domain"
	"sgea/pkg/platform/sentinel"
)

// MemoryStore keeps certificates in memory, mirroring the PostgreSQL
// constraints: one certificate per registration, globally unique validation
// codes. Both are checked under one lock so racing issuers see the same
// conflict the database would raise.
type MemoryStore struct {
	mu             sync.RWMutex
	byRegistration map[id.RegistrationID]*models.Certificate
	byCode         map[string]id.RegistrationID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byRegistration: make(map[id.RegistrationID]*models.Certificate),
		byCode:         make(map[string]id.RegistrationID),
	}
}

// Create inserts the certificate, failing with sentinel.ErrConflict when the
// registration already owns one or the validation code collides.
func (s *MemoryStore) Create(_ context.Context, certificate *models.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byRegistration[certificate.RegistrationID]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.byCode[certificate.ValidationCode]; exists {
		return sentinel.ErrConflict
	}
	cp := *certificate
	s.byRegistration[certificate.RegistrationID] = &cp
	s.byCode[certificate.ValidationCode] = certificate.RegistrationID
	return nil
}

func (s *MemoryStore) FindByRegistration(_ context.Context, registrationID id.RegistrationID) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	certificate, ok := s.byRegistration[registrationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *certificate
	return &cp, nil
}

func (s *MemoryStore) FindByCode(_ context.Context, code string) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	registrationID, ok := s.byCode[code]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.byRegistration[registrationID]
	return &cp, nil
}

// DeleteByRegistration removes the certificate owned by the registration, if
// any. Deleting an absent certificate is a no-op: this is the cascade path.
func (s *MemoryStore) DeleteByRegistration(_ context.Context, registrationID id.RegistrationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	certificate, ok := s.byRegistration[registrationID]
	if !ok {
		return nil
	}
	delete(s.byCode, certificate.ValidationCode)
	delete(s.byRegistration, registrationID)
	return nil
}
