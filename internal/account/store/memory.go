package store

import (
	"context"
	"strings"
	"sync"

	"sgea/internal/account/models"
	id "sgea/pkg/domain"
	"sgea/pkg/platform/sentinel"
)

// MemoryStore keeps accounts in memory with the same uniqueness semantics as
// the PostgreSQL store, so services behave identically in unit tests.
type MemoryStore struct {
	mu         sync.RWMutex
	byID       map[id.AccountID]*models.Account
	byUsername map[string]id.AccountID
	byEmail    map[string]id.AccountID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:       make(map[id.AccountID]*models.Account),
		byUsername: make(map[string]id.AccountID),
		byEmail:    make(map[string]id.AccountID),
	}
}

// Create inserts the account, failing with sentinel.ErrConflict when the
// username or email is already taken.
func (s *MemoryStore) Create(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(account.Username)
	email := strings.ToLower(account.Email)
	if _, exists := s.byUsername[username]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.byEmail[email]; exists {
		return sentinel.ErrConflict
	}

	cp := *account
	s.byID[account.ID] = &cp
	s.byUsername[username] = account.ID
	s.byEmail[email] = account.ID
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, accountID id.AccountID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.byID[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *account
	return &cp, nil
}

// FindByLogin resolves a username or email to an account.
func (s *MemoryStore) FindByLogin(_ context.Context, login string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	login = strings.ToLower(strings.TrimSpace(login))
	accountID, ok := s.byUsername[login]
	if !ok {
		accountID, ok = s.byEmail[login]
	}
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.byID[accountID]
	return &cp, nil
}

func (s *MemoryStore) Update(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[account.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	// Username and email are immutable after signup; profile edits touch the
	// remaining fields only.
	cp := *account
	cp.Username = current.Username
	cp.Email = current.Email
	s.byID[account.ID] = &cp
	return nil
}
