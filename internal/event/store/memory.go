package store

import (
	"context"
	"sort"
	"sync"

	"sgea/internal/event/models"
	id "sgea/pkg/domain"
	"sgea/pkg/platform/sentinel"
)

// MemoryStore keeps events in memory for unit tests and early wiring.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[id.EventID]*models.Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[id.EventID]*models.Event)}
}

func (s *MemoryStore) Create(_ context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.events[event.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *event
	s.events[event.ID] = &cp
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, eventID id.EventID) (*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event, ok := s.events[eventID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *event
	return &cp, nil
}

func (s *MemoryStore) Update(_ context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[event.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *event
	s.events[event.ID] = &cp
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, eventID id.EventID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[eventID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.events, eventID)
	return nil
}

func (s *MemoryStore) ListAll(_ context.Context) ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(*models.Event) bool { return true }), nil
}

func (s *MemoryStore) ListByOrganizer(_ context.Context, organizerID id.AccountID) ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(e *models.Event) bool {
		return e.OrganizerID != nil && *e.OrganizerID == organizerID
	}), nil
}

func (s *MemoryStore) ListByProfessor(_ context.Context, professorID id.AccountID) ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(e *models.Event) bool {
		return e.ProfessorID != nil && *e.ProfessorID == professorID
	}), nil
}

// collect snapshots matching events sorted by start time descending, the
// same ordering the SQL store returns. Callers must hold the lock.
func (s *MemoryStore) collect(match func(*models.Event) bool) []models.Event {
	var out []models.Event
	for _, event := range s.events {
		if match(event) {
			out = append(out, *event)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.After(out[j].StartTime)
		}
		return out[i].Name < out[j].Name
	})
	return out
}
