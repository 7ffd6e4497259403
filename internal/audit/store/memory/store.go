package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"sgea/internal/audit"
)

// Store keeps audit entries in memory. It backs unit tests and makes the
// recorder usable before a database is wired.
type Store struct {
	mu      sync.RWMutex
	entries []audit.Entry
}

func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *Store) List(_ context.Context, filter audit.Filter) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []audit.Entry
	for _, entry := range s.entries {
		if !filter.Day.IsZero() && !audit.SameDay(entry.Timestamp, filter.Day) {
			continue
		}
		if filter.ActorContains != "" && !strings.Contains(strings.ToLower(entry.Actor), strings.ToLower(filter.ActorContains)) {
			continue
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}
