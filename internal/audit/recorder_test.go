package audit

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "sgea/pkg/domain"
	"sgea/pkg/requestcontext"
)

type capturingStore struct {
	entries []Entry
	fail    bool
}

func (s *capturingStore) Append(_ context.Context, entry Entry) error {
	if s.fail {
		return errors.New("sink down")
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *capturingStore) List(_ context.Context, filter Filter) ([]Entry, error) {
	out := make([]Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		if !filter.Day.IsZero() && !SameDay(entry.Timestamp, filter.Day) {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

type RecorderSuite struct {
	suite.Suite
	store    *capturingStore
	recorder *Recorder
}

func TestRecorderSuite(t *testing.T) {
	suite.Run(t, new(RecorderSuite))
}

func (s *RecorderSuite) SetupTest() {
	s.store = &capturingStore{}
	s.recorder = NewRecorder(s.store, slog.Default())
}

func (s *RecorderSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *RecorderSuite) TestRecord() {
	s.Run("captures actor and origin from context", func() {
		accountID := id.NewAccountID()
		now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

		ctx := requestcontext.WithTime(context.Background(), now)
		ctx = requestcontext.WithAccount(ctx, accountID, "mariana", "participant")
		ctx = requestcontext.WithClientMetadata(ctx, "203.0.113.9", "curl/8.5.0")

		s.recorder.Record(ctx, ActionRegistration, "registered for event \"Seminar\"")

		s.Require().Len(s.store.entries, 1)
		entry := s.store.entries[0]
		s.Require().NotNil(entry.ActorID)
		s.Equal(accountID, *entry.ActorID)
		s.Equal("mariana", entry.Actor)
		s.Equal("203.0.113.9", entry.OriginIP)
		s.Equal("curl/8.5.0", entry.UserAgent)
		s.Equal(now, entry.Timestamp)
	})

	s.Run("anonymous requests produce nil actor", func() {
		s.recorder.Record(context.Background(), ActionLoginFailed, "failed login attempt for \"ghost\"")

		s.Require().Len(s.store.entries, 1)
		s.Nil(s.store.entries[0].ActorID)
		s.Empty(s.store.entries[0].Actor)
	})

	s.Run("append failure is swallowed", func() {
		s.store.fail = true
		s.NotPanics(func() {
			s.recorder.Record(context.Background(), ActionLogin, "account logged in")
		})
	})

	s.Run("summarizes browser user agents", func() {
		ctx := requestcontext.WithClientMetadata(context.Background(), "",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

		s.recorder.Record(ctx, ActionLogin, "")

		s.Require().Len(s.store.entries, 1)
		s.Contains(s.store.entries[0].UserAgent, "Chrome")
		s.Contains(s.store.entries[0].UserAgent, "(Windows")
	})
}

func TestSameDay(t *testing.T) {
	morning := time.Date(2026, 3, 10, 0, 30, 0, 0, time.UTC)
	night := time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)
	next := time.Date(2026, 3, 11, 0, 30, 0, 0, time.UTC)

	if !SameDay(morning, night) {
		t.Fatalf("expected %v and %v on the same day", morning, night)
	}
	if SameDay(night, next) {
		t.Fatalf("expected %v and %v on different days", night, next)
	}
}
