package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	id "sgea/pkg/domain"
	"sgea/pkg/requestcontext"
)

// Store persists audit entries. Append runs inside the caller's transaction
// when one is carried in context, so a registration and its audit entry
// commit together.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	List(ctx context.Context, filter Filter) ([]Entry, error)
}

// Recorder is the append-only audit side channel. Recording failures are
// logged and swallowed: a broken audit sink must never roll back or block
// the business action that triggered it.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

// Record appends an audit entry for the current request. Actor identity,
// origin address, User-Agent, and timestamp all come from the request
// context; anonymous requests produce entries with a nil actor.
func (r *Recorder) Record(ctx context.Context, action Action, detail string) {
	if r == nil || r.store == nil {
		return
	}
	var actorID *id.AccountID
	if accountID := requestcontext.AccountID(ctx); !accountID.IsNil() {
		actorID = &accountID
	}
	entry := Entry{
		ID:        uuid.New(),
		ActorID:   actorID,
		Actor:     requestcontext.Username(ctx),
		Action:    action,
		Detail:    detail,
		OriginIP:  requestcontext.ClientIP(ctx),
		UserAgent: summarizeUserAgent(requestcontext.UserAgent(ctx)),
		Timestamp: requestcontext.Now(ctx),
	}
	if err := r.store.Append(ctx, entry); err != nil {
		r.logger.ErrorContext(ctx, "audit append failed",
			"action", string(action),
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
}

// List returns audit entries matching the filter, newest first.
func (r *Recorder) List(ctx context.Context, filter Filter) ([]Entry, error) {
	return r.store.List(ctx, filter)
}

// summarizeUserAgent condenses a raw User-Agent header into the
// "Browser version (OS)" form shown on the audit page. Unparseable agents
// (curl, scripts, empty) pass through unchanged.
func summarizeUserAgent(raw string) string {
	if raw == "" {
		return ""
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	if name == "" {
		return raw
	}
	summary := name
	if version != "" {
		summary += " " + version
	}
	if os := ua.OS(); os != "" {
		summary += " (" + os + ")"
	}
	return summary
}

// SameDay reports whether two instants fall on the same UTC calendar day.
// Shared by store implementations applying Filter.Day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
