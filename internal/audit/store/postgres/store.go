package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"sgea/internal/audit"
	id "sgea/pkg/domain"
	txcontext "sgea/pkg/platform/tx"
)

// Store persists audit entries in PostgreSQL. Append honors a transaction
// carried in context so audit writes share the business operation's commit.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Append(ctx context.Context, entry audit.Entry) error {
	query := `
		INSERT INTO audit_entries (id, actor_id, actor, action, detail, origin_ip, user_agent, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	var actorID any
	if entry.ActorID != nil {
		actorID = uuid.UUID(*entry.ActorID)
	}
	_, err := s.execer(ctx).ExecContext(ctx, query,
		entry.ID,
		actorID,
		entry.Actor,
		string(entry.Action),
		entry.Detail,
		entry.OriginIP,
		entry.UserAgent,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, filter audit.Filter) ([]audit.Entry, error) {
	query := `
		SELECT id, actor_id, actor, action, detail, origin_ip, user_agent, occurred_at
		FROM audit_entries
	`
	var (
		conds []string
		args  []any
	)
	if !filter.Day.IsZero() {
		args = append(args, filter.Day.UTC())
		conds = append(conds, fmt.Sprintf("occurred_at >= date_trunc('day', $%d::timestamptz) AND occurred_at < date_trunc('day', $%d::timestamptz) + interval '1 day'", len(args), len(args)))
	}
	if filter.ActorContains != "" {
		args = append(args, "%"+filter.ActorContains+"%")
		conds = append(conds, fmt.Sprintf("actor ILIKE $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY occurred_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var (
			entry   audit.Entry
			actorID uuid.NullUUID
			action  string
		)
		if err := rows.Scan(&entry.ID, &actorID, &entry.Actor, &action, &entry.Detail, &entry.OriginIP, &entry.UserAgent, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if actorID.Valid {
			accountID := id.AccountID(actorID.UUID)
			entry.ActorID = &accountID
		}
		entry.Action = audit.Action(action)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
