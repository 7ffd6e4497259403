package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"sgea/internal/event/models"
	id "sgea/pkg/domain"
	"sgea/pkg/platform/sentinel"
	txcontext "sgea/pkg/platform/tx"
)

// PostgresStore persists events in PostgreSQL. Deleting an event cascades to
// its registrations (and through them to certificates) at the schema level.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const eventColumns = `id, name, event_type, start_time, end_time, location, capacity, organizer_id, professor_id, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(event.ID),
		event.Name,
		string(event.Type),
		event.StartTime,
		event.EndTime,
		event.Location,
		event.Capacity,
		nullableAccount(event.OrganizerID),
		nullableAccount(event.ProfessorID),
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, eventID id.EventID) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	row := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(eventID))
	event, err := scanEvent(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	return event, nil
}

func (s *PostgresStore) Update(ctx context.Context, event *models.Event) error {
	query := `
		UPDATE events
		SET name = $2, event_type = $3, start_time = $4, end_time = $5, location = $6, capacity = $7, professor_id = $8, updated_at = $9
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(event.ID),
		event.Name,
		string(event.Type),
		event.StartTime,
		event.EndTime,
		event.Location,
		event.Capacity,
		nullableAccount(event.ProfessorID),
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, eventID id.EventID) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM events WHERE id = $1`, uuid.UUID(eventID))
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]models.Event, error) {
	return s.list(ctx, `SELECT `+eventColumns+` FROM events ORDER BY start_time DESC, name ASC`)
}

func (s *PostgresStore) ListByOrganizer(ctx context.Context, organizerID id.AccountID) ([]models.Event, error) {
	return s.list(ctx, `SELECT `+eventColumns+` FROM events WHERE organizer_id = $1 ORDER BY start_time DESC, name ASC`, uuid.UUID(organizerID))
}

func (s *PostgresStore) ListByProfessor(ctx context.Context, professorID id.AccountID) ([]models.Event, error) {
	return s.list(ctx, `SELECT `+eventColumns+` FROM events WHERE professor_id = $1 ORDER BY start_time DESC, name ASC`, uuid.UUID(professorID))
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]models.Event, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		event, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

func scanEvent(scan func(dest ...any) error) (*models.Event, error) {
	var (
		event       models.Event
		eventID     uuid.UUID
		eventType   string
		organizerID uuid.NullUUID
		professorID uuid.NullUUID
	)
	err := scan(
		&eventID,
		&event.Name,
		&eventType,
		&event.StartTime,
		&event.EndTime,
		&event.Location,
		&event.Capacity,
		&organizerID,
		&professorID,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	event.ID = id.EventID(eventID)
	event.Type = models.EventType(eventType)
	if organizerID.Valid {
		accountID := id.AccountID(organizerID.UUID)
		event.OrganizerID = &accountID
	}
	if professorID.Valid {
		accountID := id.AccountID(professorID.UUID)
		event.ProfessorID = &accountID
	}
	return &event, nil
}

func nullableAccount(accountID *id.AccountID) any {
	if accountID == nil {
		return nil
	}
	return uuid.UUID(*accountID)
}
