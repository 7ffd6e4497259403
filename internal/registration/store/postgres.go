package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"sgea/internal/registration/models"
	id "sgea/pkg/domain"
	"sgea/pkg/platform/sentinel"
	txcontext "sgea/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists registrations in PostgreSQL. The
// UNIQUE(account_id, event_id) constraint is the authority on duplicate
// registrations; Create maps its violation to sentinel.ErrConflict.
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

const registrationColumns = `id, account_id, event_id, presence, created_at`

func (s *PostgresStore) Create(ctx context.Context, registration *models.Registration) error {
	query := `
		INSERT INTO registrations (` + registrationColumns + `)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(registration.ID),
		uuid.UUID(registration.AccountID),
		uuid.UUID(registration.EventID),
		registration.Presence,
		registration.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, registrationID id.RegistrationID) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`
	return scanRegistration(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(registrationID)))
}

func (s *PostgresStore) FindByAccountAndEvent(ctx context.Context, accountID id.AccountID, eventID id.EventID) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE account_id = $1 AND event_id = $2`
	return scanRegistration(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(accountID), uuid.UUID(eventID)))
}

func (s *PostgresStore) SetPresence(ctx context.Context, registrationID id.RegistrationID, presence bool) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE registrations SET presence = $2 WHERE id = $1`,
		uuid.UUID(registrationID), presence)
	if err != nil {
		return fmt.Errorf("set presence: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set presence: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Delete removes the registration; the schema cascades the delete to any
// certificate the registration owns.
func (s *PostgresStore) Delete(ctx context.Context, registrationID id.RegistrationID) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM registrations WHERE id = $1`, uuid.UUID(registrationID))
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteByEvent(ctx context.Context, eventID id.EventID) error {
	_, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM registrations WHERE event_id = $1`, uuid.UUID(eventID))
	if err != nil {
		return fmt.Errorf("delete registrations by event: %w", err)
	}
	return nil
}

func (s *PostgresStore) CountByEvent(ctx context.Context, eventID id.EventID) (int, error) {
	var count int
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1`, uuid.UUID(eventID)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) ListByEvent(ctx context.Context, eventID id.EventID) ([]models.Registration, error) {
	return s.list(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE event_id = $1 ORDER BY created_at ASC`, uuid.UUID(eventID))
}

func (s *PostgresStore) ListByAccount(ctx context.Context, accountID id.AccountID) ([]models.Registration, error) {
	return s.list(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE account_id = $1 ORDER BY created_at ASC`, uuid.UUID(accountID))
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]models.Registration, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var registrations []models.Registration
	for rows.Next() {
		var (
			registration   models.Registration
			registrationID uuid.UUID
			accountID      uuid.UUID
			eventID        uuid.UUID
		)
		if err := rows.Scan(&registrationID, &accountID, &eventID, &registration.Presence, &registration.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		registration.ID = id.RegistrationID(registrationID)
		registration.AccountID = id.AccountID(accountID)
		registration.EventID = id.EventID(eventID)
		registrations = append(registrations, registration)
	}
	return registrations, rows.Err()
}

func scanRegistration(row *sql.Row) (*models.Registration, error) {
	var (
		registration   models.Registration
		registrationID uuid.UUID
		accountID      uuid.UUID
		eventID        uuid.UUID
	)
	err := row.Scan(&registrationID, &accountID, &eventID, &registration.Presence, &registration.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan registration: %w", err)
	}
	registration.ID = id.RegistrationID(registrationID)
	registration.AccountID = id.AccountID(accountID)
	registration.EventID = id.EventID(eventID)
	return &registration, nil
}
