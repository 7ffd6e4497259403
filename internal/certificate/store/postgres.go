package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"sgea/internal/certificate/models"
	id "sgea/pkg/domain"
	"sgea/pkg/platform/sentinel"
	txcontext "sgea/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists certificates in PostgreSQL. The primary key on
// registration_id enforces the one-certificate-per-registration rule; the
// unique index on validation_code backs the global code uniqueness. Both
// violations surface as sentinel.ErrConflict.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, certificate *models.Certificate) error {
	query := `
		INSERT INTO certificates (registration_id, validation_code, issued_at)
		VALUES ($1, $2, $3)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(certificate.RegistrationID),
		certificate.ValidationCode,
		certificate.IssuedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert certificate: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByRegistration(ctx context.Context, registrationID id.RegistrationID) (*models.Certificate, error) {
	query := `SELECT registration_id, validation_code, issued_at FROM certificates WHERE registration_id = $1`
	return scanCertificate(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(registrationID)))
}

func (s *PostgresStore) FindByCode(ctx context.Context, code string) (*models.Certificate, error) {
	query := `SELECT registration_id, validation_code, issued_at FROM certificates WHERE validation_code = $1`
	return scanCertificate(s.execer(ctx).QueryRowContext(ctx, query, code))
}

func (s *PostgresStore) DeleteByRegistration(ctx context.Context, registrationID id.RegistrationID) error {
	_, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM certificates WHERE registration_id = $1`, uuid.UUID(registrationID))
	if err != nil {
		return fmt.Errorf("delete certificate: %w", err)
	}
	return nil
}

func scanCertificate(row *sql.Row) (*models.Certificate, error) {
	var (
		certificate    models.Certificate
		registrationID uuid.UUID
	)
	err := row.Scan(&registrationID, &certificate.ValidationCode, &certificate.IssuedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan certificate: %w", err)
	}
	certificate.RegistrationID = id.RegistrationID(registrationID)
	return &certificate, nil
}
