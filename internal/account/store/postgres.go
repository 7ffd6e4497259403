package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"sgea/internal/account/models"
	id "sgea/pkg/domain"
	"sgea/pkg/platform/sentinel"
)

// uniqueViolation is the PostgreSQL error code for unique constraint
// violations. Stores map it to sentinel.ErrConflict so services treat the
// racing writer and the cooperative pre-check identically.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// PostgresStore persists accounts in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (id, username, email, first_name, last_name, phone, institution, role, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(account.ID),
		account.Username,
		account.Email,
		account.FirstName,
		account.LastName,
		account.Phone,
		account.Institution,
		string(account.Role),
		account.PasswordHash,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

const accountColumns = `id, username, email, first_name, last_name, phone, institution, role, password_hash, created_at, updated_at`

func (s *PostgresStore) FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return s.scanAccount(s.db.QueryRowContext(ctx, query, uuid.UUID(accountID)))
}

func (s *PostgresStore) FindByLogin(ctx context.Context, login string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = lower($1) OR email = lower($1)`
	return s.scanAccount(s.db.QueryRowContext(ctx, query, login))
}

func (s *PostgresStore) Update(ctx context.Context, account *models.Account) error {
	query := `
		UPDATE accounts
		SET first_name = $2, last_name = $3, phone = $4, institution = $5, role = $6, password_hash = $7, updated_at = $8
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(account.ID),
		account.FirstName,
		account.LastName,
		account.Phone,
		account.Institution,
		string(account.Role),
		account.PasswordHash,
		account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) scanAccount(row *sql.Row) (*models.Account, error) {
	var (
		account   models.Account
		accountID uuid.UUID
		role      string
	)
	err := row.Scan(
		&accountID,
		&account.Username,
		&account.Email,
		&account.FirstName,
		&account.LastName,
		&account.Phone,
		&account.Institution,
		&role,
		&account.PasswordHash,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	account.ID = id.AccountID(accountID)
	account.Role = models.Role(role)
	return &account, nil
}
