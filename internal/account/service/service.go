// Package service implements account signup, login and profile management.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"sgea/internal/account/models"
	"sgea/internal/audit"
	"sgea/internal/jwtauth"
	"sgea/internal/platform/metrics"
	id "sgea/pkg/domain"
	dErrors "sgea/pkg/domain-errors"
	"sgea/pkg/platform/sentinel"
	"sgea/pkg/requestcontext"
)

// Store persists accounts.
type Store interface {
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error)
	FindByLogin(ctx context.Context, login string) (*models.Account, error)
	Update(ctx context.Context, account *models.Account) error
}

// Auditor is the append-only audit side channel.
type Auditor interface {
	Record(ctx context.Context, action audit.Action, detail string)
}

// SignupParams carries the caller's input for a new account.
type SignupParams struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Phone       string
	Institution string
	Role        models.Role
}

// Service manages accounts.
type Service struct {
	accounts Store
	tokens   *jwtauth.JWTService
	tokenTTL time.Duration
	logger   *slog.Logger
	auditor  Auditor
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithAuditor(auditor Auditor) Option {
	return func(s *Service) { s.auditor = auditor }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(accounts Store, tokens *jwtauth.JWTService, tokenTTL time.Duration, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		accounts: accounts,
		tokens:   tokens,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signup creates an account. Username and email are unique; the store's
// constraints decide races.
func (s *Service) Signup(ctx context.Context, params SignupParams) (*models.Account, error) {
	if len(params.Password) < 8 {
		return nil, dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	account, err := models.NewAccount(
		id.NewAccountID(),
		params.Username,
		params.Email,
		params.FirstName,
		params.LastName,
		params.Phone,
		params.Institution,
		params.Role,
		string(hash),
		requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "username or email already in use")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}

	if s.auditor != nil {
		s.auditor.Record(ctx, audit.ActionSignup,
			fmt.Sprintf("account %q created with role %s", account.Username, account.Role))
	}
	s.metrics.IncAccountsCreated()
	return account, nil
}

// Login checks the credential against the account found by username or email
// and mints an access token. Unknown login and wrong password produce the
// same error, so the endpoint does not leak which accounts exist.
func (s *Service) Login(ctx context.Context, login, password string) (string, *models.Account, error) {
	login = strings.ToLower(strings.TrimSpace(login))

	account, err := s.accounts.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.recordFailedLogin(ctx, login)
			return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		s.recordFailedLogin(ctx, login)
		return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	token, err := s.tokens.GenerateAccessToken(account.ID.UUID(), account.Username, string(account.Role), s.tokenTTL)
	if err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}

	if s.auditor != nil {
		s.auditor.Record(ctx, audit.ActionLogin,
			fmt.Sprintf("account %q logged in", account.Username))
	}
	return token, account, nil
}

// Get returns the account by ID.
func (s *Service) Get(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return account, nil
}

// UpdateProfileParams carries the mutable profile fields. Username, email and
// role are fixed at signup.
type UpdateProfileParams struct {
	FirstName   string
	LastName    string
	Phone       string
	Institution string
}

// UpdateProfile replaces the authenticated account's profile fields.
func (s *Service) UpdateProfile(ctx context.Context, params UpdateProfileParams) (*models.Account, error) {
	accountID := requestcontext.AccountID(ctx)
	if accountID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	account, err := s.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	institution := strings.TrimSpace(params.Institution)
	if (account.Role == models.RoleParticipant || account.Role == models.RoleProfessor) && institution == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "institution is required for participants and professors")
	}

	account.FirstName = strings.TrimSpace(params.FirstName)
	account.LastName = strings.TrimSpace(params.LastName)
	account.Phone = strings.TrimSpace(params.Phone)
	account.Institution = institution
	account.UpdatedAt = requestcontext.Now(ctx)

	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update account")
	}
	return account, nil
}

func (s *Service) recordFailedLogin(ctx context.Context, login string) {
	if s.auditor != nil {
		s.auditor.Record(ctx, audit.ActionLoginFailed,
			fmt.Sprintf("failed login attempt for %q", login))
	}
}
