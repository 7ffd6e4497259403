// Package handler exposes signup, login and profile endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sgea/internal/account/models"
	"sgea/internal/account/service"
	"sgea/internal/ratelimit"
	id "sgea/pkg/domain"
	dErrors "sgea/pkg/domain-errors"
	"sgea/pkg/platform/httputil"
	"sgea/pkg/platform/middleware/auth"
	"sgea/pkg/requestcontext"
)

// Service defines the account operations the handler needs.
type Service interface {
	Signup(ctx context.Context, params service.SignupParams) (*models.Account, error)
	Login(ctx context.Context, login, password string) (string, *models.Account, error)
	Get(ctx context.Context, accountID id.AccountID) (*models.Account, error)
	UpdateProfile(ctx context.Context, params service.UpdateProfileParams) (*models.Account, error)
}

// Handler handles account endpoints.
type Handler struct {
	logger   *slog.Logger
	accounts Service
	tokens   auth.TokenValidator
	limiter  *ratelimit.Limiter
}

func New(accounts Service, tokens auth.TokenValidator, limiter *ratelimit.Limiter, logger *slog.Logger) *Handler {
	return &Handler{
		logger:   logger,
		accounts: accounts,
		tokens:   tokens,
		limiter:  limiter,
	}
}

// Register registers the account routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.limiter.Middleware(ratelimit.ScopeAuth))
		r.Post("/auth/signup", h.handleSignup)
		r.Post("/auth/login", h.handleLogin)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(h.tokens, h.logger))
		r.Get("/me", h.handleGetProfile)
		r.Put("/me", h.handleUpdateProfile)
	})
}

type signupRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Phone       string `json:"phone"`
	Institution string `json:"institution"`
	Role        string `json:"role"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	Account     accountResponse `json:"account"`
}

type accountResponse struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Institution string    `json:"institution,omitempty"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

func toAccountResponse(account *models.Account) accountResponse {
	return accountResponse{
		ID:          account.ID.String(),
		Username:    account.Username,
		Email:       account.Email,
		FirstName:   account.FirstName,
		LastName:    account.LastName,
		Phone:       account.Phone,
		Institution: account.Institution,
		Role:        string(account.Role),
		CreatedAt:   account.CreatedAt,
	}
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid signup request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	account, err := h.accounts.Signup(ctx, service.SignupParams{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       req.Phone,
		Institution: req.Institution,
		Role:        models.Role(req.Role),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "signup failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toAccountResponse(account))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	token, account, err := h.accounts.Login(ctx, req.Login, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "login failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		Account:     toAccountResponse(account),
	})
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	account, err := h.accounts.Get(ctx, requestcontext.AccountID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAccountResponse(account))
}

type updateProfileRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Phone       string `json:"phone"`
	Institution string `json:"institution"`
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	account, err := h.accounts.UpdateProfile(ctx, service.UpdateProfileParams{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       req.Phone,
		Institution: req.Institution,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAccountResponse(account))
}
