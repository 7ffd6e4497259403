// Package handler exposes registration, cancellation and attendance
// endpoints, plus the participant dashboard listing.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	accmodels "sgea/internal/account/models"
	certmodels "sgea/internal/certificate/models"
	"sgea/internal/ratelimit"
	"sgea/internal/registration/models"
	id "sgea/pkg/domain"
	"sgea/pkg/platform/httputil"
	"sgea/pkg/platform/middleware/auth"
	"sgea/pkg/requestcontext"
)

// Service defines the registration operations the handler needs.
type Service interface {
	Register(ctx context.Context, eventID id.EventID) (*models.Registration, error)
	Cancel(ctx context.Context, eventID id.EventID) error
	TogglePresence(ctx context.Context, registrationID id.RegistrationID) (*models.Registration, error)
	ListByEvent(ctx context.Context, eventID id.EventID) ([]models.Registration, error)
	ListByAccount(ctx context.Context, accountID id.AccountID) ([]models.Registration, error)
}

// Certificates is the certificate engine surface the dashboards use: the
// lazy sweeps plus per-registration lookup.
type Certificates interface {
	SweepAccount(ctx context.Context, accountID id.AccountID) (int, error)
	SweepEvent(ctx context.Context, eventID id.EventID) (int, error)
	FindByRegistration(ctx context.Context, registrationID id.RegistrationID) (*certmodels.Certificate, error)
}

// Handler handles registration endpoints.
type Handler struct {
	logger        *slog.Logger
	registrations Service
	certificates  Certificates
	tokens        auth.TokenValidator
	limiter       *ratelimit.Limiter
}

func New(registrations Service, certificates Certificates, tokens auth.TokenValidator, limiter *ratelimit.Limiter, logger *slog.Logger) *Handler {
	return &Handler{
		logger:        logger,
		registrations: registrations,
		certificates:  certificates,
		tokens:        tokens,
		limiter:       limiter,
	}
}

// Register registers the registration routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(h.tokens, h.logger))

		r.Group(func(r chi.Router) {
			r.Use(h.limiter.Middleware(ratelimit.ScopeWrite))
			r.Post("/events/{eventID}/registrations", h.handleRegister)
			r.Delete("/events/{eventID}/registrations", h.handleCancel)
		})
		r.Get("/me/registrations", h.handleListMine)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(h.logger, string(accmodels.RoleOrganizer)))
			r.Get("/events/{eventID}/registrations", h.handleListByEvent)
			r.Post("/registrations/{registrationID}/presence", h.handleTogglePresence)
		})
	})
}

type registrationResponse struct {
	ID             string     `json:"id"`
	AccountID      string     `json:"account_id"`
	EventID        string     `json:"event_id"`
	Presence       bool       `json:"presence"`
	CreatedAt      time.Time  `json:"created_at"`
	ValidationCode string     `json:"validation_code,omitempty"`
	CertifiedAt    *time.Time `json:"certified_at,omitempty"`
}

func (h *Handler) toResponse(ctx context.Context, registration *models.Registration) registrationResponse {
	resp := registrationResponse{
		ID:        registration.ID.String(),
		AccountID: registration.AccountID.String(),
		EventID:   registration.EventID.String(),
		Presence:  registration.Presence,
		CreatedAt: registration.CreatedAt,
	}
	if certificate, err := h.certificates.FindByRegistration(ctx, registration.ID); err == nil {
		resp.ValidationCode = certificate.ValidationCode
		issuedAt := certificate.IssuedAt
		resp.CertifiedAt = &issuedAt
	}
	return resp
}

func (h *Handler) toResponseList(ctx context.Context, registrations []models.Registration) []registrationResponse {
	out := make([]registrationResponse, 0, len(registrations))
	for i := range registrations {
		out = append(out, h.toResponse(ctx, &registrations[i]))
	}
	return out
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	registration, err := h.registrations.Register(ctx, eventID)
	if err != nil {
		h.logger.WarnContext(ctx, "registration rejected",
			"request_id", requestcontext.RequestID(ctx),
			"event_id", eventID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, h.toResponse(ctx, registration))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.registrations.Cancel(ctx, eventID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListMine is the participant dashboard: sweep first so certificates
// earned since the last visit show up, then list.
func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := requestcontext.AccountID(ctx)

	if _, err := h.certificates.SweepAccount(ctx, accountID); err != nil {
		h.logger.WarnContext(ctx, "dashboard sweep failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}

	registrations, err := h.registrations.ListByAccount(ctx, accountID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.toResponseList(ctx, registrations))
}

// handleListByEvent is the organizer's attendance view, also sweep-first.
func (h *Handler) handleListByEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if _, err := h.certificates.SweepEvent(ctx, eventID); err != nil {
		h.logger.WarnContext(ctx, "event sweep failed",
			"request_id", requestcontext.RequestID(ctx),
			"event_id", eventID.String(),
			"error", err.Error(),
		)
	}

	registrations, err := h.registrations.ListByEvent(ctx, eventID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.toResponseList(ctx, registrations))
}

func (h *Handler) handleTogglePresence(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	registrationID, err := id.ParseRegistrationID(chi.URLParam(r, "registrationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	registration, err := h.registrations.TogglePresence(ctx, registrationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.toResponse(ctx, registration))
}
