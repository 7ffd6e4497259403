// Package handler exposes certificate issuance and the public validation
// lookup.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	accmodels "sgea/internal/account/models"
	"sgea/internal/certificate/models"
	"sgea/internal/ratelimit"
	id "sgea/pkg/domain"
	"sgea/pkg/platform/httputil"
	"sgea/pkg/platform/middleware/auth"
	"sgea/pkg/requestcontext"
)

// Service defines the certificate operations the handler needs.
type Service interface {
	BatchIssue(ctx context.Context, eventID id.EventID) (int, error)
	Validate(ctx context.Context, code string) (*models.Certificate, error)
}

// Handler handles certificate endpoints.
type Handler struct {
	logger       *slog.Logger
	certificates Service
	tokens       auth.TokenValidator
	limiter      *ratelimit.Limiter
}

func New(certificates Service, tokens auth.TokenValidator, limiter *ratelimit.Limiter, logger *slog.Logger) *Handler {
	return &Handler{
		logger:       logger,
		certificates: certificates,
		tokens:       tokens,
		limiter:      limiter,
	}
}

// Register registers the certificate routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.limiter.Middleware(ratelimit.ScopeCatalog))
		r.Get("/certificates/{code}", h.handleValidate)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(h.tokens, h.logger))
		r.Use(auth.RequireRole(h.logger, string(accmodels.RoleOrganizer)))
		r.Post("/events/{eventID}/certificates", h.handleBatchIssue)
	})
}

type batchIssueResponse struct {
	Issued int `json:"issued"`
}

type validateResponse struct {
	ValidationCode string    `json:"validation_code"`
	RegistrationID string    `json:"registration_id"`
	IssuedAt       time.Time `json:"issued_at"`
}

func (h *Handler) handleBatchIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	issued, err := h.certificates.BatchIssue(ctx, eventID)
	if err != nil {
		h.logger.WarnContext(ctx, "batch issue rejected",
			"request_id", requestcontext.RequestID(ctx),
			"event_id", eventID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, batchIssueResponse{Issued: issued})
}

// handleValidate is the public check printed on certificates. Codes are
// stored uppercase; accept whatever casing the visitor typed.
func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	code := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "code")))
	certificate, err := h.certificates.Validate(ctx, code)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, validateResponse{
		ValidationCode: certificate.ValidationCode,
		RegistrationID: certificate.RegistrationID.String(),
		IssuedAt:       certificate.IssuedAt,
	})
}
