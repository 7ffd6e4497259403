// Package handler exposes the organizer's audit trail page.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	accmodels "sgea/internal/account/models"
	"sgea/internal/audit"
	dErrors "sgea/pkg/domain-errors"
	"sgea/pkg/platform/httputil"
	"sgea/pkg/platform/middleware/auth"
)

// Trail is the read side of the audit recorder.
type Trail interface {
	List(ctx context.Context, filter audit.Filter) ([]audit.Entry, error)
}

// Handler handles the audit endpoints.
type Handler struct {
	logger *slog.Logger
	trail  Trail
	tokens auth.TokenValidator
}

func New(trail Trail, tokens auth.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, trail: trail, tokens: tokens}
}

// Register registers the audit routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(h.tokens, h.logger))
		r.Use(auth.RequireRole(h.logger, string(accmodels.RoleOrganizer)))
		r.Get("/audit", h.handleList)
	})
}

type entryResponse struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actor_id,omitempty"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	OriginIP  string    `json:"origin_ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// handleList serves the audit page. Optional query parameters: day filters
// to one UTC calendar day (2006-01-02), actor matches a name substring.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var filter audit.Filter
	if raw := r.URL.Query().Get("day"); raw != "" {
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "day must be formatted 2006-01-02"))
			return
		}
		filter.Day = day
	}
	filter.ActorContains = r.URL.Query().Get("actor")

	entries, err := h.trail.List(ctx, filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]entryResponse, 0, len(entries))
	for _, entry := range entries {
		resp := entryResponse{
			ID:        entry.ID.String(),
			Actor:     entry.Actor,
			Action:    string(entry.Action),
			Detail:    entry.Detail,
			OriginIP:  entry.OriginIP,
			UserAgent: entry.UserAgent,
			Timestamp: entry.Timestamp,
		}
		if entry.ActorID != nil {
			resp.ActorID = entry.ActorID.String()
		}
		out = append(out, resp)
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
