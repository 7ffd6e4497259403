// Package handler exposes the event catalog and the organizer's event
// management endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	accmodels "sgea/internal/account/models"
	"sgea/internal/event/models"
	"sgea/internal/ratelimit"
	id "sgea/pkg/domain"
	dErrors "sgea/pkg/domain-errors"
	"sgea/pkg/platform/httputil"
	"sgea/pkg/platform/middleware/auth"
	"sgea/pkg/requestcontext"
)

// Service defines the event operations the handler needs.
type Service interface {
	Create(ctx context.Context, event *models.Event) error
	Get(ctx context.Context, eventID id.EventID) (*models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, eventID id.EventID) error
	ListAll(ctx context.Context) ([]models.Event, error)
	ListMine(ctx context.Context) ([]models.Event, error)
	ListForProfessor(ctx context.Context) ([]models.Event, error)
}

// Handler handles event endpoints.
type Handler struct {
	logger  *slog.Logger
	events  Service
	tokens  auth.TokenValidator
	limiter *ratelimit.Limiter
}

func New(events Service, tokens auth.TokenValidator, limiter *ratelimit.Limiter, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		events:  events,
		tokens:  tokens,
		limiter: limiter,
	}
}

// Register registers the event routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.limiter.Middleware(ratelimit.ScopeCatalog))
		r.Get("/events", h.handleList)
		r.Get("/events/{eventID}", h.handleGet)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(h.tokens, h.logger))
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(h.logger, string(accmodels.RoleOrganizer)))
			r.Post("/events", h.handleCreate)
			r.Put("/events/{eventID}", h.handleUpdate)
			r.Delete("/events/{eventID}", h.handleDelete)
			r.Get("/organizer/events", h.handleListMine)
		})
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(h.logger, string(accmodels.RoleProfessor)))
			r.Get("/professor/events", h.handleListForProfessor)
		})
	})
}

type eventRequest struct {
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Location    string    `json:"location"`
	Capacity    int       `json:"capacity"`
	ProfessorID string    `json:"professor_id,omitempty"`
}

type eventResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Location    string    `json:"location,omitempty"`
	Capacity    int       `json:"capacity"`
	OrganizerID string    `json:"organizer_id,omitempty"`
	ProfessorID string    `json:"professor_id,omitempty"`
	Finished    bool      `json:"finished"`
}

func toEventResponse(event *models.Event, now time.Time) eventResponse {
	resp := eventResponse{
		ID:        event.ID.String(),
		Name:      event.Name,
		Type:      string(event.Type),
		StartTime: event.StartTime,
		EndTime:   event.EndTime,
		Location:  event.Location,
		Capacity:  event.Capacity,
		Finished:  event.Finished(now),
	}
	if event.OrganizerID != nil {
		resp.OrganizerID = event.OrganizerID.String()
	}
	if event.ProfessorID != nil {
		resp.ProfessorID = event.ProfessorID.String()
	}
	return resp
}

func toEventList(events []models.Event, now time.Time) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for i := range events {
		out = append(out, toEventResponse(&events[i], now))
	}
	return out
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	events, err := h.events.ListAll(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEventList(events, requestcontext.Now(ctx)))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	event, err := h.events.Get(ctx, eventID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEventResponse(event, requestcontext.Now(ctx)))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	professorID, err := parseProfessor(req.ProfessorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	now := requestcontext.Now(ctx)
	event, err := models.NewEvent(
		id.NewEventID(),
		req.Name,
		models.EventType(req.Type),
		req.StartTime,
		req.EndTime,
		req.Location,
		req.Capacity,
		requestcontext.AccountID(ctx),
		professorID,
		now,
	)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid event",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	if err := h.events.Create(ctx, event); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toEventResponse(event, now))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	professorID, err := parseProfessor(req.ProfessorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	event := &models.Event{
		ID:          eventID,
		Name:        req.Name,
		Type:        models.EventType(req.Type),
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    req.Location,
		Capacity:    req.Capacity,
		ProfessorID: professorID,
	}
	if err := h.events.Update(ctx, event); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEventResponse(event, requestcontext.Now(ctx)))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.events.Delete(ctx, eventID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	events, err := h.events.ListMine(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEventList(events, requestcontext.Now(ctx)))
}

func (h *Handler) handleListForProfessor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	events, err := h.events.ListForProfessor(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEventList(events, requestcontext.Now(ctx)))
}

func parseProfessor(raw string) (*id.AccountID, error) {
	if raw == "" {
		return nil, nil
	}
	professorID, err := id.ParseAccountID(raw)
	if err != nil {
		return nil, err
	}
	return &professorID, nil
}
