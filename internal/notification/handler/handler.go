package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tradematch/internal/notification/models"
	"tradematch/internal/platform/middleware"
	"tradematch/internal/transport/http/shared"
	"tradematch/pkg/domain"
	dErrors "tradematch/pkg/domain-errors"
)

// Service defines the notification operations the HTTP layer needs.
type Service interface {
	List(ctx context.Context, actor domain.Principal) ([]*models.Notification, error)
	UnreadCount(ctx context.Context, actor domain.Principal) (int, error)
	MarkRead(ctx context.Context, actor domain.Principal, id domain.NotificationID) error
	Delete(ctx context.Context, actor domain.Principal, id domain.NotificationID) error
	Subscribe(actor domain.Principal) (<-chan *models.Notification, func())
}

// Handler exposes the notification endpoints, including the live websocket
// stream.
type Handler struct {
	notifications Service
	logger        *slog.Logger
	verifier      middleware.TokenVerifier
}

func New(notifications Service, verifier middleware.TokenVerifier, logger *slog.Logger) *Handler {
	return &Handler{notifications: notifications, logger: logger, verifier: verifier}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.verifier, h.logger))
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))
			r.Get("/notifications", h.handleList)
			r.Get("/notifications/unread-count", h.handleUnreadCount)
			r.Post("/notifications/{notificationID}/read", h.handleMarkRead)
			r.Delete("/notifications/{notificationID}", h.handleDelete)
		})
		// The stream stays open for the life of the socket; no request
		// timeout applies.
		r.Get("/notifications/stream", h.handleStream)
	})
}

type notificationResponse struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"created_at"`
}

func toResponse(n *models.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID.String(),
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		Metadata:  n.Metadata,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetPrincipal(ctx)

	list, err := h.notifications.List(ctx, actor)
	if err != nil {
		h.logError(ctx, "list notifications", err)
		shared.WriteError(w, err)
		return
	}
	out := make([]notificationResponse, len(list))
	for i, n := range list {
		out[i] = toResponse(n)
	}
	shared.RespondJSON(w, http.StatusOK, out)
}

func (h *Handler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetPrincipal(ctx)

	count, err := h.notifications.UnreadCount(ctx, actor)
	if err != nil {
		h.logError(ctx, "count unread notifications", err)
		shared.WriteError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, map[string]int{"unread": count})
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetPrincipal(ctx)

	id, err := domain.ParseNotificationID(chi.URLParam(r, "notificationID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.notifications.MarkRead(ctx, actor, id); err != nil {
		h.logError(ctx, "mark notification read", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetPrincipal(ctx)

	id, err := domain.ParseNotificationID(chi.URLParam(r, "notificationID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.notifications.Delete(ctx, actor, id); err != nil {
		h.logError(ctx, "delete notification", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) logError(ctx context.Context, op string, err error) {
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		return
	}
	h.logger.ErrorContext(ctx, op,
		"request_id", middleware.GetRequestID(ctx),
		"error", err,
	)
}
