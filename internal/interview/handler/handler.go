package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tradematch/internal/interview/models"
	"tradematch/internal/interview/service"
	"tradematch/internal/platform/middleware"
	"tradematch/internal/transport/http/shared"
	"tradematch/pkg/domain"
	dErrors "tradematch/pkg/domain-errors"
)

// Service defines the interview operations the HTTP layer needs.
type Service interface {
	Schedule(ctx context.Context, actor domain.Principal, params service.ScheduleParams) (*models.Interview, error)
	UpdateStatus(ctx context.Context, actor domain.Principal, interviewID domain.InterviewID, target models.Status, newDate time.Time) (*models.Interview, error)
	ListByApplication(ctx context.Context, actor domain.Principal, applicationID domain.ApplicationID) ([]*models.Interview, error)
}

// Handler exposes the interview endpoints.
type Handler struct {
	interviews Service
	logger     *slog.Logger
	verifier   middleware.TokenVerifier
}

func New(interviews Service, verifier middleware.TokenVerifier, logger *slog.Logger) *Handler {
	return &Handler{interviews: interviews, logger: logger, verifier: verifier}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.verifier, h.logger))
		r.Use(middleware.Timeout(30 * time.Second))
		r.Post("/interviews", h.handleSchedule)
		r.Post("/interviews/{interviewID}/status", h.handleUpdateStatus)
		r.Get("/applications/{applicationID}/interviews", h.handleListByApplication)
	})
}

type scheduleRequest struct {
	ApplicationID  string    `json:"application_id"`
	Date           time.Time `json:"interview_date"`
	Type           string    `json:"interview_type"`
	Location       string    `json:"location"`
	InterviewerIDs []string  `json:"interviewer_ids"`
}

type updateStatusRequest struct {
	Status  string    `json:"status"`
	NewDate time.Time `json:"new_date,omitzero"`
}

type interviewResponse struct {
	ID             string    `json:"id"`
	ApplicationID  string    `json:"application_id"`
	InterviewDate  time.Time `json:"interview_date"`
	Status         string    `json:"status"`
	Type           string    `json:"interview_type"`
	Location       string    `json:"location,omitempty"`
	InterviewerIDs []string  `json:"interviewer_ids,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toResponse(iv *models.Interview) interviewResponse {
	interviewers := make([]string, len(iv.InterviewerIDs))
	for i, id := range iv.InterviewerIDs {
		interviewers[i] = id.String()
	}
	return interviewResponse{
		ID:             iv.ID.String(),
		ApplicationID:  iv.ApplicationID.String(),
		InterviewDate:  iv.InterviewDate,
		Status:         string(iv.Status),
		Type:           string(iv.Type),
		Location:       iv.Location,
		InterviewerIDs: interviewers,
		CreatedAt:      iv.CreatedAt,
		UpdatedAt:      iv.UpdatedAt,
	}
}

func (h *Handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetPrincipal(ctx)

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	applicationID, err := domain.ParseApplicationID(req.ApplicationID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	interviewers := make([]domain.UserID, 0, len(req.InterviewerIDs))
	for _, raw := range req.InterviewerIDs {
		id, err := domain.ParseUserID(raw)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		interviewers = append(interviewers, id)
	}

	iv, err := h.interviews.Schedule(ctx, actor, service.ScheduleParams{
		ApplicationID:  applicationID,
		Date:           req.Date,
		Type:           models.Type(req.Type),
		Location:       req.Location,
		InterviewerIDs: interviewers,
	})
	if err != nil {
		h.logError(ctx, "schedule interview", err)
		// The interview may exist even when the status bump lost a race; the
		// caller gets the row plus the conflict so it can retry the
		// transition instead of rescheduling.
		if iv != nil && dErrors.HasCode(err, dErrors.CodeConflict) {
			shared.RespondJSON(w, http.StatusConflict, toResponse(iv))
			return
		}
		shared.WriteError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, toResponse(iv))
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetPrincipal(ctx)

	interviewID, err := domain.ParseInterviewID(chi.URLParam(r, "interviewID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	target, err := models.ParseStatus(req.Status)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	iv, err := h.interviews.UpdateStatus(ctx, actor, interviewID, target, req.NewDate)
	if err != nil {
		h.logError(ctx, "update interview status", err)
		shared.WriteError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, toResponse(iv))
}

func (h *Handler) handleListByApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetPrincipal(ctx)

	applicationID, err := domain.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	list, err := h.interviews.ListByApplication(ctx, actor, applicationID)
	if err != nil {
		h.logError(ctx, "list interviews", err)
		shared.WriteError(w, err)
		return
	}
	out := make([]interviewResponse, len(list))
	for i, iv := range list {
		out[i] = toResponse(iv)
	}
	shared.RespondJSON(w, http.StatusOK, out)
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
