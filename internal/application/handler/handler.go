package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tradematch/internal/application/models"
	"tradematch/internal/platform/middleware"
	"tradematch/internal/transport/http/shared"
	"tradematch/pkg/domain"
	dErrors "tradematch/pkg/domain-errors"
)

// Service defines the application operations the HTTP layer needs.
type Service interface {
	Submit(ctx context.Context, actor domain.Principal, jobID domain.JobID, coverLetter, resumeURL string) (*models.Application, error)
	Withdraw(ctx context.Context, actor domain.Principal, applicationID domain.ApplicationID) (*models.Application, error)
	Transition(ctx context.Context, actor domain.Principal, applicationID domain.ApplicationID, target models.Status) (*models.Application, error)
	ListForCandidate(ctx context.Context, actor domain.Principal, candidateID domain.UserID) ([]*models.Application, error)
	ListForEmployer(ctx context.Context, actor domain.Principal, employerID domain.UserID) ([]*models.Application, error)
}

// Handler exposes the application endpoints.
type Handler struct {
	apps     Service
	logger   *slog.Logger
	verifier middleware.TokenVerifier
}

func New(apps Service, verifier middleware.TokenVerifier, logger *slog.Logger) *Handler {
	return &Handler{apps: apps, logger: logger, verifier: verifier}
}

// Register mounts the application routes. Every route requires a bearer
// token.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.verifier, h.logger))
		r.Use(middleware.Timeout(30 * time.Second))
		r.Post("/applications", h.handleSubmit)
		r.Post("/applications/{applicationID}/withdraw", h.handleWithdraw)
		r.Post("/applications/{applicationID}/status", h.handleTransition)
		r.Get("/candidates/{candidateID}/applications", h.handleListForCandidate)
		r.Get("/employers/{employerID}/applications", h.handleListForEmployer)
	})
}

type submitRequest struct {
	JobID       string `json:"job_id"`
	CoverLetter string `json:"cover_letter"`
	ResumeURL   string `json:"resume_url"`
}

type transitionRequest struct {
	Status string `json:"status"`
}

type applicationResponse struct {
	ID          string    `json:"id"`
	JobID       string    `json:"job_id"`
	ApplicantID string    `json:"applicant_id"`
	Status      string    `json:"status"`
	CoverLetter string    `json:"cover_letter,omitempty"`
	ResumeURL   string    `json:"resume_url,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toResponse(app *models.Application) applicationResponse {
	return applicationResponse{
		ID:          app.ID.String(),
		JobID:       app.JobID.String(),
		ApplicantID: app.ApplicantID.String(),
		Status:      string(app.Status),
		CoverLetter: app.CoverLetter,
		ResumeURL:   app.ResumeURL,
		SubmittedAt: app.SubmittedAt,
		UpdatedAt:   app.UpdatedAt,
	}
}

func toResponses(apps []*models.Application) []applicationResponse {
	out := make([]applicationResponse, len(apps))
	for i, app := range apps {
		out[i] = toResponse(app)
	}
	return out
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetPrincipal(ctx)

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	jobID, err := domain.ParseJobID(req.JobID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	app, err := h.apps.Submit(ctx, actor, jobID, req.CoverLetter, req.ResumeURL)
	if err != nil {
		h.logError(ctx, "submit application", err)
		shared.WriteError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, toResponse(app))
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetPrincipal(ctx)

	applicationID, err := domain.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	app, err := h.apps.Withdraw(ctx, actor, applicationID)
	if err != nil {
		h.logError(ctx, "withdraw application", err)
		shared.WriteError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, toResponse(app))
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetPrincipal(ctx)

	applicationID, err := domain.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	target, err := models.ParseStatus(req.Status)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	app, err := h.apps.Transition(ctx, actor, applicationID, target)
	if err != nil {
		h.logError(ctx, "transition application", err)
		shared.WriteError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, toResponse(app))
}

func (h *Handler) handleListForCandidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetPrincipal(ctx)

	candidateID, err := domain.ParseUserID(chi.URLParam(r, "candidateID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	apps, err := h.apps.ListForCandidate(ctx, actor, candidateID)
	if err != nil {
		h.logError(ctx, "list candidate applications", err)
		shared.WriteError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, toResponses(apps))
}

func (h *Handler) handleListForEmployer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetPrincipal(ctx)

	employerID, err := domain.ParseUserID(chi.URLParam(r, "employerID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	apps, err := h.apps.ListForEmployer(ctx, actor, employerID)
	if err != nil {
		h.logError(ctx, "list employer applications", err)
		shared.WriteError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, toResponses(apps))
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
