package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tradematch/internal/notification/hub"
	"tradematch/internal/notification/models"
	"tradematch/internal/notification/service"
	"tradematch/internal/notification/store"
	"tradematch/pkg/domain"
	dErrors "tradematch/pkg/domain-errors"
)

type staticVerifier map[string]domain.Principal

func (v staticVerifier) Verify(_ context.Context, token string) (domain.Principal, error) {
	p, ok := v[token]
	if !ok {
		return domain.Principal{}, dErrors.New(dErrors.CodeUnauthorized, "unknown token")
	}
	return p, nil
}

type notificationFixture struct {
	router http.Handler
	store  *store.InMemory
	owner  domain.Principal
	other  domain.Principal
}

func newFixture(t *testing.T) *notificationFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.NewInMemory()
	svc := service.New(st, hub.New(nil))

	owner := domain.Principal{UserID: domain.UserID(uuid.New()), Role: domain.RoleCandidate}
	other := domain.Principal{UserID: domain.UserID(uuid.New()), Role: domain.RoleCandidate}
	verifier := staticVerifier{
		"owner-token": owner,
		"other-token": other,
	}

	r := chi.NewRouter()
	New(svc, verifier, logger).Register(r)
	return &notificationFixture{router: r, store: st, owner: owner, other: other}
}

func (f *notificationFixture) seed(t *testing.T, read bool) *models.Notification {
	t.Helper()
	n := &models.Notification{
		ID:        domain.NotificationID(uuid.New()),
		UserID:    f.owner.UserID,
		Type:      models.TypeApplicationStatus,
		Title:     "Application status updated",
		Read:      read,
		CreatedAt: time.Now().UTC(),
	}
	if err := f.store.InsertBatch(context.Background(), []*models.Notification{n}); err != nil {
		t.Fatalf("seed notification: %v", err)
	}
	return n
}

func (f *notificationFixture) do(t *testing.T, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestListRequiresToken(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/notifications", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestListReturnsOnlyOwnNotifications(t *testing.T) {
	f := newFixture(t)
	f.seed(t, false)
	f.seed(t, true)

	rec := f.do(t, http.MethodGet, "/notifications", "other-token")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var list []notificationResponse
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected another user's list to be empty, got %d entries", len(list))
	}

	rec = f.do(t, http.MethodGet, "/notifications", "owner-token")
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(list))
	}
}

func TestUnreadCount(t *testing.T) {
	f := newFixture(t)
	f.seed(t, false)
	f.seed(t, true)

	rec := f.do(t, http.MethodGet, "/notifications/unread-count", "owner-token")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["unread"] != 1 {
		t.Fatalf("expected 1 unread, got %d", resp["unread"])
	}
}

func TestMarkRead(t *testing.T) {
	f := newFixture(t)
	n := f.seed(t, false)
	path := "/notifications/" + n.ID.String() + "/read"

	rec := f.do(t, http.MethodPost, path, "other-token")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a stranger, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodPost, path, "owner-token")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/notifications/"+uuid.NewString()+"/read", "owner-token")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown id, got %d", rec.Code)
	}
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	n := f.seed(t, false)
	path := "/notifications/" + n.ID.String()

	rec := f.do(t, http.MethodDelete, path, "other-token")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a stranger, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodDelete, path, "owner-token")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/notifications", "owner-token")
	var list []notificationResponse
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list after delete, got %d", len(list))
	}
}
