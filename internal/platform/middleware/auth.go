package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"tradematch/pkg/domain"
)

// TokenVerifier validates a bearer token and resolves it into a Principal.
// Role resolution happens exactly once, here; downstream code receives the
// strongly-typed Principal and never re-reads role claims.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (domain.Principal, error)
}

type contextKeyPrincipal struct{}

// GetPrincipal retrieves the authenticated principal from the context. The
// zero Principal is returned when RequireAuth did not run.
func GetPrincipal(ctx context.Context) domain.Principal {
	p, _ := ctx.Value(contextKeyPrincipal{}).(domain.Principal)
	return p
}

// WithPrincipal injects a principal, used by tests to bypass token issuance.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, contextKeyPrincipal{}, p)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// resolved principal in the request context.
func RequireAuth(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				unauthorized(w)
				return
			}
			principal, err := verifier.Verify(r.Context(), token)
			if err != nil {
				logger.WarnContext(r.Context(), "unauthorized - invalid token",
					"error", err,
					"request_id", GetRequestID(r.Context()),
				)
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
}
