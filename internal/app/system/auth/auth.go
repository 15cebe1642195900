// internal/app/system/auth/auth.go

// Package auth is the API-key authentication boundary.
//
// Every request inside the protected router carries an opaque bearer key;
// the middleware resolves it to a user through the store and injects that
// user into the request context for handlers to read.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/regionhub/internal/app/system/apperr"
	"github.com/dalemusser/regionhub/internal/domain/models"
	"go.uber.org/zap"
)

type ctxKey struct{}

// KeyLookup resolves a raw API key to its user. userstore.Store satisfies
// it; tests substitute a map-backed fake.
type KeyLookup interface {
	GetByAPIKey(ctx context.Context, rawKey string) (*models.User, error)
}

// CurrentUser returns the authenticated user placed in ctx by RequireAPIKey.
func CurrentUser(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*models.User)
	return u, ok
}

// WithUser returns a context carrying u. Exposed for handler tests.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// RequireAPIKey authenticates the request's bearer key. Missing, malformed,
// and unknown keys all answer 401 with the same body; nothing about which
// check failed leaks out.
func RequireAPIKey(lookup KeyLookup, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := bearerToken(r)
			if key == "" {
				unauthorized(w)
				return
			}
			u, err := lookup.GetByAPIKey(r.Context(), key)
			if err != nil {
				if apperr.KindOf(err) != apperr.Unauthorized {
					log.Error("api key lookup failed", zap.Error(err))
				}
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// bearerToken extracts the key from "Authorization: Bearer <key>", with
// "X-API-Key: <key>" accepted as a fallback.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized"}`))
}
