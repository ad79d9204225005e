package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/taskline/taskline-go/internal/model"
)

type contextKey string

const userIDKey contextKey = "userID"

// TokenResolver maps a presented bearer token to its user. Implemented by
// service.AuthService.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*model.User, error)
}

// BearerAuth returns middleware that resolves the Authorization bearer token
// against the token store on every request and stores the authenticated user
// ID in the request context. Missing, malformed, unknown and revoked tokens
// all fail closed with 401.
func BearerAuth(resolver TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeUnauthenticated(w)
				return
			}

			token, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found || token == "" {
				writeUnauthenticated(w)
				return
			}

			user, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				writeUnauthenticated(w)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext extracts the authenticated user ID from the request context.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

func writeUnauthenticated(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"message": "Unauthenticated."})
}
