package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/taskline/taskline-go/internal/model"
)

// stubResolver accepts exactly one token value.
type stubResolver struct {
	token string
	user  *model.User
}

func (s *stubResolver) Resolve(_ context.Context, token string) (*model.User, error) {
	if token == s.token {
		return s.user, nil
	}
	return nil, errors.New("unauthenticated")
}

func newProtectedHandler(t *testing.T) (http.Handler, *int64) {
	t.Helper()

	var seenUserID int64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserIDFromContext(r.Context())
		if !ok {
			t.Error("UserIDFromContext() not set inside protected handler")
		}
		seenUserID = id
		w.WriteHeader(http.StatusOK)
	})

	resolver := &stubResolver{token: "good-token", user: &model.User{ID: 7}}
	return BearerAuth(resolver)(next), &seenUserID
}

func TestBearerAuthValidToken(t *testing.T) {
	h, seenUserID := newProtectedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if *seenUserID != 7 {
		t.Errorf("user ID in context = %d, want 7", *seenUserID)
	}
}

func TestBearerAuthRejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic good-token"},
		{"no token after scheme", "Bearer "},
		{"unknown token", "Bearer revoked-or-bogus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newProtectedHandler(t)

			req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}
