package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"sygacms/internal/auth"
)

func TestRequireAuth(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireAuth(inner)

	t.Run("rejects unauthenticated requests", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/posts", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status: got %d, want 401", rr.Code)
		}
	})

	t.Run("passes authenticated requests through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/posts", nil)
		ctx := context.WithValue(req.Context(), UserKey, &auth.TokenData{UserID: 1})
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req.WithContext(ctx))

		if rr.Code != http.StatusOK {
			t.Errorf("status: got %d, want 200", rr.Code)
		}
	})
}

func TestUserFromCtx(t *testing.T) {
	if UserFromCtx(context.Background()) != nil {
		t.Error("empty context should yield nil")
	}

	data := &auth.TokenData{UserID: 9}
	ctx := context.WithValue(context.Background(), UserKey, data)
	if got := UserFromCtx(ctx); got != data {
		t.Errorf("UserFromCtx = %+v, want the stored data", got)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"well formed", "Bearer abc123", "abc123"},
		{"missing header", "", ""},
		{"wrong scheme", "Basic abc123", ""},
		{"extra whitespace", "Bearer   abc123  ", "abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if got := bearerToken(req); got != tt.want {
				t.Errorf("bearerToken = %q, want %q", got, tt.want)
			}
		})
	}
}
