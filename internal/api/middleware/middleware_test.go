package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dom/tcg-collection/internal/api/middleware"
	"github.com/dom/tcg-collection/internal/config"
	"github.com/dom/tcg-collection/internal/service"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func signed(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestAuth(t *testing.T) {
	cfg := &config.Config{JWTSecret: "middleware-secret", JWTExpirationHours: 1}
	authService := service.NewAuthService(nil, nil, cfg)
	userID := uuid.New()

	var gotUserID uuid.UUID
	handler := middleware.Auth(authService, zaptest.NewLogger(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = middleware.GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	exp := time.Now().Add(time.Hour).Unix()
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "valid", header: "Bearer " + signed(t, cfg.JWTSecret, jwt.MapClaims{"sub": userID.String(), "exp": exp}), want: http.StatusOK},
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Token abc", want: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer abc", want: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + signed(t, "other", jwt.MapClaims{"sub": userID.String(), "exp": exp}), want: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + signed(t, cfg.JWTSecret, jwt.MapClaims{"sub": userID.String(), "exp": time.Now().Add(-time.Minute).Unix()}), want: http.StatusUnauthorized},
		{name: "no sub", header: "Bearer " + signed(t, cfg.JWTSecret, jwt.MapClaims{"exp": exp}), want: http.StatusUnauthorized},
		{name: "sub not a uuid", header: "Bearer " + signed(t, cfg.JWTSecret, jwt.MapClaims{"sub": "42", "exp": exp}), want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUserID = uuid.Nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, userID, gotUserID)
			} else {
				assert.Equal(t, uuid.Nil, gotUserID)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	t.Run("listed origin", func(t *testing.T) {
		h := middleware.CORS([]string{"http://localhost:5173"})(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unlisted origin", func(t *testing.T) {
		h := middleware.CORS([]string{"http://localhost:5173"})(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://evil.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight with wildcard", func(t *testing.T) {
		h := middleware.CORS([]string{"*"})(next)
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/user-cards", nil)
		req.Header.Set("Origin", "http://anything.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "http://anything.example", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	})
}
