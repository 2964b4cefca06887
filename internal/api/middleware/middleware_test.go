package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-srs/internal/api/shared"
	"github.com/phrazzld/scry-srs/internal/config"
	"github.com/phrazzld/scry-srs/internal/platform/logger"
	"github.com/phrazzld/scry-srs/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-test-secret-at-least-32-chars"

func newJWTService(t *testing.T) auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService(config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 5})
	require.NoError(t, err)
	return svc
}

func echoUserHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserID(r)
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_, _ = w.Write([]byte(userID.String()))
	})
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	jwtService := newJWTService(t)
	userID := uuid.New()
	token, err := jwtService.GenerateToken(context.Background(), userID)
	require.NoError(t, err)

	otherService, err := auth.NewJWTService(config.AuthConfig{JWTSecret: "another-secret-that-is-32-chars-long!"})
	require.NoError(t, err)
	foreignToken, err := otherService.GenerateToken(context.Background(), userID)
	require.NoError(t, err)

	handler := NewAuthMiddleware(jwtService).Authenticate(echoUserHandler())

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "Bearer " + token, http.StatusOK, userID.String()},
		{"lowercase scheme", "bearer " + token, http.StatusOK, userID.String()},
		{"missing header", "", http.StatusUnauthorized, "Authorization header required"},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized, "Invalid authorization format"},
		{"no token", "Bearer ", http.StatusUnauthorized, "Invalid authorization format"},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized, "Invalid token"},
		{"foreign signature", "Bearer " + foreignToken, http.StatusUnauthorized, "Invalid token"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/api/queue", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tc.wantBody)
		})
	}
}

func TestNewAuthMiddlewarePanicsOnNilService(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { NewAuthMiddleware(nil) })
}

func TestTraceMiddleware(t *testing.T) {
	t.Parallel()

	log, logs := logger.NewTestLogger(t)
	var seenTrace string
	handler := NewTraceMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenTrace = shared.GetTraceID(r.Context())
		logger.FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	require.Len(t, seenTrace, 32)
	assert.Equal(t, seenTrace, rr.Header().Get(TraceIDHeader))

	entries, err := logs.GetLogEntries()
	require.NoError(t, err)
	var found bool
	for _, entry := range entries {
		if entry["msg"] == "inside handler" {
			found = true
			assert.Equal(t, seenTrace, entry["trace_id"])
		}
	}
	assert.True(t, found)
}

func withUser(r *http.Request, userID uuid.UUID) *http.Request {
	return r.WithContext(shared.WithUserID(r.Context(), userID))
}

func TestUserRateLimiter(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	limiter := NewUserRateLimiter(1, 2)
	limiter.now = func() time.Time { return now }

	handler := limiter.Limit(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	alice, bob := uuid.New(), uuid.New()
	do := func(userID uuid.UUID) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		req := withUser(httptest.NewRequest(http.MethodPost, "/api/items/x/reviews", nil), userID)
		handler.ServeHTTP(rr, req)
		return rr
	}

	assert.Equal(t, http.StatusOK, do(alice).Code)
	assert.Equal(t, http.StatusOK, do(alice).Code)

	limited := do(alice)
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))
	var body shared.ErrorResponse
	require.NoError(t, json.Unmarshal(limited.Body.Bytes(), &body))
	assert.Equal(t, "Too many requests", body.Error)

	// Budgets are per user
	assert.Equal(t, http.StatusOK, do(bob).Code)

	// Tokens refill over time
	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, do(alice).Code)

	// Idle users are forgotten
	assert.Equal(t, 2, limiter.trackedUsers())
	now = now.Add(2 * idleLimiterTTL)
	assert.Equal(t, http.StatusOK, do(bob).Code)
	assert.Equal(t, 1, limiter.trackedUsers())
}

func TestUserRateLimiterRequiresUser(t *testing.T) {
	t.Parallel()

	handler := NewUserRateLimiter(1, 1).Limit(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
