package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jirai-backend/internal/config"
	"jirai-backend/pkg/api"
	"jirai-backend/pkg/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
}

func TestRequestIDMiddleware(t *testing.T) {
	t.Run("generates an id when none is given", func(t *testing.T) {
		w := httptest.NewRecorder()
		RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.NotEmpty(t, GetRequestIDFromRequest(r))
		})).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	})

	t.Run("keeps the caller's id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "test-request-id")
		w := httptest.NewRecorder()
		RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "test-request-id", GetRequestIDFromRequest(r))
		})).ServeHTTP(w, req)
		assert.Equal(t, "test-request-id", w.Header().Get(RequestIDHeader))
	})
}

func TestGetRequestID_Empty(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	w := httptest.NewRecorder()
	Recovery(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("test panic")
	})).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "error")
	assert.Equal(t, 1, logs.FilterMessage("panic serving request").Len())
}

func TestTimeout(t *testing.T) {
	t.Run("fast handlers pass through", func(t *testing.T) {
		w := httptest.NewRecorder()
		Timeout(time.Second)(http.HandlerFunc(okHandler)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("slow handlers get a 503", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		w := httptest.NewRecorder()
		Timeout(20*time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
			<-release
			okHandler(w, r)
		})).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestCircuitBreaker(t *testing.T) {
	cfg := config.CircuitBreaker{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, FailureRatio: 0.5, MinRequests: 2}
	calls := 0
	h := CircuitBreaker("test", cfg, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, 2, calls)
}

type stubVerifier struct{}

func (stubVerifier) Verify(_ context.Context, token string) (*auth.Principal, error) {
	if token == "good" {
		return &auth.Principal{UserID: "alice"}, nil
	}
	return nil, errors.New("bad token")
}

func TestAuthenticate(t *testing.T) {
	h := Authenticate(stubVerifier{}, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := auth.PrincipalFrom(r.Context())
		require.True(t, ok)
		assert.Equal(t, "alice", p.UserID)
		okHandler(w, r)
	}))

	tests := []struct {
		name    string
		header  string
		want    int
		message string
	}{
		{"missing", "", http.StatusUnauthorized, "Authorization header required"},
		{"scheme only", "Bearer ", http.StatusUnauthorized, "Authorization header required"},
		{"invalid", "Bearer nope", http.StatusUnauthorized, "Invalid or expired token"},
		{"valid", "Bearer good", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.message != "" {
				assert.Contains(t, w.Body.String(), tt.message)
			}
		})
	}
}

func TestUserRateLimiter(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewUserRateLimiter(1, 2)
	l.now = func() time.Time { return now }

	ok, _ := l.Allow("alice")
	assert.True(t, ok)
	ok, _ = l.Allow("alice")
	assert.True(t, ok)
	ok, wait := l.Allow("alice")
	assert.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))

	ok, _ = l.Allow("bob")
	assert.True(t, ok, "buckets are per user")

	l.SetLimit(0, 0)
	ok, _ = l.Allow("alice")
	assert.True(t, ok, "zero rate disables limiting")

	now = now.Add(time.Hour)
	assert.Equal(t, 0, l.Prune(2*time.Hour))
	assert.Equal(t, 2, l.Prune(time.Minute))
}

func TestUserRateLimiter_Middleware(t *testing.T) {
	l := NewUserRateLimiter(0.001, 1)
	h := l.Middleware(http.HandlerFunc(okHandler))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(auth.WithPrincipal(req.Context(), &auth.Principal{UserID: "alice"}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	w := httptest.NewRecorder()
	AccessLog(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.EqualValues(t, http.StatusBadGateway, entries[0].ContextMap()["status"])
}
