package di

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"jirai-backend/internal/config"
	"jirai-backend/pkg/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestContainer(t *testing.T) (*Container, string) {
	t.Helper()
	cfg, err := config.NewLoader(t.TempDir(), config.Test).Load()
	require.NoError(t, err)
	cfg.Chat.ResponseDelay = 0

	c, cleanup, err := InitializeContainer(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(cleanup)

	token, err := auth.NewIssuer(cfg.Security.JWTSecret, cfg.Security.JWTIssuer, cfg.Security.JWTAudience, time.Hour).
		Sign(auth.Principal{UserID: "alice", Email: "alice@example.com", Role: "authenticated"})
	require.NoError(t, err)
	return c, token
}

func serve(c *Container, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c.Router.ServeHTTP(rec, req)
	return rec
}

func TestInitializeContainer_Health(t *testing.T) {
	c, _ := newTestContainer(t)

	rec := serve(c, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])

	rec = serve(c, http.MethodGet, "/ready", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestInitializeContainer_APIRequiresToken(t *testing.T) {
	c, token := newTestContainer(t)

	rec := serve(c, http.MethodGet, "/api/v1/workspaces", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(c, http.MethodGet, "/api/v1/workspaces", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(c, http.MethodGet, "/api/v1/workspaces", token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-API-Version"))
}

func TestInitializeContainer_WorkspaceRoundTrip(t *testing.T) {
	c, token := newTestContainer(t)

	rec := serve(c, http.MethodPost, "/api/v1/workspaces", token, `{"name":"Plans","type":"workflow"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(c, http.MethodGet, "/api/v1/workspaces", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Plans")

	rec = serve(c, http.MethodGet, "/api/v1/sessions/tab-1/graph", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"nodes"`)
	assert.Equal(t, 1, c.Sessions.Len())
}

func TestInitializeContainer_MetricsAndDocs(t *testing.T) {
	c, token := newTestContainer(t)
	serve(c, http.MethodGet, "/api/v1/workspaces", token, "")

	rec := serve(c, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jirai_http_requests_total")

	rec = serve(c, http.MethodGet, "/swagger", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestContainer_ApplyRuntimeConfigAndMaintenance(t *testing.T) {
	c, _ := newTestContainer(t)

	next := *c.Config
	next.Security.RateLimit = 1
	next.Security.RateBurst = 1
	c.ApplyRuntimeConfig(&next)

	ok, _ := c.RateLimiter.Allow("bob")
	assert.True(t, ok)
	ok, wait := c.RateLimiter.Allow("bob")
	assert.False(t, ok)
	assert.Positive(t, wait)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.RunMaintenance(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("maintenance did not stop")
	}
	c.FlushMetrics(context.Background())
}
