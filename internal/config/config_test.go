package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func newTestLoader(dir string, env Environment, vars map[string]string) *Loader {
	l := NewLoader(dir, env)
	l.getenv = func(k string) string { return vars[k] }
	return l
}

func TestLoader_DefaultsAreValid(t *testing.T) {
	cfg, err := newTestLoader(t.TempDir(), Development, nil).Load()
	require.NoError(t, err)

	assert.Equal(t, Development, cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, 1500*time.Millisecond, cfg.Chat.ResponseDelay)
	assert.Equal(t, []string{"defaults", "environment"}, cfg.LoadedFrom)
}

func TestLoader_Layering(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
server:
  port: 9000
chat:
  responseDelay: 2s
timeline:
  weekStart: monday
`)
	writeFile(t, dir, "development.yaml", `
server:
  port: 9100
logging:
  level: debug
`)
	writeFile(t, dir, "local.yaml", `
storage:
  snapshotBackend: redis
redis:
  addr: localhost:6380
`)

	cfg, err := newTestLoader(dir, Development, map[string]string{
		"PORT":                "9200",
		"CHAT_RESPONSE_DELAY": "250ms",
	}).Load()
	require.NoError(t, err)

	assert.Equal(t, 9200, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 250*time.Millisecond, cfg.Chat.ResponseDelay)
	assert.Equal(t, time.Monday, cfg.Timeline.Weekday())
	assert.Equal(t, BackendRedis, cfg.Storage.SnapshotBackend)
	assert.Equal(t, "localhost:6380", cfg.Redis.Addr)
	assert.Len(t, cfg.LoadedFrom, 5)
}

func TestLoader_LocalIgnoredOutsideDevelopment(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "local.yaml", "server:\n  port: 7000\n")

	cfg, err := newTestLoader(dir, Test, nil).Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoader_JSONFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.json", `{"search":{"provider":"meilisearch","url":"http://localhost:7700"}}`)

	cfg, err := newTestLoader(dir, Test, nil).Load()
	require.NoError(t, err)
	assert.Equal(t, "meilisearch", cfg.Search.Provider)
}

func TestLoader_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "server: [not, a, map")

	_, err := newTestLoader(dir, Test, nil).Load()
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		cfg, err := newTestLoader(t.TempDir(), Test, nil).Load()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "sqlite" }, "storage.backend"},
		{"supabase without key", func(c *Config) { c.Storage.Backend = BackendSupabase; c.Supabase.URL = "http://x" }, "supabase.serviceKey"},
		{"postgres without dsn", func(c *Config) { c.Storage.Backend = BackendPostgres }, "postgres.dsn"},
		{"redis without addr", func(c *Config) { c.Storage.SnapshotBackend = BackendRedis; c.Redis.Addr = "" }, "redis.addr"},
		{"jwt without secret", func(c *Config) { c.Security.JWTSecret = "" }, "jwtSecret"},
		{"bad location", func(c *Config) { c.Timeline.Location = "Mars/Olympus" }, "timeline.location"},
		{"negative delay", func(c *Config) { c.Chat.ResponseDelay = -time.Second }, "responseDelay"},
		{"attachments without bucket", func(c *Config) { c.Attachments.Enabled = true; c.Attachments.Bucket = "" }, "attachments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestProductionRequiresSecret(t *testing.T) {
	_, err := newTestLoader(t.TempDir(), Production, nil).Load()
	require.Error(t, err)

	cfg, err := newTestLoader(t.TempDir(), Production, map[string]string{"SUPABASE_JWT_SECRET": "s3cret"}).Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestWatcher_ReloadNotifiesOnHotChanges(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "chat:\n  responseDelay: 1s\n")
	loader := newTestLoader(dir, Test, nil)
	cfg, err := loader.Load()
	require.NoError(t, err)

	w, err := NewWatcher(cfg, loader, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	var got []*Config
	w.OnChange(func(c *Config) { got = append(got, c) })

	w.Reload()
	assert.Empty(t, got, "nothing changed")

	writeFile(t, dir, "base.yaml", "chat:\n  responseDelay: 3s\n")
	w.Reload()
	require.Len(t, got, 1)
	assert.Equal(t, 3*time.Second, got[0].Chat.ResponseDelay)
	assert.Equal(t, 3*time.Second, w.Config().Chat.ResponseDelay)

	writeFile(t, dir, "base.yaml", "server:\n  port: -1\n")
	w.Reload()
	assert.Len(t, got, 1)
	assert.Equal(t, 3*time.Second, w.Config().Chat.ResponseDelay)
}

func TestIsConfigFile(t *testing.T) {
	assert.True(t, isConfigFile("config/base.yaml"))
	assert.True(t, isConfigFile("config/base.json"))
	assert.False(t, isConfigFile("config/.base.yaml.swp"))
}
