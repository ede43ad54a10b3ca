package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jirai-backend/pkg/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const canvas = `{
  "nodes": [
    {"id":"t1","type":"task","position":{"x":0,"y":0},"data":{"label":"Ship it","type":"task","priority":"high","dueDate":"2024-03-12","subtasks":[]}},
    {"id":"t2","type":"task","position":{"x":0,"y":0},"data":{"label":"Someday","type":"task","priority":"low","dueDate":"whenever","subtasks":[]}},
    {"id":"n1","type":"text","position":{"x":1,"y":2},"data":{"label":"Notes","type":"text","color":"violet","content":"c"}}
  ],
  "edges": []
}`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config-dir", t.TempDir(), "--env", "test"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestConfigValidate(t *testing.T) {
	out, err := execute(t, "", "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "configuration for test is valid")
	assert.Contains(t, out, "defaults")
}

func TestConfigShow_MasksSecrets(t *testing.T) {
	out, err := execute(t, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, redacted)
	assert.NotContains(t, out, "jirai-development-secret")
}

func TestToken_VerifiesWithConfiguredSecret(t *testing.T) {
	_, err := execute(t, "", "token")
	require.Error(t, err)

	out, err := execute(t, "", "token", "--user", "alice", "--email", "alice@example.com")
	require.NoError(t, err)

	flags := &globalFlags{configDir: t.TempDir(), environment: "test"}
	cfg, err := flags.load()
	require.NoError(t, err)

	v, err := auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: cfg.Security.JWTSecret,
		Issuer:    cfg.Security.JWTIssuer,
		Audience:  cfg.Security.JWTAudience,
	})
	require.NoError(t, err)
	p, err := v.Verify(context.Background(), strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "alice", p.UserID)
	assert.Equal(t, "alice@example.com", p.Email)
}

func TestTimeline_FromStdin(t *testing.T) {
	out, err := execute(t, canvas, "timeline", "-f", "-", "--zoom", "week", "--date", "2024-03-12")
	require.NoError(t, err)

	assert.Contains(t, out, "week view, 2024-03-10 to 2024-03-16, 1 scheduled")
	assert.Contains(t, out, "Ship it (task)")
	assert.NotContains(t, out, "Someday")
	assert.NotContains(t, out, "Notes")
}

func TestTimeline_FromFileAsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canvas.json")
	require.NoError(t, os.WriteFile(path, []byte(canvas), 0o600))

	out, err := execute(t, "", "timeline", "-f", path, "--zoom", "day", "--date", "2024-03-12", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"zoom": "day"`)
	assert.Contains(t, out, `"key": "2024-03-12"`)
}

func TestTimeline_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no source", []string{"timeline"}},
		{"bad zoom", []string{"timeline", "--sample", "--zoom", "decade"}},
		{"bad date", []string{"timeline", "--sample", "--date", "soon"}},
		{"missing file", []string{"timeline", "-f", "/does/not/exist.json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", tt.args...)
			assert.Error(t, err)
		})
	}
}
