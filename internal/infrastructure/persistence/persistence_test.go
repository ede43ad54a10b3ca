package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"jirai-backend/internal/config"
	"jirai-backend/internal/domain/shared"
	"jirai-backend/internal/domain/workspace"
	"jirai-backend/internal/infrastructure/persistence/memory"
	appErrors "jirai-backend/pkg/errors"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func breakerConfig() config.CircuitBreaker {
	return config.CircuitBreaker{
		Enabled:      true,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		FailureRatio: 0.5,
		MinRequests:  3,
	}
}

func TestCircuitBreaker_OpensOnBackendFaults(t *testing.T) {
	inner := memory.NewWorkspaceRepository()
	inner.SetError("List", appErrors.NewExternal("query failed", errors.New("connection reset")))
	repo := NewCircuitBreakerWorkspaceRepository(inner, "test", breakerConfig(), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.List(ctx, "alice")
		require.True(t, appErrors.IsExternal(err))
	}
	assert.Equal(t, gobreaker.StateOpen, repo.State())

	inner.ClearErrors()
	_, err := repo.List(ctx, "alice")
	assert.True(t, appErrors.IsUnavailable(err))
}

func TestCircuitBreaker_IgnoresCallerErrors(t *testing.T) {
	repo := NewCircuitBreakerWorkspaceRepository(memory.NewWorkspaceRepository(), "test", breakerConfig(), nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := repo.Get(ctx, "alice", "missing")
		require.True(t, appErrors.IsNotFound(err))
	}
	assert.Equal(t, gobreaker.StateClosed, repo.State())
}

func TestCountsAsSuccess(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, true},
		{"not found", appErrors.NewNotFound("x"), true},
		{"conflict", appErrors.NewConflict("x"), true},
		{"validation", appErrors.NewValidation("x"), true},
		{"canceled", context.Canceled, true},
		{"external", appErrors.NewExternal("x", nil), false},
		{"unavailable", appErrors.NewUnavailable("x", nil), false},
		{"deadline", context.DeadlineExceeded, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, countsAsSuccess(tt.err))
		})
	}
}

func TestDecoratorChain_PassesThrough(t *testing.T) {
	cfg := &config.Config{
		Storage:        config.Storage{Backend: config.BackendPostgres, OperationTimeout: time.Second},
		CircuitBreaker: breakerConfig(),
	}
	repo := NewDecoratorChain(cfg, nil, nil).Decorate(memory.NewWorkspaceRepository(), config.BackendPostgres)
	ctx := context.Background()

	ws, err := workspace.New("alice", "Roadmap", "", shared.DashboardCombined, time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, ws))

	list, err := repo.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Roadmap", list[0].Name)
}

func TestFactory_MemoryBackends(t *testing.T) {
	cfg := &config.Config{Storage: config.Storage{
		Backend:         config.BackendMemory,
		SnapshotBackend: config.BackendMemory,
		SnapshotTTL:     time.Hour,
	}}
	ctx := context.Background()

	repo, closeRepo, err := NewWorkspaceRepository(ctx, cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, repo)
	assert.NoError(t, closeRepo())

	store, closeStore, err := NewSnapshotStore(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "k", []byte(`{}`)))
	assert.NoError(t, closeStore())
}

func TestFactory_UnknownBackend(t *testing.T) {
	cfg := &config.Config{Storage: config.Storage{Backend: "cassandra", SnapshotBackend: "etcd"}}
	_, _, err := NewWorkspaceRepository(context.Background(), cfg, nil)
	assert.Error(t, err)
	_, _, err = NewSnapshotStore(context.Background(), cfg)
	assert.Error(t, err)
}
