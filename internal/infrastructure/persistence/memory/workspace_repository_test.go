package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"jirai-backend/internal/domain/shared"
	"jirai-backend/internal/domain/workspace"
	"jirai-backend/internal/infrastructure/persistence/repotest"
	"jirai-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspaceRepository_Contract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.WorkspaceRepository {
		return NewWorkspaceRepository()
	})
}

func TestWorkspaceRepository_CreateTwiceConflicts(t *testing.T) {
	repo := NewWorkspaceRepository()
	ws, err := workspace.New("alice", "Dup", "", shared.DashboardAnalysis, time.Now())
	require.NoError(t, err)

	require.NoError(t, repo.Create(context.Background(), ws))
	err = repo.Create(context.Background(), ws)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONFLICT")
}

func TestWorkspaceRepository_SetError(t *testing.T) {
	repo := NewWorkspaceRepository()
	boom := errors.New("boom")
	repo.SetError("List", boom)

	_, err := repo.List(context.Background(), "alice")
	assert.ErrorIs(t, err, boom)

	repo.ClearErrors()
	_, err = repo.List(context.Background(), "alice")
	assert.NoError(t, err)
}

func TestWorkspaceRepository_GetReturnsDetachedCopy(t *testing.T) {
	repo := NewWorkspaceRepository()
	ctx := context.Background()
	ws, err := workspace.New("alice", "Copy", "", shared.DashboardAnalysis, time.Now())
	require.NoError(t, err)
	ws.Nodes, ws.Edges = workspace.Sample(time.Now())
	require.NoError(t, repo.Create(ctx, ws))

	got, err := repo.Get(ctx, "alice", ws.ID)
	require.NoError(t, err)
	got.Nodes[0].Data.Label = "changed"

	again, err := repo.Get(ctx, "alice", ws.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "changed", again.Nodes[0].Data.Label)
}
