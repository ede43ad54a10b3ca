// Package repotest holds the behaviour every WorkspaceRepository must share.
// Backends run it from their own tests.
package repotest

import (
	"context"
	"testing"
	"time"

	"jirai-backend/internal/domain/edge"
	"jirai-backend/internal/domain/node"
	"jirai-backend/internal/domain/shared"
	"jirai-backend/internal/domain/workspace"
	"jirai-backend/internal/repository"
	appErrors "jirai-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty repository.
type Factory func(t *testing.T) repository.WorkspaceRepository

var base = time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)

func newWorkspace(t *testing.T, owner, name string, updated time.Time) workspace.Workspace {
	t.Helper()
	ws, err := workspace.New(owner, name, "", shared.DashboardAnalysis, updated)
	require.NoError(t, err)
	return ws
}

// Run exercises the repository contract.
func Run(t *testing.T, newRepo Factory) {
	ctx := context.Background()

	t.Run("create then get", func(t *testing.T) {
		repo := newRepo(t)
		ws := newWorkspace(t, "alice", "Roadmap", base)
		require.NoError(t, repo.Create(ctx, ws))

		got, err := repo.Get(ctx, "alice", ws.ID)
		require.NoError(t, err)
		assert.Equal(t, "Roadmap", got.Name)
		assert.Empty(t, got.Nodes)
	})

	t.Run("list newest first and scoped to owner", func(t *testing.T) {
		repo := newRepo(t)
		older := newWorkspace(t, "alice", "Older", base)
		newer := newWorkspace(t, "alice", "Newer", base.Add(time.Hour))
		other := newWorkspace(t, "bob", "Bob's", base.Add(2*time.Hour))
		for _, ws := range []workspace.Workspace{older, newer, other} {
			require.NoError(t, repo.Create(ctx, ws))
		}

		list, err := repo.List(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Newer", list[0].Name)
		assert.Equal(t, "Older", list[1].Name)

		empty, err := repo.List(ctx, "carol")
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("other owners see not found", func(t *testing.T) {
		repo := newRepo(t)
		ws := newWorkspace(t, "alice", "Private", base)
		require.NoError(t, repo.Create(ctx, ws))

		_, err := repo.Get(ctx, "bob", ws.ID)
		assert.True(t, appErrors.IsNotFound(err))
		assert.True(t, appErrors.IsNotFound(repo.Delete(ctx, "bob", ws.ID)))
		assert.True(t, appErrors.IsNotFound(repo.Save(ctx, "bob", ws)))
	})

	t.Run("save replaces nodes and edges", func(t *testing.T) {
		repo := newRepo(t)
		ws := newWorkspace(t, "alice", "Graph", base)
		require.NoError(t, repo.Create(ctx, ws))

		nodes, edges := workspace.Sample(base)
		ws.Nodes, ws.Edges = nodes, edges
		ws.Viewport = shared.Viewport{X: 10, Y: 20, Zoom: 0.5}
		ws.UpdatedAt = base.Add(time.Minute)
		require.NoError(t, repo.Save(ctx, "alice", ws))

		got, err := repo.Get(ctx, "alice", ws.ID)
		require.NoError(t, err)
		assert.Len(t, got.Nodes, 4)
		assert.Len(t, got.Edges, 3)
		assert.Equal(t, ws.Viewport, got.Viewport)
		assert.True(t, got.UpdatedAt.Equal(base.Add(time.Minute)))

		draft, err := node.Draft(node.TypeText, "Only", "", base)
		require.NoError(t, err)
		draft.ID = "text-only"
		ws.Nodes = []node.Node{draft}
		ws.Edges = []edge.Edge{}
		require.NoError(t, repo.Save(ctx, "alice", ws))

		got, err = repo.Get(ctx, "alice", ws.ID)
		require.NoError(t, err)
		require.Len(t, got.Nodes, 1)
		assert.Equal(t, "text-only", got.Nodes[0].ID)
		assert.Empty(t, got.Edges)
	})

	t.Run("delete", func(t *testing.T) {
		repo := newRepo(t)
		ws := newWorkspace(t, "alice", "Temp", base)
		require.NoError(t, repo.Create(ctx, ws))
		require.NoError(t, repo.Delete(ctx, "alice", ws.ID))

		_, err := repo.Get(ctx, "alice", ws.ID)
		assert.True(t, appErrors.IsNotFound(err))
		assert.True(t, appErrors.IsNotFound(repo.Delete(ctx, "alice", ws.ID)))
	})

	t.Run("missing workspace", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Get(ctx, "alice", "00000000-0000-0000-0000-000000000000")
		assert.True(t, appErrors.IsNotFound(err))
	})
}
