package workspace

import (
	"context"
	"errors"
	"testing"
	"time"

	"jirai-backend/internal/domain/graph"
	"jirai-backend/internal/domain/node"
	"jirai-backend/internal/domain/shared"
	domain "jirai-backend/internal/domain/workspace"
	"jirai-backend/internal/infrastructure/persistence/memory"
	"jirai-backend/internal/repository/mocks"
	appErrors "jirai-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc       *service
	repo      *memory.WorkspaceRepository
	index     *mocks.NodeIndex
	publisher *mocks.EventPublisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	repo := memory.NewWorkspaceRepository()
	index := new(mocks.NodeIndex)
	publisher := new(mocks.EventPublisher)
	svc := NewService(repo, index, publisher, nil).(*service)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return fixture{svc: svc, repo: repo, index: index, publisher: publisher}
}

func eventOfType(t domain.EventType) any {
	return mock.MatchedBy(func(ev domain.Event) bool { return ev.Type == t })
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	f.publisher.On("Publish", mock.Anything, eventOfType(domain.EventCreated)).Return(nil)
	ctx := context.Background()

	ws, err := f.svc.Create(ctx, "alice", CreateRequest{Name: "Roadmap", Type: shared.DashboardWorkflow})
	require.NoError(t, err)
	assert.NotEmpty(t, ws.ID)
	assert.Equal(t, "alice", ws.OwnerID)

	list, err := f.svc.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Roadmap", list[0].Name)
	f.publisher.AssertExpectations(t)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		req  CreateRequest
	}{
		{"missing name", CreateRequest{Type: shared.DashboardWorkflow}},
		{"bad type", CreateRequest{Name: "x", Type: "kanban"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), "alice", tt.req)
			assert.True(t, appErrors.IsValidation(err))
		})
	}
	f.publisher.AssertNotCalled(t, "Publish")
}

func TestList_EmptyIsNotNil(t *testing.T) {
	f := newFixture(t)
	list, err := f.svc.List(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestLoadAndSave(t *testing.T) {
	f := newFixture(t)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)
	f.index.On("Index", mock.Anything, "alice", mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()

	ws, err := f.svc.Create(ctx, "alice", CreateRequest{Name: "Plans", Type: shared.DashboardCombined})
	require.NoError(t, err)

	g := graph.NewStore(graph.SampleState(time.Now()))
	loaded, err := f.svc.Load(ctx, "alice", ws.ID, g)
	require.NoError(t, err)
	assert.Equal(t, ws.ID, loaded.ID)
	assert.Empty(t, g.State().Nodes)
	assert.Equal(t, ws.ID, g.State().CurrentWorkspaceID)

	n, err := node.Draft(node.TypeText, "Idea", "", time.Now())
	require.NoError(t, err)
	_, ok := g.AddNode(n, &shared.Position{X: 1, Y: 2})
	require.True(t, ok)
	g.SetViewport(shared.Viewport{X: 5, Y: 5, Zoom: 2})

	saved, err := f.svc.Save(ctx, "alice", g, shared.LayoutVertical)
	require.NoError(t, err)
	assert.Len(t, saved.Nodes, 1)
	assert.Equal(t, shared.LayoutVertical, saved.LayoutDirection)

	stored, err := f.svc.Get(ctx, "alice", ws.ID)
	require.NoError(t, err)
	require.Len(t, stored.Nodes, 1)
	assert.Equal(t, "Idea", stored.Nodes[0].Data.Label)
	assert.Equal(t, 2.0, stored.Viewport.Zoom)

	f.publisher.AssertCalled(t, "Publish", mock.Anything, eventOfType(domain.EventSaved))
	f.index.AssertNumberOfCalls(t, "Index", 2)
}

func TestSave_WithoutLoadedWorkspace(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Save(context.Background(), "alice", graph.NewStore(graph.EmptyState()), "")
	assert.True(t, appErrors.IsValidation(err))
}

func TestLoad_OtherOwnerIsNotFound(t *testing.T) {
	f := newFixture(t)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)
	ws, err := f.svc.Create(context.Background(), "alice", CreateRequest{Name: "Private", Type: shared.DashboardWorkflow})
	require.NoError(t, err)

	g := graph.NewStore(graph.SampleState(time.Now()))
	_, err = f.svc.Load(context.Background(), "mallory", ws.ID, g)
	assert.True(t, appErrors.IsNotFound(err))
	assert.Len(t, g.State().Nodes, 4)
}

func TestDelete_SideEffectsAreBestEffort(t *testing.T) {
	f := newFixture(t)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("bus down"))
	f.index.On("Remove", mock.Anything, "alice", mock.Anything).Return(errors.New("index down"))
	ctx := context.Background()

	ws, err := f.svc.Create(ctx, "alice", CreateRequest{Name: "Temp", Type: shared.DashboardWorkflow})
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, "alice", ws.ID))

	_, err = f.svc.Get(ctx, "alice", ws.ID)
	assert.True(t, appErrors.IsNotFound(err))
	f.index.AssertExpectations(t)
}

func TestRepositoryErrorsPropagate(t *testing.T) {
	f := newFixture(t)
	f.repo.SetError("List", appErrors.NewExternal("backend down", nil))
	_, err := f.svc.List(context.Background(), "alice")
	assert.True(t, appErrors.IsExternal(err))
}
