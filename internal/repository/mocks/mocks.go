// Package mocks provides testify mocks of the repository ports.
package mocks

import (
	"context"
	"io"

	"jirai-backend/internal/domain/node"
	"jirai-backend/internal/domain/workspace"
	"jirai-backend/internal/repository"

	"github.com/stretchr/testify/mock"
)

// WorkspaceRepository is a mock of repository.WorkspaceRepository.
type WorkspaceRepository struct {
	mock.Mock
}

var _ repository.WorkspaceRepository = (*WorkspaceRepository)(nil)

func (m *WorkspaceRepository) Create(ctx context.Context, ws workspace.Workspace) error {
	return m.Called(ctx, ws).Error(0)
}

func (m *WorkspaceRepository) List(ctx context.Context, ownerID string) ([]workspace.Summary, error) {
	args := m.Called(ctx, ownerID)
	out, _ := args.Get(0).([]workspace.Summary)
	return out, args.Error(1)
}

func (m *WorkspaceRepository) Get(ctx context.Context, ownerID, id string) (workspace.Workspace, error) {
	args := m.Called(ctx, ownerID, id)
	out, _ := args.Get(0).(workspace.Workspace)
	return out, args.Error(1)
}

func (m *WorkspaceRepository) Save(ctx context.Context, ownerID string, ws workspace.Workspace) error {
	return m.Called(ctx, ownerID, ws).Error(0)
}

func (m *WorkspaceRepository) Delete(ctx context.Context, ownerID, id string) error {
	return m.Called(ctx, ownerID, id).Error(0)
}

// NodeIndex is a mock of repository.NodeIndex.
type NodeIndex struct {
	mock.Mock
}

var _ repository.NodeIndex = (*NodeIndex)(nil)

func (m *NodeIndex) Index(ctx context.Context, ownerID, workspaceID string, nodes []node.Node) error {
	return m.Called(ctx, ownerID, workspaceID, nodes).Error(0)
}

func (m *NodeIndex) Remove(ctx context.Context, ownerID, workspaceID string) error {
	return m.Called(ctx, ownerID, workspaceID).Error(0)
}

func (m *NodeIndex) Search(ctx context.Context, q repository.SearchQuery) ([]repository.SearchHit, error) {
	args := m.Called(ctx, q)
	out, _ := args.Get(0).([]repository.SearchHit)
	return out, args.Error(1)
}

// AttachmentStore is a mock of repository.AttachmentStore.
type AttachmentStore struct {
	mock.Mock
}

var _ repository.AttachmentStore = (*AttachmentStore)(nil)

func (m *AttachmentStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return m.Called(ctx, key, r, size, contentType).Error(0)
}

func (m *AttachmentStore) URL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *AttachmentStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

// EventPublisher is a mock of repository.EventPublisher.
type EventPublisher struct {
	mock.Mock
}

var _ repository.EventPublisher = (*EventPublisher)(nil)

func (m *EventPublisher) Publish(ctx context.Context, events ...workspace.Event) error {
	args := make([]interface{}, 0, len(events)+1)
	args = append(args, ctx)
	for _, e := range events {
		args = append(args, e)
	}
	return m.Called(args...).Error(0)
}
