package search

import (
	"context"

	"jirai-backend/internal/domain/node"
	"jirai-backend/internal/repository"

	"go.uber.org/zap"
)

// FallbackIndex writes to both indexes and reads from the primary, answering
// from the local index whenever the primary fails.
type FallbackIndex struct {
	primary repository.NodeIndex
	local   *LocalIndex
	logger  *zap.Logger
}

var _ repository.NodeIndex = (*FallbackIndex)(nil)

func NewFallbackIndex(primary repository.NodeIndex, local *LocalIndex, logger *zap.Logger) *FallbackIndex {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackIndex{primary: primary, local: local, logger: logger}
}

func (f *FallbackIndex) Index(ctx context.Context, ownerID, workspaceID string, nodes []node.Node) error {
	if err := f.local.Index(ctx, ownerID, workspaceID, nodes); err != nil {
		return err
	}
	if err := f.primary.Index(ctx, ownerID, workspaceID, nodes); err != nil {
		f.logger.Warn("primary index write failed", zap.String("workspace_id", workspaceID), zap.Error(err))
	}
	return nil
}

func (f *FallbackIndex) Remove(ctx context.Context, ownerID, workspaceID string) error {
	if err := f.local.Remove(ctx, ownerID, workspaceID); err != nil {
		return err
	}
	if err := f.primary.Remove(ctx, ownerID, workspaceID); err != nil {
		f.logger.Warn("primary index remove failed", zap.String("workspace_id", workspaceID), zap.Error(err))
	}
	return nil
}

func (f *FallbackIndex) Search(ctx context.Context, q repository.SearchQuery) ([]repository.SearchHit, error) {
	hits, err := f.primary.Search(ctx, q)
	if err == nil {
		return hits, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	f.logger.Debug("primary search failed, using local index", zap.Error(err))
	return f.local.Search(ctx, q)
}
