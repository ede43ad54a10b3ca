// Package attachment uploads the content of file nodes to the attachment
// store and points the node at it.
package attachment

import (
	"context"
	"io"
	"strings"

	"jirai-backend/internal/domain/graph"
	"jirai-backend/internal/domain/node"
	"jirai-backend/internal/infrastructure/attachments"
	"jirai-backend/internal/repository"
	appErrors "jirai-backend/pkg/errors"

	"go.uber.org/zap"
)

// unsavedWorkspace prefixes uploads made before the canvas was first saved.
const unsavedWorkspace = "unsaved"

// Upload is one file sent for a file node.
type Upload struct {
	NodeID      string
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Service defines the attachment operations.
type Service interface {
	// Attach stores the upload and updates the file node's fileName,
	// fileUrl, fileSize, mimeType and objectKey.
	Attach(ctx context.Context, ownerID string, g *graph.Store, up Upload) (node.Node, error)
}

type service struct {
	store   repository.AttachmentStore
	maxSize int64
	logger  *zap.Logger
}

// NewService creates the attachment service. maxSize <= 0 means unlimited.
func NewService(store repository.AttachmentStore, maxSize int64, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{store: store, maxSize: maxSize, logger: logger}
}

func (s *service) Attach(ctx context.Context, ownerID string, g *graph.Store, up Upload) (node.Node, error) {
	if s.store == nil {
		return node.Node{}, appErrors.NewUnavailable("attachments are disabled", nil)
	}
	st := g.State()
	i := node.Index(st.Nodes, up.NodeID)
	if i < 0 {
		return node.Node{}, appErrors.NewNotFound("node not found")
	}
	current := st.Nodes[i]
	prev, ok := current.Data.Payload.(node.FileData)
	if !ok {
		return node.Node{}, appErrors.Validationf("node %s is a %s node, not a file node", up.NodeID, current.Type())
	}
	if up.Size <= 0 {
		return node.Node{}, appErrors.NewValidation("file is empty")
	}
	if s.maxSize > 0 && up.Size > s.maxSize {
		return node.Node{}, appErrors.Validationf("file exceeds the %d byte limit", s.maxSize)
	}
	contentType := strings.TrimSpace(up.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	workspaceID := st.CurrentWorkspaceID
	if workspaceID == "" {
		workspaceID = unsavedWorkspace
	}
	key := attachments.ObjectKey(ownerID, workspaceID, up.NodeID, up.FileName)
	if err := s.store.Put(ctx, key, up.Body, up.Size, contentType); err != nil {
		return node.Node{}, err
	}
	url, err := s.store.URL(ctx, key)
	if err != nil {
		return node.Node{}, err
	}

	updated, ok := g.UpdateNode(up.NodeID, map[string]any{
		"fileName":  up.FileName,
		"fileUrl":   url,
		"fileSize":  up.Size,
		"mimeType":  contentType,
		"objectKey": key,
	})
	if !ok {
		// The node went away while uploading.
		s.discard(ctx, key)
		return node.Node{}, appErrors.NewNotFound("node not found")
	}
	if prev.ObjectKey != "" && prev.ObjectKey != key {
		s.discard(ctx, prev.ObjectKey)
	}
	s.logger.Info("attachment stored",
		zap.String("user_id", ownerID),
		zap.String("node_id", up.NodeID),
		zap.String("object_key", key),
		zap.Int64("size", up.Size))
	return updated, nil
}

func (s *service) discard(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to delete attachment", zap.String("object_key", key), zap.Error(err))
	}
}
