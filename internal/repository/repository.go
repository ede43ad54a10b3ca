// Package repository declares the ports the services depend on. Storage,
// search, attachment and event adapters under internal/infrastructure
// implement them.
package repository

import (
	"context"
	"io"

	"jirai-backend/internal/domain/node"
	"jirai-backend/internal/domain/workspace"
)

// WorkspaceRepository stores workspaces with their nodes and edges. Every
// call is scoped to an owner: a workspace owned by someone else is reported
// as not found.
type WorkspaceRepository interface {
	// Create stores a new, empty or populated, workspace.
	Create(ctx context.Context, ws workspace.Workspace) error
	// List returns the owner's workspaces, most recently updated first.
	List(ctx context.Context, ownerID string) ([]workspace.Summary, error)
	// Get loads a workspace with its nodes and edges.
	Get(ctx context.Context, ownerID, id string) (workspace.Workspace, error)
	// Save updates the viewport and timestamps and replaces every node and
	// edge row of the workspace.
	Save(ctx context.Context, ownerID string, ws workspace.Workspace) error
	// Delete removes a workspace and its rows.
	Delete(ctx context.Context, ownerID, id string) error
}

// SnapshotStore keeps the per-session client slices as opaque JSON
// documents.
type SnapshotStore interface {
	Get(ctx context.Context, key string) (data []byte, found bool, err error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// SearchHit is one node matched by a search.
type SearchHit struct {
	NodeID      string    `json:"nodeId"`
	WorkspaceID string    `json:"workspaceId"`
	Type        node.Type `json:"type"`
	Label       string    `json:"label"`
	Snippet     string    `json:"snippet,omitempty"`
}

// SearchQuery narrows a node search.
type SearchQuery struct {
	OwnerID     string
	WorkspaceID string // optional
	Text        string
	Limit       int
}

// NodeIndex is the full-text index behind the command palette.
type NodeIndex interface {
	// Index replaces the indexed nodes of one workspace.
	Index(ctx context.Context, ownerID, workspaceID string, nodes []node.Node) error
	// Remove drops every node of a workspace from the index.
	Remove(ctx context.Context, ownerID, workspaceID string) error
	Search(ctx context.Context, q SearchQuery) ([]SearchHit, error)
}

// AttachmentStore holds the binary content of file nodes.
type AttachmentStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// URL returns a time-limited download link for key.
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// EventPublisher announces stored workspace changes.
type EventPublisher interface {
	Publish(ctx context.Context, events ...workspace.Event) error
}
