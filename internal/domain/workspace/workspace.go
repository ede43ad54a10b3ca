// Package workspace defines the named, persisted collection of nodes and
// edges that the backend stores per user.
package workspace

import (
	"fmt"
	"strings"
	"time"

	"jirai-backend/internal/domain/edge"
	"jirai-backend/internal/domain/node"
	"jirai-backend/internal/domain/shared"

	"github.com/google/uuid"
)

// Workspace is the unit of persistence.
type Workspace struct {
	ID              string                 `json:"id"`
	Name            string                 `json:"name"`
	Description     string                 `json:"description,omitempty"`
	Type            shared.DashboardType   `json:"type"`
	OwnerID         string                 `json:"ownerId"`
	Nodes           []node.Node            `json:"nodes"`
	Edges           []edge.Edge            `json:"edges"`
	Viewport        shared.Viewport        `json:"viewport"`
	LayoutDirection shared.LayoutDirection `json:"layoutDirection"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

// New creates an empty workspace owned by ownerID.
func New(ownerID, name, description string, kind shared.DashboardType, now time.Time) (Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Workspace{}, fmt.Errorf("workspace name is required")
	}
	if ownerID == "" {
		return Workspace{}, fmt.Errorf("workspace owner is required")
	}
	if kind == "" {
		kind = shared.DashboardAnalysis
	}
	if !kind.Valid() {
		return Workspace{}, fmt.Errorf("invalid dashboard type %q", kind)
	}
	return Workspace{
		ID:              uuid.NewString(),
		Name:            name,
		Description:     description,
		Type:            kind,
		OwnerID:         ownerID,
		Nodes:           []node.Node{},
		Edges:           []edge.Edge{},
		Viewport:        shared.DefaultViewport(),
		LayoutDirection: shared.LayoutHorizontal,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Validate checks the collection invariants: every node is well formed,
// node ids are unique and no edge dangles.
func (w Workspace) Validate() error {
	seen := make(map[string]struct{}, len(w.Nodes))
	for _, n := range w.Nodes {
		if err := n.Validate(); err != nil {
			return err
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("duplicate node id %q", n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	edgeIDs := make(map[string]struct{}, len(w.Edges))
	for _, e := range w.Edges {
		if e.ID == "" {
			return fmt.Errorf("edge id is required")
		}
		if _, dup := edgeIDs[e.ID]; dup {
			return fmt.Errorf("duplicate edge id %q", e.ID)
		}
		edgeIDs[e.ID] = struct{}{}
		if _, ok := seen[e.Source]; !ok {
			return fmt.Errorf("edge %s references missing source %q", e.ID, e.Source)
		}
		if _, ok := seen[e.Target]; !ok {
			return fmt.Errorf("edge %s references missing target %q", e.ID, e.Target)
		}
	}
	if w.LayoutDirection != "" && !w.LayoutDirection.Valid() {
		return fmt.Errorf("invalid layout direction %q", w.LayoutDirection)
	}
	return nil
}

// Summary is the listing view of a workspace, without its collections.
type Summary struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Type        shared.DashboardType `json:"type"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

// Summary returns the listing view.
func (w Workspace) Summary() Summary {
	return Summary{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Type:        w.Type,
		UpdatedAt:   w.UpdatedAt,
	}
}
