// Package dto holds the request and response bodies of the HTTP API.
package dto

import (
	"time"

	"jirai-backend/internal/domain/chat"
	"jirai-backend/internal/domain/edge"
	"jirai-backend/internal/domain/graph"
	"jirai-backend/internal/domain/node"
	"jirai-backend/internal/domain/shared"
	"jirai-backend/internal/domain/uimode"
	appErrors "jirai-backend/pkg/errors"
)

const (
	MaxLabelLength   = 200
	MaxMessageLength = 4000
	MaxBatchSize     = 1000
)

// CreateWorkspaceRequest is the body of POST /workspaces.
type CreateWorkspaceRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	Type        string `json:"type" validate:"required,dashboard"`
}

// SetNodesRequest replaces the whole node collection.
type SetNodesRequest struct {
	Nodes []node.Node `json:"nodes" validate:"max=1000"`
}

// SetEdgesRequest replaces the whole edge collection.
type SetEdgesRequest struct {
	Edges []edge.Edge `json:"edges" validate:"max=1000"`
}

// NodeChangesRequest is a change batch from the canvas.
type NodeChangesRequest struct {
	Changes []graph.NodeChange `json:"changes" validate:"required,max=1000,dive"`
}

// EdgeChangesRequest is a change batch from the canvas.
type EdgeChangesRequest struct {
	Changes []graph.EdgeChange `json:"changes" validate:"required,max=1000,dive"`
}

// AddNodeRequest creates a node either from a complete node or from a type
// with defaults. Position nil places the node automatically.
type AddNodeRequest struct {
	Node     *node.Node       `json:"node,omitempty"`
	Type     string           `json:"type,omitempty" validate:"omitempty,nodetype"`
	Label    string           `json:"label,omitempty" validate:"max=200"`
	Color    string           `json:"color,omitempty" validate:"max=32"`
	Position *shared.Position `json:"position,omitempty"`
}

// Build returns the node to insert.
func (r AddNodeRequest) Build(now time.Time) (node.Node, error) {
	if r.Node != nil {
		return *r.Node, nil
	}
	if r.Type == "" {
		return node.Node{}, appErrors.NewValidation("either node or type is required")
	}
	label := r.Label
	if label == "" {
		label = "New " + r.Type
	}
	n, err := node.Draft(node.Type(r.Type), label, r.Color, now)
	if err != nil {
		return node.Node{}, appErrors.NewValidation(err.Error())
	}
	return n, nil
}

// SelectionRequest replaces the selection. Omitted lists are left alone.
type SelectionRequest struct {
	Nodes []string `json:"nodes,omitempty" validate:"max=1000"`
	Edges []string `json:"edges,omitempty" validate:"max=1000"`
}

// ViewportRequest is the body of PUT .../graph/viewport.
type ViewportRequest struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom" validate:"gt=0,lte=10"`
}

// SaveRequest is the body of POST .../graph/save. An empty layout uses the
// session's current layout direction.
type SaveRequest struct {
	Layout string `json:"layoutDirection,omitempty" validate:"omitempty,layout"`
}

// UIPatchRequest updates the persisted UI mode fields that are present.
type UIPatchRequest struct {
	ActiveDashboard *string `json:"activeDashboard,omitempty" validate:"omitempty,dashboard"`
	LayoutDirection *string `json:"layoutDirection,omitempty" validate:"omitempty,layout"`
	SidebarOpen     *bool   `json:"sidebarOpen,omitempty"`
	SidebarTab      *string `json:"sidebarTab,omitempty" validate:"omitempty,sidebartab"`
	ZoomLevel       *string `json:"zoomLevel,omitempty" validate:"omitempty,zoom"`
	CurrentDate     *string `json:"currentDate,omitempty"`
}

// OpenNodeEditorRequest names the node to edit.
type OpenNodeEditorRequest struct {
	NodeID string `json:"nodeId" validate:"required"`
}

// ChatMessageRequest is one user message.
type ChatMessageRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

// MutationResponse reports whether a graph operation changed anything.
type MutationResponse struct {
	Applied bool       `json:"applied"`
	Node    *node.Node `json:"node,omitempty"`
	Edge    *edge.Edge `json:"edge,omitempty"`
}

// GraphResponse carries the state after a batch.
type GraphResponse struct {
	Applied bool        `json:"applied"`
	Graph   graph.State `json:"graph"`
}

// UIResponse is the full UI mode state.
type UIResponse struct {
	uimode.State
	Applied bool `json:"applied"`
}

// ChatSendResponse echoes the stored user message and the conversation.
type ChatSendResponse struct {
	Message      chat.Message      `json:"message"`
	Conversation chat.Conversation `json:"conversation"`
}
