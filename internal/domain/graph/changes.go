// Package graph owns the canonical node and edge collections of a canvas and
// reconciles the change batches emitted by the rendering surface with them.
package graph

import (
	"jirai-backend/internal/domain/edge"
	"jirai-backend/internal/domain/node"
	"jirai-backend/internal/domain/shared"
)

// ChangeType names one kind of incremental mutation.
type ChangeType string

const (
	ChangePosition   ChangeType = "position"
	ChangeDimensions ChangeType = "dimensions"
	ChangeSelect     ChangeType = "select"
	ChangeRemove     ChangeType = "remove"
	ChangeAdd        ChangeType = "add"
	ChangeReplace    ChangeType = "replace"
)

// NodeChange describes one mutation of one node. Which optional fields are
// read depends on Type.
type NodeChange struct {
	Type       ChangeType         `json:"type" validate:"required,oneof=position dimensions select remove add replace"`
	ID         string             `json:"id,omitempty"`
	Position   *shared.Position   `json:"position,omitempty"`
	Dragging   *bool              `json:"dragging,omitempty"`
	Dimensions *shared.Dimensions `json:"dimensions,omitempty"`
	Selected   bool               `json:"selected,omitempty"`
	Item       *node.Node         `json:"item,omitempty"`
}

// EdgeChange describes one mutation of one edge.
type EdgeChange struct {
	Type     ChangeType `json:"type" validate:"required,oneof=select remove add replace"`
	ID       string     `json:"id,omitempty"`
	Selected bool       `json:"selected,omitempty"`
	Item     *edge.Edge `json:"item,omitempty"`
}

// ApplyNodeChanges folds a batch into nodes and returns the new collection.
// The input slice is not modified. Changes that reference an unknown id, add
// an id that already exists or carry no usable item are skipped. Entries not
// mentioned in the batch keep their relative order.
func ApplyNodeChanges(changes []NodeChange, nodes []node.Node) []node.Node {
	out := node.Clone(nodes)
	for _, c := range changes {
		switch c.Type {
		case ChangeAdd:
			if c.Item == nil || c.Item.Validate() != nil || node.Index(out, c.Item.ID) >= 0 {
				continue
			}
			out = append(out, *c.Item)
			continue
		}

		i := node.Index(out, c.ID)
		if i < 0 {
			continue
		}
		switch c.Type {
		case ChangePosition:
			if c.Position != nil {
				out[i].Position = *c.Position
			}
			if c.Dragging != nil {
				out[i].Dragging = *c.Dragging
			}
		case ChangeDimensions:
			if c.Dimensions != nil {
				out[i].Width = c.Dimensions.Width
				out[i].Height = c.Dimensions.Height
			}
		case ChangeSelect:
			out[i].Selected = c.Selected
		case ChangeRemove:
			out = append(out[:i], out[i+1:]...)
		case ChangeReplace:
			if c.Item == nil {
				continue
			}
			item := *c.Item
			if item.ID == "" {
				item.ID = c.ID
			}
			if item.ID != c.ID || item.Validate() != nil {
				continue
			}
			out[i] = item
		}
	}
	return out
}

// ApplyEdgeChanges is the edge counterpart of ApplyNodeChanges. It does not
// check endpoints; the Store filters additions against its node set.
func ApplyEdgeChanges(changes []EdgeChange, edges []edge.Edge) []edge.Edge {
	out := edge.Clone(edges)
	for _, c := range changes {
		if c.Type == ChangeAdd {
			if c.Item == nil || c.Item.ID == "" || edge.Index(out, c.Item.ID) >= 0 {
				continue
			}
			out = append(out, *c.Item)
			continue
		}

		i := edge.Index(out, c.ID)
		if i < 0 {
			continue
		}
		switch c.Type {
		case ChangeSelect:
			out[i].Selected = c.Selected
		case ChangeRemove:
			out = append(out[:i], out[i+1:]...)
		case ChangeReplace:
			if c.Item == nil {
				continue
			}
			item := *c.Item
			if item.ID == "" {
				item.ID = c.ID
			}
			if item.ID != c.ID {
				continue
			}
			out[i] = item
		}
	}
	return out
}
