package node

import (
	"encoding/json"
	"errors"
	"fmt"

	"jirai-backend/internal/domain/shared"
)

// Node is a single visual unit on the canvas. Its type is the kind of its
// payload, so the node type and data.type cannot disagree.
type Node struct {
	ID       string
	Position shared.Position
	Width    float64
	Height   float64
	Selected bool
	Dragging bool
	ParentID string
	Data     Data
}

// New builds a node and checks that it is well formed.
func New(id string, position shared.Position, data Data) (Node, error) {
	n := Node{ID: id, Position: position, Data: data}
	if err := n.Validate(); err != nil {
		return Node{}, err
	}
	return n, nil
}

// Type returns the node's kind.
func (n Node) Type() Type {
	return n.Data.Kind()
}

// Validate checks the structural invariants of a node.
func (n Node) Validate() error {
	if n.ID == "" {
		return errors.New("node id is required")
	}
	if n.Data.Payload == nil {
		return fmt.Errorf("node %s has no payload", n.ID)
	}
	return n.Type().Check()
}

// DataJSON is the flat data object including its id, as stored in the
// data column of a node record.
func (n Node) DataJSON() ([]byte, error) {
	fields, err := n.Data.fields()
	if err != nil {
		return nil, err
	}
	id, _ := json.Marshal(n.ID)
	fields["id"] = id
	return json.Marshal(fields)
}

type wireNode struct {
	ID       string          `json:"id"`
	Type     Type            `json:"type"`
	Position shared.Position `json:"position"`
	Width    float64         `json:"width,omitempty"`
	Height   float64         `json:"height,omitempty"`
	Selected bool            `json:"selected,omitempty"`
	Dragging bool            `json:"dragging,omitempty"`
	ParentID string          `json:"parentNode,omitempty"`
	Data     json.RawMessage `json:"data"`
}

// MarshalJSON writes the canvas shape: {"id","type","position","data":{...}}.
func (n Node) MarshalJSON() ([]byte, error) {
	data, err := n.DataJSON()
	if err != nil {
		return nil, fmt.Errorf("encode node %s: %w", n.ID, err)
	}
	return json.Marshal(wireNode{
		ID:       n.ID,
		Type:     n.Type(),
		Position: n.Position,
		Width:    n.Width,
		Height:   n.Height,
		Selected: n.Selected,
		Dragging: n.Dragging,
		ParentID: n.ParentID,
		Data:     data,
	})
}

// UnmarshalJSON reads the canvas shape and rejects a data.type that differs
// from the node type.
func (n *Node) UnmarshalJSON(raw []byte) error {
	var w wireNode
	if err := json.Unmarshal(raw, &w); err != nil {
		return err
	}
	if len(w.Data) == 0 {
		return fmt.Errorf("node %s has no data", w.ID)
	}
	data, err := DecodeData(w.Data, w.Type)
	if err != nil {
		return fmt.Errorf("node %s: %w", w.ID, err)
	}
	*n = Node{
		ID:       w.ID,
		Position: w.Position,
		Width:    w.Width,
		Height:   w.Height,
		Selected: w.Selected,
		Dragging: w.Dragging,
		ParentID: w.ParentID,
		Data:     data,
	}
	return nil
}

// Index returns the position of the node with the given id, or -1.
func Index(nodes []Node, id string) int {
	for i := range nodes {
		if nodes[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone deep-copies a node slice. Nil stays nil.
func Clone(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		n.Data = n.Data.Clone()
		out[i] = n
	}
	return out
}
