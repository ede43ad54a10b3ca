// Package edge defines the directed connection between two canvas nodes.
package edge

import (
	"github.com/google/uuid"
)

// Default rendering of a new connection.
const (
	DefaultType        = "smoothstep"
	DefaultStroke      = "#64748b"
	DefaultStrokeWidth = 2.0
)

// Style is the stroke used to draw an edge.
type Style struct {
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
}

// DefaultStyle is applied to every edge created by a connect gesture.
func DefaultStyle() Style {
	return Style{Stroke: DefaultStroke, StrokeWidth: DefaultStrokeWidth}
}

// Edge connects Source to Target, optionally between named handles.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
	Type         string `json:"type,omitempty"`
	Style        *Style `json:"style,omitempty"`
	Animated     bool   `json:"animated,omitempty"`
	Label        string `json:"label,omitempty"`
	Color        string `json:"color,omitempty"`
	Selected     bool   `json:"selected,omitempty"`
}

// Connection is a candidate edge produced by dragging from one handle to
// another.
type Connection struct {
	Source       string `json:"source" validate:"required"`
	Target       string `json:"target" validate:"required"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// NewID returns a unique edge id.
func NewID() string {
	return "e-" + uuid.NewString()
}

// FromConnection builds an edge with a fresh id and the default rendering.
func FromConnection(c Connection) Edge {
	style := DefaultStyle()
	return Edge{
		ID:           NewID(),
		Source:       c.Source,
		Target:       c.Target,
		SourceHandle: c.SourceHandle,
		TargetHandle: c.TargetHandle,
		Type:         DefaultType,
		Style:        &style,
	}
}

// SameEndpoints reports whether e already joins the connection's
// (source, sourceHandle, target, targetHandle).
func (e Edge) SameEndpoints(c Connection) bool {
	return e.Source == c.Source &&
		e.Target == c.Target &&
		e.SourceHandle == c.SourceHandle &&
		e.TargetHandle == c.TargetHandle
}

// Touches reports whether the edge references node id at either end.
func (e Edge) Touches(nodeID string) bool {
	return e.Source == nodeID || e.Target == nodeID
}

// Index returns the position of the edge with the given id, or -1.
func Index(edges []Edge, id string) int {
	for i := range edges {
		if edges[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone deep-copies an edge slice. Nil stays nil.
func Clone(edges []Edge) []Edge {
	if edges == nil {
		return nil
	}
	out := make([]Edge, len(edges))
	for i, e := range edges {
		if e.Style != nil {
			style := *e.Style
			e.Style = &style
		}
		out[i] = e
	}
	return out
}
