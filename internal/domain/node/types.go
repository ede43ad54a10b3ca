// Package node defines the typed canvas node: its kind, its per-kind payload
// and the flat JSON shape shared by the canvas and the persisted records.
package node

import (
	"fmt"

	"github.com/google/uuid"
)

// Type is the kind of a node.
type Type string

const (
	TypeText    Type = "text"
	TypeLink    Type = "link"
	TypePerson  Type = "person"
	TypeFile    Type = "file"
	TypeTask    Type = "task"
	TypeGroup   Type = "group"
	TypeYouTube Type = "youtube"
)

// Declared kinds with no payload or defaults. They are recognised so that
// callers get a precise error instead of "unknown type".
const (
	TypeImage   Type = "image"
	TypeVideo   Type = "video"
	TypeDate    Type = "date"
	TypeWebsite Type = "website"
)

// Types lists the implemented kinds in menu order.
func Types() []Type {
	return []Type{TypeText, TypeTask, TypePerson, TypeLink, TypeYouTube, TypeFile, TypeGroup}
}

// Valid reports whether t is an implemented kind.
func (t Type) Valid() bool {
	switch t {
	case TypeText, TypeLink, TypePerson, TypeFile, TypeTask, TypeGroup, TypeYouTube:
		return true
	}
	return false
}

// Reserved reports whether t is declared but not implemented.
func (t Type) Reserved() bool {
	switch t {
	case TypeImage, TypeVideo, TypeDate, TypeWebsite:
		return true
	}
	return false
}

// Check returns nil for implemented kinds and a descriptive error otherwise.
func (t Type) Check() error {
	switch {
	case t.Valid():
		return nil
	case t.Reserved():
		return fmt.Errorf("node type %q is reserved and not supported yet", t)
	case t == "":
		return fmt.Errorf("node type is required")
	default:
		return fmt.Errorf("unknown node type %q", t)
	}
}

// NewID returns a fresh node id prefixed with its kind, e.g. "task-<uuid>".
func NewID(t Type) string {
	return fmt.Sprintf("%s-%s", t, uuid.NewString())
}

// Priority of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the three priorities.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}
