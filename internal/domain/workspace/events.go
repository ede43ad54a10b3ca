package workspace

import "time"

// EventType names a workspace lifecycle event.
type EventType string

const (
	EventCreated EventType = "WorkspaceCreated"
	EventSaved   EventType = "WorkspaceSaved"
	EventDeleted EventType = "WorkspaceDeleted"
)

// Event is published after a workspace change has been stored.
type Event struct {
	Type        EventType `json:"type"`
	WorkspaceID string    `json:"workspaceId"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name,omitempty"`
	NodeCount   int       `json:"nodeCount"`
	EdgeCount   int       `json:"edgeCount"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// NewEvent describes w for an event of type t.
func NewEvent(t EventType, w Workspace, at time.Time) Event {
	return Event{
		Type:        t,
		WorkspaceID: w.ID,
		OwnerID:     w.OwnerID,
		Name:        w.Name,
		NodeCount:   len(w.Nodes),
		EdgeCount:   len(w.Edges),
		OccurredAt:  at,
	}
}
