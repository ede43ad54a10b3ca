// Package search indexes node text for the command palette. Meilisearch
// serves it when configured; LocalIndex is the in-process fallback.
package search

import (
	"strings"

	"jirai-backend/internal/domain/node"
	"jirai-backend/internal/repository"
)

const (
	defaultLimit = 20
	maxLimit     = 100
	snippetRunes = 120
)

// Document is one indexed node.
type Document struct {
	ID          string    `json:"id"`
	NodeID      string    `json:"nodeId"`
	WorkspaceID string    `json:"workspaceId"`
	OwnerID     string    `json:"ownerId"`
	Type        node.Type `json:"type"`
	Label       string    `json:"label"`
	Body        string    `json:"body"`
}

// DocumentID joins workspace and node ids into a key Meilisearch accepts.
func DocumentID(workspaceID, nodeID string) string {
	return workspaceID + "_" + nodeID
}

// NewDocument extracts the searchable text of n.
func NewDocument(ownerID, workspaceID string, n node.Node) Document {
	return Document{
		ID:          DocumentID(workspaceID, n.ID),
		NodeID:      n.ID,
		WorkspaceID: workspaceID,
		OwnerID:     ownerID,
		Type:        n.Type(),
		Label:       n.Data.Label,
		Body:        strings.Join(bodyParts(n.Data.Payload), " "),
	}
}

func bodyParts(p node.Payload) []string {
	var parts []string
	add := func(s ...string) {
		for _, v := range s {
			if v = strings.TrimSpace(v); v != "" {
				parts = append(parts, v)
			}
		}
	}
	switch d := p.(type) {
	case node.TextData:
		add(d.Content)
	case node.LinkData:
		add(d.URL)
		if d.Preview != nil {
			add(d.Preview.Title, d.Preview.Description)
		}
	case node.PersonData:
		add(d.Name, d.Email, d.Notes)
		add(d.Tags...)
	case node.FileData:
		add(d.FileName)
	case node.TaskData:
		add(d.Description)
		for _, s := range d.Subtasks {
			add(s.Label)
		}
	case node.YouTubeData:
		add(d.Title, d.ChannelName)
	}
	return parts
}

func (d Document) hit() repository.SearchHit {
	return repository.SearchHit{
		NodeID:      d.NodeID,
		WorkspaceID: d.WorkspaceID,
		Type:        d.Type,
		Label:       d.Label,
		Snippet:     snippet(d.Body),
	}
}

func snippet(s string) string {
	r := []rune(s)
	if len(r) <= snippetRunes {
		return s
	}
	return string(r[:snippetRunes]) + "…"
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return defaultLimit
	case n > maxLimit:
		return maxLimit
	default:
		return n
	}
}
