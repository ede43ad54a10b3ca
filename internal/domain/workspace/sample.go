package workspace

import (
	"time"

	"jirai-backend/internal/domain/edge"
	"jirai-backend/internal/domain/node"
	"jirai-backend/internal/domain/shared"
)

// Sample returns the starter canvas shown to a new session: four nodes and
// three edges.
func Sample(now time.Time) ([]node.Node, []edge.Edge) {
	data := func(label, color string, p node.Payload) node.Data {
		return node.Data{Label: label, Color: color, CreatedAt: now, UpdatedAt: now, Payload: p}
	}
	tomorrow := shared.NewDate(now.Add(24 * time.Hour))
	today := shared.NewDate(now)

	nodes := []node.Node{
		{
			ID:       "text-1",
			Position: shared.Position{X: 100, Y: 100},
			Data: data("Welcome to Jirai", "violet", node.TextData{
				Content: "This is a text node. You can use it for notes, ideas, or any information.",
				Date:    &tomorrow,
			}),
		},
		{
			ID:       "task-1",
			Position: shared.Position{X: 450, Y: 80},
			Data: data("Learn Jirai", "emerald", node.TaskData{
				Description: "Explore all the node types and features",
				Priority:    node.PriorityHigh,
				DueDate:     &today,
				Subtasks: []node.Subtask{
					{ID: "1", Label: "Create nodes", Completed: true},
					{ID: "2", Label: "Connect nodes"},
					{ID: "3", Label: "Use AI chat"},
				},
			}),
		},
		{
			ID:       "person-1",
			Position: shared.Position{X: 100, Y: 350},
			Data: data("Team Member", "blue", node.PersonData{
				Name:  "John Doe",
				Email: "john@example.com",
				Phone: "+1234567890",
				Tags:  []string{"Developer", "Team Lead"},
				Notes: "Key contact for the project",
			}),
		},
		{
			ID:       "youtube-1",
			Position: shared.Position{X: 450, Y: 320},
			Data: data("Tutorial Video", "red", node.YouTubeData{
				VideoID:     "dQw4w9WgXcQ",
				Title:       "Getting Started with Mind Mapping",
				ChannelName: "Jirai Tutorials",
				Duration:    "10:30",
			}),
		},
	}

	styled := func(id, source, target string) edge.Edge {
		style := edge.DefaultStyle()
		return edge.Edge{ID: id, Source: source, Target: target, Type: edge.DefaultType, Style: &style}
	}
	edges := []edge.Edge{
		styled("e1-2", "text-1", "task-1"),
		styled("e1-3", "text-1", "person-1"),
		styled("e2-4", "task-1", "youtube-1"),
	}
	return nodes, edges
}
