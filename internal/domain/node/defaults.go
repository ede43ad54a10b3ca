package node

import (
	"time"

	"jirai-backend/internal/domain/shared"
)

// DefaultColor per kind, matching the creation menu.
var DefaultColor = map[Type]string{
	TypeText:    "violet",
	TypeTask:    "emerald",
	TypePerson:  "blue",
	TypeLink:    "cyan",
	TypeYouTube: "red",
	TypeFile:    "amber",
	TypeGroup:   "slate",
}

// DefaultPayload returns the payload a freshly created node of kind t starts
// with. Text notes are dated tomorrow and tasks are due today.
func DefaultPayload(t Type, label string, now time.Time) (Payload, error) {
	switch t {
	case TypeText:
		tomorrow := shared.NewDate(now.Add(24 * time.Hour))
		return TextData{Content: "Double-click to edit...", Date: &tomorrow}, nil
	case TypeLink:
		return LinkData{URL: "https://example.com", Preview: &LinkPreview{Title: "Example Site"}}, nil
	case TypePerson:
		return PersonData{Name: label, Tags: []string{}}, nil
	case TypeTask:
		due := shared.NewDate(now)
		return TaskData{
			Description: label,
			Priority:    PriorityMedium,
			DueDate:     &due,
			Subtasks:    []Subtask{},
		}, nil
	case TypeYouTube:
		return YouTubeData{Title: label}, nil
	case TypeFile:
		return FileData{FileName: "file.pdf", MimeType: "application/pdf"}, nil
	case TypeGroup:
		return GroupData{Children: []string{}}, nil
	}
	return nil, t.Check()
}

// Draft builds an unplaced node of kind t with default payload. The id is
// left empty; the graph store assigns one on insert.
func Draft(t Type, label, color string, now time.Time) (Node, error) {
	payload, err := DefaultPayload(t, label, now)
	if err != nil {
		return Node{}, err
	}
	if color == "" {
		color = DefaultColor[t]
	}
	return Node{
		Data: Data{
			Label:     label,
			Color:     color,
			CreatedAt: now,
			UpdatedAt: now,
			Payload:   payload,
		},
	}, nil
}
