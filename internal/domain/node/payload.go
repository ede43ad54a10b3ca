package node

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"jirai-backend/internal/domain/shared"
)

// Payload is the kind-specific part of a node's data. Exactly one
// implementation exists per implemented Type.
type Payload interface {
	Kind() Type
}

// TextData is a free-form note, optionally pinned to a calendar day.
type TextData struct {
	Content string       `json:"content"`
	Date    *shared.Date `json:"date,omitempty"`
}

// LinkPreview is the unfurled summary of a link.
type LinkPreview struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// LinkData is a bookmarked URL.
type LinkData struct {
	URL     string       `json:"url"`
	Favicon string       `json:"favicon,omitempty"`
	Preview *LinkPreview `json:"preview,omitempty"`
}

// PersonData is a contact card.
type PersonData struct {
	Name      string   `json:"name"`
	Avatar    string   `json:"avatar,omitempty"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone,omitempty"`
	WhatsApp  string   `json:"whatsapp,omitempty"`
	Instagram string   `json:"instagram,omitempty"`
	Notes     string   `json:"notes,omitempty"`
	Tags      []string `json:"tags"`
}

// FileData describes an attached file. ObjectKey is set when the bytes live
// in the attachment store.
type FileData struct {
	FileName  string `json:"fileName"`
	FileURL   string `json:"fileUrl"`
	FileSize  int64  `json:"fileSize"`
	MimeType  string `json:"mimeType"`
	Thumbnail string `json:"thumbnail,omitempty"`
	ObjectKey string `json:"objectKey,omitempty"`
}

// Subtask is one checklist entry of a task.
type Subtask struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Completed bool   `json:"completed"`
}

// TaskData is an actionable item.
type TaskData struct {
	Description string       `json:"description"`
	Completed   bool         `json:"completed"`
	Priority    Priority     `json:"priority"`
	DueDate     *shared.Date `json:"dueDate,omitempty"`
	Reminder    *shared.Date `json:"reminder,omitempty"`
	Subtasks    []Subtask    `json:"subtasks"`
}

// Progress returns completed and total subtask counts.
func (t TaskData) Progress() (done, total int) {
	for _, s := range t.Subtasks {
		if s.Completed {
			done++
		}
	}
	return done, len(t.Subtasks)
}

// YouTubeData is an embedded video.
type YouTubeData struct {
	VideoID     string `json:"videoId"`
	Title       string `json:"title"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	ChannelName string `json:"channelName"`
	Duration    string `json:"duration,omitempty"`
}

// GroupData is a container of other nodes.
type GroupData struct {
	Children []string `json:"children"`
	Tier     string   `json:"tier"`
}

func (TextData) Kind() Type    { return TypeText }
func (LinkData) Kind() Type    { return TypeLink }
func (PersonData) Kind() Type  { return TypePerson }
func (FileData) Kind() Type    { return TypeFile }
func (TaskData) Kind() Type    { return TypeTask }
func (YouTubeData) Kind() Type { return TypeYouTube }
func (GroupData) Kind() Type   { return TypeGroup }

func cloneDate(d *shared.Date) *shared.Date {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

func clonePayload(p Payload) Payload {
	switch t := p.(type) {
	case TextData:
		t.Date = cloneDate(t.Date)
		return t
	case LinkData:
		if t.Preview != nil {
			preview := *t.Preview
			t.Preview = &preview
		}
		return t
	case PersonData:
		t.Tags = cloneSlice(t.Tags)
		return t
	case TaskData:
		t.DueDate = cloneDate(t.DueDate)
		t.Reminder = cloneDate(t.Reminder)
		t.Subtasks = cloneSlice(t.Subtasks)
		return t
	case GroupData:
		t.Children = cloneSlice(t.Children)
		return t
	}
	return p
}

// zeroPayload returns the empty payload for an implemented kind.
func zeroPayload(t Type) (Payload, error) {
	switch t {
	case TypeText:
		return TextData{}, nil
	case TypeLink:
		return LinkData{}, nil
	case TypePerson:
		return PersonData{}, nil
	case TypeFile:
		return FileData{}, nil
	case TypeTask:
		return TaskData{}, nil
	case TypeYouTube:
		return YouTubeData{}, nil
	case TypeGroup:
		return GroupData{}, nil
	}
	return nil, t.Check()
}

func decodeAs[P Payload](raw []byte) (Payload, error) {
	var p P
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return p, nil
}

// decodePayload reads the payload fields of kind t out of a flat data object.
// Keys that belong to other kinds are ignored here and land in Extra.
func decodePayload(t Type, raw []byte) (Payload, error) {
	var (
		p   Payload
		err error
	)
	switch t {
	case TypeText:
		p, err = decodeAs[TextData](raw)
	case TypeLink:
		p, err = decodeAs[LinkData](raw)
	case TypePerson:
		p, err = decodeAs[PersonData](raw)
	case TypeFile:
		p, err = decodeAs[FileData](raw)
	case TypeTask:
		p, err = decodeAs[TaskData](raw)
	case TypeYouTube:
		p, err = decodeAs[YouTubeData](raw)
	case TypeGroup:
		p, err = decodeAs[GroupData](raw)
	default:
		return nil, t.Check()
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", t, err)
	}
	if task, ok := p.(TaskData); ok && task.Priority != "" && !task.Priority.Valid() {
		return nil, fmt.Errorf("invalid task priority %q", task.Priority)
	}
	return p, nil
}

var (
	payloadKeysOnce sync.Once
	payloadKeys     map[Type]map[string]struct{}
)

// keysOf returns the JSON keys owned by the payload of kind t.
func keysOf(t Type) map[string]struct{} {
	payloadKeysOnce.Do(func() {
		payloadKeys = make(map[Type]map[string]struct{})
		for _, kind := range Types() {
			p, _ := zeroPayload(kind)
			payloadKeys[kind] = jsonFieldNames(reflect.TypeOf(p))
		}
	})
	return payloadKeys[t]
}

func jsonFieldNames(rt reflect.Type) map[string]struct{} {
	names := make(map[string]struct{}, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" || !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "" {
			name = f.Name
		}
		names[name] = struct{}{}
	}
	return names
}
