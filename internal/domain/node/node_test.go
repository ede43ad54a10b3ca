package node

import (
	"encoding/json"
	"testing"
	"time"

	"jirai-backend/internal/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func datePtr(t time.Time) *shared.Date {
	d := shared.NewDate(t)
	return &d
}

func sampleOfEachKind() []Node {
	base := func(label, color string, p Payload) Data {
		return Data{Label: label, Color: color, CreatedAt: fixedNow, UpdatedAt: fixedNow, Payload: p}
	}
	return []Node{
		{ID: "text-1", Position: shared.Position{X: 100, Y: 100}, Data: base("Welcome", "violet",
			TextData{Content: "hello", Date: datePtr(fixedNow.Add(24 * time.Hour))})},
		{ID: "task-1", Position: shared.Position{X: 450, Y: 80}, Width: 240, Height: 120, Data: base("Learn", "emerald",
			TaskData{
				Description: "explore",
				Priority:    PriorityHigh,
				DueDate:     datePtr(fixedNow),
				Subtasks:    []Subtask{{ID: "1", Label: "Create nodes", Completed: true}},
			})},
		{ID: "person-1", Position: shared.Position{X: 100, Y: 350}, Data: base("Team Member", "blue",
			PersonData{Name: "John Doe", Email: "john@example.com", Tags: []string{"Developer"}})},
		{ID: "link-1", Data: base("Docs", "cyan",
			LinkData{URL: "https://example.com", Preview: &LinkPreview{Title: "Example"}})},
		{ID: "youtube-1", Data: base("Video", "red",
			YouTubeData{VideoID: "dQw4w9WgXcQ", Title: "Getting Started", ChannelName: "Jirai", Duration: "10:30"})},
		{ID: "file-1", Data: base("Spec", "amber",
			FileData{FileName: "plan.pdf", FileURL: "https://files/plan.pdf", FileSize: 2048, MimeType: "application/pdf"})},
		{ID: "group-1", ParentID: "", Data: base("Group", "slate",
			GroupData{Children: []string{"text-1", "task-1"}, Tier: "gold"})},
	}
}

func TestNode_JSONRoundTrip(t *testing.T) {
	for _, n := range sampleOfEachKind() {
		t.Run(string(n.Type()), func(t *testing.T) {
			raw, err := json.Marshal(n)
			require.NoError(t, err)

			var back Node
			require.NoError(t, json.Unmarshal(raw, &back))
			assert.Equal(t, n, back)
		})
	}
}

func TestNode_WireShape(t *testing.T) {
	n := sampleOfEachKind()[1]
	raw, err := json.Marshal(n)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Equal(t, "task", generic["type"])

	data := generic["data"].(map[string]any)
	assert.Equal(t, "task-1", data["id"])
	assert.Equal(t, "task", data["type"])
	assert.Equal(t, "high", data["priority"])
	assert.Equal(t, "2024-03-10T09:00:00Z", data["dueDate"])
}

func TestNode_Unmarshal(t *testing.T) {
	t.Run("rejects mismatched data type", func(t *testing.T) {
		raw := `{"id":"n1","type":"task","position":{"x":0,"y":0},"data":{"label":"x","type":"text","color":"violet"}}`
		var n Node
		err := json.Unmarshal([]byte(raw), &n)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not match")
	})

	t.Run("rejects reserved kinds", func(t *testing.T) {
		raw := `{"id":"n1","type":"image","position":{"x":0,"y":0},"data":{"label":"x","type":"image"}}`
		var n Node
		err := json.Unmarshal([]byte(raw), &n)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reserved")
	})

	t.Run("keeps unknown keys in the extension bag", func(t *testing.T) {
		raw := `{"id":"n1","type":"text","position":{"x":1,"y":2},"data":{"label":"x","type":"text","color":"violet","content":"c","mood":"calm","dueDate":"2024-03-12"}}`
		var n Node
		require.NoError(t, json.Unmarshal([]byte(raw), &n))
		assert.Equal(t, "calm", n.Data.Extra["mood"])
		assert.Equal(t, "2024-03-12", n.Data.Extra["dueDate"])

		out, err := json.Marshal(n)
		require.NoError(t, err)
		assert.Contains(t, string(out), `"mood":"calm"`)
	})

	t.Run("unparseable dates survive", func(t *testing.T) {
		raw := `{"id":"t1","type":"task","position":{"x":0,"y":0},"data":{"label":"x","type":"task","priority":"low","dueDate":"whenever","subtasks":[]}}`
		var n Node
		require.NoError(t, json.Unmarshal([]byte(raw), &n))
		task := n.Data.Payload.(TaskData)
		require.NotNil(t, task.DueDate)
		assert.False(t, task.DueDate.Valid)

		out, err := json.Marshal(n)
		require.NoError(t, err)
		assert.Contains(t, string(out), `"dueDate":"whenever"`)
	})

	t.Run("rejects an invalid priority", func(t *testing.T) {
		raw := `{"id":"t1","type":"task","position":{"x":0,"y":0},"data":{"label":"x","type":"task","priority":"urgent"}}`
		var n Node
		assert.Error(t, json.Unmarshal([]byte(raw), &n))
	})
}

func TestData_Merge(t *testing.T) {
	original := sampleOfEachKind()[1].Data
	later := fixedNow.Add(time.Hour)

	t.Run("merges payload and shared fields", func(t *testing.T) {
		merged, err := original.Merge(map[string]any{"completed": true, "label": "Done"}, later)
		require.NoError(t, err)

		task := merged.Payload.(TaskData)
		assert.True(t, task.Completed)
		assert.Equal(t, "Done", merged.Label)
		assert.Equal(t, PriorityHigh, task.Priority)
		assert.True(t, merged.UpdatedAt.Equal(later))
		assert.True(t, merged.CreatedAt.Equal(fixedNow))
	})

	t.Run("ignores identity keys", func(t *testing.T) {
		merged, err := original.Merge(map[string]any{"type": "text", "id": "other"}, later)
		require.NoError(t, err)
		assert.Equal(t, TypeTask, merged.Kind())
		assert.NotContains(t, merged.Extra, "id")
	})

	t.Run("explicit updatedAt wins", func(t *testing.T) {
		merged, err := original.Merge(map[string]any{"updatedAt": "2030-01-01T00:00:00Z"}, later)
		require.NoError(t, err)
		assert.Equal(t, 2030, merged.UpdatedAt.Year())
	})

	t.Run("unknown keys go to extra", func(t *testing.T) {
		merged, err := original.Merge(map[string]any{"estimate": 3}, later)
		require.NoError(t, err)
		assert.Equal(t, float64(3), merged.Extra["estimate"])
	})

	t.Run("ill-typed patch fails", func(t *testing.T) {
		_, err := original.Merge(map[string]any{"completed": "yes"}, later)
		assert.Error(t, err)
	})
}

func TestDraft(t *testing.T) {
	for _, kind := range Types() {
		t.Run(string(kind), func(t *testing.T) {
			n, err := Draft(kind, "New "+string(kind), "", fixedNow)
			require.NoError(t, err)
			assert.Equal(t, kind, n.Type())
			assert.Equal(t, DefaultColor[kind], n.Data.Color)
			assert.Empty(t, n.ID)
		})
	}

	text, _ := Draft(TypeText, "note", "", fixedNow)
	assert.True(t, text.Data.Payload.(TextData).Date.Time.Equal(fixedNow.Add(24*time.Hour)))

	task, _ := Draft(TypeTask, "todo", "", fixedNow)
	assert.Equal(t, PriorityMedium, task.Data.Payload.(TaskData).Priority)

	_, err := Draft(TypeWebsite, "site", "", fixedNow)
	assert.Error(t, err)
}

func TestType_Check(t *testing.T) {
	assert.NoError(t, TypeGroup.Check())
	assert.ErrorContains(t, TypeVideo.Check(), "reserved")
	assert.ErrorContains(t, Type("blob").Check(), "unknown")
	assert.ErrorContains(t, Type("").Check(), "required")
}
