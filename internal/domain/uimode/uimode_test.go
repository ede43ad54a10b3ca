package uimode

import (
	"encoding/json"
	"testing"
	"time"

	"jirai-backend/internal/domain/shared"
	"jirai-backend/internal/domain/timeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func TestStore_Setters(t *testing.T) {
	s := NewStore(Default(now))

	assert.True(t, s.SetActiveDashboard(shared.DashboardWorkflow))
	assert.False(t, s.SetActiveDashboard("kanban"))
	assert.Equal(t, shared.DashboardWorkflow, s.State().ActiveDashboard)

	s.ToggleLayoutDirection()
	assert.Equal(t, shared.LayoutVertical, s.State().LayoutDirection)
	s.ToggleLayoutDirection()
	assert.Equal(t, shared.LayoutHorizontal, s.State().LayoutDirection)
	assert.False(t, s.SetLayoutDirection("diagonal"))

	s.ToggleSidebar()
	assert.False(t, s.State().SidebarOpen)

	assert.True(t, s.SetSidebarTab(TabChat))
	assert.False(t, s.SetSidebarTab("billing"))

	assert.True(t, s.SetZoomLevel(timeline.ZoomMonth))
	assert.False(t, s.SetZoomLevel("decade"))

	later := now.AddDate(0, 1, 0)
	assert.True(t, s.SetCurrentDate(later))
	assert.False(t, s.SetCurrentDate(time.Time{}))
	assert.True(t, s.State().CurrentDate.Equal(later))
}

func TestStore_Modals(t *testing.T) {
	s := NewStore(Default(now))

	s.OpenCommandPalette()
	assert.True(t, s.State().CommandPaletteOpen)
	s.CloseCommandPalette()
	assert.False(t, s.State().CommandPaletteOpen)

	assert.False(t, s.OpenNodeEditor(""))
	require.True(t, s.OpenNodeEditor("task-1"))
	st := s.State()
	assert.True(t, st.NodeEditorOpen)
	assert.Equal(t, "task-1", st.EditingNodeID)

	s.CloseNodeEditor()
	st = s.State()
	assert.False(t, st.NodeEditorOpen)
	assert.Empty(t, st.EditingNodeID)
}

func TestStore_ModalChangesAreNotPersisted(t *testing.T) {
	s := NewStore(Default(now))
	var writes []Persisted
	s.Subscribe(func(p Persisted) { writes = append(writes, p) })

	s.OpenCommandPalette()
	s.OpenNodeEditor("text-1")
	s.CloseNodeEditor()
	assert.Empty(t, writes)

	s.SetZoomLevel(timeline.ZoomWeek)
	require.Len(t, writes, 1)
	assert.Equal(t, timeline.ZoomWeek, writes[0].ZoomLevel)
}

func TestPersisted_JSON(t *testing.T) {
	st := Default(now)
	st.CommandPaletteOpen = true
	st.NodeEditorOpen = true
	st.EditingNodeID = "task-1"
	st.ZoomLevel = timeline.ZoomMonth

	raw, err := json.Marshal(st.Persisted())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "isCommandPaletteOpen")
	assert.NotContains(t, string(raw), "editingNodeId")

	var back Persisted
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, back.Equal(st.Persisted()))

	restored := back.Restore(now.AddDate(1, 0, 0))
	assert.False(t, restored.CommandPaletteOpen)
	assert.False(t, restored.NodeEditorOpen)
	assert.True(t, restored.CurrentDate.Equal(now))
	assert.Equal(t, timeline.ZoomMonth, restored.ZoomLevel)
}

func TestPersisted_DecodeCurrentDate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"iso string", `{"currentDate":"2024-05-01T10:00:00.000Z"}`, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"epoch millis", `{"currentDate":1714557600000}`, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"garbage falls back", `{"currentDate":"tomorrow-ish"}`, now},
		{"missing falls back", `{}`, now},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Persisted
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &p))
			got := p.Restore(now)
			assert.True(t, got.CurrentDate.Equal(tt.want), "got %v", got.CurrentDate)
		})
	}
}

func TestPersisted_RestoreRejectsUnknownEnums(t *testing.T) {
	p := Persisted{ActiveDashboard: "kanban", SidebarTab: "billing", ZoomLevel: "decade", LayoutDirection: "diagonal"}
	st := p.Restore(now)
	assert.Equal(t, Default(now).ActiveDashboard, st.ActiveDashboard)
	assert.Equal(t, TabWorkspaces, st.SidebarTab)
	assert.Equal(t, timeline.ZoomDay, st.ZoomLevel)
	assert.Equal(t, shared.LayoutHorizontal, st.LayoutDirection)
}
