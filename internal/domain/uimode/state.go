// Package uimode holds cross-cutting presentation state: which dashboard is
// active, sidebar and calendar settings, and the two modal dialogs.
package uimode

import (
	"bytes"
	"encoding/json"
	"time"

	"jirai-backend/internal/domain/shared"
	"jirai-backend/internal/domain/timeline"
)

// SidebarTab is the active sidebar panel.
type SidebarTab string

const (
	TabWorkspaces SidebarTab = "workspaces"
	TabChat       SidebarTab = "chat"
	TabSettings   SidebarTab = "settings"
)

// Valid reports whether t is a known tab.
func (t SidebarTab) Valid() bool {
	return t == TabWorkspaces || t == TabChat || t == TabSettings
}

// State is the full UI mode state of a session.
type State struct {
	ActiveDashboard    shared.DashboardType   `json:"activeDashboard"`
	LayoutDirection    shared.LayoutDirection `json:"layoutDirection"`
	SidebarOpen        bool                   `json:"sidebarOpen"`
	SidebarTab         SidebarTab             `json:"sidebarTab"`
	ZoomLevel          timeline.ZoomLevel     `json:"zoomLevel"`
	CurrentDate        time.Time              `json:"currentDate"`
	CommandPaletteOpen bool                   `json:"isCommandPaletteOpen"`
	NodeEditorOpen     bool                   `json:"isNodeEditorOpen"`
	EditingNodeID      string                 `json:"editingNodeId"`
}

// Default is the state of a fresh session.
func Default(now time.Time) State {
	return State{
		ActiveDashboard: shared.DashboardAnalysis,
		LayoutDirection: shared.LayoutHorizontal,
		SidebarOpen:     true,
		SidebarTab:      TabWorkspaces,
		ZoomLevel:       timeline.ZoomDay,
		CurrentDate:     now,
	}
}

// Persisted is the part of State that outlives a session. Modal flags and
// the editing node id are deliberately absent.
type Persisted struct {
	ActiveDashboard shared.DashboardType   `json:"activeDashboard"`
	LayoutDirection shared.LayoutDirection `json:"layoutDirection"`
	SidebarOpen     bool                   `json:"sidebarOpen"`
	SidebarTab      SidebarTab             `json:"sidebarTab"`
	ZoomLevel       timeline.ZoomLevel     `json:"zoomLevel"`
	CurrentDate     time.Time              `json:"currentDate"`
}

// Persisted extracts the durable part of s.
func (s State) Persisted() Persisted {
	return Persisted{
		ActiveDashboard: s.ActiveDashboard,
		LayoutDirection: s.LayoutDirection,
		SidebarOpen:     s.SidebarOpen,
		SidebarTab:      s.SidebarTab,
		ZoomLevel:       s.ZoomLevel,
		CurrentDate:     s.CurrentDate,
	}
}

// Equal compares two persisted forms, using time equality for the cursor.
func (p Persisted) Equal(o Persisted) bool {
	return p.ActiveDashboard == o.ActiveDashboard &&
		p.LayoutDirection == o.LayoutDirection &&
		p.SidebarOpen == o.SidebarOpen &&
		p.SidebarTab == o.SidebarTab &&
		p.ZoomLevel == o.ZoomLevel &&
		p.CurrentDate.Equal(o.CurrentDate)
}

// UnmarshalJSON reconstitutes currentDate from any of the accepted date
// forms. A missing or unparseable cursor decodes as the zero time and is
// replaced by "now" in Restore.
func (p *Persisted) UnmarshalJSON(raw []byte) error {
	type plain Persisted
	var aux struct {
		plain
		CurrentDate json.RawMessage `json:"currentDate"`
	}
	if err := json.Unmarshal(raw, &aux); err != nil {
		return err
	}
	*p = Persisted(aux.plain)
	p.CurrentDate = time.Time{}
	if len(aux.CurrentDate) > 0 && !bytes.Equal(aux.CurrentDate, []byte("null")) {
		var d shared.Date
		if err := json.Unmarshal(aux.CurrentDate, &d); err == nil && d.Valid {
			p.CurrentDate = d.Time
		}
	}
	return nil
}

// Restore turns a persisted form back into a full state with both modals
// closed. Unknown enum values fall back to the defaults.
func (p Persisted) Restore(now time.Time) State {
	s := Default(now)
	if p.ActiveDashboard.Valid() {
		s.ActiveDashboard = p.ActiveDashboard
	}
	if p.LayoutDirection.Valid() {
		s.LayoutDirection = p.LayoutDirection
	}
	if p.SidebarTab.Valid() {
		s.SidebarTab = p.SidebarTab
	}
	if p.ZoomLevel.Valid() {
		s.ZoomLevel = p.ZoomLevel
	}
	if !p.CurrentDate.IsZero() {
		s.CurrentDate = p.CurrentDate
	}
	s.SidebarOpen = p.SidebarOpen
	return s
}
