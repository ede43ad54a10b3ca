package uimode

import (
	"sync"
	"time"

	"jirai-backend/internal/domain/shared"
	"jirai-backend/internal/domain/timeline"
)

// Store guards one session's UI state. Listeners are told about changes to
// the persisted part only; toggling a modal never triggers a write.
type Store struct {
	mu        sync.RWMutex
	state     State
	listeners map[int]func(Persisted)
	nextID    int
}

// NewStore creates a store holding initial.
func NewStore(initial State) *Store {
	return &Store{state: initial, listeners: make(map[int]func(Persisted))}
}

// State returns the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn for persisted-state changes.
func (s *Store) Subscribe(fn func(Persisted)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) update(fn func(st *State) bool) bool {
	s.mu.Lock()
	before := s.state.Persisted()
	if !fn(&s.state) {
		s.mu.Unlock()
		return false
	}
	after := s.state.Persisted()
	var listeners []func(Persisted)
	if !before.Equal(after) {
		for _, l := range s.listeners {
			listeners = append(listeners, l)
		}
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(after)
	}
	return true
}

// SetActiveDashboard switches the dashboard. Unknown values are rejected.
func (s *Store) SetActiveDashboard(d shared.DashboardType) bool {
	if !d.Valid() {
		return false
	}
	return s.update(func(st *State) bool { st.ActiveDashboard = d; return true })
}

// SetLayoutDirection sets the layout direction. Unknown values are rejected.
func (s *Store) SetLayoutDirection(l shared.LayoutDirection) bool {
	if !l.Valid() {
		return false
	}
	return s.update(func(st *State) bool { st.LayoutDirection = l; return true })
}

// ToggleLayoutDirection flips between horizontal and vertical.
func (s *Store) ToggleLayoutDirection() {
	s.update(func(st *State) bool { st.LayoutDirection = st.LayoutDirection.Toggle(); return true })
}

// ToggleSidebar opens or closes the sidebar.
func (s *Store) ToggleSidebar() {
	s.update(func(st *State) bool { st.SidebarOpen = !st.SidebarOpen; return true })
}

// SetSidebarTab selects a sidebar panel.
func (s *Store) SetSidebarTab(t SidebarTab) bool {
	if !t.Valid() {
		return false
	}
	return s.update(func(st *State) bool { st.SidebarTab = t; return true })
}

// SetZoomLevel changes the calendar zoom.
func (s *Store) SetZoomLevel(z timeline.ZoomLevel) bool {
	if !z.Valid() {
		return false
	}
	return s.update(func(st *State) bool { st.ZoomLevel = z; return true })
}

// SetCurrentDate moves the calendar cursor.
func (s *Store) SetCurrentDate(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	return s.update(func(st *State) bool { st.CurrentDate = t; return true })
}

// OpenCommandPalette shows the command palette.
func (s *Store) OpenCommandPalette() {
	s.update(func(st *State) bool { st.CommandPaletteOpen = true; return true })
}

// CloseCommandPalette hides the command palette.
func (s *Store) CloseCommandPalette() {
	s.update(func(st *State) bool { st.CommandPaletteOpen = false; return true })
}

// OpenNodeEditor opens the editor on nodeID.
func (s *Store) OpenNodeEditor(nodeID string) bool {
	if nodeID == "" {
		return false
	}
	return s.update(func(st *State) bool {
		st.NodeEditorOpen = true
		st.EditingNodeID = nodeID
		return true
	})
}

// CloseNodeEditor closes the editor and forgets the node.
func (s *Store) CloseNodeEditor() {
	s.update(func(st *State) bool {
		st.NodeEditorOpen = false
		st.EditingNodeID = ""
		return true
	})
}

// Restore replaces the durable part of the state with p and closes both
// modals.
func (s *Store) Restore(p Persisted, now time.Time) {
	s.update(func(st *State) bool { *st = p.Restore(now); return true })
}
