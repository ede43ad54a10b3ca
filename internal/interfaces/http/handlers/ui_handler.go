package handlers

import (
	"net/http"

	"jirai-backend/internal/domain/shared"
	"jirai-backend/internal/domain/timeline"
	"jirai-backend/internal/domain/uimode"
	"jirai-backend/internal/interfaces/http/dto"
	"jirai-backend/internal/service/session"
	"jirai-backend/pkg/api"
	appErrors "jirai-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) writeUI(w http.ResponseWriter, s *session.Session, applied bool) {
	api.Success(w, http.StatusOK, dto.UIResponse{State: s.UI.State(), Applied: applied})
}

func (h *Handler) getUI(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *session.Session) error {
		h.writeUI(w, s, true)
		return nil
	})
}

// patchUI applies every field present in the body. The fields were
// validated up front, so each setter succeeds.
func (h *Handler) patchUI(w http.ResponseWriter, r *http.Request) {
	var req dto.UIPatchRequest
	if err := h.decode(r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	var cursor *shared.Date
	if req.CurrentDate != nil {
		d := shared.ParseDate(*req.CurrentDate)
		if !d.Valid {
			h.handleServiceError(w, r, appErrors.Validationf("invalid currentDate %q", *req.CurrentDate))
			return
		}
		cursor = &d
	}

	h.withSession(w, r, func(s *session.Session) error {
		if req.ActiveDashboard != nil {
			s.UI.SetActiveDashboard(shared.DashboardType(*req.ActiveDashboard))
		}
		if req.LayoutDirection != nil {
			s.UI.SetLayoutDirection(shared.LayoutDirection(*req.LayoutDirection))
		}
		if req.SidebarOpen != nil && *req.SidebarOpen != s.UI.State().SidebarOpen {
			s.UI.ToggleSidebar()
		}
		if req.SidebarTab != nil {
			s.UI.SetSidebarTab(uimode.SidebarTab(*req.SidebarTab))
		}
		if req.ZoomLevel != nil {
			s.UI.SetZoomLevel(timeline.ZoomLevel(*req.ZoomLevel))
		}
		if cursor != nil {
			s.UI.SetCurrentDate(cursor.Time)
		}
		h.writeUI(w, s, true)
		return nil
	})
}

func (h *Handler) commandPalette(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *session.Session) error {
		switch chi.URLParam(r, "action") {
		case "open":
			s.UI.OpenCommandPalette()
		case "close":
			s.UI.CloseCommandPalette()
		default:
			return appErrors.NewNotFound("unknown command palette action")
		}
		h.writeUI(w, s, true)
		return nil
	})
}

func (h *Handler) openNodeEditor(w http.ResponseWriter, r *http.Request) {
	var req dto.OpenNodeEditorRequest
	if err := h.decode(r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.withSession(w, r, func(s *session.Session) error {
		applied := false
		for _, n := range s.Graph.State().Nodes {
			if n.ID == req.NodeID {
				applied = s.UI.OpenNodeEditor(req.NodeID)
				break
			}
		}
		h.writeUI(w, s, applied)
		return nil
	})
}

func (h *Handler) closeNodeEditor(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *session.Session) error {
		s.UI.CloseNodeEditor()
		h.writeUI(w, s, true)
		return nil
	})
}

func (h *Handler) toggleLayout(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *session.Session) error {
		s.UI.ToggleLayoutDirection()
		h.writeUI(w, s, true)
		return nil
	})
}

func (h *Handler) toggleSidebar(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *session.Session) error {
		s.UI.ToggleSidebar()
		h.writeUI(w, s, true)
		return nil
	})
}
