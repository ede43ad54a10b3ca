package handlers

import (
	"net/http"
	"time"

	"jirai-backend/internal/domain/shared"
	"jirai-backend/internal/domain/timeline"
	"jirai-backend/internal/service/session"
	"jirai-backend/pkg/api"
	appErrors "jirai-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
)

// timelineView is the cursor the query asks for, defaulting to the
// session's zoom level and current date.
func (h *Handler) timelineView(r *http.Request, s *session.Session) (timeline.ZoomLevel, time.Time, error) {
	ui := s.UI.State()
	zoom, cursor := ui.ZoomLevel, ui.CurrentDate

	q := r.URL.Query()
	if raw := q.Get("zoom"); raw != "" {
		z, err := timeline.ParseZoom(raw)
		if err != nil {
			return "", time.Time{}, appErrors.NewValidation(err.Error())
		}
		zoom = z
	}
	if raw := q.Get("date"); raw != "" {
		d := shared.ParseDate(raw)
		if !d.Valid {
			return "", time.Time{}, appErrors.Validationf("invalid date %q", raw)
		}
		cursor = d.Time
	}
	if cursor.IsZero() {
		cursor = h.now()
	}
	return zoom, cursor, nil
}

func (h *Handler) getTimeline(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *session.Session) error {
		zoom, cursor, err := h.timelineView(r, s)
		if err != nil {
			return err
		}
		p := timeline.Project(s.Graph.State().Nodes, zoom, cursor, h.deps.Timeline)
		if m := h.deps.Metrics; m != nil {
			m.TimelineProjections.WithLabelValues(string(p.Zoom)).Inc()
		}
		api.Success(w, http.StatusOK, p)
		return nil
	})
}

func (h *Handler) getMonthGrid(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *session.Session) error {
		_, cursor, err := h.timelineView(r, s)
		if err != nil {
			return err
		}
		g := timeline.MonthGrid(s.Graph.State().Nodes, cursor, h.deps.Timeline)
		if m := h.deps.Metrics; m != nil {
			m.TimelineProjections.WithLabelValues("month-grid").Inc()
		}
		api.Success(w, http.StatusOK, map[string]any{
			"year":     g.Year,
			"month":    int(g.Month),
			"interval": g.Interval,
			"weeks":    g.Weeks(),
		})
		return nil
	})
}

// navigateTimeline moves the session cursor one step, or back to today.
func (h *Handler) navigateTimeline(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *session.Session) error {
		ui := s.UI.State()
		cursor := ui.CurrentDate
		if cursor.IsZero() {
			cursor = h.now()
		}
		switch chi.URLParam(r, "direction") {
		case "next":
			cursor = timeline.Next(ui.ZoomLevel, cursor, h.deps.Timeline)
		case "prev":
			cursor = timeline.Prev(ui.ZoomLevel, cursor, h.deps.Timeline)
		case "today":
			cursor = h.now()
		default:
			return appErrors.NewNotFound("unknown timeline direction")
		}
		s.UI.SetCurrentDate(cursor)
		p := timeline.Project(s.Graph.State().Nodes, ui.ZoomLevel, cursor, h.deps.Timeline)
		api.Success(w, http.StatusOK, p)
		return nil
	})
}
