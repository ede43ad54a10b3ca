package handlers

import (
	"net/http"
	"strconv"

	"jirai-backend/internal/domain/node"
	"jirai-backend/internal/repository"
	"jirai-backend/internal/service/session"
	"jirai-backend/pkg/api"
	appErrors "jirai-backend/pkg/errors"
)

// search answers GET /search?q=&workspace=&session=&limit=. With a session
// the unsaved canvas of that session is searched as well.
func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	q := r.URL.Query()
	query := repository.SearchQuery{
		OwnerID:     uid,
		WorkspaceID: q.Get("workspace"),
		Text:        q.Get("q"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 100 {
			h.handleServiceError(w, r, appErrors.NewValidation("limit must be between 1 and 100"))
			return
		}
		query.Limit = limit
	}

	var live []node.Node
	if sid := q.Get("session"); sid != "" {
		s, err := h.deps.Sessions.Open(r.Context(), session.Key{UserID: uid, SessionID: sid})
		if err != nil {
			h.handleServiceError(w, r, err)
			return
		}
		st := s.Graph.State()
		live = st.Nodes
		if query.WorkspaceID == "" {
			query.WorkspaceID = st.CurrentWorkspaceID
		}
	}

	hits, err := h.deps.Search.Search(r.Context(), query, live)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, map[string]any{"results": hits})
}
