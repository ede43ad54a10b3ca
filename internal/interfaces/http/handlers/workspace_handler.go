package handlers

import (
	"net/http"

	"jirai-backend/internal/domain/shared"
	"jirai-backend/internal/interfaces/http/dto"
	"jirai-backend/internal/service/session"
	"jirai-backend/internal/service/workspace"
	"jirai-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (h *Handler) listWorkspaces(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	list, err := h.deps.Workspaces.List(r.Context(), uid)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, map[string]any{"workspaces": list})
}

func (h *Handler) createWorkspace(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	var req dto.CreateWorkspaceRequest
	if err := h.decode(r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	ws, err := h.deps.Workspaces.Create(r.Context(), uid, workspace.CreateRequest{
		Name:        req.Name,
		Description: req.Description,
		Type:        shared.DashboardType(req.Type),
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", r.URL.Path+"/"+ws.ID)
	api.Success(w, http.StatusCreated, ws)
}

func (h *Handler) getWorkspace(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	ws, err := h.deps.Workspaces.Get(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, ws)
}

func (h *Handler) deleteWorkspace(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if err := h.deps.Workspaces.Delete(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) loadWorkspace(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *session.Session) error {
		ws, err := h.deps.Workspaces.Load(r.Context(), s.UserID, chi.URLParam(r, "workspaceID"), s.Graph)
		if err != nil {
			return err
		}
		if ws.LayoutDirection.Valid() {
			s.UI.SetLayoutDirection(ws.LayoutDirection)
		}
		if ws.Type.Valid() {
			s.UI.SetActiveDashboard(ws.Type)
		}
		h.logger.Info("workspace loaded into session",
			zap.String("user_id", s.UserID),
			zap.String("session_id", s.SessionID),
			zap.String("workspace_id", ws.ID))
		api.Success(w, http.StatusOK, dto.GraphResponse{Applied: true, Graph: s.Graph.State()})
		return nil
	})
}

func (h *Handler) saveWorkspace(w http.ResponseWriter, r *http.Request) {
	var req dto.SaveRequest
	if r.ContentLength > 0 {
		if err := h.decode(r, &req); err != nil {
			h.handleServiceError(w, r, err)
			return
		}
	}
	h.withSession(w, r, func(s *session.Session) error {
		layout := shared.LayoutDirection(req.Layout)
		if layout == "" {
			layout = s.UI.State().LayoutDirection
		}
		ws, err := h.deps.Workspaces.Save(r.Context(), s.UserID, s.Graph, layout)
		if err != nil {
			return err
		}
		api.Success(w, http.StatusOK, ws)
		return nil
	})
}

func (h *Handler) resetSession(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if err := h.deps.Sessions.Reset(r.Context(), session.Key{UserID: uid, SessionID: chi.URLParam(r, "sid")}); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
