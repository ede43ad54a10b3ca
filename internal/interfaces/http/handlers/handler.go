// Package handlers adapts the session, workspace, search and attachment
// services to HTTP.
package handlers

import (
	"net/http"
	"time"

	"jirai-backend/internal/domain/timeline"
	"jirai-backend/internal/infrastructure/observability"
	"jirai-backend/internal/interfaces/http/validation"
	"jirai-backend/internal/middleware"
	"jirai-backend/internal/service/attachment"
	"jirai-backend/internal/service/search"
	"jirai-backend/internal/service/session"
	"jirai-backend/internal/service/workspace"
	"jirai-backend/pkg/api"
	"jirai-backend/pkg/auth"
	appErrors "jirai-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Dependencies are the services the handlers call. Attachments may be nil
// when uploads are disabled; Metrics may be nil.
type Dependencies struct {
	Sessions    *session.Manager
	Workspaces  workspace.Service
	Search      search.Service
	Attachments attachment.Service
	Timeline    timeline.Options
	Metrics     *observability.Collector
	Logger      *zap.Logger
	// MaxUploadSize bounds attachment bodies; zero means unlimited.
	MaxUploadSize int64
}

// Handler serves the authenticated API.
type Handler struct {
	deps      Dependencies
	validator *validation.Validator
	logger    *zap.Logger
	now       func() time.Time
}

// New creates the API handler.
func New(deps Dependencies) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		deps:      deps,
		validator: validation.GetValidator(),
		logger:    logger.Named("http"),
		now:       time.Now,
	}
}

// Routes mounts every authenticated endpoint on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/workspaces", h.listWorkspaces)
	r.Post("/workspaces", h.createWorkspace)
	r.Get("/workspaces/{id}", h.getWorkspace)
	r.Delete("/workspaces/{id}", h.deleteWorkspace)

	r.Get("/search", h.search)

	r.Route("/sessions/{sid}", func(r chi.Router) {
		r.Delete("/", h.resetSession)

		r.Route("/graph", func(r chi.Router) {
			r.Get("/", h.getGraph)
			r.Put("/nodes", h.setNodes)
			r.Put("/edges", h.setEdges)
			r.Post("/node-changes", h.applyNodeChanges)
			r.Post("/edge-changes", h.applyEdgeChanges)
			r.Post("/connect", h.connect)
			r.Post("/nodes", h.addNode)
			r.Patch("/nodes/{nodeID}", h.updateNode)
			r.Delete("/nodes/{nodeID}", h.deleteNode)
			r.Put("/nodes/{nodeID}/file", h.uploadFile)
			r.Put("/viewport", h.setViewport)
			r.Put("/selection", h.setSelection)
			r.Delete("/selection", h.clearSelection)
			r.Post("/load/{workspaceID}", h.loadWorkspace)
			r.Post("/save", h.saveWorkspace)
		})

		r.Route("/timeline", func(r chi.Router) {
			r.Get("/", h.getTimeline)
			r.Get("/month-grid", h.getMonthGrid)
			r.Post("/{direction}", h.navigateTimeline)
		})

		r.Route("/ui", func(r chi.Router) {
			r.Get("/", h.getUI)
			r.Patch("/", h.patchUI)
			r.Post("/command-palette/{action}", h.commandPalette)
			r.Post("/node-editor/open", h.openNodeEditor)
			r.Post("/node-editor/close", h.closeNodeEditor)
			r.Post("/layout/toggle", h.toggleLayout)
			r.Post("/sidebar/toggle", h.toggleSidebar)
		})

		r.Route("/chat", func(r chi.Router) {
			r.Get("/", h.getChat)
			r.Post("/messages", h.sendChat)
			r.Post("/new", h.newConversation)
		})
	})
}

func userID(r *http.Request) (string, error) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		return "", appErrors.NewUnauthorized("authentication required")
	}
	return p.UserID, nil
}

// openSession resolves the caller's session from the {sid} path parameter.
func (h *Handler) openSession(r *http.Request) (*session.Session, error) {
	uid, err := userID(r)
	if err != nil {
		return nil, err
	}
	return h.deps.Sessions.Open(r.Context(), session.Key{UserID: uid, SessionID: chi.URLParam(r, "sid")})
}

// withSession runs fn under the session lock and writes its error, if any.
func (h *Handler) withSession(w http.ResponseWriter, r *http.Request, fn func(s *session.Session) error) {
	s, err := h.openSession(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if err := s.Do(func() error { return fn(s) }); err != nil {
		h.handleServiceError(w, r, err)
	}
}

// decode reads and validates a JSON body into v.
func (h *Handler) decode(r *http.Request, v any) error {
	if err := api.Decode(r, v); err != nil {
		return err
	}
	return h.validator.Validate(v)
}

// handleServiceError maps err to its status and writes {"error": message}.
// Unexpected errors are logged and reported without detail.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := appErrors.HTTPStatus(err)
	log := middleware.LoggerFrom(r.Context(), h.logger)
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	} else {
		log.Debug("request rejected", zap.Int("status", status), zap.Error(err))
	}
	api.Error(w, status, appErrors.MessageOf(err))
}
