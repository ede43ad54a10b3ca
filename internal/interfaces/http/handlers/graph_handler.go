package handlers

import (
	"net/http"

	"jirai-backend/internal/domain/edge"
	"jirai-backend/internal/domain/graph"
	"jirai-backend/internal/domain/shared"
	"jirai-backend/internal/interfaces/http/dto"
	"jirai-backend/internal/service/session"
	"jirai-backend/pkg/api"
	appErrors "jirai-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
)

// Graph operations that do not apply answer 200 with applied=false. Only
// malformed requests are errors.

func (h *Handler) getGraph(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *session.Session) error {
		api.Success(w, http.StatusOK, s.Graph.State())
		return nil
	})
}

func (h *Handler) setNodes(w http.ResponseWriter, r *http.Request) {
	var req dto.SetNodesRequest
	if err := h.decode(r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.withSession(w, r, func(s *session.Session) error {
		if err := s.Graph.SetNodes(req.Nodes); err != nil {
			return appErrors.NewValidation(err.Error())
		}
		api.Success(w, http.StatusOK, dto.GraphResponse{Applied: true, Graph: s.Graph.State()})
		return nil
	})
}

func (h *Handler) setEdges(w http.ResponseWriter, r *http.Request) {
	var req dto.SetEdgesRequest
	if err := h.decode(r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.withSession(w, r, func(s *session.Session) error {
		if err := s.Graph.SetEdges(req.Edges); err != nil {
			return appErrors.NewValidation(err.Error())
		}
		api.Success(w, http.StatusOK, dto.GraphResponse{Applied: true, Graph: s.Graph.State()})
		return nil
	})
}

func (h *Handler) applyNodeChanges(w http.ResponseWriter, r *http.Request) {
	var req dto.NodeChangesRequest
	if err := h.decode(r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.withSession(w, r, func(s *session.Session) error {
		s.Graph.OnNodesChange(req.Changes)
		h.countBatch("nodes")
		api.Success(w, http.StatusOK, dto.GraphResponse{Applied: true, Graph: s.Graph.State()})
		return nil
	})
}

func (h *Handler) applyEdgeChanges(w http.ResponseWriter, r *http.Request) {
	var req dto.EdgeChangesRequest
	if err := h.decode(r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.withSession(w, r, func(s *session.Session) error {
		s.Graph.OnEdgesChange(req.Changes)
		h.countBatch("edges")
		api.Success(w, http.StatusOK, dto.GraphResponse{Applied: true, Graph: s.Graph.State()})
		return nil
	})
}

func (h *Handler) connect(w http.ResponseWriter, r *http.Request) {
	var req edge.Connection
	if err := h.decode(r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.withSession(w, r, func(s *session.Session) error {
		e, ok := s.Graph.Connect(req)
		resp := dto.MutationResponse{Applied: ok}
		if ok {
			resp.Edge = &e
			if m := h.deps.Metrics; m != nil {
				m.EdgesCreated.Inc()
			}
		}
		api.Success(w, http.StatusOK, resp)
		return nil
	})
}

func (h *Handler) addNode(w http.ResponseWriter, r *http.Request) {
	var req dto.AddNodeRequest
	if err := h.decode(r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	draft, err := req.Build(h.now())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.withSession(w, r, func(s *session.Session) error {
		n, ok := s.Graph.AddNode(draft, req.Position)
		resp := dto.MutationResponse{Applied: ok}
		status := http.StatusOK
		if ok {
			resp.Node = &n
			status = http.StatusCreated
			if m := h.deps.Metrics; m != nil {
				m.NodesCreated.Inc()
			}
		}
		api.Success(w, status, resp)
		return nil
	})
}

func (h *Handler) updateNode(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := api.Decode(r, &patch); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.withSession(w, r, func(s *session.Session) error {
		n, ok := s.Graph.UpdateNode(chi.URLParam(r, "nodeID"), patch)
		resp := dto.MutationResponse{Applied: ok}
		if ok {
			resp.Node = &n
		}
		api.Success(w, http.StatusOK, resp)
		return nil
	})
}

func (h *Handler) deleteNode(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *session.Session) error {
		nodeID := chi.URLParam(r, "nodeID")
		ok := s.Graph.DeleteNode(nodeID)
		if ok {
			if s.UI.State().EditingNodeID == nodeID {
				s.UI.CloseNodeEditor()
			}
			if m := h.deps.Metrics; m != nil {
				m.NodesDeleted.Inc()
			}
		}
		api.Success(w, http.StatusOK, dto.MutationResponse{Applied: ok})
		return nil
	})
}

func (h *Handler) setViewport(w http.ResponseWriter, r *http.Request) {
	var req dto.ViewportRequest
	if err := h.decode(r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.withSession(w, r, func(s *session.Session) error {
		s.Graph.SetViewport(shared.Viewport{X: req.X, Y: req.Y, Zoom: req.Zoom})
		api.Success(w, http.StatusOK, dto.MutationResponse{Applied: true})
		return nil
	})
}

func (h *Handler) setSelection(w http.ResponseWriter, r *http.Request) {
	var req dto.SelectionRequest
	if err := h.decode(r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.withSession(w, r, func(s *session.Session) error {
		if req.Nodes != nil {
			s.Graph.SetSelectedNodes(req.Nodes)
		}
		if req.Edges != nil {
			s.Graph.SetSelectedEdges(req.Edges)
		}
		api.Success(w, http.StatusOK, selection(s.Graph.State()))
		return nil
	})
}

func (h *Handler) clearSelection(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *session.Session) error {
		s.Graph.ClearSelection()
		api.Success(w, http.StatusOK, selection(s.Graph.State()))
		return nil
	})
}

func selection(st graph.State) map[string][]string {
	return map[string][]string{"nodes": st.SelectedNodes, "edges": st.SelectedEdges}
}

func (h *Handler) countBatch(collection string) {
	if m := h.deps.Metrics; m != nil {
		m.ChangeBatches.WithLabelValues(collection).Inc()
	}
}
