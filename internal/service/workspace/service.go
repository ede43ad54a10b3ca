// Package workspace provides the workspace use cases: listing, creating and
// deleting workspaces, and moving a workspace in and out of a session's
// graph store.
package workspace

import (
	"context"
	"time"

	"jirai-backend/internal/domain/graph"
	"jirai-backend/internal/domain/shared"
	domain "jirai-backend/internal/domain/workspace"
	"jirai-backend/internal/repository"
	appErrors "jirai-backend/pkg/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("jirai-backend/service/workspace")

// CreateRequest describes a new workspace.
type CreateRequest struct {
	Name        string
	Description string
	Type        shared.DashboardType
}

// Service defines the workspace operations.
type Service interface {
	List(ctx context.Context, ownerID string) ([]domain.Summary, error)
	Create(ctx context.Context, ownerID string, req CreateRequest) (domain.Workspace, error)
	Get(ctx context.Context, ownerID, id string) (domain.Workspace, error)
	Delete(ctx context.Context, ownerID, id string) error

	// Load replaces the canvas of g with the stored workspace.
	Load(ctx context.Context, ownerID, id string, g *graph.Store) (domain.Workspace, error)
	// Save writes the canvas of g back to the workspace it was loaded from.
	Save(ctx context.Context, ownerID string, g *graph.Store, layout shared.LayoutDirection) (domain.Workspace, error)
}

type service struct {
	repo      repository.WorkspaceRepository
	index     repository.NodeIndex
	publisher repository.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates the workspace service. index and publisher may be nil.
func NewService(repo repository.WorkspaceRepository, index repository.NodeIndex, publisher repository.EventPublisher, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{repo: repo, index: index, publisher: publisher, logger: logger, now: time.Now}
}

func (s *service) List(ctx context.Context, ownerID string) ([]domain.Summary, error) {
	list, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Summary{}
	}
	return list, nil
}

func (s *service) Create(ctx context.Context, ownerID string, req CreateRequest) (domain.Workspace, error) {
	ctx, span := tracer.Start(ctx, "workspace.Create")
	defer span.End()

	ws, err := domain.New(ownerID, req.Name, req.Description, req.Type, s.now())
	if err != nil {
		return domain.Workspace{}, appErrors.NewValidation(err.Error())
	}
	if err := s.repo.Create(ctx, ws); err != nil {
		return domain.Workspace{}, err
	}
	span.SetAttributes(attribute.String("workspace.id", ws.ID))
	s.logger.Info("workspace created", zap.String("workspace_id", ws.ID), zap.String("owner_id", ownerID))
	s.publish(ctx, domain.NewEvent(domain.EventCreated, ws, s.now()))
	return ws, nil
}

func (s *service) Get(ctx context.Context, ownerID, id string) (domain.Workspace, error) {
	if id == "" {
		return domain.Workspace{}, appErrors.NewValidation("workspace id is required")
	}
	return s.repo.Get(ctx, ownerID, id)
}

func (s *service) Delete(ctx context.Context, ownerID, id string) error {
	ctx, span := tracer.Start(ctx, "workspace.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("workspace.id", id))

	if id == "" {
		return appErrors.NewValidation("workspace id is required")
	}
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	if s.index != nil {
		if err := s.index.Remove(ctx, ownerID, id); err != nil {
			s.logger.Warn("failed to remove workspace from search index", zap.String("workspace_id", id), zap.Error(err))
		}
	}
	s.publish(ctx, domain.NewEvent(domain.EventDeleted, domain.Workspace{ID: id, OwnerID: ownerID}, s.now()))
	return nil
}

func (s *service) Load(ctx context.Context, ownerID, id string, g *graph.Store) (domain.Workspace, error) {
	ctx, span := tracer.Start(ctx, "workspace.Load")
	defer span.End()
	span.SetAttributes(attribute.String("workspace.id", id))

	ws, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return domain.Workspace{}, err
	}
	g.LoadWorkspace(ws)
	s.reindex(ctx, ws)
	return ws, nil
}

func (s *service) Save(ctx context.Context, ownerID string, g *graph.Store, layout shared.LayoutDirection) (domain.Workspace, error) {
	ctx, span := tracer.Start(ctx, "workspace.Save")
	defer span.End()

	st := g.State()
	if st.CurrentWorkspaceID == "" {
		return domain.Workspace{}, appErrors.NewValidation("no workspace is loaded in this session")
	}
	span.SetAttributes(attribute.String("workspace.id", st.CurrentWorkspaceID))

	ws, err := s.repo.Get(ctx, ownerID, st.CurrentWorkspaceID)
	if err != nil {
		return domain.Workspace{}, err
	}
	ws.Nodes = st.Nodes
	ws.Edges = st.Edges
	ws.Viewport = st.Viewport
	if layout.Valid() {
		ws.LayoutDirection = layout
	}
	ws.UpdatedAt = s.now()
	if err := ws.Validate(); err != nil {
		return domain.Workspace{}, appErrors.NewValidation(err.Error())
	}

	if err := s.repo.Save(ctx, ownerID, ws); err != nil {
		return domain.Workspace{}, err
	}
	s.logger.Info("workspace saved",
		zap.String("workspace_id", ws.ID),
		zap.Int("nodes", len(ws.Nodes)),
		zap.Int("edges", len(ws.Edges)))
	s.reindex(ctx, ws)
	s.publish(ctx, domain.NewEvent(domain.EventSaved, ws, ws.UpdatedAt))
	return ws, nil
}

// reindex and publish are best effort: the workspace is already stored.
func (s *service) reindex(ctx context.Context, ws domain.Workspace) {
	if s.index == nil {
		return
	}
	if err := s.index.Index(ctx, ws.OwnerID, ws.ID, ws.Nodes); err != nil {
		s.logger.Warn("failed to index workspace", zap.String("workspace_id", ws.ID), zap.Error(err))
	}
}

func (s *service) publish(ctx context.Context, ev domain.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("failed to publish workspace event",
			zap.String("type", string(ev.Type)),
			zap.String("workspace_id", ev.WorkspaceID),
			zap.Error(err))
	}
}
