package observability

import (
	"context"
	"time"

	"jirai-backend/internal/domain/workspace"
	"jirai-backend/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// InstrumentedWorkspaceRepository wraps a repository with a span, a metric
// sample and a debug log line per call.
type InstrumentedWorkspaceRepository struct {
	inner    repository.WorkspaceRepository
	backend  string
	recorder Recorder
	tracer   trace.Tracer
	logger   *zap.Logger
}

var _ repository.WorkspaceRepository = (*InstrumentedWorkspaceRepository)(nil)

// NewInstrumentedWorkspaceRepository decorates inner. recorder and logger may
// be nil.
func NewInstrumentedWorkspaceRepository(inner repository.WorkspaceRepository, backend string, recorder Recorder, logger *zap.Logger) *InstrumentedWorkspaceRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = MultiRecorder(nil)
	}
	return &InstrumentedWorkspaceRepository{
		inner:    inner,
		backend:  backend,
		recorder: recorder,
		tracer:   Tracer(),
		logger:   logger,
	}
}

func (r *InstrumentedWorkspaceRepository) observe(ctx context.Context, op string, attrs []attribute.KeyValue, fn func(context.Context) error) error {
	ctx, span := r.tracer.Start(ctx, "workspace_repository."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append(attrs, attribute.String("db.system", r.backend))...),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	r.recorder.RecordOperation(ctx, op, r.backend, elapsed, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Debug("repository call failed",
			zap.String("operation", op),
			zap.String("backend", r.backend),
			zap.Duration("duration", elapsed),
			zap.Error(err))
		return err
	}
	r.logger.Debug("repository call",
		zap.String("operation", op),
		zap.String("backend", r.backend),
		zap.Duration("duration", elapsed))
	return nil
}

func (r *InstrumentedWorkspaceRepository) Create(ctx context.Context, ws workspace.Workspace) error {
	return r.observe(ctx, "create", []attribute.KeyValue{
		attribute.String("workspace.id", ws.ID),
		attribute.Int("workspace.nodes", len(ws.Nodes)),
	}, func(ctx context.Context) error {
		return r.inner.Create(ctx, ws)
	})
}

func (r *InstrumentedWorkspaceRepository) List(ctx context.Context, ownerID string) ([]workspace.Summary, error) {
	var out []workspace.Summary
	err := r.observe(ctx, "list", nil, func(ctx context.Context) error {
		var err error
		out, err = r.inner.List(ctx, ownerID)
		return err
	})
	return out, err
}

func (r *InstrumentedWorkspaceRepository) Get(ctx context.Context, ownerID, id string) (workspace.Workspace, error) {
	var out workspace.Workspace
	err := r.observe(ctx, "get", []attribute.KeyValue{attribute.String("workspace.id", id)}, func(ctx context.Context) error {
		var err error
		out, err = r.inner.Get(ctx, ownerID, id)
		return err
	})
	return out, err
}

func (r *InstrumentedWorkspaceRepository) Save(ctx context.Context, ownerID string, ws workspace.Workspace) error {
	return r.observe(ctx, "save", []attribute.KeyValue{
		attribute.String("workspace.id", ws.ID),
		attribute.Int("workspace.nodes", len(ws.Nodes)),
		attribute.Int("workspace.edges", len(ws.Edges)),
	}, func(ctx context.Context) error {
		return r.inner.Save(ctx, ownerID, ws)
	})
}

func (r *InstrumentedWorkspaceRepository) Delete(ctx context.Context, ownerID, id string) error {
	return r.observe(ctx, "delete", []attribute.KeyValue{attribute.String("workspace.id", id)}, func(ctx context.Context) error {
		return r.inner.Delete(ctx, ownerID, id)
	})
}
