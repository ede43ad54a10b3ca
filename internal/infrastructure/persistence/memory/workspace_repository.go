// Package memory keeps workspaces in process memory. It backs development
// runs and tests.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"jirai-backend/internal/domain/workspace"
	"jirai-backend/internal/infrastructure/persistence/records"
	"jirai-backend/internal/repository"
	appErrors "jirai-backend/pkg/errors"
)

// WorkspaceRepository stores row sets the same way the SQL backends do, so
// a save/load cycle goes through the record mapping.
type WorkspaceRepository struct {
	mu   sync.RWMutex
	sets map[string]records.Set
	now  func() time.Time

	// For testing error scenarios
	shouldFailOn map[string]error
}

var _ repository.WorkspaceRepository = (*WorkspaceRepository)(nil)

// NewWorkspaceRepository creates an empty repository.
func NewWorkspaceRepository() *WorkspaceRepository {
	return &WorkspaceRepository{
		sets:         make(map[string]records.Set),
		now:          time.Now,
		shouldFailOn: make(map[string]error),
	}
}

// SetError makes the named method fail with err until ClearErrors.
func (r *WorkspaceRepository) SetError(method string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shouldFailOn[method] = err
}

// ClearErrors removes all configured errors.
func (r *WorkspaceRepository) ClearErrors() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shouldFailOn = make(map[string]error)
}

func (r *WorkspaceRepository) fail(method string) error {
	return r.shouldFailOn[method]
}

func (r *WorkspaceRepository) Create(ctx context.Context, ws workspace.Workspace) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	set, err := records.ToRecords(ws)
	if err != nil {
		return appErrors.NewValidation(err.Error())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("Create"); err != nil {
		return err
	}
	if _, exists := r.sets[ws.ID]; exists {
		return appErrors.NewConflict("workspace " + ws.ID + " already exists")
	}
	r.sets[ws.ID] = copySet(set)
	return nil
}

func (r *WorkspaceRepository) List(ctx context.Context, ownerID string) ([]workspace.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.fail("List"); err != nil {
		return nil, err
	}

	out := []workspace.Summary{}
	for _, set := range r.sets {
		if set.Workspace.UserID != ownerID {
			continue
		}
		out = append(out, records.ToWorkspace(set.Workspace).Summary())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *WorkspaceRepository) Get(ctx context.Context, ownerID, id string) (workspace.Workspace, error) {
	if err := ctx.Err(); err != nil {
		return workspace.Workspace{}, err
	}
	r.mu.RLock()
	if err := r.fail("Get"); err != nil {
		r.mu.RUnlock()
		return workspace.Workspace{}, err
	}
	set, ok := r.sets[id]
	r.mu.RUnlock()

	if !ok || set.Workspace.UserID != ownerID {
		return workspace.Workspace{}, appErrors.NewNotFound("workspace " + id + " not found")
	}
	set = copySet(set)
	ws, err := records.FromRecords(set.Workspace, set.Nodes, set.Edges)
	if err != nil {
		return workspace.Workspace{}, appErrors.NewInternal("decode workspace", err)
	}
	return ws, nil
}

func (r *WorkspaceRepository) Save(ctx context.Context, ownerID string, ws workspace.Workspace) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	set, err := records.ToRecords(ws)
	if err != nil {
		return appErrors.NewValidation(err.Error())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("Save"); err != nil {
		return err
	}
	existing, ok := r.sets[ws.ID]
	if !ok || existing.Workspace.UserID != ownerID {
		return appErrors.NewNotFound("workspace " + ws.ID + " not found")
	}

	// Only the viewport, layout and timestamp of the header change on save.
	header := existing.Workspace
	header.ViewportX = set.Workspace.ViewportX
	header.ViewportY = set.Workspace.ViewportY
	header.ViewportZoom = set.Workspace.ViewportZoom
	header.LayoutDirection = set.Workspace.LayoutDirection
	header.UpdatedAt = r.now().UTC()
	if !ws.UpdatedAt.IsZero() {
		header.UpdatedAt = ws.UpdatedAt
	}

	r.sets[ws.ID] = copySet(records.Set{Workspace: header, Nodes: set.Nodes, Edges: set.Edges})
	return nil
}

func (r *WorkspaceRepository) Delete(ctx context.Context, ownerID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("Delete"); err != nil {
		return err
	}
	set, ok := r.sets[id]
	if !ok || set.Workspace.UserID != ownerID {
		return appErrors.NewNotFound("workspace " + id + " not found")
	}
	delete(r.sets, id)
	return nil
}

// copySet detaches stored rows from callers.
func copySet(s records.Set) records.Set {
	out := records.Set{
		Workspace: s.Workspace,
		Nodes:     make([]records.NodeRecord, len(s.Nodes)),
		Edges:     make([]records.EdgeRecord, len(s.Edges)),
	}
	copy(out.Nodes, s.Nodes)
	copy(out.Edges, s.Edges)
	for i := range out.Nodes {
		out.Nodes[i].Data = append(json.RawMessage(nil), out.Nodes[i].Data...)
	}
	for i := range out.Edges {
		if out.Edges[i].Stroke != nil {
			out.Edges[i].Stroke = append(json.RawMessage(nil), out.Edges[i].Stroke...)
		}
	}
	return out
}
