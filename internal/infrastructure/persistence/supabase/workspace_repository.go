// Package supabase stores workspaces through the Supabase PostgREST API.
//
// The client is created with the service role key, which bypasses row level
// security, so every request filters on user_id explicitly.
package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"jirai-backend/internal/domain/workspace"
	"jirai-backend/internal/infrastructure/persistence/records"
	"jirai-backend/internal/repository"
	appErrors "jirai-backend/pkg/errors"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
	"golang.org/x/sync/errgroup"
)

const (
	tableWorkspaces = "workspaces"
	tableNodes      = "nodes"
	tableEdges      = "edges"
)

// WorkspaceRepository implements repository.WorkspaceRepository over
// PostgREST. PostgREST has no multi-statement transactions; Save follows the
// update, delete, insert sequence and a failure part way leaves the previous
// header with partial rows.
type WorkspaceRepository struct {
	client *supabase.Client
	now    func() time.Time
}

var _ repository.WorkspaceRepository = (*WorkspaceRepository)(nil)

// NewClient builds a service-role client.
func NewClient(url, serviceKey string) (*supabase.Client, error) {
	client, err := supabase.NewClient(url, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return client, nil
}

// NewWorkspaceRepository wraps a client.
func NewWorkspaceRepository(client *supabase.Client) *WorkspaceRepository {
	return &WorkspaceRepository{client: client, now: time.Now}
}

func (r *WorkspaceRepository) Create(ctx context.Context, ws workspace.Workspace) error {
	set, err := records.ToRecords(ws)
	if err != nil {
		return appErrors.NewValidation(err.Error())
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, _, err := r.client.From(tableWorkspaces).
		Insert(set.Workspace, false, "", "minimal", "").
		Execute(); err != nil {
		return appErrors.NewExternal("create workspace", err)
	}
	return r.insertRows(ctx, set)
}

func (r *WorkspaceRepository) List(ctx context.Context, ownerID string) ([]workspace.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []records.WorkspaceRecord
	if _, err := r.client.From(tableWorkspaces).
		Select("*", "", false).
		Eq("user_id", ownerID).
		Order("updated_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&rows); err != nil {
		return nil, appErrors.NewExternal("list workspaces", err)
	}

	out := make([]workspace.Summary, 0, len(rows))
	for _, w := range rows {
		out = append(out, records.ToWorkspace(w).Summary())
	}
	return out, nil
}

func (r *WorkspaceRepository) Get(ctx context.Context, ownerID, id string) (workspace.Workspace, error) {
	if err := ctx.Err(); err != nil {
		return workspace.Workspace{}, err
	}
	var headers []records.WorkspaceRecord
	if _, err := r.client.From(tableWorkspaces).
		Select("*", "", false).
		Eq("id", id).
		Eq("user_id", ownerID).
		ExecuteTo(&headers); err != nil {
		return workspace.Workspace{}, appErrors.NewExternal("load workspace", err)
	}
	if len(headers) == 0 {
		return workspace.Workspace{}, appErrors.NewNotFound("workspace " + id + " not found")
	}

	var (
		nodes []records.NodeRecord
		edges []records.EdgeRecord
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := r.client.From(tableNodes).
			Select("*", "", false).
			Eq("workspace_id", id).
			Order("created_at", &postgrest.OrderOpts{Ascending: true}).
			ExecuteTo(&nodes)
		return err
	})
	g.Go(func() error {
		_, err := r.client.From(tableEdges).
			Select("*", "", false).
			Eq("workspace_id", id).
			ExecuteTo(&edges)
		return err
	})
	if err := g.Wait(); err != nil {
		return workspace.Workspace{}, appErrors.NewExternal("load workspace contents", err)
	}

	ws, err := records.FromRecords(headers[0], nodes, edges)
	if err != nil {
		return workspace.Workspace{}, appErrors.NewInternal("decode workspace", err)
	}
	return ws, nil
}

func (r *WorkspaceRepository) Save(ctx context.Context, ownerID string, ws workspace.Workspace) error {
	set, err := records.ToRecords(ws)
	if err != nil {
		return appErrors.NewValidation(err.Error())
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	updated := ws.UpdatedAt
	if updated.IsZero() {
		updated = r.now().UTC()
	}

	patch := map[string]any{
		"viewport_x":       set.Workspace.ViewportX,
		"viewport_y":       set.Workspace.ViewportY,
		"viewport_zoom":    set.Workspace.ViewportZoom,
		"layout_direction": set.Workspace.LayoutDirection,
		"updated_at":       updated,
	}
	raw, _, err := r.client.From(tableWorkspaces).
		Update(patch, "representation", "").
		Eq("id", ws.ID).
		Eq("user_id", ownerID).
		Execute()
	if err != nil {
		return appErrors.NewExternal("update workspace", err)
	}
	if empty(raw) {
		return appErrors.NewNotFound("workspace " + ws.ID + " not found")
	}

	for _, table := range []string{tableEdges, tableNodes} {
		if _, _, err := r.client.From(table).
			Delete("minimal", "").
			Eq("workspace_id", ws.ID).
			Execute(); err != nil {
			return appErrors.NewExternal("clear "+table, err)
		}
	}
	return r.insertRows(ctx, set)
}

func (r *WorkspaceRepository) Delete(ctx context.Context, ownerID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, _, err := r.client.From(tableWorkspaces).
		Delete("representation", "").
		Eq("id", id).
		Eq("user_id", ownerID).
		Execute()
	if err != nil {
		return appErrors.NewExternal("delete workspace", err)
	}
	if empty(raw) {
		return appErrors.NewNotFound("workspace " + id + " not found")
	}
	return nil
}

func (r *WorkspaceRepository) insertRows(ctx context.Context, set records.Set) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(set.Nodes) > 0 {
		if _, _, err := r.client.From(tableNodes).
			Insert(set.Nodes, false, "", "minimal", "").
			Execute(); err != nil {
			return appErrors.NewExternal("insert nodes", err)
		}
	}
	if len(set.Edges) > 0 {
		if _, _, err := r.client.From(tableEdges).
			Insert(set.Edges, false, "", "minimal", "").
			Execute(); err != nil {
			return appErrors.NewExternal("insert edges", err)
		}
	}
	return nil
}

// empty reports whether a representation response holds no rows.
func empty(raw []byte) bool {
	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return len(raw) == 0
	}
	return len(rows) == 0
}
