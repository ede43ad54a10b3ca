package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"jirai-backend/internal/domain/workspace"
	"jirai-backend/internal/infrastructure/persistence/records"
	"jirai-backend/internal/repository"
	appErrors "jirai-backend/pkg/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/sync/errgroup"
)

const uniqueViolation = "23505"

// WorkspaceRepository implements repository.WorkspaceRepository on the
// workspaces, nodes and edges tables. Every statement is filtered by owner.
type WorkspaceRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ repository.WorkspaceRepository = (*WorkspaceRepository)(nil)

// NewWorkspaceRepository wraps an open database.
func NewWorkspaceRepository(db *sql.DB) *WorkspaceRepository {
	return &WorkspaceRepository{db: db, now: time.Now}
}

func (r *WorkspaceRepository) Create(ctx context.Context, ws workspace.Workspace) error {
	set, err := records.ToRecords(ws)
	if err != nil {
		return appErrors.NewValidation(err.Error())
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		w := set.Workspace
		_, err := tx.ExecContext(ctx, `
			INSERT INTO workspaces (id, name, description, type, layout_direction,
				viewport_x, viewport_y, viewport_zoom, user_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, w.ID, w.Name, w.Description, w.Type, w.LayoutDirection,
			w.ViewportX, w.ViewportY, w.ViewportZoom, w.UserID, w.CreatedAt, w.UpdatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return appErrors.NewConflict("workspace " + ws.ID + " already exists")
			}
			return fmt.Errorf("insert workspace: %w", err)
		}
		return insertRows(ctx, tx, set)
	})
}

func (r *WorkspaceRepository) List(ctx context.Context, ownerID string) ([]workspace.Summary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, type, layout_direction, viewport_x, viewport_y,
			viewport_zoom, user_id, created_at, updated_at
		FROM workspaces
		WHERE user_id = $1
		ORDER BY updated_at DESC, id
	`, ownerID)
	if err != nil {
		return nil, appErrors.NewExternal("list workspaces", err)
	}
	defer rows.Close()

	out := []workspace.Summary{}
	for rows.Next() {
		w, err := scanWorkspace(rows)
		if err != nil {
			return nil, appErrors.NewExternal("scan workspace", err)
		}
		out = append(out, records.ToWorkspace(w).Summary())
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.NewExternal("list workspaces", err)
	}
	return out, nil
}

func (r *WorkspaceRepository) Get(ctx context.Context, ownerID, id string) (workspace.Workspace, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, type, layout_direction, viewport_x, viewport_y,
			viewport_zoom, user_id, created_at, updated_at
		FROM workspaces
		WHERE id = $1 AND user_id = $2
	`, id, ownerID)
	w, err := scanWorkspace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return workspace.Workspace{}, appErrors.NewNotFound("workspace " + id + " not found")
	}
	if err != nil {
		return workspace.Workspace{}, appErrors.NewExternal("load workspace", err)
	}

	var (
		nodes []records.NodeRecord
		edges []records.EdgeRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		nodes, err = r.loadNodes(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		edges, err = r.loadEdges(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return workspace.Workspace{}, appErrors.NewExternal("load workspace contents", err)
	}

	ws, err := records.FromRecords(w, nodes, edges)
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
	updated := ws.UpdatedAt
	if updated.IsZero() {
		updated = r.now().UTC()
	}

	return r.inTx(ctx, func(tx *sql.Tx) error {
		w := set.Workspace
		res, err := tx.ExecContext(ctx, `
			UPDATE workspaces
			SET viewport_x = $1, viewport_y = $2, viewport_zoom = $3,
				layout_direction = $4, updated_at = $5
			WHERE id = $6 AND user_id = $7
		`, w.ViewportX, w.ViewportY, w.ViewportZoom, w.LayoutDirection, updated, ws.ID, ownerID)
		if err != nil {
			return fmt.Errorf("update workspace: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return appErrors.NewNotFound("workspace " + ws.ID + " not found")
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM edges WHERE workspace_id = $1`, ws.ID); err != nil {
			return fmt.Errorf("clear edges: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE workspace_id = $1`, ws.ID); err != nil {
			return fmt.Errorf("clear nodes: %w", err)
		}
		return insertRows(ctx, tx, set)
	})
}

func (r *WorkspaceRepository) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM workspaces WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return appErrors.NewExternal("delete workspace", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.NewNotFound("workspace " + id + " not found")
	}
	return nil
}

// Ping checks the connection.
func (r *WorkspaceRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *WorkspaceRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return appErrors.NewExternal("begin transaction", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		var appErr *appErrors.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return appErrors.NewExternal("write workspace", err)
	}
	if err := tx.Commit(); err != nil {
		return appErrors.NewExternal("commit workspace", err)
	}
	return nil
}

func insertRows(ctx context.Context, tx *sql.Tx, set records.Set) error {
	for i, n := range set.Nodes {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO nodes (workspace_id, id, seq, type, label, position_x, position_y, width, height,
				color, icon, collapsed, data, parent_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13::jsonb, $14, $15, $16)
		`, n.WorkspaceID, n.ID, i, n.Type, n.Label, n.PositionX, n.PositionY, n.Width, n.Height,
			n.Color, n.Icon, n.Collapsed, string(n.Data), n.ParentID, n.CreatedAt, n.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert node %s: %w", n.ID, err)
		}
	}
	for i, e := range set.Edges {
		var stroke *string
		if len(e.Stroke) > 0 {
			s := string(e.Stroke)
			stroke = &s
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO edges (workspace_id, id, seq, style, stroke, color, label, animated,
				source_id, target_id, source_handle, target_handle)
			VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9, $10, $11, $12)
		`, e.WorkspaceID, e.ID, i, e.Style, stroke, e.Color, e.Label, e.Animated,
			e.SourceID, e.TargetID, e.SourceHandle, e.TargetHandle)
		if err != nil {
			return fmt.Errorf("insert edge %s: %w", e.ID, err)
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWorkspace(s scanner) (records.WorkspaceRecord, error) {
	var w records.WorkspaceRecord
	err := s.Scan(&w.ID, &w.Name, &w.Description, &w.Type, &w.LayoutDirection,
		&w.ViewportX, &w.ViewportY, &w.ViewportZoom, &w.UserID, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}

func (r *WorkspaceRepository) loadNodes(ctx context.Context, workspaceID string) ([]records.NodeRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, label, position_x, position_y, width, height, color, icon,
			collapsed, data, workspace_id, parent_id, created_at, updated_at
		FROM nodes
		WHERE workspace_id = $1
		ORDER BY seq
	`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	var out []records.NodeRecord
	for rows.Next() {
		var (
			n    records.NodeRecord
			data []byte
		)
		if err := rows.Scan(&n.ID, &n.Type, &n.Label, &n.PositionX, &n.PositionY, &n.Width, &n.Height,
			&n.Color, &n.Icon, &n.Collapsed, &data, &n.WorkspaceID, &n.ParentID, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		n.Data = data
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *WorkspaceRepository) loadEdges(ctx context.Context, workspaceID string) ([]records.EdgeRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, style, stroke, color, label, animated, source_id, target_id,
			source_handle, target_handle, workspace_id
		FROM edges
		WHERE workspace_id = $1
		ORDER BY seq
	`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()

	var out []records.EdgeRecord
	for rows.Next() {
		var (
			e      records.EdgeRecord
			stroke []byte
		)
		if err := rows.Scan(&e.ID, &e.Style, &stroke, &e.Color, &e.Label, &e.Animated,
			&e.SourceID, &e.TargetID, &e.SourceHandle, &e.TargetHandle, &e.WorkspaceID); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		e.Stroke = stroke
		out = append(out, e)
	}
	return out, rows.Err()
}
