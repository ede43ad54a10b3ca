// Package records maps workspaces onto the relational rows shared by every
// backend: workspaces, nodes and edges.
package records

import (
	"encoding/json"
	"fmt"
	"time"

	"jirai-backend/internal/domain/edge"
	"jirai-backend/internal/domain/node"
	"jirai-backend/internal/domain/shared"
	"jirai-backend/internal/domain/workspace"
)

// WorkspaceRecord is a row of the workspaces table.
type WorkspaceRecord struct {
	ID              string    `json:"id" db:"id" dynamodbav:"ID"`
	Name            string    `json:"name" db:"name" dynamodbav:"Name"`
	Description     *string   `json:"description" db:"description" dynamodbav:"Description,omitempty"`
	Type            string    `json:"type" db:"type" dynamodbav:"Type"`
	LayoutDirection string    `json:"layout_direction" db:"layout_direction" dynamodbav:"LayoutDirection"`
	ViewportX       float64   `json:"viewport_x" db:"viewport_x" dynamodbav:"ViewportX"`
	ViewportY       float64   `json:"viewport_y" db:"viewport_y" dynamodbav:"ViewportY"`
	ViewportZoom    float64   `json:"viewport_zoom" db:"viewport_zoom" dynamodbav:"ViewportZoom"`
	UserID          string    `json:"user_id" db:"user_id" dynamodbav:"UserID"`
	CreatedAt       time.Time `json:"created_at" db:"created_at" dynamodbav:"CreatedAt"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at" dynamodbav:"UpdatedAt"`
}

// NodeRecord is a row of the nodes table. Label and Color duplicate the
// data column for listing; Data is authoritative.
type NodeRecord struct {
	ID          string          `json:"id" db:"id" dynamodbav:"ID"`
	Type        string          `json:"type" db:"type" dynamodbav:"Type"`
	Label       string          `json:"label" db:"label" dynamodbav:"Label"`
	PositionX   float64         `json:"position_x" db:"position_x" dynamodbav:"PositionX"`
	PositionY   float64         `json:"position_y" db:"position_y" dynamodbav:"PositionY"`
	Width       *float64        `json:"width" db:"width" dynamodbav:"Width,omitempty"`
	Height      *float64        `json:"height" db:"height" dynamodbav:"Height,omitempty"`
	Color       *string         `json:"color" db:"color" dynamodbav:"Color,omitempty"`
	Icon        *string         `json:"icon" db:"icon" dynamodbav:"Icon,omitempty"`
	Collapsed   bool            `json:"collapsed" db:"collapsed" dynamodbav:"Collapsed"`
	Data        json.RawMessage `json:"data" db:"data" dynamodbav:"-"`
	WorkspaceID string          `json:"workspace_id" db:"workspace_id" dynamodbav:"WorkspaceID"`
	ParentID    *string         `json:"parent_id" db:"parent_id" dynamodbav:"ParentID,omitempty"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at" dynamodbav:"CreatedAt"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at" dynamodbav:"UpdatedAt"`
}

// EdgeRecord is a row of the edges table. Style holds the line type
// ("smoothstep"); Stroke holds the stroke style as JSON.
type EdgeRecord struct {
	ID           string          `json:"id" db:"id" dynamodbav:"ID"`
	Style        string          `json:"style" db:"style" dynamodbav:"Style"`
	Stroke       json.RawMessage `json:"stroke,omitempty" db:"stroke" dynamodbav:"-"`
	Color        *string         `json:"color" db:"color" dynamodbav:"Color,omitempty"`
	Label        *string         `json:"label" db:"label" dynamodbav:"Label,omitempty"`
	Animated     bool            `json:"animated" db:"animated" dynamodbav:"Animated"`
	SourceID     string          `json:"source_id" db:"source_id" dynamodbav:"SourceID"`
	TargetID     string          `json:"target_id" db:"target_id" dynamodbav:"TargetID"`
	SourceHandle *string         `json:"source_handle" db:"source_handle" dynamodbav:"SourceHandle,omitempty"`
	TargetHandle *string         `json:"target_handle" db:"target_handle" dynamodbav:"TargetHandle,omitempty"`
	WorkspaceID  string          `json:"workspace_id" db:"workspace_id" dynamodbav:"WorkspaceID"`
}

// Set is the full row set of one workspace.
type Set struct {
	Workspace WorkspaceRecord
	Nodes     []NodeRecord
	Edges     []EdgeRecord
}

// FromWorkspace flattens the workspace header.
func FromWorkspace(ws workspace.Workspace) WorkspaceRecord {
	return WorkspaceRecord{
		ID:              ws.ID,
		Name:            ws.Name,
		Description:     optional(ws.Description),
		Type:            string(ws.Type),
		LayoutDirection: string(ws.LayoutDirection),
		ViewportX:       ws.Viewport.X,
		ViewportY:       ws.Viewport.Y,
		ViewportZoom:    ws.Viewport.Zoom,
		UserID:          ws.OwnerID,
		CreatedAt:       ws.CreatedAt,
		UpdatedAt:       ws.UpdatedAt,
	}
}

// FromNode flattens a node. The whole data object goes into the data column.
func FromNode(workspaceID string, n node.Node) (NodeRecord, error) {
	data, err := n.DataJSON()
	if err != nil {
		return NodeRecord{}, fmt.Errorf("encode node %s: %w", n.ID, err)
	}
	return NodeRecord{
		ID:          n.ID,
		Type:        string(n.Type()),
		Label:       n.Data.Label,
		PositionX:   n.Position.X,
		PositionY:   n.Position.Y,
		Width:       optionalFloat(n.Width),
		Height:      optionalFloat(n.Height),
		Color:       optional(n.Data.Color),
		Icon:        optional(n.Data.Icon),
		Collapsed:   n.Data.Collapsed,
		Data:        data,
		WorkspaceID: workspaceID,
		ParentID:    optional(n.ParentID),
		CreatedAt:   n.Data.CreatedAt,
		UpdatedAt:   n.Data.UpdatedAt,
	}, nil
}

// FromEdge flattens an edge.
func FromEdge(workspaceID string, e edge.Edge) (EdgeRecord, error) {
	rec := EdgeRecord{
		ID:           e.ID,
		Style:        e.Type,
		Color:        optional(e.Color),
		Label:        optional(e.Label),
		Animated:     e.Animated,
		SourceID:     e.Source,
		TargetID:     e.Target,
		SourceHandle: optional(e.SourceHandle),
		TargetHandle: optional(e.TargetHandle),
		WorkspaceID:  workspaceID,
	}
	if rec.Style == "" {
		rec.Style = edge.DefaultType
	}
	if e.Style != nil {
		raw, err := json.Marshal(e.Style)
		if err != nil {
			return EdgeRecord{}, fmt.Errorf("encode edge %s style: %w", e.ID, err)
		}
		rec.Stroke = raw
	}
	return rec, nil
}

// ToRecords flattens a workspace into its rows.
func ToRecords(ws workspace.Workspace) (Set, error) {
	set := Set{
		Workspace: FromWorkspace(ws),
		Nodes:     make([]NodeRecord, 0, len(ws.Nodes)),
		Edges:     make([]EdgeRecord, 0, len(ws.Edges)),
	}
	for _, n := range ws.Nodes {
		rec, err := FromNode(ws.ID, n)
		if err != nil {
			return Set{}, err
		}
		set.Nodes = append(set.Nodes, rec)
	}
	for _, e := range ws.Edges {
		rec, err := FromEdge(ws.ID, e)
		if err != nil {
			return Set{}, err
		}
		set.Edges = append(set.Edges, rec)
	}
	return set, nil
}

// ToWorkspace rebuilds the header only.
func ToWorkspace(w WorkspaceRecord) workspace.Workspace {
	ws := workspace.Workspace{
		ID:              w.ID,
		Name:            w.Name,
		Description:     deref(w.Description),
		Type:            shared.DashboardType(w.Type),
		OwnerID:         w.UserID,
		Nodes:           []node.Node{},
		Edges:           []edge.Edge{},
		Viewport:        shared.Viewport{X: w.ViewportX, Y: w.ViewportY, Zoom: w.ViewportZoom},
		LayoutDirection: shared.LayoutDirection(w.LayoutDirection),
		CreatedAt:       w.CreatedAt,
		UpdatedAt:       w.UpdatedAt,
	}
	if ws.Type == "" {
		ws.Type = shared.DashboardAnalysis
	}
	if ws.LayoutDirection == "" {
		ws.LayoutDirection = shared.LayoutHorizontal
	}
	if ws.Viewport.Zoom == 0 {
		ws.Viewport.Zoom = 1
	}
	return ws
}

// ToNode rebuilds a node. Fields present in the data column win over the
// flattened columns, which only fill gaps.
func ToNode(r NodeRecord) (node.Node, error) {
	fields := map[string]json.RawMessage{}
	if len(r.Data) > 0 && string(r.Data) != "null" {
		if err := json.Unmarshal(r.Data, &fields); err != nil {
			return node.Node{}, fmt.Errorf("node %s: decode data column: %w", r.ID, err)
		}
	}
	fill := func(key string, value any, present bool) {
		if _, ok := fields[key]; ok || !present {
			return
		}
		raw, _ := json.Marshal(value)
		fields[key] = raw
	}
	fill("label", r.Label, true)
	fill("color", deref(r.Color), r.Color != nil)
	fill("icon", deref(r.Icon), r.Icon != nil)
	fill("collapsed", r.Collapsed, r.Collapsed)
	fill("createdAt", r.CreatedAt, !r.CreatedAt.IsZero())
	fill("updatedAt", r.UpdatedAt, !r.UpdatedAt.IsZero())

	raw, err := json.Marshal(fields)
	if err != nil {
		return node.Node{}, err
	}
	data, err := node.DecodeData(raw, node.Type(r.Type))
	if err != nil {
		return node.Node{}, fmt.Errorf("node %s: %w", r.ID, err)
	}
	return node.New(r.ID, shared.Position{X: r.PositionX, Y: r.PositionY}, data)
}

// ToEdge rebuilds an edge.
func ToEdge(r EdgeRecord) (edge.Edge, error) {
	e := edge.Edge{
		ID:           r.ID,
		Source:       r.SourceID,
		Target:       r.TargetID,
		SourceHandle: deref(r.SourceHandle),
		TargetHandle: deref(r.TargetHandle),
		Type:         r.Style,
		Animated:     r.Animated,
		Label:        deref(r.Label),
		Color:        deref(r.Color),
	}
	if len(r.Stroke) > 0 && string(r.Stroke) != "null" {
		var s edge.Style
		if err := json.Unmarshal(r.Stroke, &s); err != nil {
			return edge.Edge{}, fmt.Errorf("edge %s: decode stroke: %w", r.ID, err)
		}
		e.Style = &s
	}
	return e, nil
}

// FromRecords rebuilds a workspace from its rows. Nodes keep their geometry
// from the row; edges whose endpoints are missing are dropped.
func FromRecords(w WorkspaceRecord, nodes []NodeRecord, edges []EdgeRecord) (workspace.Workspace, error) {
	ws := ToWorkspace(w)
	present := make(map[string]struct{}, len(nodes))
	for _, r := range nodes {
		n, err := ToNode(r)
		if err != nil {
			return workspace.Workspace{}, err
		}
		if r.Width != nil {
			n.Width = *r.Width
		}
		if r.Height != nil {
			n.Height = *r.Height
		}
		n.ParentID = deref(r.ParentID)
		ws.Nodes = append(ws.Nodes, n)
		present[n.ID] = struct{}{}
	}
	for _, r := range edges {
		e, err := ToEdge(r)
		if err != nil {
			return workspace.Workspace{}, err
		}
		_, src := present[e.Source]
		_, dst := present[e.Target]
		if !src || !dst {
			continue
		}
		ws.Edges = append(ws.Edges, e)
	}
	return ws, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalFloat(f float64) *float64 {
	if f == 0 {
		return nil
	}
	return &f
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
