package graph

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"jirai-backend/internal/domain/edge"
	"jirai-backend/internal/domain/node"
	"jirai-backend/internal/domain/shared"
	"jirai-backend/internal/domain/workspace"
)

// Screen-space rectangle in which nodes without a position are dropped.
const (
	placementMinX   = 200.0
	placementWidth  = 400.0
	placementMinY   = 100.0
	placementHeight = 300.0
)

// State is everything the graph store owns. It is also the persisted form of
// the workspace slice.
type State struct {
	CurrentWorkspaceID string          `json:"currentWorkspaceId,omitempty"`
	Nodes              []node.Node     `json:"nodes"`
	Edges              []edge.Edge     `json:"edges"`
	Viewport           shared.Viewport `json:"viewport"`
	SelectedNodes      []string        `json:"selectedNodes"`
	SelectedEdges      []string        `json:"selectedEdges"`
}

// Clone deep-copies the state, down to node payloads and edge styles.
func (s State) Clone() State {
	return State{
		CurrentWorkspaceID: s.CurrentWorkspaceID,
		Nodes:              node.Clone(s.Nodes),
		Edges:              edge.Clone(s.Edges),
		Viewport:           s.Viewport,
		SelectedNodes:      cloneIDs(s.SelectedNodes),
		SelectedEdges:      cloneIDs(s.SelectedEdges),
	}
}

// EmptyState is a blank canvas.
func EmptyState() State {
	return State{
		Nodes:         []node.Node{},
		Edges:         []edge.Edge{},
		Viewport:      shared.DefaultViewport(),
		SelectedNodes: []string{},
		SelectedEdges: []string{},
	}
}

// SampleState is the starter canvas.
func SampleState(now time.Time) State {
	s := EmptyState()
	s.Nodes, s.Edges = workspace.Sample(now)
	return s
}

// Store is the single source of truth for one canvas. All methods are safe
// for concurrent use; listeners run after the lock is released.
type Store struct {
	mu        sync.RWMutex
	state     State
	random    func() float64
	now       func() time.Time
	listeners map[int]func(State)
	nextID    int
}

// Option configures a Store.
type Option func(*Store)

// WithRandom replaces the source used for automatic placement.
func WithRandom(f func() float64) Option {
	return func(s *Store) { s.random = f }
}

// WithClock replaces the clock used for timestamps.
func WithClock(f func() time.Time) Option {
	return func(s *Store) { s.now = f }
}

// NewStore creates a store holding initial.
func NewStore(initial State, opts ...Option) *Store {
	s := &Store{
		state:     normalize(initial.Clone()),
		random:    rand.Float64,
		now:       time.Now,
		listeners: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Subscribe registers fn to be called with the new state after every
// mutation. The returned function removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// mutate runs fn under the write lock and notifies listeners when fn reports
// a change.
func (s *Store) mutate(fn func(st *State) bool) bool {
	s.mu.Lock()
	changed := fn(&s.state)
	var (
		snapshot  State
		listeners []func(State)
	)
	if changed {
		snapshot = s.state.Clone()
		listeners = make([]func(State), 0, len(s.listeners))
		for _, l := range s.listeners {
			listeners = append(listeners, l)
		}
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
	return changed
}

// Replace swaps the whole state, e.g. when rehydrating a persisted copy.
func (s *Store) Replace(st State) {
	s.mutate(func(cur *State) bool {
		*cur = normalize(st.Clone())
		return true
	})
}

// LoadWorkspace replaces the canvas with a workspace's collections and
// viewport and remembers it as the current workspace.
func (s *Store) LoadWorkspace(ws workspace.Workspace) {
	s.mutate(func(st *State) bool {
		*st = normalize(State{
			CurrentWorkspaceID: ws.ID,
			Nodes:              node.Clone(ws.Nodes),
			Edges:              edge.Clone(ws.Edges),
			Viewport:           ws.Viewport,
		})
		return true
	})
}

// SetNodes replaces the node collection. Edges left without an endpoint are
// dropped along with stale selection entries.
func (s *Store) SetNodes(nodes []node.Node) error {
	if err := checkNodes(nodes); err != nil {
		return err
	}
	s.mutate(func(st *State) bool {
		st.Nodes = node.Clone(nodes)
		if st.Nodes == nil {
			st.Nodes = []node.Node{}
		}
		prune(st)
		return true
	})
	return nil
}

// SetEdges replaces the edge collection. Every edge must reference existing
// nodes and carry a unique id.
func (s *Store) SetEdges(edges []edge.Edge) error {
	var err error
	s.mutate(func(st *State) bool {
		if err = checkEdges(edges, st.Nodes); err != nil {
			return false
		}
		st.Edges = edge.Clone(edges)
		if st.Edges == nil {
			st.Edges = []edge.Edge{}
		}
		prune(st)
		return true
	})
	return err
}

// OnNodesChange applies a change batch from the rendering surface. Removing a
// node also removes its edges.
func (s *Store) OnNodesChange(changes []NodeChange) {
	if len(changes) == 0 {
		return
	}
	s.mutate(func(st *State) bool {
		st.Nodes = ApplyNodeChanges(changes, st.Nodes)
		for _, c := range changes {
			if c.Type == ChangeSelect && node.Index(st.Nodes, c.ID) >= 0 {
				st.SelectedNodes = toggle(st.SelectedNodes, c.ID, c.Selected)
			}
		}
		prune(st)
		return true
	})
}

// OnEdgesChange applies an edge change batch. Additions or replacements that
// would dangle are skipped.
func (s *Store) OnEdgesChange(changes []EdgeChange) {
	if len(changes) == 0 {
		return
	}
	s.mutate(func(st *State) bool {
		ids := nodeIDs(st.Nodes)
		usable := make([]EdgeChange, 0, len(changes))
		for _, c := range changes {
			if (c.Type == ChangeAdd || c.Type == ChangeReplace) && c.Item != nil {
				if _, ok := ids[c.Item.Source]; !ok {
					continue
				}
				if _, ok := ids[c.Item.Target]; !ok {
					continue
				}
			}
			usable = append(usable, c)
		}
		st.Edges = ApplyEdgeChanges(usable, st.Edges)
		for _, c := range usable {
			if c.Type == ChangeSelect && edge.Index(st.Edges, c.ID) >= 0 {
				st.SelectedEdges = toggle(st.SelectedEdges, c.ID, c.Selected)
			}
		}
		prune(st)
		return true
	})
}

// Connect adds an edge for a connection gesture. It reports false when an
// endpoint does not exist or the same (source, sourceHandle, target,
// targetHandle) is already connected. Parallel edges on other handles are
// allowed, as are self-loops.
func (s *Store) Connect(c edge.Connection) (edge.Edge, bool) {
	var created edge.Edge
	ok := s.mutate(func(st *State) bool {
		if node.Index(st.Nodes, c.Source) < 0 || node.Index(st.Nodes, c.Target) < 0 {
			return false
		}
		for _, e := range st.Edges {
			if e.SameEndpoints(c) {
				return false
			}
		}
		created = edge.FromConnection(c)
		st.Edges = append(st.Edges, created)
		return true
	})
	return created, ok
}

// AddNode appends n. An empty id is generated from the node type; an id that
// already exists makes the call a no-op. When position is nil the node is
// dropped at a random point inside a fixed screen rectangle, mapped through
// the current viewport.
func (s *Store) AddNode(n node.Node, position *shared.Position) (node.Node, bool) {
	if n.ID == "" && n.Data.Payload != nil {
		n.ID = node.NewID(n.Type())
	}
	if n.Validate() != nil {
		return node.Node{}, false
	}
	now := s.now()
	if n.Data.CreatedAt.IsZero() {
		n.Data.CreatedAt = now
	}
	if n.Data.UpdatedAt.IsZero() {
		n.Data.UpdatedAt = n.Data.CreatedAt
	}

	ok := s.mutate(func(st *State) bool {
		if node.Index(st.Nodes, n.ID) >= 0 {
			return false
		}
		if position != nil {
			n.Position = *position
		} else {
			screen := shared.Position{
				X: s.random()*placementWidth + placementMinX,
				Y: s.random()*placementHeight + placementMinY,
			}
			n.Position = st.Viewport.ToFlow(screen)
		}
		st.Nodes = append(st.Nodes, n)
		return true
	})
	if !ok {
		return node.Node{}, false
	}
	return n, true
}

// UpdateNode shallow-merges patch into the node's data. Position and id are
// never touched. Unknown ids and patches that do not fit the node's kind are
// no-ops.
func (s *Store) UpdateNode(id string, patch map[string]any) (node.Node, bool) {
	var updated node.Node
	ok := s.mutate(func(st *State) bool {
		i := node.Index(st.Nodes, id)
		if i < 0 {
			return false
		}
		merged, err := st.Nodes[i].Data.Merge(patch, s.now())
		if err != nil {
			return false
		}
		st.Nodes[i].Data = merged
		updated = st.Nodes[i]
		return true
	})
	return updated, ok
}

// DeleteNode removes a node and every edge that references it.
func (s *Store) DeleteNode(id string) bool {
	return s.mutate(func(st *State) bool {
		i := node.Index(st.Nodes, id)
		if i < 0 {
			return false
		}
		st.Nodes = append(st.Nodes[:i], st.Nodes[i+1:]...)
		prune(st)
		return true
	})
}

// SetViewport replaces the viewport.
func (s *Store) SetViewport(v shared.Viewport) {
	s.mutate(func(st *State) bool {
		st.Viewport = v
		return true
	})
}

// SetSelectedNodes replaces the node selection.
func (s *Store) SetSelectedNodes(ids []string) {
	s.mutate(func(st *State) bool {
		st.SelectedNodes = nonNil(cloneIDs(ids))
		return true
	})
}

// SetSelectedEdges replaces the edge selection.
func (s *Store) SetSelectedEdges(ids []string) {
	s.mutate(func(st *State) bool {
		st.SelectedEdges = nonNil(cloneIDs(ids))
		return true
	})
}

// ClearSelection empties both selections.
func (s *Store) ClearSelection() {
	s.mutate(func(st *State) bool {
		st.SelectedNodes = []string{}
		st.SelectedEdges = []string{}
		return true
	})
}

// prune removes edges whose endpoints are gone and selection entries for
// ids that no longer exist.
func prune(st *State) {
	ids := nodeIDs(st.Nodes)
	kept := st.Edges[:0:0]
	for _, e := range st.Edges {
		_, src := ids[e.Source]
		_, dst := ids[e.Target]
		if src && dst {
			kept = append(kept, e)
		}
	}
	st.Edges = kept

	edgeIDs := make(map[string]struct{}, len(st.Edges))
	for _, e := range st.Edges {
		edgeIDs[e.ID] = struct{}{}
	}
	st.SelectedNodes = filterIDs(st.SelectedNodes, ids)
	st.SelectedEdges = filterIDs(st.SelectedEdges, edgeIDs)
}

func normalize(st State) State {
	if st.Nodes == nil {
		st.Nodes = []node.Node{}
	}
	if st.Edges == nil {
		st.Edges = []edge.Edge{}
	}
	if st.Viewport.Zoom == 0 {
		st.Viewport.Zoom = 1
	}
	st.SelectedNodes = nonNil(st.SelectedNodes)
	st.SelectedEdges = nonNil(st.SelectedEdges)
	prune(&st)
	return st
}

func checkNodes(nodes []node.Node) error {
	seen := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if err := n.Validate(); err != nil {
			return err
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("duplicate node id %q", n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	return nil
}

func checkEdges(edges []edge.Edge, nodes []node.Node) error {
	ids := nodeIDs(nodes)
	seen := make(map[string]struct{}, len(edges))
	for _, e := range edges {
		if e.ID == "" {
			return fmt.Errorf("edge id is required")
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("duplicate edge id %q", e.ID)
		}
		seen[e.ID] = struct{}{}
		if _, ok := ids[e.Source]; !ok {
			return fmt.Errorf("edge %s references missing source %q", e.ID, e.Source)
		}
		if _, ok := ids[e.Target]; !ok {
			return fmt.Errorf("edge %s references missing target %q", e.ID, e.Target)
		}
	}
	return nil
}

func nodeIDs(nodes []node.Node) map[string]struct{} {
	ids := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = struct{}{}
	}
	return ids
}

func filterIDs(ids []string, keep map[string]struct{}) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := keep[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func toggle(ids []string, id string, on bool) []string {
	out := make([]string, 0, len(ids)+1)
	found := false
	for _, existing := range ids {
		if existing == id {
			found = true
			if !on {
				continue
			}
		}
		out = append(out, existing)
	}
	if on && !found {
		out = append(out, id)
	}
	return out
}

func cloneIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
