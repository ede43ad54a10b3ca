package graph

import (
	"testing"
	"time"

	"jirai-backend/internal/domain/edge"
	"jirai-backend/internal/domain/node"
	"jirai-backend/internal/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func textNode(id string, x, y float64) node.Node {
	return node.Node{
		ID:       id,
		Position: shared.Position{X: x, Y: y},
		Data: node.Data{
			Label:     id,
			Color:     "violet",
			CreatedAt: testNow,
			UpdatedAt: testNow,
			Payload:   node.TextData{Content: id},
		},
	}
}

func ids(nodes []node.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func boolPtr(b bool) *bool { return &b }

func TestApplyNodeChanges(t *testing.T) {
	base := []node.Node{textNode("a", 0, 0), textNode("b", 10, 10), textNode("c", 20, 20)}

	t.Run("position change moves only the target", func(t *testing.T) {
		out := ApplyNodeChanges([]NodeChange{
			{Type: ChangePosition, ID: "b", Position: &shared.Position{X: 99, Y: 98}, Dragging: boolPtr(true)},
		}, base)

		require.Len(t, out, 3)
		assert.Equal(t, shared.Position{X: 99, Y: 98}, out[1].Position)
		assert.True(t, out[1].Dragging)
		assert.Equal(t, base[0], out[0])
		assert.Equal(t, base[2], out[2])
	})

	t.Run("input is not mutated", func(t *testing.T) {
		_ = ApplyNodeChanges([]NodeChange{
			{Type: ChangePosition, ID: "a", Position: &shared.Position{X: 5, Y: 5}},
			{Type: ChangeRemove, ID: "b"},
		}, base)
		assert.Equal(t, []string{"a", "b", "c"}, ids(base))
		assert.Equal(t, shared.Position{}, base[0].Position)
	})

	t.Run("remove preserves order and is idempotent", func(t *testing.T) {
		remove := []NodeChange{{Type: ChangeRemove, ID: "b"}}
		once := ApplyNodeChanges(remove, base)
		twice := ApplyNodeChanges(remove, once)

		assert.Equal(t, []string{"a", "c"}, ids(once))
		assert.Equal(t, once, twice)
	})

	t.Run("unknown ids are no-ops", func(t *testing.T) {
		out := ApplyNodeChanges([]NodeChange{
			{Type: ChangePosition, ID: "ghost", Position: &shared.Position{X: 1, Y: 1}},
			{Type: ChangeSelect, ID: "ghost", Selected: true},
			{Type: ChangeRemove, ID: "ghost"},
			{Type: ChangeDimensions, ID: "ghost", Dimensions: &shared.Dimensions{Width: 1, Height: 1}},
		}, base)
		assert.Equal(t, base, out)
	})

	t.Run("dimensions and selection", func(t *testing.T) {
		out := ApplyNodeChanges([]NodeChange{
			{Type: ChangeDimensions, ID: "a", Dimensions: &shared.Dimensions{Width: 120, Height: 40}},
			{Type: ChangeSelect, ID: "c", Selected: true},
		}, base)
		assert.Equal(t, 120.0, out[0].Width)
		assert.Equal(t, 40.0, out[0].Height)
		assert.True(t, out[2].Selected)
	})

	t.Run("add appends and refuses duplicates", func(t *testing.T) {
		d := textNode("d", 0, 0)
		dup := textNode("a", 50, 50)
		out := ApplyNodeChanges([]NodeChange{
			{Type: ChangeAdd, Item: &d},
			{Type: ChangeAdd, Item: &dup},
		}, base)
		assert.Equal(t, []string{"a", "b", "c", "d"}, ids(out))
		assert.Equal(t, shared.Position{}, out[0].Position)
	})

	t.Run("replace swaps in place", func(t *testing.T) {
		replacement := textNode("b", 7, 7)
		replacement.Data.Label = "renamed"
		out := ApplyNodeChanges([]NodeChange{{Type: ChangeReplace, ID: "b", Item: &replacement}}, base)
		assert.Equal(t, []string{"a", "b", "c"}, ids(out))
		assert.Equal(t, "renamed", out[1].Data.Label)
	})

	t.Run("ids not mentioned are preserved unchanged", func(t *testing.T) {
		batch := []NodeChange{
			{Type: ChangePosition, ID: "a", Position: &shared.Position{X: 1, Y: 2}},
			{Type: ChangeRemove, ID: "c"},
		}
		out := ApplyNodeChanges(batch, base)
		i := node.Index(out, "b")
		require.GreaterOrEqual(t, i, 0)
		assert.Equal(t, base[1], out[i])
	})
}

func TestApplyEdgeChanges(t *testing.T) {
	base := []edge.Edge{
		{ID: "e1", Source: "a", Target: "b"},
		{ID: "e2", Source: "b", Target: "c"},
	}

	out := ApplyEdgeChanges([]EdgeChange{
		{Type: ChangeSelect, ID: "e2", Selected: true},
		{Type: ChangeRemove, ID: "e1"},
		{Type: ChangeRemove, ID: "e1"},
		{Type: ChangeAdd, Item: &edge.Edge{ID: "e3", Source: "a", Target: "c"}},
		{Type: ChangeAdd, Item: &edge.Edge{ID: "e2", Source: "x", Target: "y"}},
		{Type: ChangeSelect, ID: "ghost", Selected: true},
	}, base)

	require.Len(t, out, 2)
	assert.Equal(t, "e2", out[0].ID)
	assert.True(t, out[0].Selected)
	assert.Equal(t, "b", out[0].Source)
	assert.Equal(t, "e3", out[1].ID)
	assert.Len(t, base, 2)
	assert.False(t, base[1].Selected)
}
