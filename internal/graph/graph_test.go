package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/molmatch/pkg/errors"
)

func ring(t *testing.T, n int) *Graph {
	t.Helper()
	g := New()
	for i := 0; i < n; i++ {
		g.AddVertex()
	}
	for i := 0; i < n; i++ {
		_, err := g.AddEdge(i, (i+1)%n)
		require.NoError(t, err)
	}
	return g
}

func TestAddEdge_Errors(t *testing.T) {
	g := New()
	a, b := g.AddVertex(), g.AddVertex()
	_, err := g.AddEdge(a, b)
	require.NoError(t, err)

	tests := []struct {
		name     string
		beg, end int
		code     errors.ErrorCode
	}{
		{"duplicate", b, a, errors.ErrCodeEdgeExists},
		{"loop", a, a, errors.ErrCodeSelfLoop},
		{"missing vertex", a, 7, errors.ErrCodeVertexNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.AddEdge(tt.beg, tt.end)
			assert.True(t, errors.IsCode(err, tt.code))
		})
	}
}

func TestRemoveVertex_LeavesStableIndices(t *testing.T) {
	g := ring(t, 4)
	require.NoError(t, g.RemoveVertex(1))

	assert.False(t, g.HasVertex(1))
	assert.True(t, g.HasVertex(3))
	assert.Equal(t, 4, g.VertexEnd())
	assert.Equal(t, 3, g.VertexCount())
	assert.Equal(t, 2, g.EdgeCount())
	assert.Equal(t, -1, g.FindEdge(0, 1))
	assert.Equal(t, 3, g.FindEdge(3, 0))
}

func TestTailAddRemove_RestoresExactly(t *testing.T) {
	g := ring(t, 5)
	before := g.Clone()

	h1 := g.AddVertex()
	e1, err := g.AddEdge(0, h1)
	require.NoError(t, err)
	h2 := g.AddVertex()
	_, err = g.AddEdge(2, h2)
	require.NoError(t, err)

	require.NoError(t, g.RemoveVertex(h2))
	require.NoError(t, g.RemoveVertex(h1))

	assert.True(t, g.Equal(before))
	assert.Equal(t, before.EdgeEnd(), g.EdgeEnd())
	assert.False(t, g.HasEdge(e1))
}

func TestRemoveEdge_KeepsNeighbourOrder(t *testing.T) {
	g := New()
	for i := 0; i < 4; i++ {
		g.AddVertex()
	}
	for i := 1; i < 4; i++ {
		_, err := g.AddEdge(0, i)
		require.NoError(t, err)
	}
	require.NoError(t, g.RemoveEdge(1))
	assert.Equal(t, []Neighbor{{V: 1, E: 0}, {V: 3, E: 2}}, g.Neighbors(0))
	assert.Error(t, g.RemoveEdge(1))
}

func TestComponents(t *testing.T) {
	g := ring(t, 3)
	a := g.AddVertex()
	b := g.AddVertex()
	_, err := g.AddEdge(a, b)
	require.NoError(t, err)
	g.AddVertex()

	label, n := Components(g)
	assert.Equal(t, 3, n)
	assert.Equal(t, label[0], label[2])
	assert.Equal(t, label[a], label[b])
	assert.NotEqual(t, label[0], label[a])
	assert.Len(t, ComponentVertices(g), 3)
}

func TestShortestPath(t *testing.T) {
	g := ring(t, 6)
	assert.Len(t, ShortestPath(g, 0, 3, -1), 3)
	assert.Len(t, ShortestPath(g, 0, 1, 0), 5)
	assert.Empty(t, ShortestPath(g, 2, 2, -1))
}

func TestPerceiveRings_FusedSystem(t *testing.T) {
	// naphthalene skeleton: two six-rings sharing edge 0-5
	g := ring(t, 6)
	prev := 5
	for i := 0; i < 4; i++ {
		v := g.AddVertex()
		_, err := g.AddEdge(prev, v)
		require.NoError(t, err)
		prev = v
	}
	_, err := g.AddEdge(prev, 0)
	require.NoError(t, err)

	info := PerceiveRings(g)
	require.Len(t, info.Rings, 2)
	assert.Equal(t, 6, info.Rings[0].Size())
	assert.Equal(t, 6, info.Rings[1].Size())

	shared := g.FindEdge(0, 5)
	assert.Len(t, info.RingsOfEdge(shared), 2)
	assert.Equal(t, 2, info.RingCount(0))
	assert.Equal(t, 3, info.RingBondCount(g, 0))
	assert.Equal(t, 6, info.SmallestRingOfVertex(g, 0))
}

func TestPerceiveRings_ChainEdges(t *testing.T) {
	g := ring(t, 3)
	tail := g.AddVertex()
	e, err := g.AddEdge(0, tail)
	require.NoError(t, err)

	info := PerceiveRings(g)
	assert.False(t, info.IsRingEdge(e))
	assert.Equal(t, 0, info.SmallestRingOfEdge(e))
	assert.Equal(t, 3, info.SmallestRingOfEdge(g.FindEdge(0, 1)))
	assert.Equal(t, 0, info.SmallestRingOfVertex(g, tail))
}

//Personal.AI order the ending
