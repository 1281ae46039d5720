package aromaticity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molmatch/internal/graph/embedding"
	"github.com/turtacn/molmatch/internal/notation"
)

func identity(n int) []embedding.Slot {
	out := make([]embedding.Slot, n)
	for i := range out {
		out[i] = embedding.MappedTo(i)
	}
	return out
}

func TestIsNecessary(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"CCC", false},
		{"C-C=C", false},
		{"C1CCCCC1", false},
		{"cc", false},
		{"c1ccccc1", true},
		{"C1=CC=CC=C1", true},
		{"C1~C~C~C~C~C1", true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNecessary(notation.MustParseQuery(tt.query)))
		})
	}
}

func TestFixAndRelease(t *testing.T) {
	q := notation.MustParseQuery("C1=CC=CC=C1")
	m := New(q, notation.MustParseMolecule("c1ccccc1"))

	assert.True(t, m.IsAmbiguous(0))
	release, ok := m.Fix(0, true)
	require.True(t, ok)
	assert.Equal(t, Aromatic, m.State(0))

	_, ok = m.Fix(0, false)
	assert.False(t, ok, "committed edge cannot flip")
	again, ok := m.Fix(0, true)
	require.True(t, ok)
	again()
	assert.Equal(t, Aromatic, m.State(0), "re-fixing the same state is a no-op")

	_, ok = m.Fix(1, false)
	assert.False(t, ok, "the only ring through edge 0 must stay open")

	release()
	assert.Equal(t, Any, m.State(0))

	release, ok = m.Fix(1, false)
	require.True(t, ok)
	_, ok = m.Fix(0, true)
	assert.False(t, ok)
	release()
	m.FixQueryBond(2, true)
	m.UnfixNeighbourQueryBond(2)
	assert.Equal(t, Any, m.State(2))
}

func TestMatch(t *testing.T) {
	q := notation.MustParseQuery("c1ccccc1")

	kekule := notation.MustParseMolecule("C1=CC=CC=C1")
	m := New(q, kekule)
	assert.True(t, m.Match(identity(6), identity(6)), "nothing fixed")
	for _, e := range q.Edges() {
		require.True(t, m.TargetAromatic(e))
		_, ok := m.Fix(e, true)
		require.True(t, ok)
	}
	assert.True(t, m.Match(identity(6), identity(6)))

	diene := notation.MustParseMolecule("C1=CC=CCC1")
	m = New(q, diene)
	for _, e := range q.Edges() {
		m.FixQueryBond(e, true)
	}
	assert.False(t, m.Match(identity(6), identity(6)))

	phenol := notation.MustParseMolecule("C1=CC=CC=C1O")
	m = New(q, phenol)
	for _, e := range q.Edges() {
		m.FixQueryBond(e, true)
	}
	super := append(identity(6), embedding.Unmapped)
	assert.True(t, m.Match(identity(6), super), "unmapped substituents do not matter")

	naphthalene := notation.MustParseMolecule("C1=CC=C2C=CC=CC2=C1")
	m = New(q, naphthalene)
	sub := make([]embedding.Slot, 6)
	super = make([]embedding.Slot, naphthalene.VertexEnd())
	for i := range super {
		super[i] = embedding.Unmapped
	}
	for i, v := range []int{3, 4, 5, 6, 7, 8} {
		sub[i] = embedding.MappedTo(v)
		super[v] = embedding.MappedTo(i)
	}
	for _, e := range q.Edges() {
		m.FixQueryBond(e, true)
	}
	assert.True(t, m.Match(sub, super), "ring with exocyclic double bonds is aromatic in the fused system")
}

//Personal.AI order the ending
