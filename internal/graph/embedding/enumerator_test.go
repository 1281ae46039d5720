package embedding

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/molmatch/internal/graph"
)

func build(t *testing.T, n int, edges [][2]int) *graph.Graph {
	t.Helper()
	g := graph.New()
	for i := 0; i < n; i++ {
		g.AddVertex()
	}
	for _, e := range edges {
		_, err := g.AddEdge(e[0], e[1])
		require.NoError(t, err)
	}
	return g
}

func cycle(t *testing.T, n int) *graph.Graph {
	edges := make([][2]int, n)
	for i := range edges {
		edges[i] = [2]int{i, (i + 1) % n}
	}
	return build(t, n, edges)
}

func path(t *testing.T, n int) *graph.Graph {
	edges := make([][2]int, n-1)
	for i := range edges {
		edges[i] = [2]int{i, i + 1}
	}
	return build(t, n, edges)
}

// countingPolicy keeps searching and counts every complete mapping.
type countingPolicy struct {
	BasePolicy
	found   [][]int
	added   int
	removed int
	abortAt int
	en      *Enumerator
}

func (p *countingPolicy) OnVertexAdded(int, int) { p.added++ }
func (p *countingPolicy) OnVertexRemoved(int)    { p.removed++ }
func (p *countingPolicy) OnEmbedding(coreSub, _ []Slot) Verdict {
	p.found = append(p.found, Indices(coreSub))
	if p.abortAt > 0 && len(p.found) == p.abortAt {
		p.en.Abort()
	}
	return Continue
}

// bruteForce counts injective edge-preserving maps by exhaustive search.
func bruteForce(sub, super *graph.Graph) int {
	n := sub.VertexEnd()
	mapping := make([]int, n)
	used := make([]bool, super.VertexEnd())
	var rec func(i int) int
	rec = func(i int) int {
		if i == n {
			for _, e := range sub.Edges() {
				ed := sub.Edge(e)
				if super.FindEdge(mapping[ed.Beg], mapping[ed.End]) < 0 {
					return 0
				}
			}
			return 1
		}
		total := 0
		for t := 0; t < super.VertexEnd(); t++ {
			if used[t] {
				continue
			}
			used[t] = true
			mapping[i] = t
			total += rec(i + 1)
			used[t] = false
		}
		return total
	}
	return rec(0)
}

func randomGraph(t *testing.T, rng *rand.Rand, n int, density float64) *graph.Graph {
	var edges [][2]int
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			if rng.Float64() < density {
				edges = append(edges, [2]int{a, b})
			}
		}
	}
	return build(t, n, edges)
}

func TestEnumerator_PathInCycle(t *testing.T) {
	super := cycle(t, 6)
	p := &countingPolicy{}
	en := New(super, p)
	en.SetSubgraph(path(t, 3))

	assert.False(t, en.Process())
	assert.Len(t, p.found, 12)
	for _, m := range p.found {
		assert.GreaterOrEqual(t, super.FindEdge(m[0], m[1]), 0)
		assert.GreaterOrEqual(t, super.FindEdge(m[1], m[2]), 0)
	}
}

func TestEnumerator_NoEmbedding(t *testing.T) {
	en := New(cycle(t, 6), nil)
	en.SetSubgraph(cycle(t, 3))
	assert.False(t, en.Process())
	assert.True(t, en.Exhausted())
}

func TestEnumerator_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 40; i++ {
		super := randomGraph(t, rng, 3+rng.Intn(5), 0.45)
		sub := randomGraph(t, rng, 1+rng.Intn(4), 0.5)
		p := &countingPolicy{}
		en := New(super, p)
		en.SetSubgraph(sub)
		en.Process()
		assert.Equal(t, bruteForce(sub, super), len(p.found), "case %d", i)
	}
}

func TestEnumerator_ResumeYieldsEverySolution(t *testing.T) {
	super := cycle(t, 6)
	en := New(super, nil)
	en.SetSubgraph(path(t, 3))

	seen := map[[3]int]bool{}
	en.ProcessStart()
	for en.ProcessNext() {
		core := Indices(en.CoreSub())
		key := [3]int{core[0], core[1], core[2]}
		assert.False(t, seen[key], "duplicate %v", key)
		seen[key] = true
	}
	assert.Len(t, seen, 12)
	assert.False(t, en.ProcessNext())
}

func TestEnumerator_Fix(t *testing.T) {
	super := path(t, 4)
	p := &countingPolicy{}
	en := New(super, p)
	en.SetSubgraph(path(t, 2))

	require.True(t, en.Fix(0, 0))
	en.Process()
	require.Len(t, p.found, 1)
	assert.Equal(t, []int{0, 1}, p.found[0])

	en.SetSubgraph(path(t, 2))
	require.True(t, en.Fix(0, 1))
	assert.False(t, en.Fix(1, 3), "target 1 and 3 are not adjacent")
	assert.True(t, en.Fix(1, 2))
}

func TestEnumerator_IgnoredVertices(t *testing.T) {
	super := path(t, 3)
	p := &countingPolicy{}
	en := New(super, p)
	en.SetSubgraph(path(t, 2))
	en.IgnoreSupergraphVertex(1)
	en.Process()
	assert.Empty(t, p.found)

	sub := path(t, 3)
	en.SetSubgraph(sub)
	en.IgnoreSubgraphVertex(2)
	p.found = nil
	en.Process()
	assert.Len(t, p.found, 4)
}

func TestEnumerator_AbortKeepsHooksBalanced(t *testing.T) {
	p := &countingPolicy{abortAt: 3}
	en := New(cycle(t, 8), p)
	p.en = en
	en.SetSubgraph(path(t, 4))

	assert.False(t, en.Process())
	assert.True(t, en.Aborted())
	assert.Len(t, p.found, 3)
	assert.Equal(t, p.added, p.removed)
}

func TestEnumerator_AbortWhilePositioned(t *testing.T) {
	p := &countingPolicy{}
	en := New(cycle(t, 5), stopPolicy{p})
	en.SetSubgraph(path(t, 3))
	require.True(t, en.Process())
	en.Abort()
	assert.Equal(t, p.added, p.removed)
	assert.False(t, en.ProcessNext())
}

type stopPolicy struct{ *countingPolicy }

func (stopPolicy) OnEmbedding([]Slot, []Slot) Verdict { return Stop }

func TestEnumerator_ValidateAfterGrowth(t *testing.T) {
	super := path(t, 2)
	en := New(super, nil)
	en.SetSubgraph(path(t, 3))
	assert.False(t, en.Process())

	v := super.AddVertex()
	_, err := super.AddEdge(1, v)
	require.NoError(t, err)
	en.Validate()
	assert.True(t, en.Process())
}

func TestEnumerator_ManyToOneKeepsResults(t *testing.T) {
	super := build(t, 4, [][2]int{{0, 1}, {0, 2}, {0, 3}})
	sub := build(t, 3, [][2]int{{0, 1}, {0, 2}})
	p := &countingPolicy{}
	en := New(super, p)
	en.SetSubgraph(sub)
	en.SetAllowManyToOne(true)
	en.Process()
	assert.Equal(t, bruteForce(sub, super), len(p.found))
}

func TestEnumerator_EquivalencePrunesSymmetricRoots(t *testing.T) {
	super := cycle(t, 6)
	sub := cycle(t, 5)

	p := &vertexCounter{}
	en := New(super, p)
	en.SetSubgraph(sub)
	en.SetEquivalenceHandler(NewOrbitHandler(super, nil, nil))
	assert.False(t, en.Process())
	calls := p.calls

	p2 := &vertexCounter{}
	en2 := New(super, p2)
	en2.SetSubgraph(sub)
	assert.False(t, en2.Process())
	assert.Less(t, calls, p2.calls)
}

type vertexCounter struct {
	BasePolicy
	calls int
}

func (p *vertexCounter) MatchVertex(int, int) bool {
	p.calls++
	return true
}

func TestOrbitHandler(t *testing.T) {
	// 0-1-2-3 with a branch 1-4: vertices 0 and 4 are symmetric, 0 and 3 are not.
	g := build(t, 5, [][2]int{{0, 1}, {1, 2}, {2, 3}, {1, 4}})
	h := NewOrbitHandler(g, nil, nil)
	assert.True(t, h.Equivalent(0, 4))
	assert.False(t, h.Equivalent(0, 3))
	assert.False(t, h.Equivalent(1, 2))

	labelled := NewOrbitHandler(g, func(v int) int {
		if v == 4 {
			return 1
		}
		return 0
	}, nil)
	assert.False(t, labelled.Equivalent(0, 4))
}

func TestStorage_Dedup(t *testing.T) {
	super := cycle(t, 6)
	sub := path(t, 3)
	st := NewStorage()
	st.SaveMapping = true
	p := &storingPolicy{st: st, super: super, sub: sub}
	en := New(super, p)
	en.SetSubgraph(sub)
	en.Process()

	assert.Equal(t, 6, st.Count())
	assert.Equal(t, 12, p.offered)
	for i := 0; i < st.Count(); i++ {
		assert.Len(t, st.Vertices(i), 3)
		assert.Len(t, st.Mapping(i), 3)
	}
	st.Clear()
	assert.Zero(t, st.Count())
}

func TestStorage_UniqueByEdges(t *testing.T) {
	// a triangle: the three 2-edge paths share a vertex set but not edges
	super := cycle(t, 3)
	sub := path(t, 3)

	byVertex := NewStorage()
	en := New(super, &storingPolicy{st: byVertex, super: super, sub: sub})
	en.SetSubgraph(sub)
	en.Process()
	assert.Equal(t, 1, byVertex.Count())

	byEdge := NewStorage()
	byEdge.UniqueByEdges = true
	en = New(super, &storingPolicy{st: byEdge, super: super, sub: sub})
	en.SetSubgraph(sub)
	en.Process()
	assert.Equal(t, 3, byEdge.Count())
	assert.Len(t, byEdge.Edges(0), 2)
}

type storingPolicy struct {
	BasePolicy
	st         *Storage
	super, sub *graph.Graph
	offered    int
}

func (p *storingPolicy) OnEmbedding(coreSub, _ []Slot) Verdict {
	p.offered++
	p.st.AddEmbedding(p.super, p.sub, coreSub)
	return Continue
}

//Personal.AI order the ending
