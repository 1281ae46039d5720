package graph

import (
	"sort"
)

// Ring is a simple cycle given by its vertices in walk order and its edges.
type Ring struct {
	Vertices []int
	Edges    []int
}

// Size is the number of ring members.
func (r Ring) Size() int {
	return len(r.Edges)
}

// RingInfo is the ring perception result for one graph version.
type RingInfo struct {
	// Rings is a smallest set of smallest rings, sorted by size.
	Rings []Ring
	// edgeRings and vertexRings index Rings by member.
	edgeRings   map[int][]int
	vertexRings map[int][]int
	// edgeSmallest is the size of the smallest cycle through an edge, 0 for
	// chain edges.
	edgeSmallest map[int]int
}

// PerceiveRings computes the smallest cycle through every ring edge, then
// keeps a linearly independent subset (GF(2) elimination over edge sets) of
// size E - V + C, preferring smaller rings.
func PerceiveRings(g *Graph) *RingInfo {
	info := &RingInfo{
		edgeRings:    make(map[int][]int),
		vertexRings:  make(map[int][]int),
		edgeSmallest: make(map[int]int),
	}
	var candidates []Ring
	seen := make(map[string]bool)
	for _, e := range g.Edges() {
		ed := g.Edge(e)
		path := ShortestPath(g, ed.Beg, ed.End, e)
		if path == nil {
			continue
		}
		info.edgeSmallest[e] = len(path) + 1
		edges := append(append([]int(nil), path...), e)
		key := edgeKey(edges)
		if seen[key] {
			continue
		}
		seen[key] = true
		candidates = append(candidates, Ring{Vertices: walkVertices(g, ed.Beg, path), Edges: edges})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i].Edges) < len(candidates[j].Edges)
	})

	_, comps := Components(g)
	want := g.EdgeCount() - g.VertexCount() + comps
	basis := newCycleBasis(g.EdgeEnd())
	for _, r := range candidates {
		if len(info.Rings) == want {
			break
		}
		if basis.add(r.Edges) {
			info.Rings = append(info.Rings, r)
		}
	}
	for i, r := range info.Rings {
		for _, e := range r.Edges {
			info.edgeRings[e] = append(info.edgeRings[e], i)
		}
		for _, v := range r.Vertices {
			info.vertexRings[v] = append(info.vertexRings[v], i)
		}
	}
	return info
}

func walkVertices(g *Graph, start int, path []int) []int {
	out := []int{start}
	cur := start
	for _, e := range path {
		cur = g.Edge(e).Other(cur)
		out = append(out, cur)
	}
	return out
}

func edgeKey(edges []int) string {
	s := append([]int(nil), edges...)
	sort.Ints(s)
	b := make([]byte, 0, len(s)*3)
	for _, e := range s {
		b = append(b, byte(e), byte(e>>8), byte(e>>16))
	}
	return string(b)
}

// IsRingEdge reports whether e lies on any cycle.
func (ri *RingInfo) IsRingEdge(e int) bool {
	return ri.edgeSmallest[e] > 0
}

// SmallestRingOfEdge is the size of the smallest cycle through e, 0 when e is
// a chain edge.
func (ri *RingInfo) SmallestRingOfEdge(e int) int {
	return ri.edgeSmallest[e]
}

// RingsOfEdge returns indices into Rings of the rings containing e.
func (ri *RingInfo) RingsOfEdge(e int) []int {
	return ri.edgeRings[e]
}

// RingsOfVertex returns indices into Rings of the rings containing v.
func (ri *RingInfo) RingsOfVertex(v int) []int {
	return ri.vertexRings[v]
}

// RingCount is the number of basis rings containing v.
func (ri *RingInfo) RingCount(v int) int {
	return len(ri.vertexRings[v])
}

// SmallestRingOfVertex is the size of the smallest cycle through v, 0 when v
// is acyclic.
func (ri *RingInfo) SmallestRingOfVertex(g *Graph, v int) int {
	best := 0
	for _, n := range g.Neighbors(v) {
		if s := ri.edgeSmallest[n.E]; s > 0 && (best == 0 || s < best) {
			best = s
		}
	}
	return best
}

// RingBondCount is the number of ring edges incident to v.
func (ri *RingInfo) RingBondCount(g *Graph, v int) int {
	c := 0
	for _, n := range g.Neighbors(v) {
		if ri.edgeSmallest[n.E] > 0 {
			c++
		}
	}
	return c
}

// ─────────────────────────────────────────────────────────────────────────────
// GF(2) cycle basis
// ─────────────────────────────────────────────────────────────────────────────

type cycleBasis struct {
	words int
	rows  map[int][]uint64 // pivot bit -> reduced row
}

func newCycleBasis(edgeEnd int) *cycleBasis {
	return &cycleBasis{words: edgeEnd/64 + 1, rows: make(map[int][]uint64)}
}

// add reduces the cycle against the basis and keeps it when independent.
func (b *cycleBasis) add(edges []int) bool {
	vec := make([]uint64, b.words)
	for _, e := range edges {
		vec[e/64] ^= 1 << uint(e%64)
	}
	for {
		pivot := -1
		for w := len(vec) - 1; w >= 0 && pivot < 0; w-- {
			if vec[w] == 0 {
				continue
			}
			for bit := 63; bit >= 0; bit-- {
				if vec[w]&(1<<uint(bit)) != 0 {
					pivot = w*64 + bit
					break
				}
			}
		}
		if pivot < 0 {
			return false
		}
		row, ok := b.rows[pivot]
		if !ok {
			b.rows[pivot] = vec
			return true
		}
		for i := range vec {
			vec[i] ^= row[i]
		}
	}
}

//Personal.AI order the ending
