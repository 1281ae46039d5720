// Package graph provides the sparse-index undirected graph used as the
// skeleton of molecules and reactions.  Vertex and edge indices are stable for
// the lifetime of an element: removing an element leaves a hole, except that
// removing the highest live index truncates storage, so adding elements at the
// tail and removing them again in reverse order restores the graph exactly.
package graph

import (
	"github.com/turtacn/molmatch/pkg/errors"
)

// Edge is an undirected edge with ordered endpoints.
type Edge struct {
	Beg int
	End int
}

// Other returns the endpoint of e opposite to v.
func (e Edge) Other(v int) int {
	if e.Beg == v {
		return e.End
	}
	return e.Beg
}

// Neighbor is an adjacency entry: the adjacent vertex and the connecting edge.
type Neighbor struct {
	V int
	E int
}

// Graph is a simple undirected graph (no loops, no multi-edges).
type Graph struct {
	adj       [][]Neighbor
	alive     []bool
	edges     []Edge
	edgeAlive []bool
	nVertices int
	nEdges    int
	version   uint64
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{}
}

// Version increases on every structural mutation; caches keyed on it are
// invalidated by any add or remove.
func (g *Graph) Version() uint64 {
	return g.version
}

// ─────────────────────────────────────────────────────────────────────────────
// Vertices
// ─────────────────────────────────────────────────────────────────────────────

// AddVertex appends a vertex and returns its index.
func (g *Graph) AddVertex() int {
	g.adj = append(g.adj, nil)
	g.alive = append(g.alive, true)
	g.nVertices++
	g.version++
	return len(g.alive) - 1
}

// HasVertex reports whether v is a live vertex index.
func (g *Graph) HasVertex(v int) bool {
	return v >= 0 && v < len(g.alive) && g.alive[v]
}

// VertexEnd is one past the highest vertex index ever live; arrays indexed by
// vertex must have at least this length.
func (g *Graph) VertexEnd() int {
	return len(g.alive)
}

// VertexCount is the number of live vertices.
func (g *Graph) VertexCount() int {
	return g.nVertices
}

// Vertices returns the live vertex indices in increasing order.
func (g *Graph) Vertices() []int {
	out := make([]int, 0, g.nVertices)
	for v, ok := range g.alive {
		if ok {
			out = append(out, v)
		}
	}
	return out
}

// Neighbors returns the adjacency list of v.  The slice is owned by the graph
// and must not be modified or retained across mutations.
func (g *Graph) Neighbors(v int) []Neighbor {
	if !g.HasVertex(v) {
		return nil
	}
	return g.adj[v]
}

// Degree returns the number of edges incident to v.
func (g *Graph) Degree(v int) int {
	if !g.HasVertex(v) {
		return 0
	}
	return len(g.adj[v])
}

// RemoveVertex removes v together with its incident edges.
func (g *Graph) RemoveVertex(v int) error {
	if !g.HasVertex(v) {
		return errors.Newf(errors.ErrCodeVertexNotFound, "vertex %d not found", v)
	}
	for len(g.adj[v]) > 0 {
		last := g.adj[v][len(g.adj[v])-1]
		if err := g.RemoveEdge(last.E); err != nil {
			return err
		}
	}
	g.alive[v] = false
	g.adj[v] = nil
	g.nVertices--
	g.version++
	for n := len(g.alive); n > 0 && !g.alive[n-1]; n-- {
		g.alive = g.alive[:n-1]
		g.adj = g.adj[:n-1]
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Edges
// ─────────────────────────────────────────────────────────────────────────────

// AddEdge connects beg and end and returns the new edge index.
func (g *Graph) AddEdge(beg, end int) (int, error) {
	if !g.HasVertex(beg) {
		return -1, errors.Newf(errors.ErrCodeVertexNotFound, "vertex %d not found", beg)
	}
	if !g.HasVertex(end) {
		return -1, errors.Newf(errors.ErrCodeVertexNotFound, "vertex %d not found", end)
	}
	if beg == end {
		return -1, errors.Newf(errors.ErrCodeSelfLoop, "loop on vertex %d", beg)
	}
	if g.FindEdge(beg, end) >= 0 {
		return -1, errors.Newf(errors.ErrCodeEdgeExists, "edge %d-%d already exists", beg, end)
	}
	e := len(g.edges)
	g.edges = append(g.edges, Edge{Beg: beg, End: end})
	g.edgeAlive = append(g.edgeAlive, true)
	g.adj[beg] = append(g.adj[beg], Neighbor{V: end, E: e})
	g.adj[end] = append(g.adj[end], Neighbor{V: beg, E: e})
	g.nEdges++
	g.version++
	return e, nil
}

// HasEdge reports whether e is a live edge index.
func (g *Graph) HasEdge(e int) bool {
	return e >= 0 && e < len(g.edgeAlive) && g.edgeAlive[e]
}

// Edge returns the endpoints of e.
func (g *Graph) Edge(e int) Edge {
	return g.edges[e]
}

// EdgeEnd is one past the highest edge index ever live.
func (g *Graph) EdgeEnd() int {
	return len(g.edgeAlive)
}

// EdgeCount is the number of live edges.
func (g *Graph) EdgeCount() int {
	return g.nEdges
}

// Edges returns the live edge indices in increasing order.
func (g *Graph) Edges() []int {
	out := make([]int, 0, g.nEdges)
	for e, ok := range g.edgeAlive {
		if ok {
			out = append(out, e)
		}
	}
	return out
}

// FindEdge returns the edge joining a and b, or -1.
func (g *Graph) FindEdge(a, b int) int {
	if !g.HasVertex(a) || !g.HasVertex(b) {
		return -1
	}
	if len(g.adj[a]) > len(g.adj[b]) {
		a, b = b, a
	}
	for _, n := range g.adj[a] {
		if n.V == b {
			return n.E
		}
	}
	return -1
}

// RemoveEdge removes e, keeping the relative order of the remaining neighbours.
func (g *Graph) RemoveEdge(e int) error {
	if !g.HasEdge(e) {
		return errors.Newf(errors.ErrCodeEdgeNotFound, "edge %d not found", e)
	}
	ed := g.edges[e]
	g.adj[ed.Beg] = dropNeighbor(g.adj[ed.Beg], e)
	g.adj[ed.End] = dropNeighbor(g.adj[ed.End], e)
	g.edgeAlive[e] = false
	g.nEdges--
	g.version++
	for n := len(g.edgeAlive); n > 0 && !g.edgeAlive[n-1]; n-- {
		g.edgeAlive = g.edgeAlive[:n-1]
		g.edges = g.edges[:n-1]
	}
	return nil
}

func dropNeighbor(list []Neighbor, e int) []Neighbor {
	for i, n := range list {
		if n.E == e {
			copy(list[i:], list[i+1:])
			return list[:len(list)-1]
		}
	}
	return list
}

// ─────────────────────────────────────────────────────────────────────────────
// Copying
// ─────────────────────────────────────────────────────────────────────────────

// Clone returns a deep copy preserving every index.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		adj:       make([][]Neighbor, len(g.adj)),
		alive:     append([]bool(nil), g.alive...),
		edges:     append([]Edge(nil), g.edges...),
		edgeAlive: append([]bool(nil), g.edgeAlive...),
		nVertices: g.nVertices,
		nEdges:    g.nEdges,
	}
	for v, list := range g.adj {
		if list != nil {
			c.adj[v] = append([]Neighbor(nil), list...)
		}
	}
	return c
}

// Equal reports whether g and o have identical live indices, endpoints and
// adjacency order.
func (g *Graph) Equal(o *Graph) bool {
	if len(g.alive) != len(o.alive) || len(g.edgeAlive) != len(o.edgeAlive) {
		return false
	}
	for v := range g.alive {
		if g.alive[v] != o.alive[v] || len(g.adj[v]) != len(o.adj[v]) {
			return false
		}
		for i := range g.adj[v] {
			if g.adj[v][i] != o.adj[v][i] {
				return false
			}
		}
	}
	for e := range g.edgeAlive {
		if g.edgeAlive[e] != o.edgeAlive[e] || (g.edgeAlive[e] && g.edges[e] != o.edges[e]) {
			return false
		}
	}
	return true
}

//Personal.AI order the ending
