package graph

import (
	"github.com/emirpasic/gods/queues/arrayqueue"
)

// BFS walks g breadth-first from start.  visit receives every reached vertex
// with its distance; returning false prunes expansion below that vertex.
// skip, when non-nil, hides edges from the walk.
func BFS(g *Graph, start int, skip func(e int) bool, visit func(v, depth int) bool) {
	if !g.HasVertex(start) {
		return
	}
	depth := make(map[int]int, g.VertexCount())
	depth[start] = 0
	q := arrayqueue.New()
	q.Enqueue(start)
	for !q.Empty() {
		item, _ := q.Dequeue()
		v := item.(int)
		if !visit(v, depth[v]) {
			continue
		}
		for _, n := range g.Neighbors(v) {
			if skip != nil && skip(n.E) {
				continue
			}
			if _, seen := depth[n.V]; seen {
				continue
			}
			depth[n.V] = depth[v] + 1
			q.Enqueue(n.V)
		}
	}
}

// ShortestPath returns the edge sequence of a shortest path from a to b that
// avoids the excluded edge, or nil when b is unreachable.
func ShortestPath(g *Graph, a, b, excluded int) []int {
	if a == b {
		return []int{}
	}
	via := map[int]Neighbor{a: {V: -1, E: -1}}
	q := arrayqueue.New()
	q.Enqueue(a)
	for !q.Empty() {
		item, _ := q.Dequeue()
		v := item.(int)
		for _, n := range g.Neighbors(v) {
			if n.E == excluded {
				continue
			}
			if _, seen := via[n.V]; seen {
				continue
			}
			via[n.V] = Neighbor{V: v, E: n.E}
			if n.V == b {
				var path []int
				for cur := b; cur != a; cur = via[cur].V {
					path = append(path, via[cur].E)
				}
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path
			}
			q.Enqueue(n.V)
		}
	}
	return nil
}

// Components labels every live vertex with a component id (0-based, ordered
// by the lowest vertex of each component) and returns the labels, indexed by
// vertex (-1 for holes), and the number of components.
func Components(g *Graph) ([]int, int) {
	label := make([]int, g.VertexEnd())
	for i := range label {
		label[i] = -1
	}
	count := 0
	for _, v := range g.Vertices() {
		if label[v] >= 0 {
			continue
		}
		id := count
		count++
		BFS(g, v, nil, func(u, _ int) bool {
			label[u] = id
			return true
		})
	}
	return label, count
}

// ComponentVertices groups live vertices by component.
func ComponentVertices(g *Graph) [][]int {
	label, count := Components(g)
	out := make([][]int, count)
	for v, c := range label {
		if c >= 0 {
			out[c] = append(out[c], v)
		}
	}
	return out
}

//Personal.AI order the ending
