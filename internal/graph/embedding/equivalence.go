package embedding

import (
	"fmt"
	"sort"
	"strings"
)

// LabelFunc returns an invariant label for a vertex or edge.
type LabelFunc func(int) int

// OrbitHandler decides whether two target vertices lie in the same
// automorphism orbit.  Colour refinement gives a fast rejection; candidates
// sharing a colour are confirmed with an explicit automorphism search.
type OrbitHandler struct {
	g         Graph
	vertexLbl LabelFunc
	edgeLbl   LabelFunc
	colours   []int
	confirmed map[[2]int]bool
}

// NewOrbitHandler builds a handler over g.  Nil label functions label
// everything 0.
func NewOrbitHandler(g Graph, vertexLabel, edgeLabel LabelFunc) *OrbitHandler {
	if vertexLabel == nil {
		vertexLabel = func(int) int { return 0 }
	}
	if edgeLabel == nil {
		edgeLabel = func(int) int { return 0 }
	}
	return &OrbitHandler{g: g, vertexLbl: vertexLabel, edgeLbl: edgeLabel, confirmed: make(map[[2]int]bool)}
}

// Equivalent implements EquivalenceHandler.
func (h *OrbitHandler) Equivalent(a, b int) bool {
	if a == b {
		return true
	}
	if h.colours == nil {
		h.refine()
	}
	if h.colours[a] != h.colours[b] {
		return false
	}
	key := [2]int{a, b}
	if a > b {
		key = [2]int{b, a}
	}
	if v, ok := h.confirmed[key]; ok {
		return v
	}
	en := New(h.g, &automorphism{h: h})
	en.SetSubgraph(h.g)
	ok := en.Fix(a, b) && en.Process()
	h.confirmed[key] = ok
	return ok
}

// refine runs colour refinement until the number of classes is stable.
func (h *OrbitHandler) refine() {
	n := h.g.VertexEnd()
	h.colours = make([]int, n)
	sigs := make([]string, n)
	for v := 0; v < n; v++ {
		if h.g.HasVertex(v) {
			sigs[v] = fmt.Sprintf("%d/%d", h.vertexLbl(v), len(h.g.Neighbors(v)))
		}
	}
	classes := compact(sigs, h.colours)
	for round := 0; round < n; round++ {
		for v := 0; v < n; v++ {
			if !h.g.HasVertex(v) {
				continue
			}
			nbrs := make([]string, 0, len(h.g.Neighbors(v)))
			for _, nb := range h.g.Neighbors(v) {
				nbrs = append(nbrs, fmt.Sprintf("%d:%d", h.edgeLbl(nb.E), h.colours[nb.V]))
			}
			sort.Strings(nbrs)
			sigs[v] = fmt.Sprintf("%d|%s", h.colours[v], strings.Join(nbrs, ","))
		}
		next := compact(sigs, h.colours)
		if next == classes {
			return
		}
		classes = next
	}
}

func compact(sigs []string, out []int) int {
	ids := make(map[string]int)
	for v, s := range sigs {
		id, ok := ids[s]
		if !ok {
			id = len(ids)
			ids[s] = id
		}
		out[v] = id
	}
	return len(ids)
}

type automorphism struct {
	BasePolicy
	h *OrbitHandler
}

func (p *automorphism) MatchVertex(sub, super int) bool {
	return p.h.colours[sub] == p.h.colours[super]
}

func (p *automorphism) MatchEdge(subEdge, superEdge int) bool {
	return p.h.edgeLbl(subEdge) == p.h.edgeLbl(superEdge)
}

//Personal.AI order the ending
