package molecule

import "github.com/turtacn/molmatch/internal/graph"

// PerceiveAromaticBonds returns, per edge index, whether the bond is
// aromatic under a Hückel 4n+2 count over the basis rings and over the
// envelopes of ring pairs fused through a single bond.  Bonds already
// written aromatic stay aromatic.
func (m *Molecule) PerceiveAromaticBonds() []bool {
	out := make([]bool, m.g.EdgeEnd())
	for _, e := range m.g.Edges() {
		if m.bonds[e].Order == BondAromatic {
			out[e] = true
		}
	}
	rings := m.Rings().Rings
	var systems [][]int
	for _, r := range rings {
		systems = append(systems, r.Edges)
	}
	for i := 0; i < len(rings); i++ {
		for j := i + 1; j < len(rings); j++ {
			if env := envelope(rings[i].Edges, rings[j].Edges); env != nil {
				systems = append(systems, env)
			}
		}
	}
	for _, edges := range systems {
		if m.cycleAromatic(edges) {
			for _, e := range edges {
				out[e] = true
			}
		}
	}
	return out
}

// envelope returns the outer cycle of two rings sharing exactly one edge.
func envelope(a, b []int) []int {
	inA := make(map[int]bool, len(a))
	for _, e := range a {
		inA[e] = true
	}
	shared := 0
	for _, e := range b {
		if inA[e] {
			shared++
		}
	}
	if shared != 1 {
		return nil
	}
	var out []int
	for _, e := range a {
		if !contains(b, e) {
			out = append(out, e)
		}
	}
	for _, e := range b {
		if !inA[e] {
			out = append(out, e)
		}
	}
	return out
}

func contains(list []int, x int) bool {
	for _, y := range list {
		if y == x {
			return true
		}
	}
	return false
}

func (m *Molecule) cycleAromatic(edges []int) bool {
	inCycle := make(map[int]bool, len(edges))
	members := make(map[int]bool)
	for _, e := range edges {
		inCycle[e] = true
		ed := m.g.Edge(e)
		members[ed.Beg] = true
		members[ed.End] = true
	}
	pi := 0
	for v := range members {
		c := m.piContribution(v, inCycle)
		if c < 0 {
			return false
		}
		pi += c
	}
	return pi%4 == 2
}

// piContribution counts the pi electrons atom v donates to a cycle, or -1
// when v cannot be part of an aromatic cycle.
func (m *Molecule) piContribution(v int, inCycle map[int]bool) int {
	a := &m.atoms[v]
	if a.Kind != AtomRegular {
		return -1
	}
	ringDouble, ringArom, arom := 0, 0, 0
	exo := -1
	for _, nb := range m.g.Neighbors(v) {
		switch m.bonds[nb.E].Order {
		case BondTriple:
			return -1
		case BondDouble:
			if inCycle[nb.E] {
				ringDouble++
			} else {
				exo = nb.V
			}
		case BondAromatic:
			arom++
			if inCycle[nb.E] {
				ringArom++
			}
		}
	}
	switch {
	case ringDouble > 1:
		return -1
	case ringDouble == 1:
		return 1
	case ringArom > 0:
		if m.aromaticPiBond(v, arom) {
			return 1
		}
		return 2
	case exo >= 0:
		if IsHetero(m.atoms[exo].Number) {
			return 0
		}
		return -1
	}
	conn := m.Connectivity(v)
	switch a.Number {
	case ElemN, ElemP, ElemAs:
		if a.Charge == 0 && conn == 3 {
			return 2
		}
		if a.Charge == -1 && conn == 2 {
			return 2
		}
	case ElemO, ElemS, ElemSe, ElemTe:
		if a.Charge == 0 && conn == 2 {
			return 2
		}
	case ElemC:
		if a.Charge == -1 {
			return 2
		}
		if a.Charge == 1 {
			return 0
		}
	case ElemB:
		if a.Charge == 0 && conn == 3 {
			return 0
		}
	}
	return -1
}

// Aromatize rewrites perceived aromatic bonds to BondAromatic and flags
// their atoms.  It reports whether anything changed.
func (m *Molecule) Aromatize() bool {
	arom := m.PerceiveAromaticBonds()
	changed := false
	for _, e := range m.g.Edges() {
		if !arom[e] || m.bonds[e].Order == BondAromatic {
			continue
		}
		m.bonds[e].Order = BondAromatic
		ed := m.g.Edge(e)
		m.atoms[ed.Beg].Aromatic = true
		m.atoms[ed.End].Aromatic = true
		changed = true
	}
	return changed
}

// AromaticSystem returns the atoms connected to v through aromatic bonds.
func (m *Molecule) AromaticSystem(v int) []int {
	var out []int
	graph.BFS(m.g, v, func(e int) bool {
		return m.bonds[e].Order != BondAromatic
	}, func(u, _ int) bool {
		out = append(out, u)
		return true
	})
	return out
}

//Personal.AI order the ending
