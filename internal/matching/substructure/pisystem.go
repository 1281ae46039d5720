package substructure

import (
	"github.com/turtacn/molmatch/internal/domain/molecule"
	"github.com/turtacn/molmatch/internal/graph"
)

// piSystems partitions target atoms into conjugated systems: atoms with a
// multiple or aromatic bond, and charged atoms next to them, joined through
// bonds between two such atoms.  Inside a system charges and bond orders may
// be distributed differently between query and target as long as the totals
// agree over every system the embedding covers.
type piSystems struct {
	id      []int
	members map[int][]int
}

func newPiSystems(t *molecule.Molecule) *piSystems {
	conj := make([]bool, t.VertexEnd())
	for _, v := range t.Vertices() {
		conj[v] = hasPiBond(t, v)
	}
	for _, v := range t.Vertices() {
		if conj[v] || t.Atom(v).Charge == 0 {
			continue
		}
		for _, nb := range t.Neighbors(v) {
			if hasPiBond(t, nb.V) {
				conj[v] = true
				break
			}
		}
	}
	ps := &piSystems{id: make([]int, t.VertexEnd()), members: make(map[int][]int)}
	for i := range ps.id {
		ps.id[i] = -1
	}
	next := 0
	for _, v := range t.Vertices() {
		if !conj[v] || ps.id[v] >= 0 {
			continue
		}
		var comp []int
		graph.BFS(t.Graph(), v, func(e int) bool {
			ed := t.Edge(e)
			return !conj[ed.Beg] || !conj[ed.End]
		}, func(u, _ int) bool {
			comp = append(comp, u)
			return true
		})
		if len(comp) < 2 {
			continue
		}
		for _, u := range comp {
			ps.id[u] = next
		}
		ps.members[next] = comp
		next++
	}
	return ps
}

func hasPiBond(t *molecule.Molecule, v int) bool {
	for _, nb := range t.Neighbors(v) {
		switch t.Bond(nb.E).Order {
		case molecule.BondDouble, molecule.BondTriple, molecule.BondAromatic:
			return true
		}
	}
	return false
}

func (ps *piSystems) inSystem(t int) bool {
	return t < len(ps.id) && ps.id[t] >= 0
}

// relaxed reports whether a plain single, double or aromatic query bond
// may map onto target bond te because te lies inside one system.
func (ps *piSystems) relaxed(query, target *molecule.Molecule, qe, te int) bool {
	qb := query.Bond(qe)
	if qb.Expr != nil || !delocalisable(qb.Order) || !delocalisable(target.Bond(te).Order) {
		return false
	}
	ed := target.Edge(te)
	return ps.inSystem(ed.Beg) && ps.id[ed.Beg] == ps.id[ed.End]
}

func delocalisable(o molecule.BondOrder) bool {
	return o == molecule.BondSingle || o == molecule.BondDouble || o == molecule.BondAromatic
}

// bondWeight counts bond electrons in half-bonds so aromatic bonds stay integral.
func bondWeight(o molecule.BondOrder) int {
	switch o {
	case molecule.BondSingle:
		return 2
	case molecule.BondDouble:
		return 4
	case molecule.BondTriple:
		return 6
	case molecule.BondAromatic:
		return 3
	}
	return 0
}

// balanced compares total charge and bond weight of query and target over
// every system whose atoms are all mapped.
func (ps *piSystems) balanced(query, target *molecule.Molecule, mapping []int) bool {
	inverse := make(map[int]int, len(mapping))
	for q, t := range mapping {
		if t >= 0 {
			inverse[t] = q
		}
	}
	for _, comp := range ps.members {
		covered := true
		for _, t := range comp {
			if _, ok := inverse[t]; !ok {
				covered = false
				break
			}
		}
		if !covered {
			continue
		}
		qCharge, tCharge := 0, 0
		qBonds, tBonds := 0, 0
		comparable := true
		for _, t := range comp {
			q := inverse[t]
			tCharge += target.Atom(t).Charge
			qCharge += queryCharge(query, q)
			for _, nb := range target.Neighbors(t) {
				if nb.V < t || !ps.inSystem(nb.V) || ps.id[nb.V] != ps.id[t] {
					continue
				}
				tBonds += bondWeight(target.Bond(nb.E).Order)
				qe := query.FindEdge(q, inverse[nb.V])
				if qe < 0 || query.Bond(qe).Expr != nil {
					comparable = false
					continue
				}
				qBonds += bondWeight(query.Bond(qe).Order)
			}
		}
		if qCharge != tCharge || (comparable && qBonds != tBonds) {
			return false
		}
	}
	return true
}

func queryCharge(q *molecule.Molecule, v int) int {
	a := q.Atom(v)
	if a.Expr == nil {
		return a.Charge
	}
	c, _ := a.Expr.Definite(molecule.ExprCharge)
	return c
}

//Personal.AI order the ending
