package molecule

import "github.com/emirpasic/gods/stacks/arraystack"

// Dearomatizer answers whether some Kekulé structure of a molecule's
// aromatic systems realises a given order on an aromatic bond, taking the
// bonds fixed so far into account.  Non-aromatic bonds keep their order.
type Dearomatizer struct {
	m     *Molecule
	needs []bool
	fixed map[int]BondOrder
	order *arraystack.Stack
}

// NewDearomatizer prepares the oracle for m.  m must not change while the
// oracle is in use.
func NewDearomatizer(m *Molecule) *Dearomatizer {
	d := &Dearomatizer{
		m:     m,
		needs: make([]bool, m.VertexEnd()),
		fixed: make(map[int]BondOrder),
		order: arraystack.New(),
	}
	for _, v := range m.Vertices() {
		if _, arom := m.BondOrderSum(v); arom > 0 {
			d.needs[v] = m.aromaticPiBond(v, arom)
		}
	}
	return d
}

// IsAromatic reports whether e is an aromatic bond of the molecule.
func (d *Dearomatizer) IsAromatic(e int) bool {
	return d.m.bonds[e].Order == BondAromatic
}

// IsAbleToFixBond reports whether e can take order in some Kekulé structure
// compatible with the current fixes.
func (d *Dearomatizer) IsAbleToFixBond(e int, order BondOrder) bool {
	if !d.IsAromatic(e) {
		return d.m.bonds[e].Order == order
	}
	if cur, ok := d.fixed[e]; ok {
		return cur == order
	}
	if order != BondSingle && order != BondDouble {
		return false
	}
	d.fixed[e] = order
	ok := d.solvable(e)
	delete(d.fixed, e)
	return ok
}

// FixBond commits order on e when feasible.  Fixes are undone with UnfixBond
// in reverse order.
func (d *Dearomatizer) FixBond(e int, order BondOrder) bool {
	if !d.IsAbleToFixBond(e, order) {
		return false
	}
	if d.IsAromatic(e) {
		if _, ok := d.fixed[e]; !ok {
			d.fixed[e] = order
			d.order.Push(e)
			return true
		}
	}
	d.order.Push(-1)
	return true
}

// UnfixBond releases the most recent fix, which must be on e.
func (d *Dearomatizer) UnfixBond(e int) {
	top, ok := d.order.Pop()
	if !ok {
		return
	}
	if id := top.(int); id >= 0 {
		delete(d.fixed, id)
	}
}

// Fix commits order on e and returns the release function, or nil when the
// fix is infeasible.
func (d *Dearomatizer) Fix(e int, order BondOrder) func() {
	if !d.FixBond(e, order) {
		return nil
	}
	return func() { d.UnfixBond(e) }
}

// FixedCount returns the number of outstanding fixes.
func (d *Dearomatizer) FixedCount() int {
	return d.order.Size()
}

// solvable searches a perfect matching of the atoms that need a double bond
// inside the aromatic system of e, honouring fixed orders.
func (d *Dearomatizer) solvable(e int) bool {
	system := d.m.AromaticSystem(d.m.Edge(e).Beg)
	matched := make(map[int]bool, len(system))
	var free []int
	seenEdge := make(map[int]bool)
	for _, v := range system {
		for _, nb := range d.m.Neighbors(v) {
			if !d.IsAromatic(nb.E) || seenEdge[nb.E] {
				continue
			}
			seenEdge[nb.E] = true
			order, isFixed := d.fixed[nb.E]
			if !isFixed {
				free = append(free, nb.E)
				continue
			}
			if order != BondDouble {
				continue
			}
			ed := d.m.Edge(nb.E)
			if !d.needs[ed.Beg] || !d.needs[ed.End] || matched[ed.Beg] || matched[ed.End] {
				return false
			}
			matched[ed.Beg], matched[ed.End] = true, true
		}
	}
	available := make(map[int][]int)
	for _, fe := range free {
		ed := d.m.Edge(fe)
		available[ed.Beg] = append(available[ed.Beg], ed.End)
		available[ed.End] = append(available[ed.End], ed.Beg)
	}

	var rec func() bool
	rec = func() bool {
		pick, options := -1, 1<<30
		for _, v := range system {
			if !d.needs[v] || matched[v] {
				continue
			}
			n := 0
			for _, u := range available[v] {
				if d.needs[u] && !matched[u] {
					n++
				}
			}
			if n < options {
				pick, options = v, n
			}
		}
		if pick < 0 {
			return true
		}
		if options == 0 {
			return false
		}
		for _, u := range available[pick] {
			if !d.needs[u] || matched[u] {
				continue
			}
			matched[pick], matched[u] = true, true
			if rec() {
				matched[pick], matched[u] = false, false
				return true
			}
			matched[pick], matched[u] = false, false
		}
		return false
	}
	return rec()
}

//Personal.AI order the ending
