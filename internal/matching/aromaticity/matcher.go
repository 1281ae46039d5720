// Package aromaticity keeps query bonds whose aromaticity is ambiguous
// consistent while a substructure search grows and shrinks its mapping.
package aromaticity

import (
	"github.com/turtacn/molmatch/internal/domain/molecule"
	"github.com/turtacn/molmatch/internal/graph/embedding"
)

// State is the aromaticity a query bond has been committed to.
type State int

const (
	Any State = iota
	Aromatic
	NonAromatic
)

func (s State) String() string {
	switch s {
	case Aromatic:
		return "aromatic"
	case NonAromatic:
		return "nonaromatic"
	}
	return "any"
}

// Matcher tracks one tri-state per query edge.
type Matcher struct {
	query  *molecule.Molecule
	target *molecule.Molecule

	states     []State
	queryArom  []bool
	targetArom []bool
}

// IsNecessary reports whether q has any ring bond that can match both
// aromatic and non-aromatic target bonds: a bond expression accepting the
// aromatic order and another one, a bond written aromatic, or a Kekulé bond
// that aromaticity perception of q turns aromatic.
func IsNecessary(q *molecule.Molecule) bool {
	var perceived []bool
	for _, e := range q.Edges() {
		if !q.IsRingBond(e) {
			continue
		}
		b := q.Bond(e)
		if b.Expr != nil {
			if b.Expr.AcceptsOrder(molecule.BondAromatic) &&
				(b.Expr.AcceptsOrder(molecule.BondSingle) || b.Expr.AcceptsOrder(molecule.BondDouble)) {
				return true
			}
			continue
		}
		switch b.Order {
		case molecule.BondAromatic:
			return true
		case molecule.BondSingle, molecule.BondDouble:
			if perceived == nil {
				perceived = q.PerceiveAromaticBonds()
			}
			if perceived[e] {
				return true
			}
		}
	}
	return false
}

// New prepares a matcher for query against target.  Both molecules must not
// change structurally while the matcher is in use, except that atoms may be
// appended to the query after construction (Markush splices); such bonds are
// treated as unambiguous.
func New(query, target *molecule.Molecule) *Matcher {
	return &Matcher{
		query:      query,
		target:     target,
		states:     make([]State, query.EdgeEnd()),
		queryArom:  query.PerceiveAromaticBonds(),
		targetArom: target.PerceiveAromaticBonds(),
	}
}

func (m *Matcher) state(e int) State {
	if e < len(m.states) {
		return m.states[e]
	}
	return Any
}

// State returns the current state of query edge e.
func (m *Matcher) State(e int) State {
	return m.state(e)
}

// IsAmbiguous reports whether query ring edge e may end up aromatic or not.
func (m *Matcher) IsAmbiguous(e int) bool {
	if e >= len(m.queryArom) || !m.query.IsRingBond(e) {
		return false
	}
	b := m.query.Bond(e)
	if b.Expr != nil {
		return b.Expr.AcceptsOrder(molecule.BondAromatic)
	}
	return b.Order == molecule.BondAromatic || m.queryArom[e]
}

// AcceptsAromatic reports whether query edge e may map onto an aromatic
// target bond.
func (m *Matcher) AcceptsAromatic(e int) bool {
	if e >= len(m.queryArom) {
		return false
	}
	b := m.query.Bond(e)
	if b.Expr != nil {
		return b.Expr.AcceptsOrder(molecule.BondAromatic)
	}
	return b.Order == molecule.BondAromatic || m.queryArom[e]
}

// TargetAromatic reports whether target edge te is aromatic, as written or
// as perceived on the whole target.
func (m *Matcher) TargetAromatic(te int) bool {
	return te < len(m.targetArom) && m.targetArom[te]
}

// CanFixQueryBond checks that fixing e keeps every ring constraint
// satisfiable: an aromatic bond needs a ring through it free of
// non-aromatic fixes, and a non-aromatic fix must leave every aromatic fix
// sharing a ring with e such a ring.
func (m *Matcher) CanFixQueryBond(e int, aromatic bool) bool {
	cur := m.state(e)
	if cur != Any {
		return (cur == Aromatic) == aromatic
	}
	rings := m.query.Rings()
	if aromatic {
		return m.hasOpenRing(rings.RingsOfEdge(e), -1)
	}
	for _, ri := range rings.RingsOfEdge(e) {
		for _, f := range rings.Rings[ri].Edges {
			if f != e && m.state(f) == Aromatic && !m.hasOpenRing(rings.RingsOfEdge(f), e) {
				return false
			}
		}
	}
	return true
}

// hasOpenRing reports whether one of the rings has no non-aromatic fix,
// counting extra (when >= 0) as fixed non-aromatic.
func (m *Matcher) hasOpenRing(ringIdx []int, extra int) bool {
	rings := m.query.Rings().Rings
	for _, ri := range ringIdx {
		open := true
		for _, f := range rings[ri].Edges {
			if f == extra || m.state(f) == NonAromatic {
				open = false
				break
			}
		}
		if open {
			return true
		}
	}
	return false
}

// FixQueryBond commits e.  It does not re-check feasibility.
func (m *Matcher) FixQueryBond(e int, aromatic bool) {
	if e >= len(m.states) {
		return
	}
	if aromatic {
		m.states[e] = Aromatic
	} else {
		m.states[e] = NonAromatic
	}
}

// Fix is CanFixQueryBond followed by FixQueryBond.  The returned release
// function undoes the fix; ok is false when the fix is infeasible.
func (m *Matcher) Fix(e int, aromatic bool) (release func(), ok bool) {
	if !m.CanFixQueryBond(e, aromatic) {
		return nil, false
	}
	if m.state(e) != Any {
		return func() {}, true
	}
	m.FixQueryBond(e, aromatic)
	return func() { m.UnfixQueryBond(e) }, true
}

// UnfixQueryBond returns e to Any.
func (m *Matcher) UnfixQueryBond(e int) {
	if e < len(m.states) {
		m.states[e] = Any
	}
}

// UnfixNeighbourQueryBond releases every fix on bonds incident to v.
func (m *Matcher) UnfixNeighbourQueryBond(v int) {
	for _, nb := range m.query.Neighbors(v) {
		m.UnfixQueryBond(nb.E)
	}
}

// Match checks every fixed state against the aromaticity perceived on the
// whole target, so Kekulé and aromatic writings of one target agree.  Bonds
// whose atoms are not both mapped are skipped.
func (m *Matcher) Match(coreSub, _ []embedding.Slot) bool {
	for e, s := range m.states {
		if s == Any || !m.query.HasEdge(e) {
			continue
		}
		ed := m.query.Edge(e)
		if ed.Beg >= len(coreSub) || ed.End >= len(coreSub) {
			continue
		}
		a, b := coreSub[ed.Beg], coreSub[ed.End]
		if !a.Mapped() || !b.Mapped() {
			continue
		}
		te := m.target.FindEdge(a.Index(), b.Index())
		if te < 0 {
			return false
		}
		if m.TargetAromatic(te) != (s == Aromatic) {
			return false
		}
	}
	return true
}

//Personal.AI order the ending
