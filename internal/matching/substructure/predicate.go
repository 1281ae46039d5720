package substructure

import "github.com/turtacn/molmatch/internal/domain/molecule"

// fragmentKey identifies one cached fragment-constraint result.
type fragmentKey struct {
	atom int
	key  string
}

// atomMatcher evaluates query atom predicates against one target.  Fragment
// leaves spawn nested matchers; their verdicts are cached per target atom for
// the lifetime of one top-level search.
type atomMatcher struct {
	query, target *molecule.Molecule
	aromatic      []bool
	cache         map[fragmentKey]bool
	stats         *Stats
	opts          Options
	parent        *Matcher
}

func newAtomMatcher(query, target *molecule.Molecule) *atomMatcher {
	return &atomMatcher{
		query:    query,
		target:   target,
		aromatic: aromaticAtoms(target),
		cache:    make(map[fragmentKey]bool),
		stats:    &Stats{},
	}
}

// aromaticAtoms flags atoms written aromatic or carrying a perceived aromatic bond.
func aromaticAtoms(m *molecule.Molecule) []bool {
	out := make([]bool, m.VertexEnd())
	bonds := m.PerceiveAromaticBonds()
	for _, v := range m.Vertices() {
		if m.Atom(v).Aromatic {
			out[v] = true
		}
	}
	for _, e := range m.Edges() {
		if bonds[e] {
			ed := m.Edge(e)
			out[ed.Beg], out[ed.End] = true, true
		}
	}
	return out
}

func (am *atomMatcher) match(q, t int, flags molecule.MatchFlags) (bool, error) {
	qa := am.query.Atom(q)
	ta := am.target.Atom(t)
	switch qa.Kind {
	case molecule.AtomAny, molecule.AtomRSite:
		return true, nil
	case molecule.AtomPseudo:
		return ta.Kind == molecule.AtomPseudo && ta.Pseudo == qa.Pseudo, nil
	}
	if qa.Expr == nil {
		return plainAtom(qa, ta, flags), nil
	}
	expr := qa.Expr
	var err error
	ok := expr.Eval(func(x *molecule.AtomExpr) bool {
		if err != nil {
			return false
		}
		r, e := am.leaf(x, t)
		if e != nil {
			err = e
		}
		return r
	}, func(x *molecule.AtomExpr) bool {
		return flags.Disables(x.Kind)
	})
	if err != nil {
		return false, err
	}
	return ok, nil
}

// plainAtom compares a query atom written without an expression: same
// element and charge; isotope and radical only when the query sets them.
func plainAtom(qa, ta *molecule.Atom, flags molecule.MatchFlags) bool {
	if ta.Kind != molecule.AtomRegular || qa.Number != ta.Number {
		return false
	}
	if flags&molecule.SkipCharge == 0 && qa.Charge != ta.Charge {
		return false
	}
	if qa.Isotope != 0 && flags&molecule.SkipIsotope == 0 && qa.Isotope != ta.Isotope {
		return false
	}
	if qa.Radical != 0 && flags&molecule.SkipRadical == 0 && qa.Radical != ta.Radical {
		return false
	}
	return true
}

func (am *atomMatcher) leaf(x *molecule.AtomExpr, t int) (bool, error) {
	ta := am.target.Atom(t)
	switch x.Kind {
	case molecule.ExprNumber:
		return ta.Kind == molecule.AtomRegular && ta.Number == x.Value, nil
	case molecule.ExprPseudo:
		return ta.Kind == molecule.AtomPseudo && ta.Pseudo == x.Name, nil
	case molecule.ExprAromatic:
		arom := t < len(am.aromatic) && am.aromatic[t]
		return arom == (x.Value != 0), nil
	case molecule.ExprFragment:
		return am.fragment(x, t)
	}
	return am.target.Property(x.Kind, t) == x.Value, nil
}

// fragment embeds x.Fragment with its first atom fixed on t.
func (am *atomMatcher) fragment(x *molecule.AtomExpr, t int) (bool, error) {
	if x.Fragment == nil || x.Fragment.VertexCount() == 0 {
		return true, nil
	}
	key := fragmentKey{atom: t, key: x.Name}
	if x.Name != "" {
		if v, ok := am.cache[key]; ok {
			am.stats.FragmentCacheHits++
			return v, nil
		}
	}
	am.stats.FragmentChecks++

	opts := DefaultOptions()
	opts.UseAromaticityMatcher = am.opts.UseAromaticityMatcher
	opts.NotIgnoreFirstAtom = true
	nested := New(am.target, WithOptions(opts))
	if am.parent != nil {
		nested.log = am.parent.log
	}
	if err := nested.SetQuery(x.Fragment); err != nil {
		return false, err
	}
	ok := false
	if nested.Fix(x.Fragment.Vertices()[0], t) {
		var err error
		if ok, err = nested.Find(); err != nil {
			return false, err
		}
	}
	if x.Name != "" {
		am.cache[key] = ok
	}
	return ok, nil
}

// MatchQueryAtom evaluates query atom qa against target atom ta.  flags
// disable leaf kinds; a disabled leaf never decides the outcome.  Fragment
// leaves run an uncached nested search.
func MatchQueryAtom(query, target *molecule.Molecule, qa, ta int, flags molecule.MatchFlags) (bool, error) {
	return NewAtomPredicate(query, target).Match(qa, ta, flags)
}

// AtomPredicate is MatchQueryAtom bound to one query/target pair.  Target
// aromaticity is perceived once and fragment verdicts are cached, so
// matchers evaluating many pairs keep one per target.
type AtomPredicate struct {
	am *atomMatcher
}

// NewAtomPredicate binds query and target.
func NewAtomPredicate(query, target *molecule.Molecule) *AtomPredicate {
	am := newAtomMatcher(query, target)
	am.opts = DefaultOptions()
	return &AtomPredicate{am: am}
}

// Match evaluates query atom qa against target atom ta.
func (p *AtomPredicate) Match(qa, ta int, flags molecule.MatchFlags) (bool, error) {
	return p.am.match(qa, ta, flags)
}

// MatchQueryBond reports whether query bond qe accepts target bond te
// literally: through its expression when it has one, else by equal order.
// Zero-order target bonds only match zero-order query bonds.
func MatchQueryBond(query, target *molecule.Molecule, qe, te int) bool {
	qb, tb := query.Bond(qe), target.Bond(te)
	if tb.Order == molecule.BondZero {
		return qb.Expr == nil && qb.Order == molecule.BondZero
	}
	if qb.Expr != nil {
		return qb.Expr.Eval(tb.Order, target.IsRingBond(te))
	}
	return qb.Order == tb.Order
}

// ShouldUnfoldTargetHydrogens reports whether some query hydrogen stays a
// mapped atom, so target hydrogens must exist as atoms to map it onto.
func ShouldUnfoldTargetHydrogens(query *molecule.Molecule, disableFolding bool) bool {
	used := constraintAtoms(query)
	for _, v := range query.Vertices() {
		if isQueryHydrogen(query, v) && keepsHydrogen(query, v, disableFolding, used, false) {
			return true
		}
	}
	return false
}

func isQueryHydrogen(q *molecule.Molecule, v int) bool {
	n, ok := q.QueryElement(v)
	return ok && n == molecule.ElemH
}

// keepsHydrogen decides whether query hydrogen v must be mapped rather
// than folded into its parent's hydrogen count.
func keepsHydrogen(q *molecule.Molecule, v int, disableFolding bool, used []int, protectFirst bool) bool {
	if disableFolding || q.NeedsExplicitHydrogens(v) {
		return true
	}
	if protectFirst && v == firstVertex(q) {
		return true
	}
	if v < len(used) && used[v] != 0 {
		return true
	}
	parent := q.Neighbors(v)[0].V
	return isQueryHydrogen(q, parent)
}

func constraintAtoms(q *molecule.Molecule) []int {
	used := make([]int, q.VertexEnd())
	q.Constraints.MarkUsedAtoms(used, 1)
	return used
}

func firstVertex(q *molecule.Molecule) int {
	for v := 0; v < q.VertexEnd(); v++ {
		if q.HasVertex(v) {
			return v
		}
	}
	return -1
}

// constraintsActive reports whether q carries 3D constraints to check.
func constraintsActive(q *molecule.Molecule) bool {
	return q != nil && !q.Constraints.Empty()
}

//Personal.AI order the ending
