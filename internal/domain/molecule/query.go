package molecule

import "fmt"

// AtomExprKind enumerates query atom expression nodes.
type AtomExprKind int

const (
	ExprAnd AtomExprKind = iota
	ExprOr
	ExprNot
	ExprTrue
	ExprNumber
	ExprIsotope
	ExprCharge
	ExprValence
	ExprRadical
	ExprConnectivity
	ExprTotalH
	ExprRingMembership
	ExprSmallestRing
	ExprRingBonds
	ExprSubstituents
	ExprAromatic
	ExprPseudo
	ExprFragment
)

var atomExprNames = map[AtomExprKind]string{
	ExprAnd: "and", ExprOr: "or", ExprNot: "not", ExprTrue: "true",
	ExprNumber: "number", ExprIsotope: "isotope", ExprCharge: "charge",
	ExprValence: "valence", ExprRadical: "radical", ExprConnectivity: "connectivity",
	ExprTotalH: "total-h", ExprRingMembership: "ring-membership",
	ExprSmallestRing: "smallest-ring", ExprRingBonds: "ring-bonds",
	ExprSubstituents: "substituents", ExprAromatic: "aromatic",
	ExprPseudo: "pseudo", ExprFragment: "fragment",
}

func (k AtomExprKind) String() string {
	if s, ok := atomExprNames[k]; ok {
		return s
	}
	return fmt.Sprintf("expr(%d)", int(k))
}

// AtomExpr is a boolean expression tree over atom properties.
type AtomExpr struct {
	Kind     AtomExprKind
	Value    int
	Name     string
	Fragment *Molecule
	Children []*AtomExpr
}

// MatchFlags disable groups of leaf conditions.  A disabled leaf evaluates
// to whatever keeps its enclosing expression satisfiable, so a later precise
// pass can recheck it.
type MatchFlags uint

const (
	SkipCharge MatchFlags = 1 << iota
	SkipIsotope
	SkipValence
	SkipRadical
	SkipH
	SkipFragment
	SkipAromaticity

	MatchAll MatchFlags = 0
)

// Disables reports whether the flags switch off leaf kind k.
func (f MatchFlags) Disables(k AtomExprKind) bool {
	switch k {
	case ExprCharge:
		return f&SkipCharge != 0
	case ExprIsotope:
		return f&SkipIsotope != 0
	case ExprValence:
		return f&SkipValence != 0
	case ExprRadical:
		return f&SkipRadical != 0
	case ExprTotalH:
		return f&SkipH != 0
	case ExprFragment:
		return f&SkipFragment != 0
	case ExprAromatic:
		return f&SkipAromaticity != 0
	}
	return false
}

// And combines expressions conjunctively.
func And(children ...*AtomExpr) *AtomExpr { return &AtomExpr{Kind: ExprAnd, Children: children} }

// Or combines expressions disjunctively.
func Or(children ...*AtomExpr) *AtomExpr { return &AtomExpr{Kind: ExprOr, Children: children} }

// Not negates x.
func Not(x *AtomExpr) *AtomExpr { return &AtomExpr{Kind: ExprNot, Children: []*AtomExpr{x}} }

// Leaf builds a property comparison.
func Leaf(kind AtomExprKind, value int) *AtomExpr { return &AtomExpr{Kind: kind, Value: value} }

// PseudoName matches pseudo atoms by label.
func PseudoName(name string) *AtomExpr { return &AtomExpr{Kind: ExprPseudo, Name: name} }

// FragmentLeaf requires the fragment to embed with its first atom on the
// candidate atom.  key identifies the fragment for result caching.
func FragmentLeaf(fragment *Molecule, key string) *AtomExpr {
	return &AtomExpr{Kind: ExprFragment, Fragment: fragment, Name: key}
}

// Eval evaluates the tree.  leaf decides enabled leaves; disabled leaves
// take the value of the current polarity, true under an even number of
// negations and false under an odd one.
func (x *AtomExpr) Eval(leaf func(*AtomExpr) bool, disabled func(*AtomExpr) bool) bool {
	return x.eval(leaf, disabled, true)
}

func (x *AtomExpr) eval(leaf func(*AtomExpr) bool, disabled func(*AtomExpr) bool, positive bool) bool {
	switch x.Kind {
	case ExprAnd:
		for _, c := range x.Children {
			if !c.eval(leaf, disabled, positive) {
				return false
			}
		}
		return true
	case ExprOr:
		for _, c := range x.Children {
			if c.eval(leaf, disabled, positive) {
				return true
			}
		}
		return len(x.Children) == 0
	case ExprNot:
		return !x.Children[0].eval(leaf, disabled, !positive)
	case ExprTrue:
		return true
	}
	if disabled != nil && disabled(x) {
		return positive
	}
	return leaf(x)
}

// Walk visits every node depth-first.
func (x *AtomExpr) Walk(fn func(*AtomExpr)) {
	if x == nil {
		return
	}
	fn(x)
	for _, c := range x.Children {
		c.Walk(fn)
	}
}

// Has reports whether any node has kind k.
func (x *AtomExpr) Has(k AtomExprKind) bool {
	found := false
	x.Walk(func(n *AtomExpr) {
		if n.Kind == k {
			found = true
		}
	})
	return found
}

// Definite returns the value a conjunctive tree pins for leaf kind k: a
// leaf of kind k at the root or directly under a chain of ANDs.
func (x *AtomExpr) Definite(k AtomExprKind) (int, bool) {
	if x == nil {
		return 0, false
	}
	switch x.Kind {
	case k:
		return x.Value, true
	case ExprAnd:
		for _, c := range x.Children {
			if v, ok := c.Definite(k); ok {
				return v, true
			}
		}
	}
	return 0, false
}

// Clone copies the tree; fragments are shared.
func (x *AtomExpr) Clone() *AtomExpr {
	if x == nil {
		return nil
	}
	c := *x
	c.Children = make([]*AtomExpr, len(x.Children))
	for i, ch := range x.Children {
		c.Children[i] = ch.Clone()
	}
	return &c
}

// ─────────────────────────────────────────────────────────────────────────────
// Bond expressions
// ─────────────────────────────────────────────────────────────────────────────

// BondExprKind enumerates query bond expression nodes.
type BondExprKind int

const (
	BondExprAnd BondExprKind = iota
	BondExprOr
	BondExprNot
	BondExprAny
	BondExprOrder
	BondExprTopology
)

// Bond topology values.
const (
	TopologyRing  = 1
	TopologyChain = 2
)

// BondExpr is a boolean expression tree over bond properties.
type BondExpr struct {
	Kind     BondExprKind
	Value    int
	Children []*BondExpr
}

// AnyBond matches every bond.
func AnyBond() *BondExpr { return &BondExpr{Kind: BondExprAny} }

// OrderIs matches a bond order.
func OrderIs(o BondOrder) *BondExpr { return &BondExpr{Kind: BondExprOrder, Value: int(o)} }

// OrderIn matches any of the given orders.
func OrderIn(orders ...BondOrder) *BondExpr {
	x := &BondExpr{Kind: BondExprOr}
	for _, o := range orders {
		x.Children = append(x.Children, OrderIs(o))
	}
	return x
}

// TopologyIs matches ring or chain bonds.
func TopologyIs(t int) *BondExpr { return &BondExpr{Kind: BondExprTopology, Value: t} }

// BondAnd combines bond expressions conjunctively.
func BondAnd(children ...*BondExpr) *BondExpr {
	return &BondExpr{Kind: BondExprAnd, Children: children}
}

// BondNot negates x.
func BondNot(x *BondExpr) *BondExpr { return &BondExpr{Kind: BondExprNot, Children: []*BondExpr{x}} }

// Eval evaluates the tree for a bond of the given order and ring state.
func (x *BondExpr) Eval(order BondOrder, inRing bool) bool {
	switch x.Kind {
	case BondExprAnd:
		for _, c := range x.Children {
			if !c.Eval(order, inRing) {
				return false
			}
		}
		return true
	case BondExprOr:
		for _, c := range x.Children {
			if c.Eval(order, inRing) {
				return true
			}
		}
		return len(x.Children) == 0
	case BondExprNot:
		return !x.Children[0].Eval(order, inRing)
	case BondExprAny:
		return true
	case BondExprOrder:
		return BondOrder(x.Value) == order
	case BondExprTopology:
		return (x.Value == TopologyRing) == inRing
	}
	return false
}

// AcceptsOrder reports whether some ring state lets the tree accept order.
func (x *BondExpr) AcceptsOrder(order BondOrder) bool {
	return x.Eval(order, true) || x.Eval(order, false)
}

// Topology returns the topology a conjunctive tree requires, 0 for none.
func (x *BondExpr) Topology() int {
	switch x.Kind {
	case BondExprTopology:
		return x.Value
	case BondExprAnd:
		for _, c := range x.Children {
			if t := c.Topology(); t != 0 {
				return t
			}
		}
	}
	return 0
}

// ─────────────────────────────────────────────────────────────────────────────
// Property extraction
// ─────────────────────────────────────────────────────────────────────────────

// Property returns the value of leaf kind k on atom v.  ExprRingMembership
// is the number of rings, ExprAromatic 1 or 0.
func (m *Molecule) Property(k AtomExprKind, v int) int {
	a := &m.atoms[v]
	switch k {
	case ExprNumber:
		return a.Number
	case ExprIsotope:
		return a.Isotope
	case ExprCharge:
		return a.Charge
	case ExprValence:
		return m.Valence(v)
	case ExprRadical:
		return a.Radical
	case ExprConnectivity:
		return m.Connectivity(v)
	case ExprTotalH:
		return m.TotalH(v)
	case ExprRingMembership:
		return m.RingMembership(v)
	case ExprSmallestRing:
		return m.SmallestRing(v)
	case ExprRingBonds:
		return m.RingBondCount(v)
	case ExprSubstituents:
		return m.HeavyDegree(v)
	case ExprAromatic:
		if m.IsAromaticAtom(v) {
			return 1
		}
		return 0
	}
	return 0
}

// IsAromaticAtom reports whether v carries an aromatic bond or flag.
func (m *Molecule) IsAromaticAtom(v int) bool {
	if m.atoms[v].Aromatic {
		return true
	}
	for _, nb := range m.g.Neighbors(v) {
		if m.bonds[nb.E].Order == BondAromatic {
			return true
		}
	}
	return false
}

// QueryElement returns the element a query atom is pinned to, if any.
func (m *Molecule) QueryElement(v int) (int, bool) {
	a := &m.atoms[v]
	if a.Kind != AtomRegular {
		return 0, false
	}
	if a.Expr == nil {
		return a.Number, true
	}
	return a.Expr.Definite(ExprNumber)
}

// IsQuery reports whether any atom or bond carries an expression.
func (m *Molecule) IsQuery() bool {
	for _, v := range m.g.Vertices() {
		if m.atoms[v].Expr != nil || m.atoms[v].Kind != AtomRegular {
			return true
		}
	}
	for _, e := range m.g.Edges() {
		if m.bonds[e].Expr != nil {
			return true
		}
	}
	return false
}

//Personal.AI order the ending
