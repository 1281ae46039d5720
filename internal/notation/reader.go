package notation

import (
	"strconv"
	"strings"

	"github.com/turtacn/molmatch/internal/domain/molecule"
	"github.com/turtacn/molmatch/pkg/errors"
)

type openRing struct {
	atom int
	bond string
	slot int
}

type directional struct {
	from, to int
	up       bool
}

type doubleBond struct {
	edge, beg, end int
}

// reader turns a parsed line into a molecule.
type reader struct {
	query bool
	m     *molecule.Molecule

	rings map[string]*openRing
	// order lists the neighbours of every atom as written, -1 for the
	// bracket hydrogen, for chirality.
	order   map[int][]int
	chiral  map[int]bool // true for "@@"
	hasPrev map[int]bool
	// explicitH holds bracket H counts; organic atoms are absent.
	explicitH map[int]int
	dirs      []directional
	doubles   []doubleBond
}

func newReader(query bool) *reader {
	return &reader{
		query:     query,
		m:         molecule.New(),
		rings:     make(map[string]*openRing),
		order:     make(map[int][]int),
		chiral:    make(map[int]bool),
		hasPrev:   make(map[int]bool),
		explicitH: make(map[int]int),
	}
}

func (r *reader) read(mix *lineMixture) (*molecule.Molecule, error) {
	for _, c := range mix.Components {
		if err := r.chain(c, -1, ""); err != nil {
			return nil, err
		}
	}
	if len(r.rings) > 0 {
		var open []string
		for digit := range r.rings {
			open = append(open, digit)
		}
		return nil, errors.New(errors.ErrCodeNotationRingBond, "ring bond is never closed").
			WithDetail(strings.Join(open, ","))
	}
	for _, v := range r.m.Vertices() {
		if _, ok := r.explicitH[v]; !ok {
			r.m.Atom(v).ImplicitH = r.implicitH(v)
		}
		if r.m.IsRSite(v) {
			r.m.Atom(v).AttachOrder = r.heavyOrder(v)
		}
	}
	r.stereocenters()
	r.cisTrans()
	return r.m, nil
}

func (r *reader) chain(c *lineChain, prev int, bond string) error {
	cur, err := r.atom(c.Head)
	if err != nil {
		return err
	}
	if prev >= 0 {
		if err := r.connect(prev, cur, bond, true); err != nil {
			return err
		}
		r.hasPrev[cur] = true
	}
	r.bracketHydrogen(cur)
	for _, item := range c.Tail {
		switch {
		case item.Branch != nil:
			if err := r.chain(item.Branch.Chain, cur, item.Branch.Bond); err != nil {
				return err
			}
		case item.Bonded.Ring != "":
			if err := r.ringBond(cur, item.Bonded.Ring, item.Bonded.Bond); err != nil {
				return err
			}
		default:
			next, err := r.atom(item.Bonded.Atom)
			if err != nil {
				return err
			}
			if err := r.connect(cur, next, item.Bonded.Bond, true); err != nil {
				return err
			}
			r.hasPrev[next] = true
			r.bracketHydrogen(next)
			cur = next
		}
	}
	return nil
}

// bracketHydrogen puts the hydrogen of a chiral bracket atom right after the
// preceding atom in the neighbour order.
func (r *reader) bracketHydrogen(v int) {
	if _, ok := r.chiral[v]; ok && r.explicitH[v] == 1 {
		r.order[v] = append(r.order[v], -1)
	}
}

func (r *reader) ringBond(v int, digit, bond string) error {
	open, ok := r.rings[digit]
	if !ok {
		r.order[v] = append(r.order[v], -2)
		r.rings[digit] = &openRing{atom: v, bond: bond, slot: len(r.order[v]) - 1}
		return nil
	}
	delete(r.rings, digit)
	if open.atom == v {
		return errors.New(errors.ErrCodeNotationRingBond, "ring bond closes on its own atom").WithDetail(digit)
	}
	if bond != "" && open.bond != "" && bond != open.bond {
		return errors.New(errors.ErrCodeNotationRingBond, "conflicting ring bond symbols").WithDetail(digit)
	}
	if bond == "" {
		bond = open.bond
	}
	if err := r.connect(open.atom, v, bond, false); err != nil {
		return err
	}
	// connect appended v to the opener's order; move it into the reserved slot.
	ord := r.order[open.atom]
	ord[open.slot] = v
	r.order[open.atom] = ord[:len(ord)-1]
	return nil
}

func (r *reader) connect(a, b int, sym string, track bool) error {
	if r.m.FindEdge(a, b) >= 0 {
		return errors.New(errors.ErrCodeNotationRingBond, "atoms are bonded twice").
			WithDetailf("%d-%d", a, b)
	}
	bond := molecule.Bond{Order: molecule.BondSingle}
	switch sym {
	case "":
		if r.m.Atom(a).Aromatic && r.m.Atom(b).Aromatic {
			bond.Order = molecule.BondAromatic
		}
	case "-", "/", "\\":
	case "=":
		bond.Order = molecule.BondDouble
	case "#":
		bond.Order = molecule.BondTriple
	case ":":
		bond.Order = molecule.BondAromatic
	case "~":
		if !r.query {
			return errors.New(errors.ErrCodeNotationSyntax, "any-bond is only allowed in queries")
		}
		bond.Expr = molecule.AnyBond()
	}
	e, err := r.m.AddQueryBond(a, b, bond)
	if err != nil {
		return err
	}
	r.order[a] = append(r.order[a], b)
	r.order[b] = append(r.order[b], a)
	if !track {
		return nil
	}
	switch sym {
	case "/", "\\":
		r.dirs = append(r.dirs, directional{from: a, to: b, up: sym == "/"})
	case "=":
		r.doubles = append(r.doubles, doubleBond{edge: e, beg: a, end: b})
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Atoms
// ─────────────────────────────────────────────────────────────────────────────

func (r *reader) atom(tok *lineAtom) (int, error) {
	if tok.Organic != "" {
		return r.organic(tok.Organic), nil
	}
	return r.bracket(tok)
}

func (r *reader) organic(sym string) int {
	if sym == "*" {
		return r.m.AddAtom(molecule.Atom{Kind: molecule.AtomAny})
	}
	n, _ := molecule.ElementBySymbol(sym)
	return r.m.AddAtom(molecule.Atom{
		Number:   n,
		Aromatic: strings.ToLower(sym) == sym,
	})
}

func (r *reader) bracket(tok *lineAtom) (int, error) {
	inner := tok.Bracket[1 : len(tok.Bracket)-1]
	b, err := bracketParser.ParseString("", inner)
	if err != nil {
		return -1, errors.Wrap(err, errors.ErrCodeNotationSyntax, "invalid bracket atom").
			WithDetailf("%s at column %d", tok.Bracket, tok.Pos.Column)
	}
	var a molecule.Atom
	var leaves []*molecule.AtomExpr

	switch {
	case len(b.Pseudo) > 0:
		a.Kind = molecule.AtomPseudo
		a.Pseudo = strings.Join(b.Pseudo, "")
	case b.Symbol == "*":
		a.Kind = molecule.AtomAny
	case b.Symbol == "R":
		a.Kind = molecule.AtomRSite
		for _, g := range b.Groups {
			a.RSites = append(a.RSites, atoi(g))
		}
		if len(a.RSites) == 0 {
			a.RSites = []int{1}
		}
	case b.Number != "":
		a.Number = atoi(b.Number)
		leaves = append(leaves, molecule.Leaf(molecule.ExprNumber, a.Number))
	default:
		n, ok := molecule.ElementBySymbol(b.Symbol)
		if !ok {
			return -1, errors.New(errors.ErrCodeNotationElement, "unknown element symbol").WithDetail(b.Symbol)
		}
		a.Number = n
		leaves = append(leaves, molecule.Leaf(molecule.ExprNumber, n))
		if strings.ToLower(b.Symbol) == b.Symbol {
			a.Aromatic = true
			leaves = append(leaves, molecule.Leaf(molecule.ExprAromatic, 1))
		}
	}
	if len(b.Groups) > 0 && a.Kind != molecule.AtomRSite {
		return -1, errors.New(errors.ErrCodeNotationSyntax, "group numbers are only valid on R-sites").WithDetail(tok.Bracket)
	}
	if b.Isotope != "" {
		a.Isotope = atoi(b.Isotope)
		leaves = append(leaves, molecule.Leaf(molecule.ExprIsotope, a.Isotope))
	}
	if len(b.Charge) > 0 {
		c, err := charge(b.Charge, b.Amount)
		if err != nil {
			return -1, err
		}
		a.Charge = c
		leaves = append(leaves, molecule.Leaf(molecule.ExprCharge, c))
	} else if b.Amount != "" {
		return -1, errors.New(errors.ErrCodeNotationSyntax, "charge amount without sign").WithDetail(tok.Bracket)
	}
	h := 0
	if b.H != nil {
		h = 1
		if b.H.Count != "" {
			h = atoi(b.H.Count)
		}
		leaves = append(leaves, molecule.Leaf(molecule.ExprTotalH, h))
	}
	a.ImplicitH = h
	if b.Class != nil {
		a.AAM = atoi(b.Class.Label)
	}
	if r.query && a.Kind == molecule.AtomRegular && len(leaves) > 0 {
		if len(leaves) == 1 {
			a.Expr = leaves[0]
		} else {
			a.Expr = molecule.And(leaves...)
		}
	}

	v := r.m.AddAtom(a)
	r.explicitH[v] = h
	switch len(b.Chiral) {
	case 0:
	case 1:
		r.chiral[v] = false
	case 2:
		r.chiral[v] = true
	default:
		return -1, errors.New(errors.ErrCodeNotationSyntax, "unsupported chirality class").WithDetail(tok.Bracket)
	}
	return v, nil
}

func charge(signs []string, amount string) (int, error) {
	for _, s := range signs[1:] {
		if s != signs[0] {
			return 0, errors.New(errors.ErrCodeNotationSyntax, "mixed charge signs")
		}
	}
	n := len(signs)
	if amount != "" {
		if n > 1 {
			return 0, errors.New(errors.ErrCodeNotationSyntax, "charge amount after repeated signs")
		}
		n = atoi(amount)
	}
	if signs[0] == "-" {
		n = -n
	}
	return n, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// implicitH fills organic-subset atoms up to the lowest standard valence
// that fits.  An aromatic atom of the carbon or nitrogen groups spends one
// extra unit on its share of the delocalised double bond.
func (r *reader) implicitH(v int) int {
	a := r.m.Atom(v)
	if a.Kind != molecule.AtomRegular {
		return 0
	}
	vals := molecule.StandardValences(a.Number)
	if vals == nil {
		return 0
	}
	used, aromatic := 0, 0
	for _, nb := range r.m.Neighbors(v) {
		switch o := r.m.Bond(nb.E).Order; o {
		case molecule.BondAromatic:
			aromatic++
		default:
			used += int(o)
		}
	}
	used += aromatic
	if a.Aromatic {
		switch a.Number {
		case molecule.ElemB, molecule.ElemC, molecule.ElemN, molecule.ElemP, molecule.ElemAs:
			used++
		}
	}
	for _, val := range vals {
		if val >= used {
			return val - used
		}
	}
	return 0
}

func (r *reader) heavyOrder(v int) []int {
	var out []int
	for _, n := range r.order[v] {
		if n >= 0 {
			out = append(out, n)
		}
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Stereo
// ─────────────────────────────────────────────────────────────────────────────

func (r *reader) stereocenters() {
	for v, clockwise := range r.chiral {
		nbrs := append([]int(nil), r.order[v]...)
		if len(nbrs) == 3 && r.explicitH[v] == 0 {
			// lone pair takes the place a hydrogen would
			at := 0
			if r.hasPrev[v] {
				at = 1
			}
			nbrs = append(nbrs[:at], append([]int{-1}, nbrs[at:]...)...)
		}
		if len(nbrs) != 4 {
			continue
		}
		var p [4]int
		copy(p[:], nbrs)
		if clockwise {
			p[2], p[3] = p[3], p[2]
		}
		r.m.AddStereocenter(v, molecule.Stereocenter{Type: molecule.StereoAbs, Pyramid: p})
	}
}

// cisTrans resolves "/" and "\" marks around every double bond written in
// the chain.  Marks are normalised to "substituent before the first double
// bond atom" and "second double bond atom before substituent"; equal marks
// then mean trans.
func (r *reader) cisTrans() {
	for _, d := range r.doubles {
		s1, up1, ok1 := r.mark(d.beg, d.end, true)
		s2, up2, ok2 := r.mark(d.end, d.beg, false)
		if !ok1 || !ok2 {
			continue
		}
		ct := molecule.CisTrans{
			Parity: molecule.Cis,
			Subst:  [4]int{s1, r.otherSubstituent(d.beg, d.end, s1), s2, r.otherSubstituent(d.end, d.beg, s2)},
		}
		if up1 == up2 {
			ct.Parity = molecule.Trans
		}
		r.m.SetCisTrans(d.edge, ct)
	}
}

func (r *reader) mark(center, partner int, before bool) (int, bool, bool) {
	for _, d := range r.dirs {
		switch {
		case d.to == center && d.from != partner:
			return d.from, d.up == before, true
		case d.from == center && d.to != partner:
			return d.to, d.up != before, true
		}
	}
	return -1, false, false
}

func (r *reader) otherSubstituent(center, partner, first int) int {
	for _, nb := range r.m.Neighbors(center) {
		if nb.V != partner && nb.V != first {
			return nb.V
		}
	}
	return -1
}

//Personal.AI order the ending
