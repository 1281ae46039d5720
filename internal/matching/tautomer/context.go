package tautomer

import (
	"sort"

	"github.com/turtacn/molmatch/internal/domain/molecule"
	"github.com/turtacn/molmatch/internal/graph/embedding"
	"github.com/turtacn/molmatch/internal/matching/substructure"
)

// pairKind classifies a bond entering the hydrogen balance.
type pairKind int

const (
	// pairMapped is a query bond, real or virtual, lying on a target bond.
	pairMapped pairKind = iota
	// pairExtra is a target bond at a mapped atom that the query does not
	// describe.  It stands for hydrogens the query atom carries.
	pairExtra
)

// bondPair is one bond of the balance with its candidate orders on each side
// and the orders chosen by the current resolution.
type bondPair struct {
	kind    pairKind
	qe, te  int
	qa, qb  int
	qOrders []molecule.BondOrder
	tOrders []molecule.BondOrder
	qOracle bool
	tOracle bool
	oq, ot  molecule.BondOrder
	decided bool
}

func (p *bondPair) delta() int {
	return int(p.oq) - int(p.ot)
}

func (p *bondPair) other(v int) int {
	if p.qa == v {
		return p.qb
	}
	return p.qa
}

type orderChoice struct {
	oq, ot molecule.BondOrder
}

// candidates lists the order choices of p, unchanged orders first.
func (p *bondPair) candidates() []orderChoice {
	var out []orderChoice
	for _, oq := range p.qOrders {
		for _, ot := range p.tOrders {
			d := int(oq) - int(ot)
			if p.kind == pairMapped && (d < -1 || d > 1) {
				continue
			}
			out = append(out, orderChoice{oq: oq, ot: ot})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return abs(int(out[i].oq)-int(out[i].ot)) < abs(int(out[j].oq)-int(out[j].ot))
	})
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

var (
	kekuleOrders = []molecule.BondOrder{molecule.BondSingle, molecule.BondDouble}
	zeroOrder    = []molecule.BondOrder{molecule.BondZero}
)

// SearchContext is the state of one tautomer search: the two
// super-structures, the current mapping, chain marks on the target, the
// dearomatization oracles and the hydrogen replacement counts.
type SearchContext struct {
	Query  *SuperStructure
	Target *SuperStructure
	// Core1 maps query atoms to target atoms and Core2 the reverse; -1
	// marks unmapped atoms.
	Core1, Core2 []int
	// Chains2 marks target atoms lying on an accepted chain with
	// (chain+1)<<16 | position, zero elsewhere.
	Chains2      []int
	QueryDearom  *molecule.Dearomatizer
	TargetDearom *molecule.Dearomatizer
	// HRepCount counts, per target atom, coordination bonds that may
	// stand in for a hydrogen.
	HRepCount []int

	conds        Conditions
	substructure bool
	atoms        *substructure.AtomPredicate

	pairs   []*bondPair
	open    []*bondPair
	base    []int
	resid   []int
	pending []int
	dh      []int
	chains  []Chain
}

// NewSearchContext prepares a search of query against target.
func NewSearchContext(query, target *SuperStructure, conds Conditions, substructureMode bool) *SearchContext {
	c := &SearchContext{
		Query:        query,
		Target:       target,
		QueryDearom:  molecule.NewDearomatizer(query.Molecule),
		TargetDearom: molecule.NewDearomatizer(target.Molecule),
		HRepCount:    make([]int, target.VertexEnd()),
		conds:        conds,
		substructure: substructureMode,
		atoms:        substructure.NewAtomPredicate(query.Molecule, target.Molecule),
	}
	for _, e := range target.Edges() {
		if target.Bond(e).Order == molecule.BondZero && !target.IsVirtual(e) {
			ed := target.Edge(e)
			c.HRepCount[ed.Beg]++
			c.HRepCount[ed.End]++
		}
	}
	return c
}

// Chains returns the chains of the last accepted embedding.
func (c *SearchContext) Chains() []Chain {
	return c.chains
}

// hydrogenBase is the hydrogen surplus of query atom q over target atom t
// before substituents the query leaves out are accounted for.
func (c *SearchContext) hydrogenBase(q, t int) int {
	d := c.Query.TotalH(q) - c.Target.TotalH(t)
	if !c.conds.ForceHydrogens {
		d -= c.HRepCount[t]
	}
	return d
}

// realDegree counts heavy neighbours over non-virtual bonds.
func realDegree(s *SuperStructure, v int) int {
	n := 0
	for _, nb := range s.Neighbors(v) {
		if !s.IsVirtual(nb.E) && !s.IsHydrogen(nb.V) {
			n++
		}
	}
	return n
}

// isFeasiblePair is the atom-level filter of the direct phase: compatible
// atoms whose hydrogen counts differ by at most one.
func (c *SearchContext) isFeasiblePair(q, t int) (bool, error) {
	ok, err := c.atoms.Match(q, t, molecule.SkipH|molecule.SkipValence|molecule.SkipAromaticity)
	if err != nil || !ok {
		return false, err
	}
	d := c.hydrogenBase(q, t)
	if c.substructure {
		return d >= -1, nil
	}
	if d < -1 || d > 1 {
		return false, nil
	}
	if !c.conds.RingChain && realDegree(c.Query, q) != realDegree(c.Target, t) {
		return false, nil
	}
	return true, nil
}

func (c *SearchContext) queryOrders(e int) ([]molecule.BondOrder, bool) {
	if c.Query.IsVirtual(e) {
		return zeroOrder, false
	}
	b := c.Query.Bond(e)
	if b.Expr != nil {
		var out []molecule.BondOrder
		anyArom := b.Expr.AcceptsOrder(molecule.BondAromatic)
		for _, o := range []molecule.BondOrder{molecule.BondSingle, molecule.BondDouble, molecule.BondTriple} {
			if b.Expr.AcceptsOrder(o) || (anyArom && o != molecule.BondTriple) {
				out = append(out, o)
			}
		}
		return out, false
	}
	if b.Order == molecule.BondAromatic {
		return kekuleOrders, true
	}
	return []molecule.BondOrder{b.Order}, false
}

func (c *SearchContext) targetOrders(e int) ([]molecule.BondOrder, bool) {
	if c.Target.IsVirtual(e) {
		return zeroOrder, false
	}
	b := c.Target.Bond(e)
	if b.Order == molecule.BondAromatic {
		return kekuleOrders, true
	}
	return []molecule.BondOrder{b.Order}, false
}

// isFeasibleBond accepts bond pairs whose orders can differ by at most one.
// Coordination bonds only match coordination bonds, and a virtual target
// bond only a single query bond.
func (c *SearchContext) isFeasibleBond(qe, te int) bool {
	qo, _ := c.queryOrders(qe)
	to, _ := c.targetOrders(te)
	if c.Target.IsVirtual(te) {
		return containsOrder(qo, molecule.BondSingle)
	}
	qZero := containsOrder(qo, molecule.BondZero)
	tZero := containsOrder(to, molecule.BondZero)
	if qZero || tZero {
		return qZero && tZero
	}
	for _, a := range qo {
		for _, b := range to {
			if d := int(a) - int(b); d >= -1 && d <= 1 {
				return true
			}
		}
	}
	return false
}

func containsOrder(list []molecule.BondOrder, o molecule.BondOrder) bool {
	for _, x := range list {
		if x == o {
			return true
		}
	}
	return false
}

// ─────────────────────────────────────────────────────────────────────────────
// Remainder embedding
// ─────────────────────────────────────────────────────────────────────────────

// remainderEmbedding decides a complete atom mapping: every target bond at
// a mapped atom must be accounted for, bond orders are resolved so every
// atom balances its hydrogens, and the changed bonds must split into chains
// the conditions allow.
func (c *SearchContext) remainderEmbedding(coreSub, coreSuper []embedding.Slot) (bool, error) {
	c.setCores(coreSub, coreSuper)
	if !c.collectPairs() {
		return false, nil
	}
	c.base = make([]int, c.Query.VertexEnd())
	c.resid = make([]int, c.Query.VertexEnd())
	c.pending = make([]int, c.Query.VertexEnd())
	for q, t := range c.Core1 {
		if t >= 0 {
			c.base[q] = c.hydrogenBase(q, t)
			c.resid[q] = c.base[q]
		}
	}
	c.open = c.open[:0]
	for _, p := range c.pairs {
		if len(p.qOrders) == 1 && len(p.tOrders) == 1 && !p.qOracle && !p.tOracle {
			d := int(p.qOrders[0]) - int(p.tOrders[0])
			if p.kind == pairMapped && (d < -1 || d > 1) {
				return false, nil
			}
			c.apply(p, orderChoice{oq: p.qOrders[0], ot: p.tOrders[0]}, 1)
			continue
		}
		c.open = append(c.open, p)
		c.pending[p.qa]++
		if p.qb >= 0 {
			c.pending[p.qb]++
		}
	}
	for q, t := range c.Core1 {
		if t >= 0 && c.pending[q] == 0 && c.resid[q] != 0 {
			return false, nil
		}
	}
	return c.resolve(0)
}

func (c *SearchContext) setCores(coreSub, coreSuper []embedding.Slot) {
	c.Core1 = make([]int, len(coreSub))
	for i, s := range coreSub {
		c.Core1[i] = s.Index()
	}
	c.Core2 = make([]int, len(coreSuper))
	for i, s := range coreSuper {
		c.Core2[i] = s.Index()
	}
	c.Chains2 = make([]int, len(coreSuper))
}

// collectPairs builds the balance bonds.  It reports false when a target
// bond at a mapped atom cannot be accounted for in exact mode.
func (c *SearchContext) collectPairs() bool {
	c.pairs = c.pairs[:0]
	covered := make(map[int]bool)
	for _, e := range c.Query.Edges() {
		ed := c.Query.Edge(e)
		ta, tb := c.Core1[ed.Beg], c.Core1[ed.End]
		if ta < 0 || tb < 0 {
			continue
		}
		te := c.Target.FindEdge(ta, tb)
		if te < 0 {
			continue
		}
		if c.Query.IsVirtual(e) && c.Target.IsVirtual(te) {
			continue
		}
		p := &bondPair{kind: pairMapped, qe: e, te: te, qa: ed.Beg, qb: ed.End}
		p.qOrders, p.qOracle = c.queryOrders(e)
		p.tOrders, p.tOracle = c.targetOrders(te)
		c.pairs = append(c.pairs, p)
		covered[te] = true
	}
	for t, q := range c.Core2 {
		if q < 0 || !c.Target.HasVertex(t) {
			continue
		}
		for _, nb := range c.Target.Neighbors(t) {
			if covered[nb.E] || c.Target.IsVirtual(nb.E) || c.Target.IsHydrogen(nb.V) {
				continue
			}
			if c.Target.Bond(nb.E).Order == molecule.BondZero {
				continue
			}
			if !c.substructure {
				return false
			}
			covered[nb.E] = true
			p := &bondPair{kind: pairExtra, qe: -1, te: nb.E, qa: q, qb: -1, qOrders: zeroOrder}
			if nb.V < len(c.Core2) {
				p.qb = c.Core2[nb.V]
			}
			p.tOrders, p.tOracle = c.targetOrders(nb.E)
			c.pairs = append(c.pairs, p)
		}
	}
	return true
}

// apply adds (sign 1) or removes (sign -1) the contribution of a choice.
func (c *SearchContext) apply(p *bondPair, ch orderChoice, sign int) {
	p.oq, p.ot = ch.oq, ch.ot
	p.decided = sign > 0
	d := int(ch.oq) - int(ch.ot)
	c.resid[p.qa] += sign * d
	if p.qb >= 0 {
		c.resid[p.qb] += sign * d
	}
}

// settled checks the ends of p once all their bonds are decided.
func (c *SearchContext) settled(p *bondPair) bool {
	if c.pending[p.qa] == 0 && c.resid[p.qa] != 0 {
		return false
	}
	return p.qb < 0 || c.pending[p.qb] != 0 || c.resid[p.qb] == 0
}

// resolve chooses orders for the open bonds in turn.  Aromatic orders are
// fixed through the oracles and released on the way back.
func (c *SearchContext) resolve(i int) (bool, error) {
	if i == len(c.open) {
		return c.finish()
	}
	p := c.open[i]
	for _, ch := range p.candidates() {
		ok, err := c.try(i, p, ch)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

func (c *SearchContext) try(i int, p *bondPair, ch orderChoice) (bool, error) {
	var releases []func()
	defer func() {
		for k := len(releases) - 1; k >= 0; k-- {
			releases[k]()
		}
	}()
	if p.qOracle {
		r := c.QueryDearom.Fix(p.qe, ch.oq)
		if r == nil {
			return false, nil
		}
		releases = append(releases, r)
	}
	if p.tOracle {
		r := c.TargetDearom.Fix(p.te, ch.ot)
		if r == nil {
			return false, nil
		}
		releases = append(releases, r)
	}
	c.apply(p, ch, 1)
	c.pending[p.qa]--
	if p.qb >= 0 {
		c.pending[p.qb]--
	}
	defer func() {
		c.pending[p.qa]++
		if p.qb >= 0 {
			c.pending[p.qb]++
		}
		c.apply(p, ch, -1)
	}()
	if !c.settled(p) {
		return false, nil
	}
	return c.resolve(i + 1)
}

// finish runs once every order is chosen.
func (c *SearchContext) finish() (bool, error) {
	c.dh = make([]int, len(c.base))
	copy(c.dh, c.base)
	for _, p := range c.pairs {
		if p.kind != pairExtra {
			continue
		}
		c.dh[p.qa] -= int(p.ot)
		if p.qb >= 0 {
			c.dh[p.qb] -= int(p.ot)
		}
	}
	chains, ok := newChainFinder(c).Find()
	if !ok {
		return false, nil
	}
	for i := range chains {
		if !c.ruleAllowed(chains[i].Rule) {
			return false, nil
		}
	}
	if !c.checkInterPathBonds(chains) {
		return false, nil
	}
	if c.substructure {
		ok, err := (&ChainChecker{ctx: c}).Check(chains)
		if err != nil || !ok {
			return false, err
		}
	}
	c.chains = chains
	return true, nil
}

func (c *SearchContext) ruleAllowed(r Rule) bool {
	return c.conds.Rules&r != 0
}

//Personal.AI order the ending
