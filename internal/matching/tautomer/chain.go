package tautomer

import (
	"github.com/turtacn/molmatch/internal/domain/molecule"
	"github.com/turtacn/molmatch/internal/matching/substructure"
	"github.com/turtacn/molmatch/pkg/errors"
)

// Chain is one mobile-hydrogen path of the query.  The hydrogen leaves
// Atoms[0] and arrives at the last atom; the bonds along the path change
// order by one, alternately down and up.
type Chain struct {
	Atoms       []int `json:"atoms"`
	Bonds       []int `json:"bonds"`
	TargetAtoms []int `json:"target_atoms"`
	Rule        Rule  `json:"rule"`
}

// Length is the number of double bonds the shift moves.
func (ch Chain) Length() int {
	return len(ch.Bonds) / 2
}

// Donor returns the query atom losing the hydrogen.
func (ch Chain) Donor() int { return ch.Atoms[0] }

// Acceptor returns the query atom gaining the hydrogen.
func (ch Chain) Acceptor() int { return ch.Atoms[len(ch.Atoms)-1] }

// ─────────────────────────────────────────────────────────────────────────────
// ChainFinder
// ─────────────────────────────────────────────────────────────────────────────

// ChainFinder splits the bonds whose order changed into chains, walking
// from every hydrogen donor through alternating changes until an acceptor
// takes the hydrogen.
type ChainFinder struct {
	ctx    *SearchContext
	byAtom map[int][]*bondPair
	used   map[*bondPair]bool
	left   []int
}

func newChainFinder(ctx *SearchContext) *ChainFinder {
	f := &ChainFinder{
		ctx:    ctx,
		byAtom: make(map[int][]*bondPair),
		used:   make(map[*bondPair]bool),
		left:   append([]int(nil), ctx.dh...),
	}
	for _, p := range ctx.pairs {
		if p.kind == pairMapped && p.delta() != 0 {
			f.byAtom[p.qa] = append(f.byAtom[p.qa], p)
			f.byAtom[p.qb] = append(f.byAtom[p.qb], p)
		}
	}
	return f
}

// Find returns the chains, or false when the changes do not decompose.
func (f *ChainFinder) Find() ([]Chain, bool) {
	var chains []Chain
	if !f.decompose(&chains) {
		return nil, false
	}
	return chains, true
}

// decompose starts a chain at the first donor still holding a hydrogen.
// A walk that strands a later donor is undone and the next branch tried.
func (f *ChainFinder) decompose(chains *[]Chain) bool {
	donor := -1
	for v, d := range f.left {
		if d > 0 {
			donor = v
			break
		}
	}
	if donor < 0 {
		for _, d := range f.left {
			if d != 0 {
				return false
			}
		}
		return true
	}
	ch := Chain{Atoms: []int{donor}}
	return f.extend(chains, &ch, donor, -1)
}

// extend grows ch from cur over unused bonds whose order changed by want.
func (f *ChainFinder) extend(chains *[]Chain, ch *Chain, cur, want int) bool {
	for _, p := range f.byAtom[cur] {
		if f.used[p] || p.delta() != want {
			continue
		}
		u := p.other(cur)
		f.used[p] = true
		ch.Atoms = append(ch.Atoms, u)
		ch.Bonds = append(ch.Bonds, p.qe)
		if want == 1 && f.left[u] < 0 && f.close(chains, *ch, u) {
			return true
		}
		if f.extend(chains, ch, u, -want) {
			return true
		}
		ch.Atoms = ch.Atoms[:len(ch.Atoms)-1]
		ch.Bonds = ch.Bonds[:len(ch.Bonds)-1]
		f.used[p] = false
	}
	return false
}

// close ends ch at acceptor and decomposes the remaining changes.
func (f *ChainFinder) close(chains *[]Chain, ch Chain, acceptor int) bool {
	donor := ch.Atoms[0]
	f.left[donor]--
	f.left[acceptor]++
	out := Chain{
		Atoms:       append([]int(nil), ch.Atoms...),
		Bonds:       append([]int(nil), ch.Bonds...),
		TargetAtoms: make([]int, len(ch.Atoms)),
		Rule:        ruleOf(f.ctx.Query.element(donor), f.ctx.Query.element(acceptor)),
	}
	for i, v := range out.Atoms {
		out.TargetAtoms[i] = f.ctx.Core1[v]
	}
	*chains = append(*chains, out)
	if f.decompose(chains) {
		return true
	}
	*chains = (*chains)[:len(*chains)-1]
	f.left[donor]++
	f.left[acceptor]--
	return false
}

// ruleOf classifies a chain by its endpoint elements.
func ruleOf(a, b int) Rule {
	ca, cb := a == molecule.ElemC, b == molecule.ElemC
	switch {
	case ca && cb:
		return RuleCarbonCarbon
	case ca || cb:
		return RuleCarbonHetero
	}
	return RuleHeteroHetero
}

// checkInterPathBonds marks the chains on the target and rejects bonds
// between chain atoms that changed order without belonging to a chain.
func (c *SearchContext) checkInterPathBonds(chains []Chain) bool {
	for i := range c.Chains2 {
		c.Chains2[i] = 0
	}
	inChain := make(map[int]bool)
	for i, ch := range chains {
		for pos, t := range ch.TargetAtoms {
			c.Chains2[t] = (i+1)<<16 | pos
		}
		for _, e := range ch.Bonds {
			inChain[e] = true
		}
	}
	for _, p := range c.pairs {
		if p.kind != pairMapped || inChain[p.qe] || p.delta() == 0 {
			continue
		}
		if c.Chains2[c.Core1[p.qa]] != 0 && c.Chains2[c.Core1[p.qb]] != 0 {
			return false
		}
	}
	return true
}

// ─────────────────────────────────────────────────────────────────────────────
// ChainChecker
// ─────────────────────────────────────────────────────────────────────────────

// ChainChecker materialises chains on the query copy for substructure
// matching: the hydrogen moves from donor to acceptor and chain bonds take
// the target's orders, after which the query must describe the target
// literally along the chain.  Every release returns the guard restoring
// the query.
type ChainChecker struct {
	ctx *SearchContext
}

// Check releases every chain, verifies the shifted query and restores it.
func (cc *ChainChecker) Check(chains []Chain) (bool, error) {
	var restores []func()
	defer func() {
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
	}()
	for _, ch := range chains {
		restore, ok, err := cc.releaseChain(ch)
		if err != nil || !ok {
			return false, err
		}
		restores = append(restores, restore)
	}
	return cc.verify(chains), nil
}

func (cc *ChainChecker) pairOf(qe int) *bondPair {
	for _, p := range cc.ctx.pairs {
		if p.kind == pairMapped && p.qe == qe {
			return p
		}
	}
	return nil
}

// releaseChain moves one hydrogen along ch.  A chain whose donor has no
// implicit hydrogen to give cannot be released.
func (cc *ChainChecker) releaseChain(ch Chain) (func(), bool, error) {
	q := cc.ctx.Query
	donor, acceptor := ch.Donor(), ch.Acceptor()
	if cc.ctx.dh[donor] <= 0 || cc.ctx.dh[acceptor] >= 0 {
		return nil, false, errors.Newf(errors.ErrCodeUnknownHydrogenDiff,
			"chain %d->%d has no hydrogen difference to release", donor, acceptor)
	}
	if q.Atom(donor).ImplicitH == 0 {
		return nil, false, nil
	}
	saved := make([]molecule.BondOrder, len(ch.Bonds))
	for i, e := range ch.Bonds {
		p := cc.pairOf(e)
		if p == nil {
			return nil, false, errors.Newf(errors.ErrCodeInternal, "chain bond %d is not mapped", e)
		}
		saved[i] = q.Bond(e).Order
		q.Bond(e).Order = p.ot
	}
	q.Atom(donor).ImplicitH--
	q.Atom(acceptor).ImplicitH++
	return func() {
		q.Atom(acceptor).ImplicitH--
		q.Atom(donor).ImplicitH++
		for i, e := range ch.Bonds {
			q.Bond(e).Order = saved[i]
		}
	}, true, nil
}

// verify checks the released query along every chain: endpoint hydrogens
// balance and chain bonds match the target literally or through the fixed
// aromatic order.
func (cc *ChainChecker) verify(chains []Chain) bool {
	c := cc.ctx
	for _, ch := range chains {
		for _, v := range []int{ch.Donor(), ch.Acceptor()} {
			extra := c.base[v] - c.dh[v]
			if c.hydrogenBase(v, c.Core1[v])-extra != 0 {
				return false
			}
		}
		for _, e := range ch.Bonds {
			p := cc.pairOf(e)
			if p.tOracle {
				if !c.TargetDearom.IsAbleToFixBond(p.te, p.ot) {
					return false
				}
				continue
			}
			if c.Query.Bond(e).Expr == nil && !substructure.MatchQueryBond(c.Query.Molecule, c.Target.Molecule, e, p.te) {
				return false
			}
		}
	}
	return true
}

//Personal.AI order the ending
