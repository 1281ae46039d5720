package substructure

import (
	"github.com/turtacn/molmatch/internal/domain/molecule"
	"github.com/turtacn/molmatch/internal/graph/embedding"
	"github.com/turtacn/molmatch/internal/matching/stereo"
)

// searchPolicy adapts one enumerator to the matcher.  Every Markush level
// owns its policy; aromaticity fixes taken while a query atom is mapped are
// released when that atom leaves the mapping.
type searchPolicy struct {
	m        *Matcher
	en       *embedding.Enumerator
	cur      int
	releases map[int][]func()
	accept   func(coreSub, coreSuper []embedding.Slot) embedding.Verdict
}

func newSearchPolicy(m *Matcher, accept func(coreSub, coreSuper []embedding.Slot) embedding.Verdict) *searchPolicy {
	return &searchPolicy{m: m, cur: -1, releases: make(map[int][]func()), accept: accept}
}

func (p *searchPolicy) MatchVertex(q, t int) bool {
	m := p.m
	if m.err != nil {
		return false
	}
	flags := molecule.MatchAll
	if m.pi != nil && m.pi.inSystem(t) {
		flags |= molecule.SkipCharge | molecule.SkipValence
	}
	ok, err := m.atoms.match(q, t, flags)
	if err != nil {
		m.fail(err)
		return false
	}
	if !ok {
		return false
	}
	if q < len(m.hIgnored) && m.hIgnored[q] > 0 && m.target.TotalH(t) < m.hIgnored[q]+m.hKept[q] {
		return false
	}
	if m.opts.Match3D == Match3DAffine && !m.affinePair(p.en.CoreSub(), q, t) {
		return false
	}
	return true
}

func (p *searchPolicy) MatchEdge(qe, te int) bool {
	m := p.m
	if m.pi != nil && m.pi.relaxed(m.query, m.target, qe, te) {
		return true
	}
	if m.arom == nil || !m.arom.IsAmbiguous(qe) {
		return MatchQueryBond(m.query, m.target, qe, te)
	}
	if m.arom.TargetAromatic(te) && m.arom.AcceptsAromatic(qe) {
		if release, ok := m.arom.Fix(qe, true); ok {
			p.hold(release)
			return true
		}
	}
	if MatchQueryBond(m.query, m.target, qe, te) {
		if release, ok := m.arom.Fix(qe, false); ok {
			p.hold(release)
			return true
		}
	}
	return false
}

func (p *searchPolicy) OnVertexAdded(q, _ int) {
	p.cur = q
}

func (p *searchPolicy) OnVertexRemoved(q int) {
	held := p.releases[q]
	for i := len(held) - 1; i >= 0; i-- {
		held[i]()
	}
	delete(p.releases, q)
}

func (p *searchPolicy) OnEmbedding(coreSub, coreSuper []embedding.Slot) embedding.Verdict {
	return p.accept(coreSub, coreSuper)
}

func (p *searchPolicy) hold(release func()) {
	if p.cur >= 0 {
		p.releases[p.cur] = append(p.releases[p.cur], release)
	}
}

func checkStereo(query, target *molecule.Molecule, mapping []int) bool {
	mp := stereo.Mapping(mapping)
	return stereo.CheckStereocenters(query, target, mp) && stereo.CheckCisTrans(query, target, mp)
}

//Personal.AI order the ending
