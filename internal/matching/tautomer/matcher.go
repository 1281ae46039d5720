// Package tautomer matches molecules that differ by tautomeric shifts: a
// hydrogen moving between two atoms while the bonds of the path between
// them change order alternately.  Aromatic bonds take whatever Kekulé order
// the shift needs, decided through dearomatization oracles, and ring-chain
// shifts are found through super-structure bonds.
package tautomer

import (
	"github.com/turtacn/molmatch/internal/domain/molecule"
	"github.com/turtacn/molmatch/internal/graph/embedding"
	"github.com/turtacn/molmatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molmatch/pkg/errors"
)

// Option configures a Matcher.
type Option func(*Matcher)

// WithConditions sets the tautomer conditions.
func WithConditions(c Conditions) Option {
	return func(m *Matcher) {
		if c.Rules == 0 {
			c.Rules = DefaultRules
		}
		m.conds = c
	}
}

// WithSubstructure switches from whole-molecule to substructure matching.
func WithSubstructure(on bool) Option {
	return func(m *Matcher) {
		m.substructure = on
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(m *Matcher) {
		m.log = l
	}
}

// Matcher finds tautomeric embeddings of a query into one target.  The
// target is never modified.
type Matcher struct {
	target       *molecule.Molecule
	conds        Conditions
	substructure bool
	log          logging.Logger

	query *molecule.Molecule
	fixed [][2]int

	ctx     *SearchContext
	en      *embedding.Enumerator
	started bool
	shifted bool
	done    bool
	err     error

	queryMap  []int
	targetMap []int
	chains    []Chain
}

// New returns a matcher over target with the default conditions.
func New(target *molecule.Molecule, opts ...Option) *Matcher {
	m := &Matcher{
		target: target,
		conds:  DefaultConditions(),
		log:    logging.NewNopLogger(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Conditions returns the active conditions.
func (m *Matcher) Conditions() Conditions {
	return m.conds
}

// SetQuery installs q and forgets fixed pairs.
func (m *Matcher) SetQuery(q *molecule.Molecule) error {
	if q == nil {
		return errors.InvalidParam("query molecule is nil")
	}
	m.query = q
	m.fixed = nil
	m.started, m.done = false, false
	return nil
}

// Fix binds query atom q to target atom t for the next Find.
func (m *Matcher) Fix(q, t int) bool {
	if m.query == nil || !m.query.HasVertex(q) || !m.target.HasVertex(t) {
		return false
	}
	m.fixed = append(m.fixed, [2]int{q, t})
	return true
}

// Chains returns the mobile-hydrogen chains of the last embedding.
func (m *Matcher) Chains() []Chain {
	return m.chains
}

// QueryMapping maps query atoms to target atoms in the last embedding; -1
// marks unmapped atoms, -2 explicit hydrogens that were not mapped.
func (m *Matcher) QueryMapping() []int {
	return m.queryMap
}

// TargetMapping is the inverse of QueryMapping.
func (m *Matcher) TargetMapping() []int {
	return m.targetMap
}

// Find starts a new search.
func (m *Matcher) Find() (bool, error) {
	if m.query == nil {
		return false, errors.New(errors.ErrCodeQueryNotSet, "query is not set")
	}
	m.started, m.done, m.err = true, false, nil
	m.queryMap, m.targetMap, m.chains = nil, nil, nil

	if !m.substructure && heavyAtoms(m.query) != heavyAtoms(m.target) {
		m.done = true
		return false, nil
	}
	qs := NewSuperStructure(m.query, m.conds.RingChain)
	ts := NewSuperStructure(m.target, m.conds.RingChain)
	m.ctx = NewSearchContext(qs, ts, m.conds, m.substructure)

	m.log.Debug("tautomer search started",
		logging.String("conditions", m.conds.String()),
		logging.Bool("substructure", m.substructure),
		logging.Int("query_virtual_bonds", qs.VirtualBonds()),
		logging.Int("target_virtual_bonds", ts.VirtualBonds()))

	m.shifted = false
	if !m.start() {
		m.done = true
		return false, m.err
	}
	return m.advance()
}

// start runs a fresh enumeration for the current phase.  Embeddings that
// need no hydrogen shift are reported first, shifted ones after.
func (m *Matcher) start() bool {
	m.en = embedding.New(m.ctx.Target, &policy{m: m})
	m.en.SetSubgraph(m.query)
	for _, v := range m.query.Vertices() {
		if m.query.IsHydrogen(v) {
			m.en.IgnoreSubgraphVertex(v)
		}
	}
	for _, v := range m.target.Vertices() {
		if m.target.IsHydrogen(v) {
			m.en.IgnoreSupergraphVertex(v)
		}
	}
	for _, f := range m.fixed {
		if !m.en.Fix(f[0], f[1]) {
			return false
		}
	}
	m.en.ProcessStart()
	return true
}

// FindNext resumes after the last embedding.
func (m *Matcher) FindNext() (bool, error) {
	if !m.started {
		return m.Find()
	}
	if m.done {
		return false, nil
	}
	return m.advance()
}

func (m *Matcher) advance() (bool, error) {
	for {
		ok := m.en.ProcessNext()
		if m.err != nil {
			m.done = true
			m.log.Warn("tautomer search failed", logging.Err(m.err))
			return false, m.err
		}
		if ok {
			return true, nil
		}
		if m.shifted {
			m.done = true
			return false, nil
		}
		m.shifted = true
		if !m.start() {
			m.done = true
			return false, m.err
		}
	}
}

func (m *Matcher) fail(err error) {
	if m.err == nil {
		m.err = err
	}
	m.en.Abort()
}

func (m *Matcher) accept(coreSub, coreSuper []embedding.Slot) {
	m.queryMap = embedding.Indices(coreSub)
	m.targetMap = embedding.Indices(coreSuper)
	m.chains = m.ctx.Chains()
}

func heavyAtoms(mol *molecule.Molecule) int {
	n := 0
	for _, v := range mol.Vertices() {
		if !mol.IsHydrogen(v) {
			n++
		}
	}
	return n
}

// policy drives the enumerator for one tautomer search.
type policy struct {
	embedding.BasePolicy
	m *Matcher
}

func (p *policy) MatchVertex(q, t int) bool {
	if p.m.err != nil {
		return false
	}
	ok, err := p.m.ctx.isFeasiblePair(q, t)
	if err != nil {
		p.m.fail(err)
		return false
	}
	return ok
}

func (p *policy) MatchEdge(qe, te int) bool {
	return p.m.ctx.isFeasibleBond(qe, te)
}

func (p *policy) OnEmbedding(coreSub, coreSuper []embedding.Slot) embedding.Verdict {
	if p.m.err != nil {
		return embedding.Continue
	}
	ok, err := p.m.ctx.remainderEmbedding(coreSub, coreSuper)
	if err != nil {
		p.m.fail(err)
		return embedding.Continue
	}
	if !ok || (len(p.m.ctx.Chains()) > 0) != p.m.shifted {
		return embedding.Continue
	}
	p.m.accept(coreSub, coreSuper)
	return embedding.Stop
}

//Personal.AI order the ending
