// Package exact decides whether two molecules are the same structure under
// a chosen set of compared properties, optionally up to tautomerism.
package exact

import (
	"github.com/turtacn/molmatch/internal/domain/molecule"
	"github.com/turtacn/molmatch/internal/geometry"
	"github.com/turtacn/molmatch/internal/graph/embedding"
	"github.com/turtacn/molmatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molmatch/internal/matching/stereo"
	"github.com/turtacn/molmatch/internal/matching/tautomer"
	"github.com/turtacn/molmatch/pkg/errors"
)

// Option configures a Matcher.
type Option func(*Matcher)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(m *Matcher) {
		m.log = l
	}
}

// WithConditions installs c instead of DefaultConditions.
func WithConditions(c Conditions) Option {
	return func(m *Matcher) { m.conds = c }
}

// Matcher compares queries against one target.
type Matcher struct {
	target *molecule.Molecule
	conds  Conditions
	log    logging.Logger

	query *molecule.Molecule
	fixed [][2]int

	mapping []int
	chains  []tautomer.Chain
}

// New returns a matcher over target with DefaultConditions.
func New(target *molecule.Molecule, opts ...Option) *Matcher {
	m := &Matcher{target: target, conds: DefaultConditions(), log: logging.NewNopLogger()}
	for _, o := range opts {
		o(m)
	}
	return m
}

// SetQuery installs q.  Query features (expressions, wildcards, R-sites)
// are rejected: exact matching compares concrete molecules.
func (m *Matcher) SetQuery(q *molecule.Molecule) error {
	if q == nil {
		return errors.InvalidParam("query molecule is nil")
	}
	for _, v := range q.Vertices() {
		a := q.Atom(v)
		if a.Expr != nil || a.Kind == molecule.AtomAny || a.Kind == molecule.AtomRSite {
			return errors.New(errors.ErrCodeUnsupportedQuery, "exact matching needs a concrete molecule").
				WithDetailf("query atom %d", v)
		}
	}
	for _, e := range q.Edges() {
		if q.Bond(e).Expr != nil {
			return errors.New(errors.ErrCodeUnsupportedQuery, "exact matching needs a concrete molecule").
				WithDetailf("query bond %d", e)
		}
	}
	m.query = q
	m.fixed = nil
	return nil
}

// SetConditions replaces the compared properties and turns tautomer
// matching off.
func (m *Matcher) SetConditions(flags Flags) {
	m.conds.Flags = flags
	m.conds.Tautomer = nil
}

// SetRMS sets the coordinate tolerance used with Geometry.
func (m *Matcher) SetRMS(rms float64) {
	m.conds.RMS = rms
}

// ParseConditions reads and installs a condition string.
func (m *Matcher) ParseConditions(s string) error {
	c, err := ParseConditions(s)
	if err != nil {
		return err
	}
	m.conds = c
	return nil
}

// Conditions returns the active conditions.
func (m *Matcher) Conditions() Conditions {
	return m.conds
}

// Fix binds query atom q to target atom t for the next Find.
func (m *Matcher) Fix(q, t int) bool {
	if m.query == nil || !m.query.HasVertex(q) || !m.target.HasVertex(t) {
		return false
	}
	m.fixed = append(m.fixed, [2]int{q, t})
	return true
}

// QueryMapping maps query atoms to target atoms after a successful Find;
// -2 marks atoms left out of the comparison.
func (m *Matcher) QueryMapping() []int {
	return m.mapping
}

// Chains returns the mobile-hydrogen chains of a tautomer match.
func (m *Matcher) Chains() []tautomer.Chain {
	return m.chains
}

// Find reports whether the query and the target are the same structure.
func (m *Matcher) Find() (bool, error) {
	if m.query == nil {
		return false, errors.New(errors.ErrCodeQueryNotSet, "query is not set")
	}
	m.mapping, m.chains = nil, nil
	if m.conds.Tautomer != nil {
		return m.findTautomer()
	}
	if m.conds.Flags&Geometry != 0 && (!m.query.HasCoords || !m.target.HasCoords) {
		return false, errors.New(errors.ErrCodeCoordinatesRequired, "3D comparison needs coordinates on both molecules")
	}

	wholeMolecule := m.conds.Flags&Fragments != 0
	qAtoms := comparedAtoms(m.query, wholeMolecule, m.conds.Flags)
	tAtoms := comparedAtoms(m.target, wholeMolecule, m.conds.Flags)
	if len(qAtoms) != len(tAtoms) || comparedBonds(m.query, qAtoms) != comparedBonds(m.target, tAtoms) {
		m.log.Debug("exact match rejected by size",
			logging.Int("query_atoms", len(qAtoms)), logging.Int("target_atoms", len(tAtoms)))
		return false, nil
	}

	p := &policy{m: m, qAtoms: qAtoms, tAtoms: tAtoms}
	en := embedding.New(m.target, p)
	en.SetSubgraph(m.query)
	for _, v := range m.query.Vertices() {
		if !qAtoms[v] {
			en.IgnoreSubgraphVertex(v)
		}
	}
	for _, v := range m.target.Vertices() {
		if !tAtoms[v] {
			en.IgnoreSupergraphVertex(v)
		}
	}
	for _, f := range m.fixed {
		if !en.Fix(f[0], f[1]) {
			return false, nil
		}
	}
	m.log.Debug("exact search started", logging.String("conditions", m.conds.String()))
	found := en.Process()
	if p.err != nil {
		m.mapping = nil
		return false, p.err
	}
	return found, nil
}

func (m *Matcher) findTautomer() (bool, error) {
	tm := tautomer.New(m.target, tautomer.WithConditions(*m.conds.Tautomer), tautomer.WithLogger(m.log))
	if err := tm.SetQuery(m.query); err != nil {
		return false, err
	}
	for _, f := range m.fixed {
		tm.Fix(f[0], f[1])
	}
	found, err := tm.Find()
	if err != nil || !found {
		return false, err
	}
	m.mapping = tm.QueryMapping()
	m.chains = tm.Chains()
	return true, nil
}

// comparedAtoms selects the atoms taking part in the comparison: plain
// hydrogens are folded into their neighbour's count, and without
// wholeMolecule only the largest component counts.
func comparedAtoms(mol *molecule.Molecule, wholeMolecule bool, flags Flags) map[int]bool {
	out := make(map[int]bool)
	var comps [][]int
	if wholeMolecule {
		comps = [][]int{mol.Vertices()}
	} else {
		comps = mol.Components()
	}
	best := -1
	for _, comp := range comps {
		var kept []int
		for _, v := range comp {
			if !foldableHydrogen(mol, v, flags) {
				kept = append(kept, v)
			}
		}
		if len(kept) > best {
			best = len(kept)
			out = make(map[int]bool, len(kept))
			for _, v := range kept {
				out[v] = true
			}
		}
	}
	return out
}

// foldableHydrogen reports whether v is a hydrogen atom that only adds to
// its neighbour's hydrogen count.
func foldableHydrogen(mol *molecule.Molecule, v int, flags Flags) bool {
	if !mol.IsHydrogen(v) || mol.Degree(v) != 1 {
		return false
	}
	a := mol.Atom(v)
	if a.Charge != 0 || (flags&Isotopes != 0 && a.Isotope != 0) {
		return false
	}
	return !mol.IsHydrogen(mol.Neighbors(v)[0].V)
}

func comparedBonds(mol *molecule.Molecule, atoms map[int]bool) int {
	n := 0
	for _, e := range mol.Edges() {
		ed := mol.Edge(e)
		if atoms[ed.Beg] && atoms[ed.End] {
			n++
		}
	}
	return n
}

// policy drives the enumerator for one exact search.
type policy struct {
	embedding.BasePolicy
	m              *Matcher
	qAtoms, tAtoms map[int]bool
	err            error
}

func (p *policy) MatchVertex(q, t int) bool {
	query, target, flags := p.m.query, p.m.target, p.m.conds.Flags
	qa, ta := query.Atom(q), target.Atom(t)
	if qa.Kind != ta.Kind || qa.Number != ta.Number || qa.Pseudo != ta.Pseudo {
		return false
	}
	if p.degree(query, q, p.qAtoms) != p.degree(target, t, p.tAtoms) {
		return false
	}
	if flags&Electrons != 0 {
		if qa.Charge != ta.Charge || qa.Radical != ta.Radical || query.TotalH(q) != target.TotalH(t) {
			return false
		}
	}
	if flags&Isotopes != 0 && qa.Isotope != ta.Isotope {
		return false
	}
	return true
}

func (p *policy) degree(mol *molecule.Molecule, v int, atoms map[int]bool) int {
	n := 0
	for _, nb := range mol.Neighbors(v) {
		if atoms[nb.V] {
			n++
		}
	}
	return n
}

func (p *policy) MatchEdge(qe, te int) bool {
	if p.m.conds.Flags&Electrons == 0 {
		return true
	}
	return p.m.query.Bond(qe).Order == p.m.target.Bond(te).Order
}

func (p *policy) OnEmbedding(coreSub, coreSuper []embedding.Slot) embedding.Verdict {
	mapping := embedding.Indices(coreSub)
	flags := p.m.conds.Flags
	if flags&Stereo != 0 && !p.sameStereo(mapping, coreSuper) {
		return embedding.Continue
	}
	if flags&Geometry != 0 {
		ok, err := p.superposes(mapping)
		if err != nil {
			p.err = err
			return embedding.Stop
		}
		if !ok {
			return embedding.Continue
		}
	}
	p.m.mapping = mapping
	return embedding.Stop
}

// sameStereo checks every query stereo element against the target and
// rejects targets carrying stereo the query lacks.
func (p *policy) sameStereo(mapping []int, coreSuper []embedding.Slot) bool {
	query, target := p.m.query, p.m.target
	mp := stereo.Mapping(mapping)
	if !stereo.CheckStereocenters(query, target, mp) || !stereo.CheckCisTrans(query, target, mp) {
		return false
	}
	qc, qb := stereo.CountMappedCenters(query, func(v int) bool { return v < len(mapping) && mapping[v] >= 0 })
	tc, tb := stereo.CountMappedCenters(target, func(t int) bool { return t < len(coreSuper) && coreSuper[t].Mapped() })
	return qc == tc && qb == tb
}

func (p *policy) superposes(mapping []int) (bool, error) {
	var from, to []geometry.Vec3
	for q, t := range mapping {
		if t >= 0 {
			from = append(from, p.m.query.Position(q))
			to = append(to, p.m.target.Position(t))
		}
	}
	if len(from) < 3 {
		return true, nil
	}
	_, rms, err := geometry.Superpose(from, to, false)
	if err != nil {
		return false, err
	}
	return rms <= p.m.conds.RMS, nil
}

//Personal.AI order the ending
