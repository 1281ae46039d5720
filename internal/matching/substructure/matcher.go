// Package substructure finds embeddings of a query molecule into a target
// molecule under chemical compatibility rules: atom and bond expressions,
// hydrogen folding, aromaticity ambiguity, stereo parity, Markush R-groups,
// 3D fits and constraints, and delocalised charge.
package substructure

import (
	"github.com/turtacn/molmatch/internal/domain/molecule"
	"github.com/turtacn/molmatch/internal/geometry/spatial"
	"github.com/turtacn/molmatch/internal/graph/embedding"
	"github.com/turtacn/molmatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molmatch/internal/matching/aromaticity"
	"github.com/turtacn/molmatch/pkg/errors"
)

// Stats counts work done since the last Find.
type Stats struct {
	Embeddings        int
	AromaticityChecks int
	FragmentChecks    int
	FragmentCacheHits int
	MarkushSplices    int
}

// SiteAssignment records how one R-site was resolved.  Group 0 means the
// site was left unfilled.
type SiteAssignment struct {
	Site     int
	Group    int
	Fragment int
	// Atoms are the target atoms covered by the fragment.
	Atoms []int
}

// Matcher searches one target.  It is not safe for concurrent use and the
// target must not be modified by anyone else while a search is in progress.
type Matcher struct {
	target *molecule.Molecule
	opts   Options
	log    logging.Logger

	orig    *molecule.Molecule
	query   *molecule.Molecule
	markush bool
	sites   []int

	ignoredQuery  map[int]bool
	ignoredTarget map[int]bool
	fixed         [][2]int

	en       *embedding.Enumerator
	active   []*embedding.Enumerator
	atoms    *atomMatcher
	arom     *aromaticity.Matcher
	pi       *piSystems
	checker  *spatial.Checker
	storage  *embedding.Storage
	hIgnored []int
	hKept    []int
	unfold   *molecule.HydrogenUnfold

	started bool
	done    bool
	err     error

	queryMap   []int
	targetMap  []int
	assignment []SiteAssignment
	// pending holds the remaining R-group resolutions of the current
	// skeleton embedding; FindNext drains it before moving the skeleton.
	pending []pendingEmbedding
	stats   Stats
}

type pendingEmbedding struct {
	mapping []int
	assign  []SiteAssignment
}

// New returns a matcher over target.
func New(target *molecule.Molecule, opts ...Option) *Matcher {
	m := &Matcher{
		target:        target,
		opts:          DefaultOptions(),
		log:           logging.NewNopLogger(),
		ignoredQuery:  make(map[int]bool),
		ignoredTarget: make(map[int]bool),
		storage:       embedding.NewStorage(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Options returns the active options.
func (m *Matcher) Options() Options {
	return m.opts
}

// SetQuery installs q and forgets fixed pairs and ignored query atoms.  q is
// not modified; Markush queries are expanded on a private copy.
func (m *Matcher) SetQuery(q *molecule.Molecule) error {
	if q == nil {
		return errors.InvalidParam("query molecule is nil")
	}
	m.orig, m.query = q, q
	m.markush, m.sites = false, nil
	m.ignoredQuery = make(map[int]bool)
	m.fixed = nil
	m.started, m.done = false, false

	if q.RGroups.Count() > 0 && len(q.RSites()) > 0 {
		if err := q.RGroups.Validate(); err != nil {
			return err
		}
		for _, s := range q.RSites() {
			n := len(q.SiteAttachments(s))
			if n < 1 || n > 2 {
				return errors.Newf(errors.ErrCodeAttachmentPoints, "R-site %d has %d attachment points", s, n)
			}
			for _, r := range q.Atom(s).RSites {
				if q.RGroups.Get(r) == nil {
					return errors.Newf(errors.ErrCodeRGroupUndefined, "R-site %d refers to undefined R%d", s, r)
				}
			}
		}
		m.markush = true
		m.sites = q.RSites()
		m.query = q.Clone()
	}
	return nil
}

// IgnoreQueryAtom excludes a query atom from matching.
func (m *Matcher) IgnoreQueryAtom(v int) {
	m.ignoredQuery[v] = true
}

// IgnoreTargetAtom excludes a target atom from matching.
func (m *Matcher) IgnoreTargetAtom(v int) {
	m.ignoredTarget[v] = true
}

// Fix binds query atom q to target atom t for the next Find.  Infeasible
// pairs make that Find report no match.
func (m *Matcher) Fix(q, t int) bool {
	if m.orig == nil || !m.orig.HasVertex(q) || !m.target.HasVertex(t) {
		return false
	}
	m.fixed = append(m.fixed, [2]int{q, t})
	return true
}

// NeedCoords reports whether the query must carry coordinates.
func (m *Matcher) NeedCoords() bool {
	return m.opts.Match3D != Match3DNone || constraintsActive(m.orig)
}

// Stats returns the counters of the current search.
func (m *Matcher) Stats() Stats {
	return m.stats
}

// QueryMapping maps every query atom to its target atom of the last
// embedding; -1 marks unmapped and -2 ignored atoms.  R-sites resolved by
// a fragment read -1; see RGroupAssignment.
func (m *Matcher) QueryMapping() []int {
	return m.queryMap
}

// TargetMapping is the inverse of QueryMapping over target atoms.
func (m *Matcher) TargetMapping() []int {
	return m.targetMap
}

// RGroupAssignment describes how R-sites were resolved in the last embedding.
func (m *Matcher) RGroupAssignment() []SiteAssignment {
	return m.assignment
}

// Embeddings returns the stored embeddings.
func (m *Matcher) Embeddings() *embedding.Storage {
	return m.storage
}

// ─────────────────────────────────────────────────────────────────────────────
// Search
// ─────────────────────────────────────────────────────────────────────────────

// Find starts a new search and reports whether an embedding exists.  With
// FindAllEmbeddings it collects every embedding into Embeddings first.
func (m *Matcher) Find() (found bool, err error) {
	if m.orig == nil {
		return false, errors.New(errors.ErrCodeQueryNotSet, "query is not set")
	}
	if m.NeedCoords() && !m.orig.HasCoords {
		return false, errors.New(errors.ErrCodeCoordinatesRequired, "3D matching needs query coordinates")
	}
	m.stats = Stats{}
	m.err = nil
	m.started, m.done = true, false
	m.queryMap, m.targetMap, m.assignment = nil, nil, nil
	m.pending = nil
	m.storage = m.newStorage()

	m.unfoldTarget()
	defer func() {
		if ferr := m.restoreTarget(); ferr != nil && err == nil {
			found, err = false, ferr
		}
	}()

	m.prepare()
	m.log.Debug("substructure search started",
		logging.Int("query_atoms", m.query.VertexCount()),
		logging.Int("target_atoms", m.target.VertexCount()),
		logging.Bool("markush", m.markush),
		logging.Bool("aromaticity_matcher", m.arom != nil))

	for _, p := range m.fixed {
		if !m.en.Fix(p[0], p[1]) {
			m.done = true
			return false, m.err
		}
	}
	m.en.ProcessStart()
	return m.advance()
}

// FindNext resumes the search after the last embedding.
func (m *Matcher) FindNext() (found bool, err error) {
	if !m.started {
		return m.Find()
	}
	if m.opts.FindAllEmbeddings {
		return false, nil
	}
	if m.popPending() {
		return true, nil
	}
	if m.done {
		return false, nil
	}
	m.unfoldTarget()
	defer func() {
		if ferr := m.restoreTarget(); ferr != nil && err == nil {
			found, err = false, ferr
		}
	}()
	return m.advance()
}

func (m *Matcher) advance() (bool, error) {
	m.active = []*embedding.Enumerator{m.en}
	ok := m.en.ProcessNext()
	m.active = nil
	if m.err != nil {
		m.done = true
		m.log.Warn("substructure search failed", logging.Err(m.err))
		return false, m.err
	}
	if m.opts.FindAllEmbeddings {
		m.done = true
		m.log.Debug("substructure search collected embeddings", logging.Int("count", m.storage.Count()))
		return m.storage.Count() > 0, nil
	}
	if !ok {
		m.done = true
		return false, nil
	}
	if m.markush {
		return m.popPending(), nil
	}
	return true, nil
}

func (m *Matcher) popPending() bool {
	if len(m.pending) == 0 {
		return false
	}
	p := m.pending[0]
	m.pending = m.pending[1:]
	m.snapshot(p.mapping, p.assign)
	return true
}

// CountMatches counts embeddings up to limit (0 for no limit).
func (m *Matcher) CountMatches(limit int) (int, error) {
	if m.opts.FindAllEmbeddings {
		if _, err := m.Find(); err != nil {
			return 0, err
		}
		n := m.storage.Count()
		if limit > 0 && n > limit {
			n = limit
		}
		return n, nil
	}
	n := 0
	found, err := m.Find()
	for found && err == nil {
		n++
		if limit > 0 && n >= limit {
			break
		}
		found, err = m.FindNext()
	}
	return n, err
}

func (m *Matcher) newStorage() *embedding.Storage {
	s := embedding.NewStorage()
	s.CheckUniqueness = m.opts.FindUniqueEmbeddings || m.opts.FindUniqueByEdges
	s.UniqueByEdges = m.opts.FindUniqueByEdges
	s.SaveEdges = m.opts.FindUniqueByEdges
	s.SaveMapping = m.opts.SaveForIteration || m.opts.FindAllEmbeddings
	return s
}

// prepare builds the enumerator, the predicate evaluators and the ignore
// sets for a fresh search over the (possibly unfolded) target.
func (m *Matcher) prepare() {
	q := m.query
	m.atoms = newAtomMatcher(q, m.target)
	m.atoms.opts = m.opts
	m.atoms.parent = m
	m.atoms.stats = &m.stats

	m.arom = nil
	if m.opts.UseAromaticityMatcher && aromaticity.IsNecessary(q) {
		m.arom = aromaticity.New(q, m.target)
	}
	m.pi = nil
	if m.opts.UsePiSystemsMatcher {
		m.pi = newPiSystems(m.target)
	}
	m.checker = nil
	if constraintsActive(m.orig) {
		m.checker = spatial.NewChecker(m.orig.Constraints)
	}

	root := newSearchPolicy(m, m.acceptSkeleton)
	m.en = embedding.New(m.target, root)
	root.en = m.en
	m.en.SetSubgraph(q)

	m.hIgnored = make([]int, q.VertexEnd())
	m.hKept = make([]int, q.VertexEnd())
	used := constraintAtoms(q)
	for _, v := range q.Vertices() {
		switch {
		case m.ignoredQuery[v]:
			m.en.IgnoreSubgraphVertex(v)
		case m.markush && q.IsRSite(v):
			m.en.IgnoreSubgraphVertex(v)
		case isQueryHydrogen(q, v):
			if keepsHydrogen(q, v, m.opts.DisableFoldingQueryH, used, m.opts.NotIgnoreFirstAtom) {
				if q.Degree(v) == 1 {
					m.hKept[q.Neighbors(v)[0].V]++
				}
				continue
			}
			m.en.IgnoreSubgraphVertex(v)
			m.hIgnored[q.Neighbors(v)[0].V]++
		}
	}
	for t := range m.ignoredTarget {
		if m.target.HasVertex(t) {
			m.en.IgnoreSupergraphVertex(t)
		}
	}
	if m.canUseEquivalenceHeuristic() {
		m.en.SetEquivalenceHandler(embedding.NewOrbitHandler(m.target, m.atomLabel, m.bondLabel))
	}
}

// canUseEquivalenceHeuristic allows orbit pruning only when no acceptance
// rule can tell symmetric target atoms apart.
func (m *Matcher) canUseEquivalenceHeuristic() bool {
	return m.opts.UseEquivalenceHeuristic &&
		!m.opts.FindAllEmbeddings &&
		!m.orig.HasStereo() && !m.target.HasStereo() &&
		m.opts.Match3D == Match3DNone && !constraintsActive(m.orig) &&
		!m.markush && len(m.fixed) == 0 && len(m.ignoredTarget) == 0
}

func (m *Matcher) atomLabel(v int) int {
	a := m.target.Atom(v)
	return int(a.Kind)<<24 | a.Number<<16 | (a.Charge+8)<<10 | a.ImplicitH<<6 | a.Isotope&63
}

func (m *Matcher) bondLabel(e int) int {
	return int(m.target.Bond(e).Order)
}

func (m *Matcher) unfoldTarget() {
	if m.unfold != nil {
		return
	}
	if ShouldUnfoldTargetHydrogens(m.orig, m.opts.DisableFoldingQueryH) ||
		(m.opts.NotIgnoreFirstAtom && isQueryHydrogen(m.orig, firstVertex(m.orig))) {
		m.unfold = m.target.UnfoldHydrogens(nil)
		if m.unfold.Count() == 0 {
			m.unfold = nil
		}
	}
}

func (m *Matcher) restoreTarget() error {
	if m.unfold == nil || !m.opts.RestoreUnfoldedH {
		return nil
	}
	u := m.unfold
	m.unfold = nil
	if err := m.target.FoldHydrogens(u); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to restore target hydrogens")
	}
	return nil
}

// fail records the first error raised inside a callback and aborts every
// running enumerator so their guards are released.
func (m *Matcher) fail(err error) {
	if m.err == nil {
		m.err = err
	}
	for i := len(m.active) - 1; i >= 0; i-- {
		m.active[i].Abort()
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Acceptance
// ─────────────────────────────────────────────────────────────────────────────

func (m *Matcher) acceptSkeleton(coreSub, coreSuper []embedding.Slot) embedding.Verdict {
	if m.err != nil {
		return embedding.Continue
	}
	if m.markush {
		stop := m.resolveSites(0, coreSub, coreSuper, nil)
		if m.err != nil {
			return embedding.Continue
		}
		if stop || len(m.pending) > 0 {
			return embedding.Stop
		}
		return embedding.Continue
	}
	return m.acceptFull(coreSub, coreSuper, nil)
}

// acceptFull applies the whole-embedding rules and records the embedding.
func (m *Matcher) acceptFull(coreSub, coreSuper []embedding.Slot, assign []SiteAssignment) embedding.Verdict {
	if m.arom != nil {
		m.stats.AromaticityChecks++
		if !m.arom.Match(coreSub, coreSuper) {
			return embedding.Continue
		}
	}
	mapping := embedding.Indices(coreSub)
	if m.query.HasStereo() && !checkStereo(m.query, m.target, mapping) {
		return embedding.Continue
	}
	if ok, err := m.check3D(mapping); err != nil || !ok {
		if err != nil {
			m.fail(err)
		}
		return embedding.Continue
	}
	if m.checker != nil {
		ok, err := m.checker.Check(m.target, mapping)
		if err != nil {
			m.fail(err)
			return embedding.Continue
		}
		if !ok {
			return embedding.Continue
		}
	}
	if m.pi != nil && !m.pi.balanced(m.query, m.target, mapping) {
		return embedding.Continue
	}
	if m.opts.FindAllEmbeddings || m.storage.CheckUniqueness {
		if !m.storage.AddEmbedding(m.target, m.query, coreSub) {
			return embedding.Continue
		}
	}
	m.stats.Embeddings++
	if m.markush && !m.opts.FindAllEmbeddings {
		m.pending = append(m.pending, pendingEmbedding{
			mapping: append([]int(nil), mapping...),
			assign:  append([]SiteAssignment(nil), assign...),
		})
		return embedding.Continue
	}
	if !m.opts.FindAllEmbeddings || m.queryMap == nil {
		m.snapshot(mapping, assign)
	}
	if m.opts.FindAllEmbeddings {
		if m.opts.MaxEmbeddings > 0 && m.storage.Count() >= m.opts.MaxEmbeddings {
			return embedding.Stop
		}
		return embedding.Continue
	}
	return embedding.Stop
}

func (m *Matcher) snapshot(mapping []int, assign []SiteAssignment) {
	n := m.orig.VertexEnd()
	m.queryMap = make([]int, n)
	copy(m.queryMap, mapping)
	for i := len(mapping); i < n; i++ {
		m.queryMap[i] = -1
	}
	m.targetMap = make([]int, m.target.VertexEnd())
	for i := range m.targetMap {
		m.targetMap[i] = -1
	}
	for q, t := range m.queryMap {
		if t >= 0 && t < len(m.targetMap) {
			m.targetMap[t] = q
		}
	}
	m.assignment = make([]SiteAssignment, len(assign))
	copy(m.assignment, assign)
}

//Personal.AI order the ending
