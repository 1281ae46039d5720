// Package embedding enumerates subgraph embeddings (monomorphisms) of a
// query graph into a target graph.  The search is a VF2-style backtracking
// over an explicit frame stack, so it can stop at a solution and resume later;
// chemistry-specific compatibility rules are supplied through Policy.
package embedding

import (
	"github.com/turtacn/molmatch/internal/graph"
)

// Graph is the read-only view the enumerator needs of either side.
// *graph.Graph and every molecule type satisfy it.
type Graph interface {
	VertexEnd() int
	HasVertex(v int) bool
	Neighbors(v int) []graph.Neighbor
	FindEdge(a, b int) int
	EdgeEnd() int
	Edge(e int) graph.Edge
}

// Verdict is returned by Policy.OnEmbedding.
type Verdict int

const (
	// Stop accepts the embedding and suspends the search on it.
	Stop Verdict = iota
	// Continue keeps searching; the policy decides whether it kept the embedding.
	Continue
)

// Policy supplies the compatibility predicates and search hooks.
type Policy interface {
	// MatchVertex decides whether query vertex sub may pair with target vertex super.
	MatchVertex(sub, super int) bool
	// MatchEdge decides whether a newly closed query edge may map to a target edge.
	MatchEdge(subEdge, superEdge int) bool
	// OnVertexAdded is called after a pair enters the mapping, before its edges are matched.
	OnVertexAdded(sub, super int)
	// OnVertexRemoved is called before a pair leaves the mapping.
	OnVertexRemoved(sub int)
	// OnEmbedding is called for every complete mapping.
	OnEmbedding(coreSub, coreSuper []Slot) Verdict
}

// BasePolicy accepts everything and stops at the first embedding.  Embed it to
// override only the hooks a scenario needs.
type BasePolicy struct{}

func (BasePolicy) MatchVertex(int, int) bool          { return true }
func (BasePolicy) MatchEdge(int, int) bool            { return true }
func (BasePolicy) OnVertexAdded(int, int)             {}
func (BasePolicy) OnVertexRemoved(int)                {}
func (BasePolicy) OnEmbedding([]Slot, []Slot) Verdict { return Stop }

// EquivalenceHandler reports target vertices interchangeable by symmetry.
type EquivalenceHandler interface {
	Equivalent(superA, superB int) bool
}

type searchState int

const (
	notStarted searchState = iota
	positioned
	exhausted
)

type frame struct {
	sub       int
	cands     []int
	next      int
	current   int
	solutions int
	failed    []int
}

type edgePair struct {
	sub, super int
}

// Enumerator is the backtracking search over one query/target pair.
type Enumerator struct {
	super  Graph
	sub    Graph
	policy Policy

	coreSub   []Slot
	coreSuper []Slot
	termSub   []int
	termSuper []int

	manyToOne bool
	equiv     EquivalenceHandler

	stack     []frame
	state     searchState
	running   bool
	aborted   bool
	mapped    int
	toMap     int
	solutions int
	fixed     []edgePair
}

// fixedDepth is the frontier depth used for pairs bound before the search.
const fixedDepth = 1

// New creates an enumerator over the target graph super.
func New(super Graph, policy Policy) *Enumerator {
	if policy == nil {
		policy = BasePolicy{}
	}
	return &Enumerator{super: super, policy: policy}
}

// SetPolicy replaces the policy.  Must not be called during a search.
func (e *Enumerator) SetPolicy(p Policy) {
	e.policy = p
}

// SetAllowManyToOne disables degree and look-ahead pruning so query vertices
// may land on target vertices carrying more connections than the query allows.
func (e *Enumerator) SetAllowManyToOne(allow bool) {
	e.manyToOne = allow
}

// SetEquivalenceHandler installs (or removes with nil) orbit pruning.
func (e *Enumerator) SetEquivalenceHandler(h EquivalenceHandler) {
	e.equiv = h
}

// SetSubgraph installs the query graph and resets every search state,
// including fixed pairs and ignored target vertices.
func (e *Enumerator) SetSubgraph(sub Graph) {
	e.sub = sub
	e.coreSub = freshSlots(sub, sub.VertexEnd())
	e.coreSuper = freshSlots(e.super, e.super.VertexEnd())
	e.termSub = make([]int, len(e.coreSub))
	e.termSuper = make([]int, len(e.coreSuper))
	e.stack = nil
	e.state = notStarted
	e.aborted = false
	e.mapped = 0
	e.solutions = 0
	e.fixed = nil
}

func freshSlots(g Graph, n int) []Slot {
	s := make([]Slot, n)
	for v := range s {
		if g.HasVertex(v) {
			s[v] = Unmapped
		} else {
			s[v] = Ignored
		}
	}
	return s
}

// Validate resizes the bookkeeping arrays after either graph has grown.
func (e *Enumerator) Validate() {
	for v := len(e.coreSuper); v < e.super.VertexEnd(); v++ {
		e.coreSuper = append(e.coreSuper, Unmapped)
		e.termSuper = append(e.termSuper, 0)
	}
	for v := len(e.coreSub); v < e.sub.VertexEnd(); v++ {
		e.coreSub = append(e.coreSub, Unmapped)
		e.termSub = append(e.termSub, 0)
	}
	e.countTargets()
}

// IgnoreSubgraphVertex excludes a query vertex from matching.
func (e *Enumerator) IgnoreSubgraphVertex(v int) {
	if e.coreSub[v].Free() {
		e.coreSub[v] = Ignored
	}
}

// IgnoreSupergraphVertex excludes a target vertex from matching.
func (e *Enumerator) IgnoreSupergraphVertex(v int) {
	if e.coreSuper[v].Free() {
		e.coreSuper[v] = Ignored
	}
}

// CoreSub exposes the query-side mapping array; it is owned by the enumerator.
func (e *Enumerator) CoreSub() []Slot {
	return e.coreSub
}

// CoreSuper exposes the target-side mapping array.
func (e *Enumerator) CoreSuper() []Slot {
	return e.coreSuper
}

// ─────────────────────────────────────────────────────────────────────────────
// Seeding
// ─────────────────────────────────────────────────────────────────────────────

// Fix binds q to t before the search, validating the pair through the
// policy and against previously fixed neighbours.  It returns false and
// leaves the state untouched when the pair is infeasible.
func (e *Enumerator) Fix(q, t int) bool {
	if !e.coreSub[q].Free() || !e.coreSuper[t].Free() {
		return false
	}
	pairs, ok := e.closedEdges(q, t)
	if !ok || !e.policy.MatchVertex(q, t) {
		return false
	}
	e.addPair(q, t, fixedDepth)
	e.policy.OnVertexAdded(q, t)
	for _, p := range pairs {
		if !e.policy.MatchEdge(p.sub, p.super) {
			e.policy.OnVertexRemoved(q)
			e.removePair(q, fixedDepth)
			return false
		}
	}
	e.fixed = append(e.fixed, edgePair{sub: q, super: t})
	return true
}

// UnsafeFix binds q to t without any validation.
func (e *Enumerator) UnsafeFix(q, t int) {
	e.addPair(q, t, fixedDepth)
	e.policy.OnVertexAdded(q, t)
	e.fixed = append(e.fixed, edgePair{sub: q, super: t})
}

// ─────────────────────────────────────────────────────────────────────────────
// Search control
// ─────────────────────────────────────────────────────────────────────────────

// Process runs the search from the start until the policy stops it (true)
// or the search space is exhausted (false).
func (e *Enumerator) Process() bool {
	e.ProcessStart()
	return e.ProcessNext()
}

// ProcessStart positions the search before its first solution.
func (e *Enumerator) ProcessStart() {
	e.unwind()
	e.state = notStarted
	e.aborted = false
	e.countTargets()
}

// ProcessNext advances to the next solution accepted with Stop and reports
// whether one was found.  Once it returns false the search is exhausted.
func (e *Enumerator) ProcessNext() bool {
	switch e.state {
	case exhausted:
		return false
	case notStarted:
		return e.run(true)
	default:
		return e.run(false)
	}
}

// Exhausted reports whether the search space has been fully explored.
func (e *Enumerator) Exhausted() bool {
	return e.state == exhausted
}

// Abort ends the search: every mapped pair is released through
// OnVertexRemoved in LIFO order so policy-side guards stay balanced.
func (e *Enumerator) Abort() {
	e.aborted = true
	if !e.running {
		e.unwind()
		e.state = exhausted
	}
}

// Aborted reports whether Abort was called since the last ProcessStart.
func (e *Enumerator) Aborted() bool {
	return e.aborted
}

func (e *Enumerator) countTargets() {
	e.toMap = 0
	for v, s := range e.coreSub {
		if s != Ignored && e.sub.HasVertex(v) {
			e.toMap++
		}
	}
}

func (e *Enumerator) run(descend bool) bool {
	e.running = true
	defer func() { e.running = false }()

	for {
		if e.aborted {
			e.unwind()
			e.state = exhausted
			return false
		}
		if descend {
			if e.mapped >= e.toMap {
				verdict := e.policy.OnEmbedding(e.coreSub, e.coreSuper)
				if e.aborted {
					continue
				}
				if verdict == Stop {
					e.solutions++
					e.state = positioned
					return true
				}
				descend = false
			} else {
				q := e.selectNext()
				if q < 0 {
					descend = false
				} else {
					e.stack = append(e.stack, frame{sub: q, cands: e.candidates(q), current: -1})
				}
			}
		}

		if len(e.stack) == 0 {
			e.state = exhausted
			return false
		}
		depth := len(e.stack) + fixedDepth
		top := &e.stack[len(e.stack)-1]
		if top.current >= 0 {
			e.policy.OnVertexRemoved(top.sub)
			e.removePair(top.sub, depth)
			if e.useEquivalence(depth) && top.solutions == e.solutions {
				top.failed = append(top.failed, top.current)
			}
			top.current = -1
		}

		advanced := false
		for top.next < len(top.cands) && !e.aborted {
			t := top.cands[top.next]
			top.next++
			if !e.coreSuper[t].Free() {
				continue
			}
			if e.useEquivalence(depth) && e.equivalentToFailed(top, t) {
				continue
			}
			if e.tryPair(top.sub, t, depth) {
				top.current = t
				top.solutions = e.solutions
				advanced = true
				break
			}
		}
		if advanced {
			descend = true
			continue
		}
		if e.aborted {
			continue
		}
		e.stack = e.stack[:len(e.stack)-1]
		descend = false
	}
}

// Orbit pruning is only valid while nothing but fixed pairs is mapped.
func (e *Enumerator) useEquivalence(depth int) bool {
	return e.equiv != nil && depth == fixedDepth+1 && len(e.fixed) == 0
}

func (e *Enumerator) equivalentToFailed(f *frame, t int) bool {
	for _, done := range f.failed {
		if e.equiv.Equivalent(done, t) {
			return true
		}
	}
	return false
}

func (e *Enumerator) unwind() {
	for len(e.stack) > 0 {
		depth := len(e.stack) + fixedDepth
		top := &e.stack[len(e.stack)-1]
		if top.current >= 0 {
			e.policy.OnVertexRemoved(top.sub)
			e.removePair(top.sub, depth)
		}
		e.stack = e.stack[:len(e.stack)-1]
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// State-space primitives
// ─────────────────────────────────────────────────────────────────────────────

// selectNext prefers the frontier vertex with most mapped neighbours, then the
// lowest free vertex (a new component).
func (e *Enumerator) selectNext() int {
	best, bestScore := -1, -1
	for v, s := range e.coreSub {
		if s != TermOut {
			continue
		}
		score := 0
		for _, n := range e.sub.Neighbors(v) {
			if e.coreSub[n.V].Mapped() {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = v, score
		}
	}
	if best >= 0 {
		return best
	}
	for v, s := range e.coreSub {
		if s == Unmapped && e.sub.HasVertex(v) {
			return v
		}
	}
	return -1
}

func (e *Enumerator) candidates(q int) []int {
	for _, n := range e.sub.Neighbors(q) {
		if !e.coreSub[n.V].Mapped() {
			continue
		}
		anchor := e.coreSub[n.V].Index()
		var out []int
		for _, tn := range e.super.Neighbors(anchor) {
			if e.coreSuper[tn.V].Free() {
				out = append(out, tn.V)
			}
		}
		return out
	}
	var out []int
	for t, s := range e.coreSuper {
		if s.Free() && e.super.HasVertex(t) {
			out = append(out, t)
		}
	}
	return out
}

// closedEdges checks topology and returns the query/target edge pairs that
// the pair (q, t) would close against the current mapping.
func (e *Enumerator) closedEdges(q, t int) ([]edgePair, bool) {
	if !e.manyToOne {
		var subDeg, subTerm, subNew int
		for _, n := range e.sub.Neighbors(q) {
			switch s := e.coreSub[n.V]; {
			case s == Ignored:
				continue
			case s == TermOut:
				subTerm++
			case s == Unmapped:
				subNew++
			}
			subDeg++
		}
		var superDeg, superTerm, superNew int
		for _, n := range e.super.Neighbors(t) {
			switch s := e.coreSuper[n.V]; {
			case s == Ignored:
				continue
			case s == TermOut:
				superTerm++
			case s == Unmapped:
				superNew++
			}
			superDeg++
		}
		if subDeg > superDeg || subTerm > superTerm || subTerm+subNew > superTerm+superNew {
			return nil, false
		}
	}
	var pairs []edgePair
	for _, n := range e.sub.Neighbors(q) {
		s := e.coreSub[n.V]
		if !s.Mapped() {
			continue
		}
		te := e.super.FindEdge(t, s.Index())
		if te < 0 {
			return nil, false
		}
		pairs = append(pairs, edgePair{sub: n.E, super: te})
	}
	return pairs, true
}

func (e *Enumerator) tryPair(q, t, depth int) bool {
	pairs, ok := e.closedEdges(q, t)
	if !ok || !e.policy.MatchVertex(q, t) {
		return false
	}
	e.addPair(q, t, depth)
	e.policy.OnVertexAdded(q, t)
	for _, p := range pairs {
		if !e.policy.MatchEdge(p.sub, p.super) {
			e.policy.OnVertexRemoved(q)
			e.removePair(q, depth)
			return false
		}
	}
	return true
}

func (e *Enumerator) addPair(q, t, depth int) {
	e.coreSub[q] = MappedTo(t)
	e.coreSuper[t] = MappedTo(q)
	e.mapped++
	for _, n := range e.sub.Neighbors(q) {
		if e.coreSub[n.V] == Unmapped {
			e.coreSub[n.V] = TermOut
			e.termSub[n.V] = depth
		}
	}
	for _, n := range e.super.Neighbors(t) {
		if e.coreSuper[n.V] == Unmapped {
			e.coreSuper[n.V] = TermOut
			e.termSuper[n.V] = depth
		}
	}
}

func (e *Enumerator) removePair(q, depth int) {
	t := e.coreSub[q].Index()
	e.coreSub[q] = restoredSlot(e.termSub[q])
	e.coreSuper[t] = restoredSlot(e.termSuper[t])
	e.mapped--
	for _, n := range e.sub.Neighbors(q) {
		if e.coreSub[n.V] == TermOut && e.termSub[n.V] == depth && !touchesMapped(e.sub, e.coreSub, n.V) {
			e.coreSub[n.V] = Unmapped
			e.termSub[n.V] = 0
		}
	}
	for _, n := range e.super.Neighbors(t) {
		if e.coreSuper[n.V] == TermOut && e.termSuper[n.V] == depth && !touchesMapped(e.super, e.coreSuper, n.V) {
			e.coreSuper[n.V] = Unmapped
			e.termSuper[n.V] = 0
		}
	}
}

// touchesMapped matters only for fixed pairs, which share one frontier depth.
func touchesMapped(g Graph, core []Slot, v int) bool {
	for _, n := range g.Neighbors(v) {
		if core[n.V].Mapped() {
			return true
		}
	}
	return false
}

func restoredSlot(term int) Slot {
	if term > 0 {
		return TermOut
	}
	return Unmapped
}

//Personal.AI order the ending
