// Package reaction matches query reactions against target reactions: every
// query molecule embeds into its own target molecule on the same side, and
// atom-to-atom mapping labels stay consistent across sides.
package reaction

import (
	"github.com/turtacn/molmatch/internal/domain/molecule"
	rxn "github.com/turtacn/molmatch/internal/domain/reaction"
	"github.com/turtacn/molmatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molmatch/pkg/errors"
)

// MoleculeMatcher enumerates embeddings of one query molecule into one
// target molecule.
type MoleculeMatcher interface {
	Find() (bool, error)
	FindNext() (bool, error)
	QueryMapping() []int
}

// MatcherFactory builds the per-molecule matcher for one pairing.
type MatcherFactory func(target, query *molecule.Molecule) (MoleculeMatcher, error)

// BaseMatcher backtracks over molecule assignments, delegating atom-level
// search to matchers built by its factory.  It is not safe for concurrent
// use.
type BaseMatcher struct {
	target  *rxn.Reaction
	query   *rxn.Reaction
	factory MatcherFactory
	log     logging.Logger

	order     []step
	firstSide rxn.Side
	frames    []frame

	core1 [3][]int
	core2 [3][]int
	maps  [3][][]int

	// both holds the query labels used on reactant and product sides; only
	// those constrain the target.
	both    map[int]bool
	aamCore map[int]int
	aamRev  map[int]int

	started bool
	done    bool
}

type step struct {
	side rxn.Side
	qi   int
}

type frame struct {
	ti   int
	sub  MoleculeMatcher
	undo func()
}

// NewBase returns a matcher over target using factory per molecule pair.
func NewBase(target *rxn.Reaction, factory MatcherFactory, log logging.Logger) *BaseMatcher {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &BaseMatcher{target: target, factory: factory, log: log}
}

// SetQuery installs q.  q is not modified.
func (b *BaseMatcher) SetQuery(q *rxn.Reaction) error {
	if q == nil {
		return errors.InvalidParam("query reaction is nil")
	}
	b.query = q
	b.started, b.done = false, false
	return nil
}

// FirstSide returns the side matched first in the last search.
func (b *BaseMatcher) FirstSide() rxn.Side {
	return b.firstSide
}

// MoleculeMapping returns the target molecule query molecule i of side
// was assigned to, or -1.
func (b *BaseMatcher) MoleculeMapping(side rxn.Side, i int) int {
	if i < 0 || i >= len(b.core1[side]) {
		return -1
	}
	return b.core1[side][i]
}

// AtomMapping returns the atom mapping of query molecule i of side into its
// target molecule.
func (b *BaseMatcher) AtomMapping(side rxn.Side, i int) []int {
	if i < 0 || i >= len(b.maps[side]) {
		return nil
	}
	return b.maps[side][i]
}

// Find starts a new search.
func (b *BaseMatcher) Find() (bool, error) {
	if b.query == nil {
		return false, errors.New(errors.ErrCodeQueryNotSet, "query reaction is not set")
	}
	b.reset()
	b.started = true
	for s := rxn.Reactants; s <= rxn.Products; s++ {
		if b.query.Count(s) > b.target.Count(s) {
			b.done = true
			return false, nil
		}
	}
	b.log.Debug("reaction search started",
		logging.String("first_side", b.firstSide.String()),
		logging.Int("query_molecules", len(b.order)))
	if len(b.order) == 0 {
		b.done = true
		return true, nil
	}
	return b.search(0)
}

// FindNext resumes after the last match.
func (b *BaseMatcher) FindNext() (bool, error) {
	if !b.started {
		return b.Find()
	}
	if b.done {
		return false, nil
	}
	return b.search(len(b.order) - 1)
}

func (b *BaseMatcher) reset() {
	b.unwind()
	b.firstSide = rxn.Reactants
	if cost(b.query, b.target, rxn.Products) < cost(b.query, b.target, rxn.Reactants) {
		b.firstSide = rxn.Products
	}
	second := rxn.Products
	if b.firstSide == rxn.Products {
		second = rxn.Reactants
	}
	b.order = b.order[:0]
	for _, s := range []rxn.Side{b.firstSide, second, rxn.Catalysts} {
		for i := 0; i < b.query.Count(s); i++ {
			b.order = append(b.order, step{side: s, qi: i})
		}
	}
	b.frames = make([]frame, len(b.order))
	for i := range b.frames {
		b.frames[i].ti = -1
	}
	for s := range b.core1 {
		side := rxn.Side(s)
		b.core1[s] = filled(b.query.Count(side), -1)
		b.core2[s] = filled(b.target.Count(side), -1)
		b.maps[s] = make([][]int, b.query.Count(side))
	}
	b.aamCore = make(map[int]int)
	b.aamRev = make(map[int]int)
	b.both = make(map[int]bool)
	products := b.query.AAMLabels(rxn.Products)
	for l := range b.query.AAMLabels(rxn.Reactants) {
		if products[l] {
			b.both[l] = true
		}
	}
}

func cost(q, t *rxn.Reaction, s rxn.Side) int {
	return q.Count(s) * t.Count(s)
}

func filled(n, v int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// search advances frames from k until every step holds a consistent
// pairing or the space is exhausted.
func (b *BaseMatcher) search(k int) (bool, error) {
	for k >= 0 {
		if k == len(b.order) {
			if b.checkAAM() {
				return true, nil
			}
			k--
			continue
		}
		ok, err := b.advanceFrame(k)
		if err != nil {
			b.unwind()
			b.done = true
			return false, err
		}
		if ok {
			k++
		} else {
			k--
		}
	}
	b.done = true
	return false, nil
}

// advanceFrame moves frame k to its next accepted pairing: the next
// embedding into the current target molecule, else the first embedding
// into the next free target molecule.
func (b *BaseMatcher) advanceFrame(k int) (bool, error) {
	st, f := b.order[k], &b.frames[k]
	if f.undo != nil {
		f.undo()
		f.undo = nil
	}
	for {
		var found bool
		var err error
		if f.sub == nil {
			if !b.nextTarget(st.side, f) {
				return false, nil
			}
			f.sub, err = b.factory(b.target.Molecule(st.side, f.ti), b.query.Molecule(st.side, st.qi))
			if err != nil {
				return false, err
			}
			found, err = f.sub.Find()
		} else {
			found, err = f.sub.FindNext()
		}
		if err != nil {
			return false, err
		}
		if !found {
			f.sub = nil
			continue
		}
		if undo, ok := b.bind(st, f.ti, f.sub.QueryMapping()); ok {
			f.undo = undo
			return true, nil
		}
	}
}

func (b *BaseMatcher) nextTarget(side rxn.Side, f *frame) bool {
	for f.ti++; f.ti < b.target.Count(side); f.ti++ {
		if b.core2[side][f.ti] < 0 {
			return true
		}
	}
	f.ti = -1
	return false
}

// bind records a pairing and the label bindings it implies.  It fails when
// a shared label would point at two different target labels.
func (b *BaseMatcher) bind(st step, ti int, mapping []int) (func(), bool) {
	var added []int
	undoLabels := func() {
		for _, l := range added {
			delete(b.aamRev, b.aamCore[l])
			delete(b.aamCore, l)
		}
	}
	if st.side != rxn.Catalysts {
		qm, tm := b.query.Molecule(st.side, st.qi), b.target.Molecule(st.side, ti)
		for q, t := range mapping {
			if t < 0 || !qm.HasVertex(q) || !tm.HasVertex(t) {
				continue
			}
			ql := qm.Atom(q).AAM
			if ql == 0 || !b.both[ql] {
				continue
			}
			tl := tm.Atom(t).AAM
			bound, seen := b.aamCore[ql]
			switch {
			case tl == 0, seen && bound != tl:
				undoLabels()
				return nil, false
			case !seen:
				if other, taken := b.aamRev[tl]; taken && other != ql {
					undoLabels()
					return nil, false
				}
				b.aamCore[ql] = tl
				b.aamRev[tl] = ql
				added = append(added, ql)
			}
		}
	}
	b.core1[st.side][st.qi] = ti
	b.core2[st.side][ti] = st.qi
	b.maps[st.side][st.qi] = append([]int(nil), mapping...)
	return func() {
		undoLabels()
		b.core1[st.side][st.qi] = -1
		b.core2[st.side][ti] = -1
		b.maps[st.side][st.qi] = nil
	}, true
}

// checkAAM re-derives every shared label binding from the final atom
// mappings: each label must reach the same nonzero target label on both
// sides.
func (b *BaseMatcher) checkAAM() bool {
	seen := make(map[int]map[rxn.Side]int)
	for _, s := range []rxn.Side{rxn.Reactants, rxn.Products} {
		for qi, mapping := range b.maps[s] {
			ti := b.core1[s][qi]
			if ti < 0 {
				return false
			}
			qm, tm := b.query.Molecule(s, qi), b.target.Molecule(s, ti)
			for q, t := range mapping {
				if t < 0 || !qm.HasVertex(q) || !tm.HasVertex(t) || !b.both[qm.Atom(q).AAM] {
					continue
				}
				ql := qm.Atom(q).AAM
				if seen[ql] == nil {
					seen[ql] = make(map[rxn.Side]int)
				}
				if prev, ok := seen[ql][s]; ok && prev != tm.Atom(t).AAM {
					return false
				}
				seen[ql][s] = tm.Atom(t).AAM
			}
		}
	}
	for _, bySide := range seen {
		r, okR := bySide[rxn.Reactants]
		p, okP := bySide[rxn.Products]
		if okR && okP && (r == 0 || r != p) {
			return false
		}
	}
	return true
}

func (b *BaseMatcher) unwind() {
	for k := len(b.frames) - 1; k >= 0; k-- {
		f := &b.frames[k]
		if f.undo != nil {
			f.undo()
		}
		*f = frame{ti: -1}
	}
}

//Personal.AI order the ending
