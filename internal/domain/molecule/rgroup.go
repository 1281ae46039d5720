package molecule

import (
	"strconv"
	"strings"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/turtacn/molmatch/pkg/errors"
)

// Fragment is one alternative of an R-group.  Attach[k] is the fragment atom
// bonded through attachment point k+1.
type Fragment struct {
	Mol    *Molecule
	Attach []int
}

// OccurrenceRange is an inclusive count range; Max < 0 means unbounded.
type OccurrenceRange struct {
	Min, Max int
}

func (r OccurrenceRange) contains(n int) bool {
	return n >= r.Min && (r.Max < 0 || n <= r.Max)
}

// RGroup is one Markush substituent definition.
type RGroup struct {
	Fragments  []*Fragment
	Occurrence []OccurrenceRange
	// RestH requires sites left unfilled to carry hydrogen in the target.
	RestH bool
	// IfThen names an R-group (1-based) that must be present whenever this one is.
	IfThen int
}

// OccurrenceSatisfied checks n against the ranges; no ranges means "> 0".
func (g *RGroup) OccurrenceSatisfied(n int) bool {
	if len(g.Occurrence) == 0 {
		return n > 0
	}
	for _, r := range g.Occurrence {
		if r.contains(n) {
			return true
		}
	}
	return false
}

// ParseOccurrence reads a comma separated list of "n", "a-b", ">n", "<n"
// terms, e.g. "1,3-5,>7".
func ParseOccurrence(s string) ([]OccurrenceRange, error) {
	var out []OccurrenceRange
	for _, term := range strings.Split(s, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		var r OccurrenceRange
		var err error
		switch {
		case strings.HasPrefix(term, ">"):
			var n int
			n, err = strconv.Atoi(term[1:])
			r = OccurrenceRange{Min: n + 1, Max: -1}
		case strings.HasPrefix(term, "<"):
			var n int
			n, err = strconv.Atoi(term[1:])
			r = OccurrenceRange{Min: 0, Max: n - 1}
		case strings.Contains(term, "-"):
			parts := strings.SplitN(term, "-", 2)
			r.Min, err = strconv.Atoi(parts[0])
			if err == nil {
				r.Max, err = strconv.Atoi(parts[1])
			}
		default:
			r.Min, err = strconv.Atoi(term)
			r.Max = r.Min
		}
		if err != nil {
			return nil, errors.Newf(errors.ErrCodeValidation, "bad occurrence term %q", term)
		}
		out = append(out, r)
	}
	return out, nil
}

// RGroups is the 1-based list of R-group definitions of a query.
type RGroups struct {
	groups []*RGroup
}

// NewRGroups returns an empty list.
func NewRGroups() *RGroups {
	return &RGroups{}
}

// Add appends g and returns its 1-based index.
func (rg *RGroups) Add(g *RGroup) int {
	rg.groups = append(rg.groups, g)
	return len(rg.groups)
}

// Count returns the number of groups; nil-safe.
func (rg *RGroups) Count() int {
	if rg == nil {
		return 0
	}
	return len(rg.groups)
}

// Get returns group i (1-based), or nil.
func (rg *RGroups) Get(i int) *RGroup {
	if rg == nil || i < 1 || i > len(rg.groups) {
		return nil
	}
	return rg.groups[i-1]
}

// Validate enforces the structural rules a query must meet before matching:
// every fragment has one or two attachment points and if/then references
// name another existing group.
func (rg *RGroups) Validate() error {
	for i := 1; i <= rg.Count(); i++ {
		g := rg.Get(i)
		for fi, f := range g.Fragments {
			if len(f.Attach) < 1 || len(f.Attach) > 2 {
				return errors.Newf(errors.ErrCodeAttachmentPoints,
					"R%d fragment %d has %d attachment points", i, fi+1, len(f.Attach))
			}
			for _, a := range f.Attach {
				if !f.Mol.HasVertex(a) {
					return errors.Newf(errors.ErrCodeAttachmentPoints, "R%d fragment %d attaches through missing atom %d", i, fi+1, a)
				}
			}
		}
		if g.IfThen == i {
			return errors.Newf(errors.ErrCodeIfThenCycle, "R%d requires itself", i)
		}
		if g.IfThen != 0 && rg.Get(g.IfThen) == nil {
			return errors.Newf(errors.ErrCodeRGroupUndefined, "R%d requires undefined R%d", i, g.IfThen)
		}
	}
	return nil
}

// RSites lists the R-site atoms of m, ascending.
func (m *Molecule) RSites() []int {
	var out []int
	for _, v := range m.g.Vertices() {
		if m.atoms[v].Kind == AtomRSite {
			out = append(out, v)
		}
	}
	return out
}

// ReferencedRGroups returns the sorted set of group indices any site allows.
func (m *Molecule) ReferencedRGroups() []int {
	set := treeset.NewWithIntComparator()
	for _, v := range m.RSites() {
		for _, r := range m.atoms[v].RSites {
			set.Add(r)
		}
	}
	out := make([]int, 0, set.Size())
	for _, x := range set.Values() {
		out = append(out, x.(int))
	}
	return out
}

// SiteAttachments returns the neighbours of R-site v in attachment order.
// Without an explicit order the neighbours are taken in bond order.
func (m *Molecule) SiteAttachments(v int) []int {
	a := &m.atoms[v]
	if len(a.AttachOrder) > 0 {
		return a.AttachOrder
	}
	out := make([]int, 0, m.g.Degree(v))
	for _, nb := range m.g.Neighbors(v) {
		out = append(out, nb.V)
	}
	return out
}

//Personal.AI order the ending
