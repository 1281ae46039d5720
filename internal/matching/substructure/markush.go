package substructure

import (
	"github.com/turtacn/molmatch/internal/domain/molecule"
	"github.com/turtacn/molmatch/internal/graph/embedding"
)

// resolveSites assigns R-sites idx.. of a skeleton embedding, trying the
// unfilled option first and then every allowed fragment and attachment
// pairing.  It reports whether the search should stop.
func (m *Matcher) resolveSites(idx int, coreSub, coreSuper []embedding.Slot, assign []SiteAssignment) bool {
	if m.err != nil {
		return true
	}
	if idx == len(m.sites) {
		if !m.checkRGroupConditions(coreSub, assign) {
			return false
		}
		return m.acceptFull(coreSub, coreSuper, assign) == embedding.Stop
	}
	site := m.sites[idx]
	if m.resolveSites(idx+1, coreSub, coreSuper, with(assign, SiteAssignment{Site: site})) {
		return true
	}
	attach := m.query.SiteAttachments(site)
	for _, r := range m.allowedGroups(site) {
		for fi, f := range m.query.RGroups.Get(r).Fragments {
			if len(f.Attach) != len(attach) {
				continue
			}
			for _, pairing := range pairings(len(attach)) {
				a := SiteAssignment{Site: site, Group: r, Fragment: fi}
				if m.tryFragment(idx, attach, f, pairing, a, coreSub, coreSuper, assign) || m.err != nil {
					return true
				}
			}
		}
	}
	return false
}

// tryFragment splices f in place of the site, maps the new atoms with a
// nested enumerator seeded by the current mapping and recurses.
func (m *Matcher) tryFragment(idx int, attach []int, f *molecule.Fragment, pairing []int,
	a SiteAssignment, coreSub, coreSuper []embedding.Slot, assign []SiteAssignment) bool {

	added, undo := m.splice(a.Site, attach, f, pairing)
	defer undo()
	m.stats.MarkushSplices++

	p := newSearchPolicy(m, nil)
	en := embedding.New(m.target, p)
	p.en = en
	en.SetSubgraph(m.query)
	for q, s := range coreSub {
		if s == embedding.Ignored && m.query.HasVertex(q) {
			en.IgnoreSubgraphVertex(q)
		}
	}
	for t, s := range coreSuper {
		if s == embedding.Ignored && m.target.HasVertex(t) {
			en.IgnoreSupergraphVertex(t)
		}
	}
	for q, s := range coreSub {
		if s.Mapped() {
			en.UnsafeFix(q, s.Index())
		}
	}
	p.accept = func(cs, csup []embedding.Slot) embedding.Verdict {
		cover := make([]int, 0, len(added))
		for _, v := range added {
			cover = append(cover, cs[v].Index())
		}
		a.Atoms = cover
		if m.resolveSites(idx+1, cs, csup, with(assign, a)) {
			return embedding.Stop
		}
		return embedding.Continue
	}

	m.active = append(m.active, en)
	found := en.Process()
	m.active = m.active[:len(m.active)-1]
	en.Abort()
	return found
}

// splice copies fragment f into the working query and bonds attachment
// point pairing[k] to the k-th neighbour of the site with the site's bond.
// The returned func removes the copy and restores pyramids.
func (m *Matcher) splice(site int, attach []int, f *molecule.Fragment, pairing []int) ([]int, func()) {
	q := m.query
	index := make(map[int]int, f.Mol.VertexCount())
	var added []int
	for _, v := range f.Mol.Vertices() {
		a := *f.Mol.Atom(v)
		a.RSites = append([]int(nil), a.RSites...)
		a.AttachOrder = nil
		index[v] = q.AddAtom(a)
		added = append(added, index[v])
	}
	for _, e := range f.Mol.Edges() {
		ed := f.Mol.Edge(e)
		// fresh atoms cannot already be bonded
		_, _ = q.AddQueryBond(index[ed.Beg], index[ed.End], *f.Mol.Bond(e))
	}
	isAttach := make(map[int]bool, len(f.Attach))
	for _, a := range f.Attach {
		isAttach[a] = true
	}
	for _, v := range f.Mol.Stereocenters() {
		if isAttach[v] {
			continue
		}
		sc := *f.Mol.Stereocenter(v)
		for i, p := range sc.Pyramid {
			if p >= 0 {
				sc.Pyramid[i] = index[p]
			}
		}
		q.AddStereocenter(index[v], sc)
	}

	var swapped [][2]int
	for k, nb := range attach {
		fa := index[f.Attach[pairing[k]]]
		bond := molecule.Bond{Order: molecule.BondSingle}
		if e := q.FindEdge(nb, site); e >= 0 {
			bond = *q.Bond(e)
		}
		_, _ = q.AddQueryBond(nb, fa, bond)
		if q.ReplacePyramidNeighbor(nb, site, fa) {
			swapped = append(swapped, [2]int{nb, fa})
		}
	}
	return added, func() {
		for i := len(swapped) - 1; i >= 0; i-- {
			q.ReplacePyramidNeighbor(swapped[i][0], swapped[i][1], site)
		}
		for i := len(added) - 1; i >= 0; i-- {
			// spliced atoms are the tail of the query and are removed tail first
			_ = q.RemoveAtom(added[i])
		}
	}
}

func (m *Matcher) allowedGroups(site int) []int {
	rs := m.query.Atom(site).RSites
	if len(rs) == 0 {
		all := make([]int, 0, m.query.RGroups.Count())
		for r := 1; r <= m.query.RGroups.Count(); r++ {
			all = append(all, r)
		}
		return all
	}
	out := make([]int, 0, len(rs))
	for _, r := range rs {
		if m.query.RGroups.Get(r) != nil {
			out = append(out, r)
		}
	}
	return out
}

func pairings(n int) [][]int {
	if n == 2 {
		return [][]int{{0, 1}, {1, 0}}
	}
	return [][]int{{0}}
}

func with(assign []SiteAssignment, a SiteAssignment) []SiteAssignment {
	out := make([]SiteAssignment, len(assign), len(assign)+1)
	copy(out, assign)
	return append(out, a)
}

// checkRGroupConditions validates a complete assignment: hydrogens behind
// unfilled RestH sites, occurrence ranges and if/then chains.
func (m *Matcher) checkRGroupConditions(coreSub []embedding.Slot, assign []SiteAssignment) bool {
	rg := m.query.RGroups
	count := make(map[int]int)
	for _, a := range assign {
		if a.Group > 0 {
			count[a.Group]++
		}
	}

	needH := make(map[int]int)
	for _, a := range assign {
		if a.Group != 0 || !m.restH(a.Site) {
			continue
		}
		for _, nb := range m.query.SiteAttachments(a.Site) {
			if nb < len(coreSub) && coreSub[nb].Mapped() {
				needH[coreSub[nb].Index()]++
			}
		}
	}
	for t, n := range needH {
		if m.target.TotalH(t) < n {
			return false
		}
	}

	for _, r := range m.query.ReferencedRGroups() {
		g := rg.Get(r)
		if g == nil {
			return false
		}
		if count[r] == 0 && m.sitesTakenByOthers(r, assign) {
			continue
		}
		if !g.OccurrenceSatisfied(count[r]) {
			return false
		}
	}

	for r := 1; r <= rg.Count(); r++ {
		if count[r] == 0 {
			continue
		}
		cur := r
		for steps := 0; rg.Get(cur).IfThen != 0; steps++ {
			if steps >= rg.Count() {
				return false
			}
			cur = rg.Get(cur).IfThen
			if count[cur] == 0 {
				return false
			}
		}
	}
	return true
}

func (m *Matcher) restH(site int) bool {
	for _, r := range m.allowedGroups(site) {
		if m.query.RGroups.Get(r).RestH {
			return true
		}
	}
	return false
}

// sitesTakenByOthers reports whether every site allowing r holds another group.
func (m *Matcher) sitesTakenByOthers(r int, assign []SiteAssignment) bool {
	for _, a := range assign {
		allows := false
		for _, g := range m.allowedGroups(a.Site) {
			if g == r {
				allows = true
				break
			}
		}
		if allows && a.Group == 0 {
			return false
		}
	}
	return true
}

//Personal.AI order the ending
