// Package stereo checks that a query-to-target atom mapping preserves
// tetrahedral and cis-trans configurations.
package stereo

import "github.com/turtacn/molmatch/internal/domain/molecule"

// Mapping maps query atoms to target atoms, -1 for unmapped.
type Mapping []int

func (mp Mapping) image(q int) int {
	if q < 0 || q >= len(mp) {
		return -1
	}
	return mp[q]
}

// groupKey identifies an enhanced-stereo group of the target.
type groupKey struct {
	kind  molecule.StereoType
	group int
}

// CheckStereocenters verifies every mapped query stereocenter.  A query
// center of type Any always passes.  An absolute query center on an
// absolute target center needs the same handedness.  Centers in the same
// "or"/"and" target group only need a consistent relative configuration:
// either all equal or all inverted.
func CheckStereocenters(query, target *molecule.Molecule, mp Mapping) bool {
	relative := make(map[groupKey]bool)
	for _, q := range query.Stereocenters() {
		qs := query.Stereocenter(q)
		t := mp.image(q)
		if t < 0 || qs.Type == molecule.StereoAny {
			continue
		}
		ts := target.Stereocenter(t)
		if ts == nil {
			return false
		}
		same, decided := sameHandedness(qs.Pyramid, ts.Pyramid, mp)
		if !decided {
			continue
		}
		if qs.Type == molecule.StereoAbs && ts.Type == molecule.StereoAbs {
			if !same {
				return false
			}
			continue
		}
		if ts.Type == molecule.StereoAny {
			continue
		}
		key := groupKey{kind: ts.Type, group: ts.Group}
		if prev, ok := relative[key]; ok && prev != same {
			return false
		}
		relative[key] = same
	}
	return true
}

// sameHandedness maps the query pyramid into target indices and compares
// parities.  Query slots holding an implicit hydrogen or an unmapped atom
// take the target pyramid member no mapped query neighbour claimed; with
// more than one such slot the configuration is undecidable.
func sameHandedness(qp, tp [4]int, mp Mapping) (same, decided bool) {
	var mapped [4]int
	holes := 0
	claimed := make(map[int]bool, 4)
	for i, q := range qp {
		t := -1
		if q >= 0 {
			t = mp.image(q)
		}
		mapped[i] = t
		if t < 0 {
			holes++
		} else {
			claimed[t] = true
		}
	}
	if holes > 1 {
		return false, false
	}
	if holes == 1 {
		var left []int
		for _, t := range tp {
			if !claimed[t] {
				left = append(left, t)
			}
		}
		if len(left) != 1 {
			return false, false
		}
		for i := range mapped {
			if mapped[i] < 0 {
				mapped[i] = left[0]
			}
		}
	}
	parity := molecule.PyramidParity(mapped, tp)
	if parity < 0 {
		return false, false
	}
	return parity == 0, true
}

// CheckCisTrans verifies every query cis-trans bond whose ends are mapped
// onto a target double bond.
func CheckCisTrans(query, target *molecule.Molecule, mp Mapping) bool {
	for _, qe := range query.CisTransBonds() {
		qct := query.CisTrans(qe)
		qed := query.Edge(qe)
		tb, te := mp.image(qed.Beg), mp.image(qed.End)
		if tb < 0 || te < 0 {
			continue
		}
		tedge := target.FindEdge(tb, te)
		if tedge < 0 {
			return false
		}
		tct := target.CisTrans(tedge)
		if tct == nil {
			return false
		}
		tSubst := tct.Subst
		if target.Edge(tedge).Beg != tb {
			// target descriptor is written from the other end
			tSubst = [4]int{tSubst[2], tSubst[3], tSubst[0], tSubst[1]}
		}
		flip1, ok1 := side(mp.image(qct.Subst[0]), tSubst[0], tSubst[1])
		flip2, ok2 := side(mp.image(qct.Subst[2]), tSubst[2], tSubst[3])
		if !ok1 || !ok2 {
			continue
		}
		want := qct.Parity
		if flip1 != flip2 {
			want = opposite(want)
		}
		if want != tct.Parity {
			return false
		}
	}
	return true
}

// side reports whether the image of a query substituent is the target's
// first (false) or second (true) substituent on that end.
func side(img, first, second int) (flip, ok bool) {
	switch {
	case img < 0:
		return false, false
	case img == first:
		return false, true
	case img == second:
		return true, true
	}
	return false, false
}

func opposite(p molecule.CisTransParity) molecule.CisTransParity {
	if p == molecule.Cis {
		return molecule.Trans
	}
	return molecule.Cis
}

// CountMappedCenters returns how many target stereocenters and cis-trans
// bonds lie entirely on mapped atoms.  Exact matching uses it to reject
// targets carrying stereo the query lacks.
func CountMappedCenters(target *molecule.Molecule, mapped func(t int) bool) (centers, bonds int) {
	for _, t := range target.Stereocenters() {
		if mapped(t) {
			centers++
		}
	}
	for _, e := range target.CisTransBonds() {
		ed := target.Edge(e)
		if mapped(ed.Beg) && mapped(ed.End) {
			bonds++
		}
	}
	return centers, bonds
}

//Personal.AI order the ending
