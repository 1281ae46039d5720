package molecule

import "github.com/turtacn/molmatch/internal/geometry"

// HydrogenUnfold records what UnfoldHydrogens changed so FoldHydrogens can
// restore the exact prior state.
type HydrogenUnfold struct {
	Added    []int
	implicit map[int]int
	pyramids map[int][4]int
}

// Count returns the number of atoms added.
func (u *HydrogenUnfold) Count() int {
	if u == nil {
		return 0
	}
	return len(u.Added)
}

// UnfoldHydrogens materialises implicit hydrogens as explicit atoms bonded
// by single bonds, appended after every existing atom.  only, when non-nil,
// limits the atoms whose hydrogens are unfolded.
func (m *Molecule) UnfoldHydrogens(only func(v int) bool) *HydrogenUnfold {
	u := &HydrogenUnfold{implicit: make(map[int]int), pyramids: make(map[int][4]int)}
	for _, v := range m.g.Vertices() {
		n := m.atoms[v].ImplicitH
		if n <= 0 || (only != nil && !only(v)) {
			continue
		}
		u.implicit[v] = n
		if sc := m.stereo[v]; sc != nil {
			u.pyramids[v] = sc.Pyramid
		}
		m.atoms[v].ImplicitH = 0
		for k := 0; k < n; k++ {
			h := m.AddAtom(Atom{Number: ElemH, Pos: m.atoms[v].Pos.Add(hydrogenOffset(k))})
			// parent and fresh atom cannot already be bonded
			_, _ = m.AddBond(v, h, BondSingle)
			u.Added = append(u.Added, h)
			if k == 0 {
				m.ReplacePyramidNeighbor(v, -1, h)
			}
		}
	}
	return u
}

// FoldHydrogens removes the atoms added by u in reverse order and restores
// hydrogen counts and pyramids.
func (m *Molecule) FoldHydrogens(u *HydrogenUnfold) error {
	if u == nil {
		return nil
	}
	for i := len(u.Added) - 1; i >= 0; i-- {
		if err := m.RemoveAtom(u.Added[i]); err != nil {
			return err
		}
	}
	for v, n := range u.implicit {
		m.atoms[v].ImplicitH = n
	}
	for v, p := range u.pyramids {
		if sc := m.stereo[v]; sc != nil {
			sc.Pyramid = p
		}
	}
	u.Added = nil
	return nil
}

func hydrogenOffset(k int) geometry.Vec3 {
	dirs := []geometry.Vec3{{X: 1}, {Y: 1}, {Z: 1}, {X: -1}}
	return dirs[k%len(dirs)]
}

// NeedsExplicitHydrogens reports whether query atom v is an explicit
// hydrogen that must be kept and matched against target hydrogens: an
// isotope-labelled hydrogen, one bonded to a stereocenter or cis-trans bond,
// one with more than one neighbour, or one under a fragment constraint.
func (m *Molecule) NeedsExplicitHydrogens(v int) bool {
	a := &m.atoms[v]
	if a.Kind != AtomRegular {
		return false
	}
	num, ok := m.QueryElement(v)
	if !ok || num != ElemH {
		return false
	}
	if a.Isotope != 0 || a.Charge != 0 || m.g.Degree(v) != 1 {
		return true
	}
	if a.Expr != nil {
		if iso, ok := a.Expr.Definite(ExprIsotope); ok && iso != 0 {
			return true
		}
		if a.Expr.Has(ExprFragment) {
			return true
		}
	}
	parent := m.g.Neighbors(v)[0]
	if sc := m.stereo[parent.V]; sc != nil {
		for _, p := range sc.Pyramid {
			if p == v {
				return true
			}
		}
	}
	for _, ct := range m.cisTrans {
		for _, s := range ct.Subst {
			if s == v {
				return true
			}
		}
	}
	return false
}

//Personal.AI order the ending
