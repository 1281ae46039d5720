package molecule

import "sort"

// StereoType classifies a stereocenter.
type StereoType int

const (
	StereoAbs StereoType = iota + 1
	StereoOr
	StereoAnd
	StereoAny
)

// Stereocenter describes a tetrahedral center.  Looking from Pyramid[0],
// Pyramid[1..3] run counter-clockwise.  A slot holding -1 stands for the
// implicit hydrogen (or lone pair).
type Stereocenter struct {
	Type    StereoType
	Group   int
	Pyramid [4]int
}

// CisTransParity is the relation of the first substituents on each side.
type CisTransParity int

const (
	Cis CisTransParity = iota + 1
	Trans
)

// CisTrans describes a stereo double bond: Subst[0], Subst[1] hang off the
// first end, Subst[2], Subst[3] off the second (-1 when absent).  Parity
// relates Subst[0] and Subst[2].
type CisTrans struct {
	Parity CisTransParity
	Subst  [4]int
}

// AddStereocenter records a stereocenter on v.
func (m *Molecule) AddStereocenter(v int, sc Stereocenter) {
	cp := sc
	m.stereo[v] = &cp
}

// Stereocenter returns the center on v, or nil.
func (m *Molecule) Stereocenter(v int) *Stereocenter {
	return m.stereo[v]
}

// RemoveStereocenter drops the center on v.
func (m *Molecule) RemoveStereocenter(v int) {
	delete(m.stereo, v)
}

// Stereocenters lists the atoms carrying a center, ascending.
func (m *Molecule) Stereocenters() []int {
	out := make([]int, 0, len(m.stereo))
	for v := range m.stereo {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// SetCisTrans records a cis-trans descriptor on bond e.
func (m *Molecule) SetCisTrans(e int, ct CisTrans) {
	cp := ct
	m.cisTrans[e] = &cp
}

// CisTrans returns the descriptor on e, or nil.
func (m *Molecule) CisTrans(e int) *CisTrans {
	return m.cisTrans[e]
}

// CisTransBonds lists bonds carrying a descriptor, ascending.
func (m *Molecule) CisTransBonds() []int {
	out := make([]int, 0, len(m.cisTrans))
	for e := range m.cisTrans {
		out = append(out, e)
	}
	sort.Ints(out)
	return out
}

// HasStereo reports whether any stereo descriptor is present.
func (m *Molecule) HasStereo() bool {
	return len(m.stereo) > 0 || len(m.cisTrans) > 0
}

// ReplacePyramidNeighbor swaps old for repl in the pyramid of center and
// reports whether a slot changed.
func (m *Molecule) ReplacePyramidNeighbor(center, old, repl int) bool {
	sc := m.stereo[center]
	if sc == nil {
		return false
	}
	for i, p := range sc.Pyramid {
		if p == old {
			sc.Pyramid[i] = repl
			return true
		}
	}
	return false
}

// PyramidParity returns 0 when b is an even permutation of a, 1 when odd and
// -1 when the two do not hold the same members.
func PyramidParity(a, b [4]int) int {
	perm := [4]int{-1, -1, -1, -1}
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if a[i] == b[j] {
				perm[i] = j
				break
			}
		}
		if perm[i] < 0 {
			return -1
		}
	}
	seen := [4]bool{}
	parity := 0
	for i := 0; i < 4; i++ {
		if seen[i] {
			continue
		}
		length := 0
		for j := i; !seen[j]; j = perm[j] {
			seen[j] = true
			length++
		}
		parity += length - 1
	}
	return parity % 2
}

// SameChirality reports whether two pyramids over the same members describe
// the same handedness.
func SameChirality(a, b [4]int) bool {
	return PyramidParity(a, b) == 0
}

//Personal.AI order the ending
