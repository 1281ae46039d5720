package tautomer

import (
	"github.com/turtacn/molmatch/internal/domain/molecule"
	"github.com/turtacn/molmatch/internal/graph"
)

// Ring sizes a ring-chain shift may close, counted in bonds along the open
// chain between the two ends of the new bond.  Four or five bonds close a
// five- or six-membered ring.
const (
	minRingPath = 4
	maxRingPath = 5
)

// SuperStructure is a private copy of a molecule extended with virtual
// zero-order bonds.  Each virtual bond joins a hydrogen-bearing heteroatom
// to a carbon double bonded to a heteroatom four or five bonds away: the
// bond a ring-chain tautomer would close.  Atom and bond indices of the
// original molecule are preserved; virtual bonds are appended.
type SuperStructure struct {
	*molecule.Molecule
	virtual map[int]bool
}

// NewSuperStructure copies m.  Virtual bonds are added only when ringChain
// is set.
func NewSuperStructure(m *molecule.Molecule, ringChain bool) *SuperStructure {
	s := &SuperStructure{Molecule: m.Clone(), virtual: make(map[int]bool)}
	if ringChain {
		s.addAttachableBonds()
	}
	return s
}

// IsVirtual reports whether e was added by the super-structure.
func (s *SuperStructure) IsVirtual(e int) bool {
	return s.virtual[e]
}

// VirtualBonds returns the number of virtual bonds.
func (s *SuperStructure) VirtualBonds() int {
	return len(s.virtual)
}

func (s *SuperStructure) addAttachableBonds() {
	base := s.Graph().Clone()
	for _, v := range base.Vertices() {
		if !s.isEmitting(v) {
			continue
		}
		graph.BFS(base, v, nil, func(u, depth int) bool {
			if depth >= minRingPath && s.isAccepting(u) && s.FindEdge(v, u) < 0 {
				if e, err := s.AddBond(v, u, molecule.BondZero); err == nil {
					s.virtual[e] = true
				}
			}
			return depth < maxRingPath
		})
	}
}

func isHetero(n int) bool {
	return n == molecule.ElemN || n == molecule.ElemO || n == molecule.ElemS
}

func (s *SuperStructure) element(v int) int {
	n, _ := s.QueryElement(v)
	return n
}

// isEmitting: a heteroatom that can give up its hydrogen to close a ring.
func (s *SuperStructure) isEmitting(v int) bool {
	return isHetero(s.element(v)) && s.Atom(v).Charge == 0 && s.TotalH(v) > 0
}

// isAccepting: a carbon carrying a double bond to a heteroatom.
func (s *SuperStructure) isAccepting(v int) bool {
	if s.element(v) != molecule.ElemC {
		return false
	}
	for _, nb := range s.Neighbors(v) {
		if s.Bond(nb.E).Order == molecule.BondDouble && isHetero(s.element(nb.V)) {
			return true
		}
	}
	return false
}

//Personal.AI order the ending
