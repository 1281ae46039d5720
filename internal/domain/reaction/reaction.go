// Package reaction models a chemical reaction as three ordered lists of
// molecules.
package reaction

import (
	"fmt"

	"github.com/turtacn/molmatch/internal/domain/molecule"
)

// Side selects one of the molecule lists of a reaction.
type Side int

const (
	Reactants Side = iota
	Catalysts
	Products
)

func (s Side) String() string {
	switch s {
	case Reactants:
		return "reactants"
	case Catalysts:
		return "catalysts"
	case Products:
		return "products"
	}
	return fmt.Sprintf("side(%d)", int(s))
}

// Reaction holds reactant, catalyst and product molecules.
type Reaction struct {
	sides [3][]*molecule.Molecule
}

// New returns an empty reaction.
func New() *Reaction {
	return &Reaction{}
}

// Add appends m to side s and returns its index within the side.
func (r *Reaction) Add(s Side, m *molecule.Molecule) int {
	r.sides[s] = append(r.sides[s], m)
	return len(r.sides[s]) - 1
}

// Molecules returns the molecules of side s.
func (r *Reaction) Molecules(s Side) []*molecule.Molecule {
	return r.sides[s]
}

// Molecule returns molecule i of side s.
func (r *Reaction) Molecule(s Side, i int) *molecule.Molecule {
	return r.sides[s][i]
}

// Count returns the number of molecules on side s.
func (r *Reaction) Count(s Side) int {
	return len(r.sides[s])
}

// Clone deep-copies every molecule.
func (r *Reaction) Clone() *Reaction {
	c := New()
	for s := range r.sides {
		for _, m := range r.sides[s] {
			c.sides[s] = append(c.sides[s], m.Clone())
		}
	}
	return c
}

// AAMLabels returns the set of atom-to-atom mapping labels used on side s.
func (r *Reaction) AAMLabels(s Side) map[int]bool {
	out := make(map[int]bool)
	for _, m := range r.sides[s] {
		for _, v := range m.Vertices() {
			if aam := m.Atom(v).AAM; aam > 0 {
				out[aam] = true
			}
		}
	}
	return out
}

func (r *Reaction) String() string {
	return fmt.Sprintf("reaction{reactants=%d catalysts=%d products=%d}",
		len(r.sides[Reactants]), len(r.sides[Catalysts]), len(r.sides[Products]))
}

//Personal.AI order the ending
