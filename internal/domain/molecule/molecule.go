// Package molecule is the chemistry data model the matchers operate on: a
// sparse molecular graph with atom and bond attributes, query expressions,
// stereo descriptors, R-group definitions and 3D constraints, plus the
// perception helpers (rings, aromaticity, Kekulé assignment, hydrogen
// folding) the matchers consult.
package molecule

import (
	"fmt"

	"github.com/turtacn/molmatch/internal/geometry"
	"github.com/turtacn/molmatch/internal/geometry/spatial"
	"github.com/turtacn/molmatch/internal/graph"
	"github.com/turtacn/molmatch/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Atoms and bonds
// ─────────────────────────────────────────────────────────────────────────────

// BondOrder is the order of a bond.  BondZero marks virtual bonds added by
// tautomer super-structures.
type BondOrder int

const (
	BondZero BondOrder = iota
	BondSingle
	BondDouble
	BondTriple
	BondAromatic
)

func (o BondOrder) String() string {
	switch o {
	case BondZero:
		return "zero"
	case BondSingle:
		return "single"
	case BondDouble:
		return "double"
	case BondTriple:
		return "triple"
	case BondAromatic:
		return "aromatic"
	}
	return fmt.Sprintf("order(%d)", int(o))
}

// AtomKind separates ordinary atoms from placeholders.
type AtomKind int

const (
	AtomRegular AtomKind = iota
	// AtomPseudo is a named placeholder matched by name.
	AtomPseudo
	// AtomRSite is a Markush attachment site.
	AtomRSite
	// AtomAny is the query wildcard "*".
	AtomAny
)

// Atom holds per-vertex attributes.  ImplicitH is always an explicit count;
// the notation reader derives it from the valence model.
type Atom struct {
	Kind      AtomKind
	Number    int
	Isotope   int
	Charge    int
	Radical   int
	ImplicitH int
	Aromatic  bool
	Pseudo    string
	// RSites lists the R-group indices (1-based) an R-site accepts.
	RSites []int
	// AttachOrder lists the R-site neighbours by attachment-point order.
	AttachOrder []int
	AAM         int
	Pos         geometry.Vec3
	Expr        *AtomExpr
}

// Bond holds per-edge attributes.
type Bond struct {
	Order BondOrder
	Expr  *BondExpr
}

// ─────────────────────────────────────────────────────────────────────────────
// Molecule
// ─────────────────────────────────────────────────────────────────────────────

// Molecule is a molecular graph.  It is not safe for concurrent mutation;
// concurrent searches each work on their own Clone of a shared query.
type Molecule struct {
	g     *graph.Graph
	atoms []Atom
	bonds []Bond

	stereo   map[int]*Stereocenter
	cisTrans map[int]*CisTrans

	RGroups     *RGroups
	Constraints *spatial.Constraints
	HasCoords   bool
	Name        string

	rings        *graph.RingInfo
	ringsVersion uint64
}

// New returns an empty molecule.
func New() *Molecule {
	return &Molecule{
		g:        graph.New(),
		stereo:   make(map[int]*Stereocenter),
		cisTrans: make(map[int]*CisTrans),
	}
}

// Graph exposes the underlying graph for read-only algorithms.
func (m *Molecule) Graph() *graph.Graph { return m.g }

func (m *Molecule) VertexEnd() int                   { return m.g.VertexEnd() }
func (m *Molecule) HasVertex(v int) bool             { return m.g.HasVertex(v) }
func (m *Molecule) Vertices() []int                  { return m.g.Vertices() }
func (m *Molecule) VertexCount() int                 { return m.g.VertexCount() }
func (m *Molecule) Neighbors(v int) []graph.Neighbor { return m.g.Neighbors(v) }
func (m *Molecule) Degree(v int) int                 { return m.g.Degree(v) }
func (m *Molecule) EdgeEnd() int                     { return m.g.EdgeEnd() }
func (m *Molecule) HasEdge(e int) bool               { return m.g.HasEdge(e) }
func (m *Molecule) Edge(e int) graph.Edge            { return m.g.Edge(e) }
func (m *Molecule) Edges() []int                     { return m.g.Edges() }
func (m *Molecule) EdgeCount() int                   { return m.g.EdgeCount() }
func (m *Molecule) FindEdge(a, b int) int            { return m.g.FindEdge(a, b) }

// Atom returns the attributes of vertex v.  The pointer is invalidated by
// the next AddAtom.
func (m *Molecule) Atom(v int) *Atom { return &m.atoms[v] }

// Bond returns the attributes of edge e.  The pointer is invalidated by the
// next AddBond.
func (m *Molecule) Bond(e int) *Bond { return &m.bonds[e] }

// Position implements spatial.Positions.
func (m *Molecule) Position(v int) geometry.Vec3 { return m.atoms[v].Pos }

// AddAtom appends an atom and returns its index.
func (m *Molecule) AddAtom(a Atom) int {
	v := m.g.AddVertex()
	if v == len(m.atoms) {
		m.atoms = append(m.atoms, a)
	} else {
		m.atoms[v] = a
	}
	return v
}

// AddBond connects a and b.
func (m *Molecule) AddBond(a, b int, order BondOrder) (int, error) {
	return m.AddQueryBond(a, b, Bond{Order: order})
}

// AddQueryBond connects a and b with full bond attributes.
func (m *Molecule) AddQueryBond(a, b int, bond Bond) (int, error) {
	e, err := m.g.AddEdge(a, b)
	if err != nil {
		return -1, err
	}
	if e == len(m.bonds) {
		m.bonds = append(m.bonds, bond)
	} else {
		m.bonds[e] = bond
	}
	return e, nil
}

// RemoveBond deletes edge e and any cis-trans descriptor on it.
func (m *Molecule) RemoveBond(e int) error {
	if err := m.g.RemoveEdge(e); err != nil {
		return err
	}
	delete(m.cisTrans, e)
	m.bonds = m.bonds[:m.g.EdgeEnd()]
	return nil
}

// RemoveAtom deletes v with its bonds.  Stereocenters on v are dropped and
// pyramids of neighbouring centers referring to v lose that slot.
func (m *Molecule) RemoveAtom(v int) error {
	if !m.g.HasVertex(v) {
		return errors.Newf(errors.ErrCodeVertexNotFound, "atom %d does not exist", v)
	}
	for _, n := range m.g.Neighbors(v) {
		delete(m.cisTrans, n.E)
	}
	if err := m.g.RemoveVertex(v); err != nil {
		return err
	}
	delete(m.stereo, v)
	for _, sc := range m.stereo {
		for i, p := range sc.Pyramid {
			if p == v {
				sc.Pyramid[i] = -1
			}
		}
	}
	m.atoms = m.atoms[:m.g.VertexEnd()]
	m.bonds = m.bonds[:m.g.EdgeEnd()]
	return nil
}

// Rings returns ring perception for the current structure, recomputed when
// the graph changed since the last call.
func (m *Molecule) Rings() *graph.RingInfo {
	if m.rings == nil || m.ringsVersion != m.g.Version() {
		m.rings = graph.PerceiveRings(m.g)
		m.ringsVersion = m.g.Version()
	}
	return m.rings
}

// Clone returns a deep copy.  R-group fragments and constraint sets are
// immutable after construction and are shared.
func (m *Molecule) Clone() *Molecule {
	c := &Molecule{
		g:           m.g.Clone(),
		atoms:       make([]Atom, len(m.atoms)),
		bonds:       make([]Bond, len(m.bonds)),
		stereo:      make(map[int]*Stereocenter, len(m.stereo)),
		cisTrans:    make(map[int]*CisTrans, len(m.cisTrans)),
		RGroups:     m.RGroups,
		Constraints: m.Constraints,
		HasCoords:   m.HasCoords,
		Name:        m.Name,
	}
	copy(c.atoms, m.atoms)
	for i := range c.atoms {
		c.atoms[i].RSites = append([]int(nil), m.atoms[i].RSites...)
		c.atoms[i].AttachOrder = append([]int(nil), m.atoms[i].AttachOrder...)
	}
	copy(c.bonds, m.bonds)
	for v, sc := range m.stereo {
		cp := *sc
		c.stereo[v] = &cp
	}
	for e, ct := range m.cisTrans {
		cp := *ct
		c.cisTrans[e] = &cp
	}
	return c
}

// ─────────────────────────────────────────────────────────────────────────────
// Chemistry accessors
// ─────────────────────────────────────────────────────────────────────────────

// IsRSite reports whether v is a Markush attachment site.
func (m *Molecule) IsRSite(v int) bool { return m.atoms[v].Kind == AtomRSite }

// IsPseudo reports whether v is a named pseudo atom.
func (m *Molecule) IsPseudo(v int) bool { return m.atoms[v].Kind == AtomPseudo }

// IsHydrogen reports whether v is a plain hydrogen atom.
func (m *Molecule) IsHydrogen(v int) bool {
	a := &m.atoms[v]
	return a.Kind == AtomRegular && a.Number == ElemH
}

// ExplicitH counts hydrogen neighbours of v.
func (m *Molecule) ExplicitH(v int) int {
	n := 0
	for _, nb := range m.g.Neighbors(v) {
		if m.IsHydrogen(nb.V) {
			n++
		}
	}
	return n
}

// TotalH returns implicit plus explicit hydrogens on v.
func (m *Molecule) TotalH(v int) int {
	return m.atoms[v].ImplicitH + m.ExplicitH(v)
}

// HeavyDegree counts non-hydrogen neighbours of v.
func (m *Molecule) HeavyDegree(v int) int {
	return m.g.Degree(v) - m.ExplicitH(v)
}

// Connectivity is the total number of connections including all hydrogens.
func (m *Molecule) Connectivity(v int) int {
	return m.g.Degree(v) + m.atoms[v].ImplicitH
}

// BondOrderSum sums the orders of non-aromatic bonds at v and returns the
// number of aromatic bonds separately.  Zero-order bonds count for nothing.
func (m *Molecule) BondOrderSum(v int) (sum, aromatic int) {
	for _, nb := range m.g.Neighbors(v) {
		switch o := m.bonds[nb.E].Order; o {
		case BondAromatic:
			aromatic++
		default:
			sum += int(o)
		}
	}
	return sum, aromatic
}

// Valence returns the bond-order valence of v including hydrogens.  Aromatic
// bonds count one each plus one for the pi bond the atom takes part in.
func (m *Molecule) Valence(v int) int {
	sum, arom := m.BondOrderSum(v)
	val := sum + arom + m.atoms[v].ImplicitH
	if arom >= 2 && m.aromaticPiBond(v, arom) {
		val++
	}
	return val
}

// aromaticPiBond reports whether an aromatic atom carries a double bond in
// its Kekulé form (pyridine-type), as opposed to donating a lone pair.
func (m *Molecule) aromaticPiBond(v, aromaticBonds int) bool {
	a := &m.atoms[v]
	if a.Kind != AtomRegular {
		return false
	}
	vals := chargedValence(a.Number, a.Charge)
	if len(vals) == 0 {
		return a.Number == ElemC || a.Number == ElemB
	}
	sum, _ := m.BondOrderSum(v)
	used := sum + aromaticBonds + a.ImplicitH
	return vals[0]-used == 1
}

// Ring helpers -----------------------------------------------------------------

// InRing reports whether v belongs to any ring.
func (m *Molecule) InRing(v int) bool {
	return len(m.Rings().RingsOfVertex(v)) > 0
}

// RingMembership returns the number of basis rings containing v.
func (m *Molecule) RingMembership(v int) int {
	return m.Rings().RingCount(v)
}

// SmallestRing returns the size of the smallest ring through v, 0 if none.
func (m *Molecule) SmallestRing(v int) int {
	return m.Rings().SmallestRingOfVertex(m.g, v)
}

// RingBondCount counts ring bonds at v.
func (m *Molecule) RingBondCount(v int) int {
	return m.Rings().RingBondCount(m.g, v)
}

// IsRingBond reports whether e lies on a ring.
func (m *Molecule) IsRingBond(e int) bool {
	return m.Rings().IsRingEdge(e)
}

// ComponentCount returns the number of connected components.
func (m *Molecule) ComponentCount() int {
	_, n := graph.Components(m.g)
	return n
}

// Components returns atom lists per connected component.
func (m *Molecule) Components() [][]int {
	return graph.ComponentVertices(m.g)
}

// Submolecule copies the atoms in vertices and every bond between them.
// The returned map gives the new index of each copied atom.
func (m *Molecule) Submolecule(vertices []int) (*Molecule, map[int]int) {
	sub := New()
	index := make(map[int]int, len(vertices))
	for _, v := range vertices {
		a := m.atoms[v]
		a.RSites = append([]int(nil), a.RSites...)
		a.AttachOrder = nil
		index[v] = sub.AddAtom(a)
	}
	for _, e := range m.g.Edges() {
		ed := m.g.Edge(e)
		a, okA := index[ed.Beg]
		b, okB := index[ed.End]
		if okA && okB {
			_, _ = sub.AddQueryBond(a, b, m.bonds[e])
		}
	}
	sub.HasCoords = m.HasCoords
	return sub, index
}

// String gives a compact description for logs.
func (m *Molecule) String() string {
	return fmt.Sprintf("molecule{atoms=%d bonds=%d rgroups=%d}", m.g.VertexCount(), m.g.EdgeCount(), m.RGroups.Count())
}

//Personal.AI order the ending
