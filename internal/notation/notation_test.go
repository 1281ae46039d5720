package notation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molmatch/internal/domain/molecule"
	"github.com/turtacn/molmatch/internal/domain/reaction"
	"github.com/turtacn/molmatch/pkg/errors"
)

func TestParseMolecule_ImplicitHydrogens(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		counts []int
	}{
		{"ethanol", "CCO", []int{3, 2, 1}},
		{"acetic acid", "CC(=O)O", []int{3, 0, 0, 1}},
		{"acetylene", "C#C", []int{1, 1}},
		{"benzene", "c1ccccc1", []int{1, 1, 1, 1, 1, 1}},
		{"pyridine", "n1ccccc1", []int{0, 1, 1, 1, 1, 1}},
		{"furan", "o1cccc1", []int{0, 1, 1, 1, 1}},
		{"pyrrole", "[nH]1cccc1", []int{1, 1, 1, 1, 1}},
		{"ammonium", "[NH4+]", []int{4}},
		{"sulfone", "CS(=O)(=O)C", []int{3, 0, 0, 0, 3}},
		{"chloride", "[Cl-]", []int{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseMolecule(tt.input)
			require.NoError(t, err)
			require.Equal(t, len(tt.counts), m.VertexCount())
			for i, v := range m.Vertices() {
				assert.Equal(t, tt.counts[i], m.Atom(v).ImplicitH, "atom %d", i)
			}
		})
	}
}

func TestParseMolecule_BondOrders(t *testing.T) {
	m := MustParseMolecule("C=CC#N")
	require.Equal(t, 3, m.EdgeCount())
	assert.Equal(t, molecule.BondDouble, m.Bond(m.FindEdge(0, 1)).Order)
	assert.Equal(t, molecule.BondSingle, m.Bond(m.FindEdge(1, 2)).Order)
	assert.Equal(t, molecule.BondTriple, m.Bond(m.FindEdge(2, 3)).Order)

	b := MustParseMolecule("c1ccccc1C")
	assert.Equal(t, molecule.BondAromatic, b.Bond(b.FindEdge(0, 5)).Order)
	assert.Equal(t, molecule.BondSingle, b.Bond(b.FindEdge(5, 6)).Order)
}

func TestParseMolecule_BracketAtom(t *testing.T) {
	m := MustParseMolecule("[13CH3:7][O-]")
	c := m.Atom(0)
	assert.Equal(t, molecule.ElemC, c.Number)
	assert.Equal(t, 13, c.Isotope)
	assert.Equal(t, 3, c.ImplicitH)
	assert.Equal(t, 7, c.AAM)
	assert.Nil(t, c.Expr)
	assert.Equal(t, -1, m.Atom(1).Charge)

	fe := MustParseMolecule("[Fe+2]")
	assert.Equal(t, 2, fe.Atom(0).Charge)
	o := MustParseMolecule("[O--]")
	assert.Equal(t, -2, o.Atom(0).Charge)
}

func TestParseMolecule_RingClosures(t *testing.T) {
	m := MustParseMolecule("C%12CC%12")
	assert.Equal(t, 3, m.EdgeCount())
	assert.True(t, m.InRing(0))

	two := MustParseMolecule("C1CC2CCC1C2")
	assert.Equal(t, 8, two.EdgeCount())
	assert.Len(t, two.Rings().Rings, 2)
}

func TestParseMolecule_Components(t *testing.T) {
	m := MustParseMolecule("[Na+].[Cl-]")
	assert.Equal(t, 2, m.ComponentCount())
}

func TestParseMolecule_Errors(t *testing.T) {
	tests := []struct {
		input string
		code  errors.ErrorCode
	}{
		{"C1CC", errors.ErrCodeNotationRingBond},
		{"C=1CC-1", errors.ErrCodeNotationRingBond},
		{"C11", errors.ErrCodeNotationRingBond},
		{"C(C", errors.ErrCodeNotationSyntax},
		{"[Xx]", errors.ErrCodeNotationElement},
		{"C~C", errors.ErrCodeNotationSyntax},
		{"[C+-]", errors.ErrCodeNotationSyntax},
		{"CC |(0,0,0)|", errors.ErrCodeNotationSyntax},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseMolecule(tt.input)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestParseMolecule_Empty(t *testing.T) {
	m, err := ParseMolecule("  ")
	require.NoError(t, err)
	assert.Equal(t, 0, m.VertexCount())
}

func TestParseMolecule_Coordinates(t *testing.T) {
	m := MustParseMolecule("CO |(0,0,0;1.43,0,0)|")
	require.True(t, m.HasCoords)
	assert.InDelta(t, 1.43, m.Atom(1).Pos.X, 1e-12)
}

func TestParseMolecule_Chirality(t *testing.T) {
	a := MustParseMolecule("N[C@@H](C)C(=O)O")
	sc := a.Stereocenter(1)
	require.NotNil(t, sc)
	assert.Equal(t, [4]int{0, -1, 3, 2}, sc.Pyramid)

	b := MustParseMolecule("N[C@H](C)C(=O)O")
	sb := b.Stereocenter(1)
	require.NotNil(t, sb)
	assert.Equal(t, [4]int{0, -1, 2, 3}, sb.Pyramid)
	assert.False(t, molecule.SameChirality(sc.Pyramid, sb.Pyramid))

	// same center written from another starting atom
	c := MustParseMolecule("C[C@H](N)C(=O)O")
	sc2 := c.Stereocenter(1)
	require.NotNil(t, sc2)
	// map c's indices onto a's: C0->2, N2->0, C3->3
	remap := map[int]int{0: 2, 2: 0, 3: 3, -1: -1}
	var p [4]int
	for i, v := range sc2.Pyramid {
		p[i] = remap[v]
	}
	assert.True(t, molecule.SameChirality(sc.Pyramid, p))
}

func TestParseMolecule_RingClosureChirality(t *testing.T) {
	m := MustParseMolecule("[C@@]1(F)(Cl)CC1")
	sc := m.Stereocenter(0)
	require.NotNil(t, sc)
	assert.Equal(t, 4, sc.Pyramid[0])
}

func TestParseMolecule_CisTrans(t *testing.T) {
	tests := []struct {
		input  string
		parity molecule.CisTransParity
	}{
		{"F/C=C/F", molecule.Trans},
		{"F\\C=C/F", molecule.Cis},
		{"C(/F)=C/F", molecule.Cis},
		{"F/C=C\\F", molecule.Cis},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m := MustParseMolecule(tt.input)
			bonds := m.CisTransBonds()
			require.Len(t, bonds, 1)
			assert.Equal(t, tt.parity, m.CisTrans(bonds[0]).Parity)
		})
	}
	assert.Empty(t, MustParseMolecule("FC=CF").CisTransBonds())
}

func TestParseQuery_Expressions(t *testing.T) {
	q := MustParseQuery("[#7]C~[nH]")
	n, ok := q.QueryElement(0)
	require.True(t, ok)
	assert.Equal(t, molecule.ElemN, n)
	assert.False(t, q.Atom(0).Expr.Has(molecule.ExprTotalH))

	assert.Nil(t, q.Atom(1).Expr)
	bond := q.Bond(q.FindEdge(1, 2))
	require.NotNil(t, bond.Expr)
	assert.True(t, bond.Expr.AcceptsOrder(molecule.BondDouble))

	h, ok := q.Atom(2).Expr.Definite(molecule.ExprTotalH)
	require.True(t, ok)
	assert.Equal(t, 1, h)
	assert.True(t, q.IsQuery())
}

func TestParseQuery_RSitesAndPseudo(t *testing.T) {
	q := MustParseQuery("[R1]c1ccc([R1,2])cc1[$Ph]")
	assert.Equal(t, []int{1}, q.Atom(0).RSites)
	assert.Equal(t, []int{1, 2}, q.Atom(5).RSites)
	assert.Equal(t, []int{1}, q.Atom(0).AttachOrder)
	last := q.VertexCount() - 1
	assert.Equal(t, molecule.AtomPseudo, q.Atom(last).Kind)
	assert.Equal(t, "Ph", q.Atom(last).Pseudo)
	assert.ElementsMatch(t, []int{0, 5}, q.RSites())
}

func TestParseFragment(t *testing.T) {
	f, err := ParseFragment("[*:1]CC([*:2])O")
	require.NoError(t, err)
	assert.Equal(t, 3, f.Mol.VertexCount())
	require.Len(t, f.Attach, 2)
	assert.Equal(t, 1, f.Attach[0])
	assert.Equal(t, 2, f.Attach[1])
	assert.Equal(t, 2, f.Mol.Atom(1).ImplicitH)

	_, err = ParseFragment("CC")
	assert.True(t, errors.IsCode(err, errors.ErrCodeAttachmentPoints))
	_, err = ParseFragment("[*:2]CC")
	assert.True(t, errors.IsCode(err, errors.ErrCodeAttachmentPoints))
}

func TestParseReaction(t *testing.T) {
	r, err := ParseReaction("[CH3:1][OH:2].C>>[CH3:1][O:2]C")
	require.NoError(t, err)
	assert.Equal(t, 2, r.Count(reaction.Reactants))
	assert.Equal(t, 0, r.Count(reaction.Catalysts))
	assert.Equal(t, 1, r.Count(reaction.Products))
	assert.Equal(t, map[int]bool{1: true, 2: true}, r.AAMLabels(reaction.Products))

	_, err = ParseReaction("CC>CC")
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotationSyntax))
}

//Personal.AI order the ending
