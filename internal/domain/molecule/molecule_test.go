package molecule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molmatch/internal/domain/molecule"
	"github.com/turtacn/molmatch/internal/notation"
	"github.com/turtacn/molmatch/pkg/errors"
)

func TestMolecule_AddAndRemove(t *testing.T) {
	m := molecule.New()
	c := m.AddAtom(molecule.Atom{Number: molecule.ElemC, ImplicitH: 3})
	o := m.AddAtom(molecule.Atom{Number: molecule.ElemO, ImplicitH: 1})
	e, err := m.AddBond(c, o, molecule.BondSingle)
	require.NoError(t, err)
	assert.Equal(t, molecule.BondSingle, m.Bond(e).Order)
	_, err = m.AddBond(c, o, molecule.BondDouble)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEdgeExists))

	require.NoError(t, m.RemoveAtom(o))
	assert.Equal(t, 1, m.VertexCount())
	assert.Equal(t, 0, m.EdgeCount())
	assert.True(t, errors.IsCode(m.RemoveAtom(o), errors.ErrCodeVertexNotFound))
}

func TestMolecule_CloneIsIndependent(t *testing.T) {
	m := notation.MustParseMolecule("N[C@@H](C)C(=O)O")
	c := m.Clone()
	c.Atom(0).Charge = 1
	c.Stereocenter(1).Pyramid[0] = 99
	require.NoError(t, c.RemoveAtom(2))

	assert.Equal(t, 0, m.Atom(0).Charge)
	assert.Equal(t, 0, m.Stereocenter(1).Pyramid[0])
	assert.Equal(t, 6, m.VertexCount())
}

func TestMolecule_Accessors(t *testing.T) {
	m := notation.MustParseMolecule("c1ccccc1C([H])=O")
	methine := 6
	assert.Equal(t, 0, m.Atom(methine).ImplicitH)
	assert.Equal(t, 1, m.ExplicitH(methine))
	assert.Equal(t, 1, m.TotalH(methine))
	assert.Equal(t, 2, m.HeavyDegree(methine))
	assert.Equal(t, 3, m.Connectivity(methine))
	assert.Equal(t, 4, m.Valence(methine))
	assert.Equal(t, 4, m.Valence(0))
	assert.True(t, m.InRing(0))
	assert.False(t, m.InRing(methine))
	assert.Equal(t, 6, m.SmallestRing(0))
	assert.Equal(t, 1, m.Property(molecule.ExprAromatic, 0))
	assert.Equal(t, 0, m.Property(molecule.ExprAromatic, methine))
}

func TestMolecule_Submolecule(t *testing.T) {
	m := notation.MustParseMolecule("CCOC")
	sub, mapping := m.Submolecule([]int{1, 2, 3})
	assert.Equal(t, 3, sub.VertexCount())
	assert.Equal(t, 2, sub.EdgeCount())
	assert.Len(t, mapping, 3)
	assert.Equal(t, molecule.ElemO, sub.Atom(mapping[2]).Number)
}

func TestMolecule_Components(t *testing.T) {
	m := notation.MustParseMolecule("CC.O.[Na+]")
	assert.Equal(t, 3, m.ComponentCount())
	sizes := map[int]bool{}
	for _, c := range m.Components() {
		sizes[len(c)] = true
	}
	assert.Equal(t, map[int]bool{2: true, 1: true}, sizes)
}

// ─────────────────────────────────────────────────────────────────────────────
// Aromaticity and Kekulé assignment
// ─────────────────────────────────────────────────────────────────────────────

func countAromatic(flags []bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

func TestPerceiveAromaticBonds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"kekule benzene", "C1=CC=CC=C1", 6},
		{"cyclohexene", "C1=CCCCC1", 0},
		{"pyrrole", "C1=CNC=C1", 5},
		{"naphthalene", "C1=CC=C2C=CC=CC2=C1", 11},
		{"cyclobutadiene", "C1=CC=C1", 0},
		{"cyclohexenone", "O=C1C=CCCC1", 0},
		{"pyridone", "O=C1C=CC=CN1", 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := notation.MustParseMolecule(tt.input)
			assert.Equal(t, tt.want, countAromatic(m.PerceiveAromaticBonds()))
		})
	}
}

func TestAromatize(t *testing.T) {
	m := notation.MustParseMolecule("C1=CC=CC=C1C")
	require.True(t, m.Aromatize())
	for _, e := range m.Edges() {
		ed := m.Edge(e)
		if ed.Beg == 6 || ed.End == 6 {
			assert.Equal(t, molecule.BondSingle, m.Bond(e).Order)
			continue
		}
		assert.Equal(t, molecule.BondAromatic, m.Bond(e).Order)
	}
	assert.True(t, m.Atom(0).Aromatic)
	assert.False(t, m.Atom(6).Aromatic)
	assert.Len(t, m.AromaticSystem(0), 6)
	assert.False(t, m.Aromatize())
}

func TestDearomatizer_Benzene(t *testing.T) {
	m := notation.MustParseMolecule("c1ccccc1")
	d := molecule.NewDearomatizer(m)
	e01, e12, e05 := m.FindEdge(0, 1), m.FindEdge(1, 2), m.FindEdge(0, 5)

	assert.True(t, d.IsAbleToFixBond(e01, molecule.BondDouble))
	assert.True(t, d.IsAbleToFixBond(e01, molecule.BondSingle))
	assert.False(t, d.IsAbleToFixBond(e01, molecule.BondTriple))

	release := d.Fix(e01, molecule.BondDouble)
	require.NotNil(t, release)
	assert.Equal(t, 1, d.FixedCount())
	assert.False(t, d.IsAbleToFixBond(e12, molecule.BondDouble))
	assert.False(t, d.IsAbleToFixBond(e05, molecule.BondDouble))
	assert.True(t, d.IsAbleToFixBond(e12, molecule.BondSingle))
	assert.True(t, d.IsAbleToFixBond(e01, molecule.BondDouble))
	assert.False(t, d.IsAbleToFixBond(e01, molecule.BondSingle))

	release()
	assert.Equal(t, 0, d.FixedCount())
	assert.True(t, d.IsAbleToFixBond(e12, molecule.BondDouble))
}

func TestDearomatizer_Pyrrole(t *testing.T) {
	m := notation.MustParseMolecule("c1cc[nH]c1")
	d := molecule.NewDearomatizer(m)
	assert.False(t, d.IsAbleToFixBond(m.FindEdge(0, 1), molecule.BondDouble))
	assert.True(t, d.IsAbleToFixBond(m.FindEdge(1, 2), molecule.BondDouble))
	assert.True(t, d.IsAbleToFixBond(m.FindEdge(0, 4), molecule.BondDouble))
	assert.False(t, d.IsAbleToFixBond(m.FindEdge(2, 3), molecule.BondDouble))
}

func TestDearomatizer_NonAromaticBond(t *testing.T) {
	m := notation.MustParseMolecule("c1ccccc1C")
	d := molecule.NewDearomatizer(m)
	e := m.FindEdge(5, 6)
	assert.False(t, d.IsAromatic(e))
	assert.True(t, d.IsAbleToFixBond(e, molecule.BondSingle))
	assert.False(t, d.IsAbleToFixBond(e, molecule.BondDouble))
	release := d.Fix(e, molecule.BondSingle)
	require.NotNil(t, release)
	assert.Equal(t, 1, d.FixedCount())
	release()
	assert.Equal(t, 0, d.FixedCount())
}

// ─────────────────────────────────────────────────────────────────────────────
// Hydrogens
// ─────────────────────────────────────────────────────────────────────────────

func TestHydrogens_UnfoldFoldRoundTrip(t *testing.T) {
	m := notation.MustParseMolecule("N[C@@H](C)C(=O)O")
	before := m.Clone()

	u := m.UnfoldHydrogens(nil)
	assert.Equal(t, 7, u.Count())
	assert.Equal(t, 13, m.VertexCount())
	for _, v := range before.Vertices() {
		assert.Equal(t, 0, m.Atom(v).ImplicitH)
		assert.Equal(t, before.TotalH(v), m.TotalH(v))
	}
	sc := m.Stereocenter(1)
	require.NotNil(t, sc)
	assert.NotContains(t, sc.Pyramid, -1)

	require.NoError(t, m.FoldHydrogens(u))
	assert.True(t, m.Graph().Equal(before.Graph()))
	for _, v := range before.Vertices() {
		assert.Equal(t, before.Atom(v).ImplicitH, m.Atom(v).ImplicitH)
	}
	assert.Equal(t, before.Stereocenter(1).Pyramid, m.Stereocenter(1).Pyramid)
}

func TestHydrogens_UnfoldSelected(t *testing.T) {
	m := notation.MustParseMolecule("CO")
	u := m.UnfoldHydrogens(func(v int) bool { return v == 1 })
	assert.Equal(t, 1, u.Count())
	assert.Equal(t, 3, m.Atom(0).ImplicitH)
	require.NoError(t, m.FoldHydrogens(u))
	assert.Equal(t, 2, m.VertexCount())
}

func TestNeedsExplicitHydrogens(t *testing.T) {
	q := notation.MustParseQuery("[2H]C([H])[H+]")
	assert.True(t, q.NeedsExplicitHydrogens(0))
	assert.False(t, q.NeedsExplicitHydrogens(1))
	assert.False(t, q.NeedsExplicitHydrogens(2))
	assert.True(t, q.NeedsExplicitHydrogens(3))

	chiral := notation.MustParseQuery("[H][C@](F)(Cl)Br")
	assert.True(t, chiral.NeedsExplicitHydrogens(0))
}

// ─────────────────────────────────────────────────────────────────────────────
// Stereo
// ─────────────────────────────────────────────────────────────────────────────

func TestPyramidParity(t *testing.T) {
	a := [4]int{1, 2, 3, 4}
	assert.Equal(t, 0, molecule.PyramidParity(a, a))
	assert.Equal(t, 1, molecule.PyramidParity(a, [4]int{2, 1, 3, 4}))
	assert.Equal(t, 0, molecule.PyramidParity(a, [4]int{2, 3, 1, 4}))
	assert.Equal(t, 0, molecule.PyramidParity(a, [4]int{2, 1, 4, 3}))
	assert.Equal(t, -1, molecule.PyramidParity(a, [4]int{1, 2, 3, 5}))
	assert.True(t, molecule.SameChirality(a, [4]int{4, 3, 2, 1}))
}

func TestStereo_RemoveAtomClearsPyramidSlot(t *testing.T) {
	m := notation.MustParseMolecule("N[C@@H](C)C(=O)O")
	require.NoError(t, m.RemoveAtom(0))
	sc := m.Stereocenter(1)
	require.NotNil(t, sc)
	assert.Equal(t, -1, sc.Pyramid[0])
	assert.True(t, m.HasStereo())
}

// ─────────────────────────────────────────────────────────────────────────────
// R-groups
// ─────────────────────────────────────────────────────────────────────────────

func TestParseOccurrence(t *testing.T) {
	ranges, err := molecule.ParseOccurrence("1,3-5,>7")
	require.NoError(t, err)
	g := &molecule.RGroup{Occurrence: ranges}
	for n, want := range map[int]bool{0: false, 1: true, 2: false, 4: true, 7: false, 8: true} {
		assert.Equal(t, want, g.OccurrenceSatisfied(n), "n=%d", n)
	}
	lt, err := molecule.ParseOccurrence("<2")
	require.NoError(t, err)
	assert.True(t, (&molecule.RGroup{Occurrence: lt}).OccurrenceSatisfied(1))
	assert.False(t, (&molecule.RGroup{Occurrence: lt}).OccurrenceSatisfied(2))

	_, err = molecule.ParseOccurrence("x")
	assert.Error(t, err)

	assert.False(t, (&molecule.RGroup{}).OccurrenceSatisfied(0))
	assert.True(t, (&molecule.RGroup{}).OccurrenceSatisfied(2))
}

func TestRGroups_Validate(t *testing.T) {
	methyl := notation.MustParseFragment("[*:1]C")
	rg := molecule.NewRGroups()
	rg.Add(&molecule.RGroup{Fragments: []*molecule.Fragment{methyl}})
	require.NoError(t, rg.Validate())

	self := molecule.NewRGroups()
	self.Add(&molecule.RGroup{Fragments: []*molecule.Fragment{methyl}, IfThen: 1})
	assert.True(t, errors.IsCode(self.Validate(), errors.ErrCodeIfThenCycle))

	undefined := molecule.NewRGroups()
	undefined.Add(&molecule.RGroup{Fragments: []*molecule.Fragment{methyl}, IfThen: 4})
	assert.True(t, errors.IsCode(undefined.Validate(), errors.ErrCodeRGroupUndefined))

	bad := molecule.NewRGroups()
	bad.Add(&molecule.RGroup{Fragments: []*molecule.Fragment{{Mol: methyl.Mol}}})
	assert.True(t, errors.IsCode(bad.Validate(), errors.ErrCodeAttachmentPoints))

	var none *molecule.RGroups
	assert.Equal(t, 0, none.Count())
	assert.NoError(t, none.Validate())
}

func TestMolecule_ReferencedRGroups(t *testing.T) {
	q := notation.MustParseQuery("[R3]CC([R1,2])[R1]")
	assert.Equal(t, []int{1, 2, 3}, q.ReferencedRGroups())
	assert.Equal(t, []int{1}, q.SiteAttachments(0))
}

// ─────────────────────────────────────────────────────────────────────────────
// Fingerprints
// ─────────────────────────────────────────────────────────────────────────────

func TestFingerprint_SubstructureContainment(t *testing.T) {
	opts := molecule.FingerprintOptions{}
	target := molecule.ComputeFingerprint(notation.MustParseMolecule("CC(=O)Oc1ccccc1C(=O)O"), opts)
	kekule := molecule.ComputeFingerprint(notation.MustParseMolecule("CC(=O)OC1=CC=CC=C1C(=O)O"), opts)
	query := molecule.ComputeQueryFingerprint(notation.MustParseQuery("c1ccccc1O"), opts)
	wildcard := molecule.ComputeQueryFingerprint(notation.MustParseQuery("*C(=O)O"), opts)
	unrelated := molecule.ComputeQueryFingerprint(notation.MustParseQuery("ClC(Br)I"), opts)

	assert.True(t, target.Contains(query))
	assert.True(t, target.Contains(wildcard))
	assert.False(t, target.Contains(unrelated))
	assert.Equal(t, target.Bits, kekule.Bits)
	assert.False(t, target.Contains(molecule.NewFingerprint(512)))
}

func TestFingerprint_Bits(t *testing.T) {
	fp := molecule.NewFingerprint(16)
	fp.SetBit(3)
	fp.SetBit(3)
	fp.SetBit(15)
	fp.SetBit(16)
	assert.Equal(t, 2, fp.NumOnBits)
	assert.True(t, fp.GetBit(3))
	assert.False(t, fp.GetBit(4))
	assert.False(t, fp.GetBit(-1))
}

func TestSimilarity(t *testing.T) {
	a := molecule.NewFingerprint(8)
	b := molecule.NewFingerprint(8)
	for _, i := range []int{0, 1, 2, 3} {
		a.SetBit(i)
	}
	for _, i := range []int{2, 3, 4, 5} {
		b.SetBit(i)
	}
	tests := []struct {
		metric molecule.SimilarityMetric
		want   float64
	}{
		{molecule.MetricTanimoto, 2.0 / 6.0},
		{molecule.MetricDice, 0.5},
		{molecule.MetricCosine, 0.5},
	}
	for _, tt := range tests {
		t.Run(string(tt.metric), func(t *testing.T) {
			calc, err := molecule.NewSimilarityCalculator(tt.metric)
			require.NoError(t, err)
			got, err := calc.Calculate(a, b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
	_, err := molecule.ParseSimilarityMetric("euclid")
	assert.Error(t, err)
	m, err := molecule.ParseSimilarityMetric("")
	require.NoError(t, err)
	assert.Equal(t, molecule.MetricTanimoto, m)
}

func TestWithinBounds(t *testing.T) {
	assert.True(t, molecule.WithinBounds(0.5, 0.5, 1))
	assert.True(t, molecule.WithinBounds(0.4999995, 0.5, 1))
	assert.False(t, molecule.WithinBounds(0.49, 0.5, 1))
	assert.True(t, molecule.WithinBounds(1.0000001, 0, 1))
}

//Personal.AI order the ending
