package tautomer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molmatch/internal/domain/molecule"
	"github.com/turtacn/molmatch/internal/matching/substructure"
	"github.com/turtacn/molmatch/internal/notation"
	"github.com/turtacn/molmatch/pkg/errors"
)

func TestParseConditions(t *testing.T) {
	c, err := ParseConditions("TAU R1 R3 HYD R-C")
	require.NoError(t, err)
	assert.Equal(t, RuleHeteroHetero|RuleCarbonCarbon, c.Rules)
	assert.True(t, c.ForceHydrogens)
	assert.True(t, c.RingChain)
	assert.Equal(t, "TAU R1 R3 HYD R-C", c.String())

	c, err = ParseConditions("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConditions(), c)
	assert.Equal(t, "TAU", c.String())

	c, err = ParseConditions("tau r2")
	require.NoError(t, err)
	assert.Equal(t, RuleCarbonHetero, c.Rules)

	for _, bad := range []string{"TAU R7", "TAU FOO", "TAU 12", "TAU ?"} {
		_, err := ParseConditions(bad)
		assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownCondition), bad)
	}
}

func find(t *testing.T, query, target string, opts ...Option) (*Matcher, bool) {
	t.Helper()
	m := New(notation.MustParseMolecule(target), opts...)
	require.NoError(t, m.SetQuery(notation.MustParseMolecule(query)))
	found, err := m.Find()
	require.NoError(t, err)
	return m, found
}

func conds(t *testing.T, s string) Option {
	c, err := ParseConditions(s)
	require.NoError(t, err)
	return WithConditions(c)
}

func TestKetoEnol(t *testing.T) {
	m, found := find(t, "C(O)=C", "C(=O)C")
	require.True(t, found)
	require.Len(t, m.Chains(), 1)
	ch := m.Chains()[0]
	assert.Equal(t, 1, ch.Length())
	assert.Equal(t, 1, ch.Donor())
	assert.Equal(t, 2, ch.Acceptor())
	assert.Equal(t, RuleCarbonHetero, ch.Rule)
	assert.Equal(t, []int{0, 1, 2}, m.QueryMapping())

	_, found = find(t, "C(O)=C", "C(=O)C", conds(t, "TAU R1"))
	assert.False(t, found)

	plain := substructure.New(notation.MustParseMolecule("C(=O)C"))
	require.NoError(t, plain.SetQuery(notation.MustParseMolecule("C(O)=C")))
	found, err := plain.Find()
	require.NoError(t, err)
	assert.False(t, found, "not an ordinary substructure")
}

func TestAmideImidicAcid(t *testing.T) {
	m, found := find(t, "NC(C)=O", "N=C(C)O")
	require.True(t, found)
	require.Len(t, m.Chains(), 1)
	assert.Equal(t, RuleHeteroHetero, m.Chains()[0].Rule)

	_, found = find(t, "NC(C)=O", "N=C(C)O", conds(t, "TAU R2"))
	assert.False(t, found)
}

func TestHydroxypyridinePyridone(t *testing.T) {
	m, found := find(t, "Oc1ccccn1", "O=C1C=CC=CN1")
	require.True(t, found)
	require.Len(t, m.Chains(), 1)
	ch := m.Chains()[0]
	assert.Equal(t, RuleHeteroHetero, ch.Rule)
	assert.Equal(t, 1, ch.Length())
}

func TestIdenticalMoleculesHaveNoChains(t *testing.T) {
	m, found := find(t, "CC(=O)O", "CC(=O)O")
	require.True(t, found)
	assert.Empty(t, m.Chains())

	_, found = find(t, "CC(=O)O", "CCC(=O)O")
	assert.False(t, found)
	_, found = find(t, "CCO", "CC=O")
	assert.False(t, found, "hydrogenation is not a tautomeric shift")
}

func TestUnshiftedEmbeddingPreferred(t *testing.T) {
	m, found := find(t, "N=C(N)N", "NC(N)=N")
	require.True(t, found)
	assert.Empty(t, m.Chains())
	assert.Equal(t, 3, m.QueryMapping()[0], "the imine nitrogen maps onto the imine nitrogen")

	shifted := New(notation.MustParseMolecule("NC(N)=N"))
	require.NoError(t, shifted.SetQuery(notation.MustParseMolecule("N=C(N)N")))
	require.True(t, shifted.Fix(0, 0))
	found, err := shifted.Find()
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, shifted.Chains(), 1)
	ch := shifted.Chains()[0]
	assert.Equal(t, 0, ch.Acceptor())
	assert.Equal(t, 3, shifted.QueryMapping()[ch.Donor()], "the hydrogen leaves the atom lying on the target imine")

	var chained, plain int
	for ok, err := m.Find(); ok; ok, err = m.FindNext() {
		require.NoError(t, err)
		if len(m.Chains()) == 0 {
			require.Zero(t, chained, "unshifted embeddings come first")
			plain++
		} else {
			chained++
		}
	}
	assert.Positive(t, plain)
	assert.Positive(t, chained)
}

func TestChainFinderBacktracks(t *testing.T) {
	q := NewSuperStructure(notation.MustParseMolecule("OCCO"), false)
	ctx := &SearchContext{Query: q, Core1: []int{0, 1, 2, 3}, dh: []int{1, 0, 0, -1}}
	ctx.pairs = []*bondPair{
		{kind: pairMapped, qe: 0, qa: 0, qb: 1, oq: molecule.BondSingle, ot: molecule.BondDouble},
		{kind: pairMapped, qe: 1, qa: 1, qb: 2, oq: molecule.BondDouble, ot: molecule.BondSingle},
		{kind: pairMapped, qe: 2, qa: 1, qb: 3, oq: molecule.BondDouble, ot: molecule.BondSingle},
	}
	chains, ok := newChainFinder(ctx).Find()
	require.True(t, ok, "the dead end through atom 2 is undone")
	require.Len(t, chains, 1)
	assert.Equal(t, []int{0, 1, 3}, chains[0].Atoms)
	assert.Equal(t, []int{0, 2}, chains[0].Bonds)
	assert.Equal(t, []int{0, 1, 3}, chains[0].TargetAtoms)
	assert.Equal(t, RuleHeteroHetero, chains[0].Rule)

	ctx.dh = []int{1, 0, 0, 0}
	_, ok = newChainFinder(ctx).Find()
	assert.False(t, ok, "a donor without an acceptor does not decompose")
}

func TestRingChain(t *testing.T) {
	_, found := find(t, "OCCCC=O", "OC1CCCO1")
	assert.False(t, found)

	m, found := find(t, "OCCCC=O", "OC1CCCO1", conds(t, "TAU R-C"))
	require.True(t, found)
	require.Len(t, m.Chains(), 1)
	assert.Equal(t, RuleHeteroHetero, m.Chains()[0].Rule)

	_, found = find(t, "OC1CCCO1", "OCCCC=O", conds(t, "TAU R-C"))
	assert.True(t, found)
}

func TestSubstructureMode(t *testing.T) {
	m, found := find(t, "OC=C", "CC(=O)C", WithSubstructure(true))
	require.True(t, found)
	require.Len(t, m.Chains(), 1)
	assert.Equal(t, 1, m.Chains()[0].Length())

	_, found = find(t, "OC=C", "CC(=O)C")
	assert.False(t, found, "whole-molecule mode needs equal atom counts")

	_, found = find(t, "OC=C", "CC(C)C", WithSubstructure(true))
	assert.False(t, found)
}

func TestSuperStructure(t *testing.T) {
	open := notation.MustParseMolecule("OCCCC=O")
	s := NewSuperStructure(open, true)
	require.Equal(t, 1, s.VirtualBonds())
	e := s.FindEdge(0, 4)
	require.GreaterOrEqual(t, e, 0)
	assert.True(t, s.IsVirtual(e))
	assert.Equal(t, molecule.BondZero, s.Bond(e).Order)
	assert.Equal(t, -1, open.FindEdge(0, 4), "the original is untouched")

	assert.Zero(t, NewSuperStructure(open, false).VirtualBonds())
	assert.Zero(t, NewSuperStructure(notation.MustParseMolecule("OCCC=O"), true).VirtualBonds())
	assert.Equal(t, 1, NewSuperStructure(notation.MustParseMolecule("OCCCCC=O"), true).VirtualBonds())
	assert.Zero(t, NewSuperStructure(notation.MustParseMolecule("OCCCCCC=O"), true).VirtualBonds(), "a seven-membered ring is too large")
}

func TestErrors(t *testing.T) {
	m := New(notation.MustParseMolecule("CC"))
	_, err := m.Find()
	assert.True(t, errors.IsCode(err, errors.ErrCodeQueryNotSet))
	assert.Error(t, m.SetQuery(nil))

	q := NewSuperStructure(notation.MustParseMolecule("C(O)=C"), false)
	ctx := NewSearchContext(q, NewSuperStructure(notation.MustParseMolecule("C(=O)C"), false), DefaultConditions(), true)
	ctx.dh = make([]int, q.VertexEnd())
	_, _, err = (&ChainChecker{ctx: ctx}).releaseChain(Chain{Atoms: []int{1, 0, 2}, Bonds: []int{0, 1}})
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownHydrogenDiff))
}

//Personal.AI order the ending
