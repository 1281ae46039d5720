package testutil

import (
	"testing"

	"github.com/turtacn/molmatch/internal/domain/molecule"
	"github.com/turtacn/molmatch/internal/domain/reaction"
	"github.com/turtacn/molmatch/internal/notation"
)

// Common molecules in line notation.
const (
	Benzene     = "c1ccccc1"
	Phenol      = "Oc1ccccc1"
	Toluene     = "Cc1ccccc1"
	Cyclohexane = "C1CCCCC1"
	Ethanol     = "CCO"
	Acetone     = "CC(=O)C"
	Pyridone    = "O=C1C=CC=CN1"
)

// Molecule parses a target molecule or fails the test.
func Molecule(t testing.TB, s string) *molecule.Molecule {
	t.Helper()
	m, err := notation.ParseMolecule(s)
	if err != nil {
		t.Fatalf("parse molecule %q: %v", s, err)
	}
	return m
}

// Query parses a query molecule or fails the test.
func Query(t testing.TB, s string) *molecule.Molecule {
	t.Helper()
	m, err := notation.ParseQuery(s)
	if err != nil {
		t.Fatalf("parse query %q: %v", s, err)
	}
	return m
}

// Molecules parses every notation as a target molecule.
func Molecules(t testing.TB, ss ...string) []*molecule.Molecule {
	t.Helper()
	out := make([]*molecule.Molecule, len(ss))
	for i, s := range ss {
		out[i] = Molecule(t, s)
	}
	return out
}

// Reaction parses a reaction or fails the test.
func Reaction(t testing.TB, s string) *reaction.Reaction {
	t.Helper()
	r, err := notation.ParseReaction(s)
	if err != nil {
		t.Fatalf("parse reaction %q: %v", s, err)
	}
	return r
}

//Personal.AI order the ending
