package substructure

import (
	"github.com/turtacn/molmatch/internal/infrastructure/monitoring/logging"
)

// Match3D selects how query coordinates are compared with the target's.
type Match3D int

const (
	Match3DNone Match3D = iota
	// Match3DAffine fits mapped atoms with rotation and uniform scale as
	// pairs are added.
	Match3DAffine
	// Match3DConformation fits each connected query component rigidly once
	// the embedding is complete.
	Match3DConformation
)

func (m Match3D) String() string {
	switch m {
	case Match3DAffine:
		return "affine"
	case Match3DConformation:
		return "conformation"
	}
	return "none"
}

// DefaultRMSThreshold bounds the 3D fit deviation, in coordinate units.
const DefaultRMSThreshold = 0.4

// Options configure a Matcher.
type Options struct {
	// FindAllEmbeddings makes Find collect every embedding into Embeddings
	// instead of stopping at the first.
	FindAllEmbeddings bool
	// FindUniqueEmbeddings drops embeddings whose target atom set was seen.
	FindUniqueEmbeddings bool
	// FindUniqueByEdges also compares target bond sets when deduplicating.
	FindUniqueByEdges bool
	// SaveForIteration keeps the query-to-target mapping of stored embeddings.
	SaveForIteration bool

	Match3D      Match3D
	RMSThreshold float64

	// DisableFoldingQueryH keeps terminal query hydrogens as atoms to map.
	DisableFoldingQueryH bool
	// NotIgnoreFirstAtom protects query atom 0 from hydrogen folding.
	NotIgnoreFirstAtom bool

	UseAromaticityMatcher bool
	UsePiSystemsMatcher   bool
	// RestoreUnfoldedH folds target hydrogens back after every call.
	RestoreUnfoldedH bool

	// MaxEmbeddings caps FindAllEmbeddings; 0 means no cap.
	MaxEmbeddings int
	// UseEquivalenceHeuristic prunes symmetric target atoms at the search
	// root when the query allows it.
	UseEquivalenceHeuristic bool
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		UseAromaticityMatcher: true,
		RestoreUnfoldedH:      true,
		RMSThreshold:          DefaultRMSThreshold,
	}
}

// Option mutates a Matcher during construction.
type Option func(*Matcher)

// WithOptions replaces the option set.
func WithOptions(o Options) Option {
	return func(m *Matcher) {
		if o.RMSThreshold <= 0 {
			o.RMSThreshold = DefaultRMSThreshold
		}
		m.opts = o
	}
}

// WithLogger sets the logger used for search diagnostics.
func WithLogger(l logging.Logger) Option {
	return func(m *Matcher) {
		if l != nil {
			m.log = l
		}
	}
}

//Personal.AI order the ending
