package reaction

import (
	"github.com/turtacn/molmatch/internal/domain/molecule"
	rxn "github.com/turtacn/molmatch/internal/domain/reaction"
	"github.com/turtacn/molmatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molmatch/internal/matching/substructure"
)

// Option configures a SubstructureMatcher.
type Option func(*settings)

type settings struct {
	opts substructure.Options
	log  logging.Logger
}

// WithMoleculeOptions sets the options of every per-molecule search.
func WithMoleculeOptions(o substructure.Options) Option {
	return func(s *settings) {
		s.opts = o
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *settings) {
		s.log = l
	}
}

// SubstructureMatcher finds query reactions inside target reactions by
// substructure search per molecule.
type SubstructureMatcher struct {
	*BaseMatcher
}

// NewSubstructure returns a reaction substructure matcher over target.
func NewSubstructure(target *rxn.Reaction, opts ...Option) *SubstructureMatcher {
	s := settings{opts: substructure.DefaultOptions(), log: logging.NewNopLogger()}
	for _, o := range opts {
		o(&s)
	}
	factory := func(t, q *molecule.Molecule) (MoleculeMatcher, error) {
		m := substructure.New(t, substructure.WithOptions(s.opts), substructure.WithLogger(s.log))
		if err := m.SetQuery(q); err != nil {
			return nil, err
		}
		return m, nil
	}
	return &SubstructureMatcher{BaseMatcher: NewBase(target, factory, s.log)}
}

//Personal.AI order the ending
