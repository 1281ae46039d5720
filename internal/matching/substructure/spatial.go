package substructure

import (
	"github.com/turtacn/molmatch/internal/geometry"
	"github.com/turtacn/molmatch/internal/graph/embedding"
)

// affinePair fits the mapped atoms plus the candidate pair with rotation
// and uniform scale; fewer than three pairs always fit.
func (m *Matcher) affinePair(core []embedding.Slot, q, t int) bool {
	var from, to []geometry.Vec3
	for v, s := range core {
		if s.Mapped() && v < m.orig.VertexEnd() {
			from = append(from, m.query.Position(v))
			to = append(to, m.target.Position(s.Index()))
		}
	}
	if q < m.orig.VertexEnd() {
		from = append(from, m.query.Position(q))
		to = append(to, m.target.Position(t))
	}
	if len(from) < 3 {
		return true
	}
	_, rms, err := geometry.Superpose(from, to, true)
	return err == nil && rms <= m.opts.RMSThreshold
}

// check3D applies the whole-embedding fit: one scaled fit for affine
// matching, one rigid fit per connected query component for conformation
// matching.
func (m *Matcher) check3D(mapping []int) (bool, error) {
	switch m.opts.Match3D {
	case Match3DAffine:
		return m.fit(m.orig.Vertices(), mapping, true)
	case Match3DConformation:
		for _, comp := range m.orig.Components() {
			ok, err := m.fit(comp, mapping, false)
			if err != nil || !ok {
				return false, err
			}
		}
	}
	return true, nil
}

func (m *Matcher) fit(atoms, mapping []int, scale bool) (bool, error) {
	var from, to []geometry.Vec3
	for _, v := range atoms {
		if v < len(mapping) && mapping[v] >= 0 {
			from = append(from, m.query.Position(v))
			to = append(to, m.target.Position(mapping[v]))
		}
	}
	if len(from) < 3 {
		return true, nil
	}
	_, rms, err := geometry.Superpose(from, to, scale)
	if err != nil {
		return false, err
	}
	return rms <= m.opts.RMSThreshold, nil
}

//Personal.AI order the ending
