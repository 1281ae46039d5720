package spatial

import (
	"math"

	"github.com/turtacn/molmatch/internal/geometry"
	"github.com/turtacn/molmatch/pkg/errors"
)

// Positions gives target coordinates by atom index.
type Positions interface {
	VertexEnd() int
	HasVertex(v int) bool
	Position(v int) geometry.Vec3
}

// Checker evaluates a constraint set; derived primitives are memoised for
// the duration of one Check call.
type Checker struct {
	c      *Constraints
	pos    Positions
	core   []int
	points map[int]geometry.Vec3
	lines  map[int]geometry.Line
	planes map[int]geometry.Plane
}

// NewChecker returns a checker bound to c.
func NewChecker(c *Constraints) *Checker {
	return &Checker{c: c}
}

// Check evaluates every bounded node in declaration order against the
// mapping (query atom -> target atom, negative for unmapped) and stops at the
// first violation.
func (ch *Checker) Check(pos Positions, mapping []int) (bool, error) {
	if ch.c.Empty() {
		return true, nil
	}
	ch.pos, ch.core = pos, mapping
	ch.points = make(map[int]geometry.Vec3)
	ch.lines = make(map[int]geometry.Line)
	ch.planes = make(map[int]geometry.Plane)

	for i, n := range ch.c.Nodes {
		var ok bool
		var err error
		switch n.Kind.shape() {
		case shapePoint:
			_, err = ch.point(i)
			ok = true
		case shapeLine:
			_, err = ch.line(i)
			ok = err == nil
			if n.Kind == BestFitLine && err == nil {
				ok, err = ch.bestFitWithin(n, true)
			}
		case shapePlane:
			_, err = ch.plane(i)
			ok = err == nil
			if n.Kind == BestFitPlane && err == nil {
				ok, err = ch.bestFitWithin(n, false)
			}
		default:
			ok, err = ch.bound(n)
		}
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (ch *Checker) point(i int) (geometry.Vec3, error) {
	if p, ok := ch.points[i]; ok {
		return p, nil
	}
	n := ch.c.Nodes[i]
	var p geometry.Vec3
	switch n.Kind {
	case PointByAtom:
		if n.Atom < 0 || n.Atom >= len(ch.core) || ch.core[n.Atom] < 0 {
			return p, errors.Newf(errors.ErrCodeConstraintInvalid, "query atom %d is not mapped", n.Atom)
		}
		p = ch.pos.Position(ch.core[n.Atom])
	case PointByDistance, PointByPercentage:
		a, err := ch.point(n.Refs[0])
		if err != nil {
			return p, err
		}
		b, err := ch.point(n.Refs[1])
		if err != nil {
			return p, err
		}
		if n.Kind == PointByPercentage {
			p = a.Add(b.Sub(a).Scale(n.Value))
			break
		}
		dir, ok := b.Sub(a).Normalized()
		if !ok {
			return p, errors.New(errors.ErrCodeDegenerateGeometry, "point-by-distance along a zero vector")
		}
		p = a.Add(dir.Scale(n.Value))
	case PointByNormale:
		pl, err := ch.plane(n.Refs[0])
		if err != nil {
			return p, err
		}
		base, err := ch.point(n.Refs[1])
		if err != nil {
			return p, err
		}
		p = base.Add(pl.Normal.Scale(n.Value))
	case Centroid:
		pts, err := ch.pointList(n.Refs)
		if err != nil {
			return p, err
		}
		p = geometry.Centroid(pts)
	}
	ch.points[i] = p
	return p, nil
}

func (ch *Checker) pointList(refs []int) ([]geometry.Vec3, error) {
	pts := make([]geometry.Vec3, 0, len(refs))
	for _, r := range refs {
		p, err := ch.point(r)
		if err != nil {
			return nil, err
		}
		pts = append(pts, p)
	}
	return pts, nil
}

func (ch *Checker) line(i int) (geometry.Line, error) {
	if l, ok := ch.lines[i]; ok {
		return l, nil
	}
	n := ch.c.Nodes[i]
	var l geometry.Line
	switch n.Kind {
	case LineByNormale:
		pl, err := ch.plane(n.Refs[0])
		if err != nil {
			return l, err
		}
		p, err := ch.point(n.Refs[1])
		if err != nil {
			return l, err
		}
		l = geometry.Line{Origin: p, Dir: pl.Normal}
	case BestFitLine:
		pts, err := ch.pointList(n.Refs)
		if err != nil {
			return l, err
		}
		if l, _, err = geometry.BestFitLine(pts); err != nil {
			return l, err
		}
	}
	ch.lines[i] = l
	return l, nil
}

func (ch *Checker) plane(i int) (geometry.Plane, error) {
	if pl, ok := ch.planes[i]; ok {
		return pl, nil
	}
	n := ch.c.Nodes[i]
	var pl geometry.Plane
	switch n.Kind {
	case BestFitPlane:
		pts, err := ch.pointList(n.Refs)
		if err != nil {
			return pl, err
		}
		if pl, _, err = geometry.BestFitPlane(pts); err != nil {
			return pl, err
		}
	case PlaneByPointAndLine:
		p, err := ch.point(n.Refs[0])
		if err != nil {
			return pl, err
		}
		l, err := ch.line(n.Refs[1])
		if err != nil {
			return pl, err
		}
		if pl, err = geometry.PlaneByPointAndLine(p, l); err != nil {
			return pl, err
		}
	}
	ch.planes[i] = pl
	return pl, nil
}

func (ch *Checker) bestFitWithin(n Node, isLine bool) (bool, error) {
	if n.Value <= 0 {
		return true, nil
	}
	pts, err := ch.pointList(n.Refs)
	if err != nil {
		return false, err
	}
	var rms float64
	if isLine {
		_, rms, err = geometry.BestFitLine(pts)
	} else {
		_, rms, err = geometry.BestFitPlane(pts)
	}
	if err != nil {
		return false, err
	}
	return rms <= n.Value, nil
}

func within(v float64, n Node) bool {
	return v >= n.Min-1e-9 && v <= n.Max+1e-9
}

// undirected accepts an angle or its complement to pi.
func undirected(a float64, n Node) bool {
	return within(a, n) || within(math.Pi-a, n)
}

func (ch *Checker) bound(n Node) (bool, error) {
	switch n.Kind {
	case AngleByPoints:
		pts, err := ch.pointList(n.Refs)
		if err != nil {
			return false, err
		}
		a, ok := geometry.Angle(pts[0].Sub(pts[1]), pts[2].Sub(pts[1]))
		if !ok {
			return false, errors.New(errors.ErrCodeDegenerateGeometry, "angle with coincident points")
		}
		return within(a, n), nil
	case AngleByLines:
		l1, err := ch.line(n.Refs[0])
		if err != nil {
			return false, err
		}
		l2, err := ch.line(n.Refs[1])
		if err != nil {
			return false, err
		}
		a, ok := geometry.Angle(l1.Dir, l2.Dir)
		if !ok {
			return false, errors.New(errors.ErrCodeDegenerateGeometry, "angle between degenerate lines")
		}
		return undirected(a, n), nil
	case AngleByPlanes:
		p1, err := ch.plane(n.Refs[0])
		if err != nil {
			return false, err
		}
		p2, err := ch.plane(n.Refs[1])
		if err != nil {
			return false, err
		}
		a, ok := geometry.Angle(p1.Normal, p2.Normal)
		if !ok {
			return false, errors.New(errors.ErrCodeDegenerateGeometry, "angle between degenerate planes")
		}
		return undirected(a, n), nil
	case DihedralAngle:
		pts, err := ch.pointList(n.Refs)
		if err != nil {
			return false, err
		}
		b1 := pts[1].Sub(pts[0])
		b2 := pts[2].Sub(pts[1])
		b3 := pts[3].Sub(pts[2])
		a, ok := geometry.Angle(b1.Cross(b2), b2.Cross(b3))
		if !ok {
			return false, errors.New(errors.ErrCodeDegenerateGeometry, "dihedral over collinear points")
		}
		return within(a, n), nil
	case DistanceByPoints:
		pts, err := ch.pointList(n.Refs)
		if err != nil {
			return false, err
		}
		return within(pts[0].Dist(pts[1]), n), nil
	case DistancePointLine:
		p, err := ch.point(n.Refs[0])
		if err != nil {
			return false, err
		}
		l, err := ch.line(n.Refs[1])
		if err != nil {
			return false, err
		}
		return within(l.Distance(p), n), nil
	case DistancePointPlane:
		p, err := ch.point(n.Refs[0])
		if err != nil {
			return false, err
		}
		pl, err := ch.plane(n.Refs[1])
		if err != nil {
			return false, err
		}
		return within(pl.Distance(p), n), nil
	case ExclusionSphere:
		return ch.exclusion(n)
	}
	return false, errors.Newf(errors.ErrCodeConstraintInvalid, "unknown constraint kind %s", n.Kind)
}

func (ch *Checker) exclusion(n Node) (bool, error) {
	center, err := ch.point(n.Refs[0])
	if err != nil {
		return false, err
	}
	allowed := make(map[int]bool)
	for _, q := range n.AllowedAtoms {
		if q >= 0 && q < len(ch.core) && ch.core[q] >= 0 {
			allowed[ch.core[q]] = true
		}
	}
	ch.collectCenterAtoms(n.Refs[0], allowed)
	for t := 0; t < ch.pos.VertexEnd(); t++ {
		if !ch.pos.HasVertex(t) || allowed[t] {
			continue
		}
		if ch.pos.Position(t).Dist(center) < n.Value {
			return false, nil
		}
	}
	return true, nil
}

func (ch *Checker) collectCenterAtoms(i int, into map[int]bool) {
	n := ch.c.Nodes[i]
	if n.Kind == PointByAtom && n.Atom >= 0 && n.Atom < len(ch.core) && ch.core[n.Atom] >= 0 {
		into[ch.core[n.Atom]] = true
	}
	for _, r := range n.Refs {
		ch.collectCenterAtoms(r, into)
	}
}

//Personal.AI order the ending
