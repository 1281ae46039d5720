// Package spatial models 3D constraints attached to a query and checks them
// against target coordinates for a candidate mapping.
package spatial

import (
	"fmt"

	"github.com/turtacn/molmatch/pkg/errors"
)

// Kind identifies a constraint node.
type Kind int

const (
	PointByAtom Kind = iota
	PointByDistance
	PointByPercentage
	PointByNormale
	Centroid
	LineByNormale
	BestFitLine
	BestFitPlane
	PlaneByPointAndLine
	AngleByPoints
	AngleByLines
	AngleByPlanes
	DihedralAngle
	DistanceByPoints
	DistancePointLine
	DistancePointPlane
	ExclusionSphere
)

var kindNames = map[Kind]string{
	PointByAtom:         "point-by-atom",
	PointByDistance:     "point-by-distance",
	PointByPercentage:   "point-by-percentage",
	PointByNormale:      "point-by-normale",
	Centroid:            "centroid",
	LineByNormale:       "line-by-normale",
	BestFitLine:         "best-fit-line",
	BestFitPlane:        "best-fit-plane",
	PlaneByPointAndLine: "plane-by-point-and-line",
	AngleByPoints:       "angle-by-points",
	AngleByLines:        "angle-by-lines",
	AngleByPlanes:       "angle-by-planes",
	DihedralAngle:       "dihedral-angle",
	DistanceByPoints:    "distance-by-points",
	DistancePointLine:   "distance-point-line",
	DistancePointPlane:  "distance-point-plane",
	ExclusionSphere:     "exclusion-sphere",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

type shape int

const (
	shapePoint shape = iota
	shapeLine
	shapePlane
	shapeBound
)

func (k Kind) shape() shape {
	switch k {
	case PointByAtom, PointByDistance, PointByPercentage, PointByNormale, Centroid:
		return shapePoint
	case LineByNormale, BestFitLine:
		return shapeLine
	case BestFitPlane, PlaneByPointAndLine:
		return shapePlane
	}
	return shapeBound
}

// Node is one constraint.  Refs point at earlier nodes, so the list is a DAG
// in declaration order.  Angles are in radians.
type Node struct {
	Kind Kind
	// Atom is the query atom of a PointByAtom node.
	Atom int
	Refs []int
	// Value is the distance or fraction of derived points, the maximum RMS
	// deviation of best-fit nodes (0 means unbounded) and the radius of an
	// exclusion sphere.
	Value float64
	Min   float64
	Max   float64
	// AllowedAtoms lists query atoms whose images may sit inside an exclusion sphere.
	AllowedAtoms []int
}

var arity = map[Kind][]shape{
	PointByDistance:     {shapePoint, shapePoint},
	PointByPercentage:   {shapePoint, shapePoint},
	PointByNormale:      {shapePlane, shapePoint},
	LineByNormale:       {shapePlane, shapePoint},
	PlaneByPointAndLine: {shapePoint, shapeLine},
	AngleByPoints:       {shapePoint, shapePoint, shapePoint},
	AngleByLines:        {shapeLine, shapeLine},
	AngleByPlanes:       {shapePlane, shapePlane},
	DihedralAngle:       {shapePoint, shapePoint, shapePoint, shapePoint},
	DistanceByPoints:    {shapePoint, shapePoint},
	DistancePointLine:   {shapePoint, shapeLine},
	DistancePointPlane:  {shapePoint, shapePlane},
	ExclusionSphere:     {shapePoint},
}

// Constraints is the ordered node list of one query.
type Constraints struct {
	Nodes []Node
}

// New returns an empty constraint set.
func New() *Constraints {
	return &Constraints{}
}

// Empty reports whether there is nothing to check.
func (c *Constraints) Empty() bool {
	return c == nil || len(c.Nodes) == 0
}

// AddPointByAtom adds a point at the image of query atom a.
func (c *Constraints) AddPointByAtom(a int) int {
	c.Nodes = append(c.Nodes, Node{Kind: PointByAtom, Atom: a})
	return len(c.Nodes) - 1
}

// Add validates n against the existing nodes and appends it.
func (c *Constraints) Add(n Node) (int, error) {
	id := len(c.Nodes)
	for _, r := range n.Refs {
		if r < 0 || r >= id {
			return -1, errors.Newf(errors.ErrCodeConstraintInvalid, "%s node refers to node %d", n.Kind, r)
		}
	}
	if want, ok := arity[n.Kind]; ok {
		if len(n.Refs) != len(want) {
			return -1, errors.Newf(errors.ErrCodeConstraintInvalid, "%s node needs %d references", n.Kind, len(want))
		}
		for i, s := range want {
			if c.Nodes[n.Refs[i]].Kind.shape() != s {
				return -1, errors.Newf(errors.ErrCodeConstraintInvalid, "%s reference %d has kind %s", n.Kind, i, c.Nodes[n.Refs[i]].Kind)
			}
		}
	}
	switch n.Kind {
	case Centroid, BestFitLine, BestFitPlane:
		if len(n.Refs) == 0 {
			return -1, errors.Newf(errors.ErrCodeConstraintInvalid, "%s node needs points", n.Kind)
		}
		for _, r := range n.Refs {
			if c.Nodes[r].Kind.shape() != shapePoint {
				return -1, errors.Newf(errors.ErrCodeConstraintInvalid, "%s accepts points only", n.Kind)
			}
		}
	}
	c.Nodes = append(c.Nodes, n)
	return id, nil
}

func (c *Constraints) hard(n Node) bool {
	switch n.Kind.shape() {
	case shapeBound:
		return true
	case shapeLine, shapePlane:
		return (n.Kind == BestFitLine || n.Kind == BestFitPlane) && n.Value > 0
	}
	return false
}

// MarkUsedAtoms sets arr[a] = value for every query atom that a bounded
// constraint depends on.  Such atoms must not be folded away before matching.
func (c *Constraints) MarkUsedAtoms(arr []int, value int) {
	if c.Empty() {
		return
	}
	seen := make([]bool, len(c.Nodes))
	var walk func(i int)
	walk = func(i int) {
		if seen[i] {
			return
		}
		seen[i] = true
		n := c.Nodes[i]
		if n.Kind == PointByAtom && n.Atom >= 0 && n.Atom < len(arr) {
			arr[n.Atom] = value
		}
		for _, r := range n.Refs {
			walk(r)
		}
	}
	for i, n := range c.Nodes {
		if c.hard(n) {
			walk(i)
		}
	}
}

// Atoms returns the query atoms referenced by PointByAtom nodes.
func (c *Constraints) Atoms() []int {
	var out []int
	if c == nil {
		return nil
	}
	for _, n := range c.Nodes {
		if n.Kind == PointByAtom {
			out = append(out, n.Atom)
		}
	}
	return out
}

//Personal.AI order the ending
