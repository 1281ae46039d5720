package geometry

import (
	"math"

	"github.com/turtacn/molmatch/pkg/errors"
)

// Line is an infinite line through Origin along the unit vector Dir.
type Line struct {
	Origin Vec3
	Dir    Vec3
}

// NewLine builds a line through two points.
func NewLine(a, b Vec3) (Line, error) {
	d, ok := b.Sub(a).Normalized()
	if !ok {
		return Line{}, errors.New(errors.ErrCodeDegenerateGeometry, "line through coincident points")
	}
	return Line{Origin: a, Dir: d}, nil
}

// Distance returns the distance from p to the line.
func (l Line) Distance(p Vec3) float64 {
	return p.Sub(l.Origin).Cross(l.Dir).Len()
}

// Plane is the set of points x with Normal·x = D; Normal has unit length.
type Plane struct {
	Normal Vec3
	D      float64
}

// NewPlane builds a plane through p with the given normal.
func NewPlane(p, normal Vec3) (Plane, error) {
	n, ok := normal.Normalized()
	if !ok {
		return Plane{}, errors.New(errors.ErrCodeDegenerateGeometry, "plane with zero normal")
	}
	return Plane{Normal: n, D: n.Dot(p)}, nil
}

// PlaneByPointAndLine builds the plane containing p and l.
func PlaneByPointAndLine(p Vec3, l Line) (Plane, error) {
	n := p.Sub(l.Origin).Cross(l.Dir)
	if n.Len() < Epsilon {
		return Plane{}, errors.New(errors.ErrCodeDegenerateGeometry, "point lies on the line")
	}
	return NewPlane(p, n)
}

// Distance returns the unsigned distance from p to the plane.
func (pl Plane) Distance(p Vec3) float64 {
	return math.Abs(pl.Normal.Dot(p) - pl.D)
}

// Project returns the orthogonal projection of p onto the plane.
func (pl Plane) Project(p Vec3) Vec3 {
	return p.Sub(pl.Normal.Scale(pl.Normal.Dot(p) - pl.D))
}

func covariance(pts []Vec3) (Vec3, [][]float64) {
	c := Centroid(pts)
	m := [][]float64{make([]float64, 3), make([]float64, 3), make([]float64, 3)}
	for _, p := range pts {
		d := p.Sub(c)
		v := [3]float64{d.X, d.Y, d.Z}
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				m[i][j] += v[i] * v[j]
			}
		}
	}
	return c, m
}

// BestFitLine returns the least-squares line through pts and the RMS
// distance of the points from it.
func BestFitLine(pts []Vec3) (Line, float64, error) {
	if len(pts) < 2 {
		return Line{}, 0, errors.New(errors.ErrCodeDegenerateGeometry, "best-fit line needs at least two points")
	}
	c, m := covariance(pts)
	_, vecs := SymmetricEigen(m)
	dir, ok := column(vecs, 0).Normalized()
	if !ok {
		return Line{}, 0, errors.New(errors.ErrCodeDegenerateGeometry, "best-fit line is undetermined")
	}
	l := Line{Origin: c, Dir: dir}
	sum := 0.0
	for _, p := range pts {
		d := l.Distance(p)
		sum += d * d
	}
	return l, math.Sqrt(sum / float64(len(pts))), nil
}

// BestFitPlane returns the least-squares plane through pts and the RMS
// distance of the points from it.
func BestFitPlane(pts []Vec3) (Plane, float64, error) {
	if len(pts) < 3 {
		return Plane{}, 0, errors.New(errors.ErrCodeDegenerateGeometry, "best-fit plane needs at least three points")
	}
	c, m := covariance(pts)
	_, vecs := SymmetricEigen(m)
	pl, err := NewPlane(c, column(vecs, 2))
	if err != nil {
		return Plane{}, 0, err
	}
	sum := 0.0
	for _, p := range pts {
		d := pl.Distance(p)
		sum += d * d
	}
	return pl, math.Sqrt(sum / float64(len(pts))), nil
}

//Personal.AI order the ending
