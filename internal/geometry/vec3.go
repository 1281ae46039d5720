// Package geometry holds the small amount of 3D linear algebra the matchers
// need: vectors, lines, planes, best-fit primitives and rigid superposition.
package geometry

import "math"

// Epsilon is the length below which a direction is considered degenerate.
const Epsilon = 1e-9

// Vec3 is a point or direction in 3D space.
type Vec3 struct {
	X, Y, Z float64
}

func (a Vec3) Add(b Vec3) Vec3      { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Vec3) Sub(b Vec3) Vec3      { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
func (a Vec3) Scale(k float64) Vec3 { return Vec3{a.X * k, a.Y * k, a.Z * k} }
func (a Vec3) Dot(b Vec3) float64   { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }
func (a Vec3) Len() float64         { return math.Sqrt(a.Dot(a)) }
func (a Vec3) Dist(b Vec3) float64  { return a.Sub(b).Len() }

func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}

// Normalized returns the unit vector along a, or false when a is degenerate.
func (a Vec3) Normalized() (Vec3, bool) {
	l := a.Len()
	if l < Epsilon {
		return Vec3{}, false
	}
	return a.Scale(1 / l), true
}

// Angle returns the angle between two directions in radians, or false when
// either is degenerate.
func Angle(a, b Vec3) (float64, bool) {
	na, ok1 := a.Normalized()
	nb, ok2 := b.Normalized()
	if !ok1 || !ok2 {
		return 0, false
	}
	c := na.Dot(nb)
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	return math.Acos(c), true
}

// Centroid returns the mean of pts.
func Centroid(pts []Vec3) Vec3 {
	var c Vec3
	if len(pts) == 0 {
		return c
	}
	for _, p := range pts {
		c = c.Add(p)
	}
	return c.Scale(1 / float64(len(pts)))
}

//Personal.AI order the ending
