package geometry

import (
	"math"

	"github.com/turtacn/molmatch/pkg/errors"
)

// Transform maps x to Scale*R*(x - FromCentroid) + ToCentroid.
type Transform struct {
	R            [3][3]float64
	Scale        float64
	FromCentroid Vec3
	ToCentroid   Vec3
}

// Apply transforms p.
func (t Transform) Apply(p Vec3) Vec3 {
	d := p.Sub(t.FromCentroid)
	r := Vec3{
		t.R[0][0]*d.X + t.R[0][1]*d.Y + t.R[0][2]*d.Z,
		t.R[1][0]*d.X + t.R[1][1]*d.Y + t.R[1][2]*d.Z,
		t.R[2][0]*d.X + t.R[2][1]*d.Y + t.R[2][2]*d.Z,
	}
	return r.Scale(t.Scale).Add(t.ToCentroid)
}

// Superpose finds the rotation (and, with allowScale, uniform scale) that
// best maps from onto to in the least-squares sense, using Horn's unit
// quaternion method, and returns it with the resulting RMS deviation.
func Superpose(from, to []Vec3, allowScale bool) (Transform, float64, error) {
	if len(from) != len(to) || len(from) == 0 {
		return Transform{}, 0, errors.New(errors.ErrCodeDegenerateGeometry, "superposition needs two equal non-empty point sets")
	}
	cf, ct := Centroid(from), Centroid(to)

	var s [3][3]float64
	var normFrom, normTo float64
	for i := range from {
		a := from[i].Sub(cf)
		b := to[i].Sub(ct)
		av := [3]float64{a.X, a.Y, a.Z}
		bv := [3]float64{b.X, b.Y, b.Z}
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				s[r][c] += av[r] * bv[c]
			}
		}
		normFrom += a.Dot(a)
		normTo += b.Dot(b)
	}

	n := [][]float64{
		{s[0][0] + s[1][1] + s[2][2], s[1][2] - s[2][1], s[2][0] - s[0][2], s[0][1] - s[1][0]},
		{s[1][2] - s[2][1], s[0][0] - s[1][1] - s[2][2], s[0][1] + s[1][0], s[2][0] + s[0][2]},
		{s[2][0] - s[0][2], s[0][1] + s[1][0], -s[0][0] + s[1][1] - s[2][2], s[1][2] + s[2][1]},
		{s[0][1] - s[1][0], s[2][0] + s[0][2], s[1][2] + s[2][1], -s[0][0] - s[1][1] + s[2][2]},
	}
	_, vecs := SymmetricEigen(n)
	q0, q1, q2, q3 := vecs[0][0], vecs[1][0], vecs[2][0], vecs[3][0]

	t := Transform{Scale: 1, FromCentroid: cf, ToCentroid: ct}
	t.R = [3][3]float64{
		{q0*q0 + q1*q1 - q2*q2 - q3*q3, 2 * (q1*q2 - q0*q3), 2 * (q1*q3 + q0*q2)},
		{2 * (q1*q2 + q0*q3), q0*q0 - q1*q1 + q2*q2 - q3*q3, 2 * (q2*q3 - q0*q1)},
		{2 * (q1*q3 - q0*q2), 2 * (q2*q3 + q0*q1), q0*q0 - q1*q1 - q2*q2 + q3*q3},
	}
	if allowScale && normFrom > Epsilon {
		t.Scale = math.Sqrt(normTo / normFrom)
	}
	return t, RMS(t, from, to), nil
}

// RMS returns the root mean square deviation of t(from) against to.
func RMS(t Transform, from, to []Vec3) float64 {
	if len(from) == 0 {
		return 0
	}
	sum := 0.0
	for i := range from {
		d := t.Apply(from[i]).Sub(to[i])
		sum += d.Dot(d)
	}
	return math.Sqrt(sum / float64(len(from)))
}

//Personal.AI order the ending
