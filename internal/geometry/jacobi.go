package geometry

import "math"

// SymmetricEigen diagonalises a small symmetric matrix with cyclic Jacobi
// rotations.  Eigenvalues are returned in descending order; column i of vecs
// is the eigenvector of vals[i].
func SymmetricEigen(m [][]float64) (vals []float64, vecs [][]float64) {
	n := len(m)
	a := make([][]float64, n)
	vecs = make([][]float64, n)
	for i := range m {
		a[i] = append([]float64(nil), m[i]...)
		vecs[i] = make([]float64, n)
		vecs[i][i] = 1
	}

	for sweep := 0; sweep < 100; sweep++ {
		off := 0.0
		for p := 0; p < n; p++ {
			for q := p + 1; q < n; q++ {
				off += a[p][q] * a[p][q]
			}
		}
		if off < 1e-22 {
			break
		}
		for p := 0; p < n; p++ {
			for q := p + 1; q < n; q++ {
				if math.Abs(a[p][q]) < 1e-300 {
					continue
				}
				theta := (a[q][q] - a[p][p]) / (2 * a[p][q])
				t := 1 / (math.Abs(theta) + math.Sqrt(theta*theta+1))
				if theta < 0 {
					t = -t
				}
				c := 1 / math.Sqrt(t*t+1)
				s := t * c
				for k := 0; k < n; k++ {
					akp, akq := a[k][p], a[k][q]
					a[k][p] = c*akp - s*akq
					a[k][q] = s*akp + c*akq
				}
				for k := 0; k < n; k++ {
					apk, aqk := a[p][k], a[q][k]
					a[p][k] = c*apk - s*aqk
					a[q][k] = s*apk + c*aqk
				}
				for k := 0; k < n; k++ {
					vkp, vkq := vecs[k][p], vecs[k][q]
					vecs[k][p] = c*vkp - s*vkq
					vecs[k][q] = s*vkp + c*vkq
				}
			}
		}
	}

	vals = make([]float64, n)
	for i := range vals {
		vals[i] = a[i][i]
	}
	// selection sort, descending, swapping eigenvector columns along
	for i := 0; i < n; i++ {
		best := i
		for j := i + 1; j < n; j++ {
			if vals[j] > vals[best] {
				best = j
			}
		}
		if best != i {
			vals[i], vals[best] = vals[best], vals[i]
			for k := 0; k < n; k++ {
				vecs[k][i], vecs[k][best] = vecs[k][best], vecs[k][i]
			}
		}
	}
	return vals, vecs
}

func column(vecs [][]float64, i int) Vec3 {
	return Vec3{vecs[0][i], vecs[1][i], vecs[2][i]}
}

//Personal.AI order the ending
