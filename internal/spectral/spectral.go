// Package spectral builds transition statistics over the classified state
// sequence and runs the two deterministic numeric procedures that consume
// them: a power-iteration spectral-radius estimate and an unshifted QR
// eigen-spectrum.
//
// The QR spectrum reports only the real part of each diagonal entry. For a
// complex-conjugate eigenvalue pair the diagonal misreports magnitude and
// phase. The artifact it feeds is informational, the pass/fail invariant
// rides on the power-iteration estimate instead.
package spectral

import (
	"math"

	"ssslverify/internal/state"
)

// Fixed iteration budgets. Both are part of the determinism contract: the
// artifacts encode the value after exactly this many steps, not a
// convergence-dependent value.
const (
	PowerIterations = 80
	QRIterations    = 200
)

// CountTransitions counts every consecutive ordered pair (a_i, a_{i+1})
// into a 4x4 matrix in canonical A4 order. There is no wraparound: the last
// sample has no outgoing edge.
func CountTransitions(states []state.State) [][]int {
	counts := make([][]int, len(state.A4))
	for i := range counts {
		counts[i] = make([]int, len(state.A4))
	}
	for i := 0; i+1 < len(states); i++ {
		from := state.Index(states[i])
		to := state.Index(states[i+1])
		if from >= 0 && to >= 0 {
			counts[from][to]++
		}
	}
	return counts
}

// RatioMatrix row-normalizes the count matrix into the stochastic form P.
// A row with zero outgoing mass stays all-zero: a deliberate policy, not a
// uniform-fill omission.
func RatioMatrix(counts [][]int) [][]float64 {
	p := make([][]float64, len(counts))
	for i, row := range counts {
		p[i] = make([]float64, len(row))
		sum := 0
		for _, c := range row {
			sum += c
		}
		if sum == 0 {
			continue
		}
		for j, c := range row {
			p[i][j] = float64(c) / float64(sum)
		}
	}
	return p
}

// RowSums returns the outgoing mass per row of the count matrix.
func RowSums(counts [][]int) []int {
	sums := make([]int, len(counts))
	for i, row := range counts {
		for _, c := range row {
			sums[i] += c
		}
	}
	return sums
}

// PowerIterate estimates the spectral radius of m: starting from the
// uniform vector, iterate v <- m v and normalize by the infinity norm each
// step for a fixed iteration count, returning the last normalization
// factor. A vanishing iterate short-circuits to 0.
func PowerIterate(m [][]float64, iters int) float64 {
	n := len(m)
	if n == 0 {
		return 0
	}
	v := make([]float64, n)
	for i := range v {
		v[i] = 1.0 / float64(n)
	}
	rho := 0.0
	w := make([]float64, n)
	for it := 0; it < iters; it++ {
		for i := 0; i < n; i++ {
			s := 0.0
			for j := 0; j < n; j++ {
				s += m[i][j] * v[j]
			}
			w[i] = s
		}
		norm := 0.0
		for _, x := range w {
			if a := math.Abs(x); a > norm {
				norm = a
			}
		}
		if norm == 0 {
			return 0
		}
		for i := range w {
			w[i] /= norm
		}
		v, w = w, v
		rho = norm
	}
	return rho
}

// QREigenvalues runs unshifted QR iteration (Gram-Schmidt factorization per
// step) for a fixed iteration count and returns the real parts of the
// resulting diagonal.
func QREigenvalues(m [][]float64, iters int) []float64 {
	n := len(m)
	ak := make([][]float64, n)
	for i := range ak {
		ak[i] = append([]float64(nil), m[i]...)
	}
	for it := 0; it < iters; it++ {
		q, r := qrDecompose(ak)
		ak = matMul(r, q)
	}
	diag := make([]float64, n)
	for i := 0; i < n; i++ {
		diag[i] = ak[i][i]
	}
	return diag
}

// qrDecompose factors m = QR by classical Gram-Schmidt over columns. A
// linearly dependent column yields a zero column in Q.
func qrDecompose(m [][]float64) (q, r [][]float64) {
	n := len(m)
	q = zeros(n)
	r = zeros(n)
	for j := 0; j < n; j++ {
		v := make([]float64, n)
		for i := 0; i < n; i++ {
			v[i] = m[i][j]
		}
		for i := 0; i < j; i++ {
			dot := 0.0
			for k := 0; k < n; k++ {
				dot += q[k][i] * v[k]
			}
			r[i][j] = dot
			for k := 0; k < n; k++ {
				v[k] -= dot * q[k][i]
			}
		}
		norm := 0.0
		for _, x := range v {
			norm += x * x
		}
		norm = math.Sqrt(norm)
		r[j][j] = norm
		if norm != 0 {
			for k := 0; k < n; k++ {
				q[k][j] = v[k] / norm
			}
		}
	}
	return q, r
}

func matMul(a, b [][]float64) [][]float64 {
	n := len(a)
	out := zeros(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			s := 0.0
			for k := 0; k < n; k++ {
				s += a[i][k] * b[k][j]
			}
			out[i][j] = s
		}
	}
	return out
}

func zeros(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	return m
}
