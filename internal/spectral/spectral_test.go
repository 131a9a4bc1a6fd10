package spectral

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ssslverify/internal/state"
)

func TestCountTransitions(t *testing.T) {
	seq := []state.State{state.Z0, state.Eplus, state.Eplus, state.S, state.Eminus, state.Z0}
	counts := CountTransitions(seq)

	want := [][]int{
		{0, 1, 0, 0}, // Z0 -> Eplus
		{0, 1, 1, 0}, // Eplus -> Eplus, Eplus -> S
		{0, 0, 0, 1}, // S -> Eminus
		{1, 0, 0, 0}, // Eminus -> Z0
	}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Fatalf("transition counts mismatch (-want +got):\n%s", diff)
	}

	total := 0
	for _, row := range counts {
		for _, c := range row {
			total += c
		}
	}
	if total != len(seq)-1 {
		t.Fatalf("total edges = %d, want %d (no wraparound)", total, len(seq)-1)
	}
}

func TestRatioMatrixRows(t *testing.T) {
	counts := [][]int{
		{1, 1, 0, 0},
		{0, 0, 0, 0}, // no outgoing mass: must stay all-zero
		{0, 0, 3, 1},
		{2, 0, 0, 0},
	}
	p := RatioMatrix(counts)

	for i, row := range p {
		sum := 0.0
		for _, v := range row {
			sum += v
		}
		if i == 1 {
			if sum != 0 {
				t.Fatalf("zero row %d re-normalized to sum %v", i, sum)
			}
			continue
		}
		if math.Abs(sum-1.0) > 1e-12 {
			t.Fatalf("row %d sums to %v, want 1", i, sum)
		}
	}
	if p[2][2] != 0.75 || p[2][3] != 0.25 {
		t.Fatalf("row 2 ratios wrong: %v", p[2])
	}
}

func TestPowerIterateStochasticConvergesToOne(t *testing.T) {
	// Perron-Frobenius: a row-stochastic matrix has spectral radius 1.
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 50; trial++ {
		m := make([][]float64, 4)
		for i := range m {
			m[i] = make([]float64, 4)
			sum := 0.0
			for j := range m[i] {
				m[i][j] = rng.Float64() + 1e-6
				sum += m[i][j]
			}
			for j := range m[i] {
				m[i][j] /= sum
			}
		}
		rho := PowerIterate(m, PowerIterations)
		if math.Abs(rho-1.0) > 1e-9 {
			t.Fatalf("trial %d: rho = %.15f, |rho-1| > 1e-9", trial, rho)
		}
	}
}

func TestPowerIterateZeroMatrix(t *testing.T) {
	m := zeros(4)
	if rho := PowerIterate(m, PowerIterations); rho != 0 {
		t.Fatalf("rho of zero matrix = %v, want 0", rho)
	}
}

func TestQREigenvaluesDiagonal(t *testing.T) {
	// For a diagonal matrix QR iteration is stationary: the diagonal is the
	// spectrum (up to ordering, which is also stationary here).
	m := [][]float64{
		{0.9, 0, 0, 0},
		{0, 0.5, 0, 0},
		{0, 0, 0.3, 0},
		{0, 0, 0, 0.1},
	}
	got := QREigenvalues(m, QRIterations)
	want := []float64{0.9, 0.5, 0.3, 0.1}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("eig[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestQREigenvaluesUpperTriangular(t *testing.T) {
	// Distinct real eigenvalues: QR iteration converges to the spectrum.
	m := [][]float64{
		{1.0, 0.2, 0.1, 0.0},
		{0, 0.6, 0.3, 0.1},
		{0, 0, 0.4, 0.2},
		{0, 0, 0, 0.2},
	}
	got := QREigenvalues(m, QRIterations)
	want := map[float64]bool{1.0: false, 0.6: false, 0.4: false, 0.2: false}
	for _, g := range got {
		for w := range want {
			if math.Abs(g-w) < 1e-6 {
				want[w] = true
			}
		}
	}
	for w, seen := range want {
		if !seen {
			t.Fatalf("eigenvalue %v not recovered; got %v", w, got)
		}
	}
}
