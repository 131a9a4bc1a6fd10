package state

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestInvInvolution(t *testing.T) {
	for _, a := range A4 {
		if got := Inv(Inv(a)); got != a {
			t.Fatalf("Inv(Inv(%s)) = %s", a, got)
		}
	}
	if Inv(Z0) != Z0 || Inv(S) != S {
		t.Fatal("Z0 and S must be fixed points of Inv")
	}
	if Inv(Eplus) != Eminus || Inv(Eminus) != Eplus {
		t.Fatal("Inv must swap Eplus and Eminus")
	}
}

func TestBinaryOperatorLaws(t *testing.T) {
	for _, a := range A4 {
		for _, b := range A4 {
			if Series(a, b) != Series(b, a) {
				t.Fatalf("Series not commutative at (%s, %s)", a, b)
			}
			if Parallel(a, b) != Parallel(b, a) {
				t.Fatalf("Parallel not commutative at (%s, %s)", a, b)
			}
		}
		// Eminus absorbs under both operators.
		if Series(a, Eminus) != Eminus || Parallel(a, Eminus) != Eminus {
			t.Fatalf("Eminus does not absorb at %s", a)
		}
		// Z0 is the Series identity.
		if Series(Z0, a) != a {
			t.Fatalf("Series(Z0, %s) = %s", a, Series(Z0, a))
		}
	}
}

func TestOperatorTableExact(t *testing.T) {
	// The full truth table is a fixed artifact of the algebra; pin it.
	want := []OperatorRow{
		{Z0, Z0, Z0, Z0, Z0},
		{Z0, Eplus, Z0, Eplus, Eplus},
		{Z0, S, Z0, S, Eplus},
		{Z0, Eminus, Z0, Eminus, Eminus},
		{Eplus, Z0, Eminus, Eplus, Eplus},
		{Eplus, Eplus, Eminus, Eplus, Eplus},
		{Eplus, S, Eminus, Eplus, Eplus},
		{Eplus, Eminus, Eminus, Eminus, Eminus},
		{S, Z0, S, S, Eplus},
		{S, Eplus, S, Eplus, Eplus},
		{S, S, S, S, S},
		{S, Eminus, S, Eminus, Eminus},
		{Eminus, Z0, Eplus, Eminus, Eminus},
		{Eminus, Eplus, Eplus, Eminus, Eminus},
		{Eminus, S, Eplus, Eminus, Eminus},
		{Eminus, Eminus, Eplus, Eminus, Eminus},
	}
	if diff := cmp.Diff(want, OperatorTable()); diff != "" {
		t.Fatalf("operator table mismatch (-want +got):\n%s", diff)
	}
}
