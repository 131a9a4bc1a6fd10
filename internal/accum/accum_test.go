package accum

import (
	"testing"

	"ssslverify/internal/state"
)

func TestFoldTransitions(t *testing.T) {
	p := Params{S0: 3, SMax: 5, IncOnEminus: 2, DecOnS: 1}
	seq := []state.State{
		state.Eplus,  // unchanged -> 3
		state.Eminus, // +2 -> 5
		state.Eminus, // saturates -> 5
		state.S,      // -1 -> 4
		state.Z0,     // reset -> 0
		state.S,      // floored -> 0
		state.Eminus, // +2 -> 2
	}
	want := []int{3, 5, 5, 4, 0, 0, 2}

	got := Fold(seq, p)
	if len(got) != len(seq) {
		t.Fatalf("Fold length = %d, want %d", len(got), len(seq))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Fold[%d] = %d, want %d (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestFoldStaysBounded(t *testing.T) {
	p := DefaultParams()
	p.SMax = 7
	p.IncOnEminus = 3
	p.DecOnS = 5

	// Adversarial sequence cycling through every symbol.
	var seq []state.State
	for i := 0; i < 200; i++ {
		seq = append(seq, state.A4[i%4])
	}

	for i, s := range Fold(seq, p) {
		if s < 0 || s > p.SMax {
			t.Fatalf("accumulator escaped [0, %d] at sample %d: %d", p.SMax, i, s)
		}
	}
}

func TestFoldEmpty(t *testing.T) {
	if got := Fold(nil, DefaultParams()); len(got) != 0 {
		t.Fatalf("Fold(nil) = %v, want empty", got)
	}
}
