// Package accum implements the accumulation tracker: a sequential fold over
// the classified state sequence producing one bounded integer per sample.
// Together with the raw magnitude and the state symbol it forms the
// conservative (m, a, s) triple.
package accum

import "ssslverify/internal/state"

// Params control the fold. All four are caller-configurable integers.
type Params struct {
	S0          int // starting value
	SMax        int // saturation ceiling
	IncOnEminus int // added on Eminus, saturating at SMax
	DecOnS      int // subtracted on S, floored at 0
}

// DefaultParams returns the documented defaults.
func DefaultParams() Params {
	return Params{S0: 0, SMax: 50, IncOnEminus: 1, DecOnS: 1}
}

// Fold runs the accumulator over the state sequence. The result is aligned
// 1:1 with the input: out[i] is the value after consuming states[i].
//
//	Z0     -> reset to 0
//	Eminus -> saturating increment
//	S      -> floored decrement
//	Eplus  -> unchanged
func Fold(states []state.State, p Params) []int {
	out := make([]int, len(states))
	cur := p.S0
	for i, a := range states {
		switch a {
		case state.Z0:
			cur = 0
		case state.Eminus:
			cur = min(p.SMax, cur+p.IncOnEminus)
		case state.S:
			cur = max(0, cur-p.DecOnS)
		}
		out[i] = cur
	}
	return out
}
