// Package state defines the closed four-symbol structural-state alphabet A4,
// the deterministic threshold classifier that assigns a symbol to each
// observation, and the substrate operator algebra over the alphabet.
package state

// State is one element of the A4 alphabet. No other value is ever valid.
type State string

const (
	Z0     State = "Z0"     // quiescent: low magnitude, near-flat
	Eplus  State = "Eplus"  // building: the catch-all growth posture
	S      State = "S"      // stable: high magnitude, near-flat
	Eminus State = "Eminus" // collapsing: discharge or sharp drop
)

// A4 is the alphabet in canonical matrix order. Transition matrices and the
// operator table index rows and columns in this order.
var A4 = [4]State{Z0, Eplus, S, Eminus}

// Index returns the canonical position of a in A4, or -1 for a foreign token.
func Index(a State) int {
	for i, s := range A4 {
		if s == a {
			return i
		}
	}
	return -1
}

// Valid reports whether a is a member of A4.
func Valid(a State) bool {
	return Index(a) >= 0
}

// Params are the classifier thresholds. All four are caller-configurable.
type Params struct {
	Tau0 float64 // upper magnitude bound for Z0
	TauS float64 // lower magnitude bound for S
	Eps  float64 // flatness band on |dE/dt| for Z0 and S
	Drop float64 // derivative drop magnitude that forces Eminus
}

// DefaultParams returns the documented defaults.
func DefaultParams() Params {
	return Params{Tau0: 0.05, TauS: 0.70, Eps: 0.02, Drop: 0.15}
}

// Classify assigns the structural state for one observation. Rule order is
// load-bearing: the first matching rule wins.
//
//  1. Eminus if discharge is set or dE/dt <= -|drop|
//  2. S      if E >= taus and |dE/dt| <= eps
//  3. Z0     if E <= tau0 and |dE/dt| <= eps
//  4. Eplus  otherwise (catch-all, no explicit condition)
func Classify(e, dedt float64, discharge bool, p Params) State {
	drop := p.Drop
	if drop < 0 {
		drop = -drop
	}
	if discharge || dedt <= -drop {
		return Eminus
	}
	if e >= p.TauS && abs(dedt) <= p.Eps {
		return S
	}
	if e <= p.Tau0 && abs(dedt) <= p.Eps {
		return Z0
	}
	return Eplus
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
