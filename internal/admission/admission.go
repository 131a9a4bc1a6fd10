// Package admission reduces a classified state sequence to scalar metrics
// and a binary ALLOW/ABSTAIN verdict.
package admission

import "ssslverify/internal/state"

// Verdict is the admissibility outcome for a whole trace.
type Verdict string

const (
	Allow   Verdict = "ALLOW"
	Abstain Verdict = "ABSTAIN"
)

// Params are the three verdict thresholds.
type Params struct {
	CollapseRatioMax float64 // abstain above this Eminus share
	ChurnRatioMax    float64 // abstain above this label-change share
	RequireS         int     // abstain below this S count
}

// DefaultParams returns the documented defaults.
func DefaultParams() Params {
	return Params{CollapseRatioMax: 0.60, ChurnRatioMax: 0.80, RequireS: 0}
}

// Metrics are the scalar reductions the verdict is derived from.
type Metrics struct {
	CollapseRatio float64 // count(Eminus) / n
	ChurnRatio    float64 // adjacent label changes / n
	CountS        int
	AvgDwellS     float64 // mean run length of maximal S runs, 0 if none
}

// Evaluate computes the metrics and the verdict. The verdict is ABSTAIN if
// any threshold is violated, ALLOW otherwise.
func Evaluate(states []state.State, p Params) (Verdict, Metrics) {
	n := float64(len(states))

	countEminus := 0
	countS := 0
	churn := 0
	for i, a := range states {
		switch a {
		case state.Eminus:
			countEminus++
		case state.S:
			countS++
		}
		if i > 0 && states[i] != states[i-1] {
			churn++
		}
	}

	m := Metrics{
		CollapseRatio: float64(countEminus) / n,
		ChurnRatio:    float64(churn) / n,
		CountS:        countS,
		AvgDwellS:     avgDwell(states, state.S),
	}

	switch {
	case m.CollapseRatio > p.CollapseRatioMax:
		return Abstain, m
	case m.ChurnRatio > p.ChurnRatioMax:
		return Abstain, m
	case m.CountS < p.RequireS:
		return Abstain, m
	}
	return Allow, m
}

// avgDwell is the mean length of maximal consecutive runs of target.
func avgDwell(states []state.State, target state.State) float64 {
	runs := 0
	total := 0
	cur := 0
	for _, a := range states {
		if a == target {
			cur++
			continue
		}
		if cur > 0 {
			runs++
			total += cur
			cur = 0
		}
	}
	if cur > 0 {
		runs++
		total += cur
	}
	if runs == 0 {
		return 0
	}
	return float64(total) / float64(runs)
}
