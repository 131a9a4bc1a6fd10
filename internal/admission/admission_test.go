package admission

import (
	"testing"

	"ssslverify/internal/state"
)

func seq(tokens ...state.State) []state.State { return tokens }

func TestEvaluateMetrics(t *testing.T) {
	// Z0 Eplus S S S Eminus Z0 S  -> n=8
	s := seq(state.Z0, state.Eplus, state.S, state.S, state.S, state.Eminus, state.Z0, state.S)
	verdict, m := Evaluate(s, DefaultParams())

	if verdict != Allow {
		t.Fatalf("verdict = %s, want ALLOW", verdict)
	}
	if m.CollapseRatio != 1.0/8.0 {
		t.Fatalf("collapse_ratio = %v", m.CollapseRatio)
	}
	if m.ChurnRatio != 5.0/8.0 {
		t.Fatalf("churn_ratio = %v", m.ChurnRatio)
	}
	if m.CountS != 4 {
		t.Fatalf("count_S = %d", m.CountS)
	}
	// Two maximal S runs of lengths 3 and 1.
	if m.AvgDwellS != 2.0 {
		t.Fatalf("avg_dwell_S = %v", m.AvgDwellS)
	}
}

func TestEvaluateThresholds(t *testing.T) {
	t.Run("collapse_abstain", func(t *testing.T) {
		s := seq(state.Eminus, state.Eminus, state.Eminus, state.Eplus)
		if v, _ := Evaluate(s, DefaultParams()); v != Abstain {
			t.Fatalf("verdict = %s, want ABSTAIN", v)
		}
	})

	t.Run("churn_abstain", func(t *testing.T) {
		var s []state.State
		for i := 0; i < 40; i++ {
			if i%2 == 0 {
				s = append(s, state.Z0)
			} else {
				s = append(s, state.Eplus)
			}
		}
		if v, m := Evaluate(s, DefaultParams()); v != Abstain {
			t.Fatalf("verdict = %s (churn %v), want ABSTAIN", v, m.ChurnRatio)
		}
	})

	t.Run("require_s_abstain", func(t *testing.T) {
		p := DefaultParams()
		p.RequireS = 1
		s := seq(state.Z0, state.Eplus, state.Eplus, state.Z0)
		if v, _ := Evaluate(s, p); v != Abstain {
			t.Fatalf("verdict = %s, want ABSTAIN", v)
		}
	})

	t.Run("boundary_is_inclusive", func(t *testing.T) {
		// Ratios exactly at the threshold do not trip it (strict >).
		p := Params{CollapseRatioMax: 0.5, ChurnRatioMax: 1.0, RequireS: 0}
		s := seq(state.Eminus, state.Eminus, state.Eplus, state.Eplus)
		if v, m := Evaluate(s, p); v != Allow {
			t.Fatalf("verdict = %s (collapse %v), want ALLOW", v, m.CollapseRatio)
		}
	})
}

func TestAvgDwellNoRuns(t *testing.T) {
	_, m := Evaluate(seq(state.Z0, state.Eplus), DefaultParams())
	if m.AvgDwellS != 0 {
		t.Fatalf("avg_dwell_S = %v, want 0", m.AvgDwellS)
	}
}
