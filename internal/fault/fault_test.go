package fault

import (
	"errors"
	"fmt"
	"testing"
)

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitOK},
		{name: "args", err: &ArgsError{Reason: "bad flag"}, want: ExitArgs},
		{name: "missing", err: &MissingArtifact{Path: "data/x.csv"}, want: ExitMissing},
		{name: "invariant", err: &InvariantViolation{Check: "spectral_radius", Detail: "rho"}, want: ExitInvariant},
		{name: "replay", err: &ReplayMismatch{Case: "SMOKE", Detail: "x"}, want: ExitInvariant},
		{name: "validation", err: &ValidationError{Source: "in.csv", Line: 3, Reason: "bad"}, want: ExitFail},
		{name: "data", err: &DataError{Reason: "too few rows"}, want: ExitFail},
		{name: "plain", err: errors.New("boom"), want: ExitFail},
		{name: "wrapped_missing", err: fmt.Errorf("case SMOKE: %w", &MissingArtifact{Path: "x"}), want: ExitMissing},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExitCode(tc.err); got != tc.want {
				t.Fatalf("ExitCode(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestErrorStrings(t *testing.T) {
	verr := &ValidationError{Source: "in.csv", Line: 4, Reason: "E_proxy must be >= 0"}
	if got := verr.Error(); got != "validation: in.csv line 4: E_proxy must be >= 0" {
		t.Fatalf("unexpected message: %q", got)
	}
	herr := &ValidationError{Source: "in.csv", Reason: "bad header"}
	if got := herr.Error(); got != "validation: in.csv: bad header" {
		t.Fatalf("unexpected message: %q", got)
	}
}
