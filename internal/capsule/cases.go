// Package capsule implements the self-verifying harness: it runs the
// engine twice per named case into independent clean directories, reseals
// both, enforces the invariant set on each, and byte-compares the pair.
// The first failing case aborts the whole run.
package capsule

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ssslverify/internal/admission"
	"ssslverify/internal/fault"
)

// Case binds a named scenario to an input source and an expected
// admissibility verdict.
type Case struct {
	Name string `yaml:"name"`
	// Input is the observation CSV path relative to the repo root. Empty
	// means the input is synthesized into the work directory (the negative
	// control).
	Input  string            `yaml:"input,omitempty"`
	Expect admission.Verdict `yaml:"expect"`
}

// Capsule directory names under the repo root.
const (
	CapsuleDir  = "VERIFY_SSSL_CAPSULE"
	OutDirName  = "OUT"
	WorkDirName = "_WORK"
	SummaryName = "CAPSULE_SUMMARY.txt"
)

// NegativeControlSamples is the length of the synthesized abstain trace.
const NegativeControlSamples = 400

// CoreCases returns the fixed registry: three file-backed scenarios
// expected to ALLOW and the synthesized negative control expected to
// ABSTAIN. Order is execution order.
func CoreCases() []Case {
	return []Case{
		{Name: "SMOKE", Input: "data/sssl_smoke.csv", Expect: admission.Allow},
		{Name: "MECH", Input: "data/sssl_mech_vibration.csv", Expect: admission.Allow},
		{Name: "FLUID", Input: "data/sssl_fluid_pressure.csv", Expect: admission.Allow},
		{Name: "NEGCTL_ABSTAIN", Expect: admission.Abstain},
	}
}

// caseFile is the YAML envelope for an external case registry.
type caseFile struct {
	Cases []Case `yaml:"cases"`
}

// LoadCases parses a case registry from YAML. Every case needs a name and a
// recognized expected verdict.
func LoadCases(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &fault.MissingArtifact{Path: path}
		}
		return nil, fmt.Errorf("read case file: %w", err)
	}
	var cf caseFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, &fault.ArgsError{Reason: "cannot parse case file: " + err.Error()}
	}
	if len(cf.Cases) == 0 {
		return nil, &fault.ArgsError{Reason: "case file defines no cases: " + path}
	}
	for i, c := range cf.Cases {
		if c.Name == "" {
			return nil, &fault.ArgsError{Reason: fmt.Sprintf("case %d has no name", i)}
		}
		if c.Expect != admission.Allow && c.Expect != admission.Abstain {
			return nil, &fault.ArgsError{Reason: fmt.Sprintf("case %s: expect must be ALLOW or ABSTAIN, got %q", c.Name, c.Expect)}
		}
	}
	return cf.Cases, nil
}
