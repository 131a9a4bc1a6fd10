// Package fault defines the typed error taxonomy shared by the engine and
// the verification capsule. Every failure in the pipeline is fatal at the
// point of detection; these types exist so the capsule can branch on the
// error category with errors.As instead of string matching, and so the CLI
// can map each category to a stable process exit code.
package fault

import (
	"errors"
	"fmt"
)

// Capsule exit codes. Automated harnesses branch on these alone.
const (
	ExitOK        = 0 // all cases passed
	ExitFail      = 1 // generic failure (engine run failed, I/O error)
	ExitArgs      = 2 // CLI argument error
	ExitMissing   = 3 // required input or artifact absent
	ExitInvariant = 4 // invariant violation or replay mismatch
)

// ValidationError reports a malformed header, row, or out-of-range field in
// an input CSV. Line is the 1-based physical line number of the offending
// row (the header is line 1); it is 0 for header-level violations.
type ValidationError struct {
	Source string
	Line   int
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("validation: %s line %d: %s", e.Source, e.Line, e.Reason)
	}
	return fmt.Sprintf("validation: %s: %s", e.Source, e.Reason)
}

// DataError reports structurally unusable data: too few observations, or a
// non-square / non-numeric matrix artifact.
type DataError struct {
	Reason string
}

func (e *DataError) Error() string {
	return "data: " + e.Reason
}

// MissingArtifact reports a required input or output file that does not
// exist where the pipeline expects it.
type MissingArtifact struct {
	Path string
}

func (e *MissingArtifact) Error() string {
	return "missing artifact: " + e.Path
}

// InvariantViolation reports a failed capsule invariant check. Check names
// the invariant (e.g. "collapse_identity", "spectral_radius",
// "artifact_aliasing"); Detail carries the observed evidence.
type InvariantViolation struct {
	Check  string
	Detail string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant %s: %s", e.Check, e.Detail)
}

// ReplayMismatch reports that the two replay runs of a case produced
// different artifact sets.
type ReplayMismatch struct {
	Case   string
	Detail string
}

func (e *ReplayMismatch) Error() string {
	return fmt.Sprintf("replay mismatch in %s: %s", e.Case, e.Detail)
}

// ArgsError reports CLI misuse (bad flag, unknown mode). It exists so flag
// parsing failures exit with ExitArgs rather than the generic code.
type ArgsError struct {
	Reason string
}

func (e *ArgsError) Error() string {
	return "args: " + e.Reason
}

// ExitCode maps an error to the capsule exit-code contract. Engine-level
// input errors (validation, bad data) surface as the generic failure code:
// from the capsule's point of view the run failed, it did not produce an
// invariant verdict.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var (
		args      *ArgsError
		missing   *MissingArtifact
		invariant *InvariantViolation
		replay    *ReplayMismatch
	)
	switch {
	case errors.As(err, &args):
		return ExitArgs
	case errors.As(err, &missing):
		return ExitMissing
	case errors.As(err, &invariant), errors.As(err, &replay):
		return ExitInvariant
	default:
		return ExitFail
	}
}
