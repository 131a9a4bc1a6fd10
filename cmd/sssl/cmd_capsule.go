package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ssslverify/internal/capsule"
	"ssslverify/internal/engine"
	"ssslverify/internal/fault"
)

var (
	repoRoot string
	caseMode string
	caseFile string
)

// capsuleCmd replays every registered case twice and enforces the full
// invariant set, including the A/B byte comparison.
var capsuleCmd = &cobra.Command{
	Use:   "capsule",
	Short: "Run the self-verifying replay capsule",
	Long: `For each registered case the engine pipeline runs twice into
independent clean directories under VERIFY_SSSL_CAPSULE/OUT, both runs are
resealed and checked against the invariant set (required artifacts,
collapse identity, A4-only tokens, rho(P) = 1, expected verdict, no
ratio/matrix aliasing), and the two directories are byte-compared.

The first failing case aborts the capsule. Exit codes: 0 pass, 1 generic
failure, 2 argument error, 3 missing input or artifact, 4 invariant
violation or replay mismatch. Stdout always ends with
CAPSULE_RESULT: PASS or CAPSULE_RESULT: FAIL.`,
	RunE: runCapsule,
}

func init() {
	f := capsuleCmd.Flags()
	f.StringVar(&repoRoot, "repo_root", "..", "Repository root holding data/ and VERIFY_SSSL_CAPSULE/")
	f.StringVar(&caseMode, "cases", "core", "Case registry to run (only \"core\")")
	f.StringVar(&caseFile, "case_file", "", "Optional YAML case file overriding the registry")
}

func runCapsule(cmd *cobra.Command, args []string) error {
	if caseMode != "core" {
		return &fault.ArgsError{Reason: fmt.Sprintf("unknown case registry %q (only \"core\")", caseMode)}
	}

	cases := capsule.CoreCases()
	if caseFile != "" {
		loaded, err := capsule.LoadCases(caseFile)
		if err != nil {
			return err
		}
		cases = loaded
	}

	r := &capsule.Runner{
		RepoRoot: repoRoot,
		Env:      engine.DefaultRunEnv(),
		Logger:   logger,
		Stdout:   cmd.OutOrStdout(),
		Stderr:   cmd.ErrOrStderr(),
	}
	return r.Run(cases)
}
