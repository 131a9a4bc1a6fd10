package capsule

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ssslverify/internal/artifact"
	"ssslverify/internal/engine"
	"ssslverify/internal/fault"
	"ssslverify/internal/trace"
)

// Runner executes the capsule over a case list. Cases run sequentially in
// registry order; within a case the two replay runs execute concurrently
// since they share no state and write to disjoint directories.
type Runner struct {
	RepoRoot string
	Env      engine.RunEnv
	Logger   *zap.Logger
	Stdout   io.Writer
	Stderr   io.Writer
}

// Run drives every case and prints the machine-checkable verdict line as
// the final stdout output. On success a CAPSULE_SUMMARY.txt enumerating the
// cases and invariants is written; on the first failure the run aborts with
// the typed error for exit-code mapping.
func (r *Runner) Run(cases []Case) error {
	if err := r.run(cases); err != nil {
		fmt.Fprintf(r.stderr(), "%s: %v\n", diagnosticPrefix(err), err)
		fmt.Fprintln(r.stdout(), "CAPSULE_RESULT: FAIL")
		return err
	}
	fmt.Fprintln(r.stdout(), "CAPSULE_RESULT: PASS")
	return nil
}

func (r *Runner) run(cases []Case) error {
	log := r.logger()

	// Preflight: every file-backed input must exist before any case runs.
	for _, c := range cases {
		if c.Input == "" {
			continue
		}
		p := filepath.Join(r.RepoRoot, filepath.FromSlash(c.Input))
		if _, err := os.Stat(p); err != nil {
			return &fault.MissingArtifact{Path: p}
		}
	}

	capsuleDir := filepath.Join(r.RepoRoot, CapsuleDir)
	outRoot := filepath.Join(capsuleDir, OutDirName)
	workDir := filepath.Join(capsuleDir, WorkDirName)
	if err := artifact.CleanDir(outRoot); err != nil {
		return err
	}
	if err := artifact.CleanDir(workDir); err != nil {
		return err
	}

	for _, c := range cases {
		log.Info("capsule case start", zap.String("case", c.Name), zap.String("expect", string(c.Expect)))
		if err := r.runCase(c, outRoot, workDir); err != nil {
			log.Error("capsule case failed", zap.String("case", c.Name), zap.Error(err))
			return err
		}
		log.Info("capsule case passed", zap.String("case", c.Name))
	}

	if err := r.writeSummary(capsuleDir, cases); err != nil {
		return err
	}
	return nil
}

func (r *Runner) runCase(c Case, outRoot, workDir string) error {
	inCSV, err := r.resolveInput(c, workDir)
	if err != nil {
		return err
	}

	outA := filepath.Join(outRoot, c.Name+"_REPLAY_A")
	outB := filepath.Join(outRoot, c.Name+"_REPLAY_B")
	if err := artifact.CleanDir(outA); err != nil {
		return err
	}
	if err := artifact.CleanDir(outB); err != nil {
		return err
	}

	// Both replays receive their own Config value; the pinned env rides
	// inside it, so concurrent runs never share mutable state.
	var g errgroup.Group
	for _, dir := range []string{outA, outB} {
		cfg := engine.DefaultConfig()
		cfg.InCSV = inCSV
		cfg.OutDir = dir
		cfg.Substrate = true
		cfg.Env = r.Env
		cfg.Logger = r.logger()
		g.Go(func() error {
			_, err := engine.Run(cfg)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Reseal with the capsule's plain manifest style, replacing the
	// engine's binary-style seal.
	if err := artifact.WriteManifest(outA, artifact.StylePlain); err != nil {
		return err
	}
	if err := artifact.WriteManifest(outB, artifact.StylePlain); err != nil {
		return err
	}

	if err := checkInvariants(outA, c.Expect); err != nil {
		return err
	}
	if err := checkInvariants(outB, c.Expect); err != nil {
		return err
	}

	return artifact.CompareDirs(c.Name, outA, outB)
}

func (r *Runner) resolveInput(c Case, workDir string) (string, error) {
	if c.Input != "" {
		p := filepath.Join(r.RepoRoot, filepath.FromSlash(c.Input))
		if _, err := os.Stat(p); err != nil {
			return "", &fault.MissingArtifact{Path: p}
		}
		return p, nil
	}
	p := filepath.Join(workDir, strings.ToLower(c.Name)+".csv")
	if err := trace.NegativeControl(p, NegativeControlSamples); err != nil {
		return "", err
	}
	return p, nil
}

func (r *Runner) writeSummary(capsuleDir string, cases []Case) error {
	names := make([]string, len(cases))
	for i, c := range cases {
		names[i] = c.Name
	}
	lines := []string{
		"SSSL_VERIFY_CAPSULE",
		"CASES: " + strings.Join(names, ", "),
		"INVARIANTS:",
		"phi((m,a,s)) = m",
		"A4 = {Z0, Eplus, S, Eminus}",
		"|A4| = 4",
		"rho(P) = 1",
		"B_A = B_B",
		"RESULT: PASS",
	}
	path := filepath.Join(capsuleDir, SummaryName)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		return fmt.Errorf("write capsule summary: %w", err)
	}
	return nil
}

// diagnosticPrefix names the failure category on stderr, mirroring the
// exit-code taxonomy.
func diagnosticPrefix(err error) string {
	switch fault.ExitCode(err) {
	case fault.ExitMissing:
		return "MISSING"
	case fault.ExitInvariant:
		return "INVARIANT"
	case fault.ExitArgs:
		return "ARGS"
	default:
		return "FAIL"
	}
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return zap.NewNop()
}

func (r *Runner) stdout() io.Writer {
	if r.Stdout != nil {
		return r.Stdout
	}
	return os.Stdout
}

func (r *Runner) stderr() io.Writer {
	if r.Stderr != nil {
		return r.Stderr
	}
	return os.Stderr
}
