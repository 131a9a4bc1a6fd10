package capsule

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ssslverify/internal/admission"
	"ssslverify/internal/artifact"
	"ssslverify/internal/engine"
	"ssslverify/internal/fault"
	"ssslverify/internal/spectral"
	"ssslverify/internal/state"
)

// requiredArtifacts is the complete sealed artifact set for a substrate run.
var requiredArtifacts = []string{
	engine.AdmissionFile,
	engine.CollapseFile,
	engine.SpectrumFile,
	engine.OperatorFile,
	engine.PMatrixFile,
	engine.AccumulationFile,
	engine.StatesFile,
	engine.SummaryFile,
	engine.CountsFile,
	engine.RatiosFile,
	artifact.ManifestName,
}

// spectralTolerance bounds |rho(P) - 1| for a row-stochastic P.
const spectralTolerance = 1e-9

// checkInvariants enforces the full invariant set on one sealed run
// directory. The first violation aborts with a typed error naming the
// failed check.
func checkInvariants(dir string, expect admission.Verdict) error {
	for _, name := range requiredArtifacts {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return &fault.MissingArtifact{Path: filepath.Join(dir, name)}
		}
	}

	summary, err := os.ReadFile(filepath.Join(dir, engine.SummaryFile))
	if err != nil {
		return fmt.Errorf("read summary: %w", err)
	}
	if !strings.Contains(string(summary), "phi((m,a,s)) = m") {
		return &fault.InvariantViolation{
			Check:  "collapse_identity",
			Detail: "summary.txt does not state phi((m,a,s)) = m",
		}
	}

	if err := checkStateTokens(filepath.Join(dir, engine.StatesFile)); err != nil {
		return err
	}

	p, err := spectral.ReadMatrixCSV(filepath.Join(dir, engine.PMatrixFile))
	if err != nil {
		return err
	}
	rho := spectral.PowerIterate(p, spectral.PowerIterations)
	if math.Abs(rho-1) > spectralTolerance {
		return &fault.InvariantViolation{
			Check:  "spectral_radius",
			Detail: fmt.Sprintf("rho(P) = %.15f, want 1 within %g", rho, spectralTolerance),
		}
	}

	verdict, err := readVerdict(filepath.Join(dir, engine.AdmissionFile))
	if err != nil {
		return err
	}
	if verdict != expect {
		return &fault.InvariantViolation{
			Check:  "admissibility",
			Detail: fmt.Sprintf("adm_E = %s, case expects %s", verdict, expect),
		}
	}

	return checkArtifactAliasing(dir)
}

// checkStateTokens scans the states CSV and rejects any token outside A4.
// The state column is located by name ("a_state" or "a") and falls back to
// the last column.
func checkStateTokens(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &fault.MissingArtifact{Path: path}
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return &fault.InvariantViolation{Check: "state_alphabet", Detail: "states artifact is empty"}
	}
	cols := strings.Split(strings.TrimSpace(sc.Text()), ",")
	idx := len(cols) - 1
	for i, c := range cols {
		name := strings.TrimSpace(c)
		if name == "a_state" || name == "a" {
			idx = i
			break
		}
	}

	counted := 0
	foreign := map[string]bool{}
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if idx >= len(parts) {
			continue
		}
		token := strings.TrimSpace(parts[idx])
		if state.Valid(state.State(token)) {
			counted++
		} else {
			foreign[token] = true
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan states: %w", err)
	}

	if len(foreign) > 0 {
		tokens := make([]string, 0, len(foreign))
		for tkn := range foreign {
			tokens = append(tokens, tkn)
		}
		sort.Strings(tokens)
		return &fault.InvariantViolation{
			Check:  "state_alphabet",
			Detail: "non-A4 state tokens found: " + strings.Join(tokens, ","),
		}
	}
	if counted == 0 {
		return &fault.InvariantViolation{Check: "state_alphabet", Detail: "no A4 states counted"}
	}
	return nil
}

// readVerdict extracts the adm_E line from the admissibility artifact.
func readVerdict(path string) (admission.Verdict, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &fault.MissingArtifact{Path: path}
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if rest, ok := strings.CutPrefix(line, "adm_E:"); ok {
			return admission.Verdict(strings.TrimSpace(rest)), nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("scan verdict: %w", err)
	}
	return "", &fault.InvariantViolation{Check: "admissibility", Detail: "no adm_E line in " + path}
}

// checkArtifactAliasing guards against the long-form ratio table collapsing
// into the same bytes as the compact matrix: two distinct semantic views
// must stay distinct artifacts.
func checkArtifactAliasing(dir string) error {
	ratios := filepath.Join(dir, engine.RatiosFile)
	pmatrix := filepath.Join(dir, engine.PMatrixFile)

	rs, err := os.Stat(ratios)
	if err != nil {
		return &fault.MissingArtifact{Path: ratios}
	}
	ps, err := os.Stat(pmatrix)
	if err != nil {
		return &fault.MissingArtifact{Path: pmatrix}
	}
	if rs.Size() != ps.Size() {
		return nil
	}

	rh, err := artifact.HashFile(ratios)
	if err != nil {
		return err
	}
	ph, err := artifact.HashFile(pmatrix)
	if err != nil {
		return err
	}
	if rh == ph {
		return &fault.InvariantViolation{
			Check:  "artifact_aliasing",
			Detail: engine.RatiosFile + " is byte-identical to " + engine.PMatrixFile,
		}
	}
	return nil
}
