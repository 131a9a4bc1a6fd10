package engine

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"ssslverify/internal/admission"
	"ssslverify/internal/artifact"
	"ssslverify/internal/fault"
	"ssslverify/internal/trace"
)

func smokeConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "smoke.csv")
	require.NoError(t, trace.Smoke(in))

	cfg := DefaultConfig()
	cfg.InCSV = in
	cfg.OutDir = filepath.Join(dir, "out")
	cfg.Substrate = true
	return cfg
}

func TestRunSmokeAllows(t *testing.T) {
	cfg := smokeConfig(t)
	res, err := Run(cfg)
	require.NoError(t, err)
	require.Equal(t, admission.Allow, res.Verdict)
	require.Equal(t, 25, res.Observations)

	for _, name := range []string{
		StatesFile, AccumulationFile, OperatorFile, AdmissionFile,
		CountsFile, RatiosFile, PMatrixFile, SpectrumFile, CollapseFile,
		SummaryFile, artifact.ManifestName,
	} {
		_, err := os.Stat(filepath.Join(cfg.OutDir, name))
		require.NoError(t, err, "missing artifact %s", name)
	}

	summary, err := os.ReadFile(filepath.Join(cfg.OutDir, SummaryFile))
	require.NoError(t, err)
	require.Contains(t, string(summary), "phi((m,a,s)) = m")

	adm, err := os.ReadFile(filepath.Join(cfg.OutDir, AdmissionFile))
	require.NoError(t, err)
	require.Contains(t, string(adm), "adm_E: ALLOW")
}

func TestRunNegativeControlAbstains(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "negctl.csv")
	require.NoError(t, trace.NegativeControl(in, 400))

	cfg := DefaultConfig()
	cfg.InCSV = in
	cfg.OutDir = filepath.Join(dir, "out")
	cfg.Substrate = true

	res, err := Run(cfg)
	require.NoError(t, err)
	require.Equal(t, admission.Abstain, res.Verdict)
}

func TestRunDeterministicReplay(t *testing.T) {
	cfg := smokeConfig(t)

	cfgA := cfg
	cfgA.OutDir = filepath.Join(t.TempDir(), "a")
	cfgB := cfg
	cfgB.OutDir = filepath.Join(t.TempDir(), "b")

	_, err := Run(cfgA)
	require.NoError(t, err)
	_, err = Run(cfgB)
	require.NoError(t, err)

	require.NoError(t, artifact.CompareDirs("replay", cfgA.OutDir, cfgB.OutDir))
}

func TestRunWithoutSubstrate(t *testing.T) {
	cfg := smokeConfig(t)
	cfg.Substrate = false

	res, err := Run(cfg)
	require.NoError(t, err)
	require.Empty(t, string(res.Verdict))

	// Reduced artifact set: states, summary, manifest and nothing else.
	entries, err := os.ReadDir(cfg.OutDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.ElementsMatch(t, []string{StatesFile, SummaryFile, artifact.ManifestName}, names)
}

func TestRunRejectsBadHeaderBeforeWriting(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(in, []byte("t,E,flag\n0,0.1,0\n1,0.2,0\n"), 0o644))

	cfg := DefaultConfig()
	cfg.InCSV = in
	cfg.OutDir = filepath.Join(dir, "out")
	cfg.Substrate = true

	_, err := Run(cfg)
	var verr *fault.ValidationError
	require.True(t, errors.As(err, &verr), "want ValidationError, got %v", err)

	// No artifact may exist after a validation failure.
	entries, err := os.ReadDir(cfg.OutDir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestRunManifestBinaryStyle(t *testing.T) {
	cfg := smokeConfig(t)
	res, err := Run(cfg)
	require.NoError(t, err)

	body, err := os.ReadFile(res.ManifestPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(body), "\n"), "\n")
	require.Len(t, lines, 10) // everything except the manifest itself
	for _, line := range lines {
		parts := strings.SplitN(line, " ", 2)
		require.Len(t, parts, 2, "line %q", line)
		require.Len(t, parts[0], 64, "digest length in %q", line)
		require.True(t, strings.HasPrefix(parts[1], "*"), "binary marker missing in %q", line)
	}
}

func TestRatioArtifactNotAliasedToPMatrix(t *testing.T) {
	// Semantic-aliasing guard precondition: the long-form ratio table and
	// the compact matrix must never share bytes.
	cfg := smokeConfig(t)
	_, err := Run(cfg)
	require.NoError(t, err)

	ratios, err := os.ReadFile(filepath.Join(cfg.OutDir, RatiosFile))
	require.NoError(t, err)
	pm, err := os.ReadFile(filepath.Join(cfg.OutDir, PMatrixFile))
	require.NoError(t, err)
	require.NotEqual(t, pm, ratios)
}
