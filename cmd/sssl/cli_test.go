package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"ssslverify/internal/fault"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestTraceThenVerify(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "smoke.csv")
	out := filepath.Join(dir, "outputs")

	stdout, err := execute(t, "trace", "--kind", "smoke", "--out_csv", in)
	require.NoError(t, err)
	require.Contains(t, stdout, "OK: wrote smoke trace")

	stdout, err = execute(t, "verify", "--in_csv", in, "--out_dir", out, "--substrate")
	require.NoError(t, err)
	require.Contains(t, stdout, "OK: SSSL verification complete")

	for _, name := range []string{"sssl_states.csv", "adm_result.txt", "MANIFEST.sha256"} {
		_, err := os.Stat(filepath.Join(out, name))
		require.NoError(t, err, "missing %s", name)
	}
}

func TestVerifyRequiresInput(t *testing.T) {
	_, err := execute(t, "verify", "--in_csv", "", "--out_dir", t.TempDir())
	require.Error(t, err)
	require.Equal(t, fault.ExitArgs, fault.ExitCode(err))
}

func TestCapsuleEndToEnd(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0o755))

	for _, gen := range [][]string{
		{"trace", "--kind", "smoke", "--out_csv", filepath.Join(dataDir, "sssl_smoke.csv")},
		{"trace", "--kind", "mech", "--out_csv", filepath.Join(dataDir, "sssl_mech_vibration.csv")},
		{"trace", "--kind", "fluid", "--out_csv", filepath.Join(dataDir, "sssl_fluid_pressure.csv")},
	} {
		_, err := execute(t, gen...)
		require.NoError(t, err)
	}

	stdout, err := execute(t, "capsule", "--repo_root", root)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(stdout, "CAPSULE_RESULT: PASS\n"), "stdout: %q", stdout)

	_, err = os.Stat(filepath.Join(root, "VERIFY_SSSL_CAPSULE", "CAPSULE_SUMMARY.txt"))
	require.NoError(t, err)
}

func TestCapsuleMissingDataExitCode(t *testing.T) {
	stdout, err := execute(t, "capsule", "--repo_root", t.TempDir())
	require.Error(t, err)
	require.Equal(t, fault.ExitMissing, fault.ExitCode(err))
	require.Contains(t, stdout, "CAPSULE_RESULT: FAIL")
}

func TestUnknownCaseRegistry(t *testing.T) {
	_, err := execute(t, "capsule", "--cases", "extended", "--repo_root", t.TempDir())
	require.Error(t, err)
	require.Equal(t, fault.ExitArgs, fault.ExitCode(err))
}

func TestAdaptCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.csv")
	require.NoError(t, os.WriteFile(src, []byte("ts,p,ev\n0,0.1,0\n1,0.9,1\n"), 0o644))

	out := filepath.Join(dir, "adapted.csv")
	stdout, err := execute(t, "adapt", "--in_csv", src, "--out_csv", out, "--t_col", "ts", "--m_col", "p", "--event_col", "ev")
	require.NoError(t, err)
	require.Contains(t, stdout, "OK: adapted trace written")

	body, err := os.ReadFile(out)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(body), "t_s,E_proxy,discharge\n"))
}
