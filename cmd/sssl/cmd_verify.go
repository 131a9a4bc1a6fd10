package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ssslverify/internal/accum"
	"ssslverify/internal/admission"
	"ssslverify/internal/engine"
	"ssslverify/internal/fault"
	"ssslverify/internal/observe"
	"ssslverify/internal/state"
)

var (
	inCSV  string
	outDir string

	tau0 float64
	taus float64
	eps  float64
	drop float64

	substrate   bool
	s0          int
	sMax        int
	incOnEminus int
	decOnS      int

	collapseRatioMax float64
	churnRatioMax    float64
	requireS         int

	batteryExtract bool
	batteryCSV     string
	batteryID      string
	maxRows        int
)

// verifyCmd runs the engine once: ingest, classify, derive, seal.
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Run the SSSL engine over one observation trace",
	Long: `Reads an observation CSV (header exactly t_s,E_proxy,discharge),
classifies every sample into A4, and writes the artifact set into the
output directory, sealed with a SHA-256 manifest.

With --substrate the full substrate is derived: accumulation, operator
table, admissibility verdict, transition matrices, and eigen-spectrum.

The alternate mode --battery_extract projects a battery cycling dataset
(battery_id, cycle, disV, disI) into the standard observation schema
instead of running the engine.`,
	RunE: runVerify,
}

func init() {
	f := verifyCmd.Flags()
	f.StringVar(&inCSV, "in_csv", "", "Observation CSV (t_s,E_proxy,discharge)")
	f.StringVar(&outDir, "out_dir", "outputs", "Output directory for artifacts")

	f.Float64Var(&tau0, "tau0", 0.05, "Z0 magnitude ceiling")
	f.Float64Var(&taus, "taus", 0.70, "S magnitude floor")
	f.Float64Var(&eps, "eps", 0.02, "Flatness band on |dE/dt|")
	f.Float64Var(&drop, "drop", 0.15, "Derivative drop forcing Eminus")

	f.BoolVar(&substrate, "substrate", false, "Derive the full substrate artifact set")
	f.IntVar(&s0, "s0", 0, "Accumulator start value")
	f.IntVar(&sMax, "s_max", 50, "Accumulator saturation ceiling")
	f.IntVar(&incOnEminus, "inc_on_eminus", 1, "Accumulator increment on Eminus")
	f.IntVar(&decOnS, "dec_on_s", 1, "Accumulator decrement on S")

	f.Float64Var(&collapseRatioMax, "collapse_ratio_max", 0.60, "Abstain above this Eminus share")
	f.Float64Var(&churnRatioMax, "churn_ratio_max", 0.80, "Abstain above this label-change share")
	f.IntVar(&requireS, "require_s", 0, "Abstain below this S count")

	f.BoolVar(&batteryExtract, "battery_extract", false, "Project a battery dataset instead of verifying")
	f.StringVar(&batteryCSV, "battery_csv", "", "Battery dataset CSV (battery_id,cycle,disV,disI)")
	f.StringVar(&batteryID, "battery_id", "", "Device id to extract (first seen if unset)")
	f.IntVar(&maxRows, "max_rows", 0, "Row cap for the extraction (0 = unlimited)")
}

func ensureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	if batteryExtract {
		if batteryCSV == "" {
			return &fault.ArgsError{Reason: "--battery_csv is required with --battery_extract"}
		}
		outCSV := filepath.Join(outDir, "battery_observations.csv")
		if err := ensureDir(outDir); err != nil {
			return err
		}
		opts := observe.BatteryOptions{BatteryID: batteryID, MaxRows: maxRows}
		if err := observe.ExtractBattery(batteryCSV, outCSV, opts); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "OK: Battery observations extracted")
		fmt.Fprintf(cmd.OutOrStdout(), "OUT_CSV: %s\n", outCSV)
		return nil
	}

	if inCSV == "" {
		return &fault.ArgsError{Reason: "--in_csv is required unless --battery_extract is used"}
	}

	cfg := engine.Config{
		InCSV:     inCSV,
		OutDir:    outDir,
		Class:     state.Params{Tau0: tau0, TauS: taus, Eps: eps, Drop: drop},
		Substrate: substrate,
		Accum:     accum.Params{S0: s0, SMax: sMax, IncOnEminus: incOnEminus, DecOnS: decOnS},
		Adm:       admission.Params{CollapseRatioMax: collapseRatioMax, ChurnRatioMax: churnRatioMax, RequireS: requireS},
		Env:       engine.DefaultRunEnv(),
		Logger:    logger,
	}

	res, err := engine.Run(cfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "OK: SSSL verification complete")
	fmt.Fprintf(cmd.OutOrStdout(), "OUT_DIR: %s\n", res.OutDir)
	fmt.Fprintf(cmd.OutOrStdout(), "MANIFEST: %s\n", res.ManifestPath)
	return nil
}
