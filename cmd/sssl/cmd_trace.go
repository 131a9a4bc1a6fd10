package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ssslverify/internal/fault"
	"ssslverify/internal/trace"
)

var (
	traceKind      string
	traceOutCSV    string
	traceN         int
	traceDT        float64
	traceInCSV     string
	traceMagCol    string
	traceThreshold float64
)

// traceCmd synthesizes the deterministic scenario traces in the
// observation schema.
var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Generate a deterministic scenario trace",
	Long: `Writes a trace in the observation schema (t_s,E_proxy,discharge)
for one of the named scenarios:

  smoke   ramp-up, plateau, sharp drop with discharge, ramp-up (25 samples)
  mech    mechanical vibration envelope with one shock event
  fluid   fluid pressure with one valve-release event
  seismic projection of an earthquake catalog (--in_csv, --mag_col)
  negctl  alternating negative control expected to abstain

The traces are functional test signals, not physical simulation claims.`,
	RunE: runTrace,
}

func init() {
	f := traceCmd.Flags()
	f.StringVar(&traceKind, "kind", "", "Scenario: smoke, mech, fluid, seismic, negctl")
	f.StringVar(&traceOutCSV, "out_csv", "", "Output CSV path")
	f.IntVar(&traceN, "n", 0, "Sample count (mech: 60, fluid: 70, negctl: 400)")
	f.Float64Var(&traceDT, "dt", 0.1, "Time step seconds (mech, fluid)")
	f.StringVar(&traceInCSV, "in_csv", "", "Source catalog CSV (seismic)")
	f.StringVar(&traceMagCol, "mag_col", "mag", "Magnitude column name (seismic)")
	f.Float64Var(&traceThreshold, "discharge_threshold", 5.5, "Discharge trigger magnitude (seismic)")
	_ = traceCmd.MarkFlagRequired("kind")
	_ = traceCmd.MarkFlagRequired("out_csv")
}

func runTrace(cmd *cobra.Command, args []string) error {
	if dir := filepath.Dir(traceOutCSV); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	var err error
	switch traceKind {
	case "smoke":
		err = trace.Smoke(traceOutCSV)
	case "mech":
		err = trace.MechVibration(traceOutCSV, defaultN(traceN, 60), traceDT)
	case "fluid":
		err = trace.FluidPressure(traceOutCSV, defaultN(traceN, 70), traceDT)
	case "seismic":
		if traceInCSV == "" {
			return &fault.ArgsError{Reason: "--in_csv is required for seismic traces"}
		}
		err = trace.Seismic(traceInCSV, traceOutCSV, traceMagCol, traceThreshold)
	case "negctl":
		err = trace.NegativeControl(traceOutCSV, defaultN(traceN, 400))
	default:
		return &fault.ArgsError{Reason: "unknown trace kind: " + traceKind}
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "OK: wrote %s trace: %s\n", traceKind, traceOutCSV)
	return nil
}

func defaultN(n, fallback int) int {
	if n > 0 {
		return n
	}
	return fallback
}
