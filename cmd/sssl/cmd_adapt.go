package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ssslverify/internal/observe"
)

var (
	adaptInCSV    string
	adaptOutCSV   string
	adaptTimeCol  string
	adaptMagCol   string
	adaptEventCol string
)

// adaptCmd remaps an arbitrary tabular trace into the observation schema.
var adaptCmd = &cobra.Command{
	Use:   "adapt",
	Short: "Project a generic tabular trace into the observation schema",
	Long: `Reads a CSV with named time and magnitude columns (and an optional
0/1 event column) and writes the canonical (t_s,E_proxy,discharge) schema,
deterministically sorted. Use this to feed pressure, flow, vibration or
similar traces into the verifier.`,
	RunE: runAdapt,
}

func init() {
	f := adaptCmd.Flags()
	f.StringVar(&adaptInCSV, "in_csv", "", "Source CSV")
	f.StringVar(&adaptOutCSV, "out_csv", "", "Output CSV path")
	f.StringVar(&adaptTimeCol, "t_col", "", "Time column name in the source")
	f.StringVar(&adaptMagCol, "m_col", "", "Magnitude column name in the source")
	f.StringVar(&adaptEventCol, "event_col", "", "Optional event column (0/1); discharge=0 when unset")
	_ = adaptCmd.MarkFlagRequired("in_csv")
	_ = adaptCmd.MarkFlagRequired("out_csv")
	_ = adaptCmd.MarkFlagRequired("t_col")
	_ = adaptCmd.MarkFlagRequired("m_col")
}

func runAdapt(cmd *cobra.Command, args []string) error {
	if dir := filepath.Dir(adaptOutCSV); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	opts := observe.AdaptOptions{TimeCol: adaptTimeCol, MagCol: adaptMagCol, EventCol: adaptEventCol}
	if err := observe.Adapt(adaptInCSV, adaptOutCSV, opts); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "OK: adapted trace written: %s\n", adaptOutCSV)
	return nil
}
