// Command sssl is the SSSL structural-state verifier: it classifies an
// observation trace into the A4 alphabet, derives the substrate artifacts,
// seals the output, and (via the capsule subcommand) re-verifies its own
// determinism.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ssslverify/internal/fault"
)

var (
	// Global flags
	verbose bool

	// Logger, initialized before any subcommand runs
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sssl",
	Short: "SSSL structural-state verifier",
	Long: `sssl classifies a time-ordered observation trace (t_s, E_proxy,
discharge) into the four-symbol structural-state alphabet A4 and derives
the substrate artifacts: accumulation, operator algebra, transition and
spectral statistics, and an admissibility verdict. Every run is sealed
with a content-hash manifest; the capsule subcommand replays each named
scenario twice and fails loudly on any byte-level divergence.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	// Flag misuse maps to the dedicated argument exit code.
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &fault.ArgsError{Reason: err.Error()}
	})

	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(capsuleCmd)
	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(adaptCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(fault.ExitCode(err))
	}
}
