// Command dogbrain runs the autonomous cognitive core for a socially
// interactive robot dog, or inspects its persisted state.
//
// File Index:
//   - main.go   - entry point, rootCmd, global flags
//   - run.go    - runCmd, wires store/personality/templates/behavior/
//                 reasoner/tools into a Brain and runs it until signalled
//   - status.go - statusCmd, a bubbletea live dashboard over Brain.HealthStatus
//   - db.go     - dbCmd/dbStatsCmd, prints store.Stats()
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/joeunion/pidog/internal/logging"
)

var (
	verbose    bool
	configPath string
	logDir     string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dogbrain",
	Short: "Autonomous cognitive core for a robot dog",
	Long: `dogbrain runs the robot dog's cognitive core: sensor fusion, a mood
and personality model, persistent memory, and a think-cycle scheduler that
decides between a local behavior tree and a remote reasoner backend.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if logDir != "" {
			if err := logging.Initialize(logDir); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to initialize category logging: %v\n", err)
			}
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
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "dogbrain.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Directory for category log files (disabled if empty)")

	dbCmd.AddCommand(dbStatsCmd)

	rootCmd.AddCommand(runCmd, statusCmd, dbCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
