// Package cli provides the command-line interface for targetdiff.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/raphaelgruber/targetdiff/internal/config"
	"github.com/raphaelgruber/targetdiff/internal/metrics"
	"github.com/raphaelgruber/targetdiff/internal/service"
	"github.com/raphaelgruber/targetdiff/internal/source"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose    bool
	configFile string

	// Global config and logger cleanup
	cfg        config.Config
	logCleanup func() error
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "targetdiff",
	Short: "Compare robot target declarations between two program sets",
	Long: `Targetdiff compares the jointtarget, robtarget and tooldata declarations
of a "new" and an "old" set of robot program files.

Files are paired by robot number (or file name for tooldata), declarations
are matched by name and value, and numeric changes are graded by severity.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip setup for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		if configFile != "" {
			cfg.ConfigFile = configFile
		}
		if cfg.ConfigFile != "" {
			var err error
			if cfg, err = config.LoadFile(cfg, cfg.ConfigFile); err != nil {
				return err
			}
		}
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}

		var logger *slog.Logger
		logger, logCleanup = config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		slog.SetDefault(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			if err := logCleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// newService wires the compare service to the configured file source.
func newService(collector *metrics.Collector) *service.CompareService {
	loader := source.NewLoader(cfg.Concurrency)
	return service.NewCompareService(loader, cfg.Profiles, collector)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (overrides TARGETDIFF_CONFIG)")

	// Add subcommands
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(kindsCmd)
	rootCmd.AddCommand(versionCmd)
}
