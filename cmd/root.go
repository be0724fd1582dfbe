// Package cmd implements the matrixci command line interface.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"matrixci/engine/internal/config"
	"matrixci/engine/pkg/logger"
)

// exitCodeError carries a process exit code out of a RunE function so
// deferred cleanup still runs before the process terminates.
type exitCodeError int

func (e exitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", int(e))
}

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "matrixci",
	Short: "Matrix CI pipeline engine",
	Long: `matrixci executes CI workflows defined in YAML: jobs are expanded
over their matrix axes and dispatched onto a bounded worker pool, with
each step running as a shell subprocess.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var code exitCodeError
		if errors.As(err, &code) {
			os.Exit(int(code))
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "engine config file (YAML)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadConfig loads the engine configuration and initializes logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if err := logger.Init(cfg.Log); err != nil {
		return nil, err
	}
	if debug {
		logger.EnableDebug()
	}
	return cfg, nil
}
