package mergeguard

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagJSON          bool
	flagDebug         bool
	flagNoColor       bool
	flagNoUpdateCheck bool
	flagSelfUpdate    bool

	version = "0.1.0"
)

// rootCmd is the base Cobra command for the mergeguard CLI.
var rootCmd = &cobra.Command{
	Use:           "mergeguard",
	Short:         "Analyze code changes and gate merges on policy",
	Long:          "Mergeguard runs concurrent scanners over source files, aggregates their findings, and turns the result into a pass/warn/fail gate decision driven by a declarative policy.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the mergeguard CLI. It should be called by the main package.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit JSON")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().BoolVar(&flagNoUpdateCheck, "no-update-check", false, "disable update check")
	rootCmd.PersistentFlags().BoolVar(&flagSelfUpdate, "self-update", false, "update mergeguard to the latest release")
}
