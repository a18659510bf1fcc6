package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagVerbose bool

var rootCmd = &cobra.Command{
	Use:   "exotrack",
	Short: "Console for the ExoTrack tax declaration service",
	Long: `exotrack is the command line console for the ExoTrack tax declaration
service: accountants manage customers, yearly declarations and their line
items (assets, incomes, liabilities) from the terminal.

Configuration comes from environment variables (and an optional .env file):
EXOTRACK_API_URL selects the backend, LOG_LEVEL and --verbose control output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false,
		"verbose output: debug logs and a request summary at exit")
}
