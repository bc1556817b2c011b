package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "callisto",
	Short: "Callisto - compliance evidence engine",
	Long: `Callisto is a compliance evidence engine for regulated services.

It wraps compliance-relevant operations in evidence spans, providing:
  - A sealed registry of controls per regulatory framework (GDPR, SOC 2, ...)
  - Span lifecycle capture with input/output attributes and error taxonomy
  - Cross-framework correlation of spans for one business operation
  - Batched, retrying export to OTLP collectors and a local archive
  - Retention enforcement and operational introspection`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
