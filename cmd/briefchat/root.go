package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "briefchat",
	Short: "Talk to the brief assistant from a terminal",
	Long: `briefchat drives the same dialogue engine as the Lambda endpoint,
keeping sessions in memory.

Quick Start:
  briefchat chat --brand my-brand --dry-run     # no AWS access needed
  briefchat chat --brand my-brand --host express`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (BRIEF_* environment variables still apply)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level, including per-turn draft changes")
}
