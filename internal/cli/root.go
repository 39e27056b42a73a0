// Package cli implements the loopstate command-line interface using Cobra.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "loopstate",
	Short: "loopstate — streak, XP, and engagement calculation engine",
	Long: `loopstate is a local-first streak, XP, and engagement calculation engine.

It recomputes streak and experience-point summaries from append-only event
logs, idempotently and without mutating history.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
