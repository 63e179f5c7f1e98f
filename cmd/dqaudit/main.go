// Package main provides the entry point for the dqaudit CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dqaudit/dqaudit/cmd/dqaudit/commands"
	"github.com/dqaudit/dqaudit/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dqaudit",
		Short: "dqaudit - data quality audit engine",
		Long: `dqaudit computes data-quality metrics over an industrial dataset.

Commands:
  run       Full or selective metric recompute
  resume    Continue or finalize a checkpointed ingest
  show      Render a persisted audit document`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add commands.
	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewResumeCommand())
	rootCmd.AddCommand(commands.NewShowCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "dqaudit %s\n", version.String())
		},
	}
}
