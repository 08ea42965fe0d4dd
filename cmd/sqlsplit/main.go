// Package main provides the entry point for the sqlsplit CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/sqlsplit/cmd/sqlsplit/commands"
	"github.com/Sumatoshi-tech/sqlsplit/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sqlsplit",
		Short: "Split large SQL files into smaller ones without breaking statements",
		Long: `sqlsplit splits a large SQL script into a sequence of smaller files,
each under a configurable size limit, never dividing a statement across
two output files. Semicolons inside string literals, quoted identifiers,
comments, and dollar-quoted blocks are not treated as terminators.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add commands.
	rootCmd.AddCommand(commands.NewSplitCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(commands.ExitCode(err))
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "sqlsplit %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
