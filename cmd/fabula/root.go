package main

import (
	"github.com/spf13/cobra"
)

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "fabula",
	Short: "fabula keeps the timeline of your stories straight",
	Long: `fabula is a local-first timeline keeper for writers and world-builders.

It stores narrative events (what happened, when, to whom, in which story)
in a local SQLite database, serves a browser UI for browsing and charting
them, and exposes the same data over a REST API and MCP tools.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(dataCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(configCmd)
}
