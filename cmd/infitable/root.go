package main

import (
	"github.com/spf13/cobra"
)

// Version information (set at build time).
var Version = "0.1.0"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "infitable",
		Short: "Virtualized, sortable, infinitely scrolling tables in the terminal",
		Long: `infitable pages through a table of a MySQL or PostgreSQL database, or
through a generated in-memory dataset, loading rows on demand as you scroll.

Sorting is done by the data source; the header of a sortable column cycles
through ascending, descending and unsorted.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newBrowseCmd())

	return rootCmd
}
