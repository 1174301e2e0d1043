package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pivot",
		Short: "Summarize tabular data with pivot tables",
		Long: `Group rows by key columns, aggregate value columns, and cross-tabulate.

Commands:
  run       Execute the pivots listed in a config file.
  discover  Describe a data file and suggest a pivot.
  version   Print the version.

Examples:
  pivot discover --file sales-funnel.csv
  pivot run --config pivots.yaml --format csv --out report.csv
  pivot run --config pivots.yaml --file q3.parquet`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newDiscoverCommand())
	cmd.AddCommand(newVersionCommand())
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pivot %s\n", version)
		},
	}
}
