// Package cli handles the command-line interface logic using Cobra.
package cli

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wetl",
		Short: "WETL - warehouse ETL pipeline",
		Long: `WETL extracts tabular data from files, directories, REST APIs or MongoDB,
cleans, validates and enriches it, then loads it into a SQL warehouse table
and reconciles row counts before and after the load.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.AddCommand(NewRunCmd())
	rootCmd.AddCommand(NewAggregateCmd())
	rootCmd.AddCommand(NewTableCmd())

	return rootCmd
}
