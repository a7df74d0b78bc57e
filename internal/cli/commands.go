package cli

import (
	"github.com/spf13/cobra"
)

// RunOptions are the flags for the run and aggregate commands. Flag values
// override the corresponding job-file fields.
type RunOptions struct {
	JobFile     string
	SourcePath  string
	SourceType  string
	TargetTable string
	LoadMode    string
}

func NewRunCmd() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full extract-transform-load pipeline for a job",
		RunE: func(c *cobra.Command, args []string) error {
			return runPipeline(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.JobFile, "job", "j", "", "Path to the job file")
	cmd.Flags().StringVar(&opts.SourcePath, "source", "", "Override the job's source path")
	cmd.Flags().StringVar(&opts.SourceType, "type", "", "Override the job's source type (csv|json|api|dir|mongo)")
	cmd.Flags().StringVarP(&opts.TargetTable, "table", "t", "", "Override the job's target table")
	cmd.Flags().StringVar(&opts.LoadMode, "mode", "", "Override the load mode (append|replace)")
	cmd.MarkFlagRequired("job")

	return cmd
}

func NewAggregateCmd() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Extract, clean and aggregate a job's source without loading",
		RunE: func(c *cobra.Command, args []string) error {
			return runAggregate(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.JobFile, "job", "j", "", "Path to the job file (must configure aggregation)")
	cmd.Flags().StringVar(&opts.SourcePath, "source", "", "Override the job's source path")
	cmd.Flags().StringVar(&opts.SourceType, "type", "", "Override the job's source type (csv|json|api|dir|mongo)")
	cmd.MarkFlagRequired("job")

	return cmd
}

func NewTableCmd() *cobra.Command {
	var table string
	var query string

	cmd := &cobra.Command{
		Use:   "table",
		Short: "Warehouse table operations",
	}

	countCmd := &cobra.Command{
		Use:   "count",
		Short: "Print the row count of a warehouse table",
		RunE: func(c *cobra.Command, args []string) error {
			return runCount(table)
		},
	}
	countCmd.Flags().StringVarP(&table, "table", "t", "", "Table name")
	countCmd.MarkFlagRequired("table")

	truncateCmd := &cobra.Command{
		Use:   "truncate",
		Short: "Remove all rows from a warehouse table",
		RunE: func(c *cobra.Command, args []string) error {
			return runTruncate(table)
		},
	}
	truncateCmd.Flags().StringVarP(&table, "table", "t", "", "Table name")
	truncateCmd.MarkFlagRequired("table")

	queryCmd := &cobra.Command{
		Use:   "query",
		Short: "Run an ad-hoc read query against the warehouse",
		RunE: func(c *cobra.Command, args []string) error {
			return runQuery(query)
		},
	}
	queryCmd.Flags().StringVarP(&query, "query", "q", "", "SQL query to run")
	queryCmd.MarkFlagRequired("query")

	cmd.AddCommand(countCmd, truncateCmd, queryCmd)
	return cmd
}
