package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BartekS5/WETL/internal/config"
	"github.com/BartekS5/WETL/internal/etl"
	"github.com/BartekS5/WETL/pkg/database"
	"github.com/BartekS5/WETL/pkg/models"
)

func loadJob(opts *RunOptions) (*models.Job, error) {
	job, err := config.LoadJob(opts.JobFile)
	if err != nil {
		return nil, err
	}
	if opts.SourcePath != "" {
		job.SourcePath = opts.SourcePath
	}
	if opts.SourceType != "" {
		job.SourceType = opts.SourceType
	}
	if opts.TargetTable != "" {
		job.TargetTable = opts.TargetTable
	}
	if opts.LoadMode != "" {
		job.LoadMode = opts.LoadMode
	}
	return job, nil
}

// buildExtractor picks the source collaborator for the job. The returned
// cleanup releases source-side resources (the Mongo client).
func buildExtractor(ctx context.Context, job *models.Job, cfg *config.Config) (etl.Extractor, func(), error) {
	noop := func() {}

	switch job.SourceType {
	case "csv":
		return &etl.CSVExtractor{Path: job.SourcePath}, noop, nil
	case "json":
		return &etl.JSONExtractor{Path: job.SourcePath}, noop, nil
	case "dir":
		return &etl.DirExtractor{Dir: job.SourcePath}, noop, nil
	case "api":
		return &etl.APIExtractor{
			URL:     job.SourcePath,
			Method:  job.API.Method,
			Headers: job.API.Headers,
			Params:  job.API.Params,
		}, noop, nil
	case "mongo":
		if cfg.MongoConnString == "" {
			return nil, noop, fmt.Errorf("MONGO_CONNECTION_STRING environment variable not set")
		}
		dbName, collection, ok := strings.Cut(job.SourcePath, ".")
		if !ok {
			return nil, noop, fmt.Errorf("mongo source path must be 'database.collection', got %q", job.SourcePath)
		}
		client, err := database.ConnectMongo(cfg.MongoConnString)
		if err != nil {
			return nil, noop, err
		}
		cleanup := func() { _ = client.Disconnect(ctx) }
		return &etl.MongoExtractor{Client: client, Database: dbName, Collection: collection}, cleanup, nil
	default:
		return nil, noop, &etl.ConfigError{Reason: fmt.Sprintf("unsupported source type %q", job.SourceType)}
	}
}

func runPipeline(opts *RunOptions) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	job, err := loadJob(opts)
	if err != nil {
		return err
	}

	extractor, cleanup, err := buildExtractor(ctx, job, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	db, err := database.ConnectWarehouse(cfg.WarehouseConnString)
	if err != nil {
		return err
	}
	// The pipeline owns the warehouse connection and closes it on teardown.
	warehouse := etl.NewSQLWarehouse(db)

	pipeline := etl.NewPipeline(extractor, warehouse, job)
	run, err := pipeline.Run(ctx)
	// The report comes back for failed runs too; print it so the operator
	// can see how far the run got.
	fmt.Println(summarizeRun(run))
	for _, warning := range run.Warnings {
		fmt.Printf("  warning: %s\n", warning)
	}
	return err
}

// summarizeRun renders the one-line report for a finished or failed run.
func summarizeRun(run *etl.PipelineRun) string {
	duration := run.Duration.Round(time.Millisecond)
	if run.State == etl.StateFailed {
		return fmt.Sprintf("Run %s failed after %s: %d rows extracted, %d rows processed, %d rows written to %s in %s",
			run.ID, run.FailedAfter, run.RowsExtracted, run.RowsProcessed,
			run.RowsWritten, run.TargetTable, duration)
	}
	return fmt.Sprintf("Run %s finished: %d rows processed, %d rows added to %s (%d -> %d) in %s",
		run.ID, run.RowsProcessed, run.RowsAdded, run.TargetTable,
		run.InitialCount, run.FinalCount, duration)
}

func runAggregate(opts *RunOptions) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	job, err := loadJob(opts)
	if err != nil {
		return err
	}
	if job.Aggregation == nil {
		return fmt.Errorf("job file does not configure aggregation")
	}

	extractor, cleanup, err := buildExtractor(ctx, job, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	raw, err := extractor.Extract(ctx)
	if err != nil {
		return err
	}

	transformer := etl.NewTransformer()
	cleaned := transformer.Clean(raw)
	result, err := transformer.Aggregate(cleaned, job.Aggregation.GroupBy, job.Aggregation.Aggregations)
	if err != nil {
		return err
	}

	printBatch(result)
	return nil
}

func runCount(table string) error {
	ctx := context.Background()
	warehouse, err := connectWarehouse()
	if err != nil {
		return err
	}
	defer warehouse.Close()

	count, err := warehouse.RowCount(ctx, table)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d rows\n", table, count)
	return nil
}

func runTruncate(table string) error {
	ctx := context.Background()
	warehouse, err := connectWarehouse()
	if err != nil {
		return err
	}
	defer warehouse.Close()

	if err := warehouse.Truncate(ctx, table); err != nil {
		return err
	}
	fmt.Printf("Truncated %s\n", table)
	return nil
}

func runQuery(query string) error {
	ctx := context.Background()
	warehouse, err := connectWarehouse()
	if err != nil {
		return err
	}
	defer warehouse.Close()

	result, err := warehouse.Query(ctx, query)
	if err != nil {
		return err
	}
	printBatch(result)
	return nil
}

func connectWarehouse() (*etl.SQLWarehouse, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	db, err := database.ConnectWarehouse(cfg.WarehouseConnString)
	if err != nil {
		return nil, err
	}
	return etl.NewSQLWarehouse(db), nil
}

func printBatch(b *models.Batch) {
	cols := b.Columns()
	fmt.Println(strings.Join(cols, "\t"))
	for _, rec := range b.Records() {
		parts := make([]string, len(cols))
		for i, col := range cols {
			if rec[col] == nil {
				parts[i] = "NULL"
			} else {
				parts[i] = fmt.Sprintf("%v", rec[col])
			}
		}
		fmt.Println(strings.Join(parts, "\t"))
	}
	fmt.Printf("(%d rows)\n", b.Len())
}
