package etl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BartekS5/WETL/pkg/logger"
	"github.com/BartekS5/WETL/pkg/models"
)

// RunState is the pipeline's position in the run lifecycle.
type RunState string

const (
	StateInit      RunState = "INIT"
	StateExtracted RunState = "EXTRACTED"
	StateCleaned   RunState = "CLEANED"
	StateValidated RunState = "VALIDATED"
	StateEnriched  RunState = "ENRICHED"
	StateLoaded    RunState = "LOADED"
	StateVerified  RunState = "VERIFIED"
	StateDone      RunState = "DONE"
	StateFailed    RunState = "FAILED"
)

// Source kinds the pipeline accepts. Anything else is a ConfigError raised
// before any collaborator is invoked.
var supportedSources = map[string]struct{}{
	"csv":   {},
	"json":  {},
	"api":   {},
	"dir":   {},
	"mongo": {},
}

// SupportedSource reports whether the pipeline knows the source kind.
func SupportedSource(kind string) bool {
	_, ok := supportedSources[kind]
	return ok
}

// PipelineRun covers one pipeline invocation: the source descriptor, the
// target, and the counts accumulated for the final reconciliation report.
// It lives for the duration of the run and is never persisted.
type PipelineRun struct {
	ID          string
	SourcePath  string
	SourceType  string
	TargetTable string
	State       RunState

	// FailedAfter holds the last state reached before a failed run was moved
	// to FAILED; empty for successful runs.
	FailedAfter RunState

	RowsExtracted int
	RowsProcessed int
	RowsWritten   int
	InitialCount  int
	FinalCount    int
	RowsAdded     int

	Warnings  []string
	StartedAt time.Time
	Duration  time.Duration
}

// Pipeline sequences Extract -> Transform -> Load for one run. It owns the
// warehouse connection for the run's duration and always releases it during
// teardown, whether the run succeeds or fails.
type Pipeline struct {
	extractor   Extractor
	warehouse   Warehouse
	transformer *Transformer
	job         *models.Job
}

func NewPipeline(extractor Extractor, warehouse Warehouse, job *models.Job) *Pipeline {
	return &Pipeline{
		extractor:   extractor,
		warehouse:   warehouse,
		transformer: NewTransformer(),
		job:         job,
	}
}

// Run executes the full sequence and returns the run report. Any stage error
// drives the run to FAILED and is returned to the caller; errors are never
// retried here. The report is returned in both cases so the caller can see
// how far the run got.
func (p *Pipeline) Run(ctx context.Context) (run *PipelineRun, err error) {
	run = &PipelineRun{
		ID:          uuid.NewString(),
		SourcePath:  p.job.SourcePath,
		SourceType:  p.job.SourceType,
		TargetTable: p.job.TargetTable,
		State:       StateInit,
		StartedAt:   time.Now(),
	}

	defer func() {
		run.Duration = time.Since(run.StartedAt)
		if cerr := p.warehouse.Close(); cerr != nil {
			logger.Warnf("run %s: closing warehouse connection: %v", run.ID, cerr)
		}
		if err != nil {
			logger.Errorf("run %s failed after state %s: %v", run.ID, run.State, err)
			run.FailedAfter = run.State
			run.State = StateFailed
		}
	}()

	if err = p.checkConfig(); err != nil {
		return run, err
	}

	logger.Infof("run %s: %s (%s) -> %s", run.ID, p.job.SourcePath, p.job.SourceType, p.job.TargetTable)

	// EXTRACT
	raw, err := p.extractor.Extract(ctx)
	if err != nil {
		return run, err
	}
	run.State = StateExtracted
	run.RowsExtracted = raw.Len()
	logger.Infof("run %s: extracted %d records", run.ID, raw.Len())

	// CLEAN
	batch := p.transformer.Clean(raw)
	run.State = StateCleaned

	// VALIDATE, only when rules are configured.
	if !p.job.Validation.Empty() {
		validated, warnings, verr := p.transformer.Validate(batch, p.job.Validation)
		if verr != nil {
			return run, verr
		}
		batch = validated
		run.Warnings = warnings
		run.State = StateValidated
	}

	// ENRICH
	batch = p.transformer.Enrich(batch)
	run.State = StateEnriched
	run.RowsProcessed = batch.Len()

	// LOAD. A missing table means a first run: initial count is zero.
	initial, cerr := p.warehouse.RowCount(ctx, p.job.TargetTable)
	if cerr != nil {
		var notFound *TableNotFoundError
		if !errors.As(cerr, &notFound) {
			return run, cerr
		}
		logger.Infof("run %s: table %s does not exist yet", run.ID, p.job.TargetTable)
		initial = 0
	}
	run.InitialCount = initial

	written, err := p.warehouse.Write(ctx, batch, p.job.TargetTable, WriteOptions{
		CreateIfMissing: true,
		Overwrite:       p.job.LoadMode == models.LoadModeReplace,
	})
	if err != nil {
		return run, err
	}
	run.State = StateLoaded
	run.RowsWritten = written

	// VERIFY: approximate reconciliation, assumes no concurrent writers.
	final, err := p.warehouse.RowCount(ctx, p.job.TargetTable)
	if err != nil {
		return run, err
	}
	run.FinalCount = final
	run.RowsAdded = final - run.InitialCount
	run.State = StateVerified

	run.State = StateDone
	logger.Infof("run %s: done, %d rows processed, %d rows added to %s (%d -> %d) in %s",
		run.ID, run.RowsProcessed, run.RowsAdded, p.job.TargetTable,
		run.InitialCount, run.FinalCount, time.Since(run.StartedAt).Round(time.Millisecond))
	return run, nil
}

// checkConfig rejects unsupported configuration before any I/O happens.
func (p *Pipeline) checkConfig() error {
	if !SupportedSource(p.job.SourceType) {
		return &ConfigError{Reason: fmt.Sprintf("unsupported source type %q", p.job.SourceType)}
	}
	switch p.job.LoadMode {
	case "", models.LoadModeAppend, models.LoadModeReplace:
	default:
		return &ConfigError{Reason: fmt.Sprintf("unsupported load mode %q", p.job.LoadMode)}
	}
	if p.job.TargetTable == "" {
		return &ConfigError{Reason: "no target table configured"}
	}
	return nil
}
