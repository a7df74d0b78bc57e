package etl

import (
	"fmt"
	"strings"
)

// ConfigError reports a bad or unsupported run configuration. It is raised
// before any I/O collaborator is invoked.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Reason
}

// ExtractionError wraps a failure while producing the raw batch from a
// source (file not found, malformed content, network failure).
type ExtractionError struct {
	Source string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction from %s failed: %v", e.Source, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// SchemaError reports required columns missing from the batch schema. It is
// batch-wide and fatal for the run.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

// AggregationError reports a bad aggregation request: unknown field, unknown
// function, or numeric semantics applied to a non-numeric column.
type AggregationError struct {
	Reason string
}

func (e *AggregationError) Error() string {
	return "aggregation error: " + e.Reason
}

// LoadError wraps a failure while writing a batch to the warehouse.
type LoadError struct {
	Table string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load into %s failed: %v", e.Table, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// TableNotFoundError is returned by row-count queries against a table that
// does not exist yet. The pipeline treats it as "initial count is zero",
// not as a failure.
type TableNotFoundError struct {
	Table string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("table %s does not exist", e.Table)
}
