package etl

import (
	"context"

	"github.com/BartekS5/WETL/pkg/models"
)

// Extractor produces the raw batch for a run. Implementations wrap their
// underlying cause in an ExtractionError.
type Extractor interface {
	Extract(ctx context.Context) (*models.Batch, error)
}

// WriteOptions controls how a batch is written to the warehouse.
type WriteOptions struct {
	// CreateIfMissing creates the target table from the batch schema when it
	// does not exist yet.
	CreateIfMissing bool
	// Overwrite clears the table before writing instead of appending.
	Overwrite bool
}

// Warehouse is the sink collaborator contract. Writes are all-or-nothing per
// call: a failed Write leaves no partial batch visible.
type Warehouse interface {
	// RowCount returns the current number of rows in the table, or a
	// TableNotFoundError if the table does not exist.
	RowCount(ctx context.Context, table string) (int, error)

	// Write appends (or replaces) the batch and returns the rows written.
	// Failures are reported as a LoadError.
	Write(ctx context.Context, batch *models.Batch, table string, opts WriteOptions) (int, error)

	// Query runs an ad-hoc read query and returns the result as a Batch.
	Query(ctx context.Context, query string) (*models.Batch, error)

	// Truncate removes all rows from the table.
	Truncate(ctx context.Context, table string) error

	// Close releases the underlying connection.
	Close() error
}
