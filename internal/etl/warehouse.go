package etl

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/BartekS5/WETL/pkg/logger"
	"github.com/BartekS5/WETL/pkg/models"
)

// SQLWarehouse implements the Warehouse contract over database/sql with the
// mssql driver. Writes run inside a single transaction, so a failed call
// leaves no partial batch visible.
type SQLWarehouse struct {
	db *sql.DB
}

func NewSQLWarehouse(db *sql.DB) *SQLWarehouse {
	return &SQLWarehouse{db: db}
}

func (w *SQLWarehouse) tableExists(ctx context.Context, table string) (bool, error) {
	var count int
	err := w.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_NAME = @p1", table,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (w *SQLWarehouse) RowCount(ctx context.Context, table string) (int, error) {
	exists, err := w.tableExists(ctx, table)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, &TableNotFoundError{Table: table}
	}

	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(table))
	if err := w.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (w *SQLWarehouse) Write(ctx context.Context, batch *models.Batch, table string, opts WriteOptions) (int, error) {
	// A schema-less batch can neither create a table nor write rows.
	if batch.Len() == 0 && len(batch.Columns()) == 0 {
		return 0, nil
	}

	exists, err := w.tableExists(ctx, table)
	if err != nil {
		return 0, &LoadError{Table: table, Err: err}
	}
	if !exists && !opts.CreateIfMissing {
		return 0, &LoadError{Table: table, Err: &TableNotFoundError{Table: table}}
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &LoadError{Table: table, Err: err}
	}
	defer tx.Rollback()

	// The table is created even for an empty batch, so a valid empty source
	// still leaves a countable table behind.
	if !exists {
		if _, err := tx.ExecContext(ctx, createTableDDL(batch, table)); err != nil {
			return 0, &LoadError{Table: table, Err: err}
		}
		logger.Infof("created table %s", table)
	} else if opts.Overwrite {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", quoteIdent(table))); err != nil {
			return 0, &LoadError{Table: table, Err: err}
		}
	}

	if batch.Len() > 0 {
		if err := insertRecords(ctx, tx, table, batch.Columns(), batch.Records()); err != nil {
			return 0, &LoadError{Table: table, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, &LoadError{Table: table, Err: err}
	}
	logger.Infof("wrote %d rows to %s", batch.Len(), table)
	return batch.Len(), nil
}

func (w *SQLWarehouse) Query(ctx context.Context, query string) (*models.Batch, error) {
	rows, err := w.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var records []models.Record
	for rows.Next() {
		values := make([]interface{}, len(cols))
		pointers := make([]interface{}, len(cols))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}
		rec := make(models.Record, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				rec[col] = string(b)
			} else {
				rec[col] = values[i]
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return models.NewBatch(cols, records), nil
}

func (w *SQLWarehouse) Truncate(ctx context.Context, table string) error {
	exists, err := w.tableExists(ctx, table)
	if err != nil {
		return err
	}
	if !exists {
		return &TableNotFoundError{Table: table}
	}
	if _, err := w.db.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s", quoteIdent(table))); err != nil {
		return err
	}
	logger.Infof("truncated table %s", table)
	return nil
}

func (w *SQLWarehouse) Close() error {
	return w.db.Close()
}

// insertRecords writes the records with multi-row INSERT statements, chunked
// to stay under the driver's parameter limit.
func insertRecords(ctx context.Context, tx *sql.Tx, table string, cols []string, records []models.Record) error {
	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = quoteIdent(col)
	}

	// mssql caps a statement at 2100 parameters.
	chunk := 2000 / len(cols)
	if chunk < 1 {
		chunk = 1
	}

	for start := 0; start < len(records); start += chunk {
		end := start + chunk
		if end > len(records) {
			end = len(records)
		}
		part := records[start:end]

		var sb strings.Builder
		fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", quoteIdent(table), strings.Join(quoted, ", "))
		args := make([]interface{}, 0, len(part)*len(cols))
		for i, rec := range part {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(")
			for j, col := range cols {
				if j > 0 {
					sb.WriteString(", ")
				}
				fmt.Fprintf(&sb, "@p%d", len(args)+1)
				args = append(args, rec[col])
			}
			sb.WriteString(")")
		}

		if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
			return err
		}
	}
	return nil
}

// createTableDDL builds a CREATE TABLE statement with column types inferred
// from the batch values.
func createTableDDL(batch *models.Batch, table string) string {
	cols := batch.Columns()
	defs := make([]string, len(cols))
	for i, col := range cols {
		defs[i] = fmt.Sprintf("%s %s", quoteIdent(col), inferSQLType(batch, col))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
}

// inferSQLType picks a column type from the first non-null value. Mixed or
// all-null columns fall back to NVARCHAR(MAX).
func inferSQLType(batch *models.Batch, col string) string {
	for _, rec := range batch.Records() {
		switch rec[col].(type) {
		case nil:
			continue
		case int, int32, int64:
			return "BIGINT"
		case float32, float64:
			return "FLOAT"
		case bool:
			return "BIT"
		case time.Time:
			return "DATETIME2"
		default:
			return "NVARCHAR(MAX)"
		}
	}
	return "NVARCHAR(MAX)"
}

func quoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}
