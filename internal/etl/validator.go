package etl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BartekS5/WETL/pkg/logger"
	"github.com/BartekS5/WETL/pkg/models"
	"github.com/BartekS5/WETL/pkg/utils"
)

// Validate applies the configured rules to a cleaned Batch.
//
// Required columns are checked once against the schema; any missing name
// aborts with a SchemaError. Records with a null in one of the not-null
// columns are dropped (a row-level filter, not an error). Type coercion is
// attempted per column and is all-or-nothing for that column: a failure is
// reported as a warning and the column is left unconverted, without blocking
// the other columns.
//
// Soft outcomes are returned in the warnings slice; errors are reserved for
// the fatal cases.
func (t *Transformer) Validate(b *models.Batch, rules models.ValidationRules) (*models.Batch, []string, error) {
	if rules.Empty() {
		return b, nil, nil
	}

	// Rule names are case-insensitive; the cleaned schema is uppercase.
	required := upperAll(rules.RequiredColumns)
	notNull := upperAll(rules.NotNullColumns)

	var missing []string
	for _, col := range required {
		if !b.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, nil, &SchemaError{Missing: missing}
	}

	var warnings []string

	// Not-null names outside the schema cannot match any value; skip them
	// instead of dropping every record.
	present := notNull[:0]
	for _, col := range notNull {
		if !b.HasColumn(col) {
			msg := fmt.Sprintf("not-null column %s not in schema, skipping", col)
			logger.Warnf("validate: %s", msg)
			warnings = append(warnings, msg)
			continue
		}
		present = append(present, col)
	}
	notNull = present

	records := make([]models.Record, 0, b.Len())
	for _, rec := range b.Records() {
		if hasNull(rec, notNull) {
			continue
		}
		records = append(records, rec)
	}
	if dropped := b.Len() - len(records); dropped > 0 {
		msg := fmt.Sprintf("dropped %d records with nulls in not-null columns", dropped)
		logger.Warnf("validate: %s", msg)
		warnings = append(warnings, msg)
	}

	// Deterministic column order for the coercion pass.
	typed := make([]string, 0, len(rules.DataTypes))
	targets := make(map[string]string, len(rules.DataTypes))
	for col, target := range rules.DataTypes {
		upper := strings.ToUpper(col)
		typed = append(typed, upper)
		targets[upper] = target
	}
	sort.Strings(typed)

	for _, col := range typed {
		target := targets[col]
		if !b.HasColumn(col) {
			msg := fmt.Sprintf("cannot convert %s to %s: column not in schema", col, target)
			logger.Warnf("validate: %s", msg)
			warnings = append(warnings, msg)
			continue
		}
		converted, err := coerceColumn(records, col, target)
		if err != nil {
			msg := fmt.Sprintf("cannot convert %s to %s: %v", col, target, err)
			logger.Warnf("validate: %s", msg)
			warnings = append(warnings, msg)
			continue
		}
		records = converted
	}

	return models.NewBatch(b.Columns(), records), warnings, nil
}

// coerceColumn converts one column in every record to the target type. The
// input records are not modified; on the first failing value the whole
// column is abandoned.
func coerceColumn(records []models.Record, col, target string) ([]models.Record, error) {
	out := make([]models.Record, len(records))
	for i, rec := range records {
		val, err := utils.Coerce(rec[col], target)
		if err != nil {
			return nil, err
		}
		row := rec.Clone()
		row[col] = val
		out[i] = row
	}
	return out, nil
}

func hasNull(rec models.Record, cols []string) bool {
	for _, col := range cols {
		if rec[col] == nil {
			return true
		}
	}
	return false
}

func upperAll(names []string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = strings.ToUpper(name)
	}
	return out
}
