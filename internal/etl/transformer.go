package etl

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/BartekS5/WETL/pkg/logger"
	"github.com/BartekS5/WETL/pkg/models"
)

// Columns added by the enrichment stage.
const (
	ColumnProcessedAt  = "PROCESSED_AT"
	ColumnQualityScore = "DATA_QUALITY_SCORE"
)

// Transformer applies deterministic, side-effect-free transformations to a
// Batch. Every operation returns a new Batch and leaves its input untouched.
type Transformer struct {
	now func() time.Time
}

func NewTransformer() *Transformer {
	return &Transformer{now: time.Now}
}

// Clean normalizes column names to uppercase (warehouse naming convention),
// trims whitespace from string values and drops exact-duplicate records.
// Clean is idempotent: running it twice yields the same Batch.
func (t *Transformer) Clean(b *models.Batch) *models.Batch {
	cols := b.Columns()
	upper := make([]string, len(cols))
	for i, col := range cols {
		upper[i] = strings.ToUpper(col)
	}

	seen := make(map[string]struct{}, b.Len())
	records := make([]models.Record, 0, b.Len())
	for _, rec := range b.Records() {
		row := make(models.Record, len(upper))
		for i, col := range cols {
			val := rec[col]
			if s, ok := val.(string); ok {
				val = strings.TrimSpace(s)
			}
			row[upper[i]] = val
		}
		key := fingerprint(row, upper)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		records = append(records, row)
	}

	if removed := b.Len() - len(records); removed > 0 {
		logger.Infof("clean: removed %d duplicate records", removed)
	}
	return models.NewBatch(upper, records)
}

// Enrich adds PROCESSED_AT (one timestamp for the whole batch, taken when
// enrichment runs) and DATA_QUALITY_SCORE (completeness percentage of the
// record's pre-enrichment fields). Record count is preserved.
func (t *Transformer) Enrich(b *models.Batch) *models.Batch {
	processedAt := t.now().UTC()
	cols := b.Columns()
	outCols := append(b.Columns(), ColumnProcessedAt, ColumnQualityScore)

	records := make([]models.Record, 0, b.Len())
	for _, rec := range b.Records() {
		row := rec.Clone()
		row[ColumnProcessedAt] = processedAt
		row[ColumnQualityScore] = qualityScore(rec, cols)
		records = append(records, row)
	}
	return models.NewBatch(outCols, records)
}

// qualityScore is the percentage of non-null fields in the record, rounded
// to two decimals. A completeness proxy, not a semantic quality measure.
func qualityScore(rec models.Record, cols []string) float64 {
	if len(cols) == 0 {
		return 0
	}
	nonNull := 0
	for _, col := range cols {
		if rec[col] != nil {
			nonNull++
		}
	}
	score := float64(nonNull) / float64(len(cols)) * 100
	return math.Round(score*100) / 100
}

// fingerprint builds a duplicate-detection key from the record's values in
// column order.
func fingerprint(rec models.Record, cols []string) string {
	var sb strings.Builder
	for _, col := range cols {
		fmt.Fprintf(&sb, "%#v\x1f", rec[col])
	}
	return sb.String()
}
