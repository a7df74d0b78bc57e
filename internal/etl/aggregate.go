package etl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BartekS5/WETL/pkg/logger"
	"github.com/BartekS5/WETL/pkg/models"
	"github.com/BartekS5/WETL/pkg/utils"
)

// Aggregation functions. sum, mean, min and max require numeric columns;
// count tallies non-null values of any type.
const (
	AggSum   = "sum"
	AggMean  = "mean"
	AggCount = "count"
	AggMin   = "min"
	AggMax   = "max"
)

// Aggregate groups the batch by the given columns and applies one
// aggregation function per listed column. The output has one record per
// distinct group key, with schema group-by columns + aggregated columns.
// Not part of the default pipeline sequence; exposed as an on-demand
// operation.
func (t *Transformer) Aggregate(b *models.Batch, groupBy []string, aggregations map[string]string) (*models.Batch, error) {
	if len(groupBy) == 0 {
		return nil, &AggregationError{Reason: "no group-by columns given"}
	}
	if len(aggregations) == 0 {
		return nil, &AggregationError{Reason: "no aggregations given"}
	}

	groupBy = upperAll(groupBy)
	for _, col := range groupBy {
		if !b.HasColumn(col) {
			return nil, &AggregationError{Reason: fmt.Sprintf("group-by column %s not in schema", col)}
		}
	}

	// Deterministic output order for the aggregated columns.
	aggCols := make([]string, 0, len(aggregations))
	aggFns := make(map[string]string, len(aggregations))
	for col, fn := range aggregations {
		upper := strings.ToUpper(col)
		fn = strings.ToLower(fn)
		if fn == "avg" {
			fn = AggMean
		}
		switch fn {
		case AggSum, AggMean, AggCount, AggMin, AggMax:
		default:
			return nil, &AggregationError{Reason: fmt.Sprintf("unknown aggregation function %q", fn)}
		}
		if !b.HasColumn(upper) {
			return nil, &AggregationError{Reason: fmt.Sprintf("aggregation column %s not in schema", upper)}
		}
		aggCols = append(aggCols, upper)
		aggFns[upper] = fn
	}
	sort.Strings(aggCols)

	// Group records, preserving first-seen key order.
	var order []string
	groups := make(map[string][]models.Record)
	for _, rec := range b.Records() {
		key := fingerprint(rec, groupBy)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], rec)
	}

	records := make([]models.Record, 0, len(order))
	for _, key := range order {
		members := groups[key]
		row := make(models.Record, len(groupBy)+len(aggCols))
		for _, col := range groupBy {
			row[col] = members[0][col]
		}
		for _, col := range aggCols {
			val, err := aggregateColumn(members, col, aggFns[col])
			if err != nil {
				return nil, err
			}
			row[col] = val
		}
		records = append(records, row)
	}

	logger.Infof("aggregate: %d records grouped into %d", b.Len(), len(records))
	return models.NewBatch(append(groupBy, aggCols...), records), nil
}

// aggregateColumn folds one column of a group. Nulls are ignored; a group
// with only nulls yields nil for sum/mean/min/max and 0 for count.
func aggregateColumn(members []models.Record, col, fn string) (interface{}, error) {
	if fn == AggCount {
		count := int64(0)
		for _, rec := range members {
			if rec[col] != nil {
				count++
			}
		}
		return count, nil
	}

	var values []float64
	for _, rec := range members {
		val := rec[col]
		if val == nil {
			continue
		}
		num, ok := utils.Numeric(val)
		if !ok {
			return nil, &AggregationError{Reason: fmt.Sprintf("%s requires a numeric column, %s has %T", fn, col, val)}
		}
		values = append(values, num)
	}
	if len(values) == 0 {
		return nil, nil
	}

	switch fn {
	case AggSum, AggMean:
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		if fn == AggSum {
			return sum, nil
		}
		return sum / float64(len(values)), nil
	case AggMin:
		min := values[0]
		for _, v := range values[1:] {
			if v < min {
				min = v
			}
		}
		return min, nil
	case AggMax:
		max := values[0]
		for _, v := range values[1:] {
			if v > max {
				max = v
			}
		}
		return max, nil
	}
	return nil, &AggregationError{Reason: fmt.Sprintf("unknown aggregation function %q", fn)}
}
