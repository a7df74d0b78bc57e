package etl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BartekS5/WETL/pkg/models"
)

func salesBatch() *models.Batch {
	return models.NewBatch([]string{"REGION", "AMOUNT", "ITEM"}, []models.Record{
		{"REGION": "north", "AMOUNT": 10.0, "ITEM": "a"},
		{"REGION": "north", "AMOUNT": 30.0, "ITEM": "b"},
		{"REGION": "south", "AMOUNT": 5.0, "ITEM": "c"},
	})
}

func TestAggregate(t *testing.T) {
	tr := NewTransformer()

	t.Run("one output record per distinct group key", func(t *testing.T) {
		out, err := tr.Aggregate(salesBatch(), []string{"REGION"}, map[string]string{"AMOUNT": "sum"})

		require.NoError(t, err)
		require.Equal(t, 2, out.Len())
		assert.Equal(t, []string{"REGION", "AMOUNT"}, out.Columns())
		assert.Equal(t, "north", out.Record(0)["REGION"])
		assert.Equal(t, 40.0, out.Record(0)["AMOUNT"])
		assert.Equal(t, "south", out.Record(1)["REGION"])
		assert.Equal(t, 5.0, out.Record(1)["AMOUNT"])
	})

	t.Run("mean, min, max and count", func(t *testing.T) {
		cases := []struct {
			fn   string
			want interface{}
		}{
			{"mean", 20.0},
			{"avg", 20.0},
			{"min", 10.0},
			{"max", 30.0},
			{"count", int64(2)},
		}
		for _, tc := range cases {
			out, err := tr.Aggregate(salesBatch(), []string{"REGION"}, map[string]string{"AMOUNT": tc.fn})
			require.NoError(t, err, tc.fn)
			assert.Equal(t, tc.want, out.Record(0)["AMOUNT"], tc.fn)
		}
	})

	t.Run("count ignores nulls", func(t *testing.T) {
		b := models.NewBatch([]string{"G", "V"}, []models.Record{
			{"G": "x", "V": 1.0},
			{"G": "x", "V": nil},
		})

		out, err := tr.Aggregate(b, []string{"G"}, map[string]string{"V": "count"})

		require.NoError(t, err)
		assert.Equal(t, int64(1), out.Record(0)["V"])
	})

	t.Run("unknown group-by column fails", func(t *testing.T) {
		_, err := tr.Aggregate(salesBatch(), []string{"NOPE"}, map[string]string{"AMOUNT": "sum"})

		var aggErr *AggregationError
		require.ErrorAs(t, err, &aggErr)
	})

	t.Run("unknown aggregation column fails", func(t *testing.T) {
		_, err := tr.Aggregate(salesBatch(), []string{"REGION"}, map[string]string{"NOPE": "sum"})

		var aggErr *AggregationError
		require.ErrorAs(t, err, &aggErr)
	})

	t.Run("unknown aggregation function fails", func(t *testing.T) {
		_, err := tr.Aggregate(salesBatch(), []string{"REGION"}, map[string]string{"AMOUNT": "median"})

		var aggErr *AggregationError
		require.ErrorAs(t, err, &aggErr)
	})

	t.Run("numeric functions reject non-numeric columns", func(t *testing.T) {
		_, err := tr.Aggregate(salesBatch(), []string{"REGION"}, map[string]string{"ITEM": "sum"})

		var aggErr *AggregationError
		require.ErrorAs(t, err, &aggErr)
	})

	t.Run("count works on non-numeric columns", func(t *testing.T) {
		out, err := tr.Aggregate(salesBatch(), []string{"REGION"}, map[string]string{"ITEM": "count"})

		require.NoError(t, err)
		assert.Equal(t, int64(2), out.Record(0)["ITEM"])
	})

	t.Run("group-by over multiple columns", func(t *testing.T) {
		b := models.NewBatch([]string{"A", "B", "V"}, []models.Record{
			{"A": "x", "B": int64(1), "V": 1.0},
			{"A": "x", "B": int64(2), "V": 2.0},
			{"A": "x", "B": int64(1), "V": 3.0},
		})

		out, err := tr.Aggregate(b, []string{"A", "B"}, map[string]string{"V": "sum"})

		require.NoError(t, err)
		require.Equal(t, 2, out.Len())
		assert.Equal(t, 4.0, out.Record(0)["V"])
		assert.Equal(t, 2.0, out.Record(1)["V"])
	})
}
