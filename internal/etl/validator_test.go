package etl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BartekS5/WETL/pkg/models"
)

func TestValidate(t *testing.T) {
	tr := NewTransformer()

	t.Run("empty rules pass the batch through unchanged", func(t *testing.T) {
		b := models.NewBatch([]string{"A"}, []models.Record{{"A": int64(1)}})

		out, warnings, err := tr.Validate(b, models.ValidationRules{})

		require.NoError(t, err)
		assert.Empty(t, warnings)
		assert.Same(t, b, out)
	})

	t.Run("missing required columns fail with a SchemaError naming them", func(t *testing.T) {
		b := models.NewBatch([]string{"A", "B"}, []models.Record{{"A": int64(1), "B": int64(2)}})

		_, _, err := tr.Validate(b, models.ValidationRules{
			RequiredColumns: []string{"A", "C"},
		})

		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, []string{"C"}, schemaErr.Missing)
	})

	t.Run("required column names are case-insensitive", func(t *testing.T) {
		b := models.NewBatch([]string{"AMOUNT"}, []models.Record{{"AMOUNT": 1.0}})

		_, _, err := tr.Validate(b, models.ValidationRules{
			RequiredColumns: []string{"amount"},
		})

		require.NoError(t, err)
	})

	t.Run("drops records with nulls in not-null columns", func(t *testing.T) {
		b := models.NewBatch([]string{"ID", "NAME"}, []models.Record{
			{"ID": int64(1), "NAME": "a"},
			{"ID": nil, "NAME": "b"},
			{"ID": int64(3), "NAME": "c"},
			{"ID": int64(4), "NAME": "d"},
		})

		out, warnings, err := tr.Validate(b, models.ValidationRules{
			NotNullColumns: []string{"ID"},
		})

		require.NoError(t, err)
		require.Equal(t, 3, out.Len())
		assert.Equal(t, int64(1), out.Record(0)["ID"])
		assert.Equal(t, int64(3), out.Record(1)["ID"])
		assert.Equal(t, int64(4), out.Record(2)["ID"])
		assert.Len(t, warnings, 1)
	})

	t.Run("a record is dropped if any listed column is null", func(t *testing.T) {
		b := models.NewBatch([]string{"A", "B"}, []models.Record{
			{"A": int64(1), "B": nil},
			{"A": nil, "B": int64(2)},
			{"A": int64(3), "B": int64(4)},
		})

		out, _, err := tr.Validate(b, models.ValidationRules{
			NotNullColumns: []string{"A", "B"},
		})

		require.NoError(t, err)
		require.Equal(t, 1, out.Len())
		assert.Equal(t, int64(3), out.Record(0)["A"])
	})

	t.Run("coerces typed columns", func(t *testing.T) {
		b := models.NewBatch([]string{"AMOUNT", "DATE"}, []models.Record{
			{"AMOUNT": "100.5", "DATE": "2024-01-02"},
		})

		out, warnings, err := tr.Validate(b, models.ValidationRules{
			DataTypes: map[string]string{"AMOUNT": "float", "DATE": "datetime"},
		})

		require.NoError(t, err)
		assert.Empty(t, warnings)
		assert.Equal(t, 100.5, out.Record(0)["AMOUNT"])
		assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), out.Record(0)["DATE"])
	})

	t.Run("a failing column is warned about and left unconverted", func(t *testing.T) {
		b := models.NewBatch([]string{"AMOUNT", "COUNT"}, []models.Record{
			{"AMOUNT": "not-a-number", "COUNT": "7"},
			{"AMOUNT": "1.5", "COUNT": "8"},
		})

		out, warnings, err := tr.Validate(b, models.ValidationRules{
			DataTypes: map[string]string{"AMOUNT": "float", "COUNT": "int"},
		})

		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "AMOUNT")
		// AMOUNT stays a string in every record, COUNT still converts.
		assert.Equal(t, "not-a-number", out.Record(0)["AMOUNT"])
		assert.Equal(t, "1.5", out.Record(1)["AMOUNT"])
		assert.Equal(t, int64(7), out.Record(0)["COUNT"])
		assert.Equal(t, int64(8), out.Record(1)["COUNT"])
	})

	t.Run("typed column missing from schema is a warning, not an error", func(t *testing.T) {
		b := models.NewBatch([]string{"A"}, []models.Record{{"A": int64(1)}})

		out, warnings, err := tr.Validate(b, models.ValidationRules{
			DataTypes: map[string]string{"MISSING": "int"},
		})

		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "MISSING")
		assert.Equal(t, 1, out.Len())
	})

	t.Run("never grows the batch and never changes the schema", func(t *testing.T) {
		b := models.NewBatch([]string{"A", "B"}, []models.Record{
			{"A": int64(1), "B": "x"},
			{"A": nil, "B": "y"},
		})

		out, _, err := tr.Validate(b, models.ValidationRules{
			NotNullColumns: []string{"A"},
			DataTypes:      map[string]string{"B": "string"},
		})

		require.NoError(t, err)
		assert.LessOrEqual(t, out.Len(), b.Len())
		assert.Equal(t, b.Columns(), out.Columns())
	})

	t.Run("does not mutate the input batch", func(t *testing.T) {
		b := models.NewBatch([]string{"A"}, []models.Record{{"A": "5"}})

		_, _, err := tr.Validate(b, models.ValidationRules{
			DataTypes: map[string]string{"A": "int"},
		})

		require.NoError(t, err)
		assert.Equal(t, "5", b.Record(0)["A"])
	})
}
