package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BartekS5/WETL/internal/config"
	"github.com/BartekS5/WETL/internal/etl"
	"github.com/BartekS5/WETL/pkg/database"
	"github.com/BartekS5/WETL/pkg/models"
)

// Requires a reachable warehouse; set WAREHOUSE_CONNECTION_STRING to run.
func TestCSVToWarehouse(t *testing.T) {
	cfg, err := config.LoadConfig()
	if err != nil {
		t.Skip("WAREHOUSE_CONNECTION_STRING not set, skipping integration test")
	}

	db, err := database.ConnectWarehouse(cfg.WarehouseConnString)
	require.NoError(t, err)
	warehouse := etl.NewSQLWarehouse(db)

	const table = "WETL_INTEGRATION_TEST"
	ctx := context.Background()
	t.Cleanup(func() {
		cleanupDB, err := database.ConnectWarehouse(cfg.WarehouseConnString)
		if err != nil {
			return
		}
		defer cleanupDB.Close()
		_, _ = cleanupDB.ExecContext(ctx, "DROP TABLE IF EXISTS "+table)
	})

	path := filepath.Join(t.TempDir(), "transactions.csv")
	content := "transaction_id,amount,customer_name\n" +
		"1,100.50,  John Doe  \n" +
		"2,200.75,Jane Smith\n" +
		"2,200.75,Jane Smith\n" +
		"3,,Bob Johnson\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	job := &models.Job{
		SourcePath:  path,
		SourceType:  "csv",
		TargetTable: table,
		LoadMode:    models.LoadModeAppend,
		Validation: models.ValidationRules{
			RequiredColumns: []string{"TRANSACTION_ID", "AMOUNT"},
			NotNullColumns:  []string{"AMOUNT"},
			DataTypes:       map[string]string{"AMOUNT": "float"},
		},
	}

	extractor := &etl.CSVExtractor{Path: path}
	run, err := etl.NewPipeline(extractor, warehouse, job).Run(ctx)
	require.NoError(t, err)

	// 4 raw rows, one duplicate, one null amount: 2 survive.
	assert.Equal(t, etl.StateDone, run.State)
	assert.Equal(t, 4, run.RowsExtracted)
	assert.Equal(t, 2, run.RowsProcessed)
	assert.Equal(t, 2, run.RowsAdded)

	verifyDB, err := database.ConnectWarehouse(cfg.WarehouseConnString)
	require.NoError(t, err)
	verify := etl.NewSQLWarehouse(verifyDB)
	defer verify.Close()

	count, err := verify.RowCount(ctx, table)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	result, err := verify.Query(ctx, "SELECT [CUSTOMER_NAME] FROM "+table+" ORDER BY [TRANSACTION_ID]")
	require.NoError(t, err)
	require.Equal(t, 2, result.Len())
	assert.Equal(t, "John Doe", result.Record(0)["CUSTOMER_NAME"])
}

// A headered but row-less source is valid input: the run must create the
// target table and finish with zero rows added.
func TestEmptySourceCreatesTable(t *testing.T) {
	cfg, err := config.LoadConfig()
	if err != nil {
		t.Skip("WAREHOUSE_CONNECTION_STRING not set, skipping integration test")
	}

	db, err := database.ConnectWarehouse(cfg.WarehouseConnString)
	require.NoError(t, err)
	warehouse := etl.NewSQLWarehouse(db)

	const table = "WETL_INTEGRATION_EMPTY_TEST"
	ctx := context.Background()
	t.Cleanup(func() {
		cleanupDB, err := database.ConnectWarehouse(cfg.WarehouseConnString)
		if err != nil {
			return
		}
		defer cleanupDB.Close()
		_, _ = cleanupDB.ExecContext(ctx, "DROP TABLE IF EXISTS "+table)
	})

	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, []byte("transaction_id,amount\n"), 0644))

	job := &models.Job{
		SourcePath:  path,
		SourceType:  "csv",
		TargetTable: table,
		LoadMode:    models.LoadModeAppend,
	}

	run, err := etl.NewPipeline(&etl.CSVExtractor{Path: path}, warehouse, job).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, etl.StateDone, run.State)
	assert.Equal(t, 0, run.RowsAdded)

	verifyDB, err := database.ConnectWarehouse(cfg.WarehouseConnString)
	require.NoError(t, err)
	verify := etl.NewSQLWarehouse(verifyDB)
	defer verify.Close()

	count, err := verify.RowCount(ctx, table)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
