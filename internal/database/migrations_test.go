package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	t.Run("all tables exist", func(t *testing.T) {
		expectedTables := []string{
			"price_data_daily",
			"sentiment_daily",
			"backtest_runs",
			"backtest_trades",
			"signal_history",
		}

		for _, tableName := range expectedTables {
			var exists bool
			err := testDB.GetRawConn().QueryRow(`
				SELECT EXISTS (
					SELECT FROM information_schema.tables
					WHERE table_schema = 'public'
					AND table_name = $1
				)
			`, tableName).Scan(&exists)

			require.NoError(t, err, "failed to check table existence for %s", tableName)
			assert.True(t, exists, "table %s should exist", tableName)
		}
	})

	t.Run("backtest_runs table has correct columns", func(t *testing.T) {
		expectedColumns := map[string]string{
			"id":              "uuid",
			"strategy_name":   "character varying",
			"position_sizing": "character varying",
			"max_positions":   "integer",
			"symbol":          "character varying",
			"start_date":      "date",
			"end_date":        "date",
			"initial_capital": "numeric",
			"strategy":        "jsonb",
			"sharpe_ratio":    "double precision",
			"total_trades":    "integer",
			"final_equity":    "double precision",
			"created_at":      "timestamp with time zone",
		}

		for colName, expectedType := range expectedColumns {
			var actualType string
			err := testDB.GetRawConn().QueryRow(`
				SELECT data_type
				FROM information_schema.columns
				WHERE table_name = 'backtest_runs' AND column_name = $1
			`, colName).Scan(&actualType)

			require.NoError(t, err, "column %s should exist in backtest_runs table", colName)
			assert.Equal(t, expectedType, actualType, "column %s should have type %s", colName, expectedType)
		}
	})

	t.Run("signal_history table has correct columns", func(t *testing.T) {
		expectedColumns := []string{
			"id", "symbol", "strategy_name", "entry_matched", "exit_matched",
			"entry_email_sent", "exit_email_sent", "checked_at",
		}

		for _, colName := range expectedColumns {
			var exists bool
			err := testDB.GetRawConn().QueryRow(`
				SELECT EXISTS (
					SELECT FROM information_schema.columns
					WHERE table_name = 'signal_history' AND column_name = $1
				)
			`, colName).Scan(&exists)

			require.NoError(t, err)
			assert.True(t, exists, "column %s should exist in signal_history table", colName)
		}
	})

	t.Run("indexes exist", func(t *testing.T) {
		expectedIndexes := []struct {
			table string
			index string
		}{
			{"price_data_daily", "idx_price_data_symbol_date"},
			{"backtest_runs", "idx_backtest_runs_sharpe"},
			{"signal_history", "idx_signal_history_symbol"},
		}

		for _, idx := range expectedIndexes {
			var exists bool
			err := testDB.GetRawConn().QueryRow(`
				SELECT EXISTS (
					SELECT FROM pg_indexes
					WHERE tablename = $1 AND indexname = $2
				)
			`, idx.table, idx.index).Scan(&exists)

			require.NoError(t, err)
			assert.True(t, exists, "index %s should exist on table %s", idx.index, idx.table)
		}
	})

	t.Run("unique constraints exist", func(t *testing.T) {
		for _, table := range []string{"price_data_daily", "sentiment_daily", "backtest_trades"} {
			var unique bool
			err := testDB.GetRawConn().QueryRow(`
				SELECT EXISTS (
					SELECT FROM pg_constraint c
					JOIN pg_class t ON c.conrelid = t.oid
					WHERE t.relname = $1
					AND c.contype = 'u'
				)
			`, table).Scan(&unique)
			require.NoError(t, err)
			assert.True(t, unique, "%s should have a unique constraint", table)
		}
	})

	t.Run("backtest_trades references backtest_runs", func(t *testing.T) {
		var fk bool
		err := testDB.GetRawConn().QueryRow(`
			SELECT EXISTS (
				SELECT FROM pg_constraint c
				JOIN pg_class t ON c.conrelid = t.oid
				WHERE t.relname = 'backtest_trades'
				AND c.contype = 'f'
			)
		`).Scan(&fk)
		require.NoError(t, err)
		assert.True(t, fk, "backtest_trades should have foreign key to backtest_runs")
	})

	t.Run("migrate is idempotent", func(t *testing.T) {
		require.NoError(t, testDB.RunMigrations())
	})
}
