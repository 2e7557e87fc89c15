package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/toff/internal/booking"
	"github.com/rustyeddy/toff/journal"
)

func run(args ...string) error {
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestTradeWorkflow(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.sqlite")

	require.NoError(t, run("--db", db, "ticker", "add", "aapl", "--name", "Apple"))
	require.NoError(t, run("--db", db, "trade", "add", "AAPL", "buy", "10", "--date", "2024-01-01"))

	err := run("--db", db, "trade", "add", "AAPL", "sell", "15", "--date", "2024-01-02")
	require.ErrorIs(t, err, booking.ErrInsufficientHoldings)

	require.NoError(t, run("--db", db, "--policy", "warn", "trade", "add", "AAPL", "sell", "15", "--date", "2024-01-02"))
	assert.Error(t, run("--db", db, "--policy", "block", "audit"))

	store, err := journal.NewSQLite(db)
	require.NoError(t, err)
	defer store.Close()

	trades, err := store.ListTrades(context.Background())
	require.NoError(t, err)
	assert.Len(t, trades, 2)
}

func TestCSVExportImport(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.sqlite")
	dst := filepath.Join(dir, "dst.sqlite")
	file := filepath.Join(dir, "trades.csv")

	require.NoError(t, run("--db", src, "--policy", "block", "ticker", "add", "MSFT"))
	require.NoError(t, run("--db", src, "trade", "add", "MSFT", "buy", "3", "--date", "2024-02-01"))
	require.NoError(t, run("--db", src, "trade", "add", "MSFT", "sell", "1", "--date", "2024-02-02"))
	require.NoError(t, run("--db", src, "csv", "export", file))

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "MSFT,sell,1")

	require.NoError(t, run("--db", dst, "csv", "import", file))
	require.NoError(t, run("--db", dst, "audit"))
}

func TestConfigInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toff.yaml")
	require.NoError(t, run("config", "init", "-o", path))
	require.NoError(t, run("config", "validate", "-f", path))
}
