package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/toff/ledger"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	return j, path
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('trades','tickers')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		assert.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	assert.NoError(t, rows.Err())

	assert.True(t, found["trades"])
	assert.True(t, found["tickers"])
}

func TestSQLiteTradeRoundTrip(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	ctx := context.Background()

	rec := ledger.Trade{
		ID:       "T1",
		TickerID: "AAPL-ID",
		Side:     ledger.Sell,
		Quantity: 123.456,
		Price:    187.25,
		Fee:      1.5,
		Date:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Note:     "trim",
	}
	require.NoError(t, j.SaveTrade(ctx, rec))

	got, err := j.GetTrade(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.TickerID, got.TickerID)
	assert.Equal(t, ledger.Sell, got.Side)
	assert.InDelta(t, rec.Quantity, got.Quantity, 1e-9)
	assert.InDelta(t, rec.Price, got.Price, 1e-9)
	assert.InDelta(t, rec.Fee, got.Fee, 1e-9)
	assert.True(t, got.Date.Equal(rec.Date))
	assert.Equal(t, rec.Note, got.Note)

	// Saving again replaces.
	rec.Quantity = 1
	rec.Side = ledger.Buy
	require.NoError(t, j.SaveTrade(ctx, rec))
	got, err = j.GetTrade(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, ledger.Buy, got.Side)
	assert.InDelta(t, 1, got.Quantity, 1e-9)

	all, err := j.ListTrades(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLiteNotFound(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	ctx := context.Background()

	_, err := j.GetTrade(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, j.DeleteTrade(ctx, "nope"), ErrNotFound)

	_, err = j.TickerBySymbol(ctx, "NOPE")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = j.GetTicker(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteListOrderAndFilter(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	ctx := context.Background()

	d := func(day int) time.Time { return time.Date(2024, 3, day, 9, 30, 0, 0, time.UTC) }
	trades := []ledger.Trade{
		{ID: "C", TickerID: "A", Side: ledger.Sell, Quantity: 1, Date: d(3)},
		{ID: "B", TickerID: "A", Side: ledger.Buy, Quantity: 2, Date: d(1)},
		{ID: "A", TickerID: "A", Side: ledger.Buy, Quantity: 3, Date: d(1)},
		{ID: "X", TickerID: "M", Side: ledger.Buy, Quantity: 4, Date: d(2)},
	}
	require.NoError(t, j.SaveTrades(ctx, trades))

	all, err := j.ListTrades(ctx)
	require.NoError(t, err)
	var ids []string
	for _, tr := range all {
		ids = append(ids, tr.ID)
	}
	assert.Equal(t, []string{"A", "B", "X", "C"}, ids)

	mine, err := j.ListTradesByTicker(ctx, "A")
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	require.NoError(t, j.DeleteTrade(ctx, "B"))
	mine, err = j.ListTradesByTicker(ctx, "A")
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestSQLiteTickers(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, j.SaveTicker(ctx, ledger.Ticker{ID: "2", Symbol: "MSFT", Name: "Microsoft"}))
	require.NoError(t, j.SaveTicker(ctx, ledger.Ticker{ID: "1", Symbol: "AAPL"}))

	got, err := j.TickerBySymbol(ctx, "MSFT")
	require.NoError(t, err)
	assert.Equal(t, "2", got.ID)
	assert.Equal(t, "Microsoft", got.Name)

	got, err = j.GetTicker(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", got.Symbol)

	list, err := j.ListTickers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "AAPL", list[0].Symbol)

	// Symbols are unique.
	assert.Error(t, j.SaveTicker(ctx, ledger.Ticker{ID: "3", Symbol: "AAPL"}))
}

func TestSQLiteSaveBatchIsAtomic(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	ctx := context.Background()

	date := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	tickers := []ledger.Ticker{{ID: "1", Symbol: "AAPL"}}
	good := ledger.Trade{ID: "T1", TickerID: "1", Side: ledger.Buy, Quantity: 1, Date: date}
	bad := ledger.Trade{ID: "T2", TickerID: "1", Quantity: 1, Date: date} // side fails the CHECK constraint

	require.Error(t, j.SaveBatch(ctx, tickers, []ledger.Trade{good, bad}))

	list, err := j.ListTickers(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "ticker must roll back with the trades")
	all, err := j.ListTrades(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, j.SaveBatch(ctx, tickers, []ledger.Trade{good}))
	list, err = j.ListTickers(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	all, err = j.ListTrades(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
