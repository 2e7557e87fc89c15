package journal

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/toff/ledger"
)

// SQLite is a Store backed by a single SQLite file.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) SaveTicker(ctx context.Context, t ledger.Ticker) error {
	return saveTicker(ctx, j.db, t)
}

func saveTicker(ctx context.Context, db execer, t ledger.Ticker) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO tickers (ticker_id, symbol, name)
		VALUES (?, ?, ?)
		ON CONFLICT(ticker_id) DO UPDATE SET symbol = excluded.symbol, name = excluded.name`,
		t.ID, t.Symbol, t.Name,
	)
	return err
}

const upsertTrade = `
	INSERT INTO trades
	(trade_id, ticker_id, side, quantity, price, fee, traded_at, note)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(trade_id) DO UPDATE SET
		ticker_id = excluded.ticker_id,
		side = excluded.side,
		quantity = excluded.quantity,
		price = excluded.price,
		fee = excluded.fee,
		traded_at = excluded.traded_at,
		note = excluded.note`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveTrade(ctx context.Context, db execer, t ledger.Trade) error {
	_, err := db.ExecContext(ctx, upsertTrade,
		t.ID, t.TickerID, t.Side.String(), t.Quantity,
		t.Price, t.Fee, t.Date.UTC(), t.Note,
	)
	return err
}

// SaveTrade inserts t or replaces the trade with the same ID.
func (j *SQLite) SaveTrade(ctx context.Context, t ledger.Trade) error {
	return saveTrade(ctx, j.db, t)
}

// SaveTrades upserts all trades in one transaction.
func (j *SQLite) SaveTrades(ctx context.Context, trades []ledger.Trade) error {
	return j.SaveBatch(ctx, nil, trades)
}

// SaveBatch upserts tickers then trades in one transaction; on any error
// nothing is written.
func (j *SQLite) SaveBatch(ctx context.Context, tickers []ledger.Ticker, trades []ledger.Trade) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, t := range tickers {
		if err := saveTicker(ctx, tx, t); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("save ticker %s: %w", t.Symbol, err)
		}
	}
	for _, t := range trades {
		if err := saveTrade(ctx, tx, t); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("save trade %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

func (j *SQLite) DeleteTrade(ctx context.Context, tradeID string) error {
	res, err := j.db.ExecContext(ctx, `DELETE FROM trades WHERE trade_id = ?`, tradeID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("trade %q: %w", tradeID, ErrNotFound)
	}
	return nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
