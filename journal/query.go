package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rustyeddy/toff/ledger"
)

const tradeColumns = `trade_id, ticker_id, side, quantity, price, fee, traded_at, note`

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(row scanner) (ledger.Trade, error) {
	var (
		rec  ledger.Trade
		side string
	)
	err := row.Scan(
		&rec.ID,
		&rec.TickerID,
		&side,
		&rec.Quantity,
		&rec.Price,
		&rec.Fee,
		&rec.Date,
		&rec.Note,
	)
	if err != nil {
		return ledger.Trade{}, err
	}
	if rec.Side, err = ledger.ParseSide(side); err != nil {
		return ledger.Trade{}, err
	}
	return rec, nil
}

// GetTrade returns a single trade by ID.
func (j *SQLite) GetTrade(ctx context.Context, tradeID string) (ledger.Trade, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE trade_id = ?`, tradeID)

	rec, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.Trade{}, fmt.Errorf("trade %q: %w", tradeID, ErrNotFound)
		}
		return ledger.Trade{}, err
	}
	return rec, nil
}

// ListTrades returns every trade ordered by (traded_at, trade_id).
func (j *SQLite) ListTrades(ctx context.Context) ([]ledger.Trade, error) {
	return j.queryTrades(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		ORDER BY traded_at ASC, trade_id ASC`)
}

// ListTradesByTicker returns the trades of one ticker ordered by (traded_at, trade_id).
func (j *SQLite) ListTradesByTicker(ctx context.Context, tickerID string) ([]ledger.Trade, error) {
	return j.queryTrades(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE ticker_id = ?
		ORDER BY traded_at ASC, trade_id ASC`, tickerID)
}

func (j *SQLite) queryTrades(ctx context.Context, query string, args ...any) ([]ledger.Trade, error) {
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Trade
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (j *SQLite) GetTicker(ctx context.Context, tickerID string) (ledger.Ticker, error) {
	return j.queryTicker(ctx, `SELECT ticker_id, symbol, name FROM tickers WHERE ticker_id = ?`, tickerID)
}

func (j *SQLite) TickerBySymbol(ctx context.Context, symbol string) (ledger.Ticker, error) {
	return j.queryTicker(ctx, `SELECT ticker_id, symbol, name FROM tickers WHERE symbol = ?`, symbol)
}

func (j *SQLite) queryTicker(ctx context.Context, query, key string) (ledger.Ticker, error) {
	var t ledger.Ticker
	err := j.db.QueryRowContext(ctx, query, key).Scan(&t.ID, &t.Symbol, &t.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.Ticker{}, fmt.Errorf("ticker %q: %w", key, ErrNotFound)
		}
		return ledger.Ticker{}, err
	}
	return t, nil
}

// ListTickers returns all tickers ordered by symbol.
func (j *SQLite) ListTickers(ctx context.Context) ([]ledger.Ticker, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT ticker_id, symbol, name FROM tickers ORDER BY symbol ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Ticker
	for rows.Next() {
		var t ledger.Ticker
		if err := rows.Scan(&t.ID, &t.Symbol, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
