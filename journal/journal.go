package journal

import (
	"context"
	"errors"

	"github.com/rustyeddy/toff/ledger"
)

// ErrNotFound is returned when a ticker or trade does not exist.
var ErrNotFound = errors.New("not found")

// Store is the persistence handle for tickers and their trades.
type Store interface {
	SaveTicker(ctx context.Context, t ledger.Ticker) error
	GetTicker(ctx context.Context, tickerID string) (ledger.Ticker, error)
	TickerBySymbol(ctx context.Context, symbol string) (ledger.Ticker, error)
	ListTickers(ctx context.Context) ([]ledger.Ticker, error)

	SaveTrade(ctx context.Context, t ledger.Trade) error
	SaveTrades(ctx context.Context, trades []ledger.Trade) error
	SaveBatch(ctx context.Context, tickers []ledger.Ticker, trades []ledger.Trade) error
	GetTrade(ctx context.Context, tradeID string) (ledger.Trade, error)
	DeleteTrade(ctx context.Context, tradeID string) error
	ListTrades(ctx context.Context) ([]ledger.Trade, error)
	ListTradesByTicker(ctx context.Context, tickerID string) ([]ledger.Trade, error)

	Close() error
}
