package booking

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rustyeddy/toff/journal"
	"github.com/rustyeddy/toff/ledger"
	"github.com/rustyeddy/toff/pkg/id"
)

// Holding is the current balance of one ticker.
type Holding struct {
	Ticker   ledger.Ticker
	Quantity float64
}

// Holdings returns the balance of every registered ticker, by symbol.
func (s *Service) Holdings(ctx context.Context) ([]Holding, error) {
	tickers, err := s.store.ListTickers(ctx)
	if err != nil {
		return nil, err
	}
	trades, err := s.store.ListTrades(ctx)
	if err != nil {
		return nil, err
	}

	balances := ledger.Holdings(trades)
	out := make([]Holding, 0, len(tickers))
	for _, t := range tickers {
		out = append(out, Holding{Ticker: t, Quantity: balances[t.ID]})
	}
	return out, nil
}

// Audit replays every ticker and returns the first violation of each.
func (s *Service) Audit(ctx context.Context) ([]ledger.Violation, error) {
	trades, err := s.store.ListTrades(ctx)
	if err != nil {
		return nil, err
	}
	return s.validator.Audit(trades), nil
}

// ImportResult summarizes an Import.
type ImportResult struct {
	Trades     []ledger.Trade
	NewTickers []ledger.Ticker
	Violations []ledger.Violation
}

// Import stores a batch of CSV records. Unknown symbols become new tickers;
// rows without an ID get one stamped with their trade date and a trade ID may
// appear only once. The tickers the batch touches are audited first: under
// Block any violation aborts the whole batch. Tickers and trades are saved in
// one transaction.
func (s *Service) Import(ctx context.Context, recs []journal.Record) (ImportResult, error) {
	var res ImportResult

	known := make(map[string]ledger.Ticker)
	resolve := func(symbol string) (string, error) {
		symbol = normalizeSymbol(symbol)
		if symbol == "" {
			return "", nil
		}
		if t, ok := known[symbol]; ok {
			return t.ID, nil
		}
		t, err := s.store.TickerBySymbol(ctx, symbol)
		if errors.Is(err, journal.ErrNotFound) {
			t = ledger.Ticker{ID: id.New(), Symbol: symbol}
			res.NewTickers = append(res.NewTickers, t)
		} else if err != nil {
			return "", err
		}
		known[symbol] = t
		return t.ID, nil
	}

	rows := make(map[string]int, len(recs))
	for i, rec := range recs {
		t := rec.Trade
		tickerID, err := resolve(rec.Symbol)
		if err != nil {
			return ImportResult{}, err
		}
		t.TickerID = tickerID
		if t.ID == "" {
			t.ID = id.NewAt(t.Date)
		}
		if prev, dup := rows[t.ID]; dup {
			return ImportResult{}, fmt.Errorf("record %d: trade_id %s already used by record %d", i+1, t.ID, prev)
		}
		rows[t.ID] = i + 1
		if err := t.Check(); err != nil {
			return ImportResult{}, fmt.Errorf("record %d: %w", i+1, err)
		}
		res.Trades = append(res.Trades, t)
	}

	existing, err := s.store.ListTrades(ctx)
	if err != nil {
		return ImportResult{}, err
	}
	res.Violations = s.validator.AuditBatch(existing, res.Trades)
	if len(res.Violations) > 0 && s.policy == Block {
		first := res.Violations[0]
		s.log.Info("import rejected",
			zap.Int("trades", len(res.Trades)),
			zap.Int("violations", len(res.Violations)))
		return ImportResult{}, fmt.Errorf("%w: %s", ErrInsufficientHoldings, first)
	}

	if err := s.store.SaveBatch(ctx, res.NewTickers, res.Trades); err != nil {
		return ImportResult{}, err
	}

	s.log.Info("import done",
		zap.Int("trades", len(res.Trades)),
		zap.Int("new_tickers", len(res.NewTickers)),
		zap.Int("violations", len(res.Violations)))
	return res, nil
}
