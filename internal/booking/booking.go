// Package booking holds the create, edit and delete workflows for trades.
// Every change is replayed through the balance validator before it reaches
// the journal; the policy decides whether a violation blocks the save.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rustyeddy/toff/journal"
	"github.com/rustyeddy/toff/ledger"
	"github.com/rustyeddy/toff/pkg/id"
)

// ErrInsufficientHoldings is returned under the Block policy when a change
// would make a sell exceed the units held.
var ErrInsufficientHoldings = errors.New("insufficient holdings")

// Policy decides what a violation does to a save.
type Policy int

const (
	Block Policy = iota // refuse the change
	Warn                // save and report the violation
)

func (p Policy) String() string {
	if p == Warn {
		return "warn"
	}
	return "block"
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "block", "":
		return Block, nil
	case "warn":
		return Warn, nil
	default:
		return 0, fmt.Errorf("unknown policy: %q", s)
	}
}

// Result is the outcome of a change that was persisted. Warning is set
// when the Warn policy let a violation through.
type Result struct {
	Trade   ledger.Trade
	Warning *ledger.Violation
}

type Service struct {
	store     journal.Store
	validator ledger.Validator
	policy    Policy
	log       *zap.Logger
}

// New returns a Service over store. A nil logger discards logs.
func New(store journal.Store, validator ledger.Validator, policy Policy, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:     store,
		validator: validator,
		policy:    policy,
		log:       log.Named("booking"),
	}
}

// AddTicker registers a new symbol.
func (s *Service) AddTicker(ctx context.Context, symbol, name string) (ledger.Ticker, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return ledger.Ticker{}, errors.New("symbol is required")
	}
	if _, err := s.store.TickerBySymbol(ctx, symbol); err == nil {
		return ledger.Ticker{}, fmt.Errorf("ticker %s already exists", symbol)
	} else if !errors.Is(err, journal.ErrNotFound) {
		return ledger.Ticker{}, err
	}

	t := ledger.Ticker{ID: id.New(), Symbol: symbol, Name: name}
	if err := s.store.SaveTicker(ctx, t); err != nil {
		return ledger.Ticker{}, fmt.Errorf("save ticker: %w", err)
	}
	s.log.Info("ticker added", zap.String("symbol", symbol), zap.String("ticker_id", t.ID))
	return t, nil
}

// Ticker looks a ticker up by symbol.
func (s *Service) Ticker(ctx context.Context, symbol string) (ledger.Ticker, error) {
	return s.store.TickerBySymbol(ctx, normalizeSymbol(symbol))
}

func (s *Service) Tickers(ctx context.Context) ([]ledger.Ticker, error) {
	return s.store.ListTickers(ctx)
}

// Symbols maps ticker IDs to symbols.
func (s *Service) Symbols(ctx context.Context) (map[string]string, error) {
	tickers, err := s.store.ListTickers(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(tickers))
	for _, t := range tickers {
		out[t.ID] = t.Symbol
	}
	return out, nil
}

// Record stores a new trade. An empty ID is filled with a fresh ULID.
func (s *Service) Record(ctx context.Context, t ledger.Trade) (Result, error) {
	if t.ID == "" {
		t.ID = id.New()
	} else if _, err := s.store.GetTrade(ctx, t.ID); err == nil {
		return Result{}, fmt.Errorf("trade %s already exists", t.ID)
	} else if !errors.Is(err, journal.ErrNotFound) {
		return Result{}, err
	}

	if err := s.checkTrade(ctx, t); err != nil {
		return Result{}, err
	}

	timeline, err := s.timeline(ctx, t.TickerID)
	if err != nil {
		return Result{}, err
	}
	warning, err := s.decide("record", t.ID, s.validator.Validate(t, timeline))
	if err != nil {
		return Result{}, err
	}

	if err := s.store.SaveTrade(ctx, t); err != nil {
		return Result{}, fmt.Errorf("save trade: %w", err)
	}
	s.log.Info("trade recorded", tradeFields(t)...)
	return Result{Trade: t, Warning: warning}, nil
}

// Amend replaces an existing trade. When the trade moves to another
// ticker, the old ticker's timeline is checked without it as well.
func (s *Service) Amend(ctx context.Context, t ledger.Trade) (Result, error) {
	prev, err := s.store.GetTrade(ctx, t.ID)
	if err != nil {
		return Result{}, err
	}
	if err := s.checkTrade(ctx, t); err != nil {
		return Result{}, err
	}

	timeline, err := s.timeline(ctx, t.TickerID)
	if err != nil {
		return Result{}, err
	}
	viol := s.validator.Validate(t, timeline)

	if viol == nil && prev.TickerID != t.TickerID {
		old, err := s.timeline(ctx, prev.TickerID)
		if err != nil {
			return Result{}, err
		}
		viol = s.validator.ValidateRemoval(prev.ID, old)
	}

	warning, err := s.decide("amend", t.ID, viol)
	if err != nil {
		return Result{}, err
	}

	if err := s.store.SaveTrade(ctx, t); err != nil {
		return Result{}, fmt.Errorf("save trade: %w", err)
	}
	s.log.Info("trade amended", tradeFields(t)...)
	return Result{Trade: t, Warning: warning}, nil
}

// Remove deletes a trade unless a later sell depends on it.
func (s *Service) Remove(ctx context.Context, tradeID string) (Result, error) {
	prev, err := s.store.GetTrade(ctx, tradeID)
	if err != nil {
		return Result{}, err
	}

	timeline, err := s.timeline(ctx, prev.TickerID)
	if err != nil {
		return Result{}, err
	}
	warning, err := s.decide("remove", tradeID, s.validator.ValidateRemoval(tradeID, timeline))
	if err != nil {
		return Result{}, err
	}

	if err := s.store.DeleteTrade(ctx, tradeID); err != nil {
		return Result{}, err
	}
	s.log.Info("trade removed", tradeFields(prev)...)
	return Result{Trade: prev, Warning: warning}, nil
}

// Get returns a trade by ID.
func (s *Service) Get(ctx context.Context, tradeID string) (ledger.Trade, error) {
	return s.store.GetTrade(ctx, tradeID)
}

// Trades lists every trade, or only the trades of symbol when it is set,
// in (date, id) order.
func (s *Service) Trades(ctx context.Context, symbol string) ([]ledger.Trade, error) {
	if symbol == "" {
		return s.store.ListTrades(ctx)
	}
	t, err := s.Ticker(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return s.store.ListTradesByTicker(ctx, t.ID)
}

// checkTrade rejects malformed trades and trades on unknown tickers.
func (s *Service) checkTrade(ctx context.Context, t ledger.Trade) error {
	if err := t.Check(); err != nil {
		return err
	}
	if t.TickerID == "" {
		return nil
	}
	if _, err := s.store.GetTicker(ctx, t.TickerID); err != nil {
		return fmt.Errorf("trade %s: %w", t.ID, err)
	}
	return nil
}

// timeline loads the stored trades of a ticker. Trades without a ticker
// are never validated so nothing is loaded for them.
func (s *Service) timeline(ctx context.Context, tickerID string) ([]ledger.Trade, error) {
	if tickerID == "" {
		return nil, nil
	}
	trades, err := s.store.ListTradesByTicker(ctx, tickerID)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}
	return trades, nil
}

// decide applies the policy to a validation outcome.
func (s *Service) decide(op, tradeID string, viol *ledger.Violation) (*ledger.Violation, error) {
	if viol == nil {
		return nil, nil
	}

	fields := []zap.Field{
		zap.String("op", op),
		zap.String("trade_id", tradeID),
		zap.String("violating_trade_id", viol.TradeID),
		zap.Time("date", viol.Date),
		zap.Float64("deficit", viol.Deficit),
		zap.Bool("direct", viol.Direct),
	}
	if s.policy == Block {
		s.log.Info("change rejected", fields...)
		return nil, fmt.Errorf("%w: %s", ErrInsufficientHoldings, viol)
	}
	s.log.Warn("change saved with negative balance", fields...)
	return viol, nil
}

func tradeFields(t ledger.Trade) []zap.Field {
	return []zap.Field{
		zap.String("trade_id", t.ID),
		zap.String("ticker_id", t.TickerID),
		zap.Stringer("side", t.Side),
		zap.Float64("quantity", t.Quantity),
		zap.Time("date", t.Date),
	}
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
