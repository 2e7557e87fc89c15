package ledger

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrInvalidTrade is wrapped by Trade.Check for structurally broken trades.
var ErrInvalidTrade = errors.New("invalid trade")

// Side is the direction of a trade.
type Side int

const (
	Buy Side = iota + 1
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// ParseSide accepts "buy" or "sell" in any case.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	default:
		return 0, fmt.Errorf("unknown side: %q", s)
	}
}

// Ticker is a tradable instrument owning a collection of trades.
type Ticker struct {
	ID     string
	Symbol string
	Name   string
}

// Trade is a single buy or sell execution.
//
// Trades are values: edits produce a new Trade with the same ID.
type Trade struct {
	ID       string
	TickerID string // empty when the trade is not attached to an instrument
	Side     Side
	Quantity float64
	Price    float64
	Fee      float64
	Date     time.Time
	Note     string
}

// Signed returns the quantity with the sign of its side.
func (t Trade) Signed() float64 {
	if t.Side == Sell {
		return -t.Quantity
	}
	return t.Quantity
}

// Check reports structural problems that make a trade meaningless
// regardless of the rest of the book.
func (t Trade) Check() error {
	if t.Side != Buy && t.Side != Sell {
		return fmt.Errorf("%w: side must be buy or sell", ErrInvalidTrade)
	}
	if !finite(t.Quantity) || t.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be a positive number, got %v", ErrInvalidTrade, t.Quantity)
	}
	if !finite(t.Price) || t.Price < 0 {
		return fmt.Errorf("%w: price must be a non-negative number, got %v", ErrInvalidTrade, t.Price)
	}
	if !finite(t.Fee) || t.Fee < 0 {
		return fmt.Errorf("%w: fee must be a non-negative number, got %v", ErrInvalidTrade, t.Fee)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidTrade)
	}
	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// compareTrades orders trades by date, then by ID as a plain string.
func compareTrades(a, b Trade) int {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}
