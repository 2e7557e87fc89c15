package ledger

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultEpsilon absorbs float accumulation noise so that a position that is
// mathematically flat is not reported as short.
const DefaultEpsilon = 1e-8

// Violation is the earliest point in a ticker's timeline where a sell needs
// more units than are held.
type Violation struct {
	TradeID   string    // the sell that goes short
	TickerID  string
	Date      time.Time // when it happens
	Required  float64   // quantity of that sell
	Available float64   // balance right before it
	Deficit   float64   // how far below zero the balance goes
	Direct    bool      // true when the sell is the candidate itself
}

// String renders the diagnostic shown to the user.
func (v Violation) String() string {
	day := v.Date.Format("2006-01-02")
	if v.Direct {
		return fmt.Sprintf("this trade cannot be executed: on %s it sells %s but only %s are held (short by %s)",
			day, qty(v.Required), qty(v.Available), qty(v.Deficit))
	}
	return fmt.Sprintf("this edit destabilizes a later trade: the sell on %s requires %s but only %s would be held (short by %s)",
		day, qty(v.Required), qty(v.Available), qty(v.Deficit))
}

func qty(x float64) string {
	return decimal.NewFromFloat(x).Round(8).String()
}

// Validator replays a ticker's trades in (date, id) order and reports the
// first sell that takes the running balance below -Epsilon.
//
// The zero value uses DefaultEpsilon.
type Validator struct {
	Epsilon float64
}

func (v Validator) epsilon() float64 {
	if v.Epsilon > 0 {
		return v.Epsilon
	}
	return DefaultEpsilon
}

// Validate checks candidate, which is either new or replaces the trade in
// all with the same ID. A candidate without a ticker is never a violation.
// all may contain trades of any ticker and is not modified.
func (v Validator) Validate(candidate Trade, all []Trade) *Violation {
	if candidate.TickerID == "" {
		return nil
	}

	timeline := make([]Trade, 0, len(all)+1)
	for _, t := range all {
		if t.TickerID == candidate.TickerID && t.ID != candidate.ID {
			timeline = append(timeline, t)
		}
	}
	timeline = append(timeline, candidate)

	viol := v.replay(timeline)
	if viol != nil {
		viol.Direct = viol.TradeID == candidate.ID
	}
	return viol
}

// ValidateRemoval checks whether deleting the trade with the given ID leaves
// a later sell uncovered. Unknown IDs and trades without a ticker pass.
func (v Validator) ValidateRemoval(id string, all []Trade) *Violation {
	i := slices.IndexFunc(all, func(t Trade) bool { return t.ID == id })
	if i < 0 || all[i].TickerID == "" {
		return nil
	}
	tickerID := all[i].TickerID

	timeline := make([]Trade, 0, len(all))
	for _, t := range all {
		if t.TickerID == tickerID && t.ID != id {
			timeline = append(timeline, t)
		}
	}
	return v.replay(timeline)
}

// Audit returns the first violation of every ticker in the book, ordered by
// ticker ID. Trades without a ticker are ignored.
func (v Validator) Audit(all []Trade) []Violation {
	return v.audit(groupByTicker(all), func(string) bool { return true })
}

// AuditBatch validates a batch of new or replacing trades against the
// existing book. Only tickers the batch touches are replayed, including the
// old ticker of a replaced trade, so problems already stored on other tickers
// are not reported. A violation is Direct
// when the offending sell is part of the batch.
func (v Validator) AuditBatch(existing, batch []Trade) []Violation {
	inBatch := make(map[string]bool, len(batch))
	touched := make(map[string]bool)
	for _, t := range batch {
		inBatch[t.ID] = true
		if t.TickerID != "" {
			touched[t.TickerID] = true
		}
	}

	merged := slices.Clone(batch)
	for _, t := range existing {
		switch {
		case !inBatch[t.ID]:
			merged = append(merged, t)
		case t.TickerID != "":
			touched[t.TickerID] = true
		}
	}

	byTicker := groupByTicker(merged)
	for tickerID := range byTicker {
		if !touched[tickerID] {
			delete(byTicker, tickerID)
		}
	}
	return v.audit(byTicker, func(tradeID string) bool { return inBatch[tradeID] })
}

func (v Validator) audit(byTicker map[string][]Trade, direct func(tradeID string) bool) []Violation {
	var out []Violation
	for _, tickerID := range sortedKeys(byTicker) {
		if viol := v.replay(byTicker[tickerID]); viol != nil {
			viol.Direct = direct(viol.TradeID)
			out = append(out, *viol)
		}
	}
	return out
}

func groupByTicker(all []Trade) map[string][]Trade {
	byTicker := make(map[string][]Trade)
	for _, t := range all {
		if t.TickerID == "" {
			continue
		}
		byTicker[t.TickerID] = append(byTicker[t.TickerID], t)
	}
	return byTicker
}

// replay sorts timeline in place and walks it. Direct is left to the caller.
func (v Validator) replay(timeline []Trade) *Violation {
	slices.SortStableFunc(timeline, compareTrades)

	eps := v.epsilon()
	running := 0.0
	for _, tr := range timeline {
		before := running
		running += tr.Signed()
		if running < -eps && tr.Side == Sell {
			return &Violation{
				TradeID:   tr.ID,
				TickerID:  tr.TickerID,
				Date:      tr.Date,
				Required:  tr.Quantity,
				Available: before,
				Deficit:   math.Abs(running),
			}
		}
	}
	return nil
}

// Validate runs the default Validator.
func Validate(candidate Trade, all []Trade) *Violation {
	return Validator{}.Validate(candidate, all)
}
