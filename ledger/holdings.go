package ledger

import (
	"maps"
	"slices"
	"time"
)

// Position returns the balance of a ticker after every trade dated at or
// before at.
func Position(tickerID string, all []Trade, at time.Time) float64 {
	pos := 0.0
	for _, t := range all {
		if t.TickerID == tickerID && !t.Date.After(at) {
			pos += t.Signed()
		}
	}
	return pos
}

// Holdings returns the final balance of every ticker that has trades.
func Holdings(all []Trade) map[string]float64 {
	out := make(map[string]float64)
	for _, t := range all {
		if t.TickerID == "" {
			continue
		}
		out[t.TickerID] += t.Signed()
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
