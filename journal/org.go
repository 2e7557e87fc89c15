package journal

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/toff/ledger"
)

// FormatTradeOrg renders a trade as an Org-mode heading with its facts in a
// PROPERTIES drawer and an empty Notes section for the write-up.
func FormatTradeOrg(t ledger.Trade, symbol string) string {
	if symbol == "" {
		symbol = "-"
	}
	heading := fmt.Sprintf("** %s %s %s (%s)", strings.ToUpper(t.Side.String()), f(t.Quantity), symbol, shortID(t.ID))

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":TRADE_ID: %s\n", t.ID))
	b.WriteString(fmt.Sprintf(":SYMBOL: %s\n", symbol))
	b.WriteString(fmt.Sprintf(":SIDE: %s\n", t.Side))
	b.WriteString(fmt.Sprintf(":QUANTITY: %s\n", f(t.Quantity)))
	b.WriteString(fmt.Sprintf(":PRICE: %.4f\n", t.Price))
	b.WriteString(fmt.Sprintf(":FEE: %.2f\n", t.Fee))
	b.WriteString(fmt.Sprintf(":DATE: %s\n", t.Date.UTC().Format(time.RFC3339)))
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Notes\n- ")
	b.WriteString(t.Note)
	b.WriteString("\n")

	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []ledger.Trade, symbols map[string]string) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatTradeOrg(t, symbols[t.TickerID]))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
