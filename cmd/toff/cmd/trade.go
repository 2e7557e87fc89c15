package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/toff/journal"
	"github.com/rustyeddy/toff/ledger"
)

var tradeCmd = &cobra.Command{
	Use:   "trade",
	Short: "Record, edit and query trades",
	Long: `Record, edit and query trades in the journal.

Subcommands:
  add   - Record a new buy or sell
  edit  - Change an existing trade
  rm    - Delete a trade
  list  - List trades, optionally for one ticker
  show  - Show a single trade as an Org block

Examples:
  toff trade add AAPL buy 10 --price 187.2 --date 2024-01-15
  toff trade edit 01HQX3Z8ABCDEFGHJKMNPQRSTV --qty 4
  toff trade list AAPL --org`,
}

var tradeAddCmd = &cobra.Command{
	Use:   "add <SYMBOL> <buy|sell> <quantity>",
	Short: "Record a new trade",
	Args:  cobra.ExactArgs(3),
	RunE:  runTradeAdd,
}

var tradeEditCmd = &cobra.Command{
	Use:   "edit <trade-id>",
	Short: "Edit an existing trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runTradeEdit,
}

var tradeRmCmd = &cobra.Command{
	Use:   "rm <trade-id>",
	Short: "Delete a trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runTradeRm,
}

var tradeListCmd = &cobra.Command{
	Use:   "list [SYMBOL]",
	Short: "List trades in chronological order",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTradeList,
}

var tradeShowCmd = &cobra.Command{
	Use:   "show <trade-id>",
	Short: "Show a trade as an Org block",
	Args:  cobra.ExactArgs(1),
	RunE:  runTradeShow,
}

var (
	tradePrice  float64
	tradeFee    float64
	tradeDate   string
	tradeNote   string
	tradeSide   string
	tradeQty    float64
	tradeSymbol string
	tradeOrg    bool
)

func init() {
	rootCmd.AddCommand(tradeCmd)
	tradeCmd.AddCommand(tradeAddCmd, tradeEditCmd, tradeRmCmd, tradeListCmd, tradeShowCmd)

	for _, c := range []*cobra.Command{tradeAddCmd, tradeEditCmd} {
		c.Flags().Float64VarP(&tradePrice, "price", "p", 0, "execution price")
		c.Flags().Float64Var(&tradeFee, "fee", 0, "fee paid")
		c.Flags().StringVar(&tradeDate, "date", "", "execution time, YYYY-MM-DD or RFC3339 (default now)")
		c.Flags().StringVar(&tradeNote, "note", "", "free text note")
	}
	tradeEditCmd.Flags().StringVar(&tradeSide, "side", "", "buy or sell")
	tradeEditCmd.Flags().Float64VarP(&tradeQty, "qty", "q", 0, "quantity")
	tradeEditCmd.Flags().StringVar(&tradeSymbol, "symbol", "", "move the trade to another ticker")
	tradeListCmd.Flags().BoolVar(&tradeOrg, "org", false, "print Org-mode blocks")
}

func runTradeAdd(cmd *cobra.Command, args []string) error {
	side, err := ledger.ParseSide(args[1])
	if err != nil {
		return err
	}
	qty, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("quantity: %w", err)
	}
	when := time.Now()
	if tradeDate != "" {
		if when, err = parseDate(tradeDate); err != nil {
			return err
		}
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	tk, err := a.svc.Ticker(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	res, err := a.svc.Record(cmd.Context(), ledger.Trade{
		TickerID: tk.ID,
		Side:     side,
		Quantity: qty,
		Price:    tradePrice,
		Fee:      tradeFee,
		Date:     when,
		Note:     tradeNote,
	})
	if err != nil {
		return err
	}

	fmt.Printf("✓ Recorded %s %s %s (%s)\n", res.Trade.Side, args[2], tk.Symbol, res.Trade.ID)
	printWarning(res.Warning)
	return nil
}

func runTradeEdit(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	t, err := a.svc.Get(ctx, args[0])
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("side") {
		if t.Side, err = ledger.ParseSide(tradeSide); err != nil {
			return err
		}
	}
	if flags.Changed("qty") {
		t.Quantity = tradeQty
	}
	if flags.Changed("price") {
		t.Price = tradePrice
	}
	if flags.Changed("fee") {
		t.Fee = tradeFee
	}
	if flags.Changed("date") {
		if t.Date, err = parseDate(tradeDate); err != nil {
			return err
		}
	}
	if flags.Changed("note") {
		t.Note = tradeNote
	}
	if flags.Changed("symbol") {
		tk, err := a.svc.Ticker(ctx, tradeSymbol)
		if err != nil {
			return err
		}
		t.TickerID = tk.ID
	}

	res, err := a.svc.Amend(ctx, t)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Updated %s\n", res.Trade.ID)
	printWarning(res.Warning)
	return nil
}

func runTradeRm(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.svc.Remove(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("✓ Deleted %s\n", res.Trade.ID)
	printWarning(res.Warning)
	return nil
}

func runTradeList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	symbol := ""
	if len(args) == 1 {
		symbol = args[0]
	}
	trades, err := a.svc.Trades(ctx, symbol)
	if err != nil {
		return err
	}
	symbols, err := a.svc.Symbols(ctx)
	if err != nil {
		return err
	}

	if tradeOrg {
		fmt.Println(journal.FormatTradesOrg(trades, symbols))
		return nil
	}
	for _, t := range trades {
		fmt.Printf("%s  %-26s %-8s %-4s %14s @ %-12.4f fee %.2f\n",
			t.Date.Local().Format("2006-01-02 15:04"), t.ID, symbols[t.TickerID],
			t.Side, strconv.FormatFloat(t.Quantity, 'f', -1, 64), t.Price, t.Fee)
	}
	return nil
}

func runTradeShow(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	t, err := a.svc.Get(ctx, args[0])
	if err != nil {
		return err
	}
	symbols, err := a.svc.Symbols(ctx)
	if err != nil {
		return err
	}
	fmt.Println(journal.FormatTradeOrg(t, symbols[t.TickerID]))
	return nil
}

// parseDate accepts a local calendar day or a full RFC3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: want YYYY-MM-DD or RFC3339", s)
	}
	return t, nil
}
