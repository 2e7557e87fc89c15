package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/toff/journal"
)

var holdingsCmd = &cobra.Command{
	Use:   "holdings",
	Short: "Show the current balance of every ticker",
	Args:  cobra.NoArgs,
	RunE:  runHoldings,
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Replay every ticker and report negative balances",
	Long: `Replay the full history of every ticker in (date, id) order and report the
first sell of each ticker that needs more units than were held.

Exits with an error when any ticker is inconsistent.`,
	Args: cobra.NoArgs,
	RunE: runAudit,
}

var csvCmd = &cobra.Command{
	Use:   "csv",
	Short: "Import or export trades as CSV",
	Long: `Move trades in and out of the journal as CSV with the header

  trade_id,symbol,side,quantity,price,fee,date,note

Dates are RFC3339. An empty trade_id gets a new ID on import and unknown
symbols are registered as new tickers. The imported book is audited before it
is saved.

Examples:
  toff csv export trades.csv
  toff csv import broker-export.csv --policy warn`,
}

var csvImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import trades from a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE:  runCSVImport,
}

var csvExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export all trades to a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE:  runCSVExport,
}

func init() {
	rootCmd.AddCommand(holdingsCmd, auditCmd, csvCmd)
	csvCmd.AddCommand(csvImportCmd, csvExportCmd)
}

func runHoldings(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	holdings, err := a.svc.Holdings(cmd.Context())
	if err != nil {
		return err
	}
	for _, h := range holdings {
		fmt.Printf("%-10s %s\n", h.Ticker.Symbol, strconv.FormatFloat(h.Quantity, 'f', -1, 64))
	}
	return nil
}

func runAudit(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	violations, err := a.svc.Audit(ctx)
	if err != nil {
		return err
	}
	if len(violations) == 0 {
		fmt.Println("✓ All tickers consistent")
		return nil
	}

	symbols, err := a.svc.Symbols(ctx)
	if err != nil {
		return err
	}
	for _, v := range violations {
		fmt.Printf("✗ %s %s: %s\n", symbols[v.TickerID], v.TradeID, v)
	}
	return fmt.Errorf("%d ticker(s) with negative balance", len(violations))
}

func runCSVImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	recs, err := journal.ReadCSV(f)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.svc.Import(cmd.Context(), recs)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Imported %d trades (%d new tickers)\n", len(res.Trades), len(res.NewTickers))
	for i := range res.Violations {
		printWarning(&res.Violations[i])
	}
	return nil
}

func runCSVExport(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	trades, err := a.svc.Trades(ctx, "")
	if err != nil {
		return err
	}
	symbols, err := a.svc.Symbols(ctx)
	if err != nil {
		return err
	}

	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	if err := journal.WriteCSV(f, trades, symbols); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("✓ Exported %d trades to %s\n", len(trades), args[0])
	return nil
}
