package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var tickerCmd = &cobra.Command{
	Use:   "ticker",
	Short: "Manage tickers",
	Long: `Register and list the instruments trades are booked against.

Examples:
  toff ticker add AAPL --name "Apple Inc."
  toff ticker list`,
}

var tickerAddCmd = &cobra.Command{
	Use:   "add <SYMBOL>",
	Short: "Register a ticker",
	Args:  cobra.ExactArgs(1),
	RunE:  runTickerAdd,
}

var tickerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tickers",
	Args:  cobra.NoArgs,
	RunE:  runTickerList,
}

var tickerName string

func init() {
	rootCmd.AddCommand(tickerCmd)
	tickerCmd.AddCommand(tickerAddCmd)
	tickerCmd.AddCommand(tickerListCmd)

	tickerAddCmd.Flags().StringVarP(&tickerName, "name", "n", "", "display name")
}

func runTickerAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := a.svc.AddTicker(cmd.Context(), args[0], tickerName)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Added %s (%s)\n", t.Symbol, t.ID)
	return nil
}

func runTickerList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	tickers, err := a.svc.Tickers(cmd.Context())
	if err != nil {
		return err
	}
	for _, t := range tickers {
		fmt.Printf("%-10s %-26s %s\n", t.Symbol, t.ID, t.Name)
	}
	return nil
}
