package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/toff/config"
	"github.com/rustyeddy/toff/internal/booking"
	"github.com/rustyeddy/toff/journal"
	"github.com/rustyeddy/toff/ledger"
)

var rootCmd = &cobra.Command{
	Use:   "toff",
	Short: "A trade log that keeps every ticker's holdings consistent",
	Long: `Toff records buy and sell executions per ticker in a local SQLite journal.

Every new trade, edit and deletion is replayed against the ticker's full
history before it is saved. A change that would leave a sell without enough
units held is either refused (policy "block") or saved with a warning
(policy "warn").

Configuration is read from --config (YAML or JSON) and TOFF_* environment
variables; --db and --policy override both.`,
	SilenceUsage: true,
}

var (
	cfgFile    string
	dbPath     string
	policyFlag string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "path to SQLite journal DB")
	rootCmd.PersistentFlags().StringVar(&policyFlag, "policy", "", `what a negative balance does: "block" or "warn"`)
}

// app bundles what a command needs to talk to the journal.
type app struct {
	svc   *booking.Service
	store *journal.SQLite
	log   *zap.Logger
}

func (a *app) Close() {
	_ = a.log.Sync()
	_ = a.store.Close()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Journal.DBPath = dbPath
	}
	if policyFlag != "" {
		cfg.Validation.Policy = policyFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := cfg.Log.NewLogger()
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	policy, err := booking.ParsePolicy(cfg.Validation.Policy)
	if err != nil {
		return nil, err
	}

	store, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	log.Debug("journal opened",
		zap.String("db", cfg.Journal.DBPath),
		zap.Stringer("policy", policy),
		zap.Float64("epsilon", cfg.Validation.Epsilon))

	svc := booking.New(store, ledger.Validator{Epsilon: cfg.Validation.Epsilon}, policy, log)
	return &app{svc: svc, store: store, log: log}, nil
}

func printWarning(v *ledger.Violation) {
	if v != nil {
		fmt.Printf("⚠ %s\n", v)
	}
}
