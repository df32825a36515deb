package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "bot",
	Short: "Premarket ticker analysis and ranking",
	Long: `PremarketScanner analyzes tickers before the open: trend, momentum and
volatility indicators, a CALL/PUT/NEUTRAL bias with a trade plan, a liquid
option contract and the earnings window, then ranks the universe.

Examples:
  bot ticker AAPL
  bot scan --top 10 --out ranked.parquet
  bot earnings --days 7
  bot run --run-now`,
	SilenceUsage: true,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	defaultConfig := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultConfig = v
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", defaultConfig, "YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug|info|warn|error)")
}
