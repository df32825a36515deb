package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"PremarketScanner/internal/config"
	"PremarketScanner/internal/notifier"
)

var (
	earningsDays    int
	earningsRefresh bool
)

var earningsCmd = &cobra.Command{
	Use:   "earnings [SYMBOL...]",
	Short: "List symbols with earnings inside the window",
	Long: `Resolves the next earnings date for each symbol (or the configured
universe) and lists those within +/- N calendar days of today.

Example:
  bot earnings AAPL MSFT
  bot earnings --days 3 --refresh`,
	RunE: runEarnings,
}

func init() {
	rootCmd.AddCommand(earningsCmd)
	earningsCmd.Flags().IntVar(&earningsDays, "days", -1, "window half-width in days (default from config)")
	earningsCmd.Flags().BoolVar(&earningsRefresh, "refresh", false, "look up every symbol before listing, ignoring the inline cap")
}

func runEarnings(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()

	if a.resolver == nil {
		return errors.New("earnings are disabled in config")
	}
	days := earningsDays
	if days < 0 {
		days = a.cfg.Earnings.WindowDays
	}

	var explicit []string
	for _, arg := range args {
		explicit = append(explicit, config.SplitSymbols(arg)...)
	}
	symbols := a.symbols(explicit)

	if earningsRefresh {
		n, err := a.resolver.Refresh(cmd.Context(), symbols)
		if err != nil {
			return fmt.Errorf("refresh: %w", err)
		}
		a.log.WithField("resolved", n).Info("earnings refreshed")
	}

	recs := a.scanner.EarningsInWindow(cmd.Context(), symbols, days)
	fmt.Fprint(cmd.OutOrStdout(), notifier.StripHTML(notifier.FormatEarnings(recs, days)))
	return nil
}
