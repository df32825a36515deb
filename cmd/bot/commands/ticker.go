package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"PremarketScanner/internal/notifier"
	"PremarketScanner/internal/scanner"
)

var (
	tickerPeriod   string
	tickerInterval string
)

var tickerCmd = &cobra.Command{
	Use:   "ticker SYMBOL",
	Short: "Analyze one symbol",
	Long: `Fetches bars, computes indicators, classifies the bias and prints the
trade plan, option pick and earnings status for one symbol.

Example:
  bot ticker AAPL
  bot ticker NVDA --period 5d --interval 5m`,
	Args: cobra.ExactArgs(1),
	RunE: runTicker,
}

func init() {
	rootCmd.AddCommand(tickerCmd)
	tickerCmd.Flags().StringVar(&tickerPeriod, "period", "", "lookback period (default from config)")
	tickerCmd.Flags().StringVar(&tickerInterval, "interval", "", "bar interval (default from config)")
}

func runTicker(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Scan.SymbolTimeout)
	defer cancel()

	symbol := strings.ToUpper(strings.TrimSpace(args[0]))
	analysis, err := a.scanner.AnalyzeSymbol(ctx, symbol, tickerPeriod, tickerInterval)
	if err != nil {
		var f *scanner.Failure
		reason := string(scanner.ReasonFor(err))
		if errors.As(err, &f) && f.Err != nil {
			err = f.Err
		}
		fmt.Fprintln(cmd.OutOrStdout(), notifier.StripHTML(notifier.FormatFailure(symbol, reason, err.Error())))
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), notifier.StripHTML(notifier.FormatAnalysis(analysis)))
	return nil
}
