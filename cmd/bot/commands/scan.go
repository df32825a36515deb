package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"PremarketScanner/internal/config"
	"PremarketScanner/internal/export"
	"PremarketScanner/internal/notifier"
	"PremarketScanner/internal/recorder"
)

var (
	scanTop     int
	scanSymbols string
	scanOut     string
	scanNotify  bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Rank the universe once",
	Long: `Analyzes every symbol of the universe with bounded concurrency and prints
the ranking. Symbols that fail are listed with their reason.

Example:
  bot scan --top 5
  bot scan --symbols AAPL,MSFT,NVDA --out ranked.csv
  bot scan --notify`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().IntVar(&scanTop, "top", -1, "number of results to keep (0 keeps all, default from config)")
	scanCmd.Flags().StringVar(&scanSymbols, "symbols", "", "comma separated symbols instead of the configured universe")
	scanCmd.Flags().StringVar(&scanOut, "out", "", "write ranked rows to a .csv, .json or .parquet file")
	scanCmd.Flags().BoolVar(&scanNotify, "notify", false, "post the ranking through the configured notifiers")
}

func runScan(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()

	top := scanTop
	if top < 0 {
		top = a.cfg.Scan.TopN
	}
	symbols := a.symbols(config.SplitSymbols(scanSymbols))

	res := a.scanner.RankUniverse(cmd.Context(), symbols, top)
	text := notifier.FormatDigest(res, time.Now().In(a.cfg.Location()))
	fmt.Fprint(cmd.OutOrStdout(), notifier.StripHTML(text))

	run := recorder.NewScanRun(recorder.KindScan, res)
	if scanOut != "" {
		if err := export.SaveRanked(res.Ranked, scanOut); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		a.log.WithField("path", scanOut).Info("ranking exported")
		run.Note = "exported to " + scanOut
	}
	if scanNotify {
		if err := a.notifier.Send(cmd.Context(), text); err != nil {
			a.log.WithError(err).Error("scan delivery failed")
		} else {
			run.Delivered = true
		}
	}
	if err := a.recorder.RecordRun(context.WithoutCancel(cmd.Context()), run); err != nil {
		a.log.WithError(err).Warn("record scan run")
	}
	return nil
}
