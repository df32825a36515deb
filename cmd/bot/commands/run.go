package commands

import (
	"os"

	"github.com/spf13/cobra"

	"PremarketScanner/internal/scheduler"
)

var runNow bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the scheduled digest and earnings refresh",
	Long: `Runs the cron scheduler until SIGINT or SIGTERM:
- digest: rank the universe and post the top picks
- earnings refresh: re-resolve earnings dates for the whole universe

Example:
  bot run
  bot run --run-now`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runNow, "run-now", os.Getenv("RUN_ON_START") == "true", "run the digest immediately on start")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(os.Stdout)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()

	var refresher scheduler.Refresher
	if a.resolver != nil {
		refresher = a.resolver
	}
	sched := scheduler.NewScheduler(ctx, a.scanner, refresher, a.universe, a.notifier, a.recorder, scheduler.Options{
		DigestCron:   a.cfg.Schedule.DigestCron,
		EarningsCron: a.cfg.Schedule.EarningsCron,
		TopN:         a.cfg.Scan.TopN,
		Location:     a.cfg.Location(),
	}, a.log)
	if err := sched.RegisterAll(); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if runNow {
		a.log.Info("run-now enabled, executing digest")
		go sched.RunDigestNow()
	}

	a.log.Info("PremarketScanner is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	a.log.Info("shutdown signal received, stopping...")
	return nil
}
