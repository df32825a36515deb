package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"PremarketScanner/internal/collector"
	"PremarketScanner/internal/config"
	"PremarketScanner/internal/earnings"
	"PremarketScanner/internal/httputil"
	"PremarketScanner/internal/logger"
	"PremarketScanner/internal/news"
	"PremarketScanner/internal/notifier"
	"PremarketScanner/internal/options"
	"PremarketScanner/internal/recorder"
	"PremarketScanner/internal/scanner"
	"PremarketScanner/internal/strategy"
	"PremarketScanner/internal/trace"
	"PremarketScanner/internal/universe"
)

const serviceName = "premarket-scanner"

// app holds the wired components shared by every command.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	scanner  *scanner.Scanner
	resolver *earnings.Resolver
	universe *universe.Manager
	notifier notifier.Notifier
	recorder recorder.Recorder
}

// bootstrap loads config and wires providers, scanner, notifiers and the
// recorder. Logs go to logOut. The caller must call close.
func bootstrap(logOut io.Writer) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	log := logger.NewWithWriter(logOut, cfg.Log.Level, cfg.Log.Format)
	if err := trace.Init(cfg.Tracing.Enabled, serviceName); err != nil {
		log.WithError(err).Warn("tracing disabled")
	}

	clientOpts := httputil.Options{
		Timeout:    cfg.DataSource.Timeout,
		RatePerSec: cfg.DataSource.RatePerSec,
		Burst:      cfg.DataSource.Burst,
		MaxRetries: cfg.DataSource.MaxRetries,
		ProxyURL:   cfg.Proxy,
	}
	yahoo := collector.NewYahooProvider(httputil.New(clientOpts, log.WithField("client", "yahoo")), "")

	var provider collector.Provider = yahoo
	if cfg.DataSource.BaseURL != "" {
		restOpts := clientOpts
		if cfg.DataSource.APIKey != "" {
			restOpts.Headers = map[string]string{"Authorization": "Bearer " + cfg.DataSource.APIKey}
		}
		provider = collector.NewRESTProvider(cfg.DataSource.BaseURL, httputil.New(restOpts, log.WithField("client", "rest")))
	}
	log.WithField("provider", provider.Name()).Info("data source selected")
	source := collector.NewSource(collector.Traced(provider), log)

	loc := cfg.Location()

	var picker scanner.OptionPicker
	if cfg.Options.Enabled {
		picker = options.NewSelector(yahoo, options.Config{
			MinDTE:  cfg.Options.MinDTE,
			MaxDTE:  cfg.Options.MaxDTE,
			Strict:  tier(cfg.Options.Strict),
			Relaxed: tier(cfg.Options.Relaxed),
		}, loc, log)
	}

	var (
		resolver *earnings.Resolver
		lookup   scanner.EarningsLookup
	)
	if cfg.Earnings.Enabled {
		resolver = earnings.NewResolver(yahoo, earnings.NewCache(cfg.Earnings.CacheTTL, time.Now), log).
			WithLocation(loc).
			WithInlineCap(cfg.Earnings.InlineCap)
		lookup = resolver
	}

	sc, err := scanner.New(source, picker, lookup, scanner.Config{
		Period:        cfg.Scan.AnalyzePeriod,
		Interval:      cfg.Scan.AnalyzeInterval,
		RankPeriod:    cfg.Scan.RankPeriod,
		RankInterval:  cfg.Scan.RankInterval,
		Concurrency:   cfg.Scan.Concurrency,
		SymbolTimeout: cfg.Scan.SymbolTimeout,
		Plan:          strategy.PlanStrategy(cfg.Scan.PlanStrategy),
		WindowPolicy:  cfg.Scan.WindowPolicy,
		MinPrice:      cfg.Scan.MinPrice,
		MinAvgVolume:  cfg.Scan.MinAvgVolume,
		EarningsDays:  cfg.Earnings.WindowDays,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("init scanner: %w", err)
	}
	if cfg.News.Enabled {
		sc.WithNews(news.NewScorer(yahoo, cfg.News.Limit, log))
	}

	return &app{
		cfg:      cfg,
		log:      log,
		scanner:  sc,
		resolver: resolver,
		universe: universe.NewManager(universe.Config{
			AllTickers:   cfg.Universe.AllTickers,
			SymbolsFile:  cfg.Universe.SymbolsFile,
			ScanUniverse: cfg.Universe.ScanUniverse,
		}, log),
		notifier: buildNotifier(cfg, clientOpts, log),
		recorder: buildRecorder(cfg, log),
	}, nil
}

func (a *app) close() {
	if err := a.recorder.Close(); err != nil {
		a.log.WithError(err).Warn("close recorder")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := trace.Shutdown(ctx); err != nil {
		a.log.WithError(err).Warn("flush traces")
	}
}

// symbols returns explicit symbols when given, else the configured universe.
func (a *app) symbols(explicit []string) []string {
	if len(explicit) > 0 {
		return explicit
	}
	syms, source := a.universe.Symbols()
	a.log.WithFields(map[string]interface{}{"universe": source, "symbols": len(syms)}).Info("universe resolved")
	return syms
}

func buildNotifier(cfg *config.Config, clientOpts httputil.Options, log *logger.Logger) notifier.Notifier {
	var multi notifier.Multi
	if cfg.Telegram.BotToken != "" {
		tn, err := notifier.NewTelegramNotifier(notifier.TelegramOptions{
			BotToken: cfg.Telegram.BotToken,
			ChatID:   cfg.Telegram.ChatID,
			ProxyURL: cfg.Proxy,
		}, log)
		if err != nil {
			log.WithError(err).Warn("telegram notifier disabled")
		} else {
			multi = append(multi, tn)
		}
	}
	if cfg.Webhook.URL != "" {
		webhookOpts := clientOpts
		webhookOpts.RatePerSec = 0
		multi = append(multi, notifier.NewWebhookNotifier(cfg.Webhook.URL, httputil.New(webhookOpts, log.WithField("client", "webhook"))))
	}
	if len(multi) == 0 {
		return notifier.LogNotifier{Logger: log}
	}
	return multi
}

func buildRecorder(cfg *config.Config, log *logger.Logger) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
	if err != nil {
		log.WithError(err).Warn("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return sr
}

func tier(t config.LiquidityTier) options.Tier {
	return options.Tier{MinVolume: t.MinVolume, MinOpenInterest: t.MinOpenInterest, MaxSpreadPct: t.MaxSpreadPct}
}
