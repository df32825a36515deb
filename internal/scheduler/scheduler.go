package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"PremarketScanner/internal/logger"
	"PremarketScanner/internal/model"
	"PremarketScanner/internal/notifier"
	"PremarketScanner/internal/recorder"
)

// Ranker ranks a symbol universe.
type Ranker interface {
	RankUniverse(ctx context.Context, symbols []string, topN int) model.RankedResult
}

// Refresher warms the earnings cache for a set of symbols.
type Refresher interface {
	Refresh(ctx context.Context, symbols []string) (int, error)
}

// Universe supplies the symbols to scan and where they came from.
type Universe interface {
	Symbols() ([]string, string)
}

// Options configures the cron jobs.
type Options struct {
	DigestCron   string
	EarningsCron string
	TopN         int
	Location     *time.Location
}

// Scheduler manages the digest and earnings-refresh cron jobs.
type Scheduler struct {
	Cron      *cron.Cron
	Ranker    Ranker
	Refresher Refresher
	Universe  Universe
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
	Ctx       context.Context

	opts   Options
	logger *logger.Logger
	now    func() time.Time
}

// NewScheduler creates a new Scheduler. refresher may be nil when earnings
// are disabled.
func NewScheduler(ctx context.Context, ranker Ranker, refresher Refresher, uni Universe,
	n notifier.Notifier, rec recorder.Recorder, opts Options, log *logger.Logger) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	cl := cronLogger{log: log.WithField("component", "cron")}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(opts.Location),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		Ranker:    ranker,
		Refresher: refresher,
		Universe:  uni,
		Notifier:  n,
		Recorder:  rec,
		Ctx:       ctx,
		opts:      opts,
		logger:    log,
		now:       time.Now,
	}
}

// WithClock overrides the wall clock used for digest headers.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// RegisterAll registers the digest job and, when a refresher is set, the
// earnings refresh job.
func (s *Scheduler) RegisterAll() error {
	if _, err := s.Cron.AddFunc(s.opts.DigestCron, func() { s.RunDigestNow() }); err != nil {
		return fmt.Errorf("register digest task: %w", err)
	}
	if s.Refresher == nil {
		return nil
	}
	if _, err := s.Cron.AddFunc(s.opts.EarningsCron, func() { s.RunEarningsRefreshNow() }); err != nil {
		return fmt.Errorf("register earnings refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.WithFields(map[string]interface{}{
		"digest":   s.opts.DigestCron,
		"earnings": s.opts.EarningsCron,
		"timezone": s.opts.Location.String(),
	}).Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunDigestNow executes the digest job immediately.
func (s *Scheduler) RunDigestNow() *recorder.ScanRun {
	run, err := s.Digest(s.Ctx)
	if err != nil {
		s.logger.WithError(err).Error("digest delivery failed")
	}
	return run
}

// RunEarningsRefreshNow executes the earnings refresh job immediately.
func (s *Scheduler) RunEarningsRefreshNow() *recorder.ScanRun {
	run, err := s.EarningsRefresh(s.Ctx)
	if err != nil {
		s.logger.WithError(err).Error("earnings refresh failed")
	}
	return run
}

// Digest ranks the universe, posts the top picks and journals the run. The
// run is returned even when delivery fails.
func (s *Scheduler) Digest(ctx context.Context) (*recorder.ScanRun, error) {
	symbols, source := s.Universe.Symbols()
	log := s.logger.WithFields(map[string]interface{}{"universe": source, "symbols": len(symbols)})
	log.Info("running digest")

	res := s.Ranker.RankUniverse(ctx, symbols, s.opts.TopN)
	run := recorder.NewScanRun(recorder.KindDigest, res)

	sendErr := s.Notifier.Send(ctx, notifier.FormatDigest(res, s.now().In(s.opts.Location)))
	run.Delivered = sendErr == nil
	if sendErr != nil {
		run.Note = sendErr.Error()
	}

	s.record(run)
	log.WithFields(map[string]interface{}{
		"run_id":   run.ID,
		"analyzed": res.Analyzed,
		"skipped":  len(res.Errors),
	}).Info("digest finished")
	return run, sendErr
}

// EarningsRefresh re-resolves earnings for the whole universe.
func (s *Scheduler) EarningsRefresh(ctx context.Context) (*recorder.ScanRun, error) {
	if s.Refresher == nil {
		return nil, fmt.Errorf("earnings refresh is disabled")
	}
	symbols, source := s.Universe.Symbols()
	run := recorder.NewScanRun(recorder.KindEarningsRefresh, model.RankedResult{
		Requested: len(symbols),
		Started:   time.Now(),
	})

	n, err := s.Refresher.Refresh(ctx, symbols)
	run.Finished = time.Now()
	run.Analyzed = n
	run.Note = fmt.Sprintf("%d of %d resolved from %s", n, len(symbols), source)
	if err != nil {
		run.Note += ": " + err.Error()
	}

	s.record(run)
	s.logger.WithFields(map[string]interface{}{
		"run_id":   run.ID,
		"symbols":  len(symbols),
		"resolved": n,
	}).Info("earnings refresh finished")
	return run, err
}

func (s *Scheduler) record(run *recorder.ScanRun) {
	if err := s.Recorder.RecordRun(context.WithoutCancel(s.Ctx), run); err != nil {
		s.logger.WithError(err).WithField("run_id", run.ID).Error("record scan run")
	}
}

// cronLogger routes cron's own logging through the application logger.
type cronLogger struct {
	log *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.WithFields(pairs(keysAndValues)).Debug(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.WithError(err).WithFields(pairs(keysAndValues)).Error(msg)
}

func pairs(kv []interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return out
}
