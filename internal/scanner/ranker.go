package scanner

import (
	"context"
	"math"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"PremarketScanner/internal/model"
	"PremarketScanner/internal/trace"
)

// RankUniverse analyzes symbols concurrently on the ranking timeframe and
// returns the topN by absolute score. Duplicate symbols are analyzed once.
// Every requested symbol ends up either ranked or in Errors; a canceled
// context marks the symbols not yet started as canceled and keeps whatever
// was already computed. topN <= 0 keeps every ranked symbol.
func (s *Scanner) RankUniverse(ctx context.Context, symbols []string, topN int) model.RankedResult {
	uniq := dedupeSymbols(symbols)
	res := model.RankedResult{Requested: len(uniq), Started: s.now()}

	ctx, span := trace.StartSpan(ctx, "scanner.RankUniverse",
		attribute.Int("symbols", len(uniq)),
		attribute.Int("top_n", topN),
	)
	defer span.End()

	analyses := make([]*model.TickerAnalysis, len(uniq))
	failures := make([]*Failure, len(uniq))

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, sym := range uniq {
		i, sym := i, sym
		if err := ctx.Err(); err != nil {
			failures[i] = &Failure{Symbol: sym, Reason: ReasonCanceled, Err: err}
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				failures[i] = &Failure{Symbol: sym, Reason: ReasonCanceled, Err: err}
				return nil
			}
			symCtx, cancel := context.WithTimeout(ctx, s.cfg.SymbolTimeout)
			defer cancel()

			a, err := s.AnalyzeSymbol(symCtx, sym, s.cfg.RankPeriod, s.cfg.RankInterval)
			if err != nil {
				f := fail(sym, err)
				// The per-symbol deadline and the batch context both surface as
				// context errors; only the batch one counts as canceled.
				if f.Reason == ReasonCanceled && ctx.Err() == nil {
					f.Reason = ReasonTimeout
				}
				if f.Reason == ReasonTimeout && ctx.Err() != nil {
					f.Reason = ReasonCanceled
				}
				failures[i] = f
				return nil
			}
			analyses[i] = a
			return nil
		})
	}
	_ = g.Wait()

	for i := range uniq {
		switch {
		case analyses[i] != nil:
			res.Ranked = append(res.Ranked, *analyses[i])
		case failures[i] != nil:
			f := failures[i]
			s.logger.WithFields(map[string]interface{}{
				"symbol": f.Symbol,
				"reason": string(f.Reason),
			}).WithError(f.Err).Warn("symbol skipped")
			res.Errors = append(res.Errors, model.SymbolError{
				Symbol: f.Symbol,
				Reason: string(f.Reason),
				Detail: errDetail(f.Err),
			})
		}
	}
	res.Analyzed = len(res.Ranked)

	SortRanked(res.Ranked)
	if topN > 0 && len(res.Ranked) > topN {
		res.Ranked = res.Ranked[:topN]
	}
	res.Finished = s.now()

	span.SetAttributes(
		attribute.Int("analyzed", res.Analyzed),
		attribute.Int("errors", len(res.Errors)),
	)
	s.logger.WithFields(map[string]interface{}{
		"requested": res.Requested,
		"analyzed":  res.Analyzed,
		"errors":    len(res.Errors),
		"elapsed":   res.Finished.Sub(res.Started).String(),
	}).Info("universe ranked")
	return res
}

// SortRanked orders analyses by absolute score descending, then lower risk,
// then symbol.
func SortRanked(ranked []model.TickerAnalysis) {
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if sa, sb := math.Abs(a.Score), math.Abs(b.Score); sa != sb {
			return sa > sb
		}
		if a.Risk != b.Risk {
			return a.Risk < b.Risk
		}
		return a.Symbol < b.Symbol
	})
}

// EarningsInWindow resolves earnings for symbols and flags the ones within
// days of today. Records are sorted by date with unresolved symbols last.
// It returns nil when earnings lookups are disabled.
func (s *Scanner) EarningsInWindow(ctx context.Context, symbols []string, days int) []model.EarningsRecord {
	if s.earnings == nil {
		return nil
	}
	ctx, span := trace.StartSpan(ctx, "scanner.EarningsInWindow",
		attribute.Int("symbols", len(symbols)),
		attribute.Int("days", days),
	)
	defer span.End()
	return s.earnings.Check(ctx, symbols, days)
}

func dedupeSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		key := strings.ToUpper(strings.TrimSpace(sym))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}

func errDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
