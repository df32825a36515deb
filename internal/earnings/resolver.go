package earnings

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"PremarketScanner/internal/logger"
	"PremarketScanner/internal/model"
)

// Source is the provider surface used to resolve earnings dates.
type Source interface {
	EarningsDates(ctx context.Context, symbol string) ([]time.Time, error)
	CalendarEvents(ctx context.Context, symbol string) (map[string][]any, error)
	QuoteInfo(ctx context.Context, symbol string) (map[string]any, error)
}

// Resolution sources, in priority order.
const (
	SourceEarningsDates = "earnings_dates"
	SourceCalendar      = "calendar"
	SourceQuoteInfo     = "quote_info"
	SourceSkipped       = "skipped"
)

// DefaultInlineCap bounds live lookups done by one interactive Check call.
const DefaultInlineCap = 25

const refreshConcurrency = 4

// ETFs have no earnings; they are answered without a provider call.
var ETFs = map[string]bool{
	"SPY": true, "QQQ": true, "IWM": true, "DIA": true,
	"XLK": true, "XLE": true, "XLF": true, "XLV": true, "XLY": true,
	"XLI": true, "XLP": true, "XLB": true, "XLU": true, "XLC": true,
}

var infoFields = []string{"earningsTimestamp", "earningsTimestampStart", "earningsTimestampEnd"}

var calendarKeys = []string{"Earnings Date", "earningsDate", "earnings_date"}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"Jan 2, 2006",
	"2006/01/02",
}

// Resolver finds the nearest earnings date for a symbol through several
// provider fallbacks and answers window questions about it.
type Resolver struct {
	source    Source
	cache     *Cache
	now       func() time.Time
	loc       *time.Location
	inlineCap int
	logger    *logger.Logger
}

// NewResolver creates a Resolver. A nil cache disables caching.
func NewResolver(source Source, cache *Cache, log *logger.Logger) *Resolver {
	return &Resolver{
		source:    source,
		cache:     cache,
		now:       time.Now,
		loc:       time.UTC,
		inlineCap: DefaultInlineCap,
		logger:    log,
	}
}

// WithClock sets the clock used to decide what "today" is.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// WithLocation sets the market timezone used for calendar dates.
func (r *Resolver) WithLocation(loc *time.Location) *Resolver {
	if loc != nil {
		r.loc = loc
	}
	return r
}

// WithInlineCap sets how many live lookups Check may perform.
func (r *Resolver) WithInlineCap(n int) *Resolver {
	if n > 0 {
		r.inlineCap = n
	}
	return r
}

// Today returns the current calendar date in the resolver's location.
func (r *Resolver) Today() time.Time {
	return civil(r.now().In(r.loc))
}

// Resolve returns the earnings record for symbol. The bool is false when no
// provider field yielded a date; the record's Note says why.
func (r *Resolver) Resolve(ctx context.Context, symbol string) (model.EarningsRecord, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if ETFs[symbol] {
		return model.EarningsRecord{Symbol: symbol, Source: SourceSkipped, Note: "ETF, no earnings"}, false
	}
	if r.cache != nil {
		if rec, ok := r.cache.Get(symbol); ok {
			return rec, rec.Resolved()
		}
	}

	rec := r.lookup(ctx, symbol)
	// An aborted lookup says nothing about the symbol; keep it out of the cache.
	if ctx.Err() == nil && r.cache != nil {
		r.cache.Put(symbol, rec)
	}
	return rec, rec.Resolved()
}

// InWindow reports whether symbol's earnings date is within days of today.
// Unresolved symbols are never in the window.
func (r *Resolver) InWindow(ctx context.Context, symbol string, days int) bool {
	rec, ok := r.Resolve(ctx, symbol)
	return ok && WithinWindow(*rec.Date, r.Today(), days)
}

// Check resolves a batch of symbols. Symbols are upper-cased and
// de-duplicated; at most the inline cap of them trigger live lookups and the
// rest are answered from cache only. Results are sorted by date, unresolved
// symbols last.
func (r *Resolver) Check(ctx context.Context, symbols []string, days int) []model.EarningsRecord {
	uniq := dedupe(symbols)
	today := r.Today()
	out := make([]model.EarningsRecord, len(uniq))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshConcurrency)
	live := 0
	for i, sym := range uniq {
		i, sym := i, sym
		if !ETFs[sym] && !r.cached(sym) {
			if live >= r.inlineCap {
				out[i] = model.EarningsRecord{Symbol: sym, Note: "not looked up inline, left to the scheduled refresh"}
				continue
			}
			live++
		}
		g.Go(func() error {
			rec, _ := r.Resolve(gctx, sym)
			out[i] = rec
			return nil
		})
	}
	_ = g.Wait()

	for i := range out {
		if out[i].Resolved() {
			out[i].InWindow = WithinWindow(*out[i].Date, today, days)
		}
	}
	SortByDate(out)
	return out
}

// Refresh resolves every symbol bypassing fresh cache entries and stores the
// results. It returns how many symbols resolved to a date.
func (r *Resolver) Refresh(ctx context.Context, symbols []string) (int, error) {
	uniq := dedupe(symbols)
	resolved := make([]bool, len(uniq))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshConcurrency)
	for i, sym := range uniq {
		i, sym := i, sym
		if ETFs[sym] {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec := r.lookup(gctx, sym)
			if gctx.Err() != nil {
				return gctx.Err()
			}
			if r.cache != nil {
				r.cache.Put(sym, rec)
			}
			resolved[i] = rec.Resolved()
			return nil
		})
	}
	err := g.Wait()

	n := 0
	for _, ok := range resolved {
		if ok {
			n++
		}
	}
	r.logger.WithFields(map[string]interface{}{"symbols": len(uniq), "resolved": n}).Info("earnings refresh finished")
	return n, err
}

func (r *Resolver) cached(symbol string) bool {
	if r.cache == nil {
		return false
	}
	_, ok := r.cache.Get(symbol)
	return ok
}

// lookup walks the provider fields in priority order and stops at the first
// one that yields a date.
func (r *Resolver) lookup(ctx context.Context, symbol string) model.EarningsRecord {
	rec := model.EarningsRecord{Symbol: symbol}
	log := r.logger.WithField("symbol", symbol)
	var causes []string

	if dates, err := r.source.EarningsDates(ctx, symbol); err != nil {
		causes = append(causes, fmt.Sprintf("%s: %v", SourceEarningsDates, err))
	} else if d, ok := pickNearest(dates, r.loc, r.Today()); ok {
		return r.found(rec, d, SourceEarningsDates)
	}

	if cal, err := r.source.CalendarEvents(ctx, symbol); err != nil {
		causes = append(causes, fmt.Sprintf("%s: %v", SourceCalendar, err))
	} else if d, ok := calendarDate(cal, r.loc); ok {
		return r.found(rec, d, SourceCalendar)
	}

	if info, err := r.source.QuoteInfo(ctx, symbol); err != nil {
		causes = append(causes, fmt.Sprintf("%s: %v", SourceQuoteInfo, err))
	} else if d, ok := infoDate(info, r.loc); ok {
		return r.found(rec, d, SourceQuoteInfo)
	}

	rec.Note = "earnings date unknown"
	if len(causes) > 0 {
		rec.Note += " (" + strings.Join(causes, "; ") + ")"
	}
	log.Debug("earnings date unresolved")
	return rec
}

func (r *Resolver) found(rec model.EarningsRecord, d time.Time, source string) model.EarningsRecord {
	rec.Date = &d
	rec.Source = source
	return rec
}

// WithinWindow reports whether date lies within days calendar days of today,
// in either direction.
func WithinWindow(date, today time.Time, days int) bool {
	diff := int(math.Round(civil(date).Sub(civil(today)).Hours() / 24))
	if diff < 0 {
		diff = -diff
	}
	return diff <= days
}

// SortByDate orders records by date, unresolved records last by symbol.
func SortByDate(recs []model.EarningsRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		switch {
		case a.Resolved() && b.Resolved():
			if !a.Date.Equal(*b.Date) {
				return a.Date.Before(*b.Date)
			}
			return a.Symbol < b.Symbol
		case a.Resolved() != b.Resolved():
			return a.Resolved()
		default:
			return a.Symbol < b.Symbol
		}
	})
}

// pickNearest returns the earliest date on or after today, else the most
// recent past date.
func pickNearest(dates []time.Time, loc *time.Location, today time.Time) (time.Time, bool) {
	var future, past []time.Time
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		c := civil(d.In(loc))
		if c.Before(today) {
			past = append(past, c)
		} else {
			future = append(future, c)
		}
	}
	if len(future) > 0 {
		sort.Slice(future, func(i, j int) bool { return future[i].Before(future[j]) })
		return future[0], true
	}
	if len(past) > 0 {
		sort.Slice(past, func(i, j int) bool { return past[i].After(past[j]) })
		return past[0], true
	}
	return time.Time{}, false
}

func calendarDate(cal map[string][]any, loc *time.Location) (time.Time, bool) {
	for _, key := range calendarKeys {
		for _, v := range cal[key] {
			if t, ok := parseDateValue(v, loc); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func infoDate(info map[string]any, loc *time.Location) (time.Time, bool) {
	for _, field := range infoFields {
		v, ok := info[field]
		if !ok {
			continue
		}
		if t, ok := epochValue(v, loc); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseDateValue(v any, loc *time.Location) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return time.Time{}, false
		}
		return civil(x.In(loc)), true
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range dateLayouts {
			if t, err := time.ParseInLocation(layout, s, loc); err == nil {
				return civil(t), true
			}
		}
		return time.Time{}, false
	default:
		return epochValue(v, loc)
	}
}

// epochValue reads a Unix timestamp in seconds, or milliseconds when the
// value is too large to be seconds.
func epochValue(v any, loc *time.Location) (time.Time, bool) {
	var sec float64
	switch x := v.(type) {
	case float64:
		sec = x
	case int64:
		sec = float64(x)
	case int:
		sec = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return time.Time{}, false
		}
		sec = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return time.Time{}, false
		}
		sec = f
	default:
		return time.Time{}, false
	}
	if !(sec > 0) || math.IsInf(sec, 0) {
		return time.Time{}, false
	}
	if sec > 1e12 {
		sec /= 1000
	}
	return civil(time.Unix(int64(sec), 0).In(loc)), true
}

func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dedupe(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
