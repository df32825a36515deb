package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"PremarketScanner/internal/model"
)

// FormatAnalysis renders one ticker analysis as a Telegram HTML message.
func FormatAnalysis(a *model.TickerAnalysis) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> %s", esc(a.Symbol), price(a.LastPrice)))
	b.WriteString(fmt.Sprintf(" (1d %s | 5d %s | 1m %s)\n", pct(a.Change1D), pct(a.Change5D), pct(a.Change1M)))
	if a.High52w != nil && a.Low52w != nil {
		b.WriteString(fmt.Sprintf("52w range: %s - %s\n", price(*a.Low52w), price(*a.High52w)))
	}

	b.WriteString(fmt.Sprintf("%s <b>%s</b> | score %+.2f | risk %s\n", biasEmoji(a.Bias), a.Bias, a.Score, a.Risk))
	if a.ScoreBias != "" && a.ScoreBias != a.Bias {
		b.WriteString(fmt.Sprintf("score leans %s\n", a.ScoreBias))
	}
	b.WriteString(fmt.Sprintf("<i>%s</i>\n\n", esc(a.Rationale)))

	ind := a.Indicators
	b.WriteString(fmt.Sprintf("EMA20 %s | EMA50 %s | RSI %s\n", opt(ind.EMA20, "%.2f"), opt(ind.EMA50, "%.2f"), opt(ind.RSI14, "%.1f")))
	b.WriteString(fmt.Sprintf("MACD hist %s | ATR %s | Vol x%s\n", opt(ind.MACDHist, "%+.4f"), opt(ind.ATRPercent, "%.2f%%"), opt(ind.VolumeRatio, "%.2f")))
	if ind.Policy == "adaptive" {
		b.WriteString(fmt.Sprintf("(adaptive windows over %d bars)\n", ind.Bars))
	}

	if p := a.Plan; p != nil {
		b.WriteString(fmt.Sprintf("\n🎯 <b>Plan</b> (%s): buy %s-%s, target %s, stop %s\n",
			p.Strategy, price(p.BuyLow), price(p.BuyHigh), price(p.Target), price(p.Stop)))
	} else {
		b.WriteString("\n🎯 Plan: n/a (volatility unavailable)\n")
	}

	if a.Option != nil {
		b.WriteString(FormatOption(a.Option))
		b.WriteString("\n")
	}
	if a.Earnings != nil {
		b.WriteString(formatEarningsLine(a.Earnings))
		b.WriteString("\n")
	}
	if a.News != nil {
		b.WriteString(formatNewsLine(a.News))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatOption renders an option pick on one line.
func FormatOption(p *model.OptionPick) string {
	if !p.OK() {
		return fmt.Sprintf("🧾 Option: none (%s)", esc(p.Note))
	}
	c := p.Contract
	return fmt.Sprintf("🧾 Option: <code>%s</code> %s strike %s, exp %s (%d DTE), mid %s, spread %.1f%%, vol %s, OI %s [%s]",
		esc(c.Symbol), sideWord(p.Side), price(c.Strike), p.Expiration, p.DTE, price(c.Mid), c.SpreadPct,
		humanize.Comma(c.Volume), humanize.Comma(c.OpenInterest), p.Tier)
}

// FormatDigest renders a ranking as the scheduled top-picks message.
func FormatDigest(res model.RankedResult, at time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🌅 <b>Premarket top picks</b> | %s\n\n", at.Format("2006-01-02 15:04")))

	if len(res.Ranked) == 0 {
		b.WriteString("No symbol could be analyzed.\n")
	}
	for i, a := range res.Ranked {
		b.WriteString(fmt.Sprintf("%d. %s <b>%s</b> %s %s | score %+.2f | risk %s\n",
			i+1, biasEmoji(rankBias(a)), esc(a.Symbol), rankBias(a), price(a.LastPrice), a.Score, a.Risk))
		if p := a.Plan; p != nil {
			b.WriteString(fmt.Sprintf("   buy %s-%s, target %s, stop %s\n",
				price(p.BuyLow), price(p.BuyHigh), price(p.Target), price(p.Stop)))
		}
		if a.Option != nil && a.Option.OK() {
			c := a.Option.Contract
			b.WriteString(fmt.Sprintf("   <code>%s</code> mid %s, %d DTE, OI %s\n",
				esc(c.Symbol), price(c.Mid), a.Option.DTE, humanize.Comma(c.OpenInterest)))
		}
		if a.Earnings != nil && a.Earnings.InWindow {
			b.WriteString(fmt.Sprintf("   ⚠️ earnings %s\n", a.Earnings.Date.Format("Jan 2")))
		}
	}

	b.WriteString(fmt.Sprintf("\nAnalyzed %d/%d", res.Analyzed, res.Requested))
	if len(res.Errors) > 0 {
		b.WriteString(fmt.Sprintf(", skipped %d (%s)", len(res.Errors), reasonCounts(res.Errors)))
	}
	if !res.Finished.IsZero() && !res.Started.IsZero() {
		b.WriteString(fmt.Sprintf(" in %s", res.Finished.Sub(res.Started).Round(time.Second)))
	}
	b.WriteString("\n")
	return b.String()
}

// FormatEarnings lists the records inside the window and counts the rest.
func FormatEarnings(recs []model.EarningsRecord, days int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📅 <b>Earnings within ±%d days</b>\n\n", days))

	unknown, outside := 0, 0
	for _, r := range recs {
		switch {
		case !r.Resolved():
			unknown++
		case r.InWindow:
			b.WriteString(fmt.Sprintf("• <b>%s</b> %s\n", esc(r.Symbol), r.Date.Format("Mon Jan 2")))
		default:
			outside++
		}
	}
	if unknown+outside == len(recs) {
		b.WriteString("None found.\n")
	}
	if outside > 0 || unknown > 0 {
		b.WriteString(fmt.Sprintf("\n%d outside the window, %d unknown\n", outside, unknown))
	}
	return b.String()
}

// FormatFailure renders a single-symbol failure.
func FormatFailure(symbol, reason, detail string) string {
	msg := fmt.Sprintf("❌ Could not analyze <b>%s</b>: %s", esc(symbol), esc(reason))
	if detail != "" {
		msg += fmt.Sprintf("\n<i>%s</i>", esc(detail))
	}
	return msg
}

var tagReplacer = strings.NewReplacer(
	"<b>", "**", "</b>", "**",
	"<i>", "_", "</i>", "_",
	"<code>", "`", "</code>", "`",
)

// ToMarkdown converts the HTML subset used here to Discord markdown.
func ToMarkdown(text string) string {
	return html.UnescapeString(tagReplacer.Replace(text))
}

var stripReplacer = strings.NewReplacer(
	"<b>", "", "</b>", "",
	"<i>", "", "</i>", "",
	"<code>", "", "</code>", "",
)

// StripHTML removes the formatting tags and unescapes entities.
func StripHTML(text string) string {
	return html.UnescapeString(stripReplacer.Replace(text))
}

func formatEarningsLine(e *model.EarningsRecord) string {
	if !e.Resolved() {
		note := e.Note
		if note == "" {
			note = "unknown"
		}
		return fmt.Sprintf("📅 Earnings: %s", esc(note))
	}
	line := fmt.Sprintf("📅 Earnings: %s", e.Date.Format("2006-01-02"))
	if e.InWindow {
		line += " ⚠️ inside window"
	}
	return line
}

func formatNewsLine(n *model.NewsSignal) string {
	if n.Headlines == 0 {
		note := n.Note
		if note == "" {
			note = "no recent headlines"
		}
		return fmt.Sprintf("📰 News: %s", esc(note))
	}
	return fmt.Sprintf("📰 News %+d over %d headlines: <i>%s</i>", n.Score, n.Headlines, esc(n.Top))
}

// rankBias is the direction a ranking reports: the score sign when known.
func rankBias(a model.TickerAnalysis) model.Bias {
	if a.ScoreBias != "" {
		return a.ScoreBias
	}
	return a.Bias
}

func reasonCounts(errs []model.SymbolError) string {
	counts := map[string]int{}
	for _, e := range errs {
		counts[e.Reason]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %d", k, counts[k]))
	}
	return strings.Join(parts, ", ")
}

func biasEmoji(b model.Bias) string {
	switch b {
	case model.BiasCall:
		return "🟢"
	case model.BiasPut:
		return "🔴"
	default:
		return "⚪"
	}
}

func sideWord(b model.Bias) string {
	if b == model.BiasPut {
		return "put"
	}
	return "call"
}

func price(v float64) string {
	if v < 1 {
		return fmt.Sprintf("%.4f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

func pct(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", *v)
}

func opt(v *float64, format string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf(format, *v)
}

func esc(s string) string { return html.EscapeString(s) }
