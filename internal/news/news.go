package news

import (
	"context"
	"strings"
	"unicode"

	"PremarketScanner/internal/logger"
	"PremarketScanner/internal/model"
)

// DefaultLimit is how many recent headlines are scored.
const DefaultLimit = 12

// Source lists recent headlines for a symbol, newest first.
type Source interface {
	Headlines(ctx context.Context, symbol string, limit int) ([]string, error)
}

var (
	positive = words("surge", "beat", "beats", "strong", "upgrade", "record", "growth", "bull", "rally", "up")
	negative = words("miss", "misses", "downgrade", "weak", "lawsuit", "investigation", "fall", "drop", "down", "cuts", "cut")
)

func words(ws ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(ws))
	for _, w := range ws {
		m[w] = struct{}{}
	}
	return m
}

// ScoreHeadlines counts headlines with a positive keyword minus headlines
// with a negative one. A headline with both counts both ways. Keywords
// match whole words, case-insensitively.
func ScoreHeadlines(titles []string) int {
	score := 0
	for _, t := range titles {
		pos, neg := false, false
		for _, w := range strings.FieldsFunc(strings.ToLower(t), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}) {
			if _, ok := positive[w]; ok {
				pos = true
			}
			if _, ok := negative[w]; ok {
				neg = true
			}
		}
		if pos {
			score++
		}
		if neg {
			score--
		}
	}
	return score
}

// Scorer turns provider headlines into a NewsSignal. It never fails: a
// provider error yields a zero score with a note.
type Scorer struct {
	source Source
	limit  int
	logger *logger.Logger
}

// NewScorer creates a Scorer. A non-positive limit uses DefaultLimit.
func NewScorer(source Source, limit int, log *logger.Logger) *Scorer {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Scorer{source: source, limit: limit, logger: log}
}

// Score fetches and scores the latest headlines for symbol.
func (s *Scorer) Score(ctx context.Context, symbol string) model.NewsSignal {
	titles, err := s.source.Headlines(ctx, symbol, s.limit)
	if err != nil {
		s.logger.WithField("symbol", symbol).WithError(err).Debug("news unavailable")
		return model.NewsSignal{Note: "news unavailable"}
	}
	if len(titles) > s.limit {
		titles = titles[:s.limit]
	}
	sig := model.NewsSignal{Score: ScoreHeadlines(titles), Headlines: len(titles)}
	if len(titles) == 0 {
		sig.Note = "no recent headlines"
		return sig
	}
	sig.Top = titles[0]
	return sig
}
