package news

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"PremarketScanner/internal/logger"
)

type fakeSource struct {
	titles []string
	err    error
	limit  int
}

func (f *fakeSource) Headlines(_ context.Context, _ string, limit int) ([]string, error) {
	f.limit = limit
	return f.titles, f.err
}

func TestScoreHeadlines(t *testing.T) {
	tests := []struct {
		name   string
		titles []string
		want   int
	}{
		{"empty", nil, 0},
		{"positive", []string{"Apple BEATS estimates", "Record quarter"}, 2},
		{"negative", []string{"Chipmaker shares drop", "Lawsuit filed", "Guidance cut"}, -3},
		{"both in one headline", []string{"Upgrade despite weak margins"}, 0},
		{"whole words only", []string{"Cupertino update", "Download stats"}, 0},
		{"one count per headline", []string{"Strong growth, record rally"}, 1},
		{"mixed", []string{"Stock up after upgrade", "Analysts see downgrade"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScoreHeadlines(tt.titles))
		})
	}
}

func TestScorer_Score(t *testing.T) {
	src := &fakeSource{titles: []string{"Shares rally on strong demand", "Upgrade to buy", "Quiet session"}}
	sig := NewScorer(src, 0, logger.Nop()).Score(context.Background(), "AAPL")

	assert.Equal(t, DefaultLimit, src.limit)
	assert.Equal(t, 2, sig.Score)
	assert.Equal(t, 3, sig.Headlines)
	assert.Equal(t, "Shares rally on strong demand", sig.Top)
	assert.Empty(t, sig.Note)
}

func TestScorer_TrimsToLimit(t *testing.T) {
	src := &fakeSource{titles: []string{"Beat", "Beat", "Beat"}}
	sig := NewScorer(src, 2, logger.Nop()).Score(context.Background(), "AAPL")
	assert.Equal(t, 2, sig.Score)
	assert.Equal(t, 2, sig.Headlines)
}

func TestScorer_Degrades(t *testing.T) {
	sig := NewScorer(&fakeSource{err: errors.New("503")}, 5, logger.Nop()).Score(context.Background(), "AAPL")
	assert.Zero(t, sig.Score)
	assert.Equal(t, "news unavailable", sig.Note)

	sig = NewScorer(&fakeSource{}, 5, logger.Nop()).Score(context.Background(), "AAPL")
	assert.Zero(t, sig.Score)
	assert.Equal(t, "no recent headlines", sig.Note)
}
