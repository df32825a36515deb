package recorder

import (
	"context"
	"time"

	"github.com/google/uuid"

	"PremarketScanner/internal/model"
)

// Run kinds.
const (
	KindDigest          = "digest"
	KindScan            = "scan"
	KindEarningsRefresh = "earnings_refresh"
)

// ScanRun journals one ranking or refresh run.
type ScanRun struct {
	ID         string
	Kind       string
	Started    time.Time
	Finished   time.Time
	Requested  int
	Analyzed   int
	TopSymbols []string
	Delivered  bool
	Note       string
	Failures   []model.SymbolError
}

// NewScanRun builds a journal entry from a ranking result.
func NewScanRun(kind string, res model.RankedResult) *ScanRun {
	top := make([]string, 0, len(res.Ranked))
	for _, a := range res.Ranked {
		top = append(top, a.Symbol)
	}
	return &ScanRun{
		ID:         uuid.NewString(),
		Kind:       kind,
		Started:    res.Started,
		Finished:   res.Finished,
		Requested:  res.Requested,
		Analyzed:   res.Analyzed,
		TopSymbols: top,
		Failures:   append([]model.SymbolError(nil), res.Errors...),
	}
}

// Recorder persists the scan-run journal.
type Recorder interface {
	RecordRun(ctx context.Context, run *ScanRun) error
	RecentRuns(ctx context.Context, limit int) ([]ScanRun, error)
	Close() error
}
