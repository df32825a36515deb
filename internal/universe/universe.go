package universe

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"PremarketScanner/internal/logger"
)

// Fallback is used when nothing else is configured, so the universe is
// never empty.
var Fallback = []string{"AAPL", "MSFT", "NVDA", "TSLA", "AMZN", "AMD", "JPM"}

// Where a universe came from.
const (
	SourceAllTickers = "all_tickers"
	SourceFile       = "symbols_file"
	SourceScanList   = "scan_universe"
	SourceFallback   = "fallback"
)

// Config lists the universe inputs in priority order.
type Config struct {
	AllTickers   []string
	SymbolsFile  string
	ScanUniverse []string
}

// Manager resolves the symbol universe. The symbols file is re-read only
// when its modification time changes.
type Manager struct {
	cfg    Config
	logger *logger.Logger

	mu      sync.Mutex
	modTime time.Time
	cached  []string
}

// NewManager creates a Manager.
func NewManager(cfg Config, log *logger.Logger) *Manager {
	return &Manager{cfg: cfg, logger: log}
}

// Symbols returns the current universe and the name of its source:
// the explicit ticker list, then the symbols file, then the scan list, then
// Fallback.
func (m *Manager) Symbols() ([]string, string) {
	if syms := clean(m.cfg.AllTickers); len(syms) > 0 {
		return syms, SourceAllTickers
	}
	if syms := m.fromFile(); len(syms) > 0 {
		return syms, SourceFile
	}
	if syms := clean(m.cfg.ScanUniverse); len(syms) > 0 {
		return syms, SourceScanList
	}
	return append([]string(nil), Fallback...), SourceFallback
}

func (m *Manager) fromFile() []string {
	if m.cfg.SymbolsFile == "" {
		return nil
	}
	info, err := os.Stat(m.cfg.SymbolsFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			m.logger.WithField("path", m.cfg.SymbolsFile).WithError(err).Warn("symbols file unreadable")
		}
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cached != nil && info.ModTime().Equal(m.modTime) {
		return append([]string(nil), m.cached...)
	}
	syms, err := LoadFile(m.cfg.SymbolsFile)
	if err != nil {
		m.logger.WithField("path", m.cfg.SymbolsFile).WithError(err).Warn("symbols file unreadable")
		return nil
	}
	m.cached, m.modTime = syms, info.ModTime()
	m.logger.WithFields(map[string]interface{}{
		"path":    m.cfg.SymbolsFile,
		"symbols": len(syms),
	}).Info("symbols file loaded")
	return append([]string(nil), syms...)
}

// LoadFile reads one symbol per line. Blank lines and lines starting with
// '#' are skipped; symbols are upper-cased and de-duplicated.
func LoadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open symbols file: %w", err)
	}
	defer f.Close()

	var raw []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		raw = append(raw, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read symbols file: %w", err)
	}
	return clean(raw), nil
}

func clean(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	var out []string
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
