package scanner

import (
	"context"
	"errors"
	"fmt"

	"PremarketScanner/internal/collector"
)

// Reason classifies why a symbol could not be analyzed.
type Reason string

const (
	ReasonNoData        Reason = "no_data"
	ReasonTimeout       Reason = "timeout"
	ReasonCanceled      Reason = "canceled"
	ReasonIlliquid      Reason = "illiquid"
	ReasonInvalidSymbol Reason = "invalid_symbol"
	ReasonError         Reason = "error"
)

var (
	// ErrInvalidSymbol is returned for empty or malformed symbols.
	ErrInvalidSymbol = errors.New("invalid symbol")
	// ErrIlliquid is returned when a symbol fails the liquidity gate.
	ErrIlliquid = errors.New("below liquidity threshold")
)

// Failure is a per-symbol analysis failure.
type Failure struct {
	Symbol string
	Reason Reason
	Err    error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s: %v", f.Symbol, f.Reason, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// ReasonFor maps an error to a failure reason.
func ReasonFor(err error) Reason {
	var f *Failure
	switch {
	case errors.As(err, &f):
		return f.Reason
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, context.Canceled):
		return ReasonCanceled
	case errors.Is(err, ErrInvalidSymbol):
		return ReasonInvalidSymbol
	case errors.Is(err, ErrIlliquid):
		return ReasonIlliquid
	case errors.Is(err, collector.ErrNoData):
		return ReasonNoData
	default:
		return ReasonError
	}
}

func fail(symbol string, err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return &Failure{Symbol: symbol, Reason: ReasonFor(err), Err: err}
}
