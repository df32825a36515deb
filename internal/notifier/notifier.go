package notifier

import (
	"context"
	"errors"
	"fmt"

	"PremarketScanner/internal/logger"
)

// Notifier delivers a formatted message.
type Notifier interface {
	Send(ctx context.Context, text string) error
	Name() string
}

// Multi sends to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Name() string { return "multi" }

func (m Multi) Send(ctx context.Context, text string) error {
	var errs []error
	for _, n := range m {
		if err := n.Send(ctx, text); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes messages to the log. Used when no chat is configured.
type LogNotifier struct {
	Logger *logger.Logger
}

func (l LogNotifier) Name() string { return "log" }

func (l LogNotifier) Send(_ context.Context, text string) error {
	l.Logger.WithField("message", StripHTML(text)).Info("notification")
	return nil
}

func truncate(text string, limit int) string {
	r := []rune(text)
	if len(r) <= limit {
		return text
	}
	return string(r[:limit-1]) + "…"
}
