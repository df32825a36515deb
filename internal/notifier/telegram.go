package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"PremarketScanner/internal/logger"
)

const telegramLimit = 4096

// TelegramNotifier sends HTML messages through the Telegram Bot API.
type TelegramNotifier struct {
	bot        *tgbotapi.BotAPI
	chatID     int64
	maxRetries int
	retryDelay time.Duration
	logger     *logger.Logger
}

// TelegramOptions configures a TelegramNotifier.
type TelegramOptions struct {
	BotToken   string
	ChatID     string
	ProxyURL   string
	Endpoint   string // tgbotapi endpoint format, defaults to the public API
	MaxRetries int
	RetryDelay time.Duration
}

// NewTelegramNotifier creates a notifier with optional proxy support. It
// calls getMe once to validate the token.
func NewTelegramNotifier(opts TelegramOptions, log *logger.Logger) (*TelegramNotifier, error) {
	chatID, err := strconv.ParseInt(opts.ChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	transport := &http.Transport{}
	if opts.ProxyURL != "" {
		if u, err := url.Parse(opts.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	client := &http.Client{Timeout: 30 * time.Second, Transport: transport}

	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithClient(opts.BotToken, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	return &TelegramNotifier{
		bot:        bot,
		chatID:     chatID,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		logger:     log,
	}, nil
}

func (t *TelegramNotifier) Name() string { return "telegram" }

// send delivers text once.
func (t *TelegramNotifier) send(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, truncate(text, telegramLimit))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// Send delivers text with retries.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	return t.SendWithRetry(ctx, text, t.maxRetries)
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		err := t.send(text)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == maxRetries {
			break
		}
		backoff := t.retryDelay * time.Duration(1<<uint(i))
		t.logger.WithFields(map[string]interface{}{
			"attempt": i + 1,
			"of":      maxRetries + 1,
			"backoff": backoff.String(),
		}).WithError(err).Warn("telegram send failed")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("all %d attempts exhausted: %w", maxRetries+1, lastErr)
}
