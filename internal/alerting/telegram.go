package alerting

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"meme-token-radar/internal/domain"
)

// TelegramNotifier delivers alert notifications through the Telegram
// Bot API with bounded retry.
type TelegramNotifier struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewTelegramNotifier creates a notifier for the given bot token and chat.
func NewTelegramNotifier(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &TelegramNotifier{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// Notify sends the alert message, retrying with linear backoff.
func (n *TelegramNotifier) Notify(ctx context.Context, alert *domain.Alert) error {
	msg := tgbotapi.NewMessage(n.chatID, formatAlertMessage(alert))
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < n.maxRetries; i++ {
		if _, err := n.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(n.retryDelayBase * time.Duration(i+1)):
		}
	}
	return fmt.Errorf("send telegram message after %d retries: %w", n.maxRetries, lastErr)
}

func formatAlertMessage(alert *domain.Alert) string {
	var b strings.Builder

	b.WriteString("🚨 *New Token Alert*\n\n")
	fmt.Fprintf(&b, "🪙 Token: %s \\(%s\\)\n",
		escapeMarkdownV2(alert.Token.Name), escapeMarkdownV2(alert.Token.Symbol))
	fmt.Fprintf(&b, "⛓ Chain: %s\n", escapeMarkdownV2(alert.Token.Blockchain))
	fmt.Fprintf(&b, "🔑 Keyword: %s \\(%s match\\)\n",
		escapeMarkdownV2(alert.Match.Keyword), escapeMarkdownV2(string(alert.Match.Type)))
	fmt.Fprintf(&b, "🎯 Match score: %s\n",
		escapeMarkdownV2(fmt.Sprintf("%.2f", alert.Match.Score)))
	fmt.Fprintf(&b, "🛡 Safety score: %s\n",
		escapeMarkdownV2(fmt.Sprintf("%.2f", alert.Safety.Score)))

	if len(alert.Safety.RiskFactors) > 0 {
		fmt.Fprintf(&b, "⚠️ Risks: %s\n",
			escapeMarkdownV2(strings.Join(alert.Safety.RiskFactors, ", ")))
	}

	fmt.Fprintf(&b, "\n📣 Source: %s", escapeMarkdownV2(alert.Signal.Platform))
	if alert.Signal.URL != "" {
		fmt.Fprintf(&b, "\n🔗 [%s](%s)",
			escapeMarkdownV2(alert.Signal.Title), alert.Signal.URL)
	}
	return b.String()
}

// escapeMarkdownV2 escapes the characters Telegram MarkdownV2 reserves.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}

var _ Notifier = (*TelegramNotifier)(nil)
