// Package notify is the outbound notification channel of a bot
// instance. Sends are best effort: failures are logged and swallowed,
// they never propagate into the trading loop.
package notify

import (
	"fmt"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	logger "github.com/sirupsen/logrus"
)

const messagePrefix = "🤖 TradingBot Pro\n\n"

type Notifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
}

// Telegram pushes messages to one chat.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram init failed: %w", err)
	}
	return &Telegram{bot: b, chatID: chatID}, nil
}

func (t *Telegram) Send(msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, messagePrefix+msg)); err != nil {
		logger.WithError(err).Warn("Telegram send failed")
	}
}

func (t *Telegram) Sendf(format string, args ...any) { t.Send(fmt.Sprintf(format, args...)) }

// Log is the fallback notifier when a user has no telegram target
// configured; messages land in the application log instead.
type Log struct {
	UserID string
}

func (l *Log) Send(msg string) {
	logger.WithField("user_id", l.UserID).Info(msg)
}

func (l *Log) Sendf(format string, args ...any) { l.Send(fmt.Sprintf(format, args...)) }

// ForUser picks telegram when the config carries a token and chat,
// otherwise the log fallback.
func ForUser(userID, token string, chatID int64) Notifier {
	if token == "" || chatID == 0 {
		return &Log{UserID: userID}
	}
	t, err := NewTelegram(token, chatID)
	if err != nil {
		logger.WithField("user_id", userID).
			WithError(err).
			Warn("Telegram unavailable, falling back to log notifier")
		return &Log{UserID: userID}
	}
	return t
}
