package telegram

import (
	"context"
	"errors"
	"net"
	"strings"

	tele "gopkg.in/telebot.v4"
	"golang.org/x/time/rate"
)

type BotConfig struct {
	Token string
	// RatePerSec caps outbound sends; Telegram throttles around 30/s
	// globally and far lower per chat.
	RatePerSec int
	// Offline skips the getMe probe at construction (tests).
	Offline bool
}

// Bot is the telebot-backed Sender.
type Bot struct {
	bot     *tele.Bot
	limiter *rate.Limiter
}

func NewBot(cfg BotConfig) (*Bot, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	b, err := tele.NewBot(tele.Settings{Token: cfg.Token, Offline: cfg.Offline})
	if err != nil {
		return nil, err
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 3
	}
	return &Bot{bot: b, limiter: rate.NewLimiter(rate.Limit(rps), rps)}, nil
}

func (b *Bot) SendMessage(ctx context.Context, chatID int64, text string, silent bool) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := b.bot.Send(&tele.Chat{ID: chatID}, text, &tele.SendOptions{
		ParseMode:             tele.ModeHTML,
		DisableWebPagePreview: true,
		DisableNotification:   silent,
	})
	return err
}

// transient classifies a delivery failure as retryable. Network-level
// failures, timeouts, flood waits and server-side API errors qualify;
// everything else (bad chat id, parse errors, auth) is permanent.
func transient(err error) bool {
	if err == nil {
		return false
	}
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return true
	}
	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code >= 500 || apiErr.Code == 429
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
