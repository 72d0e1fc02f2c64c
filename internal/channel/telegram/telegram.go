// Package telegram announces trading events on a Telegram chat channel.
//
// The handler resolves the notification policy, composes the message
// once, resolves the recipient fanout, and delivers to each recipient
// with a single bounded retry. A failing recipient never aborts the
// rest of the fanout.
package telegram

import (
	"context"
	"sync"

	"tradenotify/internal/compose"
	"tradenotify/internal/event"
	"tradenotify/internal/fanout"
	"tradenotify/internal/history"
	"tradenotify/internal/policy"
	"tradenotify/pkg/logx"
)

// Sender performs one send attempt to one chat. silent is the channel's
// delivery hint (no alert tone); it never alters retry behavior.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, silent bool) error
}

type Outcome string

const (
	Delivered        Outcome = "delivered"
	DroppedTransient Outcome = "dropped_transient"
	DroppedPermanent Outcome = "dropped_permanent"
)

// DeliveryResult describes what happened to one recipient's copy.
type DeliveryResult struct {
	Recipient fanout.Recipient
	Attempts  int
	Outcome   Outcome
}

// Client delivers one message to one recipient. It retries exactly once
// on a transient failure and never propagates errors upward.
type Client struct {
	sender Sender
	log    logx.Logger
}

func NewClient(sender Sender, log logx.Logger) *Client {
	return &Client{sender: sender, log: log}
}

func (c *Client) Deliver(ctx context.Context, text string, r fanout.Recipient, silent bool) DeliveryResult {
	err := c.sender.SendMessage(ctx, r.ChatID, text, silent)
	if err == nil {
		return DeliveryResult{Recipient: r, Attempts: 1, Outcome: Delivered}
	}
	if !transient(err) {
		c.log.Warn("telegram error, giving up on that message",
			logx.Int64("chat_id", r.ChatID), logx.Err(err))
		return DeliveryResult{Recipient: r, Attempts: 1, Outcome: DroppedPermanent}
	}

	c.log.Warn("telegram network error, trying one more time",
		logx.Int64("chat_id", r.ChatID), logx.Err(err))
	err = c.sender.SendMessage(ctx, r.ChatID, text, silent)
	if err == nil {
		return DeliveryResult{Recipient: r, Attempts: 2, Outcome: Delivered}
	}
	out := DroppedPermanent
	if transient(err) {
		out = DroppedTransient
	}
	c.log.Warn("telegram delivery failed, dropping message",
		logx.Int64("chat_id", r.ChatID), logx.String("outcome", string(out)), logx.Err(err))
	return DeliveryResult{Recipient: r, Attempts: 2, Outcome: out}
}

// Handler is the Telegram notification handler.
type Handler struct {
	composer *compose.Composer
	client   *Client
	journal  history.Store
	log      logx.Logger

	mu     sync.RWMutex
	policy policy.Table
	fan    *fanout.Resolver
}

func NewHandler(composer *compose.Composer, client *Client, tbl policy.Table, fan *fanout.Resolver, journal history.Store, log logx.Logger) *Handler {
	return &Handler{
		composer: composer,
		client:   client,
		journal:  journal,
		log:      log,
		policy:   tbl,
		fan:      fan,
	}
}

func (h *Handler) Name() string { return "telegram" }

// Apply swaps the policy and fanout tables, for config hot reload.
// In-flight dispatches keep the snapshot they started with.
func (h *Handler) Apply(tbl policy.Table, fan *fanout.Resolver) {
	h.mu.Lock()
	h.policy = tbl
	h.fan = fan
	h.mu.Unlock()
}

func (h *Handler) SendMsg(ctx context.Context, ev event.Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	h.mu.RLock()
	tbl, fan := h.policy, h.fan
	h.mu.RUnlock()

	setting := tbl.Resolve(ev.Type, ev.ExitReason)
	if setting == policy.Off {
		h.log.Info("notification not sent", logx.String("type", string(ev.Type)))
		return nil
	}

	text := h.composer.Compose(ev)
	recipients := fan.RecipientsFor(ev.Type)
	if len(recipients) == 0 {
		h.log.Info("message composed but no recipients configured",
			logx.String("type", string(ev.Type)))
		return nil
	}

	silent := setting == policy.Silent
	for _, r := range recipients {
		res := h.client.Deliver(ctx, text, r, silent)
		h.record(ctx, ev, res)
	}
	return nil
}

func (h *Handler) record(ctx context.Context, ev event.Event, res DeliveryResult) {
	if h.journal == nil {
		return
	}
	err := h.journal.Append(ctx, history.Entry{
		Channel:   h.Name(),
		Recipient: res.Recipient.Name,
		ChatID:    res.Recipient.ChatID,
		EventType: string(ev.Type),
		Pair:      ev.Pair,
		TradeID:   ev.TradeID,
		Attempts:  res.Attempts,
		Outcome:   string(res.Outcome),
	})
	if err != nil {
		h.log.Debug("history append failed", logx.Err(err))
	}
}
