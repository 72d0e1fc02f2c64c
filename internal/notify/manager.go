// Package notify dispatches trading events to the registered outbound
// handlers. Dispatch is synchronous: the caller blocks through policy
// resolution, composition, fanout, and every delivery attempt. Handlers
// are leaves with no shared mutable state, so concurrent dispatches are
// safe as long as each call gets its own Event value.
package notify

import (
	"context"

	"tradenotify/internal/event"
	"tradenotify/pkg/logx"
)

// Handler announces one event on one outbound channel. A returned error
// covers that handler's call only; it never aborts the other handlers.
type Handler interface {
	Name() string
	SendMsg(ctx context.Context, ev event.Event) error
}

type Manager struct {
	handlers []Handler
	log      logx.Logger
}

func NewManager(log logx.Logger, handlers ...Handler) *Manager {
	return &Manager{handlers: handlers, log: log}
}

func (m *Manager) Register(hs ...Handler) {
	m.handlers = append(m.handlers, hs...)
}

// Dispatch hands the event to every handler in registration order.
// Handler failures are logged and swallowed: notifications never
// interrupt trading logic.
func (m *Manager) Dispatch(ctx context.Context, ev event.Event) {
	for _, h := range m.handlers {
		if err := h.SendMsg(ctx, ev); err != nil {
			m.log.Error("notification handler failed",
				logx.String("handler", h.Name()),
				logx.String("type", string(ev.Type)),
				logx.Err(err))
		}
	}
}
