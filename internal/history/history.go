// Package history keeps an optional append-only journal of delivery
// outcomes for operator visibility. Journaling is best-effort: errors are
// the caller's to log, and never affect delivery.
package history

import (
	"context"
	"errors"
	"strings"
	"time"

	"tradenotify/pkg/logx"
)

var ErrDisabled = errors.New("history disabled")

// Config configures the journal.
//
// Driver values:
//   - "sqlite": SQLite database file
//   - "" or "none": disabled
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
	Keep        int           // max rows retained; 0 means default
}

// Entry records one delivery attempt series to one recipient.
type Entry struct {
	At        time.Time
	Channel   string
	Recipient string
	ChatID    int64
	EventType string
	Pair      string
	TradeID   int64
	Attempts  int
	Outcome   string
}

// Store is the journal API used by the channel handlers.
type Store interface {
	Append(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// Open initializes the configured store. It returns (nil, nil) when the
// journal is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	switch driver {
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown history driver: " + driver)
	}
}
