package config

import (
	"tradenotify/internal/policy"
)

// Config is the notifier daemon configuration. Files may be JSON or
// YAML; YAML is coerced to JSON and both are decoded strictly, so
// unknown keys fail at load.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type Config struct {
	// UID identifies this bot instance in message headers.
	UID      string `json:"uid"`
	Exchange string `json:"exchange"`

	Logging  LoggingConfig   `json:"logging"`
	Telegram *TelegramConfig `json:"telegram,omitempty"`
	Webhook  *WebhookConfig  `json:"webhook,omitempty"`
	Fiat     *FiatConfig     `json:"fiat,omitempty"`
	History  *HistoryConfig  `json:"history,omitempty"`
	Server   ServerConfig    `json:"server"`

	// Heartbeat optionally announces a status event on a cron schedule.
	Heartbeat *HeartbeatConfig `json:"heartbeat,omitempty"`
}

type LoggingConfig struct {
	Level   string `json:"level,omitempty"`
	Console bool   `json:"console"`
	File    struct {
		Enabled bool   `json:"enabled"`
		Path    string `json:"path,omitempty"`
	} `json:"file"`
}

// NamedChat is one primary ("master") recipient.
type NamedChat struct {
	Name   string `json:"name"`
	ChatID int64  `json:"chat_id"`
}

type TelegramConfig struct {
	Enabled bool `json:"enabled"`

	// Token may be left empty and supplied via TELEGRAM_TOKEN.
	Token      string `json:"token,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`

	// Primary recipients get everything except startup; the secondary
	// additionally skips status.
	Primary         []NamedChat `json:"primary"`
	SecondaryChatID int64       `json:"secondary_chat_id,omitempty"`

	// NotificationSettings maps event type names to "on"/"off"/"silent",
	// or, for exit and exit_fill, to a reason-keyed map with a "default".
	NotificationSettings map[string]policy.Entry `json:"notification_settings,omitempty"`
}

type WebhookConfig struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
	Format  string `json:"format,omitempty"`  // "form" (default) or "json"
	Timeout string `json:"timeout,omitempty"` // Go duration string
	Auth    *struct {
		User     string `json:"user"`
		Password string `json:"password,omitempty"` // or WEBHOOK_PASSWORD
	} `json:"auth,omitempty"`
	Templates map[string]map[string]string `json:"templates,omitempty"`
}

// FiatConfig selects the rate source: a pinned rate table, or a JSON
// rate endpoint. If both are set, the table wins.
type FiatConfig struct {
	Rates    map[string]float64 `json:"rates,omitempty"` // "USDT/USD" -> rate
	URL      string             `json:"url,omitempty"`
	CacheTTL string             `json:"cache_ttl,omitempty"`
}

type HistoryConfig struct {
	Driver      string `json:"driver"` // "sqlite" or "none"
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"`
	Keep        int    `json:"keep,omitempty"`
}

type ServerConfig struct {
	Addr         string `json:"addr,omitempty"` // default "127.0.0.1:8088"
	ReadTimeout  string `json:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`
}

type HeartbeatConfig struct {
	Schedule string `json:"schedule"` // cron expression
	Status   string `json:"status,omitempty"`
}
