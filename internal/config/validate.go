package config

import (
	"fmt"
	"os"
	"strings"

	"tradenotify/internal/policy"
)

const defaultServerAddr = "127.0.0.1:8088"

// Normalize applies env fallbacks and defaults, then validates. It is
// called on every load, including hot reloads.
func (c *Config) Normalize() error {
	if c.Server.Addr == "" {
		c.Server.Addr = defaultServerAddr
	}
	if _, err := ParseDurationField("server.read_timeout", c.Server.ReadTimeout); err != nil {
		return err
	}
	if _, err := ParseDurationField("server.write_timeout", c.Server.WriteTimeout); err != nil {
		return err
	}

	if t := c.Telegram; t != nil && t.Enabled {
		if strings.TrimSpace(t.Token) == "" {
			t.Token = strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN"))
		}
		if t.Token == "" {
			return fmt.Errorf("telegram: token missing (set telegram.token or TELEGRAM_TOKEN)")
		}
		if len(t.Primary) == 0 && t.SecondaryChatID == 0 {
			return fmt.Errorf("telegram: no recipients configured")
		}
		for i, r := range t.Primary {
			if r.ChatID == 0 {
				return fmt.Errorf("telegram.primary[%d]: chat_id missing", i)
			}
		}
		if _, err := policy.Parse(t.NotificationSettings); err != nil {
			return fmt.Errorf("telegram.notification_settings: %w", err)
		}
	}

	if w := c.Webhook; w != nil && w.Enabled {
		if strings.TrimSpace(w.URL) == "" {
			return fmt.Errorf("webhook: url missing")
		}
		switch w.Format {
		case "", "form", "json":
		default:
			return fmt.Errorf("webhook: unknown format %q", w.Format)
		}
		if _, err := ParseDurationField("webhook.timeout", w.Timeout); err != nil {
			return err
		}
		if w.Auth != nil && strings.TrimSpace(w.Auth.Password) == "" {
			w.Auth.Password = strings.TrimSpace(os.Getenv("WEBHOOK_PASSWORD"))
		}
	}

	if f := c.Fiat; f != nil {
		if _, err := ParseDurationField("fiat.cache_ttl", f.CacheTTL); err != nil {
			return err
		}
	}

	if h := c.History; h != nil {
		if _, err := ParseDurationField("history.busy_timeout", h.BusyTimeout); err != nil {
			return err
		}
		if h.Keep < 0 {
			return fmt.Errorf("history.keep must be >= 0")
		}
	}

	if hb := c.Heartbeat; hb != nil {
		if strings.TrimSpace(hb.Schedule) == "" {
			return fmt.Errorf("heartbeat: schedule missing")
		}
	}

	return nil
}
