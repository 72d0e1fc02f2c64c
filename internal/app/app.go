// Package app wires the notifier daemon together: config, logging, the
// outbound channels, the ingest server, and the optional heartbeat. It
// owns the hot-reload loop that swaps policy, fanout, and webhook
// templates on config changes.
package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	sdaemon "github.com/coreos/go-systemd/v22/daemon"

	"tradenotify/internal/channel/telegram"
	"tradenotify/internal/channel/webhook"
	"tradenotify/internal/compose"
	"tradenotify/internal/config"
	"tradenotify/internal/event"
	"tradenotify/internal/fanout"
	"tradenotify/internal/fiat"
	"tradenotify/internal/heartbeat"
	"tradenotify/internal/history"
	"tradenotify/internal/notify"
	"tradenotify/internal/policy"
	"tradenotify/internal/server"
	"tradenotify/pkg/logx"
)

type App struct {
	cfgm *config.Manager
	log  logx.Logger

	journal history.Store
	mgr     *notify.Manager

	tg *telegram.Handler
	wh *webhook.Handler

	srv  *server.Server
	beat *heartbeat.Service

	wg sync.WaitGroup
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath, logx.NewConsole("INFO"))
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})

	journal, err := history.Open(mapHistoryConfig(cfg), log.With(logx.String("comp", "history")))
	if err != nil {
		return nil, err
	}

	a := &App{
		cfgm:    cfgm,
		log:     log.With(logx.String("comp", "app")),
		journal: journal,
		mgr:     notify.NewManager(log.With(logx.String("comp", "notify"))),
	}

	if t := cfg.Telegram; t != nil && t.Enabled {
		tg, err := buildTelegram(cfg, journal, log)
		if err != nil {
			return nil, err
		}
		a.tg = tg
		a.mgr.Register(tg)
	}

	if w := cfg.Webhook; w != nil && w.Enabled {
		wh, err := buildWebhook(cfg, journal, log)
		if err != nil {
			return nil, err
		}
		a.wh = wh
		a.mgr.Register(wh)
	}

	srvCfg, err := mapServerConfig(cfg)
	if err != nil {
		return nil, err
	}
	a.srv = server.New(srvCfg, a.mgr, log.With(logx.String("comp", "server")))

	if hb := cfg.Heartbeat; hb != nil {
		beat, err := heartbeat.New(hb.Schedule, hb.Status, a.mgr, log.With(logx.String("comp", "heartbeat")))
		if err != nil {
			return nil, err
		}
		a.beat = beat
	}

	// Reloads must produce tables the handlers can swap in.
	cfgm.SetValidator(func(_ context.Context, next *config.Config) error {
		if a.tg != nil {
			if next.Telegram == nil || !next.Telegram.Enabled {
				return fmt.Errorf("telegram cannot be disabled at runtime")
			}
		}
		if a.wh != nil {
			if next.Webhook == nil || !next.Webhook.Enabled {
				return fmt.Errorf("webhook cannot be disabled at runtime")
			}
			if err := webhook.ValidateTemplates(next.Webhook.Templates); err != nil {
				return err
			}
		}
		return nil
	})

	return a, nil
}

// Run blocks until ctx is canceled, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.srv.Run(ctx); err != nil {
			select {
			case errc <- err:
			default:
			}
			cancel()
		}
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		_ = a.cfgm.Watch(ctx)
	}()

	reloads := a.cfgm.Subscribe(1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case cfg, ok := <-reloads:
				if !ok {
					return
				}
				a.applyReload(cfg)
			}
		}
	}()

	if a.beat != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.beat.Run(ctx)
		}()
	}

	_, _ = sdaemon.SdNotify(false, sdaemon.SdNotifyReady)
	a.log.Info("notifier daemon started")

	<-ctx.Done()
	_, _ = sdaemon.SdNotify(false, sdaemon.SdNotifyStopping)

	a.cfgm.Unsubscribe(reloads)
	a.wg.Wait()

	if a.journal != nil {
		_ = a.journal.Close()
	}
	_ = a.log.Close()

	select {
	case err := <-errc:
		return err
	default:
		return nil
	}
}

// applyReload swaps the hot-swappable pieces. Channel enablement, the
// bot token, and server addresses stay fixed for the process lifetime.
func (a *App) applyReload(cfg *config.Config) {
	if a.tg != nil && cfg.Telegram != nil {
		tbl, err := mapPolicy(cfg.Telegram)
		if err != nil {
			a.log.Warn("reload skipped for telegram settings", logx.Err(err))
		} else {
			a.tg.Apply(tbl, mapFanout(cfg.Telegram))
			a.log.Info("telegram settings reloaded")
		}
	}
	if a.wh != nil && cfg.Webhook != nil {
		a.wh.Apply(cfg.Webhook.Templates)
		a.log.Info("webhook templates reloaded")
	}
}

func buildTelegram(cfg *config.Config, journal history.Store, log logx.Logger) (*telegram.Handler, error) {
	t := cfg.Telegram

	bot, err := telegram.NewBot(telegram.BotConfig{
		Token:      t.Token,
		RatePerSec: t.RatePerSec,
	})
	if err != nil {
		return nil, err
	}

	tbl, err := mapPolicy(t)
	if err != nil {
		return nil, err
	}

	composer := compose.New(
		compose.Meta{Exchange: cfg.Exchange, UID: cfg.UID},
		buildConverter(cfg, log),
		log.With(logx.String("comp", "compose")),
	)
	client := telegram.NewClient(bot, log.With(logx.String("comp", "telegram")))
	return telegram.NewHandler(composer, client, tbl, mapFanout(t), journal,
		log.With(logx.String("comp", "telegram"))), nil
}

func buildWebhook(cfg *config.Config, journal history.Store, log logx.Logger) (*webhook.Handler, error) {
	w := cfg.Webhook

	timeout, err := config.ParseDurationField("webhook.timeout", w.Timeout)
	if err != nil {
		return nil, err
	}
	var auth *webhook.Auth
	if w.Auth != nil {
		auth = &webhook.Auth{User: w.Auth.User, Password: w.Auth.Password}
	}
	return webhook.New(webhook.Config{
		URL:       w.URL,
		Format:    w.Format,
		Timeout:   timeout,
		Auth:      auth,
		Templates: w.Templates,
	}, journal, log.With(logx.String("comp", "webhook")))
}

// buildConverter picks the fiat rate source: a pinned table when rates
// are configured, an HTTP rate service when a URL is, nothing otherwise.
func buildConverter(cfg *config.Config, log logx.Logger) compose.Converter {
	f := cfg.Fiat
	if f == nil {
		return nil
	}
	if len(f.Rates) > 0 {
		rates := make(map[string]float64, len(f.Rates))
		for k, v := range f.Rates {
			rates[strings.ToUpper(k)] = v
		}
		return fiat.Static{Rates: rates}
	}
	if f.URL != "" {
		ttl, _ := config.ParseDurationField("fiat.cache_ttl", f.CacheTTL)
		return fiat.NewClient(f.URL, ttl, log.With(logx.String("comp", "fiat")))
	}
	return nil
}

func mapPolicy(t *config.TelegramConfig) (policy.Table, error) {
	return policy.Parse(t.NotificationSettings)
}

func mapFanout(t *config.TelegramConfig) *fanout.Resolver {
	primary := make([]fanout.Recipient, 0, len(t.Primary))
	for _, c := range t.Primary {
		primary = append(primary, fanout.Recipient{Name: c.Name, ChatID: c.ChatID})
	}
	return fanout.New(primary, t.SecondaryChatID)
}

func mapHistoryConfig(cfg *config.Config) history.Config {
	h := cfg.History
	if h == nil {
		return history.Config{}
	}
	busy, _ := config.ParseDurationField("history.busy_timeout", h.BusyTimeout)
	return history.Config{
		Driver:      h.Driver,
		Path:        h.Path,
		BusyTimeout: busy,
		Keep:        h.Keep,
	}
}

func mapServerConfig(cfg *config.Config) (server.Config, error) {
	rt, err := config.ParseDurationField("server.read_timeout", cfg.Server.ReadTimeout)
	if err != nil {
		return server.Config{}, err
	}
	wt, err := config.ParseDurationField("server.write_timeout", cfg.Server.WriteTimeout)
	if err != nil {
		return server.Config{}, err
	}
	return server.Config{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  rt,
		WriteTimeout: wt,
	}, nil
}

// Startup announces the daemon on the configured channels. It runs after
// the channels are up so the message lands where trade events will.
func (a *App) Startup(ctx context.Context, version string) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	a.mgr.Dispatch(ctx, event.Event{
		Type:   event.TypeStartup,
		Status: "notifier " + version + " up and running",
	})
}
