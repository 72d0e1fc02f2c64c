// Package webhook posts trading events to an HTTP endpoint as templated
// key/value payloads, form-encoded or JSON. Unlike the chat channel,
// webhook delivery makes exactly one attempt: there is no retry.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"tradenotify/internal/event"
	"tradenotify/internal/history"
	"tradenotify/pkg/logx"
)

const (
	FormatForm = "form"
	FormatJSON = "json"
)

type Auth struct {
	User     string
	Password string
}

type Config struct {
	URL     string
	Format  string
	Timeout time.Duration
	Auth    *Auth

	// Templates maps event type names to output-key -> format-string
	// tables. startup and warning fall back to the status template.
	Templates map[string]map[string]string
}

// ValidateTemplates checks template type keys and field references
// against the event schema. Called at config load so broken templates
// fail fast instead of per event.
func ValidateTemplates(templates map[string]map[string]string) error {
	known := event.FieldNames()
	for name, tmpl := range templates {
		if !event.Type(name).Known() {
			return fmt.Errorf("webhook template for unknown event type %q", name)
		}
		for key, format := range tmpl {
			refs, err := parseRefs(format)
			if err != nil {
				return fmt.Errorf("webhook template %s.%s: %w", name, key, err)
			}
			for _, r := range refs {
				if _, ok := known[r.name]; !ok {
					return fmt.Errorf("webhook template %s.%s references unknown event field %q", name, key, r.name)
				}
			}
		}
	}
	return nil
}

// Handler is the webhook notification handler.
type Handler struct {
	url    string
	format string
	auth   *Auth
	client *http.Client

	journal history.Store
	log     logx.Logger

	mu        sync.RWMutex
	templates map[string]map[string]string
}

// New validates the configuration. An unsupported format value is a
// construction-time error, not a per-event one.
func New(cfg Config, journal history.Store, log logx.Logger) (*Handler, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("webhook url is empty")
	}
	format := cfg.Format
	if format == "" {
		format = FormatForm
	}
	if format != FormatForm && format != FormatJSON {
		return nil, fmt.Errorf("unknown webhook format %q, possible values are %q (default) and %q",
			cfg.Format, FormatForm, FormatJSON)
	}
	if err := ValidateTemplates(cfg.Templates); err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Handler{
		url:       cfg.URL,
		format:    format,
		auth:      cfg.Auth,
		client:    &http.Client{Timeout: timeout},
		journal:   journal,
		log:       log,
		templates: cfg.Templates,
	}, nil
}

func (h *Handler) Name() string { return "webhook" }

// Apply swaps the template table, for config hot reload. Templates must
// have been validated by the caller.
func (h *Handler) Apply(templates map[string]map[string]string) {
	h.mu.Lock()
	h.templates = templates
	h.mu.Unlock()
}

func (h *Handler) templateFor(t event.Type) (map[string]string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if tmpl, ok := h.templates[string(t)]; ok {
		return tmpl, true
	}
	// startup and warning announce like status unless configured apart.
	if t == event.TypeStartup || t == event.TypeWarning {
		tmpl, ok := h.templates[string(event.TypeStatus)]
		return tmpl, ok
	}
	return nil, false
}

func (h *Handler) SendMsg(ctx context.Context, ev event.Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	tmpl, ok := h.templateFor(ev.Type)
	if !ok {
		h.log.Info("message type not configured for webhooks",
			logx.String("type", string(ev.Type)))
		return nil
	}

	payload, err := h.buildPayload(tmpl, ev)
	if err != nil {
		// A bad field reference is a configuration problem; drop this
		// channel's delivery and keep the rest of the pipeline alive.
		h.log.Error("problem calling webhook, please check your webhook configuration",
			logx.String("type", string(ev.Type)), logx.Err(err))
		return nil
	}

	if err := h.post(ctx, payload); err != nil {
		h.log.Warn("could not call webhook url", logx.Err(err))
		h.record(ctx, ev, "dropped")
		return nil
	}
	h.record(ctx, ev, "delivered")
	return nil
}

func (h *Handler) buildPayload(tmpl map[string]string, ev event.Event) (map[string]string, error) {
	fields := ev.Fields()
	payload := make(map[string]string, len(tmpl)+2)
	for key, format := range tmpl {
		v, err := interpolate(format, fields)
		if err != nil {
			return nil, err
		}
		payload[key] = v
	}
	if _, ok := payload["type"]; !ok {
		payload["type"] = string(ev.Type)
	}
	if _, ok := payload["exchange"]; !ok {
		payload["exchange"] = ev.Exchange
	}
	return payload, nil
}

func (h *Handler) post(ctx context.Context, payload map[string]string) error {
	var body *bytes.Reader
	var contentType string
	switch h.format {
	case FormatJSON:
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	default:
		vals := make(url.Values, len(payload))
		for k, v := range payload {
			vals.Set(k, v)
		}
		body = bytes.NewReader([]byte(vals.Encode()))
		contentType = "application/x-www-form-urlencoded"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	if h.auth != nil {
		req.SetBasicAuth(h.auth.User, h.auth.Password)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func (h *Handler) record(ctx context.Context, ev event.Event, outcome string) {
	if h.journal == nil {
		return
	}
	err := h.journal.Append(ctx, history.Entry{
		Channel:   h.Name(),
		Recipient: "webhook",
		EventType: string(ev.Type),
		Pair:      ev.Pair,
		TradeID:   ev.TradeID,
		Attempts:  1,
		Outcome:   outcome,
	})
	if err != nil {
		h.log.Debug("history append failed", logx.Err(err))
	}
}
