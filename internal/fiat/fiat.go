// Package fiat converts stake-currency amounts into display fiat
// amounts. Rates come from an external service; when the service has no
// answer the conversion reports unavailable and callers render the fiat
// part as absent.
package fiat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"tradenotify/pkg/logx"
)

// Converter is the collaborator contract used by the composer.
type Converter interface {
	Convert(amount float64, from, to string) (float64, bool)
}

// Static converts with a fixed rate table keyed "FROM/TO". Used for
// configs with pinned rates and as the test double.
type Static struct {
	Rates map[string]float64
}

func (s Static) Convert(amount float64, from, to string) (float64, bool) {
	rate, ok := s.Rates[strings.ToUpper(from)+"/"+strings.ToUpper(to)]
	if !ok {
		return 0, false
	}
	return amount * rate, true
}

// Client fetches rates from a JSON endpoint responding to
// GET {url}?from=USDT&to=USD with {"rate": 0.999}. Rates are cached for
// a TTL so composing a burst of events does not hammer the service.
type Client struct {
	url  string
	ttl  time.Duration
	http *http.Client
	log  logx.Logger

	mu    sync.Mutex
	cache map[string]cachedRate
}

type cachedRate struct {
	rate    float64
	expires time.Time
}

func NewClient(rawURL string, ttl time.Duration, log logx.Logger) *Client {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Client{
		url:   rawURL,
		ttl:   ttl,
		http:  &http.Client{Timeout: 8 * time.Second},
		log:   log,
		cache: map[string]cachedRate{},
	}
}

func (c *Client) Convert(amount float64, from, to string) (float64, bool) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)
	if from == "" || to == "" {
		return 0, false
	}
	if from == to {
		return amount, true
	}
	rate, ok := c.rate(from, to)
	if !ok {
		return 0, false
	}
	return amount * rate, true
}

func (c *Client) rate(from, to string) (float64, bool) {
	key := from + "/" + to
	now := time.Now()

	c.mu.Lock()
	if e, ok := c.cache[key]; ok && now.Before(e.expires) {
		c.mu.Unlock()
		return e.rate, true
	}
	c.mu.Unlock()

	rate, err := c.fetch(from, to)
	if err != nil {
		c.log.Warn("fiat rate unavailable",
			logx.String("from", from), logx.String("to", to), logx.Err(err))
		return 0, false
	}

	c.mu.Lock()
	c.cache[key] = cachedRate{rate: rate, expires: now.Add(c.ttl)}
	c.mu.Unlock()
	return rate, true
}

func (c *Client) fetch(from, to string) (float64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()

	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"?"+q.Encode(), nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, &statusError{code: resp.StatusCode}
	}

	var out struct {
		Rate float64 `json:"rate"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, err
	}
	return out.Rate, nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return "rate endpoint returned status " + http.StatusText(e.code)
}
