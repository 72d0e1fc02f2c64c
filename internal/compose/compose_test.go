package compose

import (
	"strings"
	"testing"
	"time"

	"tradenotify/internal/event"
	"tradenotify/pkg/logx"
)

// fixedConverter multiplies by a fixed rate; ok=false simulates an
// unavailable rate service.
type fixedConverter struct {
	rate float64
	ok   bool
}

func (f fixedConverter) Convert(amount float64, from, to string) (float64, bool) {
	if !f.ok {
		return 0, false
	}
	return amount * f.rate, true
}

func newTestComposer(fiat Converter) *Composer {
	return New(Meta{Exchange: "binance", UID: "bot-1"}, fiat, logx.Nop())
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func exitFillEvent() event.Event {
	return event.Event{
		Type:             event.TypeExitFill,
		Pair:             "BTC/USDT",
		TradeID:          7,
		Amount:           0.12345678,
		OpenRate:         50000.0,
		CloseRate:        51000.0,
		OpenDate:         t0,
		CloseDate:        t0.Add(3630 * time.Second),
		ProfitRatio:      0.02,
		ProfitAmount:     12.0,
		CumulativeProfit: 12.0,
		StakeCurrency:    "USDT",
		EnterTag:         "breakout",
		ExitReason:       "roi",
	}
}

func TestExitFillScenario(t *testing.T) {
	t.Parallel()
	c := newTestComposer(nil)
	msg := c.Compose(exitFillEvent())

	for _, want := range []string{
		"<b>BINANCE:bot-1, #7</b>",
		"Order EXIT - FILLED, BTC/USDT",
		"- Profit: 2.0% (12.0000 USDT)",
		"- Enter Tag: breakout",
		"- Reason: ROI",
		"- Duration: 1:00:30 (60.5m)",
		"- Amount: 0.1235",
		"- Rate, open: 50000.0000",
		"- Rate, close: 51000.0000",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "Cumulative") {
		t.Fatalf("full close must not carry a cumulative line:\n%s", msg)
	}
	if strings.Contains(msg, "Remaining stake") {
		t.Fatalf("full close must not carry a remaining stake line:\n%s", msg)
	}
	if !strings.HasPrefix(msg, emojiExitFilled) {
		t.Fatalf("filled exit must use the closed marker:\n%s", msg)
	}
}

func TestComposeDeterminism(t *testing.T) {
	t.Parallel()
	c := newTestComposer(fixedConverter{rate: 1.0, ok: true})
	ev := exitFillEvent()
	ev.FiatCurrency = "USD"
	first := c.Compose(ev)
	for i := 0; i < 5; i++ {
		if got := c.Compose(ev); got != first {
			t.Fatalf("composition is not deterministic:\n%s\nvs\n%s", first, got)
		}
	}
}

func TestExitPendingRates(t *testing.T) {
	t.Parallel()
	ev := exitFillEvent()
	ev.Type = event.TypeExit
	ev.CurrentRate = 50900.0
	ev.OrderRate = 50950.0
	msg := newTestComposer(nil).Compose(ev)

	for _, want := range []string{
		"Order EXIT - CREATED, BTC/USDT",
		"- Opportunity: 2.0%",
		"- Rate, open: 50000.0000",
		"- Rate, current: 50900.0000",
		"- Rate, order: 50950.0000",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "Rate, close") {
		t.Fatalf("pending exit must not show a close rate:\n%s", msg)
	}
}

func TestExitSubTrade(t *testing.T) {
	t.Parallel()
	ev := exitFillEvent()
	ev.SubTrade = true
	ev.ProfitAmount = 5.0
	ev.CumulativeProfit = 12.0
	ev.StakeAmount = 40.0
	msg := newTestComposer(nil).Compose(ev)

	if !strings.Contains(msg, "- Sub Profit: 2.0% (5.0000 USDT)") {
		t.Fatalf("sub-trade profit line wrong:\n%s", msg)
	}
	if !strings.Contains(msg, "- Cumulative Profit: 12.0000 USDT") {
		t.Fatalf("cumulative line missing:\n%s", msg)
	}
	if !strings.Contains(msg, "- Remaining stake: 40.00000000 USDT") {
		t.Fatalf("remaining stake line missing:\n%s", msg)
	}
}

func TestExitSubTradeCumulativeEqual(t *testing.T) {
	t.Parallel()
	ev := exitFillEvent()
	ev.SubTrade = true // the slice is the whole running total
	msg := newTestComposer(nil).Compose(ev)
	if !strings.Contains(msg, "- Cumulative Profit: 2.0% (12.0000 USDT)") {
		t.Fatalf("equal cumulative must take over the profit line:\n%s", msg)
	}
	if strings.Contains(msg, "Sub Profit") {
		t.Fatalf("equal cumulative must not read as partial:\n%s", msg)
	}
	if strings.Count(msg, "Cumulative") != 1 {
		t.Fatalf("equal cumulative must not render its own line:\n%s", msg)
	}
}

func TestExitSubTradeNoStakeCurrency(t *testing.T) {
	t.Parallel()
	ev := exitFillEvent()
	ev.SubTrade = true
	ev.ProfitAmount = 5.0
	ev.CumulativeProfit = 12.0
	ev.StakeCurrency = ""
	msg := newTestComposer(nil).Compose(ev)
	if !strings.Contains(msg, "- Sub Profit: 2.0%\n") {
		t.Fatalf("profit line must drop the amount suffix:\n%s", msg)
	}
	if strings.Contains(msg, "Cumulative") {
		t.Fatalf("cumulative line must not render without a value:\n%s", msg)
	}
}

func TestExitFiatExtraGuard(t *testing.T) {
	t.Parallel()
	ev := exitFillEvent()
	ev.FiatCurrency = "USD"

	// Converter available: fiat suffix present on the profit line.
	msg := newTestComposer(fixedConverter{rate: 1.5, ok: true}).Compose(ev)
	if !strings.Contains(msg, "- Profit: 2.0% (12.0000 USDT / 18.00 USD)") {
		t.Fatalf("fiat extra missing:\n%s", msg)
	}

	// Converter unavailable: the suffix renders as absent, not zero.
	msg = newTestComposer(fixedConverter{ok: false}).Compose(ev)
	if !strings.Contains(msg, "- Profit: 2.0% (12.0000 USDT)") {
		t.Fatalf("unavailable converter must drop the fiat part:\n%s", msg)
	}
	if strings.Contains(msg, "0.00 USD") {
		t.Fatalf("unavailable fiat must not render zero:\n%s", msg)
	}
}

func TestExitEmojiPriorityChain(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		ratio  float64
		reason string
		want   string
	}{
		{"top tier", 0.06, "roi", emojiProfitTop},
		{"exactly five", 0.05, "roi", emojiProfitTop},
		{"neutral", 0.01, "roi", emojiProfitFlat},
		{"zero", 0.0, "roi", emojiProfitFlat},
		{"stoploss in profit stays neutral", 0.01, "stoploss", emojiProfitFlat},
		{"stoploss loss", -0.03, "stoploss", emojiWarning},
		{"plain loss", -0.03, "force_exit", emojiLoss},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ev := exitFillEvent()
			ev.Type = event.TypeExit
			ev.ProfitRatio = tt.ratio
			ev.ExitReason = tt.reason
			msg := newTestComposer(nil).Compose(ev)
			if !strings.HasPrefix(msg, tt.want) {
				t.Fatalf("emoji = %q, want %q (msg %q)", []rune(msg)[0], tt.want, msg)
			}
		})
	}
}

func TestExitReasonUnderscores(t *testing.T) {
	t.Parallel()
	ev := exitFillEvent()
	ev.ExitReason = "trailing_stop_loss"
	msg := newTestComposer(nil).Compose(ev)
	if !strings.Contains(msg, "- Reason: TRAILING STOP LOSS") {
		t.Fatalf("reason not normalized:\n%s", msg)
	}
}

func TestExitWithoutDates(t *testing.T) {
	t.Parallel()
	ev := exitFillEvent()
	ev.CloseDate = time.Time{}
	msg := newTestComposer(nil).Compose(ev)
	if strings.Contains(msg, "Duration") {
		t.Fatalf("duration must only render when both dates are present:\n%s", msg)
	}
}

func TestEntryPending(t *testing.T) {
	t.Parallel()
	ev := event.Event{
		Type:          event.TypeEntry,
		Pair:          "ETH/USDT",
		TradeID:       3,
		Amount:        1.23456789,
		OpenRate:      2000.5,
		OrderRate:     1999.0,
		CurrentRate:   2001.25,
		StakeAmount:   50.0,
		StakeCurrency: "USDT",
		EnterTag:      "dip",
	}
	msg := newTestComposer(nil).Compose(ev)

	for _, want := range []string{
		"Order ENTRY - CREATED, ETH/USDT",
		"- Tag: dip",
		"- Amount: 1.2346",
		"- Rate, open: 2000.5000",
		"- Rate, current: 2001.2500",
		"- Total: 50.00000000 USDT",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
	if !strings.HasPrefix(msg, emojiEntryPending) {
		t.Fatalf("pending entry marker wrong:\n%s", msg)
	}
	if strings.Contains(msg, "1999") {
		t.Fatalf("entry must render the open rate, not the order rate:\n%s", msg)
	}
	if strings.Contains(msg, "Leverage") {
		t.Fatalf("no leverage line expected:\n%s", msg)
	}
}

func TestEntryFill(t *testing.T) {
	t.Parallel()
	ev := event.Event{
		Type:          event.TypeEntryFill,
		Pair:          "ETH/USDT",
		TradeID:       3,
		Amount:        1.0,
		OpenRate:      2000.0,
		CurrentRate:   2001.0,
		StakeAmount:   50.0,
		StakeCurrency: "USDT",
		FiatCurrency:  "USD",
		Leverage:      3.0,
	}
	msg := newTestComposer(fixedConverter{rate: 1.0, ok: true}).Compose(ev)

	for _, want := range []string{
		"Order ENTRY - FILLED, ETH/USDT",
		"- Rate, open: 2000.0000",
		"- Leverage: 3x",
		"- Total: 50.00000000 USDT | 50.000 USD",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "Rate, current") {
		t.Fatalf("filled entry must not show a current rate:\n%s", msg)
	}
	if strings.Contains(msg, "- Tag:") {
		t.Fatalf("tag line must be absent without an enter tag:\n%s", msg)
	}
	if !strings.HasPrefix(msg, emojiEntryFilled) {
		t.Fatalf("filled entry marker wrong:\n%s", msg)
	}
}

func TestEntryNoConverterKeepsZeroFiat(t *testing.T) {
	t.Parallel()
	ev := event.Event{
		Type:          event.TypeEntry,
		Pair:          "ETH/USDT",
		StakeAmount:   50.0,
		StakeCurrency: "USDT",
		FiatCurrency:  "USD",
	}
	// The stake fiat amount keeps its numeric default when no converter
	// is configured; the suffix still renders.
	msg := newTestComposer(nil).Compose(ev)
	if !strings.Contains(msg, "- Total: 50.00000000 USDT | 0.000 USD") {
		t.Fatalf("expected zero-fiat total:\n%s", msg)
	}
}

func TestCancelReasonFallback(t *testing.T) {
	t.Parallel()
	c := newTestComposer(nil)

	ev := event.Event{Type: event.TypeEntryCancel, Pair: "XRP/USDT", TradeID: 9}
	msg := c.Compose(ev)
	if !strings.Contains(msg, "Order ENTRY, XRP/USDT, canceled") {
		t.Fatalf("cancel action line wrong:\n%s", msg)
	}
	if !strings.Contains(msg, "- Reason: timeout") {
		t.Fatalf("missing timeout fallback:\n%s", msg)
	}

	ev = event.Event{Type: event.TypeExitCancel, Pair: "XRP/USDT", TradeID: 9, Reason: "replaced", ExitReason: "roi"}
	msg = c.Compose(ev)
	if !strings.Contains(msg, "Order EXIT, XRP/USDT, canceled") {
		t.Fatalf("exit cancel side wrong:\n%s", msg)
	}
	// exit_reason wins over the generic reason for exit cancels.
	if !strings.Contains(msg, "- Reason: roi") {
		t.Fatalf("exit reason must override:\n%s", msg)
	}
}

func TestCancelSubTrade(t *testing.T) {
	t.Parallel()
	ev := event.Event{Type: event.TypeExitCancel, Pair: "XRP/USDT", SubTrade: true, Reason: "user"}
	msg := newTestComposer(nil).Compose(ev)
	if !strings.Contains(msg, "cancelling partial") {
		t.Fatalf("sub-trade cancel wording wrong:\n%s", msg)
	}
}

func TestProtectionMessages(t *testing.T) {
	t.Parallel()
	c := newTestComposer(nil)
	lock := time.Date(2026, 3, 1, 15, 30, 0, 0, time.UTC)

	msg := c.Compose(event.Event{Type: event.TypeProtectionTrigger, Pair: "BTC/USDT", Reason: "cooldown", LockEndTime: lock})
	if msg != "*Protection* triggered due to cooldown. `BTC/USDT` will be locked until `2026-03-01 15:30:00`" {
		t.Fatalf("protection message wrong: %s", msg)
	}

	msg = c.Compose(event.Event{Type: event.TypeProtectionTriggerGlobal, Reason: "max_drawdown", LockEndTime: lock})
	if !strings.Contains(msg, "*All pairs* will be locked until `2026-03-01 15:30:00`") {
		t.Fatalf("global protection message wrong: %s", msg)
	}
}

func TestStatusWarningStartup(t *testing.T) {
	t.Parallel()
	c := newTestComposer(nil)

	msg := c.Compose(event.Event{Type: event.TypeStatus, Status: "running"})
	if !strings.Contains(msg, "<b>BINANCE:bot-1</b>") || !strings.Contains(msg, "- Status: running") {
		t.Fatalf("status message wrong: %s", msg)
	}

	msg = c.Compose(event.Event{Type: event.TypeWarning, Status: "order book unavailable"})
	if !strings.Contains(msg, "* Warning: warning order book unavailable") {
		t.Fatalf("warning message wrong: %s", msg)
	}

	msg = c.Compose(event.Event{Type: event.TypeStartup, Status: "v1.2.3 started"})
	if !strings.Contains(msg, "- Type: startup") || !strings.Contains(msg, "<em>v1.2.3 started</em>") {
		t.Fatalf("startup message wrong: %s", msg)
	}
}

func TestStrategyMessagePassthrough(t *testing.T) {
	t.Parallel()
	msg := newTestComposer(nil).Compose(event.Event{Type: event.TypeStrategyMsg, Message: "rebalancing complete"})
	if msg != "BINANCE: rebalancing complete" {
		t.Fatalf("strategy message wrong: %s", msg)
	}
}

func TestUnknownTypeFallback(t *testing.T) {
	t.Parallel()
	msg := newTestComposer(nil).Compose(event.Event{Type: "mystery", Status: "odd"})
	if !strings.Contains(msg, "- Type: mystery") || !strings.Contains(msg, "- Status: odd") {
		t.Fatalf("fallback rendering wrong: %s", msg)
	}
}

func TestComposeDoesNotMutateEvent(t *testing.T) {
	t.Parallel()
	ev := exitFillEvent()
	snapshot := ev
	_ = newTestComposer(fixedConverter{rate: 2, ok: true}).Compose(ev)
	if ev != snapshot {
		t.Fatalf("event mutated during composition: %+v vs %+v", ev, snapshot)
	}
}
