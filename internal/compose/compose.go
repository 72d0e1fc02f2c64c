// Package compose renders trading lifecycle events into channel-ready
// HTML text. Formatting is pure: the incoming event is taken by value and
// every derived field (duration, profit percent, fiat amounts, emoji) is
// computed into locals, so the same event composes identically for every
// handler.
package compose

import (
	"fmt"
	"strings"
	"time"

	"tradenotify/internal/event"
	"tradenotify/pkg/logx"
)

// Converter turns a stake-currency amount into a fiat amount. The second
// return is false when the rate is unavailable.
type Converter interface {
	Convert(amount float64, from, to string) (float64, bool)
}

// Meta carries bot-instance identity stamped into every header line when
// the event itself does not supply it.
type Meta struct {
	Exchange string
	UID      string
}

type Composer struct {
	meta Meta
	fiat Converter
	log  logx.Logger
}

func New(meta Meta, fiat Converter, log logx.Logger) *Composer {
	return &Composer{meta: meta, fiat: fiat, log: log}
}

// Compose renders one event. Unknown types get a generic passthrough with
// a logged diagnostic; Compose never fails.
func (c *Composer) Compose(ev event.Event) string {
	switch ev.Type {
	case event.TypeEntry, event.TypeEntryFill:
		return c.entryMsg(ev)
	case event.TypeExit, event.TypeExitFill:
		return c.exitMsg(ev)
	case event.TypeEntryCancel, event.TypeExitCancel:
		return c.cancelMsg(ev)
	case event.TypeProtectionTrigger, event.TypeProtectionTriggerGlobal:
		return c.protectionMsg(ev)
	case event.TypeStatus:
		return fmt.Sprintf("%s <b>%s:%s</b>\n- Status: %s", emojiGear, c.exchange(ev), c.uid(ev), ev.Status)
	case event.TypeWarning:
		return fmt.Sprintf("%s <b>%s:%s</b>\n* Warning: %s %s", emojiWarning, c.exchange(ev), c.uid(ev), ev.Type, ev.Status)
	case event.TypeStartup:
		return fmt.Sprintf("<b>%s:%s</b>\n- Type: %s\n* <em>%s</em>", c.exchange(ev), c.uid(ev), ev.Type, ev.Status)
	case event.TypeStrategyMsg:
		return fmt.Sprintf("%s: %s", c.exchange(ev), ev.Message)
	default:
		c.log.Warn("unknown message type, rendering passthrough",
			logx.String("type", string(ev.Type)), logx.String("pair", ev.Pair))
		return fmt.Sprintf("<b>%s:%s</b>\n- Type: %s\n- Status: %s", c.exchange(ev), c.uid(ev), ev.Type, ev.Status)
	}
}

func (c *Composer) exchange(ev event.Event) string {
	name := ev.Exchange
	if name == "" {
		name = c.meta.Exchange
	}
	return strings.ToUpper(name)
}

func (c *Composer) uid(ev event.Event) string {
	if ev.UID != "" {
		return ev.UID
	}
	return c.meta.UID
}

func (c *Composer) header(emoji string, ev event.Event) string {
	return fmt.Sprintf("%s <b>%s:%s, #%d</b>", emoji, c.exchange(ev), c.uid(ev), ev.TradeID)
}

func (c *Composer) entryMsg(ev event.Event) string {
	isFill := ev.IsFill()
	emoji := emojiEntryPending
	if isFill {
		emoji = emojiEntryFilled
	}

	// The stake fiat amount is the one field that keeps a numeric default
	// when no converter is available (original behavior).
	stakeFiat := noFiatStakeAmount
	if c.fiat != nil && ev.FiatCurrency != "" {
		if v, ok := c.fiat.Convert(ev.StakeAmount, ev.StakeCurrency, ev.FiatCurrency); ok {
			stakeFiat = v
		}
	}

	lines := []string{
		c.header(emoji, ev),
		fmt.Sprintf("* <em>Order ENTRY - %s, %s</em>", createdOrFilled(isFill), ev.Pair),
	}
	if ev.EnterTag != "" {
		lines = append(lines, "- Tag: "+ev.EnterTag)
	}
	lines = append(lines, fmt.Sprintf("- Amount: %.4f", ev.Amount))
	if isFill {
		lines = append(lines, fmt.Sprintf("- Rate, open: %.4f", ev.OpenRate))
	} else {
		lines = append(lines,
			fmt.Sprintf("- Rate, open: %.4f", ev.OpenRate),
			fmt.Sprintf("- Rate, current: %.4f", ev.CurrentRate))
	}
	if ev.Leverage != 0 && ev.Leverage != 1.0 {
		lines = append(lines, fmt.Sprintf("- Leverage: %sx", trimFloat(ev.Leverage)))
	}
	total := "- Total: " + coinValue(ev.StakeAmount, ev.StakeCurrency)
	if ev.FiatCurrency != "" {
		total += " | " + coinValue(stakeFiat, ev.FiatCurrency)
	}
	lines = append(lines, total)
	return strings.Join(lines, "\n")
}

func (c *Composer) exitMsg(ev event.Event) string {
	isFill := ev.Type == event.TypeExitFill
	profitPct := round2(ev.ProfitRatio * 100)

	lines := []string{
		c.header(exitEmoji(ev, profitPct, isFill), ev),
		fmt.Sprintf("* <em>Order EXIT - %s, %s</em>", createdOrFilled(isFill), ev.Pair),
	}

	label := "Opportunity"
	if isFill {
		label = "Profit"
	}
	// A partial close announces its own slice as "Sub" and the running
	// total on an extra line; when the slice equals the running total the
	// profit line itself is the cumulative one.
	subProfit := ev.SubTrade && ev.ProfitAmount != ev.CumulativeProfit
	prefix := ""
	if ev.SubTrade {
		prefix = "Cumulative "
		if subProfit {
			prefix = "Sub "
		}
	}
	profitLine := fmt.Sprintf("- %s%s: %s%%", prefix, label, formatPercent(profitPct))
	if extra := c.profitExtra(ev.ProfitAmount, ev); extra != "" {
		profitLine += " (" + extra + ")"
	}
	lines = append(lines, profitLine)
	if subProfit {
		if extra := c.profitExtra(ev.CumulativeProfit, ev); extra != "" {
			lines = append(lines, "- Cumulative Profit: "+extra)
		}
	}

	lines = append(lines, "- Enter Tag: "+ev.EnterTag)
	if ev.ExitTag != "" {
		lines = append(lines, "- Exit Tag: "+ev.ExitTag)
	}
	lines = append(lines, "- Reason: "+formatReason(ev.ExitReason))
	if !ev.OpenDate.IsZero() && !ev.CloseDate.IsZero() {
		d := ev.CloseDate.Sub(ev.OpenDate).Truncate(time.Second)
		lines = append(lines, fmt.Sprintf("- Duration: %s (%.1fm)", formatDuration(d), d.Minutes()))
	}
	lines = append(lines, fmt.Sprintf("- Amount: %.4f", ev.Amount))
	if ev.Direction != "" {
		lines = append(lines, "- Direction: "+ev.Direction)
	}
	lines = append(lines, fmt.Sprintf("- Rate, open: %.4f", ev.OpenRate))
	if isFill {
		lines = append(lines, fmt.Sprintf("- Rate, close: %.4f", ev.CloseRate))
	} else {
		lines = append(lines,
			fmt.Sprintf("- Rate, current: %.4f", ev.CurrentRate),
			fmt.Sprintf("- Rate, order: %.4f", ev.OrderRate))
	}
	if ev.SubTrade {
		lines = append(lines, "- Remaining stake: "+coinValue(ev.StakeAmount, ev.StakeCurrency))
	}
	return strings.Join(lines, "\n")
}

func (c *Composer) cancelMsg(ev event.Event) string {
	side := "ENTRY"
	reason := ev.Reason
	if ev.Type == event.TypeExitCancel {
		side = "EXIT"
		if ev.ExitReason != "" {
			reason = ev.ExitReason
		}
	}
	if reason == "" {
		reason = cancelReasonFallback
	}
	action := "canceled"
	if ev.SubTrade {
		action = "cancelling partial"
	}
	lines := []string{
		c.header(emojiWarning, ev),
		fmt.Sprintf("* <em>Order %s, %s, %s</em>", side, ev.Pair, action),
		"- Reason: " + reason,
	}
	return strings.Join(lines, "\n")
}

func (c *Composer) protectionMsg(ev event.Event) string {
	until := ev.LockEndTime.Format(timeLayout)
	if ev.Type == event.TypeProtectionTriggerGlobal {
		return fmt.Sprintf("*Protection* triggered due to %s. *All pairs* will be locked until `%s`", ev.Reason, until)
	}
	return fmt.Sprintf("*Protection* triggered due to %s. `%s` will be locked until `%s`", ev.Reason, ev.Pair, until)
}

// profitExtra renders a "12.0000 USDT / 12.00 USD" suffix. Every fiat
// computation goes through the same converter availability guard.
func (c *Composer) profitExtra(amount float64, ev event.Event) string {
	if ev.StakeCurrency == "" {
		return ""
	}
	extra := fmt.Sprintf("%.4f %s", amount, ev.StakeCurrency)
	if c.fiat != nil && ev.FiatCurrency != "" {
		if v, ok := c.fiat.Convert(amount, ev.StakeCurrency, ev.FiatCurrency); ok {
			extra += fmt.Sprintf(" / %.2f %s", v, ev.FiatCurrency)
		}
	}
	return extra
}

func createdOrFilled(isFill bool) string {
	if isFill {
		return "FILLED"
	}
	return "CREATED"
}
