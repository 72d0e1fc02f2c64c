package compose

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"tradenotify/internal/event"
)

// Markers per event family. Exit emoji selection is a fixed priority
// chain, see exitEmoji.
const (
	emojiEntryPending = "\U0001f537" // large blue diamond
	emojiEntryFilled  = "✔"     // check mark
	emojiExitFilled   = "\U0001f534" // large red circle
	emojiProfitTop    = "\U0001f680" // rocket
	emojiProfitFlat   = "✳"     // eight spoked asterisk
	emojiWarning      = "⚠"     // warning sign
	emojiLoss         = "❌"     // cross mark
	emojiGear         = "⚙"     // gear
)

// Named defaults kept out of the formatting branches.
const (
	// noFiatStakeAmount is the stake fiat value rendered when no converter
	// is available. This is the one field that keeps a numeric default
	// instead of rendering as absent.
	noFiatStakeAmount = 0.0

	// cancelReasonFallback is announced when a cancellation carries no
	// reason of its own.
	cancelReasonFallback = "timeout"
)

const timeLayout = "2006-01-02 15:04:05"

// exitEmoji picks the marker for exit-family events. Filled orders always
// use the fixed closed marker; pending exits walk a priority chain:
// top-tier profit, then non-negative, then stoploss, then loss. The chain
// order matters: a stoploss at +1% still gets the neutral marker.
func exitEmoji(ev event.Event, profitPct float64, isFill bool) string {
	if isFill {
		return emojiExitFilled
	}
	switch {
	case profitPct >= 5.0:
		return emojiProfitTop
	case profitPct >= 0.0:
		return emojiProfitFlat
	case ev.ExitReason == "stoploss":
		return emojiWarning
	default:
		return emojiLoss
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// formatPercent renders a 2dp-rounded percentage the way the original
// did: minimal digits but never integer-bare, so 2.0 stays "2.0".
func formatPercent(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// formatReason upper-cases an exit reason and replaces underscores, so
// "trailing_stop_loss" reads "TRAILING STOP LOSS".
func formatReason(reason string) string {
	return strings.ToUpper(strings.ReplaceAll(reason, "_", " "))
}

// formatDuration renders a duration like Python's timedelta: "1:00:30",
// with a day prefix past 24h.
func formatDuration(d time.Duration) string {
	total := int64(d / time.Second)
	if total < 0 {
		total = -total
	}
	days := total / 86400
	rem := total % 86400
	hms := fmt.Sprintf("%d:%02d:%02d", rem/3600, rem%3600/60, rem%60)
	switch {
	case days == 1:
		return "1 day, " + hms
	case days > 1:
		return fmt.Sprintf("%d days, %s", days, hms)
	default:
		return hms
	}
}

// trimFloat renders a float with minimal digits ("3", "2.5").
func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// fiatCurrencies are display currencies rendered with 3 decimals; coin
// amounts get 8.
var fiatCurrencies = map[string]struct{}{
	"USD": {}, "EUR": {}, "GBP": {}, "JPY": {}, "AUD": {}, "CAD": {},
	"CHF": {}, "CNY": {}, "KRW": {}, "RUB": {}, "BRL": {}, "TRY": {},
	"INR": {}, "SGD": {}, "HKD": {}, "NZD": {}, "PLN": {}, "SEK": {},
}

// coinValue renders an amount with its currency name, using 3 decimals
// for fiat display currencies and 8 for coins.
func coinValue(v float64, currency string) string {
	if currency == "" {
		return trimFloat(v)
	}
	if _, ok := fiatCurrencies[strings.ToUpper(currency)]; ok {
		return fmt.Sprintf("%.3f %s", v, currency)
	}
	return fmt.Sprintf("%.8f %s", v, currency)
}
