package event

import (
	"errors"
	"time"
)

// Type tags a trading lifecycle event.
type Type string

const (
	TypeEntry                   Type = "entry"
	TypeEntryFill               Type = "entry_fill"
	TypeEntryCancel             Type = "entry_cancel"
	TypeExit                    Type = "exit"
	TypeExitFill                Type = "exit_fill"
	TypeExitCancel              Type = "exit_cancel"
	TypeProtectionTrigger       Type = "protection_trigger"
	TypeProtectionTriggerGlobal Type = "protection_trigger_global"
	TypeStatus                  Type = "status"
	TypeWarning                 Type = "warning"
	TypeStartup                 Type = "startup"
	TypeStrategyMsg             Type = "strategy_msg"
)

// Types lists every known event type, in taxonomy order.
var Types = []Type{
	TypeEntry, TypeEntryFill, TypeEntryCancel,
	TypeExit, TypeExitFill, TypeExitCancel,
	TypeProtectionTrigger, TypeProtectionTriggerGlobal,
	TypeStatus, TypeWarning, TypeStartup, TypeStrategyMsg,
}

func (t Type) Known() bool {
	for _, k := range Types {
		if t == k {
			return true
		}
	}
	return false
}

// ExitFamily reports whether per-reason notification overrides apply to t.
func (t Type) ExitFamily() bool {
	return t == TypeExit || t == TypeExitFill
}

func (t Type) fill() bool {
	return t == TypeEntryFill || t == TypeExitFill
}

var ErrNoType = errors.New("event has no type")

// Event is one trading lifecycle occurrence to be announced.
//
// Events are passed by value and are never mutated by handlers; every
// derived field (duration, profit percent, fiat amounts, ...) is computed
// locally at composition time.
type Event struct {
	Type Type `json:"type"`

	// Identity.
	Pair     string `json:"pair,omitempty"`
	TradeID  int64  `json:"trade_id,omitempty"`
	Exchange string `json:"exchange,omitempty"`
	UID      string `json:"uid,omitempty"`

	// Economics.
	Amount        float64 `json:"amount,omitempty"`
	OpenRate      float64 `json:"open_rate,omitempty"`
	CurrentRate   float64 `json:"current_rate,omitempty"`
	OrderRate     float64 `json:"order_rate,omitempty"`
	CloseRate     float64 `json:"close_rate,omitempty"`
	StakeAmount   float64 `json:"stake_amount,omitempty"`
	StakeCurrency string  `json:"stake_currency,omitempty"`
	FiatCurrency  string  `json:"fiat_currency,omitempty"`
	Leverage      float64 `json:"leverage,omitempty"`
	Direction     string  `json:"direction,omitempty"`

	// Temporal. Duration is always derived, never carried.
	OpenDate  time.Time `json:"open_date,omitzero"`
	CloseDate time.Time `json:"close_date,omitzero"`

	// Classification.
	EnterTag   string `json:"enter_tag,omitempty"`
	ExitTag    string `json:"exit_tag,omitempty"`
	ExitReason string `json:"exit_reason,omitempty"`
	Reason     string `json:"reason,omitempty"`

	// Exit aggregation.
	ProfitRatio      float64 `json:"profit_ratio,omitempty"`
	ProfitAmount     float64 `json:"profit_amount,omitempty"`
	CumulativeProfit float64 `json:"cumulative_profit,omitempty"`
	SubTrade         bool    `json:"sub_trade,omitempty"`

	// Status / protection / free-form.
	Status      string    `json:"status,omitempty"`
	LockEndTime time.Time `json:"lock_end_time,omitzero"`
	Message     string    `json:"msg,omitempty"`
}

// Validate checks the event contract. A missing type is a contract
// violation fatal to the handler call that received it.
func (e Event) Validate() error {
	if e.Type == "" {
		return ErrNoType
	}
	return nil
}

// IsFill reports whether this event announces an already-filled order.
func (e Event) IsFill() bool { return e.Type.fill() }

const timeLayout = "2006-01-02 15:04:05"

// Fields returns the canonical name->value map of the event, used for
// webhook template interpolation. Keys match the JSON wire names; times
// render in a stable human layout.
func (e Event) Fields() map[string]any {
	return map[string]any{
		"type":              string(e.Type),
		"pair":              e.Pair,
		"trade_id":          e.TradeID,
		"exchange":          e.Exchange,
		"uid":               e.UID,
		"amount":            e.Amount,
		"open_rate":         e.OpenRate,
		"current_rate":      e.CurrentRate,
		"order_rate":        e.OrderRate,
		"close_rate":        e.CloseRate,
		"stake_amount":      e.StakeAmount,
		"stake_currency":    e.StakeCurrency,
		"fiat_currency":     e.FiatCurrency,
		"leverage":          e.Leverage,
		"direction":         e.Direction,
		"open_date":         formatTime(e.OpenDate),
		"close_date":        formatTime(e.CloseDate),
		"enter_tag":         e.EnterTag,
		"exit_tag":          e.ExitTag,
		"exit_reason":       e.ExitReason,
		"reason":            e.Reason,
		"profit_ratio":      e.ProfitRatio,
		"profit_amount":     e.ProfitAmount,
		"cumulative_profit": e.CumulativeProfit,
		"sub_trade":         e.SubTrade,
		"status":            e.Status,
		"lock_end_time":     formatTime(e.LockEndTime),
		"msg":               e.Message,
	}
}

// FieldNames returns the set of interpolatable field names. Config-time
// template validation checks referenced names against this set.
func FieldNames() map[string]struct{} {
	names := Event{}.Fields()
	set := make(map[string]struct{}, len(names))
	for k := range names {
		set[k] = struct{}{}
	}
	return set
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}
