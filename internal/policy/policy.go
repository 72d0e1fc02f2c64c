// Package policy decides whether, and how loudly, an event type is
// announced. Settings form a tri-state: on, off, or silent (delivered
// without an alert tone). Exit-family entries may be keyed by exit
// reason with a declared default for unlisted reasons.
package policy

import (
	"encoding/json"
	"fmt"

	"tradenotify/internal/event"
)

type Setting string

const (
	On     Setting = "on"
	Off    Setting = "off"
	Silent Setting = "silent"
)

func (s Setting) Valid() bool {
	switch s {
	case On, Off, Silent:
		return true
	}
	return false
}

// defaultSetting applies when an event type has no configured entry, and
// when a reason-keyed entry carries no explicit default.
const defaultSetting = On

// Entry is one configured value: either a scalar tri-state or, for
// exit-family types, a per-reason mapping with a "default" key.
type Entry struct {
	scalar   Setting
	byReason map[string]Setting
	fallback Setting
	keyed    bool
}

func Scalar(s Setting) Entry { return Entry{scalar: s} }

func ByReason(m map[string]Setting, fallback Setting) Entry {
	return Entry{byReason: m, fallback: fallback, keyed: true}
}

func (e *Entry) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*e = Entry{scalar: Setting(s)}
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("notification setting must be a string or a reason map: %w", err)
	}
	out := Entry{byReason: make(map[string]Setting, len(m)), keyed: true}
	for k, v := range m {
		if k == "default" {
			out.fallback = Setting(v)
			continue
		}
		out.byReason[k] = Setting(v)
	}
	*e = out
	return nil
}

func (e Entry) validate(t event.Type) error {
	if !e.keyed {
		if !e.scalar.Valid() {
			return fmt.Errorf("%s: invalid setting %q (want on/off/silent)", t, e.scalar)
		}
		return nil
	}
	if !t.ExitFamily() {
		return fmt.Errorf("%s: reason-keyed settings are only valid for exit and exit_fill", t)
	}
	if e.fallback != "" && !e.fallback.Valid() {
		return fmt.Errorf("%s: invalid default setting %q", t, e.fallback)
	}
	for reason, s := range e.byReason {
		if !s.Valid() {
			return fmt.Errorf("%s[%s]: invalid setting %q", t, reason, s)
		}
	}
	return nil
}

// Table maps event types to their configured setting.
type Table map[event.Type]Entry

// Parse builds a Table from raw config values and validates it.
func Parse(raw map[string]Entry) (Table, error) {
	tbl := make(Table, len(raw))
	for name, e := range raw {
		t := event.Type(name)
		if !t.Known() {
			return nil, fmt.Errorf("unknown event type %q in notification settings", name)
		}
		if err := e.validate(t); err != nil {
			return nil, err
		}
		tbl[t] = e
	}
	return tbl, nil
}

// Resolve returns the setting for one event. reason is consulted only for
// reason-keyed exit-family entries (case-sensitive); everything else uses
// the scalar value, defaulting to on when unconfigured.
func (tbl Table) Resolve(t event.Type, reason string) Setting {
	e, ok := tbl[t]
	if !ok {
		return defaultSetting
	}
	if !e.keyed {
		return e.scalar
	}
	if s, ok := e.byReason[reason]; ok {
		return s
	}
	if e.fallback != "" {
		return e.fallback
	}
	return defaultSetting
}
