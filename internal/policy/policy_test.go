package policy

import (
	"encoding/json"
	"testing"

	"tradenotify/internal/event"
)

func TestResolveDefaults(t *testing.T) {
	t.Parallel()
	tbl := Table{}
	if got := tbl.Resolve(event.TypeEntry, ""); got != On {
		t.Fatalf("unconfigured type = %q, want on", got)
	}
}

func TestResolveScalar(t *testing.T) {
	t.Parallel()
	tbl := Table{
		event.TypeStatus: Scalar(Off),
		event.TypeExit:   Scalar(Silent),
	}
	if got := tbl.Resolve(event.TypeStatus, ""); got != Off {
		t.Fatalf("status = %q, want off", got)
	}
	// Scalar exit entries ignore the reason entirely.
	if got := tbl.Resolve(event.TypeExit, "roi"); got != Silent {
		t.Fatalf("exit = %q, want silent", got)
	}
}

func TestResolveReasonKeyed(t *testing.T) {
	t.Parallel()
	tbl := Table{
		event.TypeExit: ByReason(map[string]Setting{"stoploss": Silent}, On),
	}

	tests := []struct {
		reason string
		want   Setting
	}{
		{"stoploss", Silent},
		{"roi", On},
		{"", On},
		{"Stoploss", On}, // keys are case-sensitive
	}
	for _, tt := range tests {
		if got := tbl.Resolve(event.TypeExit, tt.reason); got != tt.want {
			t.Fatalf("Resolve(exit, %q) = %q, want %q", tt.reason, got, tt.want)
		}
	}
}

func TestResolveReasonKeyedNoDefault(t *testing.T) {
	t.Parallel()
	tbl := Table{
		event.TypeExitFill: ByReason(map[string]Setting{"stoploss": Off}, ""),
	}
	if got := tbl.Resolve(event.TypeExitFill, "roi"); got != On {
		t.Fatalf("unlisted reason without default = %q, want on", got)
	}
}

func TestParseFromJSON(t *testing.T) {
	t.Parallel()
	var raw map[string]Entry
	blob := `{
		"entry": "silent",
		"status": "off",
		"exit": {"default": "on", "stoploss": "silent"}
	}`
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	tbl, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := tbl.Resolve(event.TypeEntry, ""); got != Silent {
		t.Fatalf("entry = %q, want silent", got)
	}
	if got := tbl.Resolve(event.TypeExit, "stoploss"); got != Silent {
		t.Fatalf("exit[stoploss] = %q, want silent", got)
	}
	if got := tbl.Resolve(event.TypeExit, "trailing_stop"); got != On {
		t.Fatalf("exit[trailing_stop] = %q, want on", got)
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  map[string]Entry
	}{
		{"unknown type", map[string]Entry{"sell": Scalar(On)}},
		{"bad setting", map[string]Entry{"entry": Scalar("loud")}},
		{"reason map on non-exit", map[string]Entry{"entry": ByReason(map[string]Setting{"x": On}, "")}},
		{"bad reason setting", map[string]Entry{"exit": ByReason(map[string]Setting{"roi": "maybe"}, "")}},
		{"bad default", map[string]Entry{"exit": ByReason(nil, "maybe")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.raw); err == nil {
				t.Fatalf("expected error for %s", tt.name)
			}
		})
	}
}
