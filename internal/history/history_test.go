package history

import (
	"context"
	"path/filepath"
	"testing"

	"tradenotify/pkg/logx"
)

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	st, err := Open(Config{}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if st != nil {
		t.Fatal("disabled journal must return a nil store")
	}

	st, err = Open(Config{Driver: "none"}, logx.Nop())
	if err != nil || st != nil {
		t.Fatalf("driver none: store=%v err=%v", st, err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "postgres"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "history.db")
	st, err := Open(Config{Driver: "sqlite", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	entries := []Entry{
		{Channel: "telegram", Recipient: "ops-main", ChatID: 100, EventType: "exit", Pair: "BTC/USDT", TradeID: 7, Attempts: 1, Outcome: "delivered"},
		{Channel: "telegram", Recipient: "secondary", ChatID: 300, EventType: "exit", Pair: "BTC/USDT", TradeID: 7, Attempts: 2, Outcome: "dropped_transient"},
		{Channel: "webhook", Recipient: "webhook", EventType: "status", Attempts: 1, Outcome: "delivered"},
	}
	for _, e := range entries {
		if err := st.Append(ctx, e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := st.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent returned %d entries, want 3", len(got))
	}
	// Newest first.
	if got[0].Channel != "webhook" || got[0].EventType != "status" {
		t.Fatalf("unexpected newest entry: %+v", got[0])
	}
	if got[1].Attempts != 2 || got[1].Outcome != "dropped_transient" {
		t.Fatalf("unexpected entry: %+v", got[1])
	}
	if got[2].At.IsZero() {
		t.Fatal("Append must stamp a timestamp")
	}
}
