package fanout

import (
	"testing"

	"tradenotify/internal/event"
)

func testResolver() *Resolver {
	return New([]Recipient{
		{Name: "ops-main", ChatID: 100},
		{Name: "ops-backup", ChatID: 200},
	}, 300)
}

func TestRecipientsForOrdering(t *testing.T) {
	t.Parallel()
	r := testResolver()

	got := r.RecipientsFor(event.TypeExit)
	if len(got) != 3 {
		t.Fatalf("exit recipients = %d, want 3", len(got))
	}
	wantIDs := []int64{100, 200, 300}
	for i, id := range wantIDs {
		if got[i].ChatID != id {
			t.Fatalf("recipient[%d] = %d, want %d", i, got[i].ChatID, id)
		}
	}
	if got[2].Role != RoleSecondary {
		t.Fatalf("last recipient role = %q, want secondary", got[2].Role)
	}
}

func TestRecipientsForExclusions(t *testing.T) {
	t.Parallel()
	r := testResolver()

	tests := []struct {
		typ  event.Type
		want int
	}{
		{event.TypeStartup, 0},           // nobody gets startup
		{event.TypeStatus, 2},            // secondary excluded
		{event.TypeProtectionTrigger, 3}, // everybody else gets the rest
		{event.TypeWarning, 3},
		{event.TypeEntry, 3},
	}
	for _, tt := range tests {
		if got := r.RecipientsFor(tt.typ); len(got) != tt.want {
			t.Fatalf("%s recipients = %d, want %d", tt.typ, len(got), tt.want)
		}
	}
}

func TestRecipientsForEmptyConfig(t *testing.T) {
	t.Parallel()
	r := New(nil, 0)
	if got := r.RecipientsFor(event.TypeExit); len(got) != 0 {
		t.Fatalf("empty config recipients = %d, want 0", len(got))
	}
}

func TestSecondaryOnly(t *testing.T) {
	t.Parallel()
	r := New(nil, 42)
	if got := r.RecipientsFor(event.TypeStatus); len(got) != 0 {
		t.Fatalf("status with secondary-only config = %d recipients, want 0", len(got))
	}
	got := r.RecipientsFor(event.TypeExitCancel)
	if len(got) != 1 || got[0].ChatID != 42 {
		t.Fatalf("unexpected recipients: %+v", got)
	}
}
