package compose

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	t.Parallel()
	tests := []struct {
		d    time.Duration
		want string
	}{
		{3630 * time.Second, "1:00:30"},
		{59 * time.Second, "0:00:59"},
		{61 * time.Minute, "1:01:00"},
		{25*time.Hour + 90*time.Second, "1 day, 1:01:30"},
		{49 * time.Hour, "2 days, 1:00:00"},
		{0, "0:00:00"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Fatalf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	t.Parallel()
	tests := []struct {
		v    float64
		want string
	}{
		{2.0, "2.0"},
		{2.5, "2.5"},
		{2.57, "2.57"},
		{0, "0.0"},
		{-1.25, "-1.25"},
	}
	for _, tt := range tests {
		if got := formatPercent(tt.v); got != tt.want {
			t.Fatalf("formatPercent(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestRound2(t *testing.T) {
	t.Parallel()
	if got := round2(0.02 * 100); got != 2.0 {
		t.Fatalf("round2 = %v, want 2.0", got)
	}
	if got := round2(1.005 * 100); got != 100.5 {
		t.Fatalf("round2 = %v, want 100.5", got)
	}
}

func TestCoinValue(t *testing.T) {
	t.Parallel()
	tests := []struct {
		v        float64
		currency string
		want     string
	}{
		{12.0, "USDT", "12.00000000 USDT"},
		{12.0, "USD", "12.000 USD"},
		{12.3456, "eur", "12.346 eur"},
		{1.5, "", "1.5"},
	}
	for _, tt := range tests {
		if got := coinValue(tt.v, tt.currency); got != tt.want {
			t.Fatalf("coinValue(%v, %q) = %q, want %q", tt.v, tt.currency, got, tt.want)
		}
	}
}

func TestFormatReason(t *testing.T) {
	t.Parallel()
	if got := formatReason("roi"); got != "ROI" {
		t.Fatalf("formatReason = %q", got)
	}
	if got := formatReason("trailing_stop_loss"); got != "TRAILING STOP LOSS" {
		t.Fatalf("formatReason = %q", got)
	}
}
