package shared

import (
	"testing"
	"time"
)

func TestParseMonthKey(t *testing.T) {
	if _, err := ParseMonthKey("2025-09"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, raw := range []string{"", "2025-13", "2025-00", "202509", "2025-9", "sep-2025"} {
		if _, err := ParseMonthKey(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestMonthKeyBounds(t *testing.T) {
	start, end, err := MonthKey("2025-12").Bounds()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !start.Equal(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v", start)
	}
	if !end.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("end = %v", end)
	}
}

func TestMonthKeyPrev(t *testing.T) {
	prev, err := MonthKey("2025-01").Prev()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prev != "2024-12" {
		t.Fatalf("prev = %s, want 2024-12", prev)
	}
}

func TestYearMonths(t *testing.T) {
	keys, err := YearMonths(2025)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 12 {
		t.Fatalf("expected 12 keys, got %d", len(keys))
	}
	if keys[0] != "2025-01" || keys[11] != "2025-12" {
		t.Fatalf("unexpected boundary keys %s / %s", keys[0], keys[11])
	}
	if _, err := YearMonths(99); err == nil {
		t.Fatal("expected error for two-digit year")
	}
}
