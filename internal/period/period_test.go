package period

import (
	"errors"
	"testing"
	"time"
)

func TestOf(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want ID
	}{
		{"mid week", time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC), "2026-W42"},
		{"monday midnight", time.Date(2026, time.October, 12, 0, 0, 0, 0, time.UTC), "2026-W42"},
		{"sunday night", time.Date(2026, time.October, 18, 23, 59, 59, 0, time.UTC), "2026-W42"},
		{"january belongs to previous year", time.Date(2027, time.January, 1, 9, 0, 0, 0, time.UTC), "2026-W53"},
		{"late december in week 1", time.Date(2024, time.December, 30, 9, 0, 0, 0, time.UTC), "2025-W01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Of(tt.at); got != tt.want {
				t.Errorf("Of(%v) = %s, want %s", tt.at, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	valid := []string{"2026-W01", "2026-W42", "2026-W53", "2025-W52"}
	for _, s := range valid {
		if _, err := Parse(s); err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", s, err)
		}
	}

	invalid := []string{"", "2026", "2026-42", "2026-W00", "2025-W53", "2026-W54", "W42-2026", "2026-W4", "2026-W4x"}
	for _, s := range invalid {
		if _, err := Parse(s); !errors.Is(err, ErrInvalidPeriod) {
			t.Errorf("Parse(%q) error = %v, want ErrInvalidPeriod", s, err)
		}
	}
}

func TestBounds(t *testing.T) {
	id := ID("2026-W42")

	start := id.Start()
	want := time.Date(2026, time.October, 12, 0, 0, 0, 0, time.UTC)
	if !start.Equal(want) {
		t.Fatalf("Start() = %v, want %v", start, want)
	}
	if start.Weekday() != time.Monday {
		t.Errorf("Start() weekday = %v, want Monday", start.Weekday())
	}
	if got := id.End().Sub(start); got != 7*24*time.Hour {
		t.Errorf("period length = %v, want 168h", got)
	}

	lo, hi := id.Bounds()
	if hi-lo != 7*24*60*60 {
		t.Errorf("Bounds() span = %d, want one week", hi-lo)
	}
}

func TestPreviousNext(t *testing.T) {
	if got := ID("2026-W01").Previous(); got != "2025-W52" {
		t.Errorf("Previous() = %s, want 2025-W52", got)
	}
	if got := ID("2026-W53").Next(); got != "2027-W01" {
		t.Errorf("Next() = %s, want 2027-W01", got)
	}
	if got := ID("2026-W42").Next().Previous(); got != "2026-W42" {
		t.Errorf("Next().Previous() = %s, want 2026-W42", got)
	}
}
