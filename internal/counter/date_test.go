package counter

import (
	"testing"
	"time"
	_ "time/tzdata"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want Date
	}{
		{"2026-10-18", Date{2026, time.October, 18}},
		{"Sun Oct 18 2026", Date{2026, time.October, 18}},
		{"Thu Feb 29 2024", Date{2024, time.February, 29}},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if err != nil {
			t.Errorf("ParseDate(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseDate("yesterday"); err == nil {
		t.Error("ParseDate(yesterday) succeeded")
	}
}

func TestDaysSince(t *testing.T) {
	tests := []struct {
		from, to Date
		want     int
	}{
		{Date{2026, time.October, 18}, Date{2026, time.October, 18}, 0},
		{Date{2026, time.October, 15}, Date{2026, time.October, 18}, 3},
		{Date{2026, time.December, 31}, Date{2027, time.January, 1}, 1},
		{Date{2024, time.February, 28}, Date{2024, time.March, 1}, 2},
		{Date{2026, time.October, 19}, Date{2026, time.October, 18}, -1},
	}
	for _, tt := range tests {
		if got := tt.to.DaysSince(tt.from); got != tt.want {
			t.Errorf("%v.DaysSince(%v) = %d, want %d", tt.to, tt.from, got, tt.want)
		}
	}
}

func TestDaysSinceAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}

	// 2026-03-08 is 23 hours long in New York.
	before := DateOf(time.Date(2026, time.March, 7, 23, 30, 0, 0, ny))
	after := DateOf(time.Date(2026, time.March, 9, 0, 15, 0, 0, ny))
	if got := after.DaysSince(before); got != 2 {
		t.Errorf("DaysSince across spring-forward = %d, want 2", got)
	}

	// 2026-11-01 is 25 hours long.
	before = DateOf(time.Date(2026, time.October, 31, 0, 1, 0, 0, ny))
	after = DateOf(time.Date(2026, time.November, 1, 23, 59, 0, 0, ny))
	if got := after.DaysSince(before); got != 1 {
		t.Errorf("DaysSince across fall-back = %d, want 1", got)
	}
}

func TestDateString(t *testing.T) {
	d := Date{2026, time.January, 5}
	if d.String() != "2026-01-05" {
		t.Errorf("String = %q", d.String())
	}
	if got := d.AddDays(-5).String(); got != "2025-12-31" {
		t.Errorf("AddDays(-5) = %q", got)
	}
}
