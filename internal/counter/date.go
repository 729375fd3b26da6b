package counter

import (
	"fmt"
	"time"
)

const (
	dateLayout = "2006-01-02"
	// Older records store dates like "Sun Oct 18 2026".
	legacyDateLayout = "Mon Jan 02 2006"
)

// Date is a calendar day with no time of day and no zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day t falls on in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate accepts YYYY-MM-DD and the legacy "Mon Jan 02 2006" form.
func ParseDate(s string) (Date, error) {
	for _, layout := range []string{dateLayout, legacyDateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("parse date %q", s)
}

func (d Date) String() string {
	return d.midnight().Format(dateLayout)
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// midnight pins d to UTC so that day arithmetic never sees a DST shift.
func (d Date) midnight() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// DaysSince returns the number of whole calendar days from earlier to d.
// It is negative when earlier is after d.
func (d Date) DaysSince(earlier Date) int {
	return int(d.midnight().Sub(earlier.midnight()) / (24 * time.Hour))
}

// AddDays returns the date n calendar days after d.
func (d Date) AddDays(n int) Date {
	return DateOf(d.midnight().AddDate(0, 0, n))
}
