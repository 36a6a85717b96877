// Package period handles challenge periods. A period is an ISO 8601 week,
// written as "2026-W42", and spans Monday 00:00 UTC to the next Monday.
package period

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPeriod is returned for ids that are not ISO weeks.
var ErrInvalidPeriod = errors.New("invalid period id")

// ID is an ISO week identifier such as "2026-W42".
type ID string

// Of returns the period containing t.
func Of(t time.Time) ID {
	year, week := t.UTC().ISOWeek()
	return ID(fmt.Sprintf("%04d-W%02d", year, week))
}

// Parse validates s and returns it as an ID.
func Parse(s string) (ID, error) {
	if !wellFormed(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	var year, week int
	if n, err := fmt.Sscanf(s, "%4d-W%2d", &year, &week); err != nil || n != 2 {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	if week < 1 || week > weeksIn(year) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return ID(s), nil
}

// Start returns the Monday 00:00 UTC that opens the period.
func (id ID) Start() time.Time {
	var year, week int
	fmt.Sscanf(string(id), "%4d-W%2d", &year, &week)

	// January 4th is always in week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	monday := jan4.AddDate(0, 0, -offset)
	return monday.AddDate(0, 0, (week-1)*7)
}

// End returns the exclusive end of the period.
func (id ID) End() time.Time {
	return id.Start().AddDate(0, 0, 7)
}

// Bounds returns the period as [start, end) Unix seconds.
func (id ID) Bounds() (int64, int64) {
	return id.Start().Unix(), id.End().Unix()
}

// Previous returns the period immediately before id.
func (id ID) Previous() ID {
	return Of(id.Start().AddDate(0, 0, -1))
}

// Next returns the period immediately after id.
func (id ID) Next() ID {
	return Of(id.End())
}

func (id ID) String() string {
	return string(id)
}

// wellFormed checks the YYYY-Www shape.
func wellFormed(s string) bool {
	if len(s) != len("2006-W01") || s[4] != '-' || s[5] != 'W' {
		return false
	}
	for i, c := range s {
		if i == 4 || i == 5 {
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func weeksIn(year int) int {
	_, week := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return week
}
