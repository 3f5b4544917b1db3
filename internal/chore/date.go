package chore

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format accepted on create and edit.
const DateLayout = "2006-01-02"

// Clock reports the current calendar date.
type Clock interface {
	Today() time.Time
}

// ZoneClock reads the wall clock and takes the calendar date in loc.
type ZoneClock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock returns a Clock for the given location. A nil location means UTC.
func NewClock(loc *time.Location) *ZoneClock {
	if loc == nil {
		loc = time.UTC
	}
	return &ZoneClock{loc: loc, now: time.Now}
}

func (c *ZoneClock) Today() time.Time {
	return DateOf(c.now().In(c.loc))
}

// FixedClock always returns the same date.
type FixedClock time.Time

func (c FixedClock) Today() time.Time {
	return DateOf(time.Time(c))
}

// DateOf strips the time of day from t, keeping the calendar date as seen in
// t's own location, and returns it as midnight UTC.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AddDays moves a calendar date by n days.
func AddDays(d time.Time, n int) time.Time {
	return d.AddDate(0, 0, n)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate renders a calendar date, or "" when d is nil.
func FormatDate(d *time.Time) string {
	if d == nil {
		return ""
	}
	return d.Format(DateLayout)
}
