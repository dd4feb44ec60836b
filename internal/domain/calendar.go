package domain

import (
	"fmt"
	"regexp"
	"time"
)

// DateLayout is the wire format of pickup dates.
const DateLayout = "2006-01-02"

var (
	dateRegex  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	clockRegex = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// ClockTime is a time of day in minutes since midnight.
type ClockTime int

// ParseClock parses a zero-padded 24-hour "HH:MM" string.
func ParseClock(s string) (ClockTime, error) {
	if !clockRegex.MatchString(s) {
		return 0, fmt.Errorf("%q is not HH:MM", s)
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	if h > 23 || m > 59 {
		return 0, fmt.Errorf("%q is out of range", s)
	}
	return ClockTime(h*60 + m), nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// ParseDate parses a YYYY-MM-DD calendar date. The result is midnight UTC, so its
// Weekday is the weekday of the calendar date regardless of the server time zone.
func ParseDate(s string) (time.Time, error) {
	if !dateRegex.MatchString(s) {
		return time.Time{}, fmt.Errorf("%q is not YYYY-MM-DD", s)
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not a calendar date", s)
	}
	return d, nil
}

// CivilDate returns the calendar date of t in loc as midnight UTC.
func CivilDate(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var weekdays = map[string]time.Weekday{
	"Sunday":    time.Sunday,
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
}

// ParseWeekday maps an English weekday name ("Monday") to time.Weekday.
func ParseWeekday(name string) (time.Weekday, bool) {
	wd, ok := weekdays[name]
	return wd, ok
}
