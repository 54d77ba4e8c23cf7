package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// MinutesPerDay is the length of a calendar day in minutes. A clock string of
// "24:00" parses to this value and marks the end of the day.
const MinutesPerDay = 24 * 60

// DateLayout is the layout of calendar dates used throughout the service.
const DateLayout = "2006-01-02"

var clockRe = regexp.MustCompile(`^(\d{2}):(\d{2})$`)

// ParseClock converts an "HH:mm" clock string into minutes since midnight.
// Hours run from 00 to 24; "24:00" is the only accepted value with hour 24.
func ParseClock(s string) (int, error) {
	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid clock time %q: want HH:mm", s)
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	if min > 59 || h > 24 || (h == 24 && min != 0) {
		return 0, fmt.Errorf("invalid clock time %q: out of range", s)
	}
	return h*60 + min, nil
}

// FormatClock renders minutes since midnight as "HH:mm", wrapping at 24h.
// Wrapping is for display only; interval math works on the raw minute values.
func FormatClock(minutes int) string {
	minutes %= MinutesPerDay
	if minutes < 0 {
		minutes += MinutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// FormatEnd renders an interval end. Unlike FormatClock it keeps the end of
// day as "24:00" so a stored end time never sorts before its start.
func FormatEnd(minutes int) string {
	if minutes == MinutesPerDay {
		return "24:00"
	}
	return FormatClock(minutes)
}

// ParseDate validates a "YYYY-MM-DD" calendar date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return d, nil
}

// MinuteOfDay returns the minutes elapsed since midnight for t in its own location.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
