package model

import "time"

// DateLayout is the calendar-date key format used across every collection.
const DateLayout = "2006-01-02"

// ClockLayout is the slot start/end format.
const ClockLayout = "15:04"

// ValidDateKey reports whether s is a well-formed YYYY-MM-DD calendar date.
func ValidDateKey(s string) bool {
	t, err := time.Parse(DateLayout, s)
	return err == nil && t.Format(DateLayout) == s
}

// ValidClock reports whether s is a well-formed HH:MM time of day.
func ValidClock(s string) bool {
	t, err := time.Parse(ClockLayout, s)
	return err == nil && t.Format(ClockLayout) == s
}
