package core

import "time"

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last whole second of t's calendar day.
// Stored dates have second precision, so this closes the day inclusively.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Second)
}

// DayRange expands [from, to] to whole calendar days.
func DayRange(from, to time.Time) (time.Time, time.Time) {
	return StartOfDay(from), EndOfDay(to)
}

// WeekRange returns Monday 00:00 through Sunday 23:59:59 of the week containing t.
func WeekRange(t time.Time) (time.Time, time.Time) {
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	monday := StartOfDay(t).AddDate(0, 0, -offset)
	return monday, EndOfDay(monday.AddDate(0, 0, 6))
}

// MonthRange returns the first and last second of t's month.
func MonthRange(t time.Time) (time.Time, time.Time) {
	y, m, _ := t.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	return first, first.AddDate(0, 1, 0).Add(-time.Second)
}
