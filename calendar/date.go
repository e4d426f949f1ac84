// Package calendar holds the date arithmetic behind the month view: canonical
// YYYY-MM-DD strings in local time and the fixed 6x7 month grid.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the canonical date layout used as the key between UI and store.
const Layout = "2006-01-02"

// GridSize is the number of cells in a month view: six weeks of seven days.
const GridSize = 42

var weekdayLabels = [7]string{"日", "一", "二", "三", "四", "五", "六"}

// FormatDate renders the local calendar fields of t as YYYY-MM-DD, whatever
// location t carries.
func FormatDate(t time.Time) string {
	return t.Local().Format(Layout)
}

// Today is FormatDate(time.Now()).
func Today() string {
	return FormatDate(time.Now())
}

// ParseDate parses a canonical or loosely padded date (2026-1-5) as local
// midnight. RFC 3339 timestamps are accepted and converted to their local day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{Layout, "2006-1-2"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		lt := t.Local()
		return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, time.Local), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// Normalize returns the canonical form of a date string.
func Normalize(s string) (string, error) {
	t, err := ParseDate(s)
	if err != nil {
		return "", err
	}
	return FormatDate(t), nil
}

// DaysInMonth returns every day of the month at local midnight.
// month follows time.Month numbering (January = 1).
func DaysInMonth(year int, month time.Month) []time.Time {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.Local).Day()
	days := make([]time.Time, 0, last)
	for day := 1; day <= last; day++ {
		days = append(days, time.Date(year, month, day, 0, 0, 0, 0, time.Local))
	}
	return days
}

// CalendarDays returns the 42 dates of a Sunday-first month grid: the tail of
// the previous month, the whole month, then the head of the next month.
func CalendarDays(year int, month time.Month) []time.Time {
	days := DaysInMonth(year, month)
	lead := int(days[0].Weekday())

	grid := make([]time.Time, 0, GridSize)
	for i := lead; i > 0; i-- {
		grid = append(grid, time.Date(year, month, 1-i, 0, 0, 0, 0, time.Local))
	}
	grid = append(grid, days...)
	for i := 1; len(grid) < GridSize; i++ {
		grid = append(grid, time.Date(year, month+1, i, 0, 0, 0, 0, time.Local))
	}
	return grid
}

// MonthBounds returns the canonical first and last day of t's local month.
func MonthBounds(t time.Time) (first, last string) {
	t = t.Local()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.Local)
	end := time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.Local)
	return FormatDate(start), FormatDate(end)
}

// IsSameDay compares calendar fields only.
func IsSameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// WeekdayLabel returns the single-character Chinese weekday name.
func WeekdayLabel(d time.Weekday) string {
	return weekdayLabels[d]
}

// FriendlyDescription labels t relative to now: 今天, 明天, 昨天, or "M月D日".
func FriendlyDescription(t, now time.Time) string {
	switch {
	case IsSameDay(t, now):
		return "今天"
	case IsSameDay(t, now.AddDate(0, 0, 1)):
		return "明天"
	case IsSameDay(t, now.AddDate(0, 0, -1)):
		return "昨天"
	}
	return fmt.Sprintf("%d月%d日", int(t.Month()), t.Day())
}
