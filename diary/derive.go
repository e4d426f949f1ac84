package diary

import (
	"time"

	"stable-thought/calendar"
	"stable-thought/core"
)

// TasksOn returns the tasks dated date, in insertion order.
func TasksOn(tasks []core.Task, date string) []core.Task {
	out := make([]core.Task, 0)
	for _, t := range tasks {
		if t.Date == date {
			out = append(out, t.Clone())
		}
	}
	return out
}

// ActiveTasksOn returns the tasks dated date plus the duration tasks whose
// span [Date, DurationEndDate] covers it.
func ActiveTasksOn(tasks []core.Task, date string) []core.Task {
	out := make([]core.Task, 0)
	for _, t := range tasks {
		if t.Date == date || covers(t, date) {
			out = append(out, t.Clone())
		}
	}
	return out
}

func covers(t core.Task, date string) bool {
	return t.Spans() && t.DurationEndDate != nil && inSpan(t, date)
}

// inSpan reports whether date lies in [Date, DurationEndDate], or is Date
// when there is no end. Canonical dates order lexically.
func inSpan(t core.Task, date string) bool {
	end := t.Date
	if t.DurationEndDate != nil {
		end = *t.DurationEndDate
	}
	return t.Date <= date && date <= end
}

// DiaryOn returns the entry dated date, if any.
func DiaryOn(entries []core.DiaryEntry, date string) (core.DiaryEntry, bool) {
	for _, e := range entries {
		if e.Date == date {
			return e.Clone(), true
		}
	}
	return core.DiaryEntry{}, false
}

// CompletedInMonth counts completed tasks dated within now's month, bounds
// inclusive.
func CompletedInMonth(tasks []core.Task, now time.Time) int {
	first, last := calendar.MonthBounds(now)
	n := 0
	for _, t := range tasks {
		if t.IsCompleted && t.Date >= first && t.Date <= last {
			n++
		}
	}
	return n
}

// DiaryDaysInMonth counts entries whose date has now's year and month.
func DiaryDaysInMonth(entries []core.DiaryEntry, now time.Time) int {
	now = now.Local()
	n := 0
	for _, e := range entries {
		d, err := calendar.ParseDate(e.Date)
		if err != nil {
			continue
		}
		if d.Year() == now.Year() && d.Month() == now.Month() {
			n++
		}
	}
	return n
}
