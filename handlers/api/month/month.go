package month

import (
	"net/http"
	"strconv"
	"time"

	"stable-thought/calendar"
	"stable-thought/core"
	"stable-thought/diary"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type (
	// Day is one cell of the month grid.
	Day struct {
		Date           string `json:"date"`
		Day            int    `json:"day"`
		Weekday        string `json:"weekday"`
		InMonth        bool   `json:"inMonth"`
		IsToday        bool   `json:"isToday"`
		Label          string `json:"label"`
		TaskCount      int    `json:"taskCount"`
		CompletedCount int    `json:"completedCount"`
		HasDiary       bool   `json:"hasDiary"`
	}

	Response struct {
		Year  int   `json:"year"`
		Month int   `json:"month"`
		Days  []Day `json:"days"`
	}

	MonthStore interface {
		Tasks() []core.Task
		DiaryEntries() []core.DiaryEntry
	}
)

// HandleMonth returns the 42-day grid of a month with per-day task and
// diary markers.
func HandleMonth(store MonthStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		year, errY := strconv.Atoi(chi.URLParam(r, "year"))
		m, errM := strconv.Atoi(chi.URLParam(r, "month"))
		if errY != nil || errM != nil || m < 1 || m > 12 || year < 1 || year > 9999 {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid year or month"})
			return
		}

		render.JSON(w, r, Build(year, time.Month(m), time.Now(), store.Tasks(), store.DiaryEntries()))
	}
}

// Build lays out the grid of year/month as seen on now.
func Build(year int, m time.Month, now time.Time, tasks []core.Task, entries []core.DiaryEntry) Response {
	grid := calendar.CalendarDays(year, m)
	days := make([]Day, 0, len(grid))
	for _, d := range grid {
		date := calendar.FormatDate(d)
		active := diary.ActiveTasksOn(tasks, date)

		completed := 0
		for _, t := range active {
			if t.Spans() && t.Date != date {
				if t.DurationStatus[date] {
					completed++
				}
				continue
			}
			if t.IsCompleted {
				completed++
			}
		}
		_, hasDiary := diary.DiaryOn(entries, date)

		days = append(days, Day{
			Date:           date,
			Day:            d.Day(),
			Weekday:        calendar.WeekdayLabel(d.Weekday()),
			InMonth:        d.Month() == m && d.Year() == year,
			IsToday:        calendar.IsSameDay(d, now),
			Label:          calendar.FriendlyDescription(d, now),
			TaskCount:      len(active),
			CompletedCount: completed,
			HasDiary:       hasDiary,
		})
	}
	return Response{Year: year, Month: int(m), Days: days}
}
