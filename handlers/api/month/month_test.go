package month

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stable-thought/calendar"
	"stable-thought/core"

	"github.com/go-chi/chi/v5"
)

type staticStore struct {
	tasks   []core.Task
	entries []core.DiaryEntry
}

func (s staticStore) Tasks() []core.Task              { return s.tasks }
func (s staticStore) DiaryEntries() []core.DiaryEntry { return s.entries }

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func find(days []Day, date string) (Day, bool) {
	for _, d := range days {
		if d.Date == date {
			return d, true
		}
	}
	return Day{}, false
}

func TestBuild_GridAndMarkers(t *testing.T) {
	tasks := []core.Task{
		{ID: "1", Title: "a", Date: "2026-10-05", IsCompleted: true},
		{ID: "2", Title: "b", Date: "2026-10-05"},
		{
			ID:              "3",
			Title:           "trip",
			Date:            "2026-10-04",
			IsDuration:      boolPtr(true),
			DurationEndDate: strPtr("2026-10-06"),
			DurationStatus:  map[string]bool{"2026-10-05": true},
		},
	}
	entries := []core.DiaryEntry{{ID: "d", Date: "2026-10-19"}}
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.Local)

	got := Build(2026, time.October, now, tasks, entries)

	if len(got.Days) != calendar.GridSize {
		t.Fatalf("Day count mismatch: got %d, want %d", len(got.Days), calendar.GridSize)
	}
	// October 2026 starts on a Thursday.
	if got.Days[0].Date != "2026-09-27" || got.Days[0].InMonth {
		t.Errorf("first cell = %+v, want 2026-09-27 outside the month", got.Days[0])
	}
	if got.Days[0].Weekday != "日" {
		t.Errorf("first cell weekday = %q, want 日", got.Days[0].Weekday)
	}

	day, _ := find(got.Days, "2026-10-05")
	if day.TaskCount != 3 || day.CompletedCount != 2 {
		t.Errorf("2026-10-05 = %+v, want 3 tasks with 2 completed", day)
	}
	day, _ = find(got.Days, "2026-10-06")
	if day.TaskCount != 1 || day.CompletedCount != 0 {
		t.Errorf("2026-10-06 = %+v, want 1 task with 0 completed", day)
	}

	today, _ := find(got.Days, "2026-10-19")
	if !today.IsToday || !today.HasDiary || today.Label != "今天" {
		t.Errorf("2026-10-19 = %+v, want today with a diary", today)
	}
	other, _ := find(got.Days, "2026-10-25")
	if other.IsToday || other.HasDiary || other.Label != "10月25日" {
		t.Errorf("2026-10-25 = %+v, want a plain day", other)
	}
}

func TestHandleMonth(t *testing.T) {
	store := staticStore{}

	testCases := []struct {
		name  string
		year  string
		month string
		want  int
	}{
		{"valid", "2026", "2", http.StatusOK},
		{"month out of range", "2026", "13", http.StatusBadRequest},
		{"not a number", "year", "1", http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/calendar/"+tc.year+"/"+tc.month, http.NoBody)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("year", tc.year)
			rctx.URLParams.Add("month", tc.month)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			rec := httptest.NewRecorder()
			HandleMonth(store)(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("Status code mismatch: got %d, want %d", rec.Code, tc.want)
			}
			if tc.want != http.StatusOK {
				return
			}

			var resp Response
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Year != 2026 || resp.Month != 2 || len(resp.Days) != calendar.GridSize {
				t.Errorf("Response = %d-%d with %d days", resp.Year, resp.Month, len(resp.Days))
			}
		})
	}
}
