package state

import (
	"encoding/json"
	"net/http"
	"time"

	"stable-thought/diary"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type (
	SelectRequest struct {
		Date string `json:"date"`
	}

	StatsResponse struct {
		Month          string `json:"month"`
		CompletedTasks int    `json:"completedTasks"`
		DiaryDays      int    `json:"diaryDays"`
	}

	StateStore interface {
		Snapshot() diary.State
		SelectDay(date string) error
		CloseDetail()
		CurrentMonthCompletedTasksCount() int
		CurrentMonthDiaryDaysCount() int
	}
)

// HandleGetState returns the whole store with its derived values.
func HandleGetState(store StateStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, store.Snapshot())
	}
}

// HandleSelect moves the selection and opens the day's detail view.
func HandleSelect(store StateStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SelectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logrus.WithField("error", err).Warn("Failed to decode select request")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid request body"})
			return
		}

		if err := store.SelectDay(req.Date); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": err.Error()})
			return
		}

		render.JSON(w, r, store.Snapshot())
	}
}

// HandleClose closes the detail view.
func HandleClose(store StateStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store.CloseDetail()
		render.JSON(w, r, store.Snapshot())
	}
}

// HandleStats returns the monthly aggregates of the real current month.
func HandleStats(store StateStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, StatsResponse{
			Month:          time.Now().Format("2006-01"),
			CompletedTasks: store.CurrentMonthCompletedTasksCount(),
			DiaryDays:      store.CurrentMonthDiaryDaysCount(),
		})
	}
}
