package tasks

import (
	"context"
	"encoding/json"
	"net/http"

	"stable-thought/calendar"
	"stable-thought/core"
	"stable-thought/sound"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type (
	TaskStore interface {
		Task(id string) (core.Task, bool)
		Tasks() []core.Task
		ActiveTasksOn(date string) []core.Task
		AddTask(ctx context.Context, in core.TaskInput) (core.Task, error)
		UpdateTask(ctx context.Context, id string, u core.TaskUpdate) (bool, error)
		DeleteTask(ctx context.Context, id string) bool
		ToggleTask(ctx context.Context, id string) bool
		ToggleDurationDay(ctx context.Context, id, date string) (bool, error)
	}

	// Player plays UI sound effects. It may be nil.
	Player interface {
		Play(t sound.Type, volume float64)
	}
)

func renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": msg})
}

// HandleList returns every task, or with ?date= the tasks shown on that day,
// duration spans included.
func HandleList(store TaskStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		if date == "" {
			render.JSON(w, r, store.Tasks())
			return
		}

		day, err := calendar.Normalize(date)
		if err != nil {
			renderError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		render.JSON(w, r, store.ActiveTasksOn(day))
	}
}

func HandleCreate(store TaskStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in core.TaskInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			logrus.WithField("error", err).Warn("Failed to decode task")
			renderError(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}
		if in.Title == "" {
			renderError(w, r, http.StatusBadRequest, "Task title is required")
			return
		}

		task, err := store.AddTask(r.Context(), in)
		if err != nil {
			renderError(w, r, http.StatusBadRequest, err.Error())
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, task)
	}
}

func HandleUpdate(store TaskStore, player Player) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var u core.TaskUpdate
		if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
			logrus.WithFields(logrus.Fields{
				"error": err,
				"id":    id,
			}).Warn("Failed to decode task update")
			renderError(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}

		ok, err := store.UpdateTask(r.Context(), id, u)
		if err != nil {
			renderError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if !ok {
			renderError(w, r, http.StatusNotFound, "Task not found")
			return
		}
		if u.Completes() {
			play(player, sound.TaskComplete)
		}

		task, _ := store.Task(id)
		render.JSON(w, r, task)
	}
}

func HandleDelete(store TaskStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if !store.DeleteTask(r.Context(), id) {
			renderError(w, r, http.StatusNotFound, "Task not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleToggle flips a task's completion.
func HandleToggle(store TaskStore, player Player) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if !store.ToggleTask(r.Context(), id) {
			renderError(w, r, http.StatusNotFound, "Task not found")
			return
		}

		task, _ := store.Task(id)
		if task.IsCompleted {
			play(player, sound.TaskComplete)
		}
		render.JSON(w, r, task)
	}
}

// HandleToggleDay flips one day of a duration task.
func HandleToggleDay(store TaskStore, player Player) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		date := chi.URLParam(r, "date")

		ok, err := store.ToggleDurationDay(r.Context(), id, date)
		if err != nil {
			renderError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if !ok {
			renderError(w, r, http.StatusNotFound, "Task not found")
			return
		}

		task, _ := store.Task(id)
		if day, _ := calendar.Normalize(date); task.DurationStatus[day] {
			play(player, sound.TaskComplete)
		}
		render.JSON(w, r, task)
	}
}

func play(player Player, t sound.Type) {
	if player != nil {
		player.Play(t, sound.DefaultVolume)
	}
}
