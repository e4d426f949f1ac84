package entries

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"stable-thought/calendar"
	"stable-thought/core"
	"stable-thought/draw"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// DefaultImageSize is the canvas size used to compose entries when the
// request gives none.
var DefaultImageSize = draw.Size{Width: 800, Height: 600}

type DiaryStore interface {
	DiaryEntries() []core.DiaryEntry
	Diary(date string) (core.DiaryEntry, bool)
	SaveDiary(ctx context.Context, u core.DiaryUpdate) (core.DiaryEntry, error)
}

func renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": msg})
}

func HandleList(store DiaryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, store.DiaryEntries())
	}
}

func HandleGet(store DiaryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, status, msg := lookup(store, chi.URLParam(r, "date"))
		if status != http.StatusOK {
			renderError(w, r, status, msg)
			return
		}
		render.JSON(w, r, entry)
	}
}

// HandleSave upserts the entry of the body's date, or of the selected day.
func HandleSave(store DiaryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var u core.DiaryUpdate
		if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
			logrus.WithField("error", err).Warn("Failed to decode diary entry")
			renderError(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}
		if u.DrawingImageData != nil && *u.DrawingImageData != "" {
			if _, err := draw.DataURLBytes(*u.DrawingImageData); err != nil {
				renderError(w, r, http.StatusBadRequest, "drawingImageData must be a base64 data URL")
				return
			}
		}

		entry, err := store.SaveDiary(r.Context(), u)
		if err != nil {
			renderError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		render.JSON(w, r, entry)
	}
}

// HandleImage renders the entry's sketch and stickers as one PNG.
func HandleImage(store DiaryStore, stickers draw.StickerSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, status, msg := lookup(store, chi.URLParam(r, "date"))
		if status != http.StatusOK {
			renderError(w, r, status, msg)
			return
		}

		size := DefaultImageSize
		if entry.DrawingImageData != nil && *entry.DrawingImageData != "" {
			if img, err := draw.DecodeDataURL(*entry.DrawingImageData); err == nil {
				size = draw.Size{Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}
			}
		}

		url, err := draw.ComposeEntry(entry, size, stickers)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error": err,
				"date":  entry.Date,
			}).Error("Failed to compose diary image")
			if errors.Is(err, draw.ErrContextUnavailable) {
				renderError(w, r, http.StatusUnprocessableEntity, "Diary image has an unusable size")
				return
			}
			renderError(w, r, http.StatusInternalServerError, "Failed to compose diary image")
			return
		}

		png, _ := draw.DataURLBytes(url)
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	}
}

func lookup(store DiaryStore, date string) (core.DiaryEntry, int, string) {
	day, err := calendar.Normalize(date)
	if err != nil {
		return core.DiaryEntry{}, http.StatusBadRequest, err.Error()
	}
	entry, ok := store.Diary(day)
	if !ok {
		return core.DiaryEntry{}, http.StatusNotFound, "Diary entry not found"
	}
	return entry, http.StatusOK, ""
}
