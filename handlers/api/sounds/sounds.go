package sounds

import (
	"bytes"
	"net/http"
	"time"

	"stable-thought/sound"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type SoundSource interface {
	Get(t sound.Type) ([]byte, bool)
}

// HandleList returns the known sound types.
func HandleList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, sound.Types)
	}
}

// HandleGet serves the mp3 of a sound type.
func HandleGet(lib SoundSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t := sound.Type(chi.URLParam(r, "type"))
		if !t.Valid() {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Unknown sound"})
			return
		}

		data, ok := lib.Get(t)
		if !ok {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Sound not available"})
			return
		}

		w.Header().Set("Content-Type", "audio/mpeg")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		http.ServeContent(w, r, string(t)+".mp3", time.Time{}, bytes.NewReader(data))
	}
}
