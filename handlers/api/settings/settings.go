package settings

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"stable-thought/core"
	"stable-thought/storage"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type (
	ThemeRequest struct {
		Theme string `json:"theme"`
	}

	ThemeResponse struct {
		Theme string `json:"theme"`
	}

	// Gateway is the part of the persistence layer that holds settings.
	Gateway interface {
		SaveTheme(ctx context.Context, theme string) storage.Result
		GetUserSettings(ctx context.Context) (core.UserSettings, storage.Result)
		SaveUserSettings(ctx context.Context, settings core.UserSettings) storage.Result
		GetCustomIcons(ctx context.Context) ([]core.CustomIcon, storage.Result)
		SaveCustomIcons(ctx context.Context, icons []core.CustomIcon) storage.Result
	}

	ThemeStore interface {
		Theme() string
		SetTheme(theme string)
	}
)

func renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": msg})
}

// failed renders 500 when the backing store could not be reached or the
// value could not be encoded. Missing and corrupt values load as defaults.
func failed(w http.ResponseWriter, r *http.Request, what string, res storage.Result) bool {
	if res.Kind != storage.StoreFailed && res.Kind != storage.EncodeFailed {
		return false
	}
	logrus.WithField("result", res.String()).Errorf("Failed to access %s", what)
	renderError(w, r, http.StatusInternalServerError, "Failed to access "+what)
	return true
}

func HandleGetTheme(store ThemeStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, ThemeResponse{Theme: store.Theme()})
	}
}

// HandleSetTheme persists the theme, then applies it to the running store.
func HandleSetTheme(store ThemeStore, gw Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ThemeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logrus.WithField("error", err).Warn("Failed to decode theme")
			renderError(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}
		req.Theme = strings.TrimSpace(req.Theme)
		if req.Theme == "" {
			renderError(w, r, http.StatusBadRequest, "Theme is required")
			return
		}

		if failed(w, r, "theme", gw.SaveTheme(r.Context(), req.Theme)) {
			return
		}
		store.SetTheme(req.Theme)
		render.JSON(w, r, ThemeResponse{Theme: req.Theme})
	}
}

func HandleGetUserSettings(gw Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, res := gw.GetUserSettings(r.Context())
		if failed(w, r, "user settings", res) {
			return
		}
		render.JSON(w, r, settings)
	}
}

func HandleSaveUserSettings(gw Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var settings core.UserSettings
		if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
			logrus.WithField("error", err).Warn("Failed to decode user settings")
			renderError(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}
		if failed(w, r, "user settings", gw.SaveUserSettings(r.Context(), settings)) {
			return
		}
		if settings == nil {
			settings = core.UserSettings{}
		}
		render.JSON(w, r, settings)
	}
}

func HandleGetIcons(gw Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		icons, res := gw.GetCustomIcons(r.Context())
		if failed(w, r, "custom icons", res) {
			return
		}
		render.JSON(w, r, icons)
	}
}

// HandleSaveIcons replaces the whole custom icon list.
func HandleSaveIcons(gw Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var icons []core.CustomIcon
		if err := json.NewDecoder(r.Body).Decode(&icons); err != nil {
			logrus.WithField("error", err).Warn("Failed to decode custom icons")
			renderError(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}
		for _, icon := range icons {
			if icon.URL == "" {
				renderError(w, r, http.StatusBadRequest, "Icon url is required")
				return
			}
		}
		if failed(w, r, "custom icons", gw.SaveCustomIcons(r.Context(), icons)) {
			return
		}
		if icons == nil {
			icons = []core.CustomIcon{}
		}
		render.JSON(w, r, icons)
	}
}
