package middleware

import (
	"context"
	"net/http"
	"strings"

	"stable-thought/handlers/auth"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type contextKey string

// ClaimsContextKey holds the *auth.AppClaims of an authenticated request.
const ClaimsContextKey = contextKey("claims")

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, map[string]string{"error": msg})
}

// AuthJWT requires a valid "Bearer <token>" device token.
func AuthJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			unauthorized(w, r, "Authorization header is required")
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || token == "" || strings.Contains(token, " ") {
			unauthorized(w, r, "Authorization header format must be Bearer {token}")
			return
		}

		claims, err := auth.ParseJWT(token)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error": err,
				"path":  r.URL.Path,
			}).Debug("Rejected device token")
			unauthorized(w, r, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuthJWT applies AuthJWT only when a signing secret is configured.
func OptionalAuthJWT(next http.Handler) http.Handler {
	protected := AuthJWT(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.Enabled() {
			protected.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
