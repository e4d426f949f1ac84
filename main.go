package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"stable-thought/diary"
	"stable-thought/draw"
	"stable-thought/handlers/api/entries"
	"stable-thought/handlers/api/month"
	"stable-thought/handlers/api/settings"
	"stable-thought/handlers/api/sounds"
	"stable-thought/handlers/api/state"
	"stable-thought/handlers/api/tasks"
	"stable-thought/handlers/auth"
	"stable-thought/handlers/websocket"
	authMiddleware "stable-thought/middleware"
	"stable-thought/sound"
	"stable-thought/storage"
	"stable-thought/stores"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

func allowLocalOrigin(r *http.Request, origin string) bool {
	if origin == "" {
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	switch parsed.Scheme {
	case "http", "https":
		switch parsed.Hostname() {
		case "localhost", "127.0.0.1", "::1":
			return true
		}
	case "tauri":
		return parsed.Hostname() == "localhost"
	}

	return false
}

func setupRouter(store *diary.Store, gateway *storage.Gateway, lib *sound.Library, stickers draw.StickerSource) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"tauri://localhost"},
		AllowOriginFunc:  allowLocalOrigin,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]any{
			"status":   "ok",
			"loading":  store.Loading(),
			"sessions": websocket.ActiveSessions(),
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authMiddleware.OptionalAuthJWT)

		r.Get("/state", state.HandleGetState(store))
		r.Post("/select", state.HandleSelect(store))
		r.Post("/close", state.HandleClose(store))
		r.Get("/stats", state.HandleStats(store))
		r.Get("/calendar/{year}/{month}", month.HandleMonth(store))

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", tasks.HandleList(store))
			r.Post("/", tasks.HandleCreate(store))
			r.Route("/{id}", func(r chi.Router) {
				r.Patch("/", tasks.HandleUpdate(store, lib))
				r.Delete("/", tasks.HandleDelete(store))
				r.Post("/toggle", tasks.HandleToggle(store, lib))
				r.Post("/days/{date}/toggle", tasks.HandleToggleDay(store, lib))
			})
		})

		r.Route("/diary", func(r chi.Router) {
			r.Get("/", entries.HandleList(store))
			r.Put("/", entries.HandleSave(store))
			r.Route("/{date}", func(r chi.Router) {
				r.Get("/", entries.HandleGet(store))
				r.Get("/image", entries.HandleImage(store, stickers))
			})
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/theme", settings.HandleGetTheme(store))
			r.Put("/theme", settings.HandleSetTheme(store, gateway))
			r.Get("/user", settings.HandleGetUserSettings(gateway))
			r.Put("/user", settings.HandleSaveUserSettings(gateway))
			r.Get("/icons", settings.HandleGetIcons(gateway))
			r.Put("/icons", settings.HandleSaveIcons(gateway))
		})

		r.Get("/sounds", sounds.HandleList())
		r.Get("/sounds/{type}", sounds.HandleGet(lib))
	})

	return r
}

func waitForShutdown(ioo *socketio.Server, closers ...func()) {
	exit := make(chan struct{})
	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	logrus.Info("Shutting down...")
	ioo.Close(nil)
	for _, c := range closers {
		c()
	}
	os.Exit(0)
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	listenAddress := flag.String("listen", ":3002", "The address to listen on.")
	logLevel := flag.String("loglevel", "info", "The log level (debug, info, warn, error).")
	issueToken := flag.String("issue-token", "", "Print a bearer token for the named device and exit.")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	auth.InitAuth()
	if *issueToken != "" {
		token, err := auth.IssueToken(*issueToken, auth.DefaultTTL)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to issue token")
		}
		fmt.Println(token)
		return
	}

	ctx := context.Background()
	kv := stores.GetStore(ctx)
	gateway := storage.New(kv, os.Getenv("STORAGE_NAMESPACE"))

	store := diary.New(gateway)
	store.InitData(ctx)
	if theme, res := gateway.GetTheme(ctx); res.OK() {
		store.SetTheme(theme)
	}

	soundsDir := os.Getenv("SOUNDS_DIR")
	if soundsDir == "" {
		soundsDir = "./sounds"
	}
	lib := sound.NewLibrary(os.DirFS(soundsDir))
	go lib.Preload(sound.Types...)

	stickers := draw.StickerDir(os.Getenv("STICKERS_DIR"))

	r := setupRouter(store, gateway, lib, stickers)

	ioo, unsubscribe := websocket.SetupSocketIO(websocket.Deps{
		Store:    store,
		Stickers: stickers,
		Sounds:   lib,
	})
	r.Mount("/socket.io/", ioo.ServeHandler(nil))

	logrus.WithField("addr", *listenAddress).Info("starting server")
	go func() {
		if err := http.ListenAndServe(*listenAddress, r); err != nil {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown(ioo, unsubscribe, func() {
		if c, ok := kv.(io.Closer); ok {
			if err := c.Close(); err != nil {
				logrus.WithError(err).Warn("Failed to close storage")
			}
		}
	})
}
