package main

import (
	"blogfront/backend"
	"blogfront/config"
	"blogfront/core"
	"blogfront/handlers/admin"
	"blogfront/handlers/api/uploads"
	"blogfront/handlers/auth"
	"blogfront/handlers/blogs"
	"blogfront/identity"
	authMiddleware "blogfront/middleware"
	"blogfront/notify"
	"blogfront/pagestate"
	"blogfront/session"
	"blogfront/stores"
	"blogfront/ui"
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	sweepInterval   = time.Minute
	shutdownTimeout = 10 * time.Second
)

type server struct {
	cfg      config.Config
	renderer *ui.Renderer
	client   *backend.Client
	sessions *session.Store
	issuer   *identity.Issuer
	toasts   *notify.Center
	feeds    *pagestate.Registry[*blogs.Feed]
	grids    *pagestate.Registry[*admin.Manager]
}

func newServer(cfg config.Config, store core.LocalStorage) (*server, error) {
	rd, err := ui.NewRenderer()
	if err != nil {
		return nil, err
	}
	return &server{
		cfg:      cfg,
		renderer: rd,
		client:   backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout),
		sessions: session.NewStore(store),
		issuer:   identity.NewIssuer(cfg.JWTSecret),
		toasts:   notify.NewCenter(),
		feeds:    pagestate.NewRegistry[*blogs.Feed]("blogs", cfg.PageStateTTL),
		grids:    pagestate.NewRegistry[*admin.Manager]("blog-master", cfg.PageStateTTL),
	}, nil
}

// mediaBase is where feed media is resolved: blogfront itself when the
// proxy is on, the backend otherwise.
func (s *server) mediaBase() string {
	if s.cfg.MediaProxy {
		return ""
	}
	return s.client.BaseURL()
}

func (s *server) setupRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Origin", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Get("/healthz", handleHealth)
	if s.cfg.MediaProxy {
		r.Get("/uploads/*", uploads.HandleUpload(s.client))
	}

	feedDeps := blogs.Deps{
		Renderer:  s.renderer,
		Backend:   s.client,
		Pages:     s.feeds,
		Toasts:    s.toasts,
		MediaBase: s.mediaBase(),
	}
	gridDeps := admin.Deps{
		Renderer: s.renderer,
		Backend:  s.client,
		Pages:    s.grids,
		Toasts:   s.toasts,
	}

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.ClientIdentity(s.issuer, s.cfg.CookieSecure))
		r.Use(authMiddleware.LoadSession(s.sessions))

		r.Get("/", auth.HandleLoginPage(s.renderer, s.toasts))
		r.Get("/login", auth.HandleLoginPage(s.renderer, s.toasts))
		r.Post("/login", auth.HandleSubmit(s.renderer, s.client, s.sessions, s.toasts))
		r.Post("/logout", auth.HandleLogout(s.sessions, s.feeds.Drop, s.grids.Drop))

		r.Route("/blogs", func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)
			r.Get("/", blogs.HandleFeed(feedDeps))
			r.Post("/comments", blogs.HandleSubmitComment(feedDeps))
			r.Route("/{id}", func(r chi.Router) {
				r.Post("/like", blogs.HandleLike(feedDeps))
				r.Post("/comments", blogs.HandleToggleComments(feedDeps))
			})
		})

		r.Route("/blog-master", func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth, authMiddleware.RequireAdmin)
			r.Get("/", admin.HandleGrid(gridDeps))
			r.Post("/cancel", admin.HandleCancel(gridDeps))
			r.Post("/blogs", admin.HandleSubmit(gridDeps))
			r.Route("/blogs/{id}", func(r chi.Router) {
				r.Post("/edit", admin.HandleEdit(gridDeps))
				r.Get("/delete", admin.HandleConfirmDelete(gridDeps))
				r.Post("/delete", admin.HandleDelete(gridDeps))
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.renderer.Error(w, r, http.StatusNotFound, "Page not found", ui.Nav{Visible: true})
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// runJanitors expires idle page instances until ctx is done.
func (s *server) runJanitors(ctx context.Context) {
	go s.feeds.Run(ctx, sweepInterval)
	go s.grids.Run(ctx, sweepInterval)
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	listenAddress := flag.String("listen", ":3002", "The address to listen on.")
	logLevel := flag.String("loglevel", "info", "The log level (debug, info, warn, error).")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	store, err := stores.GetStore(ctx, cfg.Storage)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}

	s, err := newServer(cfg, store)
	if err != nil {
		logrus.Fatalf("Failed to initialize server: %v", err)
	}
	s.runJanitors(ctx)

	srv := &http.Server{
		Addr:              *listenAddress,
		Handler:           s.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logrus.WithFields(logrus.Fields{
		"addr":    *listenAddress,
		"backend": cfg.Backend.URL,
	}).Info("starting server")
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Graceful shutdown failed")
	}
}
