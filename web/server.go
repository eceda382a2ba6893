// Package web serves the table store and form operations as JSON over HTTP.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/uhppoted/uhppoted-app-forms/forms"
	"github.com/uhppoted/uhppoted-app-forms/logging"
	"github.com/uhppoted/uhppoted-app-forms/store"
)

// Options configures the HTTP middleware. A zero RequestsPerSecond disables rate limiting and an
// empty Origins list disables CORS.
type Options struct {
	Timeout           time.Duration
	Origins           []string
	RequestsPerSecond float64
	Burst             int
}

type Server struct {
	tables  *store.Service
	forms   *forms.Service
	router  *chi.Mux
	options Options
}

func NewServer(tables *store.Service, forms *forms.Service, options Options) *Server {
	s := &Server{
		tables:  tables,
		forms:   forms,
		router:  chi.NewRouter(),
		options: options,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)

	if len(s.options.Origins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.options.Origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			MaxAge:         300,
		}))
	}

	if s.options.RequestsPerSecond > 0 {
		s.router.Use(rateLimiter(s.options.RequestsPerSecond, s.options.Burst))
	}

	if s.options.Timeout > 0 {
		s.router.Use(middleware.Timeout(s.options.Timeout))
	}
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Route("/tables/{name}", func(r chi.Router) {
			r.Put("/", s.handleEnsureTable)
			r.Get("/", s.handleExists)
			r.Put("/rows", s.handleReplaceRows)
			r.Post("/rows", s.handleAppendRows)
			r.Get("/rows", s.handleReadRaw)
			r.Get("/records", s.handleReadAsRecords)
		})

		r.Get("/forms", s.handleListForms)
		r.Get("/forms/{id}", s.handleLoadForm)
		r.Post("/forms/{id}", s.handleSaveForm)
		r.Post("/forms/{id}/submissions", s.handleSubmit)
	})
}

// Router returns the underlying chi router, mostly for tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Run listens on the bind address until the context is cancelled, then shuts the server down
// gracefully.
func (s *Server) Run(ctx context.Context, bind string) error {
	srv := &http.Server{
		Addr:              bind,
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errs := make(chan error, 1)

	go func() {
		logging.FromContext(ctx).Info("listening", "address", bind)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}

		close(errs)
	}()

	select {
	case err := <-errs:
		return err

	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		logging.FromContext(ctx).Info("shutting down")

		return srv.Shutdown(shutdown)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logging.FromContext(r.Context()).Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start))
	})
}
