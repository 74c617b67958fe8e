// Package server exposes the dev console state to the site over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/devconsole/internal/catalog"
	"github.com/thebtf/devconsole/internal/readme"
	"github.com/thebtf/devconsole/internal/server/sse"
	"github.com/thebtf/devconsole/internal/session"
)

// Options wires a Service.
type Options struct {
	Version        string
	Addr           string
	Backend        string
	Store          *session.Store
	Catalog        *catalog.Registry
	Readme         readme.Fetcher
	RateLimit      float64 // write requests per second per client
	RateBurst      int
	AllowedOrigins []string
}

// Service is the devconsole HTTP API.
type Service struct {
	version     string
	backend     string
	store       *session.Store
	catalog     *catalog.Registry
	readme      readme.Fetcher
	broadcaster *sse.Broadcaster
	limiter     *clientLimiter
	origins     map[string]struct{}
	router      chi.Router
	server      *http.Server
	startTime   time.Time
	ready       atomic.Bool
}

// New creates a Service and subscribes it to store changes.
func New(opts Options) *Service {
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}

	origins := make(map[string]struct{}, len(opts.AllowedOrigins))
	for _, o := range opts.AllowedOrigins {
		origins[o] = struct{}{}
	}

	s := &Service{
		version:     opts.Version,
		backend:     opts.Backend,
		store:       opts.Store,
		catalog:     opts.Catalog,
		readme:      opts.Readme,
		broadcaster: sse.NewBroadcaster(),
		limiter:     newClientLimiter(opts.RateLimit, opts.RateBurst),
		origins:     origins,
		router:      chi.NewRouter(),
		startTime:   time.Now(),
	}
	s.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.setupRoutes()
	s.broadcaster.SetSnapshot(func() (string, any) { return eventScoreboard, s.scoreboard() })
	s.store.Subscribe(s.onStoreEvent)
	return s
}

func (s *Service) setupRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)

	r.Get("/", serveIndex)
	r.Get("/api/health", s.handleHealth)
	r.Get("/api/readme", s.handleReadme)
	r.Get("/api/events", s.broadcaster.HandleSSE)

	r.Route("/api/eggs", func(r chi.Router) {
		r.Get("/", s.handleListEggs)
		r.With(s.rateLimitMiddleware).Post("/{id}", s.handleDiscoverEgg)
		r.With(s.rateLimitMiddleware).Delete("/", s.handleResetEggs)
	})

	r.Route("/api/terminal/history", func(r chi.Router) {
		r.Get("/", s.handleGetHistory)
		r.With(s.rateLimitMiddleware).Delete("/", s.handleClearHistory)
	})
}

// Handler returns the root handler.
func (s *Service) Handler() http.Handler {
	return s.router
}

// Broadcaster returns the scoreboard event stream.
func (s *Service) Broadcaster() *sse.Broadcaster {
	return s.broadcaster
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Service) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.server.Addr).Str("version", s.version).Msg("Starting devconsole service")
		s.ready.Store(true)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.ready.Store(false)
		return err
	case <-ctx.Done():
	}
	return s.Shutdown(context.Background())
}

// Shutdown stops accepting requests and waits up to 5s for active ones.
func (s *Service) Shutdown(ctx context.Context) error {
	s.ready.Store(false)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	log.Info().Msg("Shutting down devconsole service")
	return s.server.Shutdown(ctx)
}

func (s *Service) onStoreEvent(ev session.Event) {
	switch ev.Type {
	case session.EventEggDiscovered, session.EventEggsReset:
		s.broadcaster.Publish(string(ev.Type), ev)
		s.broadcaster.Publish(eventScoreboard, s.scoreboard())
	case session.EventTranscriptAppended, session.EventTranscriptCleared:
		s.broadcaster.Publish(string(ev.Type), ev)
	}
}
