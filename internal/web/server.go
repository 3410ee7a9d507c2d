// Package web serves the read API over the imported catalog.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/tvimport/internal/catalog"
	"github.com/JonMunkholm/tvimport/internal/config"
	mw "github.com/JonMunkholm/tvimport/internal/web/middleware"
)

// Catalog is the read surface the API needs. *catalog.Store implements it.
type Catalog interface {
	ListShows(ctx context.Context, limit, offset int) ([]catalog.Show, error)
	CountShows(ctx context.Context) (int64, error)
	ShowsByAirYear(ctx context.Context, startYear, endYear, limit, offset int) ([]catalog.Show, error)
	CountShowsByAirYear(ctx context.Context, startYear, endYear int) (int64, error)
	SearchShows(ctx context.Context, f catalog.ShowFilter, limit, offset int) ([]catalog.Show, error)
	CountSearchShows(ctx context.Context, f catalog.ShowFilter) (int64, error)
	RandomShows(ctx context.Context, limit int) ([]catalog.Show, error)
	GetShow(ctx context.Context, id int64) (*catalog.ShowDetail, error)
	Counts(ctx context.Context) (catalog.Counts, error)
	Ping(ctx context.Context) error
}

// Server is the HTTP server for the read API.
type Server struct {
	catalog  Catalog
	cfg      config.ServerConfig
	security config.SecurityConfig
	metrics  *metrics
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a new Server instance.
func NewServer(cat Catalog, cfg config.ServerConfig, security config.SecurityConfig) *Server {
	s := &Server{
		catalog:  cat,
		cfg:      cfg,
		security: security,
		metrics:  newMetrics(cat),
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.cfg.RequestTimeout))
	s.router.Use(securityHeaders)
	s.router.Use(s.metrics.instrument)

	if s.cfg.RateLimit > 0 {
		limiter := newRateLimiter(s.cfg.RateLimit, time.Minute)
		s.router.Use(limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/readyz", s.handleReady)
	s.router.Handle("/metrics", s.metrics.handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(&s.security))

		r.Get("/tvshows", s.handleListShows)
		r.Get("/tvshows/filter/year", s.handleShowsByYear)
		r.Get("/tvshows/random", s.handleRandomShows)
		r.Get("/tvshows/by-genre/{genre}", s.handleSearchShows("genre", func(v string) catalog.ShowFilter {
			return catalog.ShowFilter{Genre: v}
		}))
		r.Get("/tvshows/by-name/{name}", s.handleSearchShows("name", func(v string) catalog.ShowFilter {
			return catalog.ShowFilter{Name: v}
		}))
		r.Get("/tvshows/by-status/{status}", s.handleSearchShows("status", func(v string) catalog.ShowFilter {
			return catalog.ShowFilter{Status: v}
		}))
		r.Get("/tvshows/{id}", s.handleGetShow)
		r.Get("/stats", s.handleStats)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		// JSON only; nothing may be loaded or framed.
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")

		next.ServeHTTP(w, r)
	})
}

// rateLimiter implements a fixed-window request limit per client IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // requests per window
	window   time.Duration // time window
	now      func() time.Time
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// newRateLimiter creates a rate limiter with the specified rate per window.
func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
		now:      time.Now,
	}
}

// allow checks if the request should be allowed and consumes a token if so.
// Stale visitors are dropped whenever a window is reset.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, exists := rl.visitors[ip]
	if !exists || now.Sub(v.lastReset) > rl.window {
		if exists {
			rl.evictStale(now)
		}
		rl.visitors[ip] = &visitor{tokens: rl.rate - 1, lastReset: now}
		return true
	}

	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

func (rl *rateLimiter) evictStale(now time.Time) {
	for ip, v := range rl.visitors {
		if now.Sub(v.lastReset) > rl.window*2 {
			delete(rl.visitors, ip)
		}
	}
}

// middleware returns an HTTP middleware that rate limits by IP.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			respondErrorJSON(w, errRateLimited, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port from RemoteAddr, which RealIP may already have
// replaced with a bare proxy-reported address.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// writeJSON encodes v as JSON with the given status.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
