// Package monitor serves pool counters over HTTP.
//
// Routes:
//
//	GET /healthz          liveness and pool count
//	GET /pools            one entry per caller pool
//	GET /pools/summary    counters summed over all pools
//	GET /pools/{id}       one caller pool
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/koustreak/dbpool/internal/logger"
)

// Config holds monitor server settings.
type Config struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DefaultConfig returns production-ready defaults
func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		Addr:         ":9090",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

// Server is the monitoring HTTP server.
type Server struct {
	cfg    Config
	source Source
	log    *logger.Logger
	http   *http.Server
}

// New builds a server over source. It does not listen yet.
func New(cfg Config, source Source, log *logger.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		source: source,
		log:    logger.OrNop(log).Component("monitor"),
	}
	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Router returns the HTTP handler with every route mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.loggingMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Route("/pools", func(r chi.Router) {
		r.Get("/", s.handleListPools)
		r.Get("/summary", s.handleSummary)
		r.Get("/{id}", s.handleGetPool)
	})
	return r
}

// Serve accepts connections on l until Shutdown.
func (s *Server) Serve(l net.Listener) error {
	s.log.Infof("monitor listening on %s", l.Addr())
	if err := s.http.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on the configured address.
func (s *Server) ListenAndServe() error {
	l, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		s.log.With().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Any("duration", time.Since(start)).
			Logger().Debug("request served")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"pools":  len(s.source.Pools()),
	})
}

func (s *Server) handleListPools(w http.ResponseWriter, _ *http.Request) {
	pools := s.source.Pools()
	if pools == nil {
		pools = []PoolStats{}
	}
	writeJSON(w, http.StatusOK, pools)
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, summarize(s.source.Pools()))
}

func (s *Server) handleGetPool(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, p := range s.source.Pools() {
		if p.ID == id {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "no pool for " + id})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // best effort, the client may be gone
	json.NewEncoder(w).Encode(v)
}
