// Package server exposes the speech-verification pipeline, the word store,
// and the TTS collaborator over HTTP. The API is consumed by a browser
// client, so every handler speaks JSON and CORS is permissive.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kolluru/chilaka/internal/config"
	"github.com/kolluru/chilaka/internal/health"
	"github.com/kolluru/chilaka/internal/observe"
	"github.com/kolluru/chilaka/internal/tts"
	"github.com/kolluru/chilaka/internal/verify"
	"github.com/kolluru/chilaka/internal/words"
)

// shutdownTimeout bounds how long Run waits for in-flight requests after the
// context is cancelled.
const shutdownTimeout = 15 * time.Second

// Server wires the HTTP surface together. Construct with [New], then either
// call [Server.Run] or mount [Server.Handler] yourself.
type Server struct {
	cfg      config.ServerConfig
	limits   config.LimitsConfig
	verifier *verify.Service
	store    *words.Store
	synth    tts.Synthesizer
	healthh  *health.Handler
	metrics  *observe.Metrics

	// settings returns the current client defaults. Indirected through a
	// function so a config watcher can swap them live.
	settings func() config.ClientSettings
}

// Option configures a Server.
type Option func(*Server)

// WithSynthesizer enables the /api/tts endpoint. Without it the route is not
// registered.
func WithSynthesizer(s tts.Synthesizer) Option {
	return func(srv *Server) { srv.synth = s }
}

// WithHealthCheckers installs readiness checks behind /readyz.
func WithHealthCheckers(checkers ...health.Checker) Option {
	return func(srv *Server) { srv.healthh = health.New(checkers...) }
}

// WithSettingsSource replaces the static client defaults with a live getter.
func WithSettingsSource(fn func() config.ClientSettings) Option {
	return func(srv *Server) { srv.settings = fn }
}

// WithMetrics injects a metrics instance. Defaults to the package-level
// observe metrics.
func WithMetrics(m *observe.Metrics) Option {
	return func(srv *Server) { srv.metrics = m }
}

// New builds a Server over its collaborators.
func New(cfg *config.Config, verifier *verify.Service, store *words.Store, opts ...Option) *Server {
	defaults := cfg.Defaults
	srv := &Server{
		cfg:      cfg.Server,
		limits:   cfg.Limits,
		verifier: verifier,
		store:    store,
		healthh:  health.New(),
		settings: func() config.ClientSettings { return defaults },
	}
	for _, o := range opts {
		o(srv)
	}
	if srv.metrics == nil {
		srv.metrics = observe.DefaultMetrics()
	}
	return srv
}

// Handler returns the full route tree wrapped in the observability and CORS
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/recognize", s.handleRecognize)
	mux.HandleFunc("GET /api/word", s.handleWord)
	mux.HandleFunc("GET /api/words/all", s.handleAllWords)
	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.HandleFunc("POST /api/config", s.handleSaveConfig)
	if s.synth != nil {
		mux.HandleFunc("GET /api/tts", s.handleTTS)
	}

	s.healthh.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	return cors(observe.Middleware(s.metrics)(mux))
}

// Run serves until ctx is cancelled, then drains in-flight requests. TLS is
// used when configured.
func (s *Server) Run(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if tlsCfg := s.cfg.TLS; tlsCfg != nil {
			err = httpSrv.ListenAndServeTLS(tlsCfg.CertFile, tlsCfg.KeyFile)
		} else {
			err = httpSrv.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// cors applies the permissive CORS policy the browser client needs. The API
// carries no credentials, so a wildcard origin is fine.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
