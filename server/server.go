// Package server exposes the labeler service as a JSON API and accepts
// torrent-added webhooks.
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/s0up4200/autolabel/labeler"
)

const shutdownTimeout = 5 * time.Second

// Option configures a Server
type Option func(*Server)

// WithAPIKey requires every /api/v1 request to carry the key in X-Api-Key
func WithAPIKey(key string) Option {
	return func(s *Server) {
		s.apiKey = key
	}
}

// WithWebhook enables the torrent-added event route
func WithWebhook(w *Webhook) Option {
	return func(s *Server) {
		s.webhook = w
	}
}

// Server serves the labeler RPC over HTTP
type Server struct {
	service *labeler.Service
	webhook *Webhook
	apiKey  string
	logger  zerolog.Logger
	handler http.Handler
}

// New creates a Server for service
func New(service *labeler.Service, logger zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		service: service,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = s.routes()
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /api/v1/config", s.handleGetConfig)
	api.HandleFunc("PUT /api/v1/config", s.handleSetConfig)
	api.HandleFunc("GET /api/v1/rules", s.handleGetRules)
	api.HandleFunc("POST /api/v1/rules", s.handleAddRule)
	api.HandleFunc("PATCH /api/v1/rules/{index}", s.handleUpdateRule)
	api.HandleFunc("DELETE /api/v1/rules/{index}", s.handleRemoveRule)
	api.HandleFunc("POST /api/v1/rules/{index}/move", s.handleMoveRule)
	api.HandleFunc("POST /api/v1/regex/validate", s.handleValidateRegex)
	api.HandleFunc("POST /api/v1/regex/test", s.handleTestPattern)
	api.HandleFunc("POST /api/v1/torrents/apply", s.handleApplyAll)
	api.HandleFunc("POST /api/v1/torrents/{id}/apply", s.handleApplyTorrent)
	api.HandleFunc("PUT /api/v1/torrents/{id}/label", s.handleSetLabel)
	api.HandleFunc("GET /api/v1/labels", s.handleLabels)
	if s.webhook != nil {
		api.HandleFunc("POST /api/v1/events/torrent-added", s.handleTorrentAdded)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("/api/v1/", s.withAPIKey(api))
	return s.withLogging(mux)
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn().Err(err).Msg("HTTP server shutdown")
		}
	}()

	s.logger.Info().Str("listen", addr).Msg("Starting HTTP server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	s.logger.Info().Msg("HTTP server stopped")
	return nil
}

func (s *Server) withAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" {
			got := r.Header.Get("X-Api-Key")
			if subtle.ConstantTimeCompare([]byte(got), []byte(s.apiKey)) != 1 {
				writeError(w, http.StatusUnauthorized, errUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}
