// Package observability provides the metrics and health HTTP server and the
// request instrumentation middleware.
package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// ReadinessFunc reports whether the service can take traffic.
type ReadinessFunc func() bool

// ServerOptions configures the ops listener.
type ServerOptions struct {
	Addr string
	// Gatherer defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
	// Ready may be nil, in which case /readyz always reports ready.
	Ready ReadinessFunc
}

// Server serves /metrics, /healthz and /readyz on a port separate from the
// analysis API so scrapes and probes never queue behind uploads.
type Server struct {
	srv     *http.Server
	started time.Time
}

type probeStatus struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// NewServer builds the ops server. Call Start to begin listening.
func NewServer(opts ServerOptions) *Server {
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	s := &Server{started: time.Now()}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		s.writeProbe(w, http.StatusOK, "ok")
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if opts.Ready != nil && !opts.Ready() {
			s.writeProbe(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		s.writeProbe(w, http.StatusOK, "ready")
	})

	s.srv = &http.Server{
		Addr:              opts.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
	return s
}

func (s *Server) writeProbe(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(probeStatus{
		Status: msg,
		Uptime: time.Since(s.started).Truncate(time.Second).String(),
	})
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start listens in the background. A listener failure is logged, not fatal:
// the analysis API keeps serving without its ops port.
func (s *Server) Start() {
	go func() {
		log.Info().Str("addr", s.srv.Addr).Msg("Ops server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", s.srv.Addr).Msg("Ops server stopped")
		}
	}()
}

// Shutdown drains in-flight scrapes and probes.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
