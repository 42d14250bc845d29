// Package http exposes the analysis pipeline over HTTP.
package http

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"voice-phishing-detector/internal/models"
	"voice-phishing-detector/internal/observability"
	"voice-phishing-detector/internal/observability/metrics"
)

// Analyzer is the pipeline behind the analysis endpoints.
type Analyzer interface {
	AnalyzeAudio(ctx context.Context, r io.Reader, filename string) (*models.AnalysisResponse, error)
	AnalyzeText(ctx context.Context, text string) (*models.AnalysisResponse, error)
}

// RouterConfig holds the router's collaborators.
type RouterConfig struct {
	Analyzer       Analyzer
	MaxUploadBytes int64
	Ready          func() bool      // nil means always ready
	Metrics        *metrics.Metrics // nil means metrics.DefaultMetrics
}

// NewRouter constructs the HTTP router for the service.
func NewRouter(cfg RouterConfig) http.Handler {
	m := cfg.Metrics
	if m == nil {
		m = metrics.DefaultMetrics
	}
	h := &handlers{analyzer: cfg.Analyzer, maxBytes: cfg.MaxUploadBytes}

	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestMetrics(m))
	r.Use(recoverer)

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		if cfg.Ready != nil && !cfg.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// API routes
	r.Post("/analyze", h.analyzeAudio)
	r.Post("/analyze_text", h.analyzeText)

	return r
}
