package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"voice-phishing-detector/internal/app"
	"voice-phishing-detector/internal/audio"
	"voice-phishing-detector/internal/config"
	"voice-phishing-detector/internal/events"
	httpapi "voice-phishing-detector/internal/http"
	"voice-phishing-detector/internal/observability"
	"voice-phishing-detector/internal/observability/logging"
	"voice-phishing-detector/internal/observability/metrics"
	"voice-phishing-detector/internal/service/analysis"
	"voice-phishing-detector/internal/service/classifier"
	"voice-phishing-detector/internal/service/stt"
	"voice-phishing-detector/internal/service/stt/google"
	"voice-phishing-detector/internal/service/stt/mock"
	"voice-phishing-detector/internal/service/verifier"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := config.Load()
	application := app.New(cfg)
	logger := logging.WithComponent("main")

	ctx := context.Background()

	model, err := classifier.LoadModel(cfg.Classifier.ModelPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Classifier.ModelPath).Msg("Failed to load classifier model")
	}
	if model.EmbeddingModel != "" && model.EmbeddingModel != cfg.Classifier.EmbeddingModel {
		logger.Warn().
			Str("trainedOn", model.EmbeddingModel).
			Str("configured", cfg.Classifier.EmbeddingModel).
			Msg("Classifier was trained on a different embedding model")
	}
	logger.Info().
		Str("path", cfg.Classifier.ModelPath).
		Int("dimension", model.Dimension).
		Msg("Classifier model loaded")

	var embedder classifier.Embedder = classifier.NewOpenAIEmbedder(classifier.EmbedderConfig{
		BaseURL: cfg.Classifier.EmbeddingBaseURL,
		APIKey:  cfg.Classifier.EmbeddingAPIKey,
		Model:   cfg.Classifier.EmbeddingModel,
		Timeout: cfg.Classifier.EmbeddingTimeout,
	})
	if cfg.Classifier.CacheRedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Classifier.CacheRedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("Embedding cache unreachable, lookups will fall through")
		}
		defer rdb.Close()
		embedder = classifier.NewCachingEmbedder(embedder, rdb, cfg.Classifier.EmbeddingModel, cfg.Classifier.CacheTTL, metrics.DefaultMetrics)
	}

	sttAdapter, closeSTT, err := newSTTAdapter(ctx, cfg.STT)
	if err != nil {
		logger.Fatal().Err(err).Str("provider", cfg.STT.Provider).Msg("Failed to create STT adapter")
	}
	defer closeSTT()

	publisher := events.New(&events.Config{
		Enabled:   cfg.Kafka.Enabled,
		Brokers:   cfg.Kafka.Brokers,
		Topic:     cfg.Kafka.TopicAnalysis,
		Principal: cfg.Kafka.Principal,
	}, metrics.DefaultMetrics)
	defer publisher.Close()

	svc := analysis.New(analysis.Deps{
		Normalizer: audio.NewNormalizer(cfg.Upload.Dir, audio.NewFFmpeg(cfg.Upload.FFmpegPath, cfg.Upload.SampleRateHz)),
		STT:        sttAdapter,
		Classifier: classifier.New(embedder, model),
		Verifier: verifier.New(verifier.Config{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLM.Timeout,
		}),
		Events:  publisher,
		Metrics: metrics.DefaultMetrics,
	})

	server := &http.Server{
		Addr: ":" + cfg.Service.HTTPPort,
		Handler: httpapi.NewRouter(httpapi.RouterConfig{
			Analyzer:       svc,
			MaxUploadBytes: cfg.Upload.MaxBytes,
			Ready:          application.Ready,
			Metrics:        metrics.DefaultMetrics,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		// Worst case is one STT, one embedding and one LLM call back to back.
		WriteTimeout: cfg.STT.Timeout + cfg.Classifier.EmbeddingTimeout + cfg.LLM.Timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ops := observability.NewServer(observability.ServerOptions{
		Addr:  ":" + cfg.Service.MetricsPort,
		Ready: application.Ready,
	})
	ops.Start()

	if err := application.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Application start failed")
	}

	go func() {
		logger.Info().
			Str("addr", server.Addr).
			Str("sttProvider", sttAdapter.Name()).
			Bool("kafka", publisher.Enabled()).
			Msg("Voice phishing detector listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	application.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Service.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown")
	}
	if err := ops.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Observability server shutdown")
	}
}

// newSTTAdapter builds the configured provider and a func that releases it.
func newSTTAdapter(ctx context.Context, cfg config.STTConfig) (stt.Adapter, func(), error) {
	switch cfg.Provider {
	case mock.ProviderName:
		return mock.New(), func() {}, nil
	case google.ProviderName:
		a, err := google.New(ctx, google.Config{
			LanguageCode:    cfg.LanguageCode,
			SampleRateHz:    cfg.SampleRateHz,
			AudioEncoding:   cfg.AudioEncoding,
			CredentialsFile: cfg.CredentialsFile,
			Timeout:         cfg.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return a, func() { _ = a.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown STT provider %q", cfg.Provider)
	}
}
