// Command evaluate scores a labeled transcript workbook with the deployed
// classifier and writes a per-row report plus summary metrics.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"voice-phishing-detector/internal/config"
	"voice-phishing-detector/internal/evaluation"
	"voice-phishing-detector/internal/observability/logging"
	"voice-phishing-detector/internal/service/classifier"
)

func main() {
	in := flag.String("in", "", "Labeled workbook (.xlsx) with text and label columns")
	out := flag.String("out", "evaluation.xlsx", "Report workbook to write")
	modelPath := flag.String("model", "", "Classifier model file (defaults to CLASSIFIER_MODEL_PATH)")
	retryFor := flag.Duration("retry", 30*time.Second, "Retry a failing sample for up to this long (0 disables)")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logging.Init(logging.Config{
		Level:   cfg.Observability.LogLevel,
		Format:  "console",
		Service: "vishing-evaluate",
		Output:  os.Stderr,
	})
	logger := logging.WithComponent("evaluate")

	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *modelPath == "" {
		*modelPath = cfg.Classifier.ModelPath
	}

	model, err := classifier.LoadModel(*modelPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load classifier model")
	}

	samples, err := evaluation.LoadSamples(*in)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *in).Msg("Failed to load samples")
	}
	logger.Info().Int("samples", len(samples)).Msg("Samples loaded")

	var clf classifier.Classifier = classifier.New(classifier.NewOpenAIEmbedder(classifier.EmbedderConfig{
		BaseURL: cfg.Classifier.EmbeddingBaseURL,
		APIKey:  cfg.Classifier.EmbeddingAPIKey,
		Model:   cfg.Classifier.EmbeddingModel,
		Timeout: cfg.Classifier.EmbeddingTimeout,
	}), model)
	clf = evaluation.WithRetry(clf, *retryFor)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, sum, err := evaluation.Run(ctx, clf, samples)
	if err != nil {
		logger.Warn().Err(err).Int("scored", len(results)).Msg("Evaluation interrupted, writing partial report")
	}

	if err := evaluation.WriteReport(*out, results, sum); err != nil {
		logger.Fatal().Err(err).Str("path", *out).Msg("Failed to write report")
	}

	logger.Info().
		Str("report", *out).
		Int("total", sum.Total).
		Int("errors", sum.Errors).
		Float64("accuracy", sum.Accuracy()).
		Float64("precision", sum.Precision()).
		Float64("recall", sum.Recall()).
		Float64("f1", sum.F1()).
		Msg("Evaluation complete")
}
