// Package classifier scores a transcript with the probability that it is a
// voice-phishing call.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyText is returned when there is nothing to score.
var ErrEmptyText = errors.New("classifier: empty text")

// Classifier returns a fraud probability in [0, 1].
type Classifier interface {
	Score(ctx context.Context, text string) (float64, error)
}

// Embedder turns a sentence into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingClassifier embeds text and feeds it to a logistic model.
type EmbeddingClassifier struct {
	embedder Embedder
	model    *LogisticModel
}

// New returns a classifier backed by embedder and model.
func New(embedder Embedder, model *LogisticModel) *EmbeddingClassifier {
	return &EmbeddingClassifier{embedder: embedder, model: model}
}

// Score implements Classifier.
func (c *EmbeddingClassifier) Score(ctx context.Context, text string) (float64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, ErrEmptyText
	}
	vec, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return 0, fmt.Errorf("embed: %w", err)
	}
	p, err := c.model.Probability(vec)
	if err != nil {
		return 0, err
	}
	return p, nil
}
