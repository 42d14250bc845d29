package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// LogisticModel is a binary logistic regression over sentence embeddings.
// The positive class is voice phishing.
type LogisticModel struct {
	EmbeddingModel string    `json:"embedding_model"`
	Dimension      int       `json:"dimension"`
	Coefficients   []float64 `json:"coefficients"`
	Intercept      float64   `json:"intercept"`
}

// LoadModel reads and validates a model file.
func LoadModel(path string) (*LogisticModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var m LogisticModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse model %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return &m, nil
}

// Validate checks the model is usable.
func (m *LogisticModel) Validate() error {
	if len(m.Coefficients) == 0 {
		return fmt.Errorf("no coefficients")
	}
	if m.Dimension == 0 {
		m.Dimension = len(m.Coefficients)
	}
	if m.Dimension != len(m.Coefficients) {
		return fmt.Errorf("dimension %d does not match %d coefficients", m.Dimension, len(m.Coefficients))
	}
	for i, c := range m.Coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("coefficient %d is not finite", i)
		}
	}
	if math.IsNaN(m.Intercept) || math.IsInf(m.Intercept, 0) {
		return fmt.Errorf("intercept is not finite")
	}
	return nil
}

// Probability returns P(fraud | x).
func (m *LogisticModel) Probability(x []float32) (float64, error) {
	if len(x) != len(m.Coefficients) {
		return 0, fmt.Errorf("embedding has %d dimensions, model expects %d", len(x), len(m.Coefficients))
	}
	z := m.Intercept
	for i, w := range m.Coefficients {
		z += w * float64(x[i])
	}
	if math.IsNaN(z) {
		return 0, fmt.Errorf("embedding produced a non-finite score")
	}
	return sigmoid(z), nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
