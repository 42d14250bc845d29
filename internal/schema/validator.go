// Package schema checks outgoing analysis events before they are published.
package schema

import (
	"errors"
	"fmt"
	"math"

	"voice-phishing-detector/internal/models"
)

// ErrInvalidEvent is wrapped by every validation failure.
var ErrInvalidEvent = errors.New("invalid analysis event")

var (
	sources      = map[string]bool{"audio": true, "text": true}
	modelResults = map[string]bool{
		models.ModelVerdictSuspectedFraud.Code(): true,
		models.ModelVerdictNormal.Code():         true,
	}
	llmResults = map[string]bool{
		models.LLMVerdictFraudConfirmed.Code():  true,
		models.LLMVerdictBenignConfirmed.Code(): true,
		models.LLMVerdictIndeterminate.Code():   true,
		models.LLMVerdictSkipped.Code():         true,
	}
)

// Validator checks AnalysisEvent values against the published event contract.
// It is stateless and safe for concurrent use.
type Validator struct{}

// New returns a Validator.
func New() *Validator {
	return &Validator{}
}

// Validate reports the first field of event that breaks the event contract.
func (v *Validator) Validate(event models.AnalysisEvent) error {
	switch {
	case event.EventType != models.EventTypeAnalysisCompleted:
		return invalid("eventType %q", event.EventType)
	case event.AnalysisID == "":
		return invalid("analysisId is empty")
	case !sources[event.Source]:
		return invalid("source %q", event.Source)
	case math.IsNaN(event.RiskScore) || event.RiskScore < 0 || event.RiskScore > 1:
		return invalid("riskScore %v outside [0,1]", event.RiskScore)
	case !modelResults[event.ModelResult]:
		return invalid("modelResult %q", event.ModelResult)
	case !llmResults[event.LLMResult]:
		return invalid("llmResult %q", event.LLMResult)
	case event.ModelResult == models.ModelVerdictNormal.Code() && event.LLMResult != models.LLMVerdictSkipped.Code():
		return invalid("llmResult %q for a normal verdict", event.LLMResult)
	case event.TextLength <= 0:
		return invalid("textLength %d", event.TextLength)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidEvent, fmt.Sprintf(format, args...))
}
