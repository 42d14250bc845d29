// Package policy turns a risk score into a verdict and decides whether the
// transcript should be escalated to the LLM verifier.
package policy

import "voice-phishing-detector/internal/models"

// Threshold is the score a transcript must strictly exceed to be flagged.
const Threshold = 0.5

// Decision is the outcome of applying the threshold to a score.
type Decision struct {
	Verdict models.ModelVerdict
	// Escalate is true exactly when Verdict is suspected fraud.
	Escalate bool
}

// Decide applies Threshold to score. A score equal to the threshold is
// normal.
func Decide(score float64) Decision {
	if score > Threshold {
		return Decision{Verdict: models.ModelVerdictSuspectedFraud, Escalate: true}
	}
	return Decision{Verdict: models.ModelVerdictNormal}
}
