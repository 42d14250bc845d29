package evaluation

import (
	"context"

	"github.com/rs/zerolog/log"

	"voice-phishing-detector/internal/models"
	"voice-phishing-detector/internal/service/classifier"
	"voice-phishing-detector/internal/service/policy"
)

// Result is the outcome for one sample. Err is set when scoring failed, in
// which case Score and Verdict are zero.
type Result struct {
	Sample
	Score   float64
	Verdict models.ModelVerdict
	Err     error
}

// Correct reports whether the verdict agrees with the label.
func (r Result) Correct() bool {
	return r.Err == nil && (r.Verdict == models.ModelVerdictSuspectedFraud) == r.Fraud
}

// Summary holds confusion-matrix counts and derived rates. Failed samples
// are counted in Errors and excluded from everything else.
type Summary struct {
	Total          int
	Errors         int
	TruePositives  int
	FalsePositives int
	TrueNegatives  int
	FalseNegatives int
}

// Scored is the number of samples that produced a score.
func (s Summary) Scored() int { return s.Total - s.Errors }

// Accuracy is (TP+TN)/scored.
func (s Summary) Accuracy() float64 {
	return ratio(s.TruePositives+s.TrueNegatives, s.Scored())
}

// Precision is TP/(TP+FP).
func (s Summary) Precision() float64 {
	return ratio(s.TruePositives, s.TruePositives+s.FalsePositives)
}

// Recall is TP/(TP+FN).
func (s Summary) Recall() float64 {
	return ratio(s.TruePositives, s.TruePositives+s.FalseNegatives)
}

// F1 is the harmonic mean of precision and recall.
func (s Summary) F1() float64 {
	p, r := s.Precision(), s.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// Run scores every sample with c and applies the escalation threshold. A
// failed sample is recorded and evaluation continues; only a cancelled
// context stops it early.
func Run(ctx context.Context, c classifier.Classifier, samples []Sample) ([]Result, Summary, error) {
	results := make([]Result, 0, len(samples))
	var sum Summary

	for _, s := range samples {
		if err := ctx.Err(); err != nil {
			return results, sum, err
		}
		sum.Total++

		score, err := c.Score(ctx, s.Text)
		if err != nil {
			log.Warn().Err(err).Int("row", s.Row).Msg("Scoring failed")
			sum.Errors++
			results = append(results, Result{Sample: s, Err: err})
			continue
		}

		d := policy.Decide(score)
		switch {
		case d.Escalate && s.Fraud:
			sum.TruePositives++
		case d.Escalate && !s.Fraud:
			sum.FalsePositives++
		case !d.Escalate && s.Fraud:
			sum.FalseNegatives++
		default:
			sum.TrueNegatives++
		}
		results = append(results, Result{Sample: s, Score: score, Verdict: d.Verdict})
	}
	return results, sum, nil
}
