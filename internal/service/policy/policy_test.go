package policy

import (
	"math"
	"testing"

	"voice-phishing-detector/internal/models"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		score    float64
		verdict  models.ModelVerdict
		escalate bool
	}{
		{"zero", 0, models.ModelVerdictNormal, false},
		{"low", 0.12, models.ModelVerdictNormal, false},
		{"at threshold", 0.5, models.ModelVerdictNormal, false},
		{"just above", math.Nextafter(0.5, 1), models.ModelVerdictSuspectedFraud, true},
		{"high", 0.93, models.ModelVerdictSuspectedFraud, true},
		{"one", 1, models.ModelVerdictSuspectedFraud, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.score)
			if d.Verdict != tt.verdict {
				t.Errorf("Decide(%v).Verdict = %q, want %q", tt.score, d.Verdict, tt.verdict)
			}
			if d.Escalate != tt.escalate {
				t.Errorf("Decide(%v).Escalate = %v, want %v", tt.score, d.Escalate, tt.escalate)
			}
		})
	}
}

func TestDecide_EscalateMatchesVerdict(t *testing.T) {
	for s := 0.0; s <= 1.0; s += 0.01 {
		d := Decide(s)
		if d.Escalate != (d.Verdict == models.ModelVerdictSuspectedFraud) {
			t.Fatalf("score %v: escalate %v with verdict %q", s, d.Escalate, d.Verdict)
		}
	}
}
