package evaluation

import (
	"context"
	"errors"
	"testing"
	"time"

	"voice-phishing-detector/internal/service/classifier"
)

// flakyClassifier fails the first failures calls with err.
type flakyClassifier struct {
	failures int
	err      error
	calls    int
}

func (f *flakyClassifier) Score(ctx context.Context, text string) (float64, error) {
	f.calls++
	if f.calls <= f.failures {
		return 0, f.err
	}
	return 0.75, nil
}

func newFastRetry(c classifier.Classifier) *RetryingClassifier {
	r := WithRetry(c, time.Second)
	r.initial = time.Millisecond
	return r
}

func TestRetryingClassifier_RecoversFromTransientErrors(t *testing.T) {
	f := &flakyClassifier{failures: 2, err: errors.New("429 too many requests")}

	score, err := newFastRetry(f).Score(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 0.75 {
		t.Errorf("expected score 0.75, got %v", score)
	}
	if f.calls != 3 {
		t.Errorf("expected 3 calls, got %d", f.calls)
	}
}

func TestRetryingClassifier_EmptyTextIsPermanent(t *testing.T) {
	f := &flakyClassifier{failures: 5, err: classifier.ErrEmptyText}

	_, err := newFastRetry(f).Score(context.Background(), "")
	if !errors.Is(err, classifier.ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
	if f.calls != 1 {
		t.Errorf("expected a single call, got %d", f.calls)
	}
}

func TestRetryingClassifier_Disabled(t *testing.T) {
	f := &flakyClassifier{failures: 1, err: errors.New("boom")}

	_, err := WithRetry(f, 0).Score(context.Background(), "text")
	if err == nil {
		t.Fatal("expected error with retry disabled")
	}
	if f.calls != 1 {
		t.Errorf("expected a single call, got %d", f.calls)
	}
}

func TestRetryingClassifier_GivesUp(t *testing.T) {
	f := &flakyClassifier{failures: 1 << 20, err: errors.New("unavailable")}
	r := WithRetry(f, 20*time.Millisecond)
	r.initial = time.Millisecond

	if _, err := r.Score(context.Background(), "text"); err == nil {
		t.Fatal("expected error after retries are exhausted")
	}
	if f.calls < 2 {
		t.Errorf("expected at least one retry, got %d calls", f.calls)
	}
}
