package evaluation

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"voice-phishing-detector/internal/service/classifier"
)

// RetryingClassifier retries transient scoring failures with exponential
// backoff. It is meant for batch evaluation only; the request path scores
// each transcript exactly once.
type RetryingClassifier struct {
	next           classifier.Classifier
	maxElapsedTime time.Duration
	initial        time.Duration
}

// WithRetry wraps c. A maxElapsed of zero or less disables retrying.
func WithRetry(c classifier.Classifier, maxElapsed time.Duration) *RetryingClassifier {
	return &RetryingClassifier{
		next:           c,
		maxElapsedTime: maxElapsed,
		initial:        backoff.DefaultInitialInterval,
	}
}

// Score implements classifier.Classifier.
func (r *RetryingClassifier) Score(ctx context.Context, text string) (float64, error) {
	if r.maxElapsedTime <= 0 {
		return r.next.Score(ctx, text)
	}

	var score float64
	attempt := 0
	op := func() error {
		attempt++
		s, err := r.next.Score(ctx, text)
		if err == nil {
			score = s
			return nil
		}
		// Bad input and a finished context will not improve on retry.
		if errors.Is(err, classifier.ErrEmptyText) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initial
	b.MaxElapsedTime = r.maxElapsedTime
	b.Reset()

	notify := func(err error, wait time.Duration) {
		log.Debug().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("Retrying score")
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		return 0, err
	}
	return score, nil
}
