package classifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"voice-phishing-detector/internal/observability/metrics"
)

// Cache results recorded in metrics.
const (
	cacheHit   = "hit"
	cacheMiss  = "miss"
	cacheError = "error"
)

// RedisStore is the subset of *redis.Client the cache needs.
type RedisStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachingEmbedder memoizes embeddings in Redis. Redis failures fall through
// to the wrapped embedder.
type CachingEmbedder struct {
	next    Embedder
	store   RedisStore
	prefix  string
	ttl     time.Duration
	metrics *metrics.Metrics
}

// NewCachingEmbedder wraps next with a Redis cache. model is folded into
// every key so vectors from different models never mix.
func NewCachingEmbedder(next Embedder, client RedisStore, model string, ttl time.Duration, m *metrics.Metrics) *CachingEmbedder {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &CachingEmbedder{
		next:    next,
		store:   client,
		prefix:  "vishing:emb:" + model + ":",
		ttl:     ttl,
		metrics: m,
	}
}

// Embed implements Embedder.
func (c *CachingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)

	raw, err := c.store.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var vec []float32
		if uErr := json.Unmarshal(raw, &vec); uErr == nil {
			c.metrics.RecordEmbeddingCache(cacheHit)
			return vec, nil
		}
		c.metrics.RecordEmbeddingCache(cacheError)
	case errors.Is(err, redis.Nil):
		c.metrics.RecordEmbeddingCache(cacheMiss)
	default:
		log.Warn().Err(err).Msg("Embedding cache read failed")
		c.metrics.RecordEmbeddingCache(cacheError)
	}

	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if data, mErr := json.Marshal(vec); mErr == nil {
		if sErr := c.store.Set(ctx, key, data, c.ttl).Err(); sErr != nil {
			log.Warn().Err(sErr).Msg("Embedding cache write failed")
		}
	}
	return vec, nil
}

func (c *CachingEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.prefix + hex.EncodeToString(sum[:])
}
