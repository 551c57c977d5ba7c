package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"docqa/internal/rag/interfaces"

	"github.com/go-redis/redis/v8"
)

// RedisEmbeddingCache caches question embeddings in Redis so repeated
// questions skip the embedding provider. All failures are swallowed: the
// cache is an optimization, never a dependency.
type RedisEmbeddingCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisEmbeddingCache creates a cache with the given entry lifetime.
func NewRedisEmbeddingCache(rdb *redis.Client, ttl time.Duration) *RedisEmbeddingCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisEmbeddingCache{rdb: rdb, ttl: ttl}
}

// CacheKey derives the cache key for a model/question pair.
func CacheKey(model, question string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + question))
	return "docqa:embed:" + hex.EncodeToString(sum[:])
}

// Get returns the cached vector for key, if present.
func (c *RedisEmbeddingCache) Get(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var vector []float32
	if err := json.Unmarshal(data, &vector); err != nil {
		return nil, false
	}
	return vector, true
}

// Put stores the vector under key, best effort.
func (c *RedisEmbeddingCache) Put(ctx context.Context, key string, vector []float32) {
	data, err := json.Marshal(vector)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, key, data, c.ttl)
}

// compile-time check to ensure RedisEmbeddingCache implements the EmbeddingCache interface
var _ interfaces.EmbeddingCache = (*RedisEmbeddingCache)(nil)
