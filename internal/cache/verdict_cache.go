// Package cache provides an optional Redis cache for single-image
// verdicts, keyed by content digest so re-submitted bytes skip detection.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"go-content-moderator/internal/logger"
	"go-content-moderator/internal/moderation"
)

// VerdictCache decorates image moderation with Redis caching. A nil client
// disables it transparently; cache failures degrade to a direct call and
// are never surfaced to the moderation pipeline.
type VerdictCache struct {
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

// NewVerdictCache wires the cache. If ttl is 0 it defaults to one hour; an
// empty namespace uses "moderation".
func NewVerdictCache(rdb *redis.Client, ttl time.Duration, namespace string) *VerdictCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if namespace == "" {
		namespace = "moderation"
	}
	return &VerdictCache{
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Digest identifies content by the SHA-256 of its bytes.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached verdict for a digest, or false on miss, disabled
// cache, or an unreadable entry.
func (c *VerdictCache) Get(ctx context.Context, digest string) (*moderation.Verdict, bool) {
	if c.rdb == nil {
		return nil, false
	}

	key := c.cacheKey(digest)
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil || len(b) == 0 {
		return nil, false
	}

	var verdict moderation.Verdict
	if err := json.Unmarshal(b, &verdict); err != nil {
		// Corrupt entry: drop it, best effort.
		if delErr := c.rdb.Del(ctx, key).Err(); delErr != nil {
			logger.WithError(delErr).WithField("key", key).Warn("Failed to drop corrupt cache entry")
		}
		return nil, false
	}
	return &verdict, true
}

// Put stores the verdict under the digest. Best effort.
func (c *VerdictCache) Put(ctx context.Context, digest string, verdict moderation.Verdict) {
	if c.rdb == nil {
		return
	}

	b, err := json.Marshal(verdict)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.cacheKey(digest), b, c.ttl).Err(); err != nil {
		logger.WithError(err).Warn("Failed to cache verdict")
	}
}

func (c *VerdictCache) cacheKey(digest string) string {
	return fmt.Sprintf("%s:v1:%s", c.namespace, digest)
}
