package core

import (
	"context"
	"time"

	"github.com/coursekit/coursekit/internal/contract"
)

// urlCacheTTL bounds how long an expanded short link is trusted.
const urlCacheTTL = 30 * 24 * time.Hour

// cachedExpand resolves a short link, reusing a previous expansion when one is cached.
func cachedExpand(ctx context.Context, cache contract.CacheStore, expander contract.URLExpander, shortURL string) (string, error) {
	if cache == nil {
		return expander.Expand(ctx, shortURL)
	}

	key := contract.URLCacheKeyPrefix + shortURL
	if expanded, ok := checkCacheHit(cache, key); ok {
		return expanded, nil
	}

	expanded, err := expander.Expand(ctx, shortURL)
	if err != nil {
		return "", err
	}
	_ = cache.Set(key, []byte(expanded), contract.CacheVersion, time.Now().Unix())
	return expanded, nil
}

// checkCacheHit returns a cached value when its version matches and it is not stale.
func checkCacheHit(cache contract.CacheStore, key string) (string, bool) {
	data, version, ts, err := cache.Get(key)
	if err != nil || len(data) == 0 {
		return "", false
	}
	if version != contract.CacheVersion || time.Since(time.Unix(ts, 0)) > urlCacheTTL {
		return "", false
	}
	return string(data), true
}
