package cache

import (
	"github.com/eko/gocache/lib/v4/codec"
	"github.com/jon4hz/logicsweep/internal/config"
	"github.com/jon4hz/logicsweep/internal/rule"
	"github.com/jon4hz/logicsweep/internal/scanner"
)

// Cache key prefixes.
const (
	EndpointsCachePrefix = "endpoints-"
	VerdictsCachePrefix  = "ai-verdicts-"
)

// ScanCache holds the per-target caches used between scan runs. Endpoints are
// keyed by target name, AI verdicts by a hash of the endpoint set so unchanged
// targets skip the LLM round trip.
type ScanCache struct {
	EndpointsCache *PrefixedCache[[]scanner.Endpoint]
	VerdictsCache  *PrefixedCache[[]rule.Finding]
}

// NewScanCache creates the scan caches backed by the configured store.
func NewScanCache(cfg *config.CacheConfig) *ScanCache {
	if cfg == nil {
		cfg = &config.CacheConfig{Type: config.CacheTypeMemory}
	}
	return &ScanCache{
		EndpointsCache: NewPrefixedCache[[]scanner.Endpoint](newCacheInstanceByType(cfg), EndpointsCachePrefix),
		VerdictsCache:  NewPrefixedCache[[]rule.Finding](newCacheInstanceByType(cfg), VerdictsCachePrefix),
	}
}

// Stats pairs cache statistics with the cache name for the admin API.
type Stats struct {
	*codec.Stats
	CacheName string `json:"cacheName"`
}

// GetStats returns statistics for all scan caches.
func (s *ScanCache) GetStats() []*Stats {
	return []*Stats{
		{
			Stats:     s.EndpointsCache.GetStats(),
			CacheName: "endpoints",
		},
		{
			Stats:     s.VerdictsCache.GetStats(),
			CacheName: "ai-verdicts",
		},
	}
}
