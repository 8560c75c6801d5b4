package redis

import (
	"context"
	"time"

	"github.com/maestros-hub/maestros-community-backend/internal/domain/stats"
)

const statsSnapshotKey = PrefixStats + "community"

// StatsCache implements stats.Cache using the generic Redis Cache.
type StatsCache struct {
	cache *Cache
}

// NewStatsCache creates a new StatsCache.
func NewStatsCache(cache *Cache) *StatsCache {
	return &StatsCache{cache: cache}
}

// Get returns the cached snapshot, or ErrCacheMiss.
func (s *StatsCache) Get(ctx context.Context) (*stats.Snapshot, error) {
	var snap stats.Snapshot
	if err := s.cache.Get(ctx, statsSnapshotKey, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Set stores a snapshot.
func (s *StatsCache) Set(ctx context.Context, snap *stats.Snapshot, ttl time.Duration) error {
	if snap == nil {
		return ErrCacheNilValue
	}
	return s.cache.Set(ctx, statsSnapshotKey, snap, ttl)
}
