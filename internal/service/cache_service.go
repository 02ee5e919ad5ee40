package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/volve-hq/attendance-api/pkg/errors"
)

type cacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService wraps the Redis repository with an enable switch and a
// default TTL. A disabled or absent cache degrades to misses so callers
// never branch on availability.
type CacheService struct {
	repo    cacheRepository
	logger  *zap.Logger
	enabled bool
	ttl     time.Duration
}

// NewCacheService constructs the cache layer.
func NewCacheService(repo cacheRepository, logger *zap.Logger, enabled bool, ttl time.Duration) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CacheService{repo: repo, logger: logger, enabled: enabled, ttl: ttl}
}

// Get loads a cached value. Returns ErrCacheMiss when disabled, absent, or
// on any backend failure; backend failures are logged, not propagated.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	if !s.enabled || s.repo == nil {
		return appErrors.ErrCacheMiss
	}
	err := s.repo.Get(ctx, key, dest)
	if err != nil && err != appErrors.ErrCacheMiss {
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return appErrors.ErrCacheMiss
	}
	return err
}

// Set stores a value under the default TTL. Failures are logged and
// swallowed.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) {
	if !s.enabled || s.repo == nil {
		return
	}
	if err := s.repo.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops cached entries matching the pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) {
	if !s.enabled || s.repo == nil {
		return
	}
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
	}
}
