package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/fakhrymubarak/weather-gateway/internal/metrics"
	"github.com/fakhrymubarak/weather-gateway/internal/model"
	"github.com/fakhrymubarak/weather-gateway/internal/redis"
)

type weatherCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// CachedWeatherService puts a cache in front of another WeatherServiceInterface.
// Only successful lookups are stored; cache failures never fail a lookup.
type CachedWeatherService struct {
	inner   WeatherServiceInterface
	cache   weatherCache
	logger  *zap.SugaredLogger
	metrics *metrics.Metrics
}

func NewCachedWeatherService(
	inner WeatherServiceInterface,
	cache weatherCache,
	logger *zap.SugaredLogger,
	m *metrics.Metrics,
) *CachedWeatherService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &CachedWeatherService{inner: inner, cache: cache, logger: logger, metrics: m}
}

// CacheKey is the cache key for an already trimmed city.
func CacheKey(city string) string {
	return "weather:" + city
}

func (s *CachedWeatherService) GetWeather(ctx context.Context, city string) (model.WeatherResult, error) {
	trimmed := strings.TrimSpace(city)
	if trimmed == "" {
		return s.inner.GetWeather(ctx, city)
	}
	key := CacheKey(trimmed)

	if cached, ok := s.getFromCache(ctx, key); ok {
		return cached, nil
	}

	result, err := s.inner.GetWeather(ctx, trimmed)
	if err != nil {
		return nil, err
	}

	s.cacheWeather(ctx, key, result)
	return result, nil
}

func (s *CachedWeatherService) getFromCache(ctx context.Context, key string) (model.WeatherResult, bool) {
	raw, err := s.cache.Get(ctx, key)
	if errors.Is(err, redis.ErrCacheMiss) {
		s.logger.Debugw("Cache miss", "key", key)
		s.metrics.ObserveCache("get", "miss")
		return nil, false
	}
	if err != nil {
		s.logger.Warnw("Cache read failed", "key", key, "error", err)
		s.metrics.ObserveCache("get", "error")
		return nil, false
	}

	var result model.WeatherResult
	if err := json.Unmarshal(raw, &result); err != nil || result == nil {
		s.logger.Warnw("Discarding unreadable cache entry", "key", key, "error", err)
		s.metrics.ObserveCache("get", "error")
		return nil, false
	}

	s.logger.Debugw("Cache hit", "key", key)
	s.metrics.ObserveCache("get", "hit")
	return result, true
}

func (s *CachedWeatherService) cacheWeather(ctx context.Context, key string, result model.WeatherResult) {
	b, err := json.Marshal(result)
	if err != nil {
		s.logger.Warnw("Failed to marshal weather for cache", "key", key, "error", err)
		s.metrics.ObserveCache("set", "error")
		return
	}
	if err := s.cache.Set(ctx, key, b); err != nil {
		s.logger.Warnw("Cache write failed", "key", key, "error", err)
		s.metrics.ObserveCache("set", "error")
		return
	}
	s.metrics.ObserveCache("set", "ok")
}
