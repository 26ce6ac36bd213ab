package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fakhrymubarak/weather-gateway/internal/metrics"
	"github.com/fakhrymubarak/weather-gateway/internal/model"
	"github.com/fakhrymubarak/weather-gateway/internal/repository"
	"github.com/fakhrymubarak/weather-gateway/internal/retry"
)

// WeatherServiceInterface resolves weather data for a city.
type WeatherServiceInterface interface {
	GetWeather(ctx context.Context, city string) (model.WeatherResult, error)
}

// WeatherService validates the city and retries the provider call. It holds no
// per-call state and is safe for concurrent use.
type WeatherService struct {
	WeatherRepo repository.WeatherRepository
	Policy      retry.Policy
	Logger      *zap.SugaredLogger
	Metrics     *metrics.Metrics
}

// Option customises a WeatherService.
type Option func(*WeatherService)

func WithPolicy(p retry.Policy) Option {
	return func(s *WeatherService) { s.Policy = p }
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *WeatherService) { s.Logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *WeatherService) { s.Metrics = m }
}

// NewWeatherService creates a weather service around repo using the default retry
// policy unless overridden.
func NewWeatherService(repo repository.WeatherRepository, opts ...Option) *WeatherService {
	s := &WeatherService{
		WeatherRepo: repo,
		Policy:      retry.DefaultPolicy(),
		Logger:      zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetWeather returns the provider payload for city unchanged, or a *LookupError.
// Blank input fails immediately; any provider failure is retried per the policy
// and, once exhausted, reported as KindLookupFailed.
func (s *WeatherService) GetWeather(ctx context.Context, city string) (model.WeatherResult, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		s.Logger.Warnw("Rejected weather lookup", "reason", "empty city")
		s.Metrics.ObserveLookup(KindInvalidInput.String())
		return nil, invalidInput(city)
	}

	var attempts int
	result, err := retry.Do(ctx, s.Policy, func(ctx context.Context, attempt int) (model.WeatherResult, error) {
		attempts = attempt
		res, err := s.WeatherRepo.FetchCurrent(ctx, city)
		if err != nil {
			kind := string(repository.KindOf(err))
			if kind == "" {
				kind = "unknown"
			}
			s.Logger.Warnw("Weather provider attempt failed",
				"city", city,
				"attempt", attempt,
				"status_code", repository.StatusCodeOf(err),
				"kind", kind,
				"error", err,
			)
			s.Metrics.ObserveAttempt(kind)
			return nil, err
		}

		s.Logger.Infow("Weather provider response", "city", city, "status", "ok", "attempt", attempt)
		s.Metrics.ObserveAttempt("success")
		return res, nil
	})
	if err != nil {
		s.Logger.Errorw("Weather provider failed", "city", city, "attempts", attempts, "error", err)
		s.Metrics.ObserveLookup(KindLookupFailed.String())
		return nil, lookupFailed(city, attempts, err)
	}

	s.Metrics.ObserveLookup("success")
	return result, nil
}
