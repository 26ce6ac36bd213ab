package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fakhrymubarak/weather-gateway/internal/metrics"
	"github.com/fakhrymubarak/weather-gateway/internal/model"
	"github.com/fakhrymubarak/weather-gateway/internal/repository"
	"github.com/fakhrymubarak/weather-gateway/internal/retry"
)

var fastPolicy = retry.Policy{MaxAttempts: 3, Multiplier: time.Millisecond}

type mockWeatherRepository struct {
	mock.Mock
}

func (m *mockWeatherRepository) FetchCurrent(ctx context.Context, city string) (model.WeatherResult, error) {
	args := m.Called(ctx, city)
	res, _ := args.Get(0).(model.WeatherResult)
	return res, args.Error(1)
}

type repoFunc func(ctx context.Context, city string) (model.WeatherResult, error)

func (f repoFunc) FetchCurrent(ctx context.Context, city string) (model.WeatherResult, error) {
	return f(ctx, city)
}

func londonPayload() model.WeatherResult {
	return model.WeatherResult{
		"request":  map[string]interface{}{"type": "City", "query": "London, United Kingdom"},
		"location": map[string]interface{}{"name": "London"},
		"current":  map[string]interface{}{"temperature": float64(14), "weather_descriptions": []interface{}{"Sunny"}},
	}
}

func TestGetWeather_InvalidInput(t *testing.T) {
	for _, city := range []string{"", " ", "\t", "  \n  "} {
		t.Run(fmt.Sprintf("%q", city), func(t *testing.T) {
			repo := &mockWeatherRepository{}
			svc := NewWeatherService(repo, WithPolicy(fastPolicy))

			result, err := svc.GetWeather(context.Background(), city)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, errors.Is(err, ErrInvalidInput))
			assert.False(t, errors.Is(err, ErrLookupFailed))

			var lerr *LookupError
			require.True(t, errors.As(err, &lerr))
			assert.Equal(t, KindInvalidInput, lerr.Kind)
			assert.Equal(t, "City must be a non-empty string.", lerr.Error())
			repo.AssertNotCalled(t, "FetchCurrent", mock.Anything, mock.Anything)
		})
	}
}

func TestGetWeather_TrimsCity(t *testing.T) {
	repo := &mockWeatherRepository{}
	repo.On("FetchCurrent", mock.Anything, "Paris").Return(model.WeatherResult{"ok": true}, nil).Twice()
	svc := NewWeatherService(repo, WithPolicy(fastPolicy))

	_, err := svc.GetWeather(context.Background(), " Paris ")
	require.NoError(t, err)
	_, err = svc.GetWeather(context.Background(), "Paris")
	require.NoError(t, err)

	repo.AssertExpectations(t)
	repo.AssertNumberOfCalls(t, "FetchCurrent", 2)
}

func TestGetWeather_SucceedsAfterTransientFailures(t *testing.T) {
	for k := 0; k <= 2; k++ {
		t.Run(fmt.Sprintf("fails %d times", k), func(t *testing.T) {
			repo := &mockWeatherRepository{}
			if k > 0 {
				repo.On("FetchCurrent", mock.Anything, "London").
					Return(nil, errors.New("connection reset")).Times(k)
			}
			repo.On("FetchCurrent", mock.Anything, "London").Return(londonPayload(), nil).Once()

			m := metrics.New("test")
			svc := NewWeatherService(repo, WithPolicy(fastPolicy), WithMetrics(m))

			result, err := svc.GetWeather(context.Background(), "London")
			require.NoError(t, err)
			assert.Equal(t, londonPayload(), result)

			repo.AssertExpectations(t)
			repo.AssertNumberOfCalls(t, "FetchCurrent", k+1)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.WeatherAttemptsTotal.WithLabelValues("success")))
			assert.Equal(t, float64(k), testutil.ToFloat64(m.WeatherAttemptsTotal.WithLabelValues("unknown")))
			assert.Equal(t, 1.0, testutil.ToFloat64(m.WeatherLookupsTotal.WithLabelValues("success")))
		})
	}
}

func TestGetWeather_AllAttemptsFail(t *testing.T) {
	cause := &repository.ProviderError{
		Kind:       repository.KindServerError,
		StatusCode: 503,
		Err:        errors.New("weather provider returned status 503 Service Unavailable"),
	}
	repo := &mockWeatherRepository{}
	repo.On("FetchCurrent", mock.Anything, "London").Return(nil, cause).Times(3)

	m := metrics.New("test")
	svc := NewWeatherService(repo, WithPolicy(fastPolicy), WithMetrics(m))

	result, err := svc.GetWeather(context.Background(), "London")
	require.Error(t, err)
	assert.Nil(t, result)
	repo.AssertNumberOfCalls(t, "FetchCurrent", 3)

	var lerr *LookupError
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, KindLookupFailed, lerr.Kind)
	assert.Equal(t, 3, lerr.Attempts)
	assert.Equal(t, "London", lerr.City)
	assert.Equal(t, "An error occurred: weather provider returned status 503 Service Unavailable", lerr.Error())
	assert.True(t, errors.Is(err, ErrLookupFailed))
	assert.Equal(t, repository.KindServerError, repository.KindOf(lerr.Err))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.WeatherAttemptsTotal.WithLabelValues("server_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WeatherLookupsTotal.WithLabelValues("lookup_failed")))
}

func TestGetWeather_EveryFailureKindCollapses(t *testing.T) {
	kinds := []repository.ErrorKind{
		repository.KindTimeout,
		repository.KindConnection,
		repository.KindRateLimit,
		repository.KindAuthentication,
		repository.KindNotFound,
		repository.KindBadResponse,
		repository.KindAPIKeyMissing,
	}
	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			svc := NewWeatherService(repoFunc(func(ctx context.Context, city string) (model.WeatherResult, error) {
				return nil, &repository.ProviderError{Kind: kind, Err: errors.New(string(kind))}
			}), WithPolicy(fastPolicy))

			_, err := svc.GetWeather(context.Background(), "Oslo")
			assert.True(t, errors.Is(err, ErrLookupFailed))
			assert.Contains(t, err.Error(), string(kind))
		})
	}
}

func TestGetWeather_LogsEveryAttempt(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	repo := &mockWeatherRepository{}
	repo.On("FetchCurrent", mock.Anything, "Kyiv").Return(nil, errors.New("timeout")).Once()
	repo.On("FetchCurrent", mock.Anything, "Kyiv").Return(model.WeatherResult{"ok": true}, nil).Once()

	svc := NewWeatherService(repo, WithPolicy(fastPolicy), WithLogger(zap.New(core).Sugar()))
	_, err := svc.GetWeather(context.Background(), "Kyiv")
	require.NoError(t, err)

	failed := logs.FilterMessage("Weather provider attempt failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, int64(1), failed[0].ContextMap()["attempt"])
	assert.Equal(t, "Kyiv", failed[0].ContextMap()["city"])

	ok := logs.FilterMessage("Weather provider response").All()
	require.Len(t, ok, 1)
	assert.Equal(t, int64(2), ok[0].ContextMap()["attempt"])
	assert.Zero(t, logs.FilterMessage("Weather provider failed").Len())
}

func TestGetWeather_LogsExhaustion(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	svc := NewWeatherService(repoFunc(func(ctx context.Context, city string) (model.WeatherResult, error) {
		return nil, errors.New("down")
	}), WithPolicy(fastPolicy), WithLogger(zap.New(core).Sugar()))

	_, err := svc.GetWeather(context.Background(), "Kyiv")
	require.Error(t, err)
	assert.Equal(t, 3, logs.FilterMessage("Weather provider attempt failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("Weather provider failed").Len())
}

func TestGetWeather_ContextCancellationStopsRetries(t *testing.T) {
	var calls int32
	svc := NewWeatherService(repoFunc(func(ctx context.Context, city string) (model.WeatherResult, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errors.New("down")
	}), WithPolicy(retry.Policy{MaxAttempts: 3, Multiplier: time.Hour}))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := svc.GetWeather(ctx, "Lviv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLookupFailed))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Less(t, time.Since(start), time.Second)
}

func TestGetWeather_ConcurrentCallsAreIndependent(t *testing.T) {
	svc := NewWeatherService(repoFunc(func(ctx context.Context, city string) (model.WeatherResult, error) {
		if city == "Nowhere" {
			return nil, errors.New("city not found")
		}
		return model.WeatherResult{"location": map[string]interface{}{"name": city}}, nil
	}), WithPolicy(fastPolicy))

	cities := []string{"London", "Paris", "Tokyo", "Nowhere", "Lima", "Oslo"}
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		for _, city := range cities {
			wg.Add(1)
			go func(city string) {
				defer wg.Done()
				result, err := svc.GetWeather(context.Background(), city)
				if city == "Nowhere" {
					assert.True(t, errors.Is(err, ErrLookupFailed))
					return
				}
				if assert.NoError(t, err) {
					assert.Equal(t, city, result["location"].(map[string]interface{})["name"])
				}
			}(city)
		}
	}
	wg.Wait()
}

func TestNewWeatherService_Defaults(t *testing.T) {
	svc := NewWeatherService(&mockWeatherRepository{})
	require.NotNil(t, svc)
	assert.Equal(t, retry.DefaultPolicy(), svc.Policy)
	assert.NotNil(t, svc.Logger)
	assert.Nil(t, svc.Metrics)
}

func TestFailureKind_String(t *testing.T) {
	assert.Equal(t, "invalid_input", KindInvalidInput.String())
	assert.Equal(t, "lookup_failed", KindLookupFailed.String())
	assert.Equal(t, "unknown", FailureKind(0).String())
}
