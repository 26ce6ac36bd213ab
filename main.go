// @title Weather Gateway
// @version v1
// @description Current weather lookups backed by weatherstack, with retries and a Redis cache.
// @BasePath /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fakhrymubarak/weather-gateway/internal/config"
	"github.com/fakhrymubarak/weather-gateway/internal/metrics"
	"github.com/fakhrymubarak/weather-gateway/internal/middleware"
	"github.com/fakhrymubarak/weather-gateway/internal/redis"
	"github.com/fakhrymubarak/weather-gateway/internal/repository"
	"github.com/fakhrymubarak/weather-gateway/internal/retry"
	"github.com/fakhrymubarak/weather-gateway/internal/server"
	"github.com/fakhrymubarak/weather-gateway/internal/service"
)

const metricsNamespace = "weather_gateway"

type app struct {
	server          *http.Server
	limiter         *middleware.RateLimiter
	closeRedis      func() error
	shutdownTimeout time.Duration
}

// newApp builds every collaborator once from configuration.
func newApp(logger *zap.SugaredLogger) *app {
	apiKey := config.GetWeatherstackAPIKey()
	if apiKey == "" {
		logger.Warn("WEATHERSTACK_API_KEY is not set; every weather lookup will fail")
	}

	m := metrics.New(metricsNamespace)
	timeout := config.GetProviderTimeout()
	repo := repository.NewWeatherRepository(repository.Options{
		APIURL:  config.GetWeatherstackAPIURL(),
		APIKey:  apiKey,
		Units:   config.GetWeatherstackUnits(),
		Timeout: timeout,
		Logger:  logger,
	}, &http.Client{
		Timeout:   timeout,
		Transport: repository.NewLoggingTransport(logger.Desugar()),
	})

	maxAttempts, multiplier := config.GetRetryPolicy()
	weatherService := service.NewWeatherService(repo,
		service.WithPolicy(retry.Policy{MaxAttempts: maxAttempts, Multiplier: multiplier}),
		service.WithLogger(logger),
		service.WithMetrics(m),
	)

	redisClient := redis.NewClient(config.GetRedisAddr())
	cache := redis.NewCache(redisClient, config.GetCacheExpiration())
	cachedService := service.NewCachedWeatherService(weatherService, cache, logger, m)

	globalRate, globalBurst := config.GetGlobalRateLimiterConfig()
	paramRate, paramBurst := config.GetParamRateLimiterConfig()
	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		ParamKey:       "city",
		GlobalRate:     globalRate,
		GlobalBurst:    globalBurst,
		ParamRate:      paramRate,
		ParamBurst:     paramBurst,
		CleanupTimeout: config.GetRateLimiterCleanupTimeout(),
	})

	router := server.NewRouter(server.Deps{
		AppName:    config.GetAppName(),
		APIVersion: config.GetAPIVersion(),
		Service:    cachedService,
		Limiter:    limiter,
		Metrics:    m,
		Logger:     logger.Desugar(),
	})

	return &app{
		server: server.NewHTTPServer(":"+config.GetServerPort(), router, server.Timeouts{
			ReadHeader: config.GetServerTimeout("read_header_timeout"),
			Read:       config.GetServerTimeout("read_timeout"),
			Write:      config.GetServerTimeout("write_timeout"),
			Idle:       config.GetServerTimeout("idle_timeout"),
		}),
		limiter:         limiter,
		closeRedis:      redisClient.Close,
		shutdownTimeout: config.GetServerTimeout("shutdown_timeout"),
	}
}

// run serves until ctx is cancelled, then shuts down gracefully.
func (a *app) run(ctx context.Context, logger *zap.SugaredLogger) error {
	a.limiter.StartCleanup(ctx)

	serverErr := make(chan error, 1)
	go func() {
		logger.Infow("Starting Weather Gateway", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err, ok := <-serverErr:
		if ok {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()
	err := a.server.Shutdown(shutdownCtx)
	if cerr := a.closeRedis(); cerr != nil {
		logger.Warnw("Failed to close redis client", "error", cerr)
	}
	return err
}

func main() {
	logger := config.GetLogger()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(logger).run(ctx, logger); err != nil {
		logger.Errorw("Server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server exited")
}
