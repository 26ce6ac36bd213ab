package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/fakhrymubarak/weather-gateway/internal/logger"
)

var once sync.Once
var log *zap.SugaredLogger
var loggerOnce sync.Once

// loadWarnings collects config load problems until the logger exists.
var loadWarnings []string

// isTestRun returns true if the current process is a Go test binary.
func isTestRun() bool {
	return flag.Lookup("test.v") != nil || filepath.Ext(os.Args[0]) == ".test"
}

func setDefaults() {
	viper.SetDefault("app.name", "Weather Gateway")
	viper.SetDefault("app.api_version", "v1")
	viper.SetDefault("app.debug", false)

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_header_timeout", "15s")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "45s")
	viper.SetDefault("server.idle_timeout", "30s")
	viper.SetDefault("server.shutdown_timeout", "10s")

	viper.SetDefault("weatherstack.api_url", "https://api.weatherstack.com/current")
	viper.SetDefault("weatherstack.units", "m")
	viper.SetDefault("weatherstack.timeout", "10s")

	viper.SetDefault("retry.max_attempts", 3)
	viper.SetDefault("retry.multiplier", "1s")

	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("cache.expiration", "10m")

	viper.SetDefault("rate_limiter.cleanup_timeout", "3m")
	viper.SetDefault("rate_limiter.global.rate", 10)
	viper.SetDefault("rate_limiter.global.burst", 10)
	viper.SetDefault("rate_limiter.param.rate", 2)
	viper.SetDefault("rate_limiter.param.burst", 2)

	viper.SetDefault("log.file", "")
}

func initConfig() {
	once.Do(func() {
		_ = godotenv.Load()
		setDefaults()
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		root, err := getProjectRoot()
		if err != nil {
			loadWarnings = append(loadWarnings, "project root not found: "+err.Error())
			return
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
		viper.AddConfigPath(root)
		if err = viper.ReadInConfig(); err != nil {
			loadWarnings = append(loadWarnings, "reading config file: "+err.Error())
		}

		if isTestRun() {
			viper.SetConfigName("config_test")
			if err = viper.MergeInConfig(); err != nil {
				loadWarnings = append(loadWarnings, "merging test config file: "+err.Error())
			}
		}
	})
}

func getProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

// getDuration parses key as a duration, falling back to def when unset or invalid.
func getDuration(key string, def time.Duration) time.Duration {
	initConfig()
	raw := viper.GetString(key)
	if raw == "" {
		return def
	}
	dur, err := time.ParseDuration(raw)
	if err != nil || dur <= 0 {
		return def
	}
	return dur
}

func GetAppName() string {
	initConfig()
	return viper.GetString("app.name")
}

func GetAPIVersion() string {
	initConfig()
	return viper.GetString("app.api_version")
}

func IsDebug() bool {
	initConfig()
	return viper.GetBool("app.debug")
}

func GetWeatherstackAPIURL() string {
	initConfig()
	return viper.GetString("weatherstack.api_url")
}

func GetWeatherstackUnits() string {
	initConfig()
	return viper.GetString("weatherstack.units")
}

// GetWeatherstackAPIKey returns the provider access key. The key only ever comes from
// the environment (or a local .env file), never from config.yaml.
func GetWeatherstackAPIKey() string {
	_ = godotenv.Load()
	return os.Getenv("WEATHERSTACK_API_KEY")
}

// GetProviderTimeout is the total timeout of a single provider call.
func GetProviderTimeout() time.Duration {
	return getDuration("weatherstack.timeout", 10*time.Second)
}

// GetRetryPolicy returns the attempt budget and the backoff multiplier.
func GetRetryPolicy() (maxAttempts int, multiplier time.Duration) {
	initConfig()
	maxAttempts = viper.GetInt("retry.max_attempts")
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	multiplier = getDuration("retry.multiplier", time.Second)
	return
}

func GetRedisAddr() string {
	initConfig()
	return viper.GetString("redis.addr")
}

func GetServerPort() string {
	initConfig()
	return viper.GetString("server.port")
}

// GetCacheExpiration returns the weather cache TTL. Defaults to 10m.
func GetCacheExpiration() time.Duration {
	return getDuration("cache.expiration", 10*time.Minute)
}

// GetServerTimeout returns one of the server.* timeouts, e.g. "read_header_timeout".
func GetServerTimeout(key string) time.Duration {
	return getDuration("server."+key, 15*time.Second)
}

func GetLogFile() string {
	initConfig()
	return viper.GetString("log.file")
}

// ReloadConfigForTest resets the config singleton and reloads Viper config. Use only in tests.
func ReloadConfigForTest() {
	once = sync.Once{}
	initConfig()
}

// GetLogger returns the process-wide logger, built on first use from the app.* and
// log.* settings.
func GetLogger() *zap.SugaredLogger {
	loggerOnce.Do(func() {
		initConfig()
		l, err := logger.New(logger.Options{
			AppName: viper.GetString("app.name"),
			Debug:   viper.GetBool("app.debug"),
			File:    viper.GetString("log.file"),
		})
		if err != nil {
			panic(err)
		}
		log = l.Sugar()
		for _, w := range loadWarnings {
			log.Warnw("Config load problem, falling back to defaults", "detail", w)
		}
	})
	return log
}

// GetRateLimiterCleanupTimeout returns the rate limiter cleanup timeout as a time.Duration.
// Defaults to 3m if not set or invalid.
func GetRateLimiterCleanupTimeout() time.Duration {
	return getDuration("rate_limiter.cleanup_timeout", 3*time.Minute)
}

// GetGlobalRateLimiterConfig returns the per-minute rate and burst for the global rate limiter.
func GetGlobalRateLimiterConfig() (rate float64, burst int) {
	initConfig()
	rate = viper.GetFloat64("rate_limiter.global.rate")
	if rate == 0 {
		rate = 10
	}
	burst = viper.GetInt("rate_limiter.global.burst")
	if burst == 0 {
		burst = 10
	}
	return
}

// GetParamRateLimiterConfig returns the per-minute rate and burst for the per-city rate limiter.
func GetParamRateLimiterConfig() (rate float64, burst int) {
	initConfig()
	rate = viper.GetFloat64("rate_limiter.param.rate")
	if rate == 0 {
		rate = 2
	}
	burst = viper.GetInt("rate_limiter.param.burst")
	if burst == 0 {
		burst = 2
	}
	return
}
