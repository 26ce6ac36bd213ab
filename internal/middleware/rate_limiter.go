package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/fakhrymubarak/weather-gateway/internal/model"
)

// RateLimiterConfig sets the token buckets. Rates are requests per minute.
type RateLimiterConfig struct {
	// ParamKey is the query parameter used for per-param limiting.
	ParamKey    string
	GlobalRate  float64
	GlobalBurst int
	ParamRate   float64
	ParamBurst  int
	// CleanupTimeout is how long an idle visitor is remembered.
	CleanupTimeout time.Duration
}

// the visitor holds the rate limiter and last seen time for a specific key.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces a global per-IP limit and a per-IP-and-param limit.
type RateLimiter struct {
	cfg RateLimiterConfig

	muGlobal sync.Mutex
	// globalVisitors maps IP addresses to their visitor for global rate limiting.
	globalVisitors map[string]*visitor
	muParam        sync.Mutex
	// paramVisitors maps IP -> param value -> visitor for per-param rate limiting.
	paramVisitors map[string]map[string]*visitor
}

func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.ParamKey == "" {
		cfg.ParamKey = "city"
	}
	if cfg.CleanupTimeout <= 0 {
		cfg.CleanupTimeout = 3 * time.Minute
	}
	return &RateLimiter{
		cfg:            cfg,
		globalVisitors: make(map[string]*visitor),
		paramVisitors:  make(map[string]map[string]*visitor),
	}
}

func perMinute(r float64) rate.Limit {
	return rate.Limit(r / 60.0)
}

// getGlobalLimiter returns the rate limiter for the given IP address, creating one if it does not exist.
func (rl *RateLimiter) getGlobalLimiter(ip string) *rate.Limiter {
	rl.muGlobal.Lock()
	defer rl.muGlobal.Unlock()
	v, exists := rl.globalVisitors[ip]
	if !exists {
		limiter := rate.NewLimiter(perMinute(rl.cfg.GlobalRate), rl.cfg.GlobalBurst)
		rl.globalVisitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// getParamLimiter returns the rate limiter for the given IP address and parameter value, creating one if it does not exist.
func (rl *RateLimiter) getParamLimiter(ip, param string) *rate.Limiter {
	rl.muParam.Lock()
	defer rl.muParam.Unlock()
	if _, ok := rl.paramVisitors[ip]; !ok {
		rl.paramVisitors[ip] = make(map[string]*visitor)
	}
	v, exists := rl.paramVisitors[ip][param]
	if !exists {
		limiter := rate.NewLimiter(perMinute(rl.cfg.ParamRate), rl.cfg.ParamBurst)
		rl.paramVisitors[ip][param] = &visitor{limiter, time.Now()}
		return limiter
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// cleanup removes visitors that have not been seen for longer than CleanupTimeout.
func (rl *RateLimiter) cleanup(now time.Time) {
	rl.muGlobal.Lock()
	for ip, v := range rl.globalVisitors {
		if now.Sub(v.lastSeen) > rl.cfg.CleanupTimeout {
			delete(rl.globalVisitors, ip)
		}
	}
	rl.muGlobal.Unlock()

	rl.muParam.Lock()
	for ip, paramMap := range rl.paramVisitors {
		for param, v := range paramMap {
			if now.Sub(v.lastSeen) > rl.cfg.CleanupTimeout {
				delete(paramMap, param)
			}
		}
		if len(paramMap) == 0 {
			delete(rl.paramVisitors, ip)
		}
	}
	rl.muParam.Unlock()
}

// StartCleanup periodically drops stale visitors until ctx is done.
func (rl *RateLimiter) StartCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				rl.cleanup(now)
			}
		}
	}()
}

// Reset clears all visitor state.
func (rl *RateLimiter) Reset() {
	rl.muGlobal.Lock()
	rl.globalVisitors = make(map[string]*visitor)
	rl.muGlobal.Unlock()
	rl.muParam.Lock()
	rl.paramVisitors = make(map[string]map[string]*visitor)
	rl.muParam.Unlock()
}

// getIP extracts the client's IP address from the HTTP request, considering X-Forwarded-For headers.
func getIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr // fallback
	}
	return ip
}

func writeTooManyRequests(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "60")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(model.ErrorResponse{Detail: detail})
}

// Middleware returns an HTTP middleware that enforces global and per-parameter rate limiting.
// If the rate limit is exceeded, it responds with a 429 status and a JSON error message.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := getIP(r)
		param := strings.TrimSpace(r.URL.Query().Get(rl.cfg.ParamKey))
		if param == "" {
			// If param is missing, treat as a single bucket
			param = "__none__"
		}
		if !rl.getGlobalLimiter(ip).Allow() {
			writeTooManyRequests(w, fmt.Sprintf(
				"Rate limit exceeded: max %g requests per minute per user/IP", rl.cfg.GlobalRate))
			return
		}
		if !rl.getParamLimiter(ip, param).Allow() {
			writeTooManyRequests(w, fmt.Sprintf(
				"Rate limit exceeded: max %g requests per minute per unique %s per user/IP",
				rl.cfg.ParamRate, rl.cfg.ParamKey))
			return
		}
		next.ServeHTTP(w, r)
	})
}
