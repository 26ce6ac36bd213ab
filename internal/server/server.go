// Package server assembles the gateway's routes and middleware.
package server

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/fakhrymubarak/weather-gateway/internal/docs"
	"github.com/fakhrymubarak/weather-gateway/internal/handler"
	"github.com/fakhrymubarak/weather-gateway/internal/metrics"
	"github.com/fakhrymubarak/weather-gateway/internal/middleware"
	"github.com/fakhrymubarak/weather-gateway/internal/service"
)

const (
	WeatherPath = "/api/v1/weather/"
	DocsPath    = "/docs"
)

// Deps are the collaborators the router needs. Logger, Metrics and Limiter may be nil.
type Deps struct {
	AppName    string
	APIVersion string
	Service    service.WeatherServiceInterface
	Limiter    *middleware.RateLimiter
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
}

// Timeouts for the http.Server.
type Timeouts struct {
	ReadHeader time.Duration
	Read       time.Duration
	Write      time.Duration
	Idle       time.Duration
}

// NewRouter returns the gateway's root handler.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	sugar := d.Logger.Sugar()
	docs.SwaggerInfo.Title = d.AppName
	docs.SwaggerInfo.Version = d.APIVersion

	weatherHandler := handler.NewWeatherHandler(d.Service, sugar)
	rootHandler := handler.NewRootHandler(d.AppName, d.APIVersion, DocsPath, sugar)

	var weather http.Handler = http.HandlerFunc(weatherHandler.HandleWeather)
	if d.Limiter != nil {
		weather = d.Limiter.Middleware(weather)
	}
	weather = middleware.Metrics(d.Metrics, WeatherPath)(weather)

	mux := http.NewServeMux()
	mux.Handle(WeatherPath, weather)
	// Served directly rather than through the mux's trailing-slash redirect.
	mux.Handle("/api/v1/weather", weather)
	mux.Handle("/health", middleware.Metrics(d.Metrics, "/health")(http.HandlerFunc(rootHandler.HandleHealth)))
	mux.Handle("/", middleware.Metrics(d.Metrics, "/")(http.HandlerFunc(rootHandler.HandleRoot)))
	mux.Handle(DocsPath, http.RedirectHandler(DocsPath+"/index.html", http.StatusMovedPermanently))
	mux.Handle(DocsPath+"/", httpSwagger.Handler(httpSwagger.URL(DocsPath+"/doc.json")))
	if d.Metrics != nil {
		mux.Handle("/metrics", d.Metrics.Handler())
	}

	return middleware.Chain(mux,
		middleware.Recovery(d.Logger),
		middleware.RequestID,
		middleware.Logging(d.Logger),
		middleware.CORS,
	)
}

// NewHTTPServer wraps h in an http.Server listening on addr.
func NewHTTPServer(addr string, h http.Handler, t Timeouts) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: t.ReadHeader,
		ReadTimeout:       t.Read,
		WriteTimeout:      t.Write,
		IdleTimeout:       t.Idle,
	}
}
